package analyzer

import (
	"encoding/json"
	"strings"

	"FraudSentinel/internal/model"
)

// parsedResponse is the structured variant extracted from model output. When
// extraction fails the caller keeps the raw text instead; the model is not a
// trusted structured API and must never crash the loop.
type parsedResponse struct {
	Category   model.RiskCategory
	Score      float64
	Rationale  string
	Indicators []string
	Actions    []string
}

// responseWire tolerates the field spellings the model has been observed to
// use despite the strict-JSON instructions.
type responseWire struct {
	RiskCategory    string   `json:"risk_category"`
	RiskLevel       string   `json:"risk_level"`
	RiskScore       *float64 `json:"risk_score"`
	Rationale       string   `json:"rationale"`
	AIAnalysis      string   `json:"ai_analysis"`
	Indicators      []string `json:"indicators"`
	FraudIndicators []string `json:"fraud_indicators"`
	Actions         []string `json:"recommended_actions"`
}

// parseResponse extracts a structured risk judgment from free-form model
// output. The boolean reports whether a category or score could be extracted.
func parseResponse(raw string) (parsedResponse, bool) {
	clean := extractJSONObject(raw)
	if clean == "" {
		return parsedResponse{}, false
	}

	var wire responseWire
	if err := json.Unmarshal([]byte(clean), &wire); err != nil {
		return parsedResponse{}, false
	}

	catText := wire.RiskCategory
	if catText == "" {
		catText = wire.RiskLevel
	}
	cat, ok := model.ParseCategory(catText)
	if !ok || cat == model.RiskUnknown {
		// No usable category; a score alone still identifies the level.
		if wire.RiskScore == nil {
			return parsedResponse{}, false
		}
		cat = categoryForScore(*wire.RiskScore)
	}

	score := scoreForCategory(cat)
	if wire.RiskScore != nil {
		score = clampScore(*wire.RiskScore)
	}

	rationale := wire.Rationale
	if rationale == "" {
		rationale = wire.AIAnalysis
	}
	indicators := wire.Indicators
	if len(indicators) == 0 {
		indicators = wire.FraudIndicators
	}

	return parsedResponse{
		Category:   cat,
		Score:      score,
		Rationale:  rationale,
		Indicators: indicators,
		Actions:    wire.Actions,
	}, true
}

// extractJSONObject strips markdown fences and surrounding chatter, keeping
// the outermost JSON object. Returns "" when no object is present.
func extractJSONObject(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return ""
	}
	return strings.TrimSpace(s[start : end+1])
}

// categoryForScore maps a bare score to a category using the same cutoffs the
// upstream analysis applies: >=0.7 HIGH, >=0.4 MEDIUM, else LOW.
func categoryForScore(score float64) model.RiskCategory {
	switch {
	case score >= 0.7:
		return model.RiskHigh
	case score >= 0.4:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// scoreForCategory supplies a representative score when the model omitted one.
func scoreForCategory(cat model.RiskCategory) float64 {
	switch cat {
	case model.RiskHigh:
		return 0.8
	case model.RiskMedium:
		return 0.5
	case model.RiskLow:
		return 0.1
	default:
		return 0
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
