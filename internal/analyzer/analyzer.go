package analyzer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"FraudSentinel/internal/model"
	"FraudSentinel/internal/retry"
)

// Model is the generative backend: a text prompt in, free-form text out.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Analyzer turns account snapshots into risk assessments. Model invocations
// are retried with bounded exponential backoff; exhausted retries degrade to
// an UNKNOWN assessment instead of failing the account.
type Analyzer struct {
	Model       Model
	MaxAttempts int
	BaseDelay   time.Duration
}

// New creates an Analyzer. Zero retry settings fall back to 3 attempts with
// a 1s base delay.
func New(m Model, maxAttempts int, baseDelay time.Duration) *Analyzer {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &Analyzer{Model: m, MaxAttempts: maxAttempts, BaseDelay: baseDelay}
}

// Analyze produces exactly one RiskAssessment for the snapshot. It never
// returns an error: model failures and unparsable output degrade instead.
func (a *Analyzer) Analyze(ctx context.Context, snap *model.AccountSnapshot) model.RiskAssessment {
	assessment := model.RiskAssessment{
		AccountID:  snap.AccountID,
		Model:      a.Model.Name(),
		AssessedAt: snap.CapturedAt,
	}

	prompt := BuildPrompt(snap)
	var raw string
	err := retry.Do(ctx, a.MaxAttempts, a.BaseDelay, func() error {
		out, genErr := a.Model.Generate(ctx, prompt)
		if genErr != nil {
			return genErr
		}
		raw = out
		return nil
	})
	if err != nil {
		log.Printf("[WARN] model invocation failed for account %s after %d attempts: %v",
			snap.AccountID, a.MaxAttempts, err)
		assessment.Category = model.RiskUnknown
		assessment.Rationale = fmt.Sprintf("model unavailable: %v", err)
		return assessment
	}

	parsed, ok := parseResponse(raw)
	if !ok {
		log.Printf("[WARN] unparsable model response for account %s, falling back to LOW", snap.AccountID)
		assessment.Category = model.RiskLow
		assessment.Score = 0
		assessment.Rationale = strings.TrimSpace(raw)
		return assessment
	}

	assessment.Category = parsed.Category
	assessment.Score = parsed.Score
	assessment.Rationale = parsed.Rationale
	assessment.Indicators = parsed.Indicators
	assessment.Actions = parsed.Actions
	return assessment
}
