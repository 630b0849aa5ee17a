package model

import (
	"strings"
	"time"
)

// RiskCategory is the coarse classification of an assessment.
type RiskCategory string

const (
	RiskUnknown RiskCategory = "UNKNOWN"
	RiskLow     RiskCategory = "LOW"
	RiskMedium  RiskCategory = "MEDIUM"
	RiskHigh    RiskCategory = "HIGH"
)

// Rank orders categories for threshold comparison: UNKNOWN < LOW < MEDIUM < HIGH.
func (c RiskCategory) Rank() int {
	switch c {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	default:
		return 0
	}
}

// ParseCategory normalizes a model- or config-supplied category string.
// CRITICAL collapses into HIGH; anything unrecognized reports false.
func ParseCategory(s string) (RiskCategory, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return RiskLow, true
	case "MEDIUM", "MODERATE":
		return RiskMedium, true
	case "HIGH", "CRITICAL":
		return RiskHigh, true
	case "UNKNOWN":
		return RiskUnknown, true
	default:
		return RiskUnknown, false
	}
}

// RiskAssessment is the analyzer's structured judgment for one snapshot.
// AssessedAt carries the snapshot capture timestamp, tying every assessment
// to exactly one snapshot from the same cycle.
type RiskAssessment struct {
	AccountID  string
	Category   RiskCategory
	Score      float64 // 0.0 - 1.0
	Rationale  string
	Indicators []string
	Actions    []string
	Model      string
	AssessedAt time.Time
}

// Alert wraps an assessment that cleared the configured threshold, numbered
// by a process-lifetime monotonic sequence.
type Alert struct {
	Seq        uint64
	Assessment RiskAssessment
	EmittedAt  time.Time
}
