package recorder

import (
	"time"

	"FraudSentinel/internal/model"
)

// CycleStats summarizes one completed (or skipped) monitoring cycle.
type CycleStats struct {
	StartedAt     time.Time
	Accounts      int
	FetchFailures int
	Degraded      int // assessments that fell back to UNKNOWN
	Assessments   int
	Alerts        int
	Skipped       bool
	Err           string
}

// Recorder persists monitoring history for offline review.
type Recorder interface {
	RecordCycle(stats *CycleStats) error
	RecordAssessment(a *model.RiskAssessment) error
	RecordAlert(alert *model.Alert) error
	Close() error
}
