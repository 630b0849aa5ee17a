package emitter

import (
	"fmt"
	"strings"
	"time"

	"FraudSentinel/internal/model"
)

// FormatAlert renders an alert as a human-readable block for log and
// webhook sinks.
func FormatAlert(alert *model.Alert) string {
	a := alert.Assessment
	var b strings.Builder

	fmt.Fprintf(&b, "FRAUD ALERT #%d | %s RISK\n", alert.Seq, a.Category)
	fmt.Fprintf(&b, "Account: %s\n", a.AccountID)
	fmt.Fprintf(&b, "Risk score: %.2f\n", a.Score)
	fmt.Fprintf(&b, "Model: %s | Assessed: %s\n", a.Model, a.AssessedAt.UTC().Format(time.RFC3339))

	if len(a.Indicators) > 0 {
		b.WriteString("Indicators:\n")
		for _, ind := range a.Indicators {
			fmt.Fprintf(&b, "  - %s\n", ind)
		}
	}
	if a.Rationale != "" {
		fmt.Fprintf(&b, "Analysis: %s\n", a.Rationale)
	}
	if len(a.Actions) > 0 {
		b.WriteString("Recommended actions:\n")
		for _, act := range a.Actions {
			fmt.Fprintf(&b, "  - %s\n", act)
		}
	}

	return b.String()
}

// FormatDigest renders cumulative loop totals for the scheduled daily digest.
func FormatDigest(totals model.Totals) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Fraud monitoring digest | %s\n\n", time.Now().UTC().Format("2006-01-02"))
	fmt.Fprintf(&b, "Cycles completed: %d (skipped: %d)\n", totals.Cycles, totals.Skipped)
	fmt.Fprintf(&b, "Assessments: %d\n", totals.Assessments)

	for _, cat := range []model.RiskCategory{model.RiskHigh, model.RiskMedium, model.RiskLow, model.RiskUnknown} {
		if n := totals.ByCategory[cat]; n > 0 {
			fmt.Fprintf(&b, "  %s: %d\n", cat, n)
		}
	}

	fmt.Fprintf(&b, "Alerts emitted: %d\n", totals.Alerts)
	if totals.FetchFailures > 0 {
		fmt.Fprintf(&b, "Fetch failures: %d\n", totals.FetchFailures)
	}

	return b.String()
}
