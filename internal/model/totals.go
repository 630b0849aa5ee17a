package model

// Totals accumulates loop counters over the process lifetime. Snapshots are
// value copies so readers never race with the loop.
type Totals struct {
	Cycles        int
	Skipped       int
	Assessments   int
	ByCategory    map[RiskCategory]int
	Alerts        int
	FetchFailures int
}
