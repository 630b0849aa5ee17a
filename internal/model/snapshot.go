package model

import "time"

// AccountSnapshot is the frozen balance+transactions view of one account for
// one cycle. Transactions are ordered most-recent-first and bounded by the
// configured window. Snapshots are never mutated after construction and are
// discarded at the end of the cycle.
type AccountSnapshot struct {
	AccountID    string
	Owner        string
	Balance      int64 // minor currency units
	Transactions []Transaction
	CapturedAt   time.Time
}
