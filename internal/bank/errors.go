package bank

import (
	"errors"
	"fmt"
)

// ErrAuthExpired reports that the bank API rejected the bearer credential.
// Callers trigger a synchronized credential refresh and retry once.
var ErrAuthExpired = errors.New("bank: credential expired")

// EnumerationError wraps a failure to list accounts. It is cycle-fatal: the
// monitoring loop skips the whole cycle and tries again next interval.
type EnumerationError struct {
	Err error
}

func (e *EnumerationError) Error() string { return fmt.Sprintf("enumerate accounts: %v", e.Err) }
func (e *EnumerationError) Unwrap() error { return e.Err }

// FetchError wraps a per-account balance or history failure. It is fatal for
// that account in the current cycle only.
type FetchError struct {
	AccountID string
	Op        string // "balance" or "transactions"
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s for account %s: %v", e.Op, e.AccountID, e.Err)
}
func (e *FetchError) Unwrap() error { return e.Err }
