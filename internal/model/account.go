package model

import "time"

// Account identifies one bank account under monitoring.
type Account struct {
	ID    string
	Owner string
}

// Transaction is a single ledger entry from the transaction history service.
// Amount is in minor currency units and always positive on the wire; direction
// is determined by the from/to account ids.
type Transaction struct {
	FromAccountID string
	ToAccountID   string
	FromRouting   string
	ToRouting     string
	Amount        int64
	Timestamp     time.Time
}

// SignedAmount returns the transaction amount from the perspective of the
// given account: negative for outgoing, positive for incoming.
func (t Transaction) SignedAmount(accountID string) int64 {
	if t.FromAccountID == accountID {
		return -t.Amount
	}
	return t.Amount
}
