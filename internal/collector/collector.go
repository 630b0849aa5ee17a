package collector

import (
	"context"
	"errors"
	"log"
	"time"

	"FraudSentinel/internal/bank"
	"FraudSentinel/internal/model"
)

// Fetcher is the slice of the bank client the collector needs.
type Fetcher interface {
	FetchBalance(ctx context.Context, accountID, token string) (int64, error)
	FetchTransactions(ctx context.Context, accountID, token string) ([]model.Transaction, error)
}

// Collector assembles the per-account snapshot for one cycle: balance first,
// then transaction history, windowed to the configured length. On credential
// expiry it triggers one synchronized refresh and retries the failed call
// once before giving up on the account for this cycle.
type Collector struct {
	Bank   Fetcher
	Cred   *bank.Credential
	Window int
	now    func() time.Time
}

// NewCollector creates a Collector with the given transaction window.
func NewCollector(fetcher Fetcher, cred *bank.Credential, window int) *Collector {
	if window <= 0 {
		window = 10
	}
	return &Collector{Bank: fetcher, Cred: cred, Window: window, now: time.Now}
}

// Snapshot captures the frozen balance+transactions view of one account.
func (c *Collector) Snapshot(ctx context.Context, acct model.Account) (*model.AccountSnapshot, error) {
	token, gen, err := c.Cred.Token(ctx)
	if err != nil {
		return nil, &bank.FetchError{AccountID: acct.ID, Op: "credential", Err: err}
	}

	balance, err := c.Bank.FetchBalance(ctx, acct.ID, token)
	if errors.Is(err, bank.ErrAuthExpired) {
		if token, gen, err = c.refresh(ctx, acct.ID, gen); err == nil {
			balance, err = c.Bank.FetchBalance(ctx, acct.ID, token)
		}
	}
	if err != nil {
		return nil, err
	}

	txs, err := c.Bank.FetchTransactions(ctx, acct.ID, token)
	if errors.Is(err, bank.ErrAuthExpired) {
		if token, _, err = c.refresh(ctx, acct.ID, gen); err == nil {
			txs, err = c.Bank.FetchTransactions(ctx, acct.ID, token)
		}
	}
	if err != nil {
		return nil, err
	}

	if len(txs) > c.Window {
		txs = txs[:c.Window]
	}

	return &model.AccountSnapshot{
		AccountID:    acct.ID,
		Owner:        acct.Owner,
		Balance:      balance,
		Transactions: txs,
		CapturedAt:   c.now(),
	}, nil
}

func (c *Collector) refresh(ctx context.Context, accountID string, staleGen uint64) (string, uint64, error) {
	log.Printf("[WARN] credential expired during fetch for account %s, refreshing", accountID)
	token, gen, err := c.Cred.Refresh(ctx, staleGen)
	if err != nil {
		return "", 0, &bank.FetchError{AccountID: accountID, Op: "credential", Err: err}
	}
	return token, gen, nil
}
