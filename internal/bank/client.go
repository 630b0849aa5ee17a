package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"FraudSentinel/internal/model"
)

// Client calls the bank's REST services: account listing, balance reader and
// transaction history. All endpoints take the bearer credential in the
// Authorization header.
type Client struct {
	AccountsURL     string
	BalancesURL     string
	TransactionsURL string
	Cred            *Credential
	HTTP            *http.Client
}

// NewClient creates a bank client with the shared credential.
func NewClient(accountsURL, balancesURL, transactionsURL string, cred *Credential) *Client {
	return &Client{
		AccountsURL:     accountsURL,
		BalancesURL:     balancesURL,
		TransactionsURL: transactionsURL,
		Cred:            cred,
		HTTP:            &http.Client{Timeout: 30 * time.Second},
	}
}

// userRecord tolerates both field spellings the user service has emitted.
type userRecord struct {
	AccountID    string `json:"accountid"`
	AccountIDAlt string `json:"account_id"`
	Username     string `json:"username"`
	UserIDAlt    string `json:"user_id"`
}

func (u userRecord) id() string {
	if u.AccountID != "" {
		return u.AccountID
	}
	return u.AccountIDAlt
}

func (u userRecord) owner() string {
	if u.Username != "" {
		return u.Username
	}
	return u.UserIDAlt
}

// ListAccounts returns the deduplicated set of accounts to monitor. Any
// transport, status or decode failure wraps into *EnumerationError.
func (c *Client) ListAccounts(ctx context.Context) ([]model.Account, error) {
	token, _, err := c.Cred.Token(ctx)
	if err != nil {
		return nil, &EnumerationError{Err: err}
	}
	body, err := c.get(ctx, c.AccountsURL+"/users", token)
	if err != nil {
		return nil, &EnumerationError{Err: err}
	}
	var users []userRecord
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, &EnumerationError{Err: fmt.Errorf("decode users: %w", err)}
	}

	seen := make(map[string]struct{}, len(users))
	accounts := make([]model.Account, 0, len(users))
	for _, u := range users {
		id := u.id()
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		accounts = append(accounts, model.Account{ID: id, Owner: u.owner()})
	}
	return accounts, nil
}

// FetchBalance returns the current balance in minor currency units. The
// balance reader has emitted both a bare JSON number and an object form;
// both are accepted.
func (c *Client) FetchBalance(ctx context.Context, accountID, token string) (int64, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/balances/%s", c.BalancesURL, accountID), token)
	if err != nil {
		return 0, &FetchError{AccountID: accountID, Op: "balance", Err: err}
	}

	var balance int64
	if err := json.Unmarshal(body, &balance); err == nil {
		return balance, nil
	}
	var wrapped struct {
		Balance int64 `json:"balance"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return 0, &FetchError{AccountID: accountID, Op: "balance", Err: fmt.Errorf("decode balance: %w", err)}
	}
	return wrapped.Balance, nil
}

// wireTransaction is the transaction history service's JSON shape.
type wireTransaction struct {
	FromAccountNum string `json:"fromAccountNum"`
	ToAccountNum   string `json:"toAccountNum"`
	FromRoutingNum string `json:"fromRoutingNum"`
	ToRoutingNum   string `json:"toRoutingNum"`
	Amount         int64  `json:"amount"`
	Timestamp      string `json:"timestamp"`
}

// FetchTransactions returns the account's transaction history ordered
// most-recent-first. Windowing to N is the collector's job.
func (c *Client) FetchTransactions(ctx context.Context, accountID, token string) ([]model.Transaction, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/transactions/%s", c.TransactionsURL, accountID), token)
	if err != nil {
		return nil, &FetchError{AccountID: accountID, Op: "transactions", Err: err}
	}
	var wire []wireTransaction
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &FetchError{AccountID: accountID, Op: "transactions", Err: fmt.Errorf("decode transactions: %w", err)}
	}

	txs := make([]model.Transaction, 0, len(wire))
	for _, w := range wire {
		ts, err := time.Parse(time.RFC3339, w.Timestamp)
		if err != nil {
			return nil, &FetchError{AccountID: accountID, Op: "transactions", Err: fmt.Errorf("parse timestamp %q: %w", w.Timestamp, err)}
		}
		txs = append(txs, model.Transaction{
			FromAccountID: w.FromAccountNum,
			ToAccountID:   w.ToAccountNum,
			FromRouting:   w.FromRoutingNum,
			ToRouting:     w.ToRoutingNum,
			Amount:        w.Amount,
			Timestamp:     ts,
		})
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Timestamp.After(txs[j].Timestamp) })
	return txs, nil
}

func (c *Client) get(ctx context.Context, endpoint, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrAuthExpired
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
