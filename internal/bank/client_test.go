package bank

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"FraudSentinel/internal/config"
)

func testClient(accounts, balances, transactions http.HandlerFunc) (*Client, func()) {
	mux := http.NewServeMux()
	if accounts != nil {
		mux.HandleFunc("/users", accounts)
	}
	if balances != nil {
		mux.HandleFunc("/balances/", balances)
	}
	if transactions != nil {
		mux.HandleFunc("/transactions/", transactions)
	}
	srv := httptest.NewServer(mux)
	cred := NewCredential(&StaticTokenSource{Token: "tok-1"})
	return NewClient(srv.URL, srv.URL, srv.URL, cred), srv.Close
}

func TestListAccounts_DedupesAndToleratesFieldNames(t *testing.T) {
	client, done := testClient(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("unexpected auth header: %q", got)
		}
		w.Write([]byte(`[
			{"accountid": "1011226111", "username": "testuser"},
			{"account_id": "1033623433", "user_id": "alice"},
			{"accountid": "1011226111", "username": "testuser"},
			{"username": "no-account"}
		]`))
	}, nil, nil)
	defer done()

	accounts, err := client.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d: %+v", len(accounts), accounts)
	}
	if accounts[0].ID != "1011226111" || accounts[0].Owner != "testuser" {
		t.Errorf("unexpected first account: %+v", accounts[0])
	}
	if accounts[1].ID != "1033623433" || accounts[1].Owner != "alice" {
		t.Errorf("unexpected second account: %+v", accounts[1])
	}
}

func TestListAccounts_UpstreamErrorIsEnumerationError(t *testing.T) {
	client, done := testClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}, nil, nil)
	defer done()

	_, err := client.ListAccounts(context.Background())
	var ee *EnumerationError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EnumerationError, got %v", err)
	}
}

func TestListAccounts_MalformedBodyIsEnumerationError(t *testing.T) {
	client, done := testClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "a list"`))
	}, nil, nil)
	defer done()

	_, err := client.ListAccounts(context.Background())
	var ee *EnumerationError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EnumerationError, got %v", err)
	}
}

func TestFetchBalance_BareNumberAndObjectForms(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int64
	}{
		{"bare number", `10000000`, 10000000},
		{"object form", `{"balance": 250050}`, 250050},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, done := testClient(nil, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}, nil)
			defer done()

			got, err := client.FetchBalance(context.Background(), "1011226111", "tok-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected balance %d, got %d", tt.want, got)
			}
		})
	}
}

func TestFetchBalance_UnauthorizedSurfacesAuthExpired(t *testing.T) {
	client, done := testClient(nil, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	}, nil)
	defer done()

	_, err := client.FetchBalance(context.Background(), "1011226111", "stale")
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.AccountID != "1011226111" {
		t.Fatalf("expected FetchError carrying account id, got %v", err)
	}
}

func TestFetchBalance_MalformedBodyIsFetchError(t *testing.T) {
	client, done := testClient(nil, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"not a balance"`))
	}, nil)
	defer done()

	_, err := client.FetchBalance(context.Background(), "1011226111", "tok-1")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.Op != "balance" {
		t.Errorf("expected op balance, got %q", fe.Op)
	}
}

func TestFetchTransactions_OrdersMostRecentFirst(t *testing.T) {
	client, done := testClient(nil, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"fromAccountNum": "1011226111", "toAccountNum": "1033623433", "fromRoutingNum": "883745000", "toRoutingNum": "883745000", "amount": 50000, "timestamp": "2026-08-28T10:00:00Z"},
			{"fromAccountNum": "9099791699", "toAccountNum": "1011226111", "fromRoutingNum": "808889588", "toRoutingNum": "883745000", "amount": 786274, "timestamp": "2026-08-29T12:30:00Z"},
			{"fromAccountNum": "1011226111", "toAccountNum": "1055757655", "fromRoutingNum": "883745000", "toRoutingNum": "883745000", "amount": 1200, "timestamp": "2026-08-27T08:15:00Z"}
		]`))
	})
	defer done()

	txs, err := client.FetchTransactions(context.Background(), "1011226111", "tok-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}
	if txs[0].Amount != 786274 {
		t.Errorf("expected most recent transaction first, got amount %d", txs[0].Amount)
	}
	if got := txs[0].SignedAmount("1011226111"); got != 786274 {
		t.Errorf("expected incoming amount +786274, got %d", got)
	}
	if got := txs[1].SignedAmount("1011226111"); got != -50000 {
		t.Errorf("expected outgoing amount -50000, got %d", got)
	}
}

func TestFetchTransactions_BadTimestampIsFetchError(t *testing.T) {
	client, done := testClient(nil, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"fromAccountNum": "a", "toAccountNum": "b", "amount": 1, "timestamp": "yesterday"}]`))
	})
	defer done()

	_, err := client.FetchTransactions(context.Background(), "1011226111", "tok-1")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

// recordingTransport answers every request in-process and keeps the URLs hit.
type recordingTransport struct {
	urls []string
}

func (rt *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.urls = append(rt.urls, req.URL.String())
	body := "[]"
	if strings.Contains(req.URL.Path, "/balances/") {
		body = "100000"
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func TestClient_ConfiguredBasesGetSingleResourcePath(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	cred := NewCredential(&StaticTokenSource{Token: "tok-1"})
	client := NewClient(cfg.Bank.AccountsURL, cfg.Bank.BalancesURL, cfg.Bank.TransactionsURL, cred)
	rt := &recordingTransport{}
	client.HTTP.Transport = rt

	ctx := context.Background()
	if _, err := client.ListAccounts(ctx); err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if _, err := client.FetchBalance(ctx, "1011226111", "tok-1"); err != nil {
		t.Fatalf("fetch balance: %v", err)
	}
	if _, err := client.FetchTransactions(ctx, "1011226111", "tok-1"); err != nil {
		t.Fatalf("fetch transactions: %v", err)
	}

	want := []string{
		"http://userservice:8080/users",
		"http://balancereader:8080/balances/1011226111",
		"http://transactionhistory:8080/transactions/1011226111",
	}
	if len(rt.urls) != len(want) {
		t.Fatalf("requested %v", rt.urls)
	}
	for i := range want {
		if rt.urls[i] != want[i] {
			t.Errorf("request %d hit %s, want %s", i, rt.urls[i], want[i])
		}
	}
}
