package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"FraudSentinel/internal/emitter"
	"FraudSentinel/internal/model"
	"FraudSentinel/internal/recorder"
)

type fakeSource struct {
	accounts []model.Account
	err      error
	calls    int
}

func (s *fakeSource) ListAccounts(ctx context.Context) ([]model.Account, error) {
	s.calls++
	return s.accounts, s.err
}

type fakeSnapshotter struct {
	mu      sync.Mutex
	failFor map[string]error
	calls   int
}

func (s *fakeSnapshotter) Snapshot(ctx context.Context, acct model.Account) (*model.AccountSnapshot, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if err, ok := s.failFor[acct.ID]; ok {
		return nil, err
	}
	return &model.AccountSnapshot{
		AccountID:  acct.ID,
		Owner:      acct.Owner,
		Balance:    100000,
		CapturedAt: time.Now(),
	}, nil
}

type fakeAssessor struct {
	mu         sync.Mutex
	categories map[string]model.RiskCategory
	calls      int
}

func (a *fakeAssessor) Analyze(ctx context.Context, snap *model.AccountSnapshot) model.RiskAssessment {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	cat, ok := a.categories[snap.AccountID]
	if !ok {
		cat = model.RiskLow
	}
	return model.RiskAssessment{
		AccountID:  snap.AccountID,
		Category:   cat,
		Score:      float64(cat.Rank()) * 0.3,
		AssessedAt: snap.CapturedAt,
	}
}

type captureRecorder struct {
	mu          sync.Mutex
	cycles      []recorder.CycleStats
	assessments []model.RiskAssessment
	alerts      []model.Alert
}

func (r *captureRecorder) RecordCycle(stats *recorder.CycleStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cycles = append(r.cycles, *stats)
	return nil
}

func (r *captureRecorder) RecordAssessment(a *model.RiskAssessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assessments = append(r.assessments, *a)
	return nil
}

func (r *captureRecorder) RecordAlert(alert *model.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, *alert)
	return nil
}

func (r *captureRecorder) Close() error { return nil }

func accounts(n int) []model.Account {
	out := make([]model.Account, n)
	for i := range out {
		out[i] = model.Account{ID: fmt.Sprintf("acct-%d", i), Owner: fmt.Sprintf("user-%d", i)}
	}
	return out
}

func TestRunCycle_AssessesEveryAccount(t *testing.T) {
	src := &fakeSource{accounts: accounts(8)}
	snaps := &fakeSnapshotter{}
	assess := &fakeAssessor{}
	rec := &captureRecorder{}
	l := New(src, snaps, assess, emitter.New(model.RiskMedium, 0, true), rec, time.Second, 3)

	l.runCycle(context.Background())

	if assess.calls != 8 {
		t.Errorf("assessor calls = %d, want 8", assess.calls)
	}
	if len(rec.assessments) != 8 {
		t.Errorf("recorded assessments = %d, want 8", len(rec.assessments))
	}
	if len(rec.cycles) != 1 || rec.cycles[0].Accounts != 8 {
		t.Errorf("cycle stats = %+v", rec.cycles)
	}
	if got := l.Totals(); got.Cycles != 1 || got.Assessments != 8 {
		t.Errorf("totals = %+v", got)
	}
}

func TestRunCycle_PerAccountFailureIsolation(t *testing.T) {
	src := &fakeSource{accounts: accounts(5)}
	snaps := &fakeSnapshotter{failFor: map[string]error{
		"acct-2": errors.New("balance fetch: status 500"),
	}}
	assess := &fakeAssessor{categories: map[string]model.RiskCategory{
		"acct-4": model.RiskHigh,
	}}
	rec := &captureRecorder{}
	l := New(src, snaps, assess, emitter.New(model.RiskMedium, 0, true), rec, time.Second, 2)

	l.runCycle(context.Background())

	if assess.calls != 4 {
		t.Errorf("assessor calls = %d, want 4 (failed account excluded)", assess.calls)
	}
	if len(rec.alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(rec.alerts))
	}
	if rec.alerts[0].Assessment.AccountID != "acct-4" {
		t.Errorf("alert account = %s", rec.alerts[0].Assessment.AccountID)
	}
	if rec.cycles[0].FetchFailures != 1 {
		t.Errorf("fetch failures = %d, want 1", rec.cycles[0].FetchFailures)
	}
}

func TestRunCycle_EnumerationFailureSkipsCycle(t *testing.T) {
	src := &fakeSource{err: errors.New("list accounts: connection refused")}
	snaps := &fakeSnapshotter{}
	assess := &fakeAssessor{}
	rec := &captureRecorder{}
	l := New(src, snaps, assess, emitter.New(model.RiskMedium, 0, true), rec, time.Second, 2)

	l.runCycle(context.Background())

	if snaps.calls != 0 {
		t.Errorf("snapshot calls = %d, want 0", snaps.calls)
	}
	if assess.calls != 0 {
		t.Errorf("assessor calls = %d, want 0", assess.calls)
	}
	if len(rec.cycles) != 1 || !rec.cycles[0].Skipped {
		t.Errorf("cycle stats = %+v", rec.cycles)
	}
	if got := l.Totals(); got.Skipped != 1 {
		t.Errorf("totals.Skipped = %d, want 1", got.Skipped)
	}
}

func TestRun_ShutdownStopsLoop(t *testing.T) {
	src := &fakeSource{accounts: accounts(1)}
	l := New(src, &fakeSnapshotter{}, &fakeAssessor{}, emitter.New(model.RiskMedium, 0, true), nil, time.Hour, 1)

	done := make(chan struct{})
	go func() {
		l.Run(context.Background())
		close(done)
	}()

	// First cycle runs immediately; wait for it, then stop during the sleep.
	deadline := time.After(2 * time.Second)
	for l.Totals().Cycles == 0 {
		select {
		case <-deadline:
			t.Fatal("first cycle never completed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	l.Shutdown()
	l.Shutdown() // idempotent

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
	if l.State() != StateIdle {
		t.Errorf("state = %s, want IDLE", l.State())
	}
}

func TestRun_ContextCancelStopsLoop(t *testing.T) {
	src := &fakeSource{accounts: accounts(1)}
	l := New(src, &fakeSnapshotter{}, &fakeAssessor{}, emitter.New(model.RiskMedium, 0, true), nil, time.Hour, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for l.Totals().Cycles == 0 {
		select {
		case <-deadline:
			t.Fatal("first cycle never completed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
