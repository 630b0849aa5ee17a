package monitor

import (
	"context"
	"log"
	"sync"
	"time"

	"FraudSentinel/internal/emitter"
	"FraudSentinel/internal/model"
	"FraudSentinel/internal/recorder"
)

// State is the loop's observable phase.
type State string

const (
	StateIdle        State = "IDLE"
	StateEnumerating State = "ENUMERATING"
	StateFetching    State = "FETCHING"
	StateAnalyzing   State = "ANALYZING"
	StateEmitting    State = "EMITTING"
	StateSleeping    State = "SLEEPING"
)

// AccountSource enumerates the accounts to monitor each cycle.
type AccountSource interface {
	ListAccounts(ctx context.Context) ([]model.Account, error)
}

// Snapshotter captures one account's balance and recent history.
type Snapshotter interface {
	Snapshot(ctx context.Context, acct model.Account) (*model.AccountSnapshot, error)
}

// Assessor turns a snapshot into a risk assessment. It never fails; model
// trouble degrades inside the assessment itself.
type Assessor interface {
	Analyze(ctx context.Context, snap *model.AccountSnapshot) model.RiskAssessment
}

// Loop drives the monitoring cycle: enumerate, fetch, analyze, emit, sleep.
type Loop struct {
	Accounts    AccountSource
	Snapshots   Snapshotter
	Assessor    Assessor
	Emitter     *emitter.Emitter
	Recorder    recorder.Recorder
	Interval    time.Duration
	Concurrency int

	mu     sync.Mutex
	state  State
	totals model.Totals

	quit     chan struct{}
	quitOnce sync.Once
}

// New creates a Loop. Concurrency <= 0 falls back to 4 workers.
func New(accounts AccountSource, snapshots Snapshotter, assessor Assessor,
	em *emitter.Emitter, rec recorder.Recorder, interval time.Duration, concurrency int) *Loop {
	if concurrency <= 0 {
		concurrency = 4
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Loop{
		Accounts:    accounts,
		Snapshots:   snapshots,
		Assessor:    assessor,
		Emitter:     em,
		Recorder:    rec,
		Interval:    interval,
		Concurrency: concurrency,
		state:       StateIdle,
		totals:      model.Totals{ByCategory: make(map[model.RiskCategory]int)},
		quit:        make(chan struct{}),
	}
}

// Run executes cycles until the context is cancelled or Shutdown is called.
// A cycle in progress finishes before Run returns.
func (l *Loop) Run(ctx context.Context) {
	log.Printf("[INFO] monitoring loop started, interval %s, %d workers", l.Interval, l.Concurrency)
	for {
		l.runCycle(ctx)

		l.setState(StateSleeping)
		select {
		case <-ctx.Done():
			l.setState(StateIdle)
			log.Println("[INFO] monitoring loop stopped: context cancelled")
			return
		case <-l.quit:
			l.setState(StateIdle)
			log.Println("[INFO] monitoring loop stopped")
			return
		case <-time.After(l.Interval):
		}
	}
}

// Shutdown requests a graceful stop. Safe to call more than once.
func (l *Loop) Shutdown() {
	l.quitOnce.Do(func() { close(l.quit) })
}

// State reports the loop's current phase.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Totals returns a copy of the cumulative counters.
func (l *Loop) Totals() model.Totals {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := l.totals
	t.ByCategory = make(map[model.RiskCategory]int, len(l.totals.ByCategory))
	for k, v := range l.totals.ByCategory {
		t.ByCategory[k] = v
	}
	return t
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// fetchResult pairs an account with its snapshot or failure.
type fetchResult struct {
	account model.Account
	snap    *model.AccountSnapshot
	err     error
}

func (l *Loop) runCycle(ctx context.Context) {
	stats := recorder.CycleStats{StartedAt: time.Now()}

	l.setState(StateEnumerating)
	accounts, err := l.Accounts.ListAccounts(ctx)
	if err != nil {
		// Enumeration failure skips the whole cycle; stale per-account
		// conclusions are worse than none.
		log.Printf("[WARN] account enumeration failed, skipping cycle: %v", err)
		stats.Skipped = true
		stats.Err = err.Error()
		l.finishCycle(&stats, nil)
		return
	}
	stats.Accounts = len(accounts)
	log.Printf("[INFO] cycle started: %d accounts", len(accounts))

	l.setState(StateFetching)
	snapshots := l.fetchAll(ctx, accounts, &stats)

	l.setState(StateAnalyzing)
	assessments := l.analyzeAll(ctx, snapshots)

	l.setState(StateEmitting)
	byCategory := make(map[model.RiskCategory]int)
	for _, a := range assessments {
		stats.Assessments++
		byCategory[a.Category]++
		if a.Category == model.RiskUnknown {
			stats.Degraded++
		}
		if err := l.Recorder.RecordAssessment(&a); err != nil {
			log.Printf("[WARN] record assessment for %s: %v", a.AccountID, err)
		}
		alert := l.Emitter.Emit(ctx, a)
		if alert == nil {
			continue
		}
		stats.Alerts++
		if err := l.Recorder.RecordAlert(alert); err != nil {
			log.Printf("[WARN] record alert #%d: %v", alert.Seq, err)
		}
	}

	log.Printf("[INFO] cycle finished: %d assessed, %d alerts, %d fetch failures",
		stats.Assessments, stats.Alerts, stats.FetchFailures)
	l.finishCycle(&stats, byCategory)
}

// fetchAll snapshots every account through a bounded worker pool. A failed
// account is logged and dropped; the rest of the cycle continues.
func (l *Loop) fetchAll(ctx context.Context, accounts []model.Account, stats *recorder.CycleStats) []*model.AccountSnapshot {
	jobs := make(chan model.Account)
	results := make(chan fetchResult)

	var wg sync.WaitGroup
	for i := 0; i < l.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for acct := range jobs {
				snap, err := l.Snapshots.Snapshot(ctx, acct)
				results <- fetchResult{account: acct, snap: snap, err: err}
			}
		}()
	}

	go func() {
		for _, acct := range accounts {
			jobs <- acct
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	snapshots := make([]*model.AccountSnapshot, 0, len(accounts))
	for res := range results {
		if res.err != nil {
			log.Printf("[WARN] fetch failed for account %s, excluded from cycle: %v",
				res.account.ID, res.err)
			stats.FetchFailures++
			continue
		}
		snapshots = append(snapshots, res.snap)
	}
	return snapshots
}

// analyzeAll runs assessments through a bounded worker pool. Exactly one
// assessment comes back per snapshot.
func (l *Loop) analyzeAll(ctx context.Context, snapshots []*model.AccountSnapshot) []model.RiskAssessment {
	jobs := make(chan *model.AccountSnapshot)
	results := make(chan model.RiskAssessment)

	var wg sync.WaitGroup
	for i := 0; i < l.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for snap := range jobs {
				results <- l.Assessor.Analyze(ctx, snap)
			}
		}()
	}

	go func() {
		for _, snap := range snapshots {
			jobs <- snap
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	assessments := make([]model.RiskAssessment, 0, len(snapshots))
	for a := range results {
		assessments = append(assessments, a)
	}
	return assessments
}

func (l *Loop) finishCycle(stats *recorder.CycleStats, byCategory map[model.RiskCategory]int) {
	if err := l.Recorder.RecordCycle(stats); err != nil {
		log.Printf("[WARN] record cycle: %v", err)
	}

	l.mu.Lock()
	l.totals.Cycles++
	if stats.Skipped {
		l.totals.Skipped++
	}
	l.totals.Assessments += stats.Assessments
	l.totals.Alerts += stats.Alerts
	l.totals.FetchFailures += stats.FetchFailures
	for cat, n := range byCategory {
		l.totals.ByCategory[cat] += n
	}
	l.mu.Unlock()
}
