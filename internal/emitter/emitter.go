package emitter

import (
	"context"
	"log"
	"sync"
	"time"

	"FraudSentinel/internal/model"
)

// Sink delivers alerts to an external channel. Delivery failures are the
// sink's problem to report; the emitter logs them and moves on.
type Sink interface {
	Deliver(ctx context.Context, alert *model.Alert) error
	Announce(ctx context.Context, text string) error
	Name() string
}

// Emitter filters assessments against the configured risk threshold and
// emits at most one alert per distinct assessment. Sequence numbers are
// strictly increasing across the process lifetime.
type Emitter struct {
	mu          sync.Mutex
	seq         uint64
	minCategory model.RiskCategory
	minScore    float64
	realert     bool
	emitted     map[string]string // account id -> key of the last handled assessment
	lastAlerted map[string]model.RiskCategory
	sinks       []Sink
}

// New creates an Emitter. minScore <= 0 disables the score floor so only the
// category threshold applies. When realert is false an account that already
// alerted stays quiet until it drops below threshold or Rearm is called.
func New(minCategory model.RiskCategory, minScore float64, realert bool, sinks ...Sink) *Emitter {
	return &Emitter{
		minCategory: minCategory,
		minScore:    minScore,
		realert:     realert,
		emitted:     make(map[string]string),
		lastAlerted: make(map[string]model.RiskCategory),
		sinks:       sinks,
	}
}

// Emit evaluates one assessment. It returns the alert when one was emitted,
// nil when the assessment was below threshold or suppressed.
func (e *Emitter) Emit(ctx context.Context, a model.RiskAssessment) *model.Alert {
	e.mu.Lock()

	if !e.qualifies(a) {
		// Dropping below threshold re-arms the account.
		delete(e.lastAlerted, a.AccountID)
		e.mu.Unlock()
		return nil
	}

	// One ledger entry per account keeps memory bounded across cycles;
	// assessments arrive in capture order, so the last key is enough to
	// detect a re-emission of the same assessment.
	key := a.AccountID + "|" + a.AssessedAt.UTC().Format(time.RFC3339Nano)
	if e.emitted[a.AccountID] == key {
		e.mu.Unlock()
		return nil
	}

	if !e.realert {
		if _, alerted := e.lastAlerted[a.AccountID]; alerted {
			e.emitted[a.AccountID] = key
			e.mu.Unlock()
			return nil
		}
	}

	e.emitted[a.AccountID] = key
	e.lastAlerted[a.AccountID] = a.Category
	e.seq++
	alert := &model.Alert{
		Seq:        e.seq,
		Assessment: a,
		EmittedAt:  time.Now().UTC(),
	}
	e.mu.Unlock()

	for _, s := range e.sinks {
		if err := s.Deliver(ctx, alert); err != nil {
			log.Printf("[ERROR] alert #%d delivery via %s failed: %v", alert.Seq, s.Name(), err)
		}
	}
	return alert
}

// qualifies holds e.mu.
func (e *Emitter) qualifies(a model.RiskAssessment) bool {
	if a.Category.Rank() >= e.minCategory.Rank() && a.Category != model.RiskUnknown {
		return true
	}
	return e.minScore > 0 && a.Score >= e.minScore
}

// Announce broadcasts free-form text (digests, startup notices) to all sinks.
func (e *Emitter) Announce(ctx context.Context, text string) {
	for _, s := range e.sinks {
		if err := s.Announce(ctx, text); err != nil {
			log.Printf("[ERROR] announcement via %s failed: %v", s.Name(), err)
		}
	}
}

// Rearm clears suppression state so persistently risky accounts alert again,
// and prunes the idempotence ledger. Intended for a scheduled daily reset.
func (e *Emitter) Rearm() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emitted = make(map[string]string)
	e.lastAlerted = make(map[string]model.RiskCategory)
	log.Println("[INFO] alert suppression state cleared")
}

// Sequence returns the number of alerts emitted so far.
func (e *Emitter) Sequence() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq
}
