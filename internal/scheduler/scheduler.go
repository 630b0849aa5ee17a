package scheduler

import (
	"context"
	"fmt"
	"log"

	"FraudSentinel/internal/emitter"
	"FraudSentinel/internal/monitor"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the cron tasks that run alongside the monitoring loop:
// a daily operations digest and the alert suppression reset.
type Scheduler struct {
	Cron    *cron.Cron
	Loop    *monitor.Loop
	Emitter *emitter.Emitter
	Ctx     context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, loop *monitor.Loop, em *emitter.Emitter) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Loop:    loop,
		Emitter: em,
		Ctx:     ctx,
	}
}

// RegisterAll registers the digest and re-arm tasks.
func (s *Scheduler) RegisterAll(digestCron, rearmCron string) error {
	if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	if _, err := s.Cron.AddFunc(rearmCron, s.rearmTask); err != nil {
		return fmt.Errorf("register rearm task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) digestTask() {
	log.Println("[INFO] running daily digest")
	s.Emitter.Announce(s.Ctx, emitter.FormatDigest(s.Loop.Totals()))
}

func (s *Scheduler) rearmTask() {
	log.Println("[INFO] running alert re-arm")
	s.Emitter.Rearm()
}
