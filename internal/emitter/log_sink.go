package emitter

import (
	"context"
	"log"

	"FraudSentinel/internal/model"
)

// LogSink prints alerts to the process log. Always configured so alerts are
// visible even when no external channel is set up.
type LogSink struct{}

func (LogSink) Deliver(ctx context.Context, alert *model.Alert) error {
	log.Printf("[ALERT] %s", FormatAlert(alert))
	return nil
}

func (LogSink) Announce(ctx context.Context, text string) error {
	log.Printf("[INFO] %s", text)
	return nil
}

func (LogSink) Name() string { return "log" }
