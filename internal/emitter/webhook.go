package emitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"FraudSentinel/internal/model"
	"FraudSentinel/internal/retry"
)

// WebhookSink POSTs alerts as JSON to a configured endpoint. Retries with
// backoff on transport errors and 5xx; 4xx responses are not retried.
type WebhookSink struct {
	URL     string
	Client  *http.Client
	Retries int
	Backoff time.Duration
}

// NewWebhookSink creates a sink for the given endpoint.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		URL:     url,
		Client:  &http.Client{Timeout: 30 * time.Second},
		Retries: 3,
		Backoff: time.Second,
	}
}

type webhookAlert struct {
	Seq        uint64    `json:"seq"`
	AccountID  string    `json:"account_id"`
	Category   string    `json:"risk_category"`
	Score      float64   `json:"risk_score"`
	Rationale  string    `json:"rationale"`
	Indicators []string  `json:"indicators,omitempty"`
	Actions    []string  `json:"recommended_actions,omitempty"`
	Model      string    `json:"model"`
	AssessedAt time.Time `json:"assessed_at"`
	EmittedAt  time.Time `json:"emitted_at"`
	Text       string    `json:"text"`
}

func (w *WebhookSink) Deliver(ctx context.Context, alert *model.Alert) error {
	a := alert.Assessment
	return w.post(ctx, webhookAlert{
		Seq:        alert.Seq,
		AccountID:  a.AccountID,
		Category:   string(a.Category),
		Score:      a.Score,
		Rationale:  a.Rationale,
		Indicators: a.Indicators,
		Actions:    a.Actions,
		Model:      a.Model,
		AssessedAt: a.AssessedAt,
		EmittedAt:  alert.EmittedAt,
		Text:       FormatAlert(alert),
	})
}

func (w *WebhookSink) Announce(ctx context.Context, text string) error {
	return w.post(ctx, map[string]string{"text": text})
}

func (w *WebhookSink) Name() string { return "webhook" }

func (w *WebhookSink) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	return retry.Do(ctx, w.Retries, w.Backoff, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.Client.Do(req)
		if err != nil {
			return fmt.Errorf("post webhook: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err = fmt.Errorf("webhook status %d: %s", resp.StatusCode, string(respBody))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return retry.Permanent(err)
		}
		return err
	})
}
