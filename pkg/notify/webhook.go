package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-pkgz/lgr"
)

// Sink delivers one payload per call, reporting success or failure.
// Failed deliveries are not retried here; the orchestrator keeps the
// item eligible for the next cycle instead.
type Sink interface {
	Send(ctx context.Context, embed *Embed) error
}

// WebhookSink posts embeds to a webhook URL
type WebhookSink struct {
	url    string
	client *http.Client
	dryRun bool
}

// NewWebhookSink creates a webhook delivery sink. In dry-run mode
// nothing is posted and every delivery reports success.
func NewWebhookSink(url string, timeout time.Duration, dryRun bool) *WebhookSink {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: timeout},
		dryRun: dryRun,
	}
}

// Send implements Sink
func (s *WebhookSink) Send(ctx context.Context, embed *Embed) error {
	if s.dryRun {
		lgr.Printf("[INFO] dry-run, would send %q", embed.Title)
		return nil
	}

	payload, err := json.Marshal(map[string]any{"embeds": []*Embed{embed}})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	// wait=true makes the hook return the delivery result instead of 204-ing early
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"?wait=true", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return fmt.Errorf("webhook status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
