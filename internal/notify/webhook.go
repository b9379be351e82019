package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// Webhook delivers market events to a single subscriber as JSON POSTs.
// Delivery is fire-and-forget: failures are logged and swallowed so a dead
// subscriber can never fail or block a settlement run.
type Webhook struct {
	URL        string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type eventEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func (w *Webhook) Emit(ctx context.Context, event string, data any) {
	if w == nil || w.URL == "" {
		return
	}
	if err := w.post(ctx, event, data); err != nil {
		if w.Logger != nil {
			w.Logger.Warn("webhook delivery failed",
				zap.String("event", event),
				zap.String("url", w.URL),
				zap.Error(err))
		}
		return
	}
	if w.Logger != nil {
		w.Logger.Debug("webhook delivered", zap.String("event", event))
	}
}

func (w *Webhook) post(ctx context.Context, event string, data any) error {
	body, err := json.Marshal(eventEnvelope{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := w.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("subscriber returned %d", resp.StatusCode)
	}
	return nil
}
