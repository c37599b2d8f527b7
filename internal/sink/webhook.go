package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/obsidianstack/healthwatch/internal/config"
)

const webhookTimeout = 10 * time.Second

// Webhook posts notifications to the configured targets. Each Notify call
// returns immediately; delivery happens on a background goroutine.
type Webhook struct {
	targets []config.WebhookConfig
	client  *http.Client
	limiter *rate.Limiter
	wg      sync.WaitGroup
}

// NewWebhook returns a Webhook for cfg.Webhooks limited to
// cfg.RatePerMinute deliveries per minute with the configured burst.
func NewWebhook(cfg config.NotifyConfig) *Webhook {
	return &Webhook{
		targets: cfg.Webhooks,
		client:  &http.Client{Timeout: webhookTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerMinute/60), cfg.Burst),
	}
}

func (w *Webhook) Notify(_ context.Context, n Notification) {
	if len(w.targets) == 0 {
		return
	}
	if !w.limiter.Allow() {
		slog.Warn("webhook: rate limited, dropping notification",
			"kind", n.Kind, "id", n.ID)
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.deliver(n)
	}()
}

// Wait blocks until in-flight deliveries finish.
func (w *Webhook) Wait() {
	w.wg.Wait()
}

// deliver sends n to all configured targets. Errors are logged only.
func (w *Webhook) deliver(n Notification) {
	for _, wh := range w.targets {
		url := wh.URL()
		if url == "" {
			continue
		}

		var err error
		switch wh.Type {
		case "slack":
			err = w.sendSlack(url, n)
		case "teams":
			err = w.sendTeams(url, n)
		case "http":
			err = w.sendHTTP(url, n)
		default:
			slog.Warn("webhook: unknown type, skipping", "type", wh.Type)
			continue
		}

		if err != nil {
			slog.Error("webhook: delivery failed",
				"type", wh.Type,
				"kind", n.Kind,
				"err", err,
			)
		} else {
			slog.Debug("webhook: delivered",
				"type", wh.Type,
				"kind", n.Kind,
				"id", n.ID,
			)
		}
	}
}

func (w *Webhook) sendSlack(url string, n Notification) error {
	body, _ := json.Marshal(map[string]string{
		"text": fmt.Sprintf("*%s* %s", severityLabel(n.Severity), n.Message),
	})
	return w.post(url, body)
}

func (w *Webhook) sendTeams(url string, n Notification) error {
	payload := map[string]interface{}{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": severityColor(n.Severity),
		"summary":    n.Kind,
		"title":      fmt.Sprintf("Healthwatch %s alert: %s", n.Severity, n.Kind),
		"text":       n.Message,
	}
	body, _ := json.Marshal(payload)
	return w.post(url, body)
}

func (w *Webhook) sendHTTP(url string, n Notification) error {
	body, _ := json.Marshal(map[string]interface{}{"notification": n})
	return w.post(url, body)
}

func (w *Webhook) post(url string, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func severityLabel(s string) string {
	switch s {
	case "P0":
		return "[P0]"
	case "P1":
		return "[P1]"
	case "P2":
		return "[P2]"
	default:
		return "[INFO]"
	}
}

func severityColor(s string) string {
	switch s {
	case "P0":
		return "FF4F6A"
	case "P1":
		return "FFAB40"
	case "P2":
		return "FFE066"
	default:
		return "00D4FF"
	}
}
