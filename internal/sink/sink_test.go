package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/obsidianstack/healthwatch/internal/config"
)

func note(kind string) Notification {
	return Notification{
		ID:       "id-1",
		Kind:     kind,
		Severity: "P0",
		AlertID:  "600, 0, 0",
		Message:  "[Sunday, March 01, 2026 09:00:00] Latency: 600ms, Failure Rate: 0%, -> P0 Alert Triggered!",
		At:       time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestLogNotifier_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	l.Notify(context.Background(), note("triggered"))
	l.Notify(context.Background(), note("resolved"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("log lines: got %d, want 2", len(lines))
	}
	var first, second map[string]any
	_ = json.Unmarshal([]byte(lines[0]), &first)
	_ = json.Unmarshal([]byte(lines[1]), &second)
	if first["level"] != "WARN" || second["level"] != "INFO" {
		t.Errorf("levels: got %v, %v", first["level"], second["level"])
	}
	if first["kind"] != "triggered" || first["severity"] != "P0" {
		t.Errorf("attrs: got %v", first)
	}
}

type recorder struct {
	mu  sync.Mutex
	got []Notification
}

func (r *recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	r.got = append(r.got, n)
	r.mu.Unlock()
}

func TestFanout(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Fanout{a, b}.Notify(context.Background(), note("commit"))
	if len(a.got) != 1 || len(b.got) != 1 {
		t.Errorf("fanout: got %d/%d", len(a.got), len(b.got))
	}
}

func TestWebhook_DeliversPerType(t *testing.T) {
	var mu sync.Mutex
	bodies := make(map[string]map[string]any)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(raw, &m)
		mu.Lock()
		bodies[r.URL.Path] = m
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	t.Setenv("HW_SLACK", srv.URL+"/slack")
	t.Setenv("HW_TEAMS", srv.URL+"/teams")
	t.Setenv("HW_HTTP", srv.URL+"/http")

	wh := NewWebhook(config.NotifyConfig{
		Webhooks: []config.WebhookConfig{
			{Type: "slack", URLEnv: "HW_SLACK"},
			{Type: "teams", URLEnv: "HW_TEAMS"},
			{Type: "http", URLEnv: "HW_HTTP"},
			{Type: "slack", URLEnv: "HW_UNSET"},
		},
		RatePerMinute: 60,
		Burst:         5,
	})
	wh.Notify(context.Background(), note("triggered"))
	wh.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 3 {
		t.Fatalf("deliveries: got %d, want 3", len(bodies))
	}
	if text, _ := bodies["/slack"]["text"].(string); !strings.HasPrefix(text, "*[P0]*") {
		t.Errorf("slack text: got %q", text)
	}
	if bodies["/teams"]["@type"] != "MessageCard" || bodies["/teams"]["themeColor"] != "FF4F6A" {
		t.Errorf("teams payload: got %v", bodies["/teams"])
	}
	n, _ := bodies["/http"]["notification"].(map[string]any)
	if n["kind"] != "triggered" || n["id"] != "id-1" {
		t.Errorf("http payload: got %v", bodies["/http"])
	}
}

func TestWebhook_RateLimited(t *testing.T) {
	var mu sync.Mutex
	count := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		count++
		mu.Unlock()
	}))
	defer srv.Close()
	t.Setenv("HW_HTTP", srv.URL)

	wh := NewWebhook(config.NotifyConfig{
		Webhooks:      []config.WebhookConfig{{Type: "http", URLEnv: "HW_HTTP"}},
		RatePerMinute: 1,
		Burst:         2,
	})
	for i := 0; i < 5; i++ {
		wh.Notify(context.Background(), note("repeat_notice"))
	}
	wh.Wait()

	mu.Lock()
	defer mu.Unlock()
	if count != 2 {
		t.Errorf("deliveries under limit: got %d, want burst of 2", count)
	}
}

func TestWebhook_ErrorStatusIsLoggedNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	t.Setenv("HW_HTTP", srv.URL)

	wh := NewWebhook(config.NotifyConfig{
		Webhooks:      []config.WebhookConfig{{Type: "http", URLEnv: "HW_HTTP"}},
		RatePerMinute: 60,
		Burst:         1,
	})
	if err := wh.post(srv.URL, []byte(`{}`)); err == nil {
		t.Fatal("post: expected error for 502")
	}
	wh.Notify(context.Background(), note("resolved"))
	wh.Wait()
}
