package sink

import (
	"context"
	"log/slog"
	"time"
)

// Notification is one message produced by the alert loop.
type Notification struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	Severity string    `json:"severity"`
	AlertID  string    `json:"alert_id,omitempty"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

// Notifier accepts notifications. Delivery failures are the notifier's own
// concern; the alert loop does not act on them.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes each notification as a log record. Alert-raising kinds
// are logged at warn level, the rest at info.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier returns a LogNotifier writing to logger, or to the default
// logger when logger is nil.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{log: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	level := slog.LevelInfo
	switch n.Kind {
	case "triggered", "escalated", "repeat_notice", "team_email", "skip_level_email":
		level = slog.LevelWarn
	}
	l.log.Log(ctx, level, n.Message,
		"kind", n.Kind,
		"severity", n.Severity,
		"alert", n.AlertID,
		"id", n.ID,
	)
}

// Fanout delivers to every notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n Notification) {
	for _, s := range f {
		s.Notify(ctx, n)
	}
}
