package api

import "github.com/obsidianstack/healthwatch/internal/store"

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	State            string  `json:"state"`
	Tier             string  `json:"tier"`
	LatencyMs        int     `json:"latency_ms"`
	FailureRatePct   int     `json:"failure_rate_pct"`
	AlertOpen        bool    `json:"alert_open"`
	ActiveLogEntries int     `json:"active_log_entries"`
	StatusLogEntries int     `json:"status_log_entries"`
	LastSample       string  `json:"last_sample,omitempty"`
	UpdatedAt        string  `json:"updated_at,omitempty"`
	AgeSeconds       float64 `json:"age_seconds"`
}

// NotificationResponse is one entry in GET /api/v1/notifications.
type NotificationResponse struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	AlertID  string `json:"alert_id,omitempty"`
	Message  string `json:"message"`
	At       string `json:"at"`
}

// SnapshotResponse is the payload for GET /api/v1/snapshot and the data
// field of websocket status messages.
type SnapshotResponse struct {
	GeneratedAt   string                 `json:"generated_at"`
	Health        HealthResponse         `json:"health"`
	Alert         *store.AlertView       `json:"alert,omitempty"`
	Notifications []NotificationResponse `json:"notifications"`
}

type errorResponse struct {
	Error string `json:"error"`
}
