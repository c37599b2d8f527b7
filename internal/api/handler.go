package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/obsidianstack/healthwatch/internal/sink"
	"github.com/obsidianstack/healthwatch/internal/store"
)

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	store *store.Store
	mux   *http.ServeMux
	now   func() time.Time
}

// New creates a Handler reading from st and registers all routes.
func New(st *store.Store) http.Handler {
	h := &Handler{store: st, mux: http.NewServeMux(), now: time.Now}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/alert", h.alert)
	h.mux.HandleFunc("/api/v1/notifications", h.notifications)
	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, buildHealth(h.store.Status(), h.now()))
}

func (h *Handler) alert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	st := h.store.Status()
	if st.Alert == nil {
		jsonErr(w, http.StatusNotFound, "no open alert")
		return
	}
	jsonResp(w, http.StatusOK, st.Alert)
}

func (h *Handler) notifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, toNotifications(h.store.Notifications()))
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildSnapshot(h.store))
}

// BuildSnapshot assembles the full snapshot document from st. The websocket
// hub uses it for its periodic broadcasts.
func BuildSnapshot(st *store.Store) SnapshotResponse {
	now := time.Now()
	status := st.Status()
	return SnapshotResponse{
		GeneratedAt:   now.UTC().Format(time.RFC3339),
		Health:        buildHealth(status, now),
		Alert:         status.Alert,
		Notifications: toNotifications(st.Notifications()),
	}
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// buildHealth maps a published status to its JSON form. A status that was
// never published reports state "unknown".
func buildHealth(st store.Status, now time.Time) HealthResponse {
	resp := HealthResponse{
		State:            stateOf(st),
		Tier:             st.Tier,
		LatencyMs:        st.Sample.LatencyMs,
		FailureRatePct:   st.Sample.FailureRatePct,
		AlertOpen:        st.Alert != nil,
		ActiveLogEntries: st.ActiveLogEntries,
		StatusLogEntries: st.StatusLogEntries,
	}
	if !st.LastSampleAt.IsZero() {
		resp.LastSample = st.LastSampleAt.UTC().Format(time.RFC3339)
	}
	if !st.UpdatedAt.IsZero() {
		resp.UpdatedAt = st.UpdatedAt.UTC().Format(time.RFC3339)
		resp.AgeSeconds = now.Sub(st.UpdatedAt).Seconds()
	}
	return resp
}

func stateOf(st store.Status) string {
	switch {
	case st.UpdatedAt.IsZero():
		return "unknown"
	case st.Alert != nil:
		return "alerting"
	default:
		return "ok"
	}
}

func toNotifications(ns []sink.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(ns))
	for _, n := range ns {
		out = append(out, NotificationResponse{
			ID:       n.ID,
			Kind:     n.Kind,
			Severity: n.Severity,
			AlertID:  n.AlertID,
			Message:  n.Message,
			At:       n.At.UTC().Format(time.RFC3339),
		})
	}
	return out
}
