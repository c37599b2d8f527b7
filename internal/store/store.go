package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/obsidianstack/healthwatch/internal/sink"
	"github.com/obsidianstack/healthwatch/internal/source"
)

// maxRecent caps the notification history regardless of TTL.
const maxRecent = 500

// AlertView describes the open alert.
type AlertView struct {
	ID                string    `json:"id"`
	Severity          string    `json:"severity"`
	CadenceSeverity   string    `json:"cadence_severity"`
	OpenedAt          time.Time `json:"opened_at"`
	Interval          string    `json:"interval"`
	NextRepeatAt      time.Time `json:"next_repeat_at,omitempty"`
	TeamEmail         string    `json:"team_email"`
	SkipLevelEmail    string    `json:"skip_level_email"`
	Remediation       string    `json:"remediation"`
	RemediationOffset string    `json:"remediation_offset"`
}

// Status is what the monitor publishes after every tick.
type Status struct {
	UpdatedAt        time.Time     `json:"updated_at"`
	LastSampleAt     time.Time     `json:"last_sample_at"`
	Sample           source.Sample `json:"sample"`
	Tier             string        `json:"tier"`
	Alert            *AlertView    `json:"alert,omitempty"`
	ActiveLogEntries int           `json:"active_log_entries"`
	StatusLogEntries int           `json:"status_log_entries"`
}

type entry struct {
	n          sink.Notification
	receivedAt time.Time
}

// Store is a thread-safe holder for the published Status and recent
// notifications. Notifications older than the TTL are evicted by Run.
type Store struct {
	mu     sync.RWMutex
	status Status
	recent []entry
	ttl    time.Duration
	now    func() time.Time // injectable for deterministic tests
}

// New creates a Store keeping notifications for ttl.
func New(ttl time.Duration) *Store {
	return &Store{ttl: ttl, now: time.Now}
}

// SetStatus replaces the published status.
func (s *Store) SetStatus(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

// Status returns the last published status.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	if st.Alert != nil {
		a := *st.Alert
		st.Alert = &a
	}
	return st
}

// Notify records n. It satisfies sink.Notifier.
func (s *Store) Notify(_ context.Context, n sink.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append(s.recent, entry{n: n, receivedAt: s.now()})
	if len(s.recent) > maxRecent {
		s.recent = s.recent[len(s.recent)-maxRecent:]
	}
}

// Notifications returns notifications received within the TTL, newest first.
func (s *Store) Notifications() []sink.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]sink.Notification, 0, len(s.recent))
	for i := len(s.recent) - 1; i >= 0; i-- {
		if s.recent[i].receivedAt.After(cutoff) {
			out = append(out, s.recent[i].n)
		}
	}
	return out
}

// Evict drops notifications received at or before now minus TTL and
// returns how many were removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	kept := s.recent[:0]
	for _, e := range s.recent {
		if e.receivedAt.After(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := len(s.recent) - len(kept)
	s.recent = kept
	return removed
}

// Run evicts stale notifications every half TTL (minimum 1 second) until
// ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted notifications", "count", n)
			}
		}
	}
}
