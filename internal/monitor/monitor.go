package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/obsidianstack/healthwatch/internal/config"
	"github.com/obsidianstack/healthwatch/internal/lifecycle"
	"github.com/obsidianstack/healthwatch/internal/remediation"
	"github.com/obsidianstack/healthwatch/internal/schedule"
	"github.com/obsidianstack/healthwatch/internal/severity"
	"github.com/obsidianstack/healthwatch/internal/sink"
	"github.com/obsidianstack/healthwatch/internal/source"
	"github.com/obsidianstack/healthwatch/internal/store"
	"github.com/obsidianstack/healthwatch/internal/telemetry"
)

// Deps are the collaborators a Monitor drives. Source is required; the rest
// may be nil.
type Deps struct {
	Source    source.Source
	Simulator *remediation.Simulator
	Notifier  sink.Notifier
	Metrics   *telemetry.Metrics
	Store     *store.Store

	// NewID tags notifications. Defaults to uuid.NewString.
	NewID func() string
}

// Monitor owns the alert loop state. Tick and Run must not be called
// concurrently.
type Monitor struct {
	deps Deps
	ctrl *lifecycle.Controller

	tick           time.Duration
	samplingPeriod time.Duration
	thresholds     severity.Thresholds

	sampling     schedule.Watermark
	prev         source.Sample
	lastTier     severity.Tier
	lastSampleAt time.Time

	reload chan *config.Config
}

// New returns a Monitor configured from cfg. The first Tick samples
// immediately.
func New(cfg *config.Config, deps Deps) *Monitor {
	if deps.Notifier == nil {
		deps.Notifier = sink.Fanout(nil)
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	m := &Monitor{
		deps:   deps,
		ctrl:   lifecycle.New(controllerOptions(cfg), deps.Simulator),
		prev:   source.Initial(cfg.Source),
		reload: make(chan *config.Config, 1),
	}
	m.apply(cfg)
	return m
}

func controllerOptions(cfg *config.Config) lifecycle.Options {
	return lifecycle.Options{
		Intervals:                cfg.Alerting.Intervals(),
		Retention:                cfg.Monitor.Retention(),
		CadenceFollowsEscalation: cfg.Alerting.CadenceFollowsEscalation,
	}
}

func (m *Monitor) apply(cfg *config.Config) {
	m.tick = cfg.Monitor.Tick
	m.thresholds = cfg.Alerting.Thresholds

	// The pending sample moves onto the new period, counted from the sample
	// the current one was scheduled after.
	if m.sampling.State == schedule.DueAt && cfg.Monitor.SamplingPeriod != m.samplingPeriod {
		m.sampling.At = m.sampling.At.Add(cfg.Monitor.SamplingPeriod - m.samplingPeriod)
	}
	m.samplingPeriod = cfg.Monitor.SamplingPeriod
}

// Controller exposes the lifecycle controller for inspection.
func (m *Monitor) Controller() *lifecycle.Controller { return m.ctrl }

// Reload queues cfg to be applied before the next tick. Only the most
// recent pending config is kept.
func (m *Monitor) Reload(cfg *config.Config) {
	for {
		select {
		case m.reload <- cfg:
			return
		default:
		}
		select {
		case <-m.reload:
		default:
		}
	}
}

// ApplyConfig applies cfg immediately: tick, sampling period, thresholds,
// intervals, retention, cadence and the remediation bound. An open alert
// keeps the plan and remediation offset drawn when it opened.
func (m *Monitor) ApplyConfig(cfg *config.Config) {
	m.apply(cfg)
	m.ctrl.SetOptions(controllerOptions(cfg))
	if m.deps.Simulator != nil {
		m.deps.Simulator.SetMaxMultiple(cfg.Alerting.RemediationMaxMultiple)
	}
	slog.Info("monitor: config applied",
		"tick", m.tick,
		"sampling_period", m.samplingPeriod,
		"retention", cfg.Monitor.Retention(),
	)
}

// Tick runs one loop iteration at now. A source error is returned
// unchanged after the rest of the iteration has run; the sampling schedule
// still advances so the next period is attempted on time.
func (m *Monitor) Tick(ctx context.Context, now time.Time) error {
	m.prune(now)

	var notices []lifecycle.Notice
	var sampleErr error
	if m.samplingDue(now) {
		out, err := m.sample(ctx, now)
		if err != nil {
			sampleErr = err
		} else {
			notices = append(notices, out.Notices...)
		}
	}

	notices = append(notices, m.ctrl.Notify(now)...)
	if n, ok := m.ctrl.Remediate(now); ok {
		notices = append(notices, n)
	}

	for _, n := range notices {
		m.emit(ctx, n)
	}
	m.publish(now)
	return sampleErr
}

func (m *Monitor) prune(now time.Time) {
	active, status := m.ctrl.Prune(now)
	if active+status == 0 {
		return
	}
	slog.Debug("monitor: pruned logs", "active", active, "status", status)
	if m.deps.Metrics != nil {
		m.deps.Metrics.PrunedTotal.WithLabelValues(m.ctrl.ActiveLog().Name()).Add(float64(active))
		m.deps.Metrics.PrunedTotal.WithLabelValues(m.ctrl.StatusLog().Name()).Add(float64(status))
	}
}

// samplingDue reports whether a sample is due at now and moves the sampling
// watermark past it.
func (m *Monitor) samplingDue(now time.Time) bool {
	switch {
	case m.sampling.State == schedule.NotYetDue:
		m.sampling = schedule.Due(now.Add(m.samplingPeriod))
		return true
	case m.sampling.Ready(now):
		if skipped := m.sampling.Advance(now, m.samplingPeriod); skipped > 0 {
			slog.Warn("monitor: sampling periods skipped", "count", skipped)
		}
		return true
	default:
		return false
	}
}

func (m *Monitor) sample(ctx context.Context, now time.Time) (lifecycle.Outcome, error) {
	s, err := m.deps.Source.Sample(ctx, m.prev)
	if err != nil {
		if m.deps.Metrics != nil {
			m.deps.Metrics.SourceErrors.Inc()
		}
		return lifecycle.Outcome{}, err
	}
	m.prev = s
	m.lastSampleAt = now

	tier := m.thresholds.Classify(s.LatencyMs, s.FailureRatePct)
	out := m.ctrl.Observe(s, tier, now)
	m.lastTier = tier

	slog.Info("monitor: sample",
		"latency_ms", s.LatencyMs,
		"failure_rate_pct", s.FailureRatePct,
		"tier", tier.String(),
		"transition", out.Transition.String(),
		"alert", out.Effective.String(),
	)

	if met := m.deps.Metrics; met != nil {
		met.SamplesTotal.Inc()
		met.LatencyMs.Set(float64(s.LatencyMs))
		met.FailureRatePct.Set(float64(s.FailureRatePct))
		if out.Transition != lifecycle.Idle {
			label := out.Effective
			if out.Transition == lifecycle.Resolved {
				label = out.Previous
			}
			met.TransitionsTotal.WithLabelValues(out.Transition.String(), label.String()).Inc()
		}
	}
	return out, nil
}

func (m *Monitor) emit(ctx context.Context, n lifecycle.Notice) {
	m.deps.Notifier.Notify(ctx, sink.Notification{
		ID:       m.deps.NewID(),
		Kind:     string(n.Kind),
		Severity: n.Severity.String(),
		AlertID:  string(n.AlertID),
		Message:  n.Message,
		At:       n.At,
	})
	if m.deps.Metrics != nil {
		m.deps.Metrics.NotificationsTotal.WithLabelValues(string(n.Kind)).Inc()
	}
}

func (m *Monitor) publish(now time.Time) {
	active, status := m.ctrl.ActiveLog(), m.ctrl.StatusLog()
	open := m.ctrl.Open()

	if met := m.deps.Metrics; met != nil {
		met.LogEntries.WithLabelValues(active.Name()).Set(float64(active.Len()))
		met.LogEntries.WithLabelValues(status.Name()).Set(float64(status.Len()))
		var lvl float64
		if open != nil {
			lvl = float64(open.Severity)
		}
		met.AlertSeverity.Set(lvl)
	}

	if m.deps.Store == nil {
		return
	}
	m.deps.Store.SetStatus(store.Status{
		UpdatedAt:        now,
		LastSampleAt:     m.lastSampleAt,
		Sample:           m.prev,
		Tier:             m.lastTier.String(),
		Alert:            alertView(open),
		ActiveLogEntries: active.Len(),
		StatusLogEntries: status.Len(),
	})
}

func alertView(a *lifecycle.OpenAlert) *store.AlertView {
	if a == nil {
		return nil
	}
	v := &store.AlertView{
		ID:                string(a.ID),
		Severity:          a.Severity.String(),
		CadenceSeverity:   a.CadenceSeverity.String(),
		OpenedAt:          a.OpenedAt,
		Interval:          a.Plan.Interval.String(),
		TeamEmail:         a.Plan.Team.State.String(),
		SkipLevelEmail:    a.Plan.Escalation.State.String(),
		Remediation:       a.Remediation.State.String(),
		RemediationOffset: a.RemediationOffset.String(),
	}
	if a.Plan.Repeat.State == schedule.DueAt {
		v.NextRepeatAt = a.Plan.Repeat.At
	}
	return v
}

// Run ticks every configured tick length until ctx is cancelled. Source
// errors are logged and the loop continues. Configs queued with Reload are
// applied between ticks.
func (m *Monitor) Run(ctx context.Context) error {
	t := time.NewTicker(m.tick)
	defer t.Stop()

	if err := m.Tick(ctx, time.Now()); err != nil {
		slog.Warn("monitor: sample failed", "err", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cfg := <-m.reload:
			prev := m.tick
			m.ApplyConfig(cfg)
			if m.tick != prev {
				t.Reset(m.tick)
			}
		case now := <-t.C:
			if err := m.Tick(ctx, now); err != nil {
				slog.Warn("monitor: sample failed", "err", err)
			}
		}
	}
}
