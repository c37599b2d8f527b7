package lifecycle

import (
	"fmt"
	"time"

	"github.com/obsidianstack/healthwatch/internal/eventlog"
	"github.com/obsidianstack/healthwatch/internal/remediation"
	"github.com/obsidianstack/healthwatch/internal/schedule"
	"github.com/obsidianstack/healthwatch/internal/severity"
	"github.com/obsidianstack/healthwatch/internal/source"
)

// Identity correlates an alert with the log timestamps recorded for it.
// It is derived from the triggering sample and tier, so it is only
// distinct enough for a single open alert.
type Identity string

// NewIdentity builds the identity of an alert triggered by s at tier t.
func NewIdentity(s source.Sample, t severity.Tier) Identity {
	lvl, _ := t.Level()
	return Identity(fmt.Sprintf("%d, %d, %d", s.LatencyMs, s.FailureRatePct, lvl))
}

// OpenAlert is the single alert the controller may hold.
type OpenAlert struct {
	ID       Identity
	Sample   source.Sample // sample that opened the alert
	OpenedAt time.Time

	// Severity is the highest tier observed since the alert opened.
	Severity severity.Tier
	// CadenceSeverity picks the notification interval. It is the triggering
	// tier unless cadence follows escalation.
	CadenceSeverity severity.Tier

	Plan              *schedule.Plan
	RemediationOffset time.Duration
	Remediation       schedule.Watermark
}

// Transition names what Observe did.
type Transition int

const (
	Idle Transition = iota
	Opened
	Escalated
	Held
	Resolved
)

func (t Transition) String() string {
	switch t {
	case Opened:
		return "opened"
	case Escalated:
		return "escalated"
	case Held:
		return "held"
	case Resolved:
		return "resolved"
	default:
		return "idle"
	}
}

// Kind classifies a Notice.
type Kind string

const (
	KindTriggered      Kind = "triggered"
	KindEscalated      Kind = "escalated"
	KindResolved       Kind = "resolved"
	KindRepeat         Kind = "repeat_notice"
	KindTeamEmail      Kind = "team_email"
	KindSkipLevelEmail Kind = "skip_level_email"
	KindCommit         Kind = "commit"
)

// Notice is a message the controller wants delivered.
type Notice struct {
	Kind     Kind
	Severity severity.Tier
	At       time.Time
	AlertID  Identity
	Message  string
	Commit   string // set for KindCommit
}

// Outcome is the result of one Observe call.
type Outcome struct {
	Transition Transition
	Tier       severity.Tier // classified tier of the sample
	Effective  severity.Tier // alert severity after the transition
	Previous   severity.Tier // alert severity before the transition
	Notices    []Notice
}

// Options tune a Controller.
type Options struct {
	Intervals                schedule.Intervals
	Retention                time.Duration
	CadenceFollowsEscalation bool
}

// Controller is the alert state machine.
type Controller struct {
	opts Options
	sim  *remediation.Simulator

	open    *OpenAlert
	history map[Identity][]time.Time
	active  *eventlog.Log
	status  *eventlog.Log
}

// New returns an Idle controller. sim draws remediation offsets and fires
// the remediation event for each alert.
func New(opts Options, sim *remediation.Simulator) *Controller {
	if opts.Intervals == nil {
		opts.Intervals = schedule.DefaultIntervals
	}
	if opts.Retention <= 0 {
		opts.Retention = eventlog.DefaultRetention
	}
	return &Controller{
		opts:    opts,
		sim:     sim,
		history: make(map[Identity][]time.Time),
		active:  eventlog.New("active_alert"),
		status:  eventlog.New("system_status"),
	}
}

// SetOptions replaces the tuning. An already open alert keeps its plan
// and remediation offset.
func (c *Controller) SetOptions(opts Options) {
	if opts.Intervals == nil {
		opts.Intervals = c.opts.Intervals
	}
	if opts.Retention <= 0 {
		opts.Retention = c.opts.Retention
	}
	c.opts = opts
}

// Open returns a copy of the open alert, or nil when idle.
func (c *Controller) Open() *OpenAlert {
	if c.open == nil {
		return nil
	}
	cp := *c.open
	if c.open.Plan != nil {
		plan := *c.open.Plan
		cp.Plan = &plan
	}
	return &cp
}

// Effective returns the open alert's severity, or None when idle.
func (c *Controller) Effective() severity.Tier {
	if c.open == nil {
		return severity.None
	}
	return c.open.Severity
}

// ActiveLog returns the active alert log. Callers must not mutate it.
func (c *Controller) ActiveLog() *eventlog.Log { return c.active }

// StatusLog returns the system status log. Callers must not mutate it.
func (c *Controller) StatusLog() *eventlog.Log { return c.status }

// History returns a copy of the timestamps recorded for id.
func (c *Controller) History(id Identity) ([]time.Time, bool) {
	h, ok := c.history[id]
	if !ok {
		return nil, false
	}
	out := make([]time.Time, len(h))
	copy(out, h)
	return out, true
}

// Prune applies the retention rule to both logs and returns how many
// entries were removed from each.
func (c *Controller) Prune(now time.Time) (active, status int) {
	return c.active.Prune(now, c.opts.Retention), c.status.Prune(now, c.opts.Retention)
}

// Observe applies one classified sample and records the status line.
func (c *Controller) Observe(s source.Sample, tier severity.Tier, now time.Time) Outcome {
	out := Outcome{Tier: tier, Previous: c.Effective()}

	switch {
	case c.open == nil && tier == severity.None:
		out.Transition = Idle
	case c.open == nil:
		out.Transition = Opened
		c.openAlert(s, tier, now)
	case tier == severity.None:
		out.Transition = Resolved
		out.Notices = append(out.Notices, c.resolve(now))
	default:
		out.Transition = c.escalate(tier, now)
		if out.Transition == Escalated {
			out.Notices = append(out.Notices, Notice{
				Kind:     KindEscalated,
				Severity: c.open.Severity,
				At:       now,
				AlertID:  c.open.ID,
				Message:  escalatedMessage(now, out.Previous, c.open.Severity),
			})
		}
	}

	out.Effective = c.Effective()
	c.status.Append(now, statusMessage(now, s, out.Effective))

	if out.Transition == Opened {
		msg := triggeredMessage(now, s, tier)
		c.active.Append(now, msg)
		c.status.Append(now, msg)
		out.Notices = append(out.Notices, Notice{
			Kind:     KindTriggered,
			Severity: tier,
			At:       now,
			AlertID:  c.open.ID,
			Message:  msg,
		})
	}
	return out
}

func (c *Controller) openAlert(s source.Sample, tier severity.Tier, now time.Time) {
	interval := c.opts.Intervals.For(tier)
	a := &OpenAlert{
		ID:              NewIdentity(s, tier),
		Sample:          s,
		OpenedAt:        now,
		Severity:        tier,
		CadenceSeverity: tier,
		Plan:            schedule.NewPlan(now, interval),
	}
	if c.sim != nil {
		a.RemediationOffset = c.sim.DrawOffset(interval)
		a.Remediation = remediation.Arm(now, a.RemediationOffset)
	}
	c.open = a
	c.history[a.ID] = []time.Time{now}
}

// escalate raises the open alert's severity to at least tier. It panics if
// the alert has no recorded history: that state is only reachable when the
// open transition was skipped.
func (c *Controller) escalate(tier severity.Tier, now time.Time) Transition {
	c.mustHistory()

	next := severity.Max(c.open.Severity, tier)
	if next == c.open.Severity {
		return Held
	}
	c.open.Severity = next
	if c.opts.CadenceFollowsEscalation {
		c.open.CadenceSeverity = next
		c.open.Plan.Retime(now, c.opts.Intervals.For(next))
	}
	return Escalated
}

func (c *Controller) resolve(now time.Time) Notice {
	a := c.open
	for _, ts := range c.history[a.ID] {
		c.active.Remove(ts)
	}
	delete(c.history, a.ID)
	c.open = nil

	return Notice{
		Kind:     KindResolved,
		Severity: a.Severity,
		At:       now,
		AlertID:  a.ID,
		Message:  resolvedMessage(now, a.Severity),
	}
}

// Notify runs the open alert's notification plan for now. Repeat notices are
// appended to the active log and to the alert's history so resolution
// removes them. It returns nil when idle.
func (c *Controller) Notify(now time.Time) []Notice {
	if c.open == nil {
		return nil
	}
	a := c.open

	var out []Notice
	for _, ev := range a.Plan.Tick(now) {
		n := Notice{Severity: a.Severity, At: now, AlertID: a.ID}
		switch ev.Kind {
		case schedule.RepeatNotice:
			n.Kind = KindRepeat
			n.Message = resendMessage(now, a.Severity)
			c.recordRepeat(now, n.Message)
		case schedule.TeamEmail:
			n.Kind = KindTeamEmail
			n.Message = teamEmailMessage(now, a.Severity)
		case schedule.EscalationEmail:
			n.Kind = KindSkipLevelEmail
			n.Message = skipLevelEmailMessage(now, a.Severity)
		}
		out = append(out, n)
	}
	return out
}

func (c *Controller) recordRepeat(now time.Time, msg string) {
	h := c.mustHistory()
	c.active.Append(now, msg)
	c.history[c.open.ID] = append(h, now)
}

// Remediate fires the open alert's mock remediation once its offset has
// elapsed. It returns false when idle, already fired, or not yet due.
func (c *Controller) Remediate(now time.Time) (Notice, bool) {
	if c.open == nil || c.sim == nil {
		return Notice{}, false
	}
	commit, ok := c.sim.Tick(&c.open.Remediation, now)
	if !ok {
		return Notice{}, false
	}
	return Notice{
		Kind:     KindCommit,
		Severity: c.open.Severity,
		At:       now,
		AlertID:  c.open.ID,
		Message:  commitMessage(now, commit),
		Commit:   commit,
	}, true
}

func (c *Controller) mustHistory() []time.Time {
	h, ok := c.history[c.open.ID]
	if !ok {
		panic(fmt.Sprintf("lifecycle: open alert %q has no timestamp history", c.open.ID))
	}
	return h
}
