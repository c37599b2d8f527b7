package schedule

import (
	"time"

	"github.com/obsidianstack/healthwatch/internal/severity"
)

// EscalationMultiple is how many intervals pass before the skip-level email.
const EscalationMultiple = 5

// Kind identifies a scheduled notification.
type Kind int

const (
	RepeatNotice Kind = iota
	TeamEmail
	EscalationEmail
)

func (k Kind) String() string {
	switch k {
	case RepeatNotice:
		return "repeat_notice"
	case TeamEmail:
		return "team_email"
	case EscalationEmail:
		return "escalation_email"
	default:
		return "unknown"
	}
}

// Event is one notification that became due on a tick.
type Event struct {
	Kind    Kind
	At      time.Time     // tick on which it fired
	DueAt   time.Time     // when it was scheduled for
	Skipped int           // repeat periods passed over by a late tick
	Elapsed time.Duration // time since the alert opened
}

// Intervals maps a tier to its notification interval.
type Intervals map[severity.Tier]time.Duration

// DefaultIntervals are the production notification intervals.
var DefaultIntervals = Intervals{
	severity.P2: 2 * time.Hour,
	severity.P1: 12 * time.Hour,
	severity.P0: 48 * time.Hour,
}

// For returns the interval for t, or zero when none is configured.
func (iv Intervals) For(t severity.Tier) time.Duration {
	return iv[t]
}

// Plan is the notification schedule of one open alert.
type Plan struct {
	OpenedAt   time.Time
	Interval   time.Duration
	Repeat     Watermark
	Team       Watermark
	Escalation Watermark
}

// NewPlan schedules the three notifications relative to openedAt.
// A non-positive interval yields a plan that never fires.
func NewPlan(openedAt time.Time, interval time.Duration) *Plan {
	p := &Plan{OpenedAt: openedAt, Interval: interval}
	if interval <= 0 {
		return p
	}
	p.Repeat = Due(openedAt.Add(interval))
	p.Team = Due(openedAt.Add(interval))
	p.Escalation = Due(openedAt.Add(EscalationMultiple * interval))
	return p
}

// Tick returns the notifications due at now, in the order repeat, team,
// escalation. Each one-shot event is returned at most once; the repeat
// notice is returned at most once per call.
func (p *Plan) Tick(now time.Time) []Event {
	var out []Event
	elapsed := now.Sub(p.OpenedAt)

	if p.Repeat.Ready(now) {
		due := p.Repeat.At
		skipped := p.Repeat.Advance(now, p.Interval)
		out = append(out, Event{Kind: RepeatNotice, At: now, DueAt: due, Skipped: skipped, Elapsed: elapsed})
	}
	if p.Team.Ready(now) {
		out = append(out, Event{Kind: TeamEmail, At: now, DueAt: p.Team.At, Elapsed: elapsed})
		p.Team.Fire()
	}
	if p.Escalation.Ready(now) {
		out = append(out, Event{Kind: EscalationEmail, At: now, DueAt: p.Escalation.At, Elapsed: elapsed})
		p.Escalation.Fire()
	}
	return out
}

// Retime moves the plan onto a new interval without re-firing anything that
// already fired. The next repeat notice lands on the first multiple of the
// new interval after now.
func (p *Plan) Retime(now time.Time, interval time.Duration) {
	p.Interval = interval
	if interval <= 0 {
		p.Repeat = Watermark{}
		return
	}

	periods := now.Sub(p.OpenedAt)/interval + 1
	p.Repeat = Due(p.OpenedAt.Add(periods * interval))

	if p.Team.State != Fired {
		p.Team = Due(p.OpenedAt.Add(interval))
	}
	if p.Escalation.State != Fired {
		p.Escalation = Due(p.OpenedAt.Add(EscalationMultiple * interval))
	}
}
