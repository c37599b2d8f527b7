package lifecycle

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/obsidianstack/healthwatch/internal/remediation"
	"github.com/obsidianstack/healthwatch/internal/schedule"
	"github.com/obsidianstack/healthwatch/internal/severity"
	"github.com/obsidianstack/healthwatch/internal/source"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fixedGen string

func (g fixedGen) NewIdentifier() string { return string(g) }

func newController(opts Options) *Controller {
	sim := remediation.New(fixedGen("c0ffee"), rand.New(rand.NewSource(3)), 0)
	return New(opts, sim)
}

func at(sec int) time.Time { return t0.Add(time.Duration(sec) * time.Second) }

func sample(lat, fr int) source.Sample {
	return source.Sample{LatencyMs: lat, FailureRatePct: fr}
}

func TestObserve_IdleStaysIdle(t *testing.T) {
	c := newController(Options{})
	out := c.Observe(sample(100, 0), severity.None, t0)

	if out.Transition != Idle || c.Open() != nil {
		t.Fatalf("transition: got %v, open=%v", out.Transition, c.Open())
	}
	if c.StatusLog().Len() != 1 || c.ActiveLog().Len() != 0 {
		t.Errorf("logs: status=%d active=%d, want 1/0", c.StatusLog().Len(), c.ActiveLog().Len())
	}
	if msg := c.StatusLog().Entries()[0].Message; !strings.HasSuffix(msg, "Alert Level: none") {
		t.Errorf("status line: got %q", msg)
	}
}

func TestObserve_OpenRecordsTriggered(t *testing.T) {
	c := newController(Options{})
	s := sample(600, 0)
	out := c.Observe(s, severity.P0, t0)

	if out.Transition != Opened {
		t.Fatalf("transition: got %v, want opened", out.Transition)
	}
	a := c.Open()
	if a == nil || a.Severity != severity.P0 || !a.OpenedAt.Equal(t0) {
		t.Fatalf("open alert: got %+v", a)
	}
	if a.ID != "600, 0, 0" {
		t.Errorf("identity: got %q", a.ID)
	}
	h, ok := c.History(a.ID)
	if !ok || len(h) != 1 || !h[0].Equal(t0) {
		t.Errorf("history: got %v (%v)", h, ok)
	}
	if !c.ActiveLog().Has(t0) {
		t.Error("active log missing triggered entry")
	}
	// status line plus the triggered entry
	if c.StatusLog().Len() != 2 {
		t.Errorf("status log: got %d entries, want 2", c.StatusLog().Len())
	}
	if len(out.Notices) != 1 || out.Notices[0].Kind != KindTriggered {
		t.Fatalf("notices: got %+v", out.Notices)
	}
	if !strings.Contains(out.Notices[0].Message, "Latency: 600ms, Failure Rate: 0%, -> P0 Alert Triggered!") {
		t.Errorf("triggered message: got %q", out.Notices[0].Message)
	}
	if a.Plan.Interval != 48*time.Hour {
		t.Errorf("plan interval: got %v", a.Plan.Interval)
	}
	if a.RemediationOffset < 0 || a.RemediationOffset > 5*48*time.Hour {
		t.Errorf("remediation offset out of range: %v", a.RemediationOffset)
	}
}

func TestObserve_EscalateOnly(t *testing.T) {
	c := newController(Options{})
	c.Observe(sample(0, 0), severity.P2, at(0))

	seq := []struct {
		tier severity.Tier
		want severity.Tier
		tr   Transition
	}{
		{severity.P2, severity.P2, Held},
		{severity.P1, severity.P1, Escalated},
		{severity.P2, severity.P1, Held},
		{severity.P0, severity.P0, Escalated},
		{severity.P1, severity.P0, Held},
	}
	prev := severity.P2
	for i, step := range seq {
		out := c.Observe(sample(0, 0), step.tier, at(300*(i+1)))
		if out.Transition != step.tr {
			t.Errorf("step %d: transition %v, want %v", i, out.Transition, step.tr)
		}
		if out.Effective != step.want {
			t.Errorf("step %d: effective %v, want %v", i, out.Effective, step.want)
		}
		if out.Effective < prev {
			t.Fatalf("step %d: severity decreased %v -> %v", i, prev, out.Effective)
		}
		prev = out.Effective
	}
	if got := c.Open().CadenceSeverity; got != severity.P2 {
		t.Errorf("cadence severity: got %v, want triggering P2", got)
	}
	if got := c.Open().Plan.Interval; got != 2*time.Hour {
		t.Errorf("plan interval: got %v, want 2h", got)
	}
}

func TestObserve_CadenceFollowsEscalation(t *testing.T) {
	c := newController(Options{CadenceFollowsEscalation: true})
	c.Observe(sample(0, 0), severity.P0, at(0))
	c.Observe(sample(0, 0), severity.P0, at(300))
	if got := c.Open().Plan.Interval; got != 48*time.Hour {
		t.Fatalf("held alert retimed: %v", got)
	}

	c2 := newController(Options{CadenceFollowsEscalation: true})
	c2.Observe(sample(0, 0), severity.P2, at(0))
	c2.Observe(sample(0, 0), severity.P1, at(300))
	a := c2.Open()
	if a.CadenceSeverity != severity.P1 || a.Plan.Interval != 12*time.Hour {
		t.Errorf("after escalation: cadence %v interval %v", a.CadenceSeverity, a.Plan.Interval)
	}
}

func TestObserve_ResolveClearsOnlyAlertEntries(t *testing.T) {
	c := newController(Options{Intervals: schedule.Intervals{severity.P0: time.Hour}})

	// An unrelated entry recorded before the alert.
	c.active.Append(at(-10), "older unrelated entry")

	c.Observe(sample(600, 0), severity.P0, at(0))
	id := c.Open().ID
	for sec := 1; sec <= 7200; sec++ {
		c.Notify(at(sec))
	}
	h, _ := c.History(id)
	if len(h) != 3 {
		t.Fatalf("history: got %d timestamps, want open + 2 repeats", len(h))
	}
	statusBefore := c.StatusLog().Len()

	out := c.Observe(sample(100, 0), severity.None, at(7500))
	if out.Transition != Resolved || out.Previous != severity.P0 {
		t.Fatalf("resolve: got %v from %v", out.Transition, out.Previous)
	}
	if c.Open() != nil {
		t.Error("alert still open after resolve")
	}
	if _, ok := c.History(id); ok {
		t.Error("history entry survived resolve")
	}
	for _, ts := range h {
		if c.ActiveLog().Has(ts) {
			t.Errorf("active entry at %v survived resolve", ts)
		}
	}
	if c.ActiveLog().Len() != 1 {
		t.Errorf("active log: got %d entries, want the unrelated one", c.ActiveLog().Len())
	}
	// resolution adds its own status line but removes nothing
	if c.StatusLog().Len() != statusBefore+1 {
		t.Errorf("status log: got %d, want %d", c.StatusLog().Len(), statusBefore+1)
	}
	if len(out.Notices) != 1 || !strings.Contains(out.Notices[0].Message, "Resolving P0 alert.") {
		t.Errorf("resolve notice: got %+v", out.Notices)
	}
}

func TestNotify_ScheduleThroughController(t *testing.T) {
	c := newController(Options{})
	c.Observe(sample(0, 3), severity.P2, at(0))
	c.Observe(sample(0, 30), severity.P0, at(300)) // escalates; cadence stays P2

	kinds := make(map[Kind][]int)
	for sec := 1; sec <= 5*7200; sec++ {
		for _, n := range c.Notify(at(sec)) {
			kinds[n.Kind] = append(kinds[n.Kind], sec)
			if n.Severity != severity.P0 {
				t.Fatalf("notice severity: got %v, want escalated P0", n.Severity)
			}
		}
	}
	if got := kinds[KindRepeat]; len(got) != 5 || got[0] != 7200 {
		t.Errorf("repeat notices: got %v", got)
	}
	if got := kinds[KindTeamEmail]; len(got) != 1 || got[0] != 7200 {
		t.Errorf("team email: got %v", got)
	}
	if got := kinds[KindSkipLevelEmail]; len(got) != 1 || got[0] != 36000 {
		t.Errorf("skip-level email: got %v", got)
	}
}

func TestNotify_IdleIsNoop(t *testing.T) {
	c := newController(Options{})
	if n := c.Notify(t0); n != nil {
		t.Errorf("Notify while idle: got %+v", n)
	}
	if _, ok := c.Remediate(t0); ok {
		t.Error("Remediate while idle fired")
	}
}

func TestRemediate_FiresOnceAtOffset(t *testing.T) {
	c := newController(Options{})
	c.Observe(sample(0, 3), severity.P2, at(0))
	offset := c.Open().RemediationOffset

	var fired []time.Duration
	for sec := 0; sec <= 5*7200; sec++ {
		if n, ok := c.Remediate(at(sec)); ok {
			fired = append(fired, at(sec).Sub(t0))
			if n.Commit != "c0ffee" || !strings.Contains(n.Message, "Commit c0ffee submitted") {
				t.Errorf("commit notice: got %+v", n)
			}
		}
	}
	if len(fired) != 1 || fired[0] != offset {
		t.Fatalf("remediation fired at %v, want once at %v", fired, offset)
	}
}

func TestEscalate_WithoutHistoryPanics(t *testing.T) {
	c := newController(Options{})
	c.Observe(sample(600, 0), severity.P0, t0)
	delete(c.history, c.open.ID)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for missing history")
		}
	}()
	c.Observe(sample(600, 0), severity.P0, at(300))
}

func TestPrune_BothLogs(t *testing.T) {
	c := newController(Options{Retention: 24 * time.Hour})
	c.Observe(sample(100, 0), severity.None, t0)
	c.active.Append(t0, "stale")

	active, status := c.Prune(t0.Add(25 * time.Hour))
	if active != 1 || status != 1 {
		t.Errorf("Prune: got active=%d status=%d, want 1/1", active, status)
	}
	active, status = c.Prune(t0.Add(25 * time.Hour))
	if active != 0 || status != 0 {
		t.Errorf("second Prune: got %d/%d", active, status)
	}
}
