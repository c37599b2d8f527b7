package remediation

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/obsidianstack/healthwatch/internal/schedule"
)

type fixedGen string

func (g fixedGen) NewIdentifier() string { return string(g) }

func TestOffset_RoundsMultiple(t *testing.T) {
	tests := []struct {
		interval time.Duration
		multiple float64
		want     time.Duration
	}{
		{2 * time.Hour, 0, 0},
		{2 * time.Hour, 1.234, 2*time.Hour + 27*time.Minute + 36*time.Second}, // 1.23 * 2h
		{2 * time.Hour, 1.236, 2*time.Hour + 28*time.Minute + 48*time.Second}, // 1.24 * 2h
		{48 * time.Hour, 5, 240 * time.Hour},
	}
	for _, tc := range tests {
		if got := Offset(tc.interval, tc.multiple); got != tc.want {
			t.Errorf("Offset(%v, %v): got %v, want %v", tc.interval, tc.multiple, got, tc.want)
		}
	}
}

func TestDrawOffset_WithinBounds(t *testing.T) {
	s := New(fixedGen("x"), rand.New(rand.NewSource(7)), 0)
	interval := 12 * time.Hour
	for i := 0; i < 1000; i++ {
		d := s.DrawOffset(interval)
		if d < 0 || d > 5*interval {
			t.Fatalf("offset %v outside [0, %v]", d, 5*interval)
		}
		if d%time.Second != 0 {
			t.Fatalf("offset %v not whole seconds", d)
		}
	}
}

func TestSetMaxMultiple(t *testing.T) {
	s := New(fixedGen("x"), rand.New(rand.NewSource(7)), 0)
	interval := time.Hour

	s.SetMaxMultiple(0.5)
	for i := 0; i < 200; i++ {
		if d := s.DrawOffset(interval); d > interval/2 {
			t.Fatalf("offset %v above 0.5 intervals", d)
		}
	}

	// Non-positive falls back to the default bound.
	s.SetMaxMultiple(0)
	if s.maxMultiple != DefaultMaxMultiple {
		t.Errorf("maxMultiple: got %v, want %v", s.maxMultiple, DefaultMaxMultiple)
	}
}

func TestTick_FiresOnce(t *testing.T) {
	s := New(fixedGen("abc123"), rand.New(rand.NewSource(1)), 0)
	opened := time.Unix(1_700_000_000, 0)
	w := Arm(opened, 90*time.Minute)

	var fires []time.Duration
	for sec := 0; sec <= 3*3600; sec += 30 {
		now := opened.Add(time.Duration(sec) * time.Second)
		if id, ok := s.Tick(&w, now); ok {
			if id != "abc123" {
				t.Errorf("id: got %q", id)
			}
			fires = append(fires, now.Sub(opened))
		}
	}
	if len(fires) != 1 || fires[0] != 90*time.Minute {
		t.Fatalf("fires: got %v, want [1h30m0s]", fires)
	}
	if w.State != schedule.Fired {
		t.Errorf("watermark state: got %v", w.State)
	}
}

func TestTick_ZeroOffsetFiresAtOpen(t *testing.T) {
	s := New(fixedGen("zzz"), rand.New(rand.NewSource(1)), 0)
	opened := time.Unix(1_700_000_000, 0)
	w := Arm(opened, 0)
	if _, ok := s.Tick(&w, opened); !ok {
		t.Fatal("zero offset should fire on the opening tick")
	}
}

func TestCommitHash(t *testing.T) {
	g := NewCommitHash(42)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := g.NewIdentifier()
		if len(id) != commitLen {
			t.Fatalf("len(%q): got %d", id, len(id))
		}
		for _, r := range id {
			if !strings.ContainsRune(commitAlphabet, r) {
				t.Fatalf("unexpected rune %q in %q", r, id)
			}
		}
		seen[id] = true
	}
	if len(seen) < 45 {
		t.Errorf("too many duplicate identifiers: %d unique of 50", len(seen))
	}
}
