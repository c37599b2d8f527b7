package eventlog

import (
	"testing"
	"time"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestAppendAndRemove(t *testing.T) {
	l := New("active")
	l.Append(base, "triggered")
	l.Append(base, "status")
	l.Append(base.Add(time.Hour), "resend")

	if n := l.Len(); n != 3 {
		t.Fatalf("Len: got %d, want 3", n)
	}
	if !l.Has(base) {
		t.Fatal("Has(base): got false")
	}
	if n := l.Remove(base); n != 2 {
		t.Errorf("Remove: got %d, want 2", n)
	}
	if l.Has(base) {
		t.Error("Has(base) after Remove: got true")
	}
	if n := l.Remove(base); n != 0 {
		t.Errorf("second Remove: got %d, want 0", n)
	}
}

func TestEntries_Chronological(t *testing.T) {
	l := New("status")
	l.Append(base.Add(2*time.Second), "c")
	l.Append(base, "a")
	l.Append(base.Add(time.Second), "b")

	got := l.Entries()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Entries: got %d, want %d", len(got), len(want))
	}
	for i, e := range got {
		if e.Message != want[i] {
			t.Errorf("Entries[%d]: got %q, want %q", i, e.Message, want[i])
		}
	}
}

func TestPrune_Boundary(t *testing.T) {
	l := New("status")
	now := base
	l.Append(now.Add(-DefaultRetention), "exactly 90 days")
	l.Append(now.Add(-DefaultRetention-time.Second), "90 days and a second")
	l.Append(now.Add(-time.Hour), "fresh")

	if n := l.Prune(now, DefaultRetention); n != 1 {
		t.Fatalf("Prune: got %d removed, want 1", n)
	}
	for _, e := range l.Entries() {
		if e.Message == "90 days and a second" {
			t.Error("expired entry survived Prune")
		}
	}
	if l.Len() != 2 {
		t.Errorf("Len after Prune: got %d, want 2", l.Len())
	}
}

func TestPrune_EmptyAndIdempotent(t *testing.T) {
	l := New("active")
	if n := l.Prune(base, DefaultRetention); n != 0 {
		t.Fatalf("Prune on empty log: got %d", n)
	}

	for i := 0; i < 200; i++ {
		l.Append(base.Add(-time.Duration(i)*24*time.Hour), "day")
	}
	first := l.Prune(base, DefaultRetention)
	before := l.Entries()
	second := l.Prune(base, DefaultRetention)
	after := l.Entries()

	if first == 0 {
		t.Error("first Prune removed nothing")
	}
	if second != 0 {
		t.Errorf("second Prune removed %d, want 0", second)
	}
	if len(before) != len(after) {
		t.Errorf("idempotence: %d entries vs %d", len(before), len(after))
	}
}
