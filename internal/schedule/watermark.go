package schedule

import "time"

// State is the phase of a Watermark.
type State int

const (
	NotYetDue State = iota
	DueAt
	Fired
)

func (s State) String() string {
	switch s {
	case DueAt:
		return "due_at"
	case Fired:
		return "fired"
	default:
		return "not_yet_due"
	}
}

// Watermark tracks one scheduled event. At is meaningful only when State is DueAt.
type Watermark struct {
	State State
	At    time.Time
}

// Due returns a Watermark that becomes ready at t.
func Due(t time.Time) Watermark {
	return Watermark{State: DueAt, At: t}
}

// Ready reports whether the event should fire at now.
func (w Watermark) Ready(now time.Time) bool {
	return w.State == DueAt && !now.Before(w.At)
}

// Fire marks a one-shot event as done.
func (w *Watermark) Fire() {
	w.State = Fired
	w.At = time.Time{}
}

// Advance moves a periodic event forward by whole multiples of every until
// its due time is strictly after now. It returns how many periods were
// skipped beyond the one that is firing.
func (w *Watermark) Advance(now time.Time, every time.Duration) int {
	if every <= 0 {
		w.State = NotYetDue
		return 0
	}
	skipped := -1
	for !w.At.After(now) {
		w.At = w.At.Add(every)
		skipped++
	}
	if skipped < 0 {
		skipped = 0
	}
	return skipped
}
