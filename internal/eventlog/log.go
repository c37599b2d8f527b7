package eventlog

import (
	"sort"
	"time"
)

// DefaultRetention is how long entries are kept before Prune removes them.
const DefaultRetention = 90 * 24 * time.Hour

// Entry is one message recorded at a point in time.
type Entry struct {
	At      time.Time
	Message string
}

// Log maps a second-resolution timestamp to the messages recorded at it.
type Log struct {
	name    string
	entries map[int64][]string
}

// New returns an empty Log. name is used only in log output.
func New(name string) *Log {
	return &Log{name: name, entries: make(map[int64][]string)}
}

// Name returns the label passed to New.
func (l *Log) Name() string { return l.name }

// Append records msg under at (truncated to the second).
func (l *Log) Append(at time.Time, msg string) {
	k := at.Unix()
	l.entries[k] = append(l.entries[k], msg)
}

// Remove deletes every message recorded under at and reports how many were removed.
func (l *Log) Remove(at time.Time) int {
	k := at.Unix()
	n := len(l.entries[k])
	delete(l.entries, k)
	return n
}

// Has reports whether any message is recorded under at.
func (l *Log) Has(at time.Time) bool {
	_, ok := l.entries[at.Unix()]
	return ok
}

// Len returns the total number of messages held.
func (l *Log) Len() int {
	n := 0
	for _, msgs := range l.entries {
		n += len(msgs)
	}
	return n
}

// Entries returns a chronological copy of the log.
func (l *Log) Entries() []Entry {
	keys := make([]int64, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		at := time.Unix(k, 0)
		for _, m := range l.entries[k] {
			out = append(out, Entry{At: at, Message: m})
		}
	}
	return out
}

// Prune removes every key strictly older than maxAge relative to now and
// returns the number of messages removed. Calling it on an empty log, or
// twice with the same now, is a no-op.
func (l *Log) Prune(now time.Time, maxAge time.Duration) int {
	cutoff := now.Unix()
	limit := int64(maxAge / time.Second)
	removed := 0
	for k, msgs := range l.entries {
		if cutoff-k > limit {
			removed += len(msgs)
			delete(l.entries, k)
		}
	}
	return removed
}
