package source

import (
	"context"
	"errors"
	"sync"
)

// ErrExhausted is returned by Script once every sample has been replayed.
var ErrExhausted = errors.New("source: script exhausted")

// Script replays a fixed list of samples in order.
type Script struct {
	mu      sync.Mutex
	samples []Sample
	calls   []Sample // prev values seen, for assertions
}

// NewScript returns a Script that yields samples in order.
func NewScript(samples ...Sample) *Script {
	return &Script{samples: samples}
}

func (s *Script) Sample(_ context.Context, prev Sample) (Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, prev)
	if len(s.samples) == 0 {
		return Sample{}, ErrExhausted
	}
	next := s.samples[0]
	s.samples = s.samples[1:]
	return next, nil
}

// Calls returns the prev argument of every Sample call so far.
func (s *Script) Calls() []Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Sample, len(s.calls))
	copy(out, s.calls)
	return out
}
