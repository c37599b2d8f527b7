package remediation

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/obsidianstack/healthwatch/internal/schedule"
)

// DefaultMaxMultiple bounds the random offset at this many intervals.
const DefaultMaxMultiple = 5.0

const commitAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const commitLen = 6

// Generator produces an opaque identifier for a remediation action.
type Generator interface {
	NewIdentifier() string
}

// CommitHash is a Generator returning six random letters and digits.
type CommitHash struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewCommitHash returns a CommitHash seeded from seed.
func NewCommitHash(seed int64) *CommitHash {
	return &CommitHash{rng: rand.New(rand.NewSource(seed))}
}

func (c *CommitHash) NewIdentifier() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := make([]byte, commitLen)
	for i := range b {
		b[i] = commitAlphabet[c.rng.Intn(len(commitAlphabet))]
	}
	return string(b)
}

// Simulator draws per-alert offsets and fires the remediation event.
type Simulator struct {
	gen         Generator
	rng         *rand.Rand
	maxMultiple float64
}

// New returns a Simulator. A non-positive maxMultiple selects DefaultMaxMultiple.
func New(gen Generator, rng *rand.Rand, maxMultiple float64) *Simulator {
	if maxMultiple <= 0 {
		maxMultiple = DefaultMaxMultiple
	}
	return &Simulator{gen: gen, rng: rng, maxMultiple: maxMultiple}
}

// SetMaxMultiple changes the bound used by later draws. Offsets already drawn
// for an open alert are kept. A non-positive m selects DefaultMaxMultiple.
func (s *Simulator) SetMaxMultiple(m float64) {
	if m <= 0 {
		m = DefaultMaxMultiple
	}
	s.maxMultiple = m
}

// DrawOffset returns interval * U(0, maxMultiple), with the multiple rounded
// to two decimal places and the result truncated to whole seconds.
func (s *Simulator) DrawOffset(interval time.Duration) time.Duration {
	return Offset(interval, s.rng.Float64()*s.maxMultiple)
}

// Offset scales interval by multiple rounded to two decimals.
func Offset(interval time.Duration, multiple float64) time.Duration {
	hundredths := time.Duration(math.Round(multiple * 100))
	return (interval * hundredths / 100).Truncate(time.Second)
}

// Arm returns the watermark for an alert opened at openedAt with the given offset.
func Arm(openedAt time.Time, offset time.Duration) schedule.Watermark {
	return schedule.Due(openedAt.Add(offset))
}

// Tick fires the remediation event the first time now reaches w's due time
// and returns the commit identifier. Later calls return false.
func (s *Simulator) Tick(w *schedule.Watermark, now time.Time) (string, bool) {
	if !w.Ready(now) {
		return "", false
	}
	w.Fire()
	return s.gen.NewIdentifier(), true
}
