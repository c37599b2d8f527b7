package source

import (
	"context"
	"math"
	"math/rand"
)

// knuthLimit is the mean above which Poisson draws switch to the normal
// approximation; exp(-mean) underflows long before latencies in the hundreds.
const knuthLimit = 30

// Synthetic draws each value from a Poisson distribution whose mean is the
// previous value, so a bad sample tends to be followed by another.
type Synthetic struct {
	rng *rand.Rand
}

// NewSynthetic returns a Synthetic source seeded with seed.
func NewSynthetic(seed int64) *Synthetic {
	return &Synthetic{rng: rand.New(rand.NewSource(seed))}
}

func (s *Synthetic) Sample(_ context.Context, prev Sample) (Sample, error) {
	return Sample{
		LatencyMs:      poisson(s.rng, float64(prev.LatencyMs)),
		FailureRatePct: poisson(s.rng, float64(prev.FailureRatePct)),
	}, nil
}

// poisson returns a non-negative Poisson variate with the given mean.
func poisson(rng *rand.Rand, mean float64) int {
	if mean <= 0 {
		return 0
	}
	if mean < knuthLimit {
		limit := math.Exp(-mean)
		k := 0
		p := rng.Float64()
		for p > limit {
			k++
			p *= rng.Float64()
		}
		return k
	}
	v := math.Round(mean + math.Sqrt(mean)*rng.NormFloat64())
	if v < 0 {
		return 0
	}
	return int(v)
}
