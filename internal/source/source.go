package source

import (
	"context"
	"fmt"
	"time"

	"github.com/obsidianstack/healthwatch/internal/config"
)

// Sample is one observation of service health.
type Sample struct {
	LatencyMs      int `json:"latency_ms"`
	FailureRatePct int `json:"failure_rate_pct"`
}

// Source returns a new sample. prev is the last sample drawn and may be used
// as a bias; sources that observe a real system ignore it.
type Source interface {
	Sample(ctx context.Context, prev Sample) (Sample, error)
}

// Initial returns the configured seed sample.
func Initial(cfg config.SourceConfig) Sample {
	return Sample{LatencyMs: cfg.InitialLatencyMs, FailureRatePct: cfg.InitialFailureRatePct}
}

// New returns the Source selected by cfg.Type.
func New(cfg config.SourceConfig) (Source, error) {
	switch cfg.Type {
	case "synthetic", "":
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return NewSynthetic(seed), nil
	case "prometheus":
		return NewPrometheus(cfg)
	default:
		return nil, fmt.Errorf("source: unsupported type %q", cfg.Type)
	}
}
