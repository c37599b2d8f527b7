package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/obsidianstack/healthwatch/internal/schedule"
	"github.com/obsidianstack/healthwatch/internal/severity"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultTick              = time.Second
	DefaultSamplingPeriod    = 5 * time.Minute
	DefaultRetentionDays     = 90
	DefaultInitialLatencyMs  = 499
	DefaultInitialFailurePct = 1
	DefaultScrapeTimeout     = 10 * time.Second
	DefaultLatencyMetric     = "service_latency_ms"
	DefaultFailureMetric     = "service_failure_rate_pct"
	DefaultRatePerMinute     = 30.0
	DefaultBurst             = 5
	DefaultBroadcastInterval = 5 * time.Second
	DefaultNotificationTTL   = time.Hour
)

// Config is the full configuration tree parsed from YAML.
type Config struct {
	Monitor  MonitorConfig  `yaml:"monitor"`
	Alerting AlertingConfig `yaml:"alerting"`
	Source   SourceConfig   `yaml:"source"`
	Notify   NotifyConfig   `yaml:"notify"`
	HTTP     HTTPConfig     `yaml:"http"`
}

// MonitorConfig controls the main loop cadence and log retention.
type MonitorConfig struct {
	// Tick is the length of one loop iteration. Scheduling decisions have
	// this resolution.
	Tick time.Duration `yaml:"tick"`

	// SamplingPeriod is how often a new metric sample is drawn and classified.
	SamplingPeriod time.Duration `yaml:"sampling_period"`

	// RetentionDays is the age after which log entries are pruned.
	RetentionDays int `yaml:"retention_days"`
}

// Retention returns RetentionDays as a duration.
func (m MonitorConfig) Retention() time.Duration {
	return time.Duration(m.RetentionDays) * 24 * time.Hour
}

// AlertingConfig holds classification limits and notification cadence.
type AlertingConfig struct {
	// IntervalHours maps "P0" | "P1" | "P2" to the notification interval in hours.
	IntervalHours map[string]float64 `yaml:"interval_hours"`

	// Thresholds are the per-tier latency / failure-rate limits.
	Thresholds severity.Thresholds `yaml:"thresholds"`

	// CadenceFollowsEscalation re-times an open alert's notifications to the
	// escalated tier. When false the triggering tier keeps driving them.
	CadenceFollowsEscalation bool `yaml:"cadence_follows_escalation"`

	// RemediationMaxMultiple bounds the random remediation offset, in
	// intervals. A reload affects alerts opened afterwards.
	RemediationMaxMultiple float64 `yaml:"remediation_max_multiple"`
}

// Intervals converts IntervalHours into a schedule table. Call after validate.
func (a AlertingConfig) Intervals() schedule.Intervals {
	out := make(schedule.Intervals, len(a.IntervalHours))
	for k, h := range a.IntervalHours {
		tier, err := severity.Parse(k)
		if err != nil || tier == severity.None {
			continue
		}
		out[tier] = time.Duration(h * float64(time.Hour))
	}
	return out
}

// SourceConfig selects and configures the metric source.
type SourceConfig struct {
	// Type is one of: synthetic | prometheus.
	Type string `yaml:"type"`

	// Seed seeds the synthetic generator. Zero picks a time-based seed.
	Seed int64 `yaml:"seed"`

	// InitialLatencyMs and InitialFailureRatePct bias the first sample.
	InitialLatencyMs      int `yaml:"initial_latency_ms"`
	InitialFailureRatePct int `yaml:"initial_failure_rate_pct"`

	// Endpoint is the Prometheus text exposition URL (prometheus only).
	Endpoint string `yaml:"endpoint"`

	// LatencyMetric and FailureRateMetric name the metric families read from
	// Endpoint. All series of a family are summed.
	LatencyMetric     string `yaml:"latency_metric"`
	FailureRateMetric string `yaml:"failure_rate_metric"`

	// Timeout bounds one scrape.
	Timeout time.Duration `yaml:"timeout"`

	// Auth configures how the source endpoint is authenticated.
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig specifies the authentication mode for a scrape endpoint.
type AuthConfig struct {
	// Mode is one of: apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// Header is the HTTP header the API key is sent in (apikey).
	Header string `yaml:"header"`
	// KeyEnv names the environment variable holding the API key.
	KeyEnv string `yaml:"key_env"`

	// TokenEnv names the environment variable holding the bearer token.
	TokenEnv string `yaml:"token_env"`

	// Username is the literal basic-auth user; PasswordEnv names its password variable.
	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key value resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string {
	if a.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// NotifyConfig configures where notifications are delivered besides the log.
type NotifyConfig struct {
	Webhooks []WebhookConfig `yaml:"webhooks"`

	// RatePerMinute and Burst limit webhook deliveries across all targets.
	RatePerMinute float64 `yaml:"rate_per_minute"`
	Burst         int     `yaml:"burst"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// HTTPConfig configures the optional status server.
type HTTPConfig struct {
	// Addr is the listen address, e.g. ":8080". Empty disables the server.
	Addr string `yaml:"addr"`

	// BroadcastInterval is how often websocket clients receive the status.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`

	// NotificationTTL is how long sent notifications stay visible in the API.
	NotificationTTL time.Duration `yaml:"notification_ttl"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return defaults()
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Monitor: MonitorConfig{
			Tick:           DefaultTick,
			SamplingPeriod: DefaultSamplingPeriod,
			RetentionDays:  DefaultRetentionDays,
		},
		Alerting: AlertingConfig{
			IntervalHours: map[string]float64{
				"P2": 2,
				"P1": 12,
				"P0": 48,
			},
			Thresholds: severity.DefaultThresholds,
		},
		Source: SourceConfig{
			Type:                  "synthetic",
			InitialLatencyMs:      DefaultInitialLatencyMs,
			InitialFailureRatePct: DefaultInitialFailurePct,
			LatencyMetric:         DefaultLatencyMetric,
			FailureRateMetric:     DefaultFailureMetric,
			Timeout:               DefaultScrapeTimeout,
		},
		Notify: NotifyConfig{
			RatePerMinute: DefaultRatePerMinute,
			Burst:         DefaultBurst,
		},
		HTTP: HTTPConfig{
			BroadcastInterval: DefaultBroadcastInterval,
			NotificationTTL:   DefaultNotificationTTL,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Monitor.Tick <= 0 {
		return fmt.Errorf("monitor.tick must be positive")
	}
	if cfg.Monitor.SamplingPeriod < cfg.Monitor.Tick {
		return fmt.Errorf("monitor.sampling_period %v is shorter than monitor.tick %v",
			cfg.Monitor.SamplingPeriod, cfg.Monitor.Tick)
	}
	if cfg.Monitor.RetentionDays <= 0 {
		return fmt.Errorf("monitor.retention_days must be positive")
	}

	for k, h := range cfg.Alerting.IntervalHours {
		tier, err := severity.Parse(k)
		if err != nil || tier == severity.None {
			return fmt.Errorf("alerting.interval_hours: unknown tier %q", k)
		}
		if h <= 0 {
			return fmt.Errorf("alerting.interval_hours[%s] must be positive", k)
		}
	}
	for _, tier := range []severity.Tier{severity.P0, severity.P1, severity.P2} {
		if cfg.Alerting.Intervals().For(tier) <= 0 {
			return fmt.Errorf("alerting.interval_hours: missing %s", tier)
		}
	}
	if cfg.Alerting.RemediationMaxMultiple < 0 {
		return fmt.Errorf("alerting.remediation_max_multiple must not be negative")
	}

	switch cfg.Source.Type {
	case "synthetic":
	case "prometheus":
		if cfg.Source.Endpoint == "" {
			return fmt.Errorf("source.endpoint is required for type prometheus")
		}
		if cfg.Source.LatencyMetric == "" || cfg.Source.FailureRateMetric == "" {
			return fmt.Errorf("source.latency_metric and source.failure_rate_metric are required")
		}
	default:
		return fmt.Errorf("source.type %q unknown: want synthetic|prometheus", cfg.Source.Type)
	}
	if cfg.Source.InitialLatencyMs < 0 || cfg.Source.InitialFailureRatePct < 0 {
		return fmt.Errorf("source initial sample must not be negative")
	}
	switch cfg.Source.Auth.Mode {
	case "apikey", "bearer", "basic", "none", "":
	default:
		return fmt.Errorf("source.auth.mode %q unknown: want apikey|bearer|basic|none", cfg.Source.Auth.Mode)
	}

	for i, wh := range cfg.Notify.Webhooks {
		switch wh.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("notify.webhooks[%d]: unknown type %q", i, wh.Type)
		}
		if wh.URLEnv == "" {
			return fmt.Errorf("notify.webhooks[%d]: url_env is required", i)
		}
	}
	if cfg.Notify.RatePerMinute <= 0 || cfg.Notify.Burst <= 0 {
		return fmt.Errorf("notify.rate_per_minute and notify.burst must be positive")
	}

	if cfg.HTTP.BroadcastInterval <= 0 {
		return fmt.Errorf("http.broadcast_interval must be positive")
	}
	if cfg.HTTP.NotificationTTL < 0 {
		return fmt.Errorf("http.notification_ttl must not be negative")
	}
	return nil
}
