// Package config loads and watches the healthwatch configuration file.
//
// Top-level sections:
//   - monitor: tick, sampling_period (default 5m), retention_days (default 90)
//   - alerting: interval_hours per tier (P2:2, P1:12, P0:48), thresholds per
//     tier, cadence_follows_escalation, remediation_max_multiple
//   - source: synthetic | prometheus metric source, initial sample, auth
//   - notify: webhook targets (slack | teams | http) and delivery rate limit
//   - http: optional listen address for the status API, websocket
//     stream and /metrics
//
// Load(path) applies defaults before unmarshalling, then validates. Secrets
// are never stored in the file; *_env keys name environment variables.
//
// Watch(ctx, path, onChange) uses fsnotify on the file's directory so both
// in-place writes and rename-over saves trigger a reload.
package config
