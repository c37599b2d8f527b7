// Package source produces the latency / failure-rate samples the monitor
// classifies.
//
// Implemented sources: synthetic (synthetic.go) draws Poisson-distributed
// values around the previous sample so degradations cascade; prometheus
// (prometheus.go) scrapes a text exposition endpoint and reads two metric
// families. Script (script.go) replays a fixed sequence and is used in tests.
// Factory: New(config.SourceConfig).
package source
