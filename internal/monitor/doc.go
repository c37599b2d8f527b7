// Package monitor runs the alert loop.
//
// Every tick the Monitor prunes both event logs, draws and classifies a new
// sample when the sampling period has elapsed, feeds the result to the
// lifecycle controller, then runs the open alert's notification plan and
// remediation. Each resulting notice becomes a sink.Notification. The tick
// ends by publishing a Status to the store and updating telemetry.
//
// Config reloads are queued with Reload and applied between ticks by Run, so
// Tick never races with a reload.
package monitor
