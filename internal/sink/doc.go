// Package sink delivers alert notifications.
//
// Notifier is the delivery interface used by the monitor. Implementations:
// LogNotifier writes structured log records; Webhook posts to Slack, Teams
// or a generic HTTP endpoint in the background under a shared rate limit;
// Fanout hands every notification to several notifiers. The websocket hub
// in package ws also satisfies Notifier.
package sink
