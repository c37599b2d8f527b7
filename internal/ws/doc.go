// Package ws implements the WebSocket hub for healthwatch.
//
// Hub broadcasts the current snapshot to every connected client on a fixed
// interval, and pushes each notification the moment the alert loop emits it.
// Hub satisfies sink.Notifier so it can sit in the notification fanout.
//
// Message format sent to clients:
//
//	{"event": "snapshot",     "data": { /* GET /api/v1/snapshot */ }}
//	{"event": "notification", "data": { /* one notification */ }}
//
// The upgrader accepts all origins. The endpoint is mounted at /ws/stream.
package ws
