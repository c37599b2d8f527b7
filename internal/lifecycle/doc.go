// Package lifecycle implements the alert state machine.
//
// A Controller is either Idle or holds one OpenAlert. Each sampling tick
// Observe applies the classified tier:
//
//	Idle + tier        -> Opened   (alert created, triggered entry logged)
//	Open + tier        -> Escalated or Held (severity only ever rises)
//	Open + none        -> Resolved (alert's active-log entries removed)
//	Idle + none        -> Idle
//
// Every sampling tick also appends a status line to the status log. Between
// samples, Notify and Remediate drive the open alert's schedule. The
// Controller owns the open alert, its timestamp history and both logs; it is
// not safe for concurrent use.
package lifecycle
