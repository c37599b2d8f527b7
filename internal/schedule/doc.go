// Package schedule decides when an open alert's notifications are due.
//
// Every scheduled event is tracked by a Watermark (NotYetDue, DueAt, Fired).
// An event fires on the first tick at or after its due time, so a late or
// skipped tick delays a notification instead of losing it.
//
// A Plan is built when an alert opens and carries three events:
//   - repeat notice every interval (never at open)
//   - team email once, one interval after open
//   - skip-level escalation email once, five intervals after open
package schedule
