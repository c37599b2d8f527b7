// Package eventlog holds the timestamp-keyed message stores used by the
// alert loop (the active alert log and the system status log) and the
// age-based retention pruning applied to them.
//
// Keys have one-second resolution. Several messages may share a key; Remove
// drops them all. Log is not safe for concurrent use; the monitor loop is its
// only owner.
package eventlog
