// Package store holds the read-side copy of the monitor's state for the
// HTTP API and websocket hub: the latest published Status and the
// notifications sent within a TTL.
package store
