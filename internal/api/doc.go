// Package api implements the read-only HTTP API for healthwatch.
//
// New(store) returns an http.Handler that serves:
//
//	GET /api/v1/health         last sample, tier, log sizes
//	GET /api/v1/alert          the open alert; 404 when none is open
//	GET /api/v1/notifications  notifications sent within the store TTL
//	GET /api/v1/snapshot       status and notifications in one document
//
// Every endpoint responds with Content-Type: application/json and returns
// 405 for non-GET methods. JSON types are defined in types.go.
package api
