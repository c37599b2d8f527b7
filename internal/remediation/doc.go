// Package remediation simulates the start of a fix for an open alert: once
// per alert, at a random offset drawn when the alert opens, a mock commit
// identifier is produced.
package remediation
