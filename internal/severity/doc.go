// Package severity classifies a metric sample into an alert tier.
//
// Tiers are ordered None < P2 < P1 < P0. Classify walks a fixed chain of
// threshold checks, most severe first, and returns the first match.
package severity
