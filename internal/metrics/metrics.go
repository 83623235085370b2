// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Auth attempt outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeMalformed   = "malformed"
	OutcomeUnknownUser = "unknown_user"
	OutcomeBadPassword = "bad_password"
	OutcomeError       = "error"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Authentication metrics
	IncAuthAttempt(outcome string)
	ObserveAuthDuration(duration time.Duration)

	// Ticket metrics
	IncTicketIssued()
	IncTicketHashCollision(n int)
	IncTicketCacheHit()
	IncTicketCacheMiss()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
