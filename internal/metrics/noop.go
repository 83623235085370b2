package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncAuthAttempt is a no-op.
func (n *NoopRecorder) IncAuthAttempt(outcome string) {}

// ObserveAuthDuration is a no-op.
func (n *NoopRecorder) ObserveAuthDuration(duration time.Duration) {}

// IncTicketIssued is a no-op.
func (n *NoopRecorder) IncTicketIssued() {}

// IncTicketHashCollision is a no-op.
func (n *NoopRecorder) IncTicketHashCollision(count int) {}

// IncTicketCacheHit is a no-op.
func (n *NoopRecorder) IncTicketCacheHit() {}

// IncTicketCacheMiss is a no-op.
func (n *NoopRecorder) IncTicketCacheMiss() {}
