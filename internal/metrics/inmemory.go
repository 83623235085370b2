package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	AuthSuccess         uint64
	AuthMalformed       uint64
	AuthUnknownUser     uint64
	AuthBadPassword     uint64
	AuthError           uint64
	AuthDurationCount   uint64
	AuthDurationTotalNs int64
	TicketsIssued       uint64
	TicketHashCollision uint64
	TicketCacheHits     uint64
	TicketCacheMisses   uint64
}

// InMemoryRecorder stores metrics in memory for tests and the /metrics endpoint.
type InMemoryRecorder struct {
	authSuccess         uint64
	authMalformed       uint64
	authUnknownUser     uint64
	authBadPassword     uint64
	authError           uint64
	authDurationCount   uint64
	authDurationTotalNs int64
	ticketsIssued       uint64
	ticketHashCollision uint64
	ticketCacheHits     uint64
	ticketCacheMisses   uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		AuthSuccess:         atomic.LoadUint64(&m.authSuccess),
		AuthMalformed:       atomic.LoadUint64(&m.authMalformed),
		AuthUnknownUser:     atomic.LoadUint64(&m.authUnknownUser),
		AuthBadPassword:     atomic.LoadUint64(&m.authBadPassword),
		AuthError:           atomic.LoadUint64(&m.authError),
		AuthDurationCount:   atomic.LoadUint64(&m.authDurationCount),
		AuthDurationTotalNs: atomic.LoadInt64(&m.authDurationTotalNs),
		TicketsIssued:       atomic.LoadUint64(&m.ticketsIssued),
		TicketHashCollision: atomic.LoadUint64(&m.ticketHashCollision),
		TicketCacheHits:     atomic.LoadUint64(&m.ticketCacheHits),
		TicketCacheMisses:   atomic.LoadUint64(&m.ticketCacheMisses),
	}
}

// IncAuthAttempt increments the counter for outcome.
// Unknown outcomes are counted as errors.
func (m *InMemoryRecorder) IncAuthAttempt(outcome string) {
	switch outcome {
	case OutcomeSuccess:
		atomic.AddUint64(&m.authSuccess, 1)
	case OutcomeMalformed:
		atomic.AddUint64(&m.authMalformed, 1)
	case OutcomeUnknownUser:
		atomic.AddUint64(&m.authUnknownUser, 1)
	case OutcomeBadPassword:
		atomic.AddUint64(&m.authBadPassword, 1)
	default:
		atomic.AddUint64(&m.authError, 1)
	}
}

// ObserveAuthDuration records auth request duration.
func (m *InMemoryRecorder) ObserveAuthDuration(duration time.Duration) {
	atomic.AddUint64(&m.authDurationCount, 1)
	atomic.AddInt64(&m.authDurationTotalNs, duration.Nanoseconds())
}

// IncTicketIssued increments ticket issued counter.
func (m *InMemoryRecorder) IncTicketIssued() {
	atomic.AddUint64(&m.ticketsIssued, 1)
}

// IncTicketHashCollision adds count rejected candidate tokens.
func (m *InMemoryRecorder) IncTicketHashCollision(count int) {
	if count > 0 {
		atomic.AddUint64(&m.ticketHashCollision, uint64(count))
	}
}

// IncTicketCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncTicketCacheHit() {
	atomic.AddUint64(&m.ticketCacheHits, 1)
}

// IncTicketCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncTicketCacheMiss() {
	atomic.AddUint64(&m.ticketCacheMisses, 1)
}
