package handler

import (
	"fmt"
	"net/http"

	"github.com/udj/udjserver/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "udj_auth_attempts_total{outcome=%q} %d\n", metrics.OutcomeSuccess, snap.AuthSuccess)
	writeMetric(w, "udj_auth_attempts_total{outcome=%q} %d\n", metrics.OutcomeMalformed, snap.AuthMalformed)
	writeMetric(w, "udj_auth_attempts_total{outcome=%q} %d\n", metrics.OutcomeUnknownUser, snap.AuthUnknownUser)
	writeMetric(w, "udj_auth_attempts_total{outcome=%q} %d\n", metrics.OutcomeBadPassword, snap.AuthBadPassword)
	writeMetric(w, "udj_auth_attempts_total{outcome=%q} %d\n", metrics.OutcomeError, snap.AuthError)
	writeMetric(w, "udj_auth_duration_seconds_count %d\n", snap.AuthDurationCount)
	writeMetric(w, "udj_auth_duration_seconds_sum %.6f\n", float64(snap.AuthDurationTotalNs)/1e9)

	writeMetric(w, "udj_tickets_issued_total %d\n", snap.TicketsIssued)
	writeMetric(w, "udj_ticket_hash_collisions_total %d\n", snap.TicketHashCollision)
	writeMetric(w, "udj_ticket_cache_hits_total %d\n", snap.TicketCacheHits)
	writeMetric(w, "udj_ticket_cache_misses_total %d\n", snap.TicketCacheMisses)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
