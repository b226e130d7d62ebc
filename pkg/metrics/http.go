package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AccessMetrics counts guard decisions per protected area.
type AccessMetrics struct {
	decisions *prometheus.CounterVec
	lookups   *prometheus.CounterVec
}

// NewAccessMetrics registers the access metrics on the provided registerer.
func NewAccessMetrics(reg prometheus.Registerer) *AccessMetrics {
	if reg == nil {
		return &AccessMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autoflex_access_decisions_total",
		Help: "Access decisions by area and outcome.",
	}, []string{"area", "outcome"})
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autoflex_role_lookup_failures_total",
		Help: "Role lookups that fell back to the lowest privilege.",
	}, []string{"reason"})
	reg.MustRegister(decisions, lookups)
	return &AccessMetrics{decisions: decisions, lookups: lookups}
}

// ObserveDecision records one allow/redirect outcome.
func (a *AccessMetrics) ObserveDecision(area string, allowed bool) {
	if a == nil || a.decisions == nil {
		return
	}
	outcome := "redirect"
	if allowed {
		outcome = "allow"
	}
	a.decisions.WithLabelValues(normalizeLabel(area), outcome).Inc()
}

func (a *AccessMetrics) IncLookupFailure(reason string) {
	if a == nil || a.lookups == nil {
		return
	}
	a.lookups.WithLabelValues(normalizeLabel(reason)).Inc()
}

// SourceMetrics counts degraded upstream fetches (stripe, supabase, db).
type SourceMetrics struct {
	failures *prometheus.CounterVec
}

func NewSourceMetrics(reg prometheus.Registerer) *SourceMetrics {
	if reg == nil {
		return &SourceMetrics{}
	}
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autoflex_source_fetch_failures_total",
		Help: "Upstream fetches that degraded to empty defaults.",
	}, []string{"source"})
	reg.MustRegister(failures)
	return &SourceMetrics{failures: failures}
}

func (s *SourceMetrics) IncFailure(source string) {
	if s == nil || s.failures == nil {
		return
	}
	s.failures.WithLabelValues(normalizeLabel(source)).Inc()
}
