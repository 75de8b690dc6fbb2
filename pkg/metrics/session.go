package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SessionMetrics records sign-in outcomes, session state transitions and
// route-guard decisions.
type SessionMetrics struct {
	signIn      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	guard       *prometheus.CounterVec
	fetch       *prometheus.HistogramVec
}

// NewSessionMetrics registers the session metrics on the provided registerer.
func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	if reg == nil {
		return &SessionMetrics{}
	}
	signIn := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_sign_in_total",
		Help: "Sign-in attempts by outcome.",
	}, []string{"outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_state_transitions_total",
		Help: "Session state transitions by target state.",
	}, []string{"state"})
	guard := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "route_guard_decisions_total",
		Help: "Route guard decisions by result.",
	}, []string{"decision"})
	fetch := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "session_fetch_duration_seconds",
		Help:    "Duration of session plus profile fetches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	reg.MustRegister(signIn, transitions, guard, fetch)
	return &SessionMetrics{
		signIn:      signIn,
		transitions: transitions,
		guard:       guard,
		fetch:       fetch,
	}
}

// IncSignIn increments the sign-in counter for the given outcome.
func (m *SessionMetrics) IncSignIn(outcome string) {
	if m == nil || m.signIn == nil {
		return
	}
	m.signIn.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncTransition increments the transition counter for the target state.
func (m *SessionMetrics) IncTransition(state string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(state)).Inc()
}

// IncGuardDecision increments the route guard counter for the given decision.
func (m *SessionMetrics) IncGuardDecision(decision string) {
	if m == nil || m.guard == nil {
		return
	}
	m.guard.WithLabelValues(normalizeLabel(decision)).Inc()
}

// ObserveFetch records the latency of one session fetch by source (live or cache).
func (m *SessionMetrics) ObserveFetch(source string, duration time.Duration) {
	if m == nil || m.fetch == nil {
		return
	}
	m.fetch.WithLabelValues(normalizeLabel(source)).Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
