package rbac

import (
	"github.com/prometheus/client_golang/prometheus"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Metrics exports authorization counters. A nil *Metrics records nothing.
type Metrics struct {
	resolutions   *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
	breakerState  prometheus.Gauge
	fallbackDrift *prometheus.GaugeVec
}

// NewMetrics registers RBAC metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_rbac_resolutions_total",
			Help: "Permission resolutions by source (none, admin, live, fallback).",
		}, []string{"source"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_rbac_fetch_failures_total",
			Help: "Live role permission fetches that fell back to the static table.",
		}, []string{"reason"}),
		breakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backoffice_rbac_breaker_state",
			Help: "Live fetch circuit breaker state (0 closed, 1 half-open, 2 open).",
		}),
		fallbackDrift: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "backoffice_rbac_fallback_drift_keys",
			Help: "Keys that differ between a role's live permissions and its fallback entry.",
		}, []string{"role"}),
	}
	if reg != nil {
		reg.MustRegister(m.resolutions, m.fetchFailures, m.breakerState, m.fallbackDrift)
	}
	return m
}

func (m *Metrics) observeResolution(source Source) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(string(source)).Inc()
}

func (m *Metrics) observeFetchFailure(reason string) {
	if m == nil {
		return
	}
	m.fetchFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) observeBreaker(state gobreaker.State) {
	if m == nil {
		return
	}
	switch state {
	case gobreaker.StateHalfOpen:
		m.breakerState.Set(1)
	case gobreaker.StateOpen:
		m.breakerState.Set(2)
	default:
		m.breakerState.Set(0)
	}
}

// ObserveDrift records how many keys differ for role.
func (m *Metrics) ObserveDrift(role string, keys int) {
	if m == nil {
		return
	}
	m.fallbackDrift.WithLabelValues(role).Set(float64(keys))
}
