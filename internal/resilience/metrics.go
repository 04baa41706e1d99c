package resilience

import "github.com/prometheus/client_golang/prometheus"

var (
	// BreakerState reports 0=closed, 1=open, 2=half-open per dependency.
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "erp_dependency_breaker_state",
			Help: "Current circuit breaker state per dependency: 0=closed,1=open,2=half-open",
		},
		[]string{"dependency"},
	)
	BreakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erp_dependency_breaker_transitions_total",
			Help: "Circuit breaker state transitions per dependency",
		},
		[]string{"dependency", "from", "to"},
	)
	RetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erp_dependency_retries_total",
			Help: "Retried dependency calls",
		},
		[]string{"dependency"},
	)
)

func init() {
	prometheus.MustRegister(BreakerState, BreakerTransitions, RetriesTotal)
}
