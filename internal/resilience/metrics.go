package resilience

import "github.com/prometheus/client_golang/prometheus"

// Breaker collectors, labelled by the breaker's target.
var (
	BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "roller",
		Name:      "breaker_state",
		Help:      "Breaker state per target: 0 closed, 1 open, 2 half-open.",
	}, []string{"target"})
	BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roller",
		Name:      "breaker_transition_total",
		Help:      "Breaker state transitions.",
	}, []string{"target", "from", "to"})
	BreakerOpenedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roller",
		Name:      "breaker_open_total",
		Help:      "Times a breaker opened.",
	}, []string{"target"})
	HTTPAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roller",
		Name:      "outbound_http_attempts_total",
		Help:      "Outbound HTTP attempts by target and outcome.",
	}, []string{"target", "outcome"})
)

func init() {
	prometheus.MustRegister(BreakerState, BreakerTransitions, BreakerOpenedTotal, HTTPAttempts)
}
