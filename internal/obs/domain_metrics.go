package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuotesTotal counts computed price quotes by product line and whether the minimum area applied.
	QuotesTotal *prometheus.CounterVec
	// ThresholdCrossingsTotal counts minimum-area threshold crossings by direction (up, down).
	ThresholdCrossingsTotal *prometheus.CounterVec
	// PriceOverridesTotal counts override activations and restores.
	PriceOverridesTotal *prometheus.CounterVec
	// ColorRestoreTotal tracks cross-variant color restore outcomes.
	ColorRestoreTotal *prometheus.CounterVec
	// CartSubmissionsTotal tracks cart add outcomes.
	CartSubmissionsTotal *prometheus.CounterVec
	// AuthLoginsTotal counts login attempts by result.
	AuthLoginsTotal *prometheus.CounterVec
	// RefreshTokensPurged counts expired refresh tokens removed by the worker.
	RefreshTokensPurged prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuotesTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Count of computed roller quotes.",
		}, []string{"material", "profile", "color_class", "minimum"}))
		ThresholdCrossingsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threshold_crossings_total",
			Help:      "Count of minimum-area threshold crossings.",
		}, []string{"direction"}))
		PriceOverridesTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_overrides_total",
			Help:      "Count of price override activations and restores.",
		}, []string{"action"}))
		ColorRestoreTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "color_restore_total",
			Help:      "Outcomes of color restoration after variant switches.",
		}, []string{"result"}))
		CartSubmissionsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_submissions_total",
			Help:      "Outcomes of cart add submissions.",
		}, []string{"result"}))
		AuthLoginsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_logins_total",
			Help:      "Count of login attempts by result.",
		}, []string{"result"}))
		RefreshTokensPurged = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_tokens_purged_total",
			Help:      "Number of expired refresh tokens deleted.",
		}))
	})
}

func incCounter(vec *prometheus.CounterVec, labels ...string) {
	if vec == nil {
		return
	}
	vec.WithLabelValues(labels...).Inc()
}

// RecordQuote increments QuotesTotal when registered.
func RecordQuote(material, profile, colorClass string, minimum bool) {
	m := "false"
	if minimum {
		m = "true"
	}
	incCounter(QuotesTotal, material, profile, colorClass, m)
}

// RecordThresholdCrossing increments ThresholdCrossingsTotal when registered.
func RecordThresholdCrossing(direction string) {
	incCounter(ThresholdCrossingsTotal, direction)
}

// RecordPriceOverride increments PriceOverridesTotal when registered.
func RecordPriceOverride(action string) {
	incCounter(PriceOverridesTotal, action)
}

// RecordColorRestore increments ColorRestoreTotal when registered.
func RecordColorRestore(result string) {
	incCounter(ColorRestoreTotal, result)
}

// RecordCartSubmission increments CartSubmissionsTotal when registered.
func RecordCartSubmission(result string) {
	incCounter(CartSubmissionsTotal, result)
}

// RecordLogin increments AuthLoginsTotal when registered.
func RecordLogin(result string) {
	incCounter(AuthLoginsTotal, result)
}
