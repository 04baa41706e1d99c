package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// DiscountPreviewsTotal counts purchase discount previews by outcome.
	DiscountPreviewsTotal *prometheus.CounterVec
	// DiscountRulesSkippedTotal counts rules ignored during evaluation, labelled by reason.
	DiscountRulesSkippedTotal *prometheus.CounterVec
	// DiscountClampedTotal counts line items whose stacked discount exceeded the line amount.
	DiscountClampedTotal prometheus.Counter
	// DiscountPreviewCacheTotal counts preview cache lookups by hit/miss.
	DiscountPreviewCacheTotal *prometheus.CounterVec
	// DiscountPreviewLatency records engine evaluation latency in milliseconds.
	DiscountPreviewLatency prometheus.Histogram
	// SupplierDiscountWritesTotal counts rule mutations by operation and result.
	SupplierDiscountWritesTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		DiscountPreviewsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_previews_total",
			Help:      "Count of purchase discount previews by outcome.",
		}, []string{"result"}))
		DiscountRulesSkippedTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_rules_skipped_total",
			Help:      "Count of supplier discount rules skipped during evaluation.",
		}, []string{"reason"}))
		DiscountClampedTotal = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_clamped_total",
			Help:      "Count of line items whose discount was clamped to the line amount.",
		}))
		DiscountPreviewCacheTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_preview_cache_total",
			Help:      "Count of discount preview cache lookups.",
		}, []string{"result"}))
		DiscountPreviewLatency = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "discount_preview_duration_ms",
			Help:      "Latency of discount engine evaluations in milliseconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		}))
		SupplierDiscountWritesTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "supplier_discount_writes_total",
			Help:      "Count of supplier discount rule mutations.",
		}, []string{"op", "result"}))
	})
}

// IncCounter increments a labelled counter if it has been registered.
func IncCounter(vec *prometheus.CounterVec, labels ...string) {
	if vec == nil {
		return
	}
	vec.WithLabelValues(labels...).Inc()
}
