package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// SaleMetrics aggregates the counters the node records for sale, lock and
// token activity plus RPC request bookkeeping.
type SaleMetrics struct {
	Purchases   prometheus.Counter
	Claims      prometheus.Counter
	EventsTotal *prometheus.CounterVec
	RPCRequests *prometheus.CounterVec
	RPCLatency  *prometheus.HistogramVec
}

var (
	saleMetricsOnce sync.Once
	saleRegistry    *SaleMetrics
)

// Metrics returns the lazily-initialised metric registry. Collectors are
// registered against the default prometheus registerer exactly once.
func Metrics() *SaleMetrics {
	saleMetricsOnce.Do(func() {
		saleRegistry = &SaleMetrics{
			Purchases: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "tokensale",
				Subsystem: "crowdsale",
				Name:      "purchases_total",
				Help:      "Total successful purchases.",
			}),
			Claims: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "tokensale",
				Subsystem: "lockvault",
				Name:      "claims_total",
				Help:      "Total successful claims.",
			}),
			EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "tokensale",
				Subsystem: "node",
				Name:      "events_total",
				Help:      "Module events segmented by type.",
			}, []string{"type"}),
			RPCRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "tokensale",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "JSON-RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			RPCLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "tokensale",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(
			saleRegistry.Purchases,
			saleRegistry.Claims,
			saleRegistry.EventsTotal,
			saleRegistry.RPCRequests,
			saleRegistry.RPCLatency,
		)
	})
	return saleRegistry
}
