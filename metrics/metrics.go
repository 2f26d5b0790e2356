// Package metrics provides Prometheus metrics for the HTTP server and the record store:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - rate_limiter_buckets_total: Gauge of tracked client buckets
//   - cabinet_records_created_total: Counter with kind label
//   - cabinet_store_writes_total: Counter with slot and result labels
//   - cabinet_store_pending_slots: Gauge of slots whose last write failed
//   - cabinet_backups_total: Counter with result label
//
// All metrics are registered with the Prometheus default registry during package
// initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (clients seen in last ~5 minutes)",
		},
	)

	RecordsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cabinet_records_created_total",
			Help: "Records created since start, by kind",
		},
		[]string{"kind"},
	)

	StoreWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cabinet_store_writes_total",
			Help: "Slot writes, by slot and result",
		},
		[]string{"slot", "result"},
	)

	StorePendingSlots = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cabinet_store_pending_slots",
			Help: "Slots whose in-memory collection is not yet persisted",
		},
	)

	BackupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cabinet_backups_total",
			Help: "Backup runs, by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(RecordsCreatedTotal)
	prometheus.MustRegister(StoreWritesTotal)
	prometheus.MustRegister(StorePendingSlots)
	prometheus.MustRegister(BackupsTotal)
}

// ObserveWrite counts one slot write.
func ObserveWrite(slot string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	StoreWritesTotal.WithLabelValues(slot, result).Inc()
}
