// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Operation metrics
	OperationsTotal   *prometheus.CounterVec
	OperationErrors   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Routing metrics
	TransfersTotal *prometheus.CounterVec
	FeesRouted     *prometheus.CounterVec
	SupplyMinted   prometheus.Counter
	SupplyBurned   prometheus.Counter

	// Notice metrics
	NoticesEmitted *prometheus.CounterVec
	WSSubscribers  prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_ledger"
	}

	return &Metrics{
		OperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Total number of ledger operations by type and status",
		}, []string{"op", "status"}),
		OperationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operation_errors_total",
			Help:      "Total number of failed ledger operations by type and error class",
		}, []string{"op", "error"}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Ledger operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),

		TransfersTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "transfers_total",
			Help:      "Total number of completed transfers by routing path",
		}, []string{"path"}),
		FeesRouted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "fees_routed_total",
			Help:      "Total token units routed to fee sinks by sink",
		}, []string{"sink"}),
		SupplyMinted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supply",
			Name:      "minted_total",
			Help:      "Total token units minted, fees included",
		}),
		SupplyBurned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "supply",
			Name:      "burned_total",
			Help:      "Total token units burned",
		}),

		NoticesEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "notices_emitted_total",
			Help:      "Total number of notices emitted by kind",
		}, []string{"kind"}),
		WSSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "ws_subscribers",
			Help:      "Current number of WebSocket notice subscribers",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordOperation records a completed or failed ledger operation.
func RecordOperation(op, status string, durationSeconds float64) {
	DefaultMetrics.OperationsTotal.WithLabelValues(op, status).Inc()
	DefaultMetrics.OperationDuration.WithLabelValues(op).Observe(durationSeconds)
}

// RecordOperationError records a failed operation with its error class.
func RecordOperationError(op, errorClass string) {
	DefaultMetrics.OperationErrors.WithLabelValues(op, errorClass).Inc()
}

// RecordTransfer records a completed transfer by routing path.
func RecordTransfer(path string) {
	DefaultMetrics.TransfersTotal.WithLabelValues(path).Inc()
}

// RecordFeeRouted records token units routed to a fee sink.
func RecordFeeRouted(sink string, amount int64) {
	if amount > 0 {
		DefaultMetrics.FeesRouted.WithLabelValues(sink).Add(float64(amount))
	}
}

// RecordMint records minted units, fees included.
func RecordMint(total int64) {
	DefaultMetrics.SupplyMinted.Add(float64(total))
}

// RecordBurn records burned units.
func RecordBurn(amount int64) {
	DefaultMetrics.SupplyBurned.Add(float64(amount))
}

// RecordNotice records an emitted notice.
func RecordNotice(kind string) {
	DefaultMetrics.NoticesEmitted.WithLabelValues(kind).Inc()
}

// SetWSSubscribers updates the subscriber gauge.
func SetWSSubscribers(n int) {
	DefaultMetrics.WSSubscribers.Set(float64(n))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
