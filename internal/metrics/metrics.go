// Package metrics provides Prometheus metrics for the chat backend
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the chat backend
type Metrics struct {
	// Document store metrics
	DocstoreOperationsTotal   *prometheus.CounterVec
	DocstoreOperationDuration *prometheus.HistogramVec

	// Exchange metrics
	ExchangesTotal       *prometheus.CounterVec
	CompletionDuration   prometheus.Histogram
	SessionLoadsTotal    *prometheus.CounterVec
	WebsocketConnections prometheus.Gauge
}

// NewMetrics creates and registers all metrics on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.DocstoreOperationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnly_docstore_operations_total",
			Help: "Total number of document store operations",
		},
		[]string{"operation", "collection", "status"},
	)

	m.DocstoreOperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "learnly_docstore_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	m.ExchangesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnly_chat_exchanges_total",
			Help: "Total number of chat exchanges by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	m.CompletionDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "learnly_chat_exchange_duration_seconds",
			Help:    "Duration of a full chat exchange in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)

	m.SessionLoadsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnly_chat_list_loads_total",
			Help: "Total number of session and message list loads",
		},
		[]string{"list", "status"},
	)

	m.WebsocketConnections = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "learnly_websocket_connections",
			Help: "Number of open tutor websocket connections",
		},
	)

	return m
}

// ObserveDocstore matches the docstore.Observer signature.
func (m *Metrics) ObserveDocstore(op, collection string, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.DocstoreOperationsTotal.WithLabelValues(op, collection, status).Inc()
	m.DocstoreOperationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// RecordExchange counts one exchange. Outcome is one of "succeeded",
// "fallback", "failed" or "skipped".
func (m *Metrics) RecordExchange(mode, outcome string, elapsed time.Duration) {
	m.ExchangesTotal.WithLabelValues(mode, outcome).Inc()
	if outcome != "skipped" {
		m.CompletionDuration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) RecordListLoad(list string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.SessionLoadsTotal.WithLabelValues(list, status).Inc()
}
