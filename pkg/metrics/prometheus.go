package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/OQueQuantFirm/Market-Analyzer/internal/domain/models"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	cyclesTotal     *prometheus.CounterVec
	cycleErrors     *prometheus.CounterVec
	ordersSubmitted *prometheus.CounterVec
	lastPrice       *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cyclesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_cycles_total",
				Help: "Total evaluation cycles by outcome",
			},
			[]string{"instrument", "signal"},
		),
		cycleErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_cycle_errors_total",
				Help: "Total evaluation cycle errors by kind",
			},
			[]string{"kind"},
		),
		ordersSubmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_orders_submitted_total",
				Help: "Total bracket legs submitted by result",
			},
			[]string{"instrument", "leg", "result"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "analyzer_last_price",
				Help: "Last traded price for an instrument",
			},
			[]string{"instrument"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analyzer_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCycle records a completed evaluation cycle.
func (r *Recorder) RecordCycle(instrument string, signal models.Signal) {
	r.cyclesTotal.WithLabelValues(instrument, string(signal)).Inc()
}

// RecordCycleError records a failed evaluation cycle.
func (r *Recorder) RecordCycleError(kind string) {
	r.cycleErrors.WithLabelValues(kind).Inc()
}

// RecordOrderSubmitted records a bracket leg submission outcome.
func (r *Recorder) RecordOrderSubmitted(instrument, leg string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.ordersSubmitted.WithLabelValues(instrument, leg, result).Inc()
}

// RecordLastPrice records the last traded price.
func (r *Recorder) RecordLastPrice(instrument string, price float64) {
	r.lastPrice.WithLabelValues(instrument).Set(price)
}

// RecordLatency records an operation duration.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
