package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
)

const namespace = "pdf2xlsx"

// ConversionMetrics implements ports.ConversionRecorder and the lifecycle
// cleanup recorder.
type ConversionMetrics struct {
	service string

	conversionsTotal   *prometheus.CounterVec
	conversionDuration *prometheus.HistogramVec
	conversionInFlight prometheus.Gauge
	attemptsTotal      *prometheus.CounterVec
	attemptDuration    *prometheus.HistogramVec
	cleanupTotal       *prometheus.CounterVec
}

func NewConversionMetrics(service string, registerer prometheus.Registerer) *ConversionMetrics {
	conversionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversion",
			Name:      "total",
			Help:      "Finished conversions by winning strategy and status.",
		},
		[]string{"service", "strategy", "status"},
	)
	conversionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "conversion",
			Name:      "duration_seconds",
			Help:      "End to end conversion duration in seconds by status.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "status"},
	)
	conversionInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "conversion",
			Name:      "in_flight",
			Help:      "Number of conversions currently running.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	attemptsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "attempts_total",
			Help:      "Extraction strategy attempts by outcome.",
		},
		[]string{"service", "strategy", "outcome"},
	)
	attemptDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "attempt_duration_seconds",
			Help:      "Extraction strategy attempt duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"service", "strategy"},
	)
	cleanupTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "cleanup_total",
			Help:      "Transient file reclamation attempts by trigger and outcome.",
		},
		[]string{"service", "trigger", "outcome"},
	)

	registerer.MustRegister(conversionsTotal, conversionDuration, conversionInFlight, attemptsTotal, attemptDuration, cleanupTotal)

	return &ConversionMetrics{
		service:            service,
		conversionsTotal:   conversionsTotal,
		conversionDuration: conversionDuration,
		conversionInFlight: conversionInFlight,
		attemptsTotal:      attemptsTotal,
		attemptDuration:    attemptDuration,
		cleanupTotal:       cleanupTotal,
	}
}

func (m *ConversionMetrics) StartConversion() {
	m.conversionInFlight.Inc()
}

func (m *ConversionMetrics) FinishConversion() {
	m.conversionInFlight.Dec()
}

func (m *ConversionMetrics) ObserveStrategyAttempt(strategy domain.StrategyName, outcome domain.Outcome, duration time.Duration) {
	m.attemptsTotal.WithLabelValues(m.service, string(strategy), string(outcome)).Inc()
	m.attemptDuration.WithLabelValues(m.service, string(strategy)).Observe(duration.Seconds())
}

func (m *ConversionMetrics) ObserveConversion(strategy domain.StrategyName, status domain.JobStatus, duration time.Duration) {
	label := string(strategy)
	if label == "" {
		label = "none"
	}
	m.conversionsTotal.WithLabelValues(m.service, label, string(status)).Inc()
	m.conversionDuration.WithLabelValues(m.service, string(status)).Observe(duration.Seconds())
}

func (m *ConversionMetrics) ObserveCleanup(trigger, outcome string) {
	m.cleanupTotal.WithLabelValues(m.service, trigger, outcome).Inc()
}
