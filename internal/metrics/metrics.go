package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "reefwatch_"

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	readingsIngested *prometheus.CounterVec
	readingsRejected *prometheus.CounterVec

	assessmentsTotal   *prometheus.CounterVec
	assessmentDuration prometheus.Histogram
	findingsTotal      *prometheus.CounterVec

	alertsPublished prometheus.Counter

	exportsTotal *prometheus.CounterVec

	wsClients prometheus.Gauge
)

// Init registers the backend's metrics. Safe to call more than once;
// registration happens only on the first call.
func Init() {
	registerOnce.Do(func() {
		readingsIngested = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "readings_ingested_total",
				Help: "Total readings accepted by source",
			},
			[]string{"source"},
		)
		readingsRejected = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "readings_rejected_total",
				Help: "Total readings rejected by reason",
			},
			[]string{"reason"},
		)

		assessmentsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "assessments_total",
				Help: "Total assessment pipeline runs by result",
			},
			[]string{"result"},
		)
		assessmentDuration = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "assessment_duration_seconds",
				Help:    "Assessment pipeline duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)
		findingsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "findings_total",
				Help: "Total diagnostic findings produced by severity",
			},
			[]string{"severity"},
		)

		alertsPublished = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_published_total",
				Help: "Total MQTT alerts published",
			},
		)

		exportsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "exports_total",
				Help: "Total export downloads by format and result",
			},
			[]string{"format", "result"},
		)

		wsClients = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "websocket_clients",
				Help: "Currently connected WebSocket clients",
			},
		)

		prometheus.MustRegister(
			readingsIngested,
			readingsRejected,
			assessmentsTotal,
			assessmentDuration,
			findingsTotal,
			alertsPublished,
			exportsTotal,
			wsClients,
		)
	})
}

// IncReadingIngested counts an accepted reading by source tag.
func IncReadingIngested(source string) {
	if source == "" {
		source = "unknown"
	}
	if readingsIngested != nil {
		readingsIngested.WithLabelValues(source).Inc()
	}
}

// IncReadingRejected counts a rejected reading by reason.
func IncReadingRejected(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if readingsRejected != nil {
		readingsRejected.WithLabelValues(reason).Inc()
	}
}

// ObserveAssessment records one pipeline run's duration and result.
func ObserveAssessment(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if assessmentsTotal != nil {
		assessmentsTotal.WithLabelValues(result).Inc()
	}
	if assessmentDuration != nil {
		assessmentDuration.Observe(duration.Seconds())
	}
}

// IncFinding counts one produced finding by severity.
func IncFinding(severity string) {
	if severity == "" {
		severity = "unknown"
	}
	if findingsTotal != nil {
		findingsTotal.WithLabelValues(severity).Inc()
	}
}

// IncAlertPublished counts one published MQTT alert.
func IncAlertPublished() {
	if alertsPublished != nil {
		alertsPublished.Inc()
	}
}

// IncExport counts one export download by format and result.
func IncExport(format, result string) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if exportsTotal != nil {
		exportsTotal.WithLabelValues(format, result).Inc()
	}
}

// SetWSClients records the current WebSocket client count.
func SetWSClients(n int) {
	if wsClients != nil {
		wsClients.Set(float64(n))
	}
}
