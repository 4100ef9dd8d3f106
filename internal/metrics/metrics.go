// Package metrics exposes prometheus instrumentation for formula analysis
// and table runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "karyoscore"

// Analysis outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Default buckets, in seconds. Scoring one formula takes microseconds.
var DefaultAnalysisDurationBuckets = []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05}

// Metrics holds the collectors of one registry.
type Metrics struct {
	registry *prometheus.Registry

	FormulasAnalyzed *prometheus.CounterVec
	AnomaliesScored  *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	BatchRows        prometheus.Counter
	BatchRuns        prometheus.Counter
	BatchAgreement   prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		FormulasAnalyzed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "formulas_analyzed_total",
			Help:      "Formulas analyzed, by outcome.",
		}, []string{"outcome"}),
		AnomaliesScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_scored_total",
			Help:      "Distinct anomalies scored, by ISCN 2024 score.",
		}, []string{"score"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent analyzing one formula.",
			Buckets:   DefaultAnalysisDurationBuckets,
		}),
		BatchRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_rows_total",
			Help:      "Table rows processed by batch runs.",
		}),
		BatchRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_runs_total",
			Help:      "Completed batch runs.",
		}),
		BatchAgreement: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_agreement_ratio",
			Help:      "Share of rows whose automatic count matched the manual count in the last run that had one.",
		}),
	}

	registry.MustRegister(
		m.FormulasAnalyzed,
		m.AnomaliesScored,
		m.AnalysisDuration,
		m.BatchRows,
		m.BatchRuns,
		m.BatchAgreement,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveAnalysis records one analyze call. scores holds the ISCN 2024 score
// of every row; it is ignored when err is set.
func (m *Metrics) ObserveAnalysis(elapsed time.Duration, scores []int, err error) {
	if m == nil {
		return
	}
	m.AnalysisDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.FormulasAnalyzed.WithLabelValues(OutcomeError).Inc()
		return
	}
	m.FormulasAnalyzed.WithLabelValues(OutcomeOK).Inc()
	for _, s := range scores {
		m.AnomaliesScored.WithLabelValues(scoreLabel(s)).Inc()
	}
}

// ObserveBatch records a finished batch run.
func (m *Metrics) ObserveBatch(rows int, agreement float64, hasManualCount bool) {
	if m == nil {
		return
	}
	m.BatchRuns.Inc()
	m.BatchRows.Add(float64(rows))
	if hasManualCount {
		m.BatchAgreement.Set(agreement)
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func scoreLabel(score int) string {
	switch score {
	case 0:
		return "0"
	case 1:
		return "1"
	}
	return "2"
}
