package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the pipeline's Prometheus collectors. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	corrections    *prometheus.CounterVec
	marketsSkipped *prometheus.CounterVec
	eventFailures  *prometheus.CounterVec
	parseFailures  prometheus.Counter
	snapshotHits   *prometheus.CounterVec
	analysis       *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		corrections: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regime_guardrail_corrections_total",
				Help: "Guardrail corrections applied to generated reports",
			},
			[]string{"rule"},
		),
		marketsSkipped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regime_markets_skipped_total",
				Help: "Markets dropped during normalization",
			},
			[]string{"reason"},
		),
		eventFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regime_event_fetch_failures_total",
				Help: "Events that could not be fetched",
			},
			[]string{"event"},
		),
		parseFailures: f.NewCounter(
			prometheus.CounterOpts{
				Name: "regime_llm_parse_failures_total",
				Help: "Generated outputs that did not yield a report",
			},
		),
		snapshotHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regime_snapshot_loads_total",
				Help: "Market data loads by source",
			},
			[]string{"source"},
		),
		analysis: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "regime_analysis_duration_seconds",
				Help:    "End-to-end analysis duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}
}

func (r *Recorder) Correction(rule string) {
	if r == nil {
		return
	}
	r.corrections.WithLabelValues(rule).Inc()
}

func (r *Recorder) MarketSkipped(reason string) {
	if r == nil {
		return
	}
	r.marketsSkipped.WithLabelValues(reason).Inc()
}

func (r *Recorder) EventFetchFailed(eventKey string) {
	if r == nil {
		return
	}
	r.eventFailures.WithLabelValues(eventKey).Inc()
}

func (r *Recorder) ParseFailed() {
	if r == nil {
		return
	}
	r.parseFailures.Inc()
}

// MarketDataLoaded counts a batch load; source is "snapshot" or "live".
func (r *Recorder) MarketDataLoaded(source string) {
	if r == nil {
		return
	}
	r.snapshotHits.WithLabelValues(source).Inc()
}

func (r *Recorder) ObserveAnalysis(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.analysis.WithLabelValues(outcome).Observe(d.Seconds())
}
