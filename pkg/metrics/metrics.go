// Package metrics defines the Prometheus collectors for index builds and
// spectrum searches and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ChrisMcGann/FragIndex/pkg/index"
	"github.com/ChrisMcGann/FragIndex/pkg/search"
)

const namespace = "fragindex"

// Metrics holds all Prometheus collectors.
type Metrics struct {
	SpectraSearched   *prometheus.CounterVec
	CandidatesScored  prometheus.Histogram
	MatchesReported   prometheus.Histogram
	SearchLatency     *prometheus.HistogramVec
	IndexPeptides     prometheus.Gauge
	IndexFragments    prometheus.Gauge
	IndexBuckets      prometheus.Gauge
	IndexBuildSeconds prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SpectraSearched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "spectra_searched_total",
				Help:      "Spectra searched by mode and outcome (identified, unidentified, no_candidates).",
			},
			[]string{"mode", "outcome"},
		),
		CandidatesScored: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "candidates_scored",
				Help:      "Peptides within the precursor window per spectrum.",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
		MatchesReported: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "matches_reported",
				Help:      "Matches retained per spectrum.",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_latency_seconds",
				Help:      "Per-spectrum search latency in seconds.",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"mode"},
		),
		IndexPeptides: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "index_peptides",
				Help:      "Peptides in the built index.",
			},
		),
		IndexFragments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "index_fragments",
				Help:      "Fragment entries in the built index.",
			},
		),
		IndexBuckets: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "index_buckets",
				Help:      "Buckets in the built index.",
			},
		),
		IndexBuildSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "index_build_seconds",
				Help:      "Duration of the last index build.",
			},
		),
	}

	reg.MustRegister(
		m.SpectraSearched,
		m.CandidatesScored,
		m.MatchesReported,
		m.SearchLatency,
		m.IndexPeptides,
		m.IndexFragments,
		m.IndexBuckets,
		m.IndexBuildSeconds,
	)

	return m
}

// ObserveBuild records the shape of a built index.
func (m *Metrics) ObserveBuild(stats index.Stats) {
	m.IndexPeptides.Set(float64(stats.Peptides))
	m.IndexFragments.Set(float64(stats.Fragments))
	m.IndexBuckets.Set(float64(stats.Buckets))
	m.IndexBuildSeconds.Set(stats.BuildTime.Seconds())
}

// ObserveOutcome records one searched spectrum.
func (m *Metrics) ObserveOutcome(mode string, o search.Outcome) {
	m.SpectraSearched.WithLabelValues(mode, OutcomeLabel(o.Result)).Inc()
	m.CandidatesScored.Observe(float64(o.Result.ScoredCandidates))
	m.MatchesReported.Observe(float64(len(o.Result.Matches)))
	m.SearchLatency.WithLabelValues(mode).Observe(o.Duration.Seconds())
}

// OutcomeLabel classifies a search result for the spectra_searched_total
// outcome label.
func OutcomeLabel(r search.Result) string {
	switch {
	case r.Identified():
		return "identified"
	case r.ScoredCandidates == 0:
		return "no_candidates"
	default:
		return "unidentified"
	}
}

// Handler returns the Prometheus scrape HTTP handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
