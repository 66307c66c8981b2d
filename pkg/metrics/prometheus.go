package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	adapterCalls   *prometheus.CounterVec
	adapterLatency *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	profileQuality *prometheus.HistogramVec
	stakeCapped    prometheus.Counter
	predictions    *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
}

// New registers the recorder's collectors on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors on reg. Tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		adapterCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apexpick_adapter_calls_total",
				Help: "Source adapter calls by result (ok, error, timeout)",
			},
			[]string{"source", "result"},
		),
		adapterLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apexpick_adapter_duration_seconds",
				Help:    "Source adapter call duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"source"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apexpick_profile_cache_lookups_total",
				Help: "Profile cache lookups by result",
			},
			[]string{"result"},
		),
		profileQuality: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apexpick_profile_quality_score",
				Help:    "Data quality score of built profiles",
				Buckets: []float64{0, 10, 25, 50, 75, 90, 100},
			},
			[]string{"sport"},
		),
		stakeCapped: f.NewCounter(
			prometheus.CounterOpts{
				Name: "apexpick_stake_cap_violations_total",
				Help: "Raw stakes that exceeded the cap and were clamped",
			},
		),
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apexpick_predictions_total",
				Help: "Predictions composed by stability",
			},
			[]string{"stability"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apexpick_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordAdapterCall records one adapter invocation.
func (r *Recorder) RecordAdapterCall(source, result string, seconds float64) {
	r.adapterCalls.WithLabelValues(source, result).Inc()
	r.adapterLatency.WithLabelValues(source).Observe(seconds)
}

func (r *Recorder) RecordCacheLookup(hit bool) {
	if hit {
		r.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	r.cacheLookups.WithLabelValues("miss").Inc()
}

func (r *Recorder) RecordProfileQuality(sport string, score float64) {
	r.profileQuality.WithLabelValues(sport).Observe(score)
}

func (r *Recorder) RecordStakeCapViolation() {
	r.stakeCapped.Inc()
}

func (r *Recorder) RecordPrediction(stability string) {
	r.predictions.WithLabelValues(stability).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
