package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder backs the domain Metrics interface with Prometheus
// collectors.
type Recorder struct {
	analysesTotal *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	probability   *prometheus.GaugeVec
	stageDuration *prometheus.HistogramVec
}

// New registers the pipeline collectors on the default registry.
func New() *Recorder {
	return &Recorder{
		analysesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlescope_analyses_total",
				Help: "Total number of completed analysis runs",
			},
			[]string{"symbol", "timeframe"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlescope_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		probability: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "candlescope_last_probability",
				Help: "Last estimated next-candle bullish probability per symbol",
			},
			[]string{"symbol", "timeframe"},
		),
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "candlescope_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
}

// RecordAnalysis records a completed analysis run.
func (r *Recorder) RecordAnalysis(symbol, tf string) {
	r.analysesTotal.WithLabelValues(symbol, tf).Inc()
}

// RecordError counts one error of the given kind.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordProbability records the latest analog probability for a symbol.
func (r *Recorder) RecordProbability(symbol, tf string, probability float64) {
	r.probability.WithLabelValues(symbol, tf).Set(probability)
}

// RecordStageDuration records pipeline stage latency in seconds.
func (r *Recorder) RecordStageDuration(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}
