package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ivlev/floodcheck/internal/analyzer"
)

var (
	ImagesClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floodcheck_images_classified_total",
			Help: "Total screenshots classified, by naming mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	ClassifyLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "floodcheck_classify_seconds",
			Help:    "Time to decode and classify one screenshot",
			Buckets: prometheus.DefBuckets,
		},
	)

	BlueRatio = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "floodcheck_blue_ratio",
			Help:    "Share of flood-colored pixels in the center window",
			Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.75, 1},
		},
	)
)

// Outcome is the label value for a classified record
func Outcome(r analyzer.Record) string {
	switch {
	case !r.OK():
		return "error"
	case r.Stats.HasFlooding:
		return "flooded"
	default:
		return "dry"
	}
}

// Observe records one classification
func Observe(mode string, r analyzer.Record, elapsed time.Duration) {
	ImagesClassified.WithLabelValues(mode, Outcome(r)).Inc()
	ClassifyLatency.Observe(elapsed.Seconds())
	if r.OK() {
		BlueRatio.Observe(r.Stats.BlueRatio)
	}
}

// WriteTextfile dumps the default registry in the Prometheus text format,
// suitable for the node exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
