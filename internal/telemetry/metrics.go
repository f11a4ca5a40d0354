// Package telemetry exposes prometheus metrics for data loading and stage
// execution.
package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	samplesLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "segpipe",
		Name:      "samples_loaded_total",
		Help:      "Samples read through a loader, by split.",
	}, []string{"split"})

	batchesEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "segpipe",
		Name:      "batches_emitted_total",
		Help:      "Batches handed to the consumer, by split.",
	}, []string{"split"})

	stageRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "segpipe",
		Name:      "stage_runs_total",
		Help:      "Completed stage runs, by stage and outcome.",
	}, []string{"stage", "outcome"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "segpipe",
		Name:      "stage_duration_seconds",
		Help:      "Wall-clock duration of one stage run.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
	}, []string{"stage"})
)

func AddSamples(split string, n int) {
	samplesLoaded.WithLabelValues(split).Add(float64(n))
}

func AddBatch(split string) {
	batchesEmitted.WithLabelValues(split).Inc()
}

func ObserveStage(stage, outcome string, elapsed time.Duration) {
	stageRuns.WithLabelValues(stage, outcome).Inc()
	stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// Expose serves /metrics on the given port in the background.
func Expose(port int) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		_ = http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
	}()
}
