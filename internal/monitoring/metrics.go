package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LabelTarget = "target" // "ego" or "agent"
	LabelReason = "reason" // "not_found" or "filtered"
)

var (
	// SamplesBuilt counts samples produced by the batch runner.
	SamplesBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "sampler",
		Name:      "samples_built_total",
		Help:      "Total number of samples built",
	}, []string{LabelTarget})

	// SamplesSkipped counts requests dropped because the target could
	// not be anchored at the centre frame.
	SamplesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "sampler",
		Name:      "samples_skipped_total",
		Help:      "Total number of sample requests skipped for a missing anchor",
	}, []string{LabelReason})

	// BuildSeconds observes the latency of single sample builds.
	BuildSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Subsystem: "sampler",
		Name:      "build_seconds",
		Help:      "Latency of one sample build (10 microseconds to 10 seconds)",
		Buckets:   prometheus.ExponentialBucketsRange(1e-5, 10, 10),
	})
)
