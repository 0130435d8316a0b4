package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	uploadTotal *prometheus.CounterVec
	chunkTotal  prometheus.Counter
	chunkBytes  prometheus.Histogram
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		uploadTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "dataset",
			Name:      "uploads_total",
			Help:      "Total number of dataset uploads by outcome.",
		}, []string{"result", "kind"}),
		chunkTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "dataset",
			Name:      "chunks_total",
			Help:      "Total number of extend requests sent for dataset uploads.",
		}),
		chunkBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gateway",
			Subsystem: "dataset",
			Name:      "chunk_bytes",
			Help:      "Encoded size of the profile set of each extend request.",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 12),
		}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
