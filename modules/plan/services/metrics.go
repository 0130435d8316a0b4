package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	importTotal       *prometheus.CounterVec
	activitiesTotal   prometheus.Counter
	compensationTotal *prometheus.CounterVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		importTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "plan",
			Name:      "imports_total",
			Help:      "Total number of plan imports by outcome.",
		}, []string{"result", "kind"}),
		activitiesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "plan",
			Name:      "activities_imported_total",
			Help:      "Total number of activity directives created by plan imports.",
		}),
		compensationTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "plan",
			Name:      "compensations_total",
			Help:      "Total number of failed imports that were rolled back.",
		}, []string{"kind"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
