package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	results    *prometheus.CounterVec
	proposals  prometheus.Gauge
	referenda  prometheus.Counter
}

func newMetrics(registry *prometheus.Registry) *metrics {
	factory := promauto.With(registry)
	return &metrics{
		registry: registry,
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "govtracker_operations_total",
			Help: "governance operations by name and outcome",
		}, []string{"operation", "outcome"}),
		results: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "govtracker_resolutions_total",
			Help: "closed or cancelled proposals by result",
		}, []string{"result"}),
		proposals: factory.NewGauge(prometheus.GaugeOpts{
			Name: "govtracker_proposals",
			Help: "number of proposals ever submitted",
		}),
		referenda: factory.NewCounter(prometheus.CounterOpts{
			Name: "govtracker_referenda_submitted_total",
			Help: "referenda filed for passed proposals",
		}),
	}
}

func (m *metrics) observe(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = errorCode(err)
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
