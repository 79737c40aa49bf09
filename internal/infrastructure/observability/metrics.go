package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	registry        *prometheus.Registry
	DocumentsServed *prometheus.CounterVec
	DocumentErrors  *prometheus.CounterVec
	Transforms      *prometheus.CounterVec
	ResponseBytes   prometheus.Histogram
	MonitorClients  prometheus.Gauge
}

func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		DocumentsServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asis",
			Name:      "documents_served_total",
			Help:      "Total documents served by status code",
		}, []string{"status"}),
		DocumentErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asis",
			Name:      "document_errors_total",
			Help:      "Total requests that failed by error kind",
		}, []string{"kind"}),
		Transforms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asis",
			Name:      "transforms_total",
			Help:      "Total body transforms applied by kind",
		}, []string{"kind"}),
		ResponseBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "asis",
			Name:      "response_bytes",
			Help:      "Size of served response bodies in bytes",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}),
		MonitorClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "asis",
			Name:      "monitor_clients",
			Help:      "Number of connected monitor websocket clients",
		}),
	}
	r.MustRegister(m.DocumentsServed, m.DocumentErrors, m.Transforms, m.ResponseBytes, m.MonitorClients)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
