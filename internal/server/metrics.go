package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vesaa/netspeed/internal/agent"
)

// Metrics mirrors the latest reading as Prometheus gauges on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	speed           *prometheus.GaugeVec
	totalSinceReset prometheus.Gauge
	sampleErrors    prometheus.Counter
}

// NewMetrics registers the netspeed collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		speed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "netspeed",
			Name:      "bytes_per_second",
			Help:      "Aggregate throughput over the last interval, excluding loopback and virtual interfaces.",
		}, []string{"direction"}),
		totalSinceReset: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netspeed",
			Name:      "bytes_since_reset",
			Help:      "Bytes moved since the cumulative counter was last reset.",
		}),
		sampleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netspeed",
			Name:      "sample_errors_total",
			Help:      "Ticks where the interface counters could not be read.",
		}),
	}
	m.registry.MustRegister(m.speed, m.totalSinceReset, m.sampleErrors)
	return m
}

// Observe records one reading.
func (m *Metrics) Observe(r agent.Reading) {
	if r.Err != nil {
		m.sampleErrors.Inc()
		return
	}
	m.speed.WithLabelValues("total").Set(r.Stats.TotalSpeed)
	m.speed.WithLabelValues("upload").Set(r.Stats.UploadSpeed)
	m.speed.WithLabelValues("download").Set(r.Stats.DownloadSpeed)
	m.totalSinceReset.Set(float64(r.TotalSinceReset))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
