package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the process Prometheus registry and the refresh-loop
// collectors. A nil *Metrics is valid and records nothing, so the
// monitor can run without it in tests.
type Metrics struct {
	registry *prometheus.Registry

	refreshCycles   prometheus.Counter
	refreshErrors   prometheus.Counter
	refreshDuration prometheus.Histogram
	openPositions   prometheus.Gauge
	netDeltaUSD     prometheus.Gauge
	lastRefresh     prometheus.Gauge
}

func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		refreshCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_cycles_total",
			Help:      "Total number of successful refresh cycles",
		}),
		refreshErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_errors_total",
			Help:      "Total number of failed refresh cycles",
		}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Wall time of one refresh cycle",
			Buckets:   prometheus.DefBuckets,
		}),
		openPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_positions",
			Help:      "Open positions across the cluster at last refresh",
		}),
		netDeltaUSD: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "net_delta_usd",
			Help:      "Cluster net delta in USD at last refresh",
		}),
		lastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_refresh_unixtime",
			Help:      "Unix time of the last successful refresh",
		}),
	}

	registry.MustRegister(
		m.refreshCycles,
		m.refreshErrors,
		m.refreshDuration,
		m.openPositions,
		m.netDeltaUSD,
		m.lastRefresh,
	)

	return m
}

func (m *Metrics) CycleDone(took time.Duration, positions int, netDelta float64) {
	if m == nil {
		return
	}
	m.refreshCycles.Inc()
	m.refreshDuration.Observe(took.Seconds())
	m.openPositions.Set(float64(positions))
	m.netDeltaUSD.Set(netDelta)
	m.lastRefresh.SetToCurrentTime()
}

func (m *Metrics) CycleFailed() {
	if m == nil {
		return
	}
	m.refreshErrors.Inc()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
