// Package metrics holds the console's prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/UninstallAll/PhDAuto/internal/router"
)

type Metrics struct {
	registry *prometheus.Registry

	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	navigations     *prometheus.CounterVec
	wsClients       prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		backendRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "phdconsole",
				Subsystem: "backend",
				Name:      "requests_total",
				Help:      "Requests sent to the application backend.",
			},
			[]string{"method", "path", "status", "outcome"},
		),
		backendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "phdconsole",
				Subsystem: "backend",
				Name:      "request_duration_seconds",
				Help:      "Latency of requests to the application backend.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			},
			[]string{"method", "path"},
		),
		navigations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "phdconsole",
				Subsystem: "ui",
				Name:      "navigations_total",
				Help:      "Console page navigations by route name.",
			},
			[]string{"route"},
		),
		wsClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "phdconsole",
				Subsystem: "ui",
				Name:      "live_clients",
				Help:      "Open websocket connections receiving store mutations.",
			},
		),
	}
	m.registry.MustRegister(m.backendRequests, m.backendDuration, m.navigations, m.wsClients)
	return m
}

// ObserveBackend matches apiclient.Observer. Paths of single records are
// collapsed so ids do not explode label cardinality.
func (m *Metrics) ObserveBackend(method, path string, status int, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	path = collapsePath(path)
	m.backendRequests.WithLabelValues(method, path, strconv.Itoa(status), outcome).Inc()
	m.backendDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// ObserveNavigation matches router.Observer.
func (m *Metrics) ObserveNavigation(nav router.Navigation) {
	m.navigations.WithLabelValues(nav.Name).Inc()
}

func (m *Metrics) LiveClientConnected()    { m.wsClients.Inc() }
func (m *Metrics) LiveClientDisconnected() { m.wsClients.Dec() }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
