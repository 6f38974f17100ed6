// Package metrics exposes Prometheus collectors for the state service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific collectors.
	Registry = prometheus.NewRegistry()

	operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boutique",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Store operations by name and outcome.",
		},
		[]string{"operation", "result"},
	)

	playbackTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "boutique",
			Subsystem: "playback",
			Name:      "ticks_total",
			Help:      "Simulated plays credited by the playlist timer.",
		},
	)

	wsClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "boutique",
			Subsystem: "ws",
			Name:      "connected_clients",
			Help:      "Currently connected websocket clients.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boutique",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "boutique",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 10),
		},
		[]string{"method", "route"},
	)
)

func init() {
	Registry.MustRegister(
		operations,
		playbackTicks,
		wsClients,
		httpRequests,
		httpDuration,
		prometheus.NewGoCollector(),
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordOperation counts one store operation.
func RecordOperation(name string, ok bool) {
	result := "applied"
	if !ok {
		result = "rejected"
	}
	operations.WithLabelValues(name, result).Inc()
}

// RecordTick counts one playlist tick.
func RecordTick(int) {
	playbackTicks.Inc()
}

// ClientConnected and ClientDisconnected track the websocket gauge.
func ClientConnected()    { wsClients.Inc() }
func ClientDisconnected() { wsClients.Dec() }

// Instrument records request counts and latency keyed by the chi route pattern,
// so path parameters do not explode label cardinality. The wrapped writer
// keeps Hijack and Flush available for websocket upgrades.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		switch {
		case status != 0:
		case r.Header.Get("Upgrade") != "":
			// Hijacked; the 101 was written straight to the connection.
			status = http.StatusSwitchingProtocols
		default:
			status = http.StatusOK
		}
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
