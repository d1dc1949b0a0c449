package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "lwm2m_seccfg"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Editor metrics
	SessionsOpened *prometheus.CounterVec
	SessionsClosed *prometheus.CounterVec
	MergesRejected *prometheus.CounterVec

	// Profile metrics
	ProfileWrites *prometheus.CounterVec

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with all metrics registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		SessionsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "editor",
			Name:      "sessions_opened_total",
			Help:      "Edit sessions opened",
		}, nil),
		SessionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "editor",
			Name:      "sessions_closed_total",
			Help:      "Edit sessions closed, by outcome (saved, cancelled, expired)",
		}, []string{"outcome"}),
		MergesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "editor",
			Name:      "merges_rejected_total",
			Help:      "Dirty form values held back on merge because they failed validation, by tab",
		}, []string{"tab"}),
		ProfileWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "profile",
			Name:      "writes_total",
			Help:      "Stored profile writes, by operation (put, delete)",
		}, []string{"op"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, by route pattern and status code",
		}, []string{"route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, by route pattern",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.SessionsOpened,
		r.SessionsClosed,
		r.MergesRejected,
		r.ProfileWrites,
		r.RequestsTotal,
		r.RequestDuration,
	)
	return r
}

// Prometheus returns the underlying registry for components that register
// their own collectors.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// WatchSessions exposes the live session count reported by fn.
func (r *Registry) WatchSessions(fn func() int) {
	r.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "editor",
		Name:      "sessions_active",
		Help:      "Open edit sessions",
	}, func() float64 { return float64(fn()) }))
}

// WatchObjects exposes the object model catalog size reported by fn.
func (r *Registry) WatchObjects(fn func() int) {
	r.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "models",
		Name:      "objects",
		Help:      "Object models in the catalog",
	}, func() float64 { return float64(fn()) }))
}

// SessionOpened counts an opened edit session.
func (r *Registry) SessionOpened() {
	r.SessionsOpened.WithLabelValues().Inc()
}

// SessionClosed counts a closed edit session.
func (r *Registry) SessionClosed(outcome string) {
	r.SessionsClosed.WithLabelValues(outcome).Inc()
}

// MergeRejected counts a value held back on merge.
func (r *Registry) MergeRejected(tab string) {
	r.MergesRejected.WithLabelValues(tab).Inc()
}

// ProfileWrite counts a profile store write.
func (r *Registry) ProfileWrite(op string) {
	r.ProfileWrites.WithLabelValues(op).Inc()
}

// ObserveRequest records one served request.
func (r *Registry) ObserveRequest(route string, status int, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
