// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mutual_aid"

var (
	// Registry holds the application collectors plus Go and process stats.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "path", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "path"})

	authAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "attempts_total",
		Help:      "Register and login attempts by outcome.",
	}, []string{"kind", "result"})
	volunteerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "volunteer",
		Name:      "transitions_total",
		Help:      "Volunteer lifecycle transitions applied.",
	}, []string{"action"})
	messagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "messages",
		Name:      "sent_total",
		Help:      "Direct messages stored.",
	})
	realtimeClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "clients",
		Help:      "Connected websocket clients.",
	})
	realtimeDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "dropped_total",
		Help:      "Realtime frames dropped because the queue was full.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpInFlight,
		httpRequests,
		httpDuration,
		authAttempts,
		volunteerTransitions,
		messagesSent,
		realtimeClients,
		realtimeDropped,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func IncInFlight() { httpInFlight.Inc() }
func DecInFlight() { httpInFlight.Dec() }

// RecordHTTPRequest counts one finished request. path should be the route
// template, not the raw URL.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordAuth counts a register or login attempt.
func RecordAuth(kind string, ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	authAttempts.WithLabelValues(kind, result).Inc()
}

func RecordVolunteerTransition(action string) {
	volunteerTransitions.WithLabelValues(action).Inc()
}

func RecordMessageSent() { messagesSent.Inc() }

func SetRealtimeClients(n int) { realtimeClients.Set(float64(n)) }

func RecordRealtimeDrop() { realtimeDropped.Inc() }
