// Package metrics exposes draw and scheduling counters in Prometheus format.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codr1/padeldraw/internal/competition"
	"github.com/codr1/padeldraw/internal/models"
)

const namespace = "padeldraw"

// Metrics implements competition.Observer and instruments the HTTP server.
type Metrics struct {
	registry          *prometheus.Registry
	matchesGenerated  *prometheus.CounterVec
	matchesCompleted  *prometheus.CounterVec
	scheduleAssigned  *prometheus.CounterVec
	scheduleConflicts prometheus.Counter
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

var _ competition.Observer = (*Metrics)(nil)

// New registers every collector on registry. Passing a fresh registry per test keeps
// registrations independent.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		matchesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_generated_total",
			Help:      "Matches created by draw generation, by kind.",
		}, []string{"kind"}),
		matchesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_completed_total",
			Help:      "Matches completed, by round and whether the result was a walkover.",
		}, []string{"round", "walkover"}),
		scheduleAssigned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_assignments_total",
			Help:      "Court slots assigned to matches.",
		}, []string{"mode"}),
		scheduleConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_conflicts_total",
			Help:      "Court slot assignments rejected because the court was taken.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method and status code.",
		}, []string{"method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	registry.MustRegister(
		m.matchesGenerated,
		m.matchesCompleted,
		m.scheduleAssigned,
		m.scheduleConflicts,
		m.requests,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) MatchesGenerated(kind string, count int) {
	m.matchesGenerated.WithLabelValues(kind).Add(float64(count))
}

func (m *Metrics) MatchCompleted(round models.Round, walkover bool) {
	m.matchesCompleted.WithLabelValues(round.String(), strconv.FormatBool(walkover)).Inc()
}

func (m *Metrics) ScheduleAssigned(auto bool) {
	mode := "manual"
	if auto {
		mode = "auto"
	}
	m.scheduleAssigned.WithLabelValues(mode).Inc()
}

func (m *Metrics) ScheduleConflict() {
	m.scheduleConflicts.Inc()
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts requests and observes their latency.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		m.requests.WithLabelValues(r.Method, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
