package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Streak outcomes reported by the streak engine.
const (
	StreakCreated     = "created"
	StreakIncremented = "incremented"
	StreakReset       = "reset"
	StreakUnchanged   = "unchanged"
)

// Metrics groups the application collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	streakUpdates   *prometheus.CounterVec
	progressRuns    *prometheus.CounterVec
	bufferedOps     *prometheus.CounterVec
}

// New registers the collectors on a dedicated registry.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Request duration seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		streakUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streak_updates_total",
			Help:      "Streak engine invocations by outcome",
		}, []string{"outcome"}),
		progressRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "goal_progress_recomputes_total",
			Help:      "Goal progress recomputations by result",
		}, []string{"result"}),
		bufferedOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffered_operations_total",
			Help:      "Task operations diverted to the local buffer",
		}, []string{"operation"}),
	}
	reg.MustRegister(
		m.requests,
		m.requestDuration,
		m.streakUpdates,
		m.progressRuns,
		m.bufferedOps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func (m *Metrics) StreakOutcome(outcome string) {
	if m == nil {
		return
	}
	m.streakUpdates.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ProgressRecomputed(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.progressRuns.WithLabelValues(result).Inc()
}

func (m *Metrics) OperationBuffered(operation string) {
	if m == nil {
		return
	}
	m.bufferedOps.WithLabelValues(operation).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
