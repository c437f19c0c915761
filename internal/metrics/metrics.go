// Package metrics exposes Prometheus metrics for pipeline runs and the HTTP
// API.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maauso/video-summarizer/internal/failure"
	"github.com/maauso/video-summarizer/internal/pipeline"
)

const namespace = "video_summarizer"

// Metrics holds every collector on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal           *prometheus.CounterVec
	RunsInProgress      prometheus.Gauge
	StageDuration       *prometheus.HistogramVec
	StageFailuresTotal  *prometheus.CounterVec
	UploadsTotal        prometheus.Counter
	UploadSizeBytes     prometheus.Histogram
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of finished pipeline runs",
			},
			[]string{"status"},
		),
		RunsInProgress: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "runs_in_progress",
				Help:      "Number of pipeline runs currently executing",
			},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Time spent in each pipeline stage",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms to ~7 minutes
			},
			[]string{"stage", "outcome"},
		),
		StageFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_failures_total",
				Help:      "Pipeline failures by stage and error kind",
			},
			[]string{"stage", "kind"},
		),
		UploadsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_total",
				Help:      "Total number of accepted video uploads",
			},
		),
		UploadSizeBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upload_size_bytes",
				Help:      "Size of uploaded videos in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024*1024, 2, 12), // 1MB to 2GB
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RunsTotal,
		m.RunsInProgress,
		m.StageDuration,
		m.StageFailuresTotal,
		m.UploadsTotal,
		m.UploadSizeBytes,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// OnTransition records run and stage metrics. It implements pipeline.Observer.
func (m *Metrics) OnTransition(_ context.Context, t pipeline.Transition) {
	switch {
	case t.From == pipeline.StateReceived:
		m.RunsInProgress.Inc()
	case t.To == pipeline.StateFailed:
		m.StageDuration.WithLabelValues(string(t.From), "failed").Observe(t.Elapsed.Seconds())
		m.StageFailuresTotal.WithLabelValues(string(t.From), failureKind(t.Err)).Inc()
	default:
		m.StageDuration.WithLabelValues(string(t.From), "ok").Observe(t.Elapsed.Seconds())
	}

	if t.To.IsTerminal() {
		m.RunsInProgress.Dec()
		m.RunsTotal.WithLabelValues(string(t.To)).Inc()
	}
}

func failureKind(err error) string {
	if err == nil {
		return "unknown"
	}
	var serr *pipeline.StageError
	if errors.As(err, &serr) {
		return failure.KindOf(serr.Err)
	}
	return failure.KindOf(err)
}

// RecordUpload counts an accepted upload of the given size.
func (m *Metrics) RecordUpload(sizeBytes int64) {
	m.UploadsTotal.Inc()
	m.UploadSizeBytes.Observe(float64(sizeBytes))
}

// Middleware records request count and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
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

// Compile-time check that Metrics implements pipeline.Observer.
var _ pipeline.Observer = (*Metrics)(nil)
