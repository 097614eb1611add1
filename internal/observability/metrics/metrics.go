// Package metrics holds the Prometheus collectors for the try-on service.
// Every recording method is safe on a nil *Metrics so collaborators can run
// without instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tryon"

type Metrics struct {
	gatherer prometheus.Gatherer

	// httpDuration labels: route, method, status
	httpDuration *prometheus.HistogramVec
	// quotaDecisions labels: plan, result (granted, exceeded, invalid_plan, not_found, error)
	quotaDecisions *prometheus.CounterVec
	// imageResolutions labels: source (inline, wardrobe, product, avatar, unresolvable), result
	imageResolutions *prometheus.CounterVec
	// generationAttempts labels: result (image, no_image, error)
	generationAttempts *prometheus.CounterVec
	// generationDuration labels: outcome (success, failed)
	generationDuration *prometheus.HistogramVec
	// tryOnRequests labels: outcome (error kind or "ok")
	tryOnRequests *prometheus.CounterVec
}

// New registers collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"route", "method", "status"}),
		quotaDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quota",
			Name:      "decisions_total",
			Help:      "Quota check outcomes",
		}, []string{"plan", "result"}),
		imageResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "images",
			Name:      "resolutions_total",
			Help:      "Image reference resolutions by source",
		}, []string{"source", "result"}),
		generationAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "attempts_total",
			Help:      "Calls to the image generation model",
		}, []string{"result"}),
		generationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "End-to-end generation time including retries",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120, 180},
		}, []string{"outcome"}),
		tryOnRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tryon",
			Name:      "requests_total",
			Help:      "Try-on requests by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) QuotaDecision(plan, result string) {
	if m == nil {
		return
	}
	m.quotaDecisions.WithLabelValues(plan, result).Inc()
}

func (m *Metrics) ImageResolved(source, result string) {
	if m == nil {
		return
	}
	m.imageResolutions.WithLabelValues(source, result).Inc()
}

func (m *Metrics) GenerationAttempt(result string) {
	if m == nil {
		return
	}
	m.generationAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) GenerationFinished(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.generationDuration.WithLabelValues(outcome).Observe(took.Seconds())
}

func (m *Metrics) TryOnOutcome(outcome string) {
	if m == nil {
		return
	}
	m.tryOnRequests.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request latency labelled by the matched chi route
// pattern so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
