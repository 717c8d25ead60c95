package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trainops/tmc-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the review API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	transitionTotal *prometheus.CounterVec
	rejectedTotal   *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	transitionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "demo_review_transitions_total",
		Help: "Accepted demo lifecycle transitions",
	}, []string{"action", "to_state"})

	rejectedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "demo_review_rejections_total",
		Help: "Review attempts rejected by transition guards",
	}, []string{"reason"})

	registry.MustRegister(requestDuration, requestTotal, transitionTotal, rejectedTotal)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		transitionTotal: transitionTotal,
		rejectedTotal:   rejectedTotal,
	}
}

// Handler exposes the /metrics endpoint handler.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	code := fmt.Sprintf("%d", status)
	s.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveTransition records one accepted lifecycle transition.
func (s *MetricsService) ObserveTransition(action models.ReviewAction, toState models.LifecycleState) {
	s.transitionTotal.WithLabelValues(string(action), string(toState)).Inc()
}

// ObserveGuardRejection records a guard-rejected review attempt.
func (s *MetricsService) ObserveGuardRejection(reason string) {
	s.rejectedTotal.WithLabelValues(reason).Inc()
}
