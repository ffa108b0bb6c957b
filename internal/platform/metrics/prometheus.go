package metrics

import (
	"net/http"

	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds custom Prometheus metrics for the marketplace API.
type MetricsManager struct {
	Registry             *prometheus.Registry
	PostsCreatedTotal    prometheus.Counter
	PostsArchivedTotal   prometheus.Counter
	ReviewsAddedTotal    prometheus.Counter
	FavoritesAddedTotal  prometheus.Counter
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPErrorsTotal      *prometheus.CounterVec
	HTTPRequestLatency   *prometheus.HistogramVec
}

// NewMetricsManager initializes and registers the custom metrics on a
// dedicated registry.
func NewMetricsManager(serviceName string) *MetricsManager {
	registry := prometheus.NewRegistry()

	postsCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "posts_created_total",
		Help:      "Total number of posts created.",
	})
	postsArchivedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "posts_archived_total",
		Help:      "Total number of posts archived.",
	})
	reviewsAddedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "reviews_added_total",
		Help:      "Total number of reviews appended to posts.",
	})
	favoritesAddedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "favorites_added_total",
		Help:      "Total number of posts added to favorites.",
	})
	httpRequestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by method and route.",
	}, []string{"method", "route"})
	httpErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "http_errors_total",
		Help:      "Total number of HTTP error responses by route and status code.",
	}, []string{"route", "status"})
	httpRequestLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: serviceName,
		Name:      "http_request_latency_seconds",
		Help:      "Latency of HTTP requests by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	registry.MustRegister(
		postsCreatedTotal,
		postsArchivedTotal,
		reviewsAddedTotal,
		favoritesAddedTotal,
		httpRequestsTotal,
		httpErrorsTotal,
		httpRequestLatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &MetricsManager{
		Registry:            registry,
		PostsCreatedTotal:   postsCreatedTotal,
		PostsArchivedTotal:  postsArchivedTotal,
		ReviewsAddedTotal:   reviewsAddedTotal,
		FavoritesAddedTotal: favoritesAddedTotal,
		HTTPRequestsTotal:   httpRequestsTotal,
		HTTPErrorsTotal:     httpErrorsTotal,
		HTTPRequestLatency:  httpRequestLatency,
	}
}

// StartMetricsServer starts an HTTP server exposing /metrics for the given
// registry. It blocks, so call it from its own goroutine.
func StartMetricsServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("Prometheus metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	return server.ListenAndServe()
}
