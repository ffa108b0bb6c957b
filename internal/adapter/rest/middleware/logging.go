package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"
	"github.com/ElHadji11/farmconnect-backend/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Observe logs every request, records request metrics and opens a span per
// request. Route patterns (not raw paths) are used as metric labels to keep
// cardinality bounded.
func Observe(appLogger *logger.Logger, mm *metrics.MetricsManager) func(http.Handler) http.Handler {
	log := appLogger.Named("HTTP")
	tracer := otel.Tracer("rest")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path)
			defer span.End()

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// The route pattern is only known after routing ran.
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			status := ww.Status()
			duration := time.Since(start)

			mm.HTTPRequestsTotal.WithLabelValues(r.Method, route).Inc()
			mm.HTTPRequestLatency.WithLabelValues(r.Method, route).Observe(duration.Seconds())
			if status >= 400 {
				mm.HTTPErrorsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
			}

			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.Int("http.status_code", status),
			)

			log.Info("Request handled",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("duration", duration),
				zap.String("remote_addr", r.RemoteAddr))
		})
	}
}
