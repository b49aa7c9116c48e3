package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	"uiforge/internal/metrics"
	"uiforge/internal/registry"
)

type ctxKey int

const docKey ctxKey = iota

// LoggingMiddleware logs every request and counts it by route pattern.
func LoggingMiddleware(logger *zap.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			if m != nil {
				m.Request(route, status)
			}
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

// GzipMiddleware compresses responses for clients that accept gzip.
func GzipMiddleware(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

// WithDocument opens the document named by the {doc} URL parameter and
// holds it in use for the duration of the request.
func WithDocument(reg *registry.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := chi.URLParam(r, "doc")
			h, err := reg.Acquire(r.Context(), name)
			if err != nil {
				switch {
				case errors.Is(err, registry.ErrInvalidName):
					writeError(w, http.StatusBadRequest, "invalid document name", err)
				case errors.Is(err, registry.ErrClosed):
					writeError(w, http.StatusServiceUnavailable, "shutting down", err)
				default:
					writeError(w, http.StatusInternalServerError, "failed to open document", err)
				}
				return
			}
			defer reg.Release(h)

			ctx := context.WithValue(r.Context(), docKey, h)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DocumentFromContext returns the document opened by WithDocument.
func DocumentFromContext(ctx context.Context) *registry.Handle {
	h, _ := ctx.Value(docKey).(*registry.Handle)
	return h
}
