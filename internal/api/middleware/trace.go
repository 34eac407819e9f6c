// Package middleware provides the HTTP middleware of the account API.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/account-api/internal/api/shared"
	"github.com/phrazzld/account-api/internal/platform/logger"
)

// TraceMiddleware adds a trace ID and a request-scoped logger to the request
// context. A well-formed X-Trace-ID request header is reused; otherwise a new
// ID is generated. The ID is echoed in the response header.
//
// Apply it early in the chain so that every handler and service logs with
// the trace ID via logger.FromContext.
func TraceMiddleware(base *slog.Logger) func(next http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(shared.TraceIDHeader)
			if !shared.IsValidTraceID(traceID) {
				traceID = shared.NewTraceID()
			}

			log := base.With(slog.String("trace_id", traceID))
			ctx := shared.WithTraceID(r.Context(), traceID)
			ctx = logger.WithLogger(ctx, log)

			w.Header().Set(shared.TraceIDHeader, traceID)
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(ww, r.WithContext(ctx))

			log.Info("request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)))
		})
	}
}
