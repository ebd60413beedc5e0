package middleware

import (
	"log/slog"
	"net/http"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/api/shared"
)

// TraceMiddleware attaches a trace ID to every request context and logs
// the request start. Apply it early so all handlers see the ID.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())

		slog.Debug("request started",
			slog.String("trace_id", shared.GetTraceID(ctx)),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
