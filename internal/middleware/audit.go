package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"vaxpulse/internal/infrastructure"
)

// AuditLog records requests that replace the active dataset. Entries carry
// the request ID, client address and outcome so a swap can be traced back.
func AuditLog(logger *slog.Logger) func(next http.Handler) http.Handler {
	logger = infrastructure.ComponentLogger(logger, "audit")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			logger.InfoContext(ctx, "audit log",
				"event_type", "dataset_change",
				"request_id", GetReqID(ctx),
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"content_length", r.ContentLength,
			)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.InfoContext(ctx, "audit log complete",
				"event_type", "dataset_change_result",
				"request_id", GetReqID(ctx),
				"path", r.URL.Path,
				"status", status,
				"accepted", status < http.StatusBadRequest,
				"duration", time.Since(start).String(),
			)
		})
	}
}
