package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/josh-kwaku/audit-validator/internal/logging"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type accessLogKey struct{}

// accessLog collects attributes that inner middleware learns about the
// request, such as the authenticated subject.
type accessLog struct {
	attrs []any
}

func annotate(ctx context.Context, args ...any) {
	if l, ok := ctx.Value(accessLogKey{}).(*accessLog); ok {
		l.attrs = append(l.attrs, args...)
	}
}

// Logging installs a request-scoped logger tagged with the request ID and
// logs one line per completed request. Health checks are not logged.
func Logging(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/ready" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			logger := base.With("request_id", TraceIDFromContext(r.Context()))
			access := &accessLog{}
			ctx := context.WithValue(r.Context(), accessLogKey{}, access)
			r = r.WithContext(logging.WithLogger(ctx, logger))

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			attrs := append([]any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"bytes_in", r.ContentLength,
				"duration_ms", time.Since(start).Milliseconds(),
			}, access.attrs...)
			logger.Info("request completed", attrs...)
		})
	}
}
