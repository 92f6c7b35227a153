package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/josh-kwaku/audit-validator/internal/handler"
	"github.com/josh-kwaku/audit-validator/internal/logging"
)

// Recovery turns a handler panic into a 500. It sits outside Tracing and
// Logging, so the request ID is read back from the response header and the
// panic line stands in for the access line the request never got.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler {
				panic(p)
			}
			logging.FromContext(r.Context()).Error("panic recovered",
				"request_id", w.Header().Get(requestIDHeader),
				"method", r.Method,
				"path", r.URL.Path,
				"error", p,
				"stack", string(debug.Stack()),
			)
			handler.RespondAppError(w, handler.ErrInternalError, nil)
		}()
		next.ServeHTTP(w, r)
	})
}
