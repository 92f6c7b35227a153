package middleware

import (
	"net/http"
	"strings"

	"github.com/josh-kwaku/audit-validator/internal/auth"
	"github.com/josh-kwaku/audit-validator/internal/handler"
	"github.com/josh-kwaku/audit-validator/internal/logging"
)

// Auth requires a bearer token and stores its claims in the request context.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			claims, err := auth.ValidateToken(token, secret)
			if err != nil {
				logging.FromContext(r.Context()).Info("token rejected", "error", err)
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			annotate(r.Context(), "subject", claims.SubjectID)
			ctx := auth.ContextWithClaims(r.Context(), claims)
			log := logging.FromContext(ctx).With("subject", claims.SubjectID)
			next.ServeHTTP(w, r.WithContext(logging.WithLogger(ctx, log)))
		})
	}
}
