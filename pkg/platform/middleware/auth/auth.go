// Package auth provides the bearer-token middleware. Validated user IDs go
// into the request context via requestcontext so handlers never parse
// tokens themselves.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "goalplan/pkg/domain"
	dErrors "goalplan/pkg/domain-errors"
	"goalplan/pkg/platform/httputil"
	"goalplan/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the user it belongs
// to. The jwtauth service satisfies this.
type TokenValidator interface {
	ExtractUserID(tokenString string) (id.UserID, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated user ID in the context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			userID, err := validator.ExtractUserID(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized request",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithUserID(ctx, userID)))
		})
	}
}
