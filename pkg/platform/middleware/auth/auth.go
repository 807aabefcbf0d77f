package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"namedex/pkg/platform/httputil"
)

type contextKeySubject struct{}

// ContextKeySubject is exported for use in handlers.
var ContextKeySubject = contextKeySubject{}

// Subject retrieves the authenticated token subject from the context.
func Subject(ctx context.Context) string {
	subject, ok := ctx.Value(ContextKeySubject).(string)
	if !ok {
		return ""
	}
	return subject
}

// RequireAdmin validates an HS256 bearer token on admin routes. The token
// subject lands in the request context for audit logging.
func RequireAdmin(signingKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	keyFunc := func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return []byte(signingKey), nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			token, err := jwt.ParseWithClaims(
				strings.TrimPrefix(authHeader, bearerPrefix),
				&jwt.RegisteredClaims{},
				keyFunc,
				jwt.WithValidMethods([]string{"HS256"}),
			)
			if err != nil || !token.Valid {
				logger.WarnContext(r.Context(), "rejected admin token", "error", err)
				httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}

			claims := token.Claims.(*jwt.RegisteredClaims)
			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
