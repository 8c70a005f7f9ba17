package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"content-token-platform/internal/infra/logging"

	"github.com/golang-jwt/jwt/v5"
)

type authCtxKey string

const userIDKey authCtxKey = "auth_user_id"

// UserIDFrom returns the authenticated user id placed by Auth.
func UserIDFrom(ctx context.Context) string {
	if v := ctx.Value(userIDKey); v != nil {
		return v.(string)
	}
	return ""
}

type userClaims struct {
	jwt.RegisteredClaims
}

// Auth verifies the upstream-issued HS256 bearer token and stores the
// subject as the request's user id. Tokens are minted by the main web
// app; this service only checks the signature and extracts "sub".
func Auth(secret string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == "" || raw == r.Header.Get("Authorization") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			claims := &userClaims{}
			_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil || claims.Subject == "" {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
			ctx = logging.WithUserID(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
