package middleware

import (
	"context"
	"net/http"
	"strings"

	"chatroom/internal/usecase"
)

type contextKey string

// claimsKey stores the verified token claims on the request context.
const claimsKey contextKey = "claims"

// RequireAuth rejects requests without a valid bearer token and passes
// the verified claims down through the request context.
func RequireAuth(tokens *usecase.TokenManager, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// ClaimsFrom returns the claims attached by RequireAuth, if any.
func ClaimsFrom(ctx context.Context) (*usecase.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*usecase.Claims)
	return claims, ok
}
