package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/FACorreiaa/go-user-accounts/internal/api"
)

// Define typed context keys
type contextKey string

const UserIDKey contextKey = "userID"

// Authenticate is middleware to validate bearer access tokens. On success the
// verified user ID is attached to the request context; nothing else about the
// request is mutated.
//
// Expired and malformed tokens are deliberately collapsed into one 401
// message so callers cannot probe expiry timing; the distinction is kept in
// the server-side logs.
func Authenticate(logger *slog.Logger, tokens *TokenService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				l.WarnContext(ctx, "Missing Authorization header")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header required")
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				l.WarnContext(ctx, "Invalid Authorization header format")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
				return
			}
			tokenString := headerParts[1]

			userID, err := tokens.Verify(tokenString)
			if err != nil {
				switch {
				case errors.Is(err, ErrTokenExpired), errors.Is(err, ErrTokenMalformed):
					l.WarnContext(ctx, "Token verification failed", slog.Any("error", err))
					api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid or expired token")
				default:
					l.ErrorContext(ctx, "Unexpected token verification fault", slog.Any("error", err))
					api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
				}
				return
			}

			ctx = context.WithValue(ctx, UserIDKey, userID)
			l.DebugContext(ctx, "Authentication successful", slog.String("userID", userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext returns the verified user ID attached by Authenticate.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}
