package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
	"github.com/boddenberg/eyecare-bfa-go/internal/infra/observability"
	"github.com/boddenberg/eyecare-bfa-go/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const currentUserKey contextKey = "currentUser"

// JWTAuthMiddleware validates Bearer tokens and injects the staff member into context.
func JWTAuthMiddleware(authSvc *service.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("auth: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			claims, err := authSvc.ValidateAccessToken(parts[1])
			if err != nil {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			user := claims.CurrentUser()
			observability.SetStaff(r.Context(), user.Username)
			ctx := context.WithValue(r.Context(), currentUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentUserFromContext extracts the authenticated staff member from context.
func CurrentUserFromContext(ctx context.Context) domain.CurrentUser {
	u, _ := ctx.Value(currentUserKey).(domain.CurrentUser)
	return u
}
