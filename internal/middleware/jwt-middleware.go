package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-service/internal/entity"
	app_error "github.com/xenn00/chat-service/internal/errors"
	"github.com/xenn00/chat-service/internal/utils"
)

type principalKey string

const PrincipalKey principalKey = "principal"

type TokenVerifier interface {
	Verify(token string) (*entity.Principal, error)
}

// JWTAuth verifies the bearer token of every request and stores the principal
// in the request context.
func JWTAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAppError(w, app_error.Unauthorized("Missing Authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeAppError(w, app_error.Unauthorized("Invalid Authorization header format"))
				return
			}

			principal, err := verifier.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					writeAppError(w, app_error.Unauthorized("Token Expired!"))
					return
				}
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("jwt verify failed")
				writeAppError(w, app_error.Unauthorized("Invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after JWTAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := PrincipalFrom(r.Context())
		if principal == nil {
			writeAppError(w, app_error.Unauthorized("authentication required"))
			return
		}
		if !principal.IsAdmin() {
			writeAppError(w, app_error.Forbidden("admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func PrincipalFrom(ctx context.Context) *entity.Principal {
	principal, _ := ctx.Value(PrincipalKey).(*entity.Principal)
	return principal
}

func WithPrincipal(ctx context.Context, principal *entity.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}

func writeAppError(w http.ResponseWriter, appErr *app_error.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code)
	_ = appErr.JSON(w)
}
