package websocket

import (
	"errors"
	"net/http"
	"strings"

	"github.com/xenn00/chat-service/internal/entity"
	app_error "github.com/xenn00/chat-service/internal/errors"
	"github.com/xenn00/chat-service/internal/utils"
)

// Verifier checks a bearer token and returns the principal it carries.
type Verifier interface {
	Verify(token string) (*entity.Principal, error)
}

// Authenticate runs once per connection, before the upgrade.
func Authenticate(verifier Verifier, r *http.Request) (*entity.Principal, *app_error.AppError) {
	token := getTokenFromRequest(r)
	if token == "" {
		return nil, app_error.Unauthorized("missing authorization token")
	}

	principal, err := verifier.Verify(token)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			// handshake cannot refresh tokens; the client refreshes over HTTP and reconnects
			return nil, app_error.Unauthorized("token expired, please refresh and reconnect")
		}
		return nil, app_error.Unauthorized("invalid authorization token")
	}
	return principal, nil
}

func getTokenFromRequest(r *http.Request) string {
	// Option 1: Authorization header
	if token := stripBearer(r.Header.Get("Authorization")); token != "" {
		return token
	}

	// Option 2: token header
	if token := stripBearer(r.Header.Get("token")); token != "" {
		return token
	}

	// Option 3: query parameter, browsers cannot set headers on the handshake
	if token := stripBearer(r.URL.Query().Get("token")); token != "" {
		return token
	}

	// Option 4: cookie
	if cookie, err := r.Cookie("access_token"); err == nil {
		return stripBearer(cookie.Value)
	}

	return ""
}

func stripBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		v = strings.TrimSpace(v[7:])
	}
	return v
}
