package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xenn00/chat-service/internal/entity"
	"github.com/xenn00/chat-service/internal/utils"
)

func newVerifier(t *testing.T) *utils.TokenVerifier {
	t.Helper()
	v, err := utils.NewHMACVerifier("bWlkZGxld2FyZS10ZXN0LXNlY3JldC0wMTIzNDU2Nzg5YWJjZGVm")
	require.NoError(t, err)
	return v
}

func protected(t *testing.T, v *utils.TokenVerifier) (http.Handler, **entity.Principal) {
	var seen *entity.Principal
	h := JWTAuth(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	return h, &seen
}

func TestJWTAuth(t *testing.T) {
	v := newVerifier(t)
	h, seen := protected(t, v)

	good, err := v.Issue(entity.Principal{ID: 7, LoginKey: "u7@x.io"}, time.Minute)
	require.NoError(t, err)
	expired, err := v.Issue(entity.Principal{ID: 7, LoginKey: "u7@x.io"}, -time.Minute)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, "Missing Authorization header"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Invalid Authorization header format"},
		{"garbage token", "Bearer abc", http.StatusUnauthorized, "Invalid token"},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, "Token Expired!"},
		{"valid token", "Bearer " + good, http.StatusNoContent, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			*seen = nil
			r := httptest.NewRequest(http.MethodGet, "/api/v1/chat/rooms", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()

			h.ServeHTTP(w, r)

			assert.Equal(t, tc.status, w.Code)
			if tc.body != "" {
				assert.Contains(t, w.Body.String(), tc.body)
				assert.Nil(t, *seen)
			} else {
				require.NotNil(t, *seen)
				assert.Equal(t, int64(7), (*seen).ID)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithPrincipal(r.Context(), &entity.Principal{ID: 1, UserType: "USER"}))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithPrincipal(r.Context(), &entity.Principal{ID: 1, UserType: "Admin"}))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWithRequestId(t *testing.T) {
	var got string
	h := WithRequestId(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = RequestIdFrom(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(got)
	assert.NoError(t, err)
	assert.Equal(t, got, w.Header().Get("X-Request-ID"))

	incoming := uuid.NewString()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", incoming)
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, incoming, got)

	assert.Equal(t, "unknown", RequestIdFrom(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
