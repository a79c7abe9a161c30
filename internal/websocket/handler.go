package websocket

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	app_error "github.com/xenn00/chat-service/internal/errors"
)

type WebSocketHandler struct {
	hub            *Hub
	verifier       Verifier
	ops            ChatOperations
	upgrader       websocket.Upgrader
	allowedOrigins []string
	maxConnections int
}

func NewWebSocketHandler(hub *Hub, verifier Verifier, ops ChatOperations, allowedOrigins []string, maxConnections int) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:            hub,
		verifier:       verifier,
		ops:            ops,
		allowedOrigins: allowedOrigins,
		maxConnections: maxConnections,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin accepts requests without an Origin header (non-browser clients).
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimRight(allowed, "/"), origin) {
			return true
		}
	}
	return false
}

// ServeHTTP is the connection gate: no upgrade happens without a valid token.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientIP := getClientIP(r)

	principal, appErr := Authenticate(h.verifier, r)
	if appErr != nil {
		log.Warn().Str("ip", clientIP).Str("reason", appErr.Message).Msg("ws: handshake rejected")
		writeError(w, appErr)
		return
	}

	if h.maxConnections > 0 && h.hub.ClientCount() >= h.maxConnections {
		log.Warn().Str("ip", clientIP).Int("max", h.maxConnections).Msg("ws: connection limit reached")
		writeError(w, app_error.NewAppError(http.StatusServiceUnavailable, "too many connections", "ws"))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		log.Error().Err(err).Str("ip", clientIP).Msg("ws: upgrade failed")
		return
	}

	client := NewClient(conn, h.hub, h.ops, *principal)
	h.hub.Register(client)
}

func writeError(w http.ResponseWriter, appErr *app_error.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code)
	_ = appErr.JSON(w)
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
