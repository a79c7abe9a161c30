package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xenn00/chat-service/internal/handlers"
	hub_handler "github.com/xenn00/chat-service/internal/handlers/hub-handler"
	"github.com/xenn00/chat-service/internal/middleware"
	"github.com/xenn00/chat-service/internal/websocket"
)

func HubRouter(r chi.Router, verifier middleware.TokenVerifier, wsHub *websocket.Hub, wsHandler http.Handler) {
	hubHandler := hub_handler.NewHubHandler(wsHub)

	// the gate authenticates the upgrade itself
	r.Handle("/ws", wsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", hubHandler.HandleHealth)

		r.Route("/ws", func(r chi.Router) {
			r.Use(middleware.JWTAuth(verifier))
			r.Use(middleware.RequireAdmin)
			r.Get("/stats", handlers.WrapHandler(hubHandler.HandleGetStats))
			r.Get("/rooms/{roomId}/stats", handlers.WrapHandler(hubHandler.HandleGetRoomStats))
			r.Get("/users/{userId}/connections", handlers.WrapHandler(hubHandler.HandleGetUserConnections))
			r.Post("/users/{userId}/disconnect", handlers.WrapHandler(hubHandler.HandleDisconnectUser))
		})
	})
}
