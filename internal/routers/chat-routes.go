package routers

import (
	"github.com/go-chi/chi/v5"
	"github.com/xenn00/chat-service/internal/handlers"
	chat_handler "github.com/xenn00/chat-service/internal/handlers/chat-handler"
	"github.com/xenn00/chat-service/internal/middleware"
	chat_service "github.com/xenn00/chat-service/internal/use-case/chat-case"
)

func ChatRouter(r chi.Router, verifier middleware.TokenVerifier, service chat_service.ChatServiceContract) {
	chatHandler := chat_handler.NewChatHandler(service)
	r.Group(func(protected chi.Router) {
		protected.Use(middleware.JWTAuth(verifier))
		protected.Route("/api/v1/chat", func(r chi.Router) {
			r.Get("/rooms", handlers.WrapHandler(chatHandler.ListRooms))
			r.Post("/rooms", handlers.WrapHandler(chatHandler.CreateRoom))
			r.Get("/rooms/{roomId}", handlers.WrapHandler(chatHandler.GetRoom))
			r.Get("/rooms/{roomId}/messages", handlers.WrapHandler(chatHandler.GetMessages))
			r.Post("/rooms/{roomId}/messages", handlers.WrapHandler(chatHandler.SendMessage))
			r.Post("/rooms/{roomId}/read", handlers.WrapHandler(chatHandler.MarkRead))

			r.Get("/trips/{tripId}/messages", handlers.WrapHandler(chatHandler.GetTripMessages))
			r.Post("/trips/{tripId}/messages", handlers.WrapHandler(chatHandler.SendTripMessage))
			r.Post("/trips/{tripId}/read", handlers.WrapHandler(chatHandler.MarkTripRead))
		})
	})
}
