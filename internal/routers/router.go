package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/xenn00/chat-service/internal/middleware"
	chat_service "github.com/xenn00/chat-service/internal/use-case/chat-case"
	"github.com/xenn00/chat-service/internal/websocket"
)

type RouterDeps struct {
	Verifier       middleware.TokenVerifier
	Service        chat_service.ChatServiceContract
	Hub            *websocket.Hub
	WSHandler      http.Handler
	AllowedOrigins []string
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithRequestId)
	r.Use(middleware.RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins(deps.AllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	ChatRouter(r, deps.Verifier, deps.Service)
	HubRouter(r, deps.Verifier, deps.Hub, deps.WSHandler)
	return r
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
