package hub_handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	app_error "github.com/xenn00/chat-service/internal/errors"
	"github.com/xenn00/chat-service/internal/handlers"
	"github.com/xenn00/chat-service/internal/middleware"
	"github.com/xenn00/chat-service/internal/websocket"
)

type HubHandler struct {
	Hub *websocket.Hub
}

func NewHubHandler(hub *websocket.Hub) *HubHandler {
	return &HubHandler{
		Hub: hub,
	}
}

func (h *HubHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "chat-service",
		"clients":   h.Hub.ClientCount(),
	})
}

func (h *HubHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	stats := h.Hub.GetHubStats()
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("get websocket stats", stats, middleware.RequestIdFrom(r.Context())))
	return nil
}

func (h *HubHandler) HandleGetRoomStats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID, appErr := handlers.ParseID(chi.URLParam(r, "roomId"), "roomId")
	if appErr != nil {
		return appErr
	}

	stats := h.Hub.GetTopicStats(websocket.RoomTopic(roomID))
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("get websocket room stats", stats, middleware.RequestIdFrom(r.Context())))
	return nil
}

type ConnectionInfo struct {
	ClientID string    `json:"client_id"`
	Topics   []string  `json:"topics"`
	LastSeen time.Time `json:"last_seen"`
	IsActive bool      `json:"is_active"`
}

func (h *HubHandler) HandleGetUserConnections(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, appErr := handlers.ParseID(chi.URLParam(r, "userId"), "userId")
	if appErr != nil {
		return appErr
	}

	connections := []ConnectionInfo{}
	for _, client := range h.Hub.GetUserClients(userID) {
		topics := make([]string, 0)
		for topic := range client.Topics() {
			topics = append(topics, topic)
		}
		connections = append(connections, ConnectionInfo{
			ClientID: client.ID,
			Topics:   topics,
			LastSeen: client.GetLastSeen(),
			IsActive: client.IsClientActive(),
		})
	}

	resp := map[string]any{
		"user_id":     userID,
		"count":       len(connections),
		"connections": connections,
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("successfully get user connection", resp, middleware.RequestIdFrom(r.Context())))
	return nil
}

func (h *HubHandler) HandleDisconnectUser(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID, appErr := handlers.ParseID(chi.URLParam(r, "userId"), "userId")
	if appErr != nil {
		return appErr
	}

	disconnected := h.Hub.DisconnectUser(userID)

	resp := map[string]any{
		"status":               "success",
		"disconnected_clients": disconnected,
		"user_id":              userID,
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("successfully disconnect user", resp, middleware.RequestIdFrom(r.Context())))
	return nil
}
