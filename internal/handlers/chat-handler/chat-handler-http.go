package chat_handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/xenn00/chat-service/internal/dtos/chat_dto"
	"github.com/xenn00/chat-service/internal/entity"
	app_error "github.com/xenn00/chat-service/internal/errors"
	"github.com/xenn00/chat-service/internal/handlers"
	"github.com/xenn00/chat-service/internal/middleware"
	chat_service "github.com/xenn00/chat-service/internal/use-case/chat-case"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type ChatHandler struct {
	Validate *validator.Validate
	Service  chat_service.ChatServiceContract
}

func NewChatHandler(service chat_service.ChatServiceContract) *ChatHandler {
	return &ChatHandler{
		Validate: chat_dto.NewValidator(),
		Service:  service,
	}
}

func principalOf(r *http.Request) (*entity.Principal, *app_error.AppError) {
	principal := middleware.PrincipalFrom(r.Context())
	if principal == nil {
		return nil, app_error.Unauthorized("user is not found in context")
	}
	return principal, nil
}

func (h *ChatHandler) decodeSend(r *http.Request) (*chat_dto.SendMessageRequest, *app_error.AppError) {
	var req chat_dto.SendMessageRequest
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, app_error.Validation("Invalid JSON", "body")
	}
	if err := h.Validate.Struct(req); err != nil {
		return nil, app_error.Validation(fmt.Sprintf("Invalid fields: %v", err), "content")
	}
	return &req, nil
}

func (h *ChatHandler) pageQuery(r *http.Request) (chat_dto.PageQuery, *app_error.AppError) {
	var query chat_dto.PageQuery
	page, appErr := handlers.ParseOptionalInt(r.URL.Query().Get("page"), "page")
	if appErr != nil {
		return query, appErr
	}
	size, appErr := handlers.ParseOptionalInt(r.URL.Query().Get("size"), "size")
	if appErr != nil {
		return query, appErr
	}
	query.Page, query.Size = page, size
	if err := h.Validate.Struct(query); err != nil {
		return query, app_error.Validation("page must not be negative", "page")
	}
	return query, nil
}

func respond[T any](w http.ResponseWriter, r *http.Request, status int, message string, data T) {
	handlers.WriteJSON(w, status, handlers.CreateResponse(message, data, middleware.RequestIdFrom(r.Context())))
}

func (h *ChatHandler) ListRooms(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	principal, appErr := principalOf(r)
	if appErr != nil {
		return appErr
	}

	rooms, appErr := h.Service.ListRooms(r.Context(), principal)
	if appErr != nil {
		return appErr
	}

	respond(w, r, http.StatusOK, "rooms fetch successfully", rooms)
	return nil
}

func (h *ChatHandler) CreateRoom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	principal, appErr := principalOf(r)
	if appErr != nil {
		return appErr
	}

	room, appErr := h.Service.CreateSupportRoom(r.Context(), principal)
	if appErr != nil {
		return appErr
	}

	respond(w, r, http.StatusOK, "room ready", room)
	return nil
}

func (h *ChatHandler) GetRoom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	principal, appErr := principalOf(r)
	if appErr != nil {
		return appErr
	}
	roomID, appErr := handlers.ParseID(chi.URLParam(r, "roomId"), "roomId")
	if appErr != nil {
		return appErr
	}

	room, appErr := h.Service.GetRoom(r.Context(), roomID, principal)
	if appErr != nil {
		return appErr
	}

	respond(w, r, http.StatusOK, "room fetch successfully", room)
	return nil
}

func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	principal, appErr := principalOf(r)
	if appErr != nil {
		return appErr
	}
	roomID, appErr := handlers.ParseID(chi.URLParam(r, "roomId"), "roomId")
	if appErr != nil {
		return appErr
	}
	query, appErr := h.pageQuery(r)
	if appErr != nil {
		return appErr
	}

	messages, appErr := h.Service.GetMessages(r.Context(), roomID, query, principal)
	if appErr != nil {
		return appErr
	}

	respond(w, r, http.StatusOK, "messages fetch successfully", messages)
	return nil
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	principal, appErr := principalOf(r)
	if appErr != nil {
		return appErr
	}
	roomID, appErr := handlers.ParseID(chi.URLParam(r, "roomId"), "roomId")
	if appErr != nil {
		return appErr
	}
	req, appErr := h.decodeSend(r)
	if appErr != nil {
		return appErr
	}

	msg, appErr := h.Service.SendMessage(r.Context(), roomID, req.Content, principal)
	if appErr != nil {
		return appErr
	}

	respond(w, r, http.StatusCreated, "message sent successfully", msg)
	return nil
}

func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	principal, appErr := principalOf(r)
	if appErr != nil {
		return appErr
	}
	roomID, appErr := handlers.ParseID(chi.URLParam(r, "roomId"), "roomId")
	if appErr != nil {
		return appErr
	}

	if appErr := h.Service.MarkRoomRead(r.Context(), roomID, principal); appErr != nil {
		return appErr
	}

	respond(w, r, http.StatusOK, "room marked as read successfully", "OK")
	return nil
}

func (h *ChatHandler) GetTripMessages(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	principal, appErr := principalOf(r)
	if appErr != nil {
		return appErr
	}
	tripID, appErr := handlers.ParseID(chi.URLParam(r, "tripId"), "tripId")
	if appErr != nil {
		return appErr
	}
	query, appErr := h.pageQuery(r)
	if appErr != nil {
		return appErr
	}

	messages, appErr := h.Service.GetTripMessages(r.Context(), tripID, query, principal)
	if appErr != nil {
		return appErr
	}

	respond(w, r, http.StatusOK, "trip messages fetch successfully", messages)
	return nil
}

func (h *ChatHandler) SendTripMessage(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	principal, appErr := principalOf(r)
	if appErr != nil {
		return appErr
	}
	tripID, appErr := handlers.ParseID(chi.URLParam(r, "tripId"), "tripId")
	if appErr != nil {
		return appErr
	}
	req, appErr := h.decodeSend(r)
	if appErr != nil {
		return appErr
	}

	msg, appErr := h.Service.SendTripMessage(r.Context(), tripID, req.Content, principal)
	if appErr != nil {
		return appErr
	}

	respond(w, r, http.StatusCreated, "trip message sent successfully", msg)
	return nil
}

func (h *ChatHandler) MarkTripRead(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	principal, appErr := principalOf(r)
	if appErr != nil {
		return appErr
	}
	tripID, appErr := handlers.ParseID(chi.URLParam(r, "tripId"), "tripId")
	if appErr != nil {
		return appErr
	}

	if appErr := h.Service.MarkTripRead(r.Context(), tripID, principal); appErr != nil {
		return appErr
	}

	respond(w, r, http.StatusOK, "trip marked as read successfully", "OK")
	return nil
}
