package chat_service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-service/internal/dtos/chat_dto"
	"github.com/xenn00/chat-service/internal/entity"
	app_error "github.com/xenn00/chat-service/internal/errors"
	chat_repo "github.com/xenn00/chat-service/internal/repo/chat"
	"github.com/xenn00/chat-service/internal/upstream"
	"github.com/xenn00/chat-service/state"
)

const defaultMaxPageSize = 200

type ChatService struct {
	AppState    *state.AppState
	ChatRepo    chat_repo.ChatRepoContract
	Policy      *AccessPolicy
	Profiles    upstream.ProfileLookup
	Broadcaster Broadcaster
	MaxPageSize int
	Now         func() time.Time
}

func NewChatService(appState *state.AppState, broadcaster Broadcaster, maxPageSize int) *ChatService {
	if broadcaster == nil {
		broadcaster = noopBroadcaster{}
	}
	return &ChatService{
		AppState:    appState,
		ChatRepo:    chat_repo.NewChatRepo(appState),
		Policy:      NewAccessPolicy(appState.Roster),
		Profiles:    appState.Profiles,
		Broadcaster: broadcaster,
		MaxPageSize: maxPageSize,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

func (c *ChatService) now() time.Time {
	if c.Now == nil {
		return time.Now().UTC()
	}
	return c.Now().UTC()
}

func requirePrincipal(principal *entity.Principal) *app_error.AppError {
	if principal == nil || principal.ID <= 0 {
		return app_error.Unauthorized("authentication required")
	}
	return nil
}

func (c *ChatService) ListRooms(ctx context.Context, principal *entity.Principal) ([]chat_dto.ChatRoomResponse, *app_error.AppError) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}

	var rooms []*entity.ChatRoom
	if principal.IsAdmin() {
		all, err := c.ChatRepo.ListSupportRooms(ctx)
		if err != nil {
			return nil, err
		}
		rooms = all
	} else {
		room, err := c.ChatRepo.FindSupportRoomByUser(ctx, principal.ID)
		switch {
		case err == nil:
			rooms = []*entity.ChatRoom{room}
		case app_error.Is(err, http.StatusNotFound):
			rooms = nil
		default:
			return nil, err
		}
	}

	return c.describeRooms(ctx, rooms, principal)
}

func (c *ChatService) GetRoom(ctx context.Context, roomID int64, principal *entity.Principal) (*chat_dto.ChatRoomResponse, *app_error.AppError) {
	room, err := c.AuthorizeRoom(ctx, roomID, principal)
	if err != nil {
		return nil, err
	}

	history, err := c.ChatRepo.RoomHistory(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	resp, err := c.describeRoom(ctx, room, principal)
	if err != nil {
		return nil, err
	}
	resp.Messages = toMessageResponses(history, room.TripID())
	return resp, nil
}

// CreateSupportRoom returns the caller's support room, creating it on first use.
func (c *ChatService) CreateSupportRoom(ctx context.Context, principal *entity.Principal) (*chat_dto.ChatRoomResponse, *app_error.AppError) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	if principal.IsAdmin() {
		return nil, app_error.Validation("Admins cannot create a support room", "role")
	}

	room, err := c.ChatRepo.CreateSupportRoom(ctx, principal.ID, c.now())
	if err != nil {
		return nil, err
	}
	return c.GetRoom(ctx, room.ID, principal)
}

func (c *ChatService) GetMessages(ctx context.Context, roomID int64, query chat_dto.PageQuery, principal *entity.Principal) ([]chat_dto.ChatMessageResponse, *app_error.AppError) {
	page, size, err := c.normalizePage(query)
	if err != nil {
		return nil, err
	}

	room, err := c.AuthorizeRoom(ctx, roomID, principal)
	if err != nil {
		return nil, err
	}

	messages, err := c.ChatRepo.PageMessages(ctx, room.ID, page, size)
	if err != nil {
		return nil, err
	}
	return toMessageResponses(messages, room.TripID()), nil
}

func (c *ChatService) SendMessage(ctx context.Context, roomID int64, content string, principal *entity.Principal) (*chat_dto.ChatMessageResponse, *app_error.AppError) {
	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}

	room, err := c.AuthorizeRoom(ctx, roomID, principal)
	if err != nil {
		return nil, err
	}
	return c.appendAndPublish(ctx, room, content, principal)
}

func (c *ChatService) MarkRoomRead(ctx context.Context, roomID int64, principal *entity.Principal) *app_error.AppError {
	room, err := c.AuthorizeRoom(ctx, roomID, principal)
	if err != nil {
		return err
	}
	return c.ChatRepo.MarkRead(ctx, room.ID, principal.ID, c.now())
}

func (c *ChatService) GetTripMessages(ctx context.Context, tripID int64, query chat_dto.PageQuery, principal *entity.Principal) ([]chat_dto.ChatMessageResponse, *app_error.AppError) {
	page, size, err := c.normalizePage(query)
	if err != nil {
		return nil, err
	}

	room, err := c.AuthorizeTrip(ctx, tripID, principal)
	if err != nil {
		return nil, err
	}

	messages, err := c.ChatRepo.PageMessages(ctx, room.ID, page, size)
	if err != nil {
		return nil, err
	}
	return toMessageResponses(messages, tripID), nil
}

func (c *ChatService) SendTripMessage(ctx context.Context, tripID int64, content string, principal *entity.Principal) (*chat_dto.ChatMessageResponse, *app_error.AppError) {
	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}

	room, err := c.AuthorizeTrip(ctx, tripID, principal)
	if err != nil {
		return nil, err
	}
	return c.appendAndPublish(ctx, room, content, principal)
}

func (c *ChatService) MarkTripRead(ctx context.Context, tripID int64, principal *entity.Principal) *app_error.AppError {
	room, err := c.AuthorizeTrip(ctx, tripID, principal)
	if err != nil {
		return err
	}
	return c.ChatRepo.MarkRead(ctx, room.ID, principal.ID, c.now())
}

// AuthorizeRoom loads the room and applies the access policy. Missing rooms
// are reported before access is checked.
func (c *ChatService) AuthorizeRoom(ctx context.Context, roomID int64, principal *entity.Principal) (*entity.ChatRoom, *app_error.AppError) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	if roomID <= 0 {
		return nil, app_error.Validation("chat room id must be positive", "roomId")
	}

	room, err := c.ChatRepo.FindRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := c.Policy.Authorize(ctx, room, principal); err != nil {
		return nil, err
	}
	return room, nil
}

// AuthorizeTrip checks membership first and only then provisions the room,
// so outsiders never create trip rooms.
func (c *ChatService) AuthorizeTrip(ctx context.Context, tripID int64, principal *entity.Principal) (*entity.ChatRoom, *app_error.AppError) {
	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	if err := c.Policy.RequireTripMembership(ctx, tripID, principal); err != nil {
		return nil, err
	}
	return c.ChatRepo.GetOrCreateTripRoom(ctx, tripID, c.now())
}

func (c *ChatService) appendAndPublish(ctx context.Context, room *entity.ChatRoom, content string, principal *entity.Principal) (*chat_dto.ChatMessageResponse, *app_error.AppError) {
	msg := &entity.ChatMessage{
		ChatRoomID:        room.ID,
		SenderID:          principal.ID,
		SenderRole:        principal.Role(),
		SenderDisplayName: principal.DisplayName(),
		Content:           content,
		CreatedAt:         c.now(),
	}
	if err := c.ChatRepo.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	resp := toMessageResponse(msg, room.TripID())
	log.Debug().Int64("roomID", room.ID).Int64("messageID", msg.ID).Int64("senderID", msg.SenderID).Msg("message stored")

	if c.Broadcaster != nil {
		out := resp
		c.Broadcaster.Publish(ctx, room.ID, &out)
	}
	return &resp, nil
}

func (c *ChatService) normalizePage(query chat_dto.PageQuery) (int, int, *app_error.AppError) {
	if query.Page < 0 {
		return 0, 0, app_error.Validation("page must not be negative", "page")
	}
	size := query.Size
	if size <= 0 {
		size = chat_dto.DefaultPageSize
	}
	maxSize := c.MaxPageSize
	if maxSize <= 0 {
		maxSize = defaultMaxPageSize
	}
	if size > maxSize {
		size = maxSize
	}
	return query.Page, size, nil
}

func normalizeContent(content string) (string, *app_error.AppError) {
	if strings.TrimSpace(content) == "" {
		return "", app_error.Validation("Message content is required", "content")
	}
	if len([]rune(content)) > chat_dto.MaxContentLength {
		return "", app_error.Validation("Message content is too long", "content")
	}
	return content, nil
}
