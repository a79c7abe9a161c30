package chat_service

import (
	"context"

	"github.com/xenn00/chat-service/internal/dtos/chat_dto"
	"github.com/xenn00/chat-service/internal/entity"
	app_error "github.com/xenn00/chat-service/internal/errors"
)

type ChatServiceContract interface {
	ListRooms(ctx context.Context, principal *entity.Principal) ([]chat_dto.ChatRoomResponse, *app_error.AppError)
	GetRoom(ctx context.Context, roomID int64, principal *entity.Principal) (*chat_dto.ChatRoomResponse, *app_error.AppError)
	CreateSupportRoom(ctx context.Context, principal *entity.Principal) (*chat_dto.ChatRoomResponse, *app_error.AppError)

	GetMessages(ctx context.Context, roomID int64, query chat_dto.PageQuery, principal *entity.Principal) ([]chat_dto.ChatMessageResponse, *app_error.AppError)
	SendMessage(ctx context.Context, roomID int64, content string, principal *entity.Principal) (*chat_dto.ChatMessageResponse, *app_error.AppError)
	MarkRoomRead(ctx context.Context, roomID int64, principal *entity.Principal) *app_error.AppError

	GetTripMessages(ctx context.Context, tripID int64, query chat_dto.PageQuery, principal *entity.Principal) ([]chat_dto.ChatMessageResponse, *app_error.AppError)
	SendTripMessage(ctx context.Context, tripID int64, content string, principal *entity.Principal) (*chat_dto.ChatMessageResponse, *app_error.AppError)
	MarkTripRead(ctx context.Context, tripID int64, principal *entity.Principal) *app_error.AppError

	// AuthorizeRoom and AuthorizeTrip resolve and check a room for a live subscription.
	AuthorizeRoom(ctx context.Context, roomID int64, principal *entity.Principal) (*entity.ChatRoom, *app_error.AppError)
	AuthorizeTrip(ctx context.Context, tripID int64, principal *entity.Principal) (*entity.ChatRoom, *app_error.AppError)
}

// Broadcaster fans a stored message out to the room's live subscribers.
// Publish must not block on subscribers and never fails the caller.
type Broadcaster interface {
	Publish(ctx context.Context, roomID int64, msg *chat_dto.ChatMessageResponse)
}

type noopBroadcaster struct{}

func (noopBroadcaster) Publish(context.Context, int64, *chat_dto.ChatMessageResponse) {}
