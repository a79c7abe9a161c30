package chat_repo

import (
	"context"
	"time"

	"github.com/xenn00/chat-service/internal/entity"
	app_error "github.com/xenn00/chat-service/internal/errors"
)

type RoomRepoContract interface {
	FindRoomByID(ctx context.Context, roomID int64) (*entity.ChatRoom, *app_error.AppError)
	FindSupportRoomByUser(ctx context.Context, userID int64) (*entity.ChatRoom, *app_error.AppError)
	ListSupportRooms(ctx context.Context) ([]*entity.ChatRoom, *app_error.AppError)
	CreateSupportRoom(ctx context.Context, userID int64, now time.Time) (*entity.ChatRoom, *app_error.AppError)
	FindTripRoom(ctx context.Context, tripID int64) (*entity.ChatRoom, *app_error.AppError)
	GetOrCreateTripRoom(ctx context.Context, tripID int64, now time.Time) (*entity.ChatRoom, *app_error.AppError)
}

type MessageRepoContract interface {
	AppendMessage(ctx context.Context, msg *entity.ChatMessage) *app_error.AppError
	PageMessages(ctx context.Context, roomID int64, page, size int) ([]*entity.ChatMessage, *app_error.AppError)
	RoomHistory(ctx context.Context, roomID int64) ([]*entity.ChatMessage, *app_error.AppError)
}

type ReadRepoContract interface {
	MarkRead(ctx context.Context, roomID, userID int64, at time.Time) *app_error.AppError
	FindWatermark(ctx context.Context, roomID, userID int64) (*entity.ChatRoomRead, *app_error.AppError)
	CountUnread(ctx context.Context, roomID, userID int64) (int64, *app_error.AppError)
}

type ChatRepoContract interface {
	RoomRepoContract
	MessageRepoContract
	ReadRepoContract
}
