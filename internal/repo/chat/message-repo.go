package chat_repo

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-service/internal/entity"
	app_error "github.com/xenn00/chat-service/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AppendMessage stores msg and moves the room's updated_at to the message time
// in the same transaction.
func (r *ChatRepo) AppendMessage(ctx context.Context, msg *entity.ChatMessage) *app_error.AppError {
	err := r.AppState.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&entity.ChatRoom{}).
			Where("id = ?", msg.ChatRoomID).
			UpdateColumn("updated_at", msg.CreatedAt).Error
	})
	if err != nil {
		log.Error().Err(err).Int64("roomID", msg.ChatRoomID).Msg("failed to append message")
		return app_error.Internal("failed to save message", "db-error")
	}
	return nil
}

// PageMessages returns page (0-based) of size messages, oldest first.
func (r *ChatRepo) PageMessages(ctx context.Context, roomID int64, page, size int) ([]*entity.ChatMessage, *app_error.AppError) {
	var messages []*entity.ChatMessage
	err := r.AppState.DB.WithContext(ctx).
		Where("chat_room_id = ?", roomID).
		Order("created_at ASC").Order("id ASC").
		Offset(page * size).Limit(size).
		Find(&messages).Error
	if err != nil {
		log.Error().Err(err).Int64("roomID", roomID).Msg("failed to page messages")
		return nil, app_error.Internal("failed to fetch messages", "db-error")
	}
	return messages, nil
}

func (r *ChatRepo) RoomHistory(ctx context.Context, roomID int64) ([]*entity.ChatMessage, *app_error.AppError) {
	var messages []*entity.ChatMessage
	err := r.AppState.DB.WithContext(ctx).
		Where("chat_room_id = ?", roomID).
		Order("created_at ASC").Order("id ASC").
		Find(&messages).Error
	if err != nil {
		log.Error().Err(err).Int64("roomID", roomID).Msg("failed to load room history")
		return nil, app_error.Internal("failed to fetch messages", "db-error")
	}
	return messages, nil
}
