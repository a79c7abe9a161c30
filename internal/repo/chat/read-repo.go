package chat_repo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-service/internal/entity"
	app_error "github.com/xenn00/chat-service/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *ChatRepo) MarkRead(ctx context.Context, roomID, userID int64, at time.Time) *app_error.AppError {
	read := &entity.ChatRoomRead{ChatRoomID: roomID, UserID: userID, LastReadAt: at}
	err := r.AppState.DB.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_room_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_read_at"}),
		}).
		Create(read).Error
	if err != nil {
		log.Error().Err(err).Int64("roomID", roomID).Int64("userID", userID).Msg("failed to mark room read")
		return app_error.Internal("failed to mark room as read", "db-error")
	}
	return nil
}

// FindWatermark returns nil without error when the user never read the room.
func (r *ChatRepo) FindWatermark(ctx context.Context, roomID, userID int64) (*entity.ChatRoomRead, *app_error.AppError) {
	var read entity.ChatRoomRead
	err := r.AppState.DB.WithContext(ctx).
		Where("chat_room_id = ? AND user_id = ?", roomID, userID).
		First(&read).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Error().Err(err).Int64("roomID", roomID).Int64("userID", userID).Msg("failed to fetch read watermark")
		return nil, app_error.Internal("failed to fetch read state", "db-error")
	}
	return &read, nil
}

// CountUnread counts messages from other senders after the user's watermark;
// with no watermark every such message is unread.
func (r *ChatRepo) CountUnread(ctx context.Context, roomID, userID int64) (int64, *app_error.AppError) {
	watermark, appErr := r.FindWatermark(ctx, roomID, userID)
	if appErr != nil {
		return 0, appErr
	}

	q := r.AppState.DB.WithContext(ctx).Model(&entity.ChatMessage{}).
		Where("chat_room_id = ? AND sender_id <> ?", roomID, userID)
	if watermark != nil {
		q = q.Where("created_at > ?", watermark.LastReadAt)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		log.Error().Err(err).Int64("roomID", roomID).Msg("failed to count unread messages")
		return 0, app_error.Internal("failed to count unread messages", "db-error")
	}
	return count, nil
}
