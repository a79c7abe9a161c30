package chat_repo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-service/internal/entity"
	app_error "github.com/xenn00/chat-service/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const tripRoomMaxTries = 5

var errTripRoomRace = errors.New("trip room created concurrently")

func (r *ChatRepo) FindRoomByID(ctx context.Context, roomID int64) (*entity.ChatRoom, *app_error.AppError) {
	var room entity.ChatRoom
	if err := r.AppState.DB.WithContext(ctx).Preload("TripLink").Where("id = ?", roomID).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("chat room not found")
		}
		log.Error().Err(err).Int64("roomID", roomID).Msg("failed to fetch room")
		return nil, app_error.Internal("failed to fetch room", "db-error")
	}
	return &room, nil
}

func (r *ChatRepo) FindSupportRoomByUser(ctx context.Context, userID int64) (*entity.ChatRoom, *app_error.AppError) {
	var room entity.ChatRoom
	err := r.AppState.DB.WithContext(ctx).
		Where("kind = ? AND support_user_id = ?", entity.RoomKindSupport, userID).
		First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("support room not found")
		}
		log.Error().Err(err).Int64("userID", userID).Msg("failed to fetch support room")
		return nil, app_error.Internal("failed to fetch support room", "db-error")
	}
	return &room, nil
}

func (r *ChatRepo) ListSupportRooms(ctx context.Context) ([]*entity.ChatRoom, *app_error.AppError) {
	var rooms []*entity.ChatRoom
	err := r.AppState.DB.WithContext(ctx).
		Where("kind = ? AND support_user_id > 0", entity.RoomKindSupport).
		Order("updated_at DESC").Order("id DESC").
		Find(&rooms).Error
	if err != nil {
		log.Error().Err(err).Msg("failed to list support rooms")
		return nil, app_error.Internal("failed to list support rooms", "db-error")
	}
	return rooms, nil
}

// CreateSupportRoom returns the user's existing room or creates it. The unique
// index on support_user_id settles concurrent first calls.
func (r *ChatRepo) CreateSupportRoom(ctx context.Context, userID int64, now time.Time) (*entity.ChatRoom, *app_error.AppError) {
	room, appErr := r.FindSupportRoomByUser(ctx, userID)
	if appErr == nil {
		return room, nil
	}
	if !app_error.Is(appErr, http.StatusNotFound) {
		return nil, appErr
	}

	uid := userID
	newRoom := &entity.ChatRoom{
		Kind:          entity.RoomKindSupport,
		SupportUserID: &uid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := r.AppState.DB.WithContext(ctx).Omit(clause.Associations).Create(newRoom).Error; err != nil {
		if isDuplicateKey(err) {
			log.Debug().Int64("userID", userID).Msg("support room created concurrently, re-reading")
			return r.FindSupportRoomByUser(ctx, userID)
		}
		log.Error().Err(err).Int64("userID", userID).Msg("failed to create support room")
		return nil, app_error.Internal("failed to create support room", "db-error")
	}

	log.Info().Int64("roomID", newRoom.ID).Int64("userID", userID).Msg("support room created")
	return newRoom, nil
}

func (r *ChatRepo) FindTripRoom(ctx context.Context, tripID int64) (*entity.ChatRoom, *app_error.AppError) {
	room, err := r.findTripRoom(ctx, tripID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.NotFound("trip chat room not found")
		}
		log.Error().Err(err).Int64("tripID", tripID).Msg("failed to fetch trip room")
		return nil, app_error.Internal("failed to fetch trip room", "db-error")
	}
	return room, nil
}

func (r *ChatRepo) findTripRoom(ctx context.Context, tripID int64) (*entity.ChatRoom, error) {
	var link entity.TripChatRoom
	if err := r.AppState.DB.WithContext(ctx).Where("trip_id = ?", tripID).First(&link).Error; err != nil {
		return nil, err
	}

	var room entity.ChatRoom
	if err := r.AppState.DB.WithContext(ctx).Where("id = ?", link.ChatRoomID).First(&room).Error; err != nil {
		return nil, err
	}
	room.TripLink = &link
	return &room, nil
}

// GetOrCreateTripRoom lazily provisions the single room of a trip. Room and
// link are written in one transaction; a unique violation on the link means
// another caller won, so the winner's room is re-read.
func (r *ChatRepo) GetOrCreateTripRoom(ctx context.Context, tripID int64, now time.Time) (*entity.ChatRoom, *app_error.AppError) {
	operation := func() (*entity.ChatRoom, error) {
		room, err := r.findTripRoom(ctx, tripID)
		if err == nil {
			return room, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, backoff.Permanent(err)
		}

		room, err = r.createTripRoom(ctx, tripID, now)
		if err == nil {
			log.Info().Int64("roomID", room.ID).Int64("tripID", tripID).Msg("trip room created")
			return room, nil
		}
		if isDuplicateKey(err) {
			return nil, errTripRoomRace
		}
		return nil, backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond

	room, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(tripRoomMaxTries),
	)
	if err != nil {
		log.Error().Err(err).Int64("tripID", tripID).Msg("failed to provision trip room")
		return nil, app_error.Internal("failed to provision trip chat room", "db-error")
	}
	return room, nil
}

func (r *ChatRepo) createTripRoom(ctx context.Context, tripID int64, now time.Time) (*entity.ChatRoom, error) {
	room := &entity.ChatRoom{
		Kind:      entity.RoomKindTrip,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.AppState.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(room).Error; err != nil {
			return fmt.Errorf("create trip room: %w", err)
		}
		link := &entity.TripChatRoom{TripID: tripID, ChatRoomID: room.ID, CreatedAt: now}
		if err := tx.Create(link).Error; err != nil {
			return fmt.Errorf("create trip link: %w", err)
		}
		room.TripLink = link
		return nil
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}
