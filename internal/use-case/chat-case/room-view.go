package chat_service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-service/internal/dtos/chat_dto"
	"github.com/xenn00/chat-service/internal/entity"
	app_error "github.com/xenn00/chat-service/internal/errors"
	"github.com/xenn00/chat-service/internal/upstream"
	"golang.org/x/sync/errgroup"
)

const roomEnrichConcurrency = 8

// describeRooms builds the listing entries concurrently, keeping input order.
func (c *ChatService) describeRooms(ctx context.Context, rooms []*entity.ChatRoom, principal *entity.Principal) ([]chat_dto.ChatRoomResponse, *app_error.AppError) {
	out := make([]chat_dto.ChatRoomResponse, len(rooms))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(roomEnrichConcurrency)
	for i, room := range rooms {
		g.Go(func() error {
			resp, appErr := c.describeRoom(gctx, room, principal)
			if appErr != nil {
				return appErr
			}
			out[i] = *resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var appErr *app_error.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, app_error.Internal(err.Error(), "rooms")
	}
	return out, nil
}

func (c *ChatService) describeRoom(ctx context.Context, room *entity.ChatRoom, principal *entity.Principal) (*chat_dto.ChatRoomResponse, *app_error.AppError) {
	resp := &chat_dto.ChatRoomResponse{
		ID:        room.ID,
		Kind:      string(room.Kind),
		OwnerKey:  room.OwnerKey(),
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}

	if room.IsTrip() {
		resp.TripID = room.TripID()
		resp.UserDisplayName = chat_dto.TripRoomLabel
	} else if room.IsSupport() {
		resp.UserID = *room.SupportUserID
		resp.UserDisplayName, resp.UserEmail = c.supportLabel(ctx, resp.UserID)
	}

	unread, err := c.ChatRepo.CountUnread(ctx, room.ID, principal.ID)
	if err != nil {
		return nil, err
	}
	resp.UnreadCount = unread
	return resp, nil
}

// supportLabel degrades to a placeholder when the profile cannot be loaded.
func (c *ChatService) supportLabel(ctx context.Context, userID int64) (string, string) {
	placeholder := fmt.Sprintf("User #%d", userID)
	if c.Profiles == nil {
		return placeholder, ""
	}

	profile, err := c.Profiles.ProfileByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, upstream.ErrProfileNotFound) {
			log.Warn().Err(err).Int64("userID", userID).Msg("profile lookup failed, using placeholder label")
		}
		return placeholder, ""
	}

	if name := profile.FullName(); name != "" {
		return name, profile.Email
	}
	if profile.Email != "" {
		return profile.Email, profile.Email
	}
	return placeholder, ""
}

func toMessageResponse(msg *entity.ChatMessage, tripID int64) chat_dto.ChatMessageResponse {
	return chat_dto.ChatMessageResponse{
		ID:         msg.ID,
		ChatRoomID: msg.ChatRoomID,
		TripID:     tripID,
		SenderID:   msg.SenderID,
		SenderRole: msg.SenderRole,
		SenderName: msg.SenderDisplayName,
		Content:    msg.Content,
		CreatedAt:  msg.CreatedAt,
	}
}

func toMessageResponses(msgs []*entity.ChatMessage, tripID int64) []chat_dto.ChatMessageResponse {
	out := make([]chat_dto.ChatMessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m, tripID))
	}
	return out
}
