package chat_service

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-service/internal/entity"
	app_error "github.com/xenn00/chat-service/internal/errors"
	"github.com/xenn00/chat-service/internal/upstream"
)

const (
	msgRoomForbidden = "You do not have access to this chat room"
	msgTripForbidden = "You do not have access to this trip chat"
)

// AccessPolicy decides who may read, write and subscribe to a room.
// Trip membership is looked up on every call.
type AccessPolicy struct {
	Roster upstream.MembershipRoster
}

func NewAccessPolicy(roster upstream.MembershipRoster) *AccessPolicy {
	return &AccessPolicy{Roster: roster}
}

func (a *AccessPolicy) Authorize(ctx context.Context, room *entity.ChatRoom, principal *entity.Principal) *app_error.AppError {
	if principal == nil || room == nil {
		return app_error.Forbidden(msgRoomForbidden)
	}

	switch {
	case room.IsSupport():
		if principal.IsAdmin() || *room.SupportUserID == principal.ID {
			return nil
		}
		return app_error.Forbidden(msgRoomForbidden)
	case room.IsTrip():
		return a.RequireTripMembership(ctx, room.TripID(), principal)
	default:
		log.Warn().Int64("roomID", room.ID).Str("kind", string(room.Kind)).Msg("room has unknown kind")
		return app_error.Forbidden(msgRoomForbidden)
	}
}

// RequireTripMembership fails closed: roster errors and empty rosters deny.
func (a *AccessPolicy) RequireTripMembership(ctx context.Context, tripID int64, principal *entity.Principal) *app_error.AppError {
	if principal == nil || tripID <= 0 {
		return app_error.Forbidden(msgTripForbidden)
	}
	if a.Roster == nil {
		log.Error().Int64("tripID", tripID).Msg("membership roster not configured, denying trip access")
		return app_error.Forbidden(msgTripForbidden)
	}

	members, err := a.Roster.ListMembers(ctx, tripID)
	if err != nil {
		log.Error().Err(err).Int64("tripID", tripID).Int64("userID", principal.ID).Msg("membership roster unavailable, denying trip access")
		return app_error.Forbidden(msgTripForbidden)
	}

	for _, m := range members {
		if m.IsRemoved() {
			continue
		}
		if m.UserID == principal.ID {
			return nil
		}
	}

	log.Warn().Int64("tripID", tripID).Int64("userID", principal.ID).Msg("trip chat access denied")
	return app_error.Forbidden(msgTripForbidden)
}
