package entity

import (
	"time"
)

type RoomKind string

const (
	RoomKindSupport RoomKind = "SUPPORT"
	RoomKindTrip    RoomKind = "TRIP"
)

// ChatRoom is either a support room (SupportUserID set) or a trip room
// (reached through TripLink). Kind decides which one applies.
type ChatRoom struct {
	ID            int64         `gorm:"primaryKey"`
	Kind          RoomKind      `gorm:"type:varchar(16);not null;index"`
	SupportUserID *int64        `gorm:"uniqueIndex"`
	TripLink      *TripChatRoom `gorm:"foreignKey:ChatRoomID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time     `gorm:"not null"`
	UpdatedAt     time.Time     `gorm:"not null;index"`
}

func (r *ChatRoom) IsSupport() bool {
	return r.Kind == RoomKindSupport && r.SupportUserID != nil
}

func (r *ChatRoom) IsTrip() bool {
	return r.Kind == RoomKindTrip
}

// TripID returns the external trip id, 0 when the room is not a trip room or
// the link was not loaded.
func (r *ChatRoom) TripID() int64 {
	if r.TripLink == nil {
		return 0
	}
	return r.TripLink.TripID
}

// OwnerKey is the legacy signed owner key: the user id for support rooms and
// the negated trip id for trip rooms.
func (r *ChatRoom) OwnerKey() int64 {
	switch {
	case r.IsSupport():
		return *r.SupportUserID
	case r.IsTrip():
		return -r.TripID()
	default:
		return 0
	}
}

type TripChatRoom struct {
	ID         int64     `gorm:"primaryKey"`
	TripID     int64     `gorm:"not null;uniqueIndex"`
	ChatRoomID int64     `gorm:"not null;uniqueIndex"`
	CreatedAt  time.Time `gorm:"not null"`
}

type ChatRoomRead struct {
	ID         int64     `gorm:"primaryKey"`
	ChatRoomID int64     `gorm:"not null;uniqueIndex:idx_room_read_user"`
	UserID     int64     `gorm:"not null;uniqueIndex:idx_room_read_user"`
	Room       *ChatRoom `gorm:"foreignKey:ChatRoomID;constraint:OnDelete:CASCADE"`
	LastReadAt time.Time `gorm:"not null"`
}
