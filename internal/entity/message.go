package entity

import (
	"time"
)

type ChatMessage struct {
	ID                int64     `gorm:"primaryKey;index:idx_message_room_order,priority:3"`
	ChatRoomID        int64     `gorm:"not null;index:idx_message_room_order,priority:1"`
	Room              *ChatRoom `gorm:"foreignKey:ChatRoomID;constraint:OnDelete:CASCADE"`
	SenderID          int64     `gorm:"not null"`
	SenderRole        string    `gorm:"type:varchar(20);not null"`
	SenderDisplayName string    `gorm:"type:varchar(255)"`
	Content           string    `gorm:"type:text;not null"`
	CreatedAt         time.Time `gorm:"not null;index:idx_message_room_order,priority:2"`
}
