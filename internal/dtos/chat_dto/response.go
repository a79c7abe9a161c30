package chat_dto

import "time"

const TripRoomLabel = "Trip Chat"

type ChatMessageResponse struct {
	ID         int64     `json:"id"`
	ChatRoomID int64     `json:"chatRoomId"`
	TripID     int64     `json:"tripId,omitempty"`
	SenderID   int64     `json:"senderId"`
	SenderRole string    `json:"senderRole"`
	SenderName string    `json:"senderName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ChatRoomResponse struct {
	ID              int64                 `json:"id"`
	Kind            string                `json:"kind"`
	UserID          int64                 `json:"userId,omitempty"`
	TripID          int64                 `json:"tripId,omitempty"`
	OwnerKey        int64                 `json:"ownerKey"`
	UserDisplayName string                `json:"userDisplayName"`
	UserEmail       string                `json:"userEmail,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
	Messages        []ChatMessageResponse `json:"messages,omitempty"`
	UnreadCount     int64                 `json:"unreadCount"`
}
