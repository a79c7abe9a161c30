package chat_dto

import "time"

const (
	FrameMessage      = "message"
	FrameSubscribed   = "subscribed"
	FrameUnsubscribed = "unsubscribed"
	FrameAck          = "ack"
	FrameError        = "error"
	FramePong         = "pong"
)

type WSOutgoingFrame struct {
	Type       string               `json:"type"`
	Topic      string               `json:"topic,omitempty"`
	ChatRoomID int64                `json:"chatRoomId,omitempty"`
	TripID     int64                `json:"tripId,omitempty"`
	RequestID  string               `json:"requestId,omitempty"`
	Message    *ChatMessageResponse `json:"message,omitempty"`
	Code       int                  `json:"code,omitempty"`
	Error      string               `json:"error,omitempty"`
	Timestamp  int64                `json:"timestamp"`
}

func NewFrame(frameType string) *WSOutgoingFrame {
	return &WSOutgoingFrame{Type: frameType, Timestamp: time.Now().UnixMilli()}
}

func ErrorFrame(requestID string, code int, msg string) *WSOutgoingFrame {
	f := NewFrame(FrameError)
	f.RequestID = requestID
	f.Code = code
	f.Error = msg
	return f
}
