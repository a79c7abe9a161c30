package chat_dto

const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FrameSend        = "send"
	FramePing        = "ping"
)

// WSIncomingFrame addresses a room either by chatRoomId or by tripId, never both.
type WSIncomingFrame struct {
	Type       string `json:"type"`
	ChatRoomID int64  `json:"chatRoomId,omitempty"`
	TripID     int64  `json:"tripId,omitempty"`
	Content    string `json:"content,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
}
