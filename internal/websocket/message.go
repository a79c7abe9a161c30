package websocket

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/xenn00/chat-service/internal/dtos/chat_dto"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RoomTopic is the broadcast address of a room, shared by support and trip rooms.
func RoomTopic(roomID int64) string {
	return fmt.Sprintf("room/%d", roomID)
}

func encodeMessageFrame(roomID int64, msg *chat_dto.ChatMessageResponse) ([]byte, error) {
	frame := chat_dto.NewFrame(chat_dto.FrameMessage)
	frame.Topic = RoomTopic(roomID)
	frame.ChatRoomID = roomID
	frame.TripID = msg.TripID
	frame.Message = msg
	return json.Marshal(frame)
}
