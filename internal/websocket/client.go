package websocket

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-service/internal/dtos/chat_dto"
	"github.com/xenn00/chat-service/internal/entity"
	app_error "github.com/xenn00/chat-service/internal/errors"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 256
	opTimeout      = 10 * time.Second
)

// ChatOperations is the part of the chat service a live connection uses.
type ChatOperations interface {
	AuthorizeRoom(ctx context.Context, roomID int64, principal *entity.Principal) (*entity.ChatRoom, *app_error.AppError)
	AuthorizeTrip(ctx context.Context, tripID int64, principal *entity.Principal) (*entity.ChatRoom, *app_error.AppError)
	SendMessage(ctx context.Context, roomID int64, content string, principal *entity.Principal) (*chat_dto.ChatMessageResponse, *app_error.AppError)
	SendTripMessage(ctx context.Context, tripID int64, content string, principal *entity.Principal) (*chat_dto.ChatMessageResponse, *app_error.AppError)
}

type Client struct {
	ID string
	// Principal is fixed at handshake and never changes for the connection.
	Principal entity.Principal

	conn *websocket.Conn
	send chan []byte
	hub  *Hub
	ops  ChatOperations

	topicsMu  sync.Mutex
	topics    map[string]struct{}
	tripRooms map[int64]int64

	ctx       context.Context
	cancel    context.CancelFunc
	lastSeen  atomic.Int64
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, hub *Hub, ops ChatOperations, principal entity.Principal) *Client {
	ctx, cancel := context.WithCancel(hub.ctx)
	c := &Client{
		ID:        uuid.NewString(),
		Principal: principal,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		hub:       hub,
		ops:       ops,
		topics:    make(map[string]struct{}),
		tripRooms: make(map[int64]int64),
		ctx:       ctx,
		cancel:    cancel,
	}
	c.touch()
	return c
}

func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) IsClientActive() bool {
	return c.ctx.Err() == nil
}

func (c *Client) GetLastSeen() time.Time {
	return time.Unix(0, c.lastSeen.Load())
}

func (c *Client) touch() {
	c.lastSeen.Store(time.Now().UnixNano())
}

// Close is safe to call from any goroutine, any number of times.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.hub.Unregister(c)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) Topics() map[string]struct{} {
	c.topicsMu.Lock()
	defer c.topicsMu.Unlock()

	out := make(map[string]struct{}, len(c.topics))
	for t := range c.topics {
		out[t] = struct{}{}
	}
	return out
}

func (c *Client) addTopic(topic string) {
	c.topicsMu.Lock()
	c.topics[topic] = struct{}{}
	c.topicsMu.Unlock()
}

func (c *Client) removeTopic(topic string) {
	c.topicsMu.Lock()
	delete(c.topics, topic)
	c.topicsMu.Unlock()
}

// enqueue never blocks; false means the buffer is full or the client is gone.
func (c *Client) enqueue(data []byte) bool {
	if !c.IsClientActive() {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) reply(frame *chat_dto.WSOutgoingFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Error().Err(err).Str("clientID", c.ID).Msg("ws: failed to encode reply")
		return
	}
	if !c.enqueue(data) {
		log.Warn().Str("clientID", c.ID).Str("frame", frame.Type).Msg("ws: reply dropped")
	}
}

// writePump: take data from c.send and send to socket + ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump: read frames from the client + handle pong for keep-alive
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.touch()
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("clientID", c.ID).Msg("ws: unexpected close")
			}
			return
		}
		c.touch()
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var frame chat_dto.WSIncomingFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.reply(chat_dto.ErrorFrame("", http.StatusBadRequest, "invalid frame"))
			continue
		}
		c.handleFrame(&frame)
	}
}

func (c *Client) handleFrame(frame *chat_dto.WSIncomingFrame) {
	switch frame.Type {
	case chat_dto.FramePing:
		pong := chat_dto.NewFrame(chat_dto.FramePong)
		pong.RequestID = frame.RequestID
		c.reply(pong)
	case chat_dto.FrameSubscribe:
		c.handleSubscribe(frame)
	case chat_dto.FrameUnsubscribe:
		c.handleUnsubscribe(frame)
	case chat_dto.FrameSend:
		c.handleSend(frame)
	default:
		c.reply(chat_dto.ErrorFrame(frame.RequestID, http.StatusBadRequest, "unknown frame type"))
	}
}

func validateTarget(frame *chat_dto.WSIncomingFrame) *app_error.AppError {
	hasRoom, hasTrip := frame.ChatRoomID > 0, frame.TripID > 0
	if hasRoom == hasTrip {
		return app_error.Validation("exactly one of chatRoomId or tripId is required", "target")
	}
	return nil
}

func (c *Client) handleSubscribe(frame *chat_dto.WSIncomingFrame) {
	if appErr := validateTarget(frame); appErr != nil {
		c.replyError(frame, appErr)
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, opTimeout)
	defer cancel()

	var (
		room   *entity.ChatRoom
		appErr *app_error.AppError
	)
	principal := c.Principal
	if frame.TripID > 0 {
		room, appErr = c.ops.AuthorizeTrip(ctx, frame.TripID, &principal)
	} else {
		room, appErr = c.ops.AuthorizeRoom(ctx, frame.ChatRoomID, &principal)
	}
	if appErr != nil {
		c.replyError(frame, appErr)
		return
	}

	topic := RoomTopic(room.ID)
	if !c.hub.Subscribe(topic, c) {
		return
	}
	if frame.TripID > 0 {
		c.topicsMu.Lock()
		c.tripRooms[frame.TripID] = room.ID
		c.topicsMu.Unlock()
	}

	ok := chat_dto.NewFrame(chat_dto.FrameSubscribed)
	ok.RequestID = frame.RequestID
	ok.Topic = topic
	ok.ChatRoomID = room.ID
	ok.TripID = room.TripID()
	c.reply(ok)
}

func (c *Client) handleUnsubscribe(frame *chat_dto.WSIncomingFrame) {
	if appErr := validateTarget(frame); appErr != nil {
		c.replyError(frame, appErr)
		return
	}

	roomID := frame.ChatRoomID
	if frame.TripID > 0 {
		c.topicsMu.Lock()
		roomID = c.tripRooms[frame.TripID]
		delete(c.tripRooms, frame.TripID)
		c.topicsMu.Unlock()
		if roomID == 0 {
			c.replyError(frame, app_error.Validation("not subscribed to this trip", "tripId"))
			return
		}
	}

	topic := RoomTopic(roomID)
	c.hub.Unsubscribe(topic, c)

	ok := chat_dto.NewFrame(chat_dto.FrameUnsubscribed)
	ok.RequestID = frame.RequestID
	ok.Topic = topic
	ok.ChatRoomID = roomID
	ok.TripID = frame.TripID
	c.reply(ok)
}

func (c *Client) handleSend(frame *chat_dto.WSIncomingFrame) {
	if appErr := validateTarget(frame); appErr != nil {
		c.replyError(frame, appErr)
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, opTimeout)
	defer cancel()

	var (
		msg    *chat_dto.ChatMessageResponse
		appErr *app_error.AppError
	)
	principal := c.Principal
	if frame.TripID > 0 {
		msg, appErr = c.ops.SendTripMessage(ctx, frame.TripID, frame.Content, &principal)
	} else {
		msg, appErr = c.ops.SendMessage(ctx, frame.ChatRoomID, frame.Content, &principal)
	}
	if appErr != nil {
		c.replyError(frame, appErr)
		return
	}

	ack := chat_dto.NewFrame(chat_dto.FrameAck)
	ack.RequestID = frame.RequestID
	ack.Topic = RoomTopic(msg.ChatRoomID)
	ack.ChatRoomID = msg.ChatRoomID
	ack.TripID = msg.TripID
	ack.Message = msg
	c.reply(ack)
}

func (c *Client) replyError(frame *chat_dto.WSIncomingFrame, appErr *app_error.AppError) {
	log.Debug().Str("clientID", c.ID).Str("frame", frame.Type).Int("code", appErr.Code).Str("error", appErr.Message).Msg("ws: frame rejected")
	c.reply(chat_dto.ErrorFrame(frame.RequestID, appErr.Code, appErr.Message))
}
