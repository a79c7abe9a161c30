package websocket

import (
	"context"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-service/internal/dtos/chat_dto"
)

const relayChannelPrefix = "chat:"

// RedisRelay fans messages out through Redis pub/sub so every instance's hub
// delivers to its own subscribers.
type RedisRelay struct {
	hub *Hub
	rdb *redis.Client

	ready     chan struct{}
	readyOnce sync.Once
}

func NewRedisRelay(hub *Hub, rdb *redis.Client) *RedisRelay {
	return &RedisRelay{hub: hub, rdb: rdb, ready: make(chan struct{})}
}

// Ready is closed once the pattern subscription is confirmed.
func (r *RedisRelay) Ready() <-chan struct{} {
	return r.ready
}

// Publish falls back to local delivery when Redis is unreachable.
func (r *RedisRelay) Publish(ctx context.Context, roomID int64, msg *chat_dto.ChatMessageResponse) {
	data, err := encodeMessageFrame(roomID, msg)
	if err != nil {
		log.Error().Err(err).Int64("roomID", roomID).Msg("relay: failed to encode message frame")
		return
	}

	channel := relayChannelPrefix + RoomTopic(roomID)
	if err := r.rdb.Publish(context.WithoutCancel(ctx), channel, data).Err(); err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("relay: publish failed, delivering locally")
		r.hub.Deliver(RoomTopic(roomID), data)
	}
}

// Run blocks, delivering relayed frames to the local hub until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.rdb.PSubscribe(ctx, relayChannelPrefix+"room/*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.readyOnce.Do(func() { close(r.ready) })
	log.Info().Msg("relay: subscribed to room channels")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			topic := strings.TrimPrefix(m.Channel, relayChannelPrefix)
			r.hub.Deliver(topic, []byte(m.Payload))
		}
	}
}
