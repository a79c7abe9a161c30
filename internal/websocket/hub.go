package websocket

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-service/internal/dtos/chat_dto"
)

const inactiveThreshold = 2 * time.Minute

type Hub struct {
	// topic -> subscribers
	topics map[string]map[*Client]struct{}
	mu     sync.RWMutex

	// every live connection, by user
	userClients map[int64]map[*Client]struct{}
	userMu      sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc

	totalConnections atomic.Int64
	messagesSent     atomic.Int64
	messagesDropped  atomic.Int64
	startedAt        time.Time

	cleanupInterval time.Duration
}

type HubStats struct {
	TotalTopics      int       `json:"total_topics"`
	TotalClients     int       `json:"total_clients"`
	TotalUsers       int       `json:"total_users"`
	TotalConnections int64     `json:"total_connections"`
	MessageSent      int64     `json:"message_sent"`
	MessageDropped   int64     `json:"message_dropped"`
	StartedAt        time.Time `json:"started_at"`
}

type TopicStats struct {
	Topic             string `json:"topic"`
	Exists            bool   `json:"exists"`
	ActiveConnections int    `json:"active_connections"`
	UniqueUsers       int    `json:"unique_users"`
}

func NewHub() *Hub {
	return newHub(time.Minute)
}

func newHub(cleanupInterval time.Duration) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	hub := &Hub{
		topics:          make(map[string]map[*Client]struct{}),
		userClients:     make(map[int64]map[*Client]struct{}),
		ctx:             ctx,
		cancel:          cancel,
		startedAt:       time.Now(),
		cleanupInterval: cleanupInterval,
	}

	go hub.cleanupRoutine()

	return hub
}

// Register tracks a freshly connected client and starts its pumps.
func (h *Hub) Register(client *Client) {
	h.userMu.Lock()
	if h.userClients[client.Principal.ID] == nil {
		h.userClients[client.Principal.ID] = make(map[*Client]struct{})
	}
	h.userClients[client.Principal.ID][client] = struct{}{}
	h.userMu.Unlock()

	h.totalConnections.Add(1)
	client.Start()

	log.Info().Str("clientID", client.ID).Int64("userID", client.Principal.ID).Msg("ws: client connected")
}

// Unregister drops the client from every topic it joined.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	for topic := range client.Topics() {
		if subs, ok := h.topics[topic]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	h.mu.Unlock()

	h.userMu.Lock()
	if clients, ok := h.userClients[client.Principal.ID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.userClients, client.Principal.ID)
		}
	}
	h.userMu.Unlock()

	log.Info().Str("clientID", client.ID).Int64("userID", client.Principal.ID).Msg("ws: client disconnected")
}

func (h *Hub) Subscribe(topic string, client *Client) bool {
	client.addTopic(topic)

	h.mu.Lock()
	if !client.IsClientActive() {
		h.mu.Unlock()
		return false
	}
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]struct{})
	}
	h.topics[topic][client] = struct{}{}
	size := len(h.topics[topic])
	h.mu.Unlock()

	log.Debug().Str("topic", topic).Str("clientID", client.ID).Int("topicSize", size).Msg("ws: subscribed")
	return true
}

func (h *Hub) Unsubscribe(topic string, client *Client) {
	h.mu.Lock()
	if subs, ok := h.topics[topic]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	h.mu.Unlock()

	client.removeTopic(topic)
}

// Publish delivers msg to local subscribers of the room. It never blocks on a
// subscriber.
func (h *Hub) Publish(ctx context.Context, roomID int64, msg *chat_dto.ChatMessageResponse) {
	data, err := encodeMessageFrame(roomID, msg)
	if err != nil {
		log.Error().Err(err).Int64("roomID", roomID).Msg("ws: failed to encode message frame")
		return
	}
	h.Deliver(RoomTopic(roomID), data)
}

// Deliver hands data to every subscriber of topic. A subscriber whose buffer
// is full misses the frame and is disconnected.
func (h *Hub) Deliver(topic string, data []byte) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.topics[topic]))
	for client := range h.topics[topic] {
		if client.IsClientActive() {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if c.enqueue(data) {
			delivered++
			continue
		}
		h.messagesDropped.Add(1)
		log.Warn().Str("topic", topic).Str("clientID", c.ID).Msg("ws: slow consumer, dropping message")
		go c.Close()
	}

	h.messagesSent.Add(int64(delivered))
	log.Debug().Str("topic", topic).Int("targets", len(targets)).Int("delivered", delivered).Msg("ws: broadcast completed")
	return delivered
}

// DisconnectUser closes every connection of the user and returns how many were open.
func (h *Hub) DisconnectUser(userID int64) int {
	clients := h.GetUserClients(userID)
	for _, c := range clients {
		c.Close()
	}
	if len(clients) > 0 {
		log.Info().Int64("userID", userID).Int("connections", len(clients)).Msg("ws: user disconnected by admin")
	}
	return len(clients)
}

func (h *Hub) GetUserClients(userID int64) []*Client {
	h.userMu.RLock()
	defer h.userMu.RUnlock()

	clients := make([]*Client, 0, len(h.userClients[userID]))
	for c := range h.userClients[userID] {
		if c.IsClientActive() {
			clients = append(clients, c)
		}
	}
	return clients
}

func (h *Hub) ClientCount() int {
	h.userMu.RLock()
	defer h.userMu.RUnlock()

	n := 0
	for _, clients := range h.userClients {
		n += len(clients)
	}
	return n
}

func (h *Hub) GetTopicStats(topic string) TopicStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := TopicStats{Topic: topic}
	subs, ok := h.topics[topic]
	if !ok {
		return stats
	}

	users := make(map[int64]struct{})
	for c := range subs {
		if c.IsClientActive() {
			stats.ActiveConnections++
			users[c.Principal.ID] = struct{}{}
		}
	}
	stats.Exists = true
	stats.UniqueUsers = len(users)
	return stats
}

func (h *Hub) GetHubStats() HubStats {
	h.mu.RLock()
	topics := len(h.topics)
	h.mu.RUnlock()

	h.userMu.RLock()
	users := len(h.userClients)
	clients := 0
	for _, cs := range h.userClients {
		clients += len(cs)
	}
	h.userMu.RUnlock()

	return HubStats{
		TotalTopics:      topics,
		TotalClients:     clients,
		TotalUsers:       users,
		TotalConnections: h.totalConnections.Load(),
		MessageSent:      h.messagesSent.Load(),
		MessageDropped:   h.messagesDropped.Load(),
		StartedAt:        h.startedAt,
	}
}

func (h *Hub) allClients() []*Client {
	h.userMu.RLock()
	defer h.userMu.RUnlock()

	var all []*Client
	for _, clients := range h.userClients {
		for c := range clients {
			all = append(all, c)
		}
	}
	return all
}

func (h *Hub) cleanupRoutine() {
	ticker := time.NewTicker(h.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.performCleanup(time.Now())
		}
	}
}

func (h *Hub) performCleanup(now time.Time) int {
	var stale []*Client
	for _, c := range h.allClients() {
		if !c.IsClientActive() || now.Sub(c.GetLastSeen()) > inactiveThreshold {
			stale = append(stale, c)
		}
	}

	for _, c := range stale {
		log.Info().Str("clientID", c.ID).Int64("userID", c.Principal.ID).Msg("ws: cleaning up inactive client")
		c.Close()
	}

	log.Debug().Int("cleaned", len(stale)).Msg("ws: cleanup routine completed")
	return len(stale)
}

// Close gracefully shuts down the hub
func (h *Hub) Close() {
	log.Info().Msg("ws: shutting down hub")

	h.cancel()

	all := h.allClients()
	for _, c := range all {
		c.Close()
	}

	log.Info().Int("clients", len(all)).Msg("ws: hub shutdown completed")
}
