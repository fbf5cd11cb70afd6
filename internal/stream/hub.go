package stream

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Event names pushed to connected clients.
const (
	EventNewNotification  = "newNotification"
	EventNotificationRead = "notificationRead"
)

// Envelope is the wire format for every pushed message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Hub fans out per-user events to websocket clients. Redis pub/sub
// carries events between instances; with no redis client the hub is
// local-only.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	UserID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(userID string) *Client {
	client := &Client{
		UserID: userID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*Client]struct{}{}
	}
	h.clients[userID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if userClients, ok := h.clients[client.UserID]; ok {
		delete(userClients, client)
		if len(userClients) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	close(client.Send)
}

// Push sends an event envelope to every connection of userID. With
// redis configured the event goes through pub/sub so every instance
// (this one included) delivers it; otherwise delivery is direct. A
// client whose buffer is full is skipped, not blocked on.
func (h *Hub) Push(userID, event string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("stream marshal error: %v", err)
		return
	}
	payload, _ := json.Marshal(Envelope{Event: event, Data: raw})

	if h.redis != nil {
		if err := h.redis.Publish(context.Background(), redisChannel(userID), payload).Err(); err != nil {
			log.Printf("redis publish error: %v", err)
			h.deliver(userID, payload)
		}
		return
	}

	h.deliver(userID, payload)
}

func (h *Hub) deliver(userID string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[userID]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "notify:*:events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliver(userIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func redisChannel(userID string) string {
	return "notify:" + userID + ":events"
}

func userIDFromChannel(ch string) string {
	// notify:{user}:events
	const prefix = "notify:"
	const suffix = ":events"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
