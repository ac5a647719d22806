package stream

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub fans live stage events (waypoints, breadcrumbs) out to map
// viewers. Each client follows one stage; Redis pub/sub relays events
// between instances when configured.
type Hub struct {
	id      string
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

// envelope wraps payloads on the Redis channel so an instance can
// recognize its own publications and not deliver them twice.
type envelope struct {
	Src  string `json:"src"`
	Data []byte `json:"data"`
}

type Client struct {
	StageID string
	Send    chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		id:      uuid.NewString(),
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(stageID string) *Client {
	client := &Client{
		StageID: stageID,
		Send:    make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[stageID] == nil {
		h.clients[stageID] = map[*Client]struct{}{}
	}
	h.clients[stageID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if stageClients, ok := h.clients[client.StageID]; ok {
		delete(stageClients, client)
		if len(stageClients) == 0 {
			delete(h.clients, client.StageID)
		}
	}
	close(client.Send)
}

func (h *Hub) Broadcast(stageID string, payload []byte) {
	h.deliver(stageID, payload)

	if h.redis != nil {
		wrapped, err := json.Marshal(envelope{Src: h.id, Data: payload})
		if err != nil {
			return
		}
		if err := h.redis.Publish(context.Background(), redisChannel(stageID), wrapped).Err(); err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) deliver(stageID string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[stageID]
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
	pubsub := h.redis.PSubscribe(ctx, "stage:*:live")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		payload := []byte(msg.Payload)
		var env envelope
		if err := json.Unmarshal(payload, &env); err == nil && env.Src != "" {
			if env.Src == h.id {
				continue
			}
			payload = env.Data
		}
		h.deliver(stageIDFromChannel(msg.Channel), payload)
	}
}

func redisChannel(stageID string) string {
	return "stage:" + stageID + ":live"
}

func stageIDFromChannel(ch string) string {
	// stage:{id}:live
	const prefix = "stage:"
	const suffix = ":live"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
