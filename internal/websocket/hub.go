package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"learnly-chat-be/internal/dto"
	"learnly-chat-be/internal/metrics"
	"learnly-chat-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const clusterChannel = "chat_cluster_events"

type Hub struct {
	// Registered clients map: UserId -> clients (multi-device)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	// done is closed when Run returns so late register/unregister sends
	// do not block forever.
	done chan struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out. When set, pushes go out
	// only through Redis and every instance (this one included) delivers
	// from the subscription.
	rdb *redis.Client

	metrics *metrics.Metrics
	logger  logger.ILogger
}

type clusterPayload struct {
	TargetUserId string          `json:"target_user_id"`
	ExceptClient string          `json:"except_client,omitempty"`
	Message      json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, m *metrics.Metrics, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		metrics:    m,
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserId] = append(h.clients[client.UserId], client)
			h.mu.Unlock()
			if h.metrics != nil {
				h.metrics.WebsocketConnections.Inc()
			}
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserId, "client_id": client.Id})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// registerClient reports false when the hub has already stopped.
func (h *Hub) registerClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.close()
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.UserId]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.UserId] = append(clients[:i], clients[i+1:]...)
			client.close()
			if h.metrics != nil {
				h.metrics.WebsocketConnections.Dec()
			}
			break
		}
	}
	if len(h.clients[client.UserId]) == 0 {
		delete(h.clients, client.UserId)
		h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"user_id": client.UserId})
	}
}

// SendToUser pushes frame to every connection of userId except the client
// with id exceptClientId. It implements service.ActivityDelivery.
func (h *Hub) SendToUser(userId string, frame dto.WsOutboundFrame, exceptClientId string) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode frame", map[string]interface{}{"error": err.Error()})
		return
	}

	if h.rdb == nil {
		h.deliverLocal(userId, data, exceptClientId)
		return
	}

	payload, _ := json.Marshal(clusterPayload{
		TargetUserId: userId,
		ExceptClient: exceptClientId,
		Message:      data,
	})
	if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Redis publish failed, delivering locally", map[string]interface{}{"error": err.Error()})
		h.deliverLocal(userId, data, exceptClientId)
	}
}

func (h *Hub) deliverLocal(userId string, data []byte, exceptClientId string) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userId]))
	for _, c := range h.clients[userId] {
		if c.Id != exceptClientId {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if !client.enqueue(data) {
			h.logger.Warn("Hub", "Client Send buffer full, dropping connection", map[string]interface{}{"user_id": userId})
			go h.unregisterClient(client)
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterPayload
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		h.deliverLocal(payload.TargetUserId, payload.Message, payload.ExceptClient)
	}
}

// ConnectionCount returns the number of live connections of userId.
func (h *Hub) ConnectionCount(userId string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userId])
}
