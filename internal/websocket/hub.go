package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"orchestration-agent/internal/pkg/logger"
	"orchestration-agent/pkg/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "orchestration_progress"

// Hub fans progress events out to websocket clients watching an execution.
// With Redis configured, events published on one instance reach clients
// connected to any other instance.
type Hub struct {
	// Registered clients map: ExecutionID -> watchers
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb        *redis.Client
	instanceID string

	logger logger.ILogger
}

type clusterMessage struct {
	Origin      string          `json:"origin"`
	ExecutionID string          `json:"execution_id"`
	Message     json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ExecutionID] = append(h.clients[client.ExecutionID], client)
			h.mu.Unlock()
			h.logger.Info("HUB", "Client registered", map[string]interface{}{"execution_id": client.ExecutionID})

		case client := <-h.unregister:
			h.mu.Lock()
			clients := h.clients[client.ExecutionID]
			for i, c := range clients {
				if c == client {
					h.clients[client.ExecutionID] = append(clients[:i], clients[i+1:]...)
					close(client.Send)
					break
				}
			}
			if len(h.clients[client.ExecutionID]) == 0 {
				delete(h.clients, client.ExecutionID)
			}
			h.mu.Unlock()
		}
	}
}

// Publish delivers event to local watchers of executionID and to other instances.
func (h *Hub) Publish(executionID string, event events.Event) {
	data, err := json.Marshal(map[string]interface{}{
		"type":        event.EventType(),
		"occurred_at": event.Timestamp(),
		"data":        event.Payload(),
	})
	if err != nil {
		h.logger.Error("HUB", "Failed to encode event", map[string]interface{}{"error": err.Error()})
		return
	}

	h.deliver(executionID, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{Origin: h.instanceID, ExecutionID: executionID, Message: data})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("HUB", "Redis publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// ClientCount reports how many local clients watch executionID.
func (h *Hub) ClientCount(executionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[executionID])
}

func (h *Hub) deliver(executionID string, data []byte) {
	h.mu.RLock()
	var slow []*Client
	for _, client := range h.clients[executionID] {
		select {
		case client.Send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("HUB", "Client send buffer full, disconnecting", map[string]interface{}{"execution_id": executionID})
		go func(c *Client) { h.unregister <- c }(client)
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("HUB", "Redis message parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		if payload.Origin == h.instanceID {
			continue
		}
		h.deliver(payload.ExecutionID, payload.Message)
	}
}
