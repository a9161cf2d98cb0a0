package stream

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix  = "session:"
	channelSuffix  = ":commands"
	channelPattern = channelPrefix + "*" + channelSuffix
)

// Hub fans session commands out to the websocket clients of this process and,
// when Redis is configured, to the clients connected to other instances.
type Hub struct {
	redis   *redis.Client
	origin  string
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex

	ready     chan struct{}
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

type Client struct {
	SessionID string
	Send      chan []byte
}

// envelope is what goes over Redis.
type envelope struct {
	Origin  string `json:"origin"`
	Payload []byte `json:"payload"`
}

func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		redis:   redisClient,
		origin:  uuid.NewString(),
		clients: map[string]map[*Client]struct{}{},
		ready:   make(chan struct{}),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	if redisClient != nil {
		go h.subscribeRedis(ctx)
	} else {
		close(h.ready)
		close(h.done)
	}
	return h
}

func (h *Hub) Register(sessionID string) *Client {
	client := &Client{
		SessionID: sessionID,
		Send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = map[*Client]struct{}{}
	}
	h.clients[sessionID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sessionClients, ok := h.clients[client.SessionID]; ok {
		if _, registered := sessionClients[client]; !registered {
			return
		}
		delete(sessionClients, client)
		if len(sessionClients) == 0 {
			delete(h.clients, client.SessionID)
		}
		close(client.Send)
	}
}

// Disconnect drops every local client of a session. Their websocket
// handlers close the connection once the send channel is closed.
func (h *Hub) Disconnect(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[sessionID]
	delete(h.clients, sessionID)
	for client := range clients {
		close(client.Send)
	}
	return len(clients)
}

// Broadcast delivers payload to the session's local clients and publishes it
// for the other instances.
func (h *Hub) Broadcast(sessionID string, payload []byte) {
	h.deliver(sessionID, payload)

	if h.redis != nil {
		msg, err := json.Marshal(envelope{Origin: h.origin, Payload: payload})
		if err != nil {
			log.Printf("redis envelope error: %v", err)
			return
		}
		if err := h.redis.Publish(context.Background(), redisChannel(sessionID), msg).Err(); err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

// Clients reports how many websocket clients this process holds for a session.
func (h *Hub) Clients(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Ready is closed once the Redis subscription is confirmed.
func (h *Hub) Ready() <-chan struct{} {
	return h.ready
}

// Close stops the Redis subscription.
func (h *Hub) Close() {
	h.closeOnce.Do(h.cancel)
	<-h.done
}

func (h *Hub) deliver(sessionID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[sessionID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis(ctx context.Context) {
	defer close(h.done)
	pubsub := h.redis.PSubscribe(ctx, channelPattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		log.Printf("redis subscribe error: %v", err)
		close(h.ready)
		return
	}
	close(h.ready)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleRedis(msg)
		}
	}
}

func (h *Hub) handleRedis(msg *redis.Message) {
	sessionID := sessionIDFromChannel(msg.Channel)
	if sessionID == "" {
		return
	}
	var env envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		log.Printf("redis message on %s: %v", msg.Channel, err)
		return
	}
	if env.Origin == h.origin {
		return
	}
	h.deliver(sessionID, env.Payload)
}

func redisChannel(sessionID string) string {
	return channelPrefix + sessionID + channelSuffix
}

func sessionIDFromChannel(ch string) string {
	// session:{id}:commands
	if len(ch) <= len(channelPrefix)+len(channelSuffix) {
		return ""
	}
	if !strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
