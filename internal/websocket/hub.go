package websocket

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/VJYGOUR/auth-system/internal/models"
)

type delivery struct {
	userID  string
	message []byte
}

// Hub maintains the set of connected clients and routes audit events to the
// clients of the user they belong to.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// A map of user IDs to the clients streaming that user's events.
	subscriptions map[string]map[*Client]bool

	connected atomic.Int64

	register   chan *Client
	unregister chan *Client
	publish    chan delivery
	done       chan struct{}
}

// NewHub creates a new Hub. Nothing is delivered until Run is called.
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		publish:       make(chan delivery, 64),
		done:          make(chan struct{}),
	}
}

// Run processes registrations and deliveries until ctx ends. On return every
// client's Send channel is closed, which makes its write pump hang up.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.addSubscription(client)
			h.connected.Store(int64(len(h.clients)))
			log.Debug().Str("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Event stream connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Debug().Str("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Event stream disconnected")
			}
		case d := <-h.publish:
			for client := range h.subscriptions[d.userID] {
				select {
				case client.Send <- d.message:
				default:
					// Slow consumer.
					h.drop(client)
				}
			}
		}
	}
}

// Register adds a client. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client; a no-op after the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// PublishEvent queues an audit event for the clients of its user. Events
// without a user are never streamed.
func (h *Hub) PublishEvent(event models.Event) {
	if event.UserID == nil {
		return
	}
	message, err := json.Marshal(NewEventMessage(event))
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode event message")
		return
	}

	select {
	case h.publish <- delivery{userID: *event.UserID, message: message}:
	case <-h.done:
	default:
		log.Warn().Str("event_type", event.Type).Msg("Event stream backlog full, dropping event")
	}
}

// Done is closed when Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	return int(h.connected.Load())
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	h.connected.Store(int64(len(h.clients)))
	close(client.Send)
	h.removeSubscription(client)
}

func (h *Hub) addSubscription(client *Client) {
	if h.subscriptions[client.UserID] == nil {
		h.subscriptions[client.UserID] = make(map[*Client]bool)
	}
	h.subscriptions[client.UserID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	subs, ok := h.subscriptions[client.UserID]
	if !ok {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.subscriptions, client.UserID)
	}
}
