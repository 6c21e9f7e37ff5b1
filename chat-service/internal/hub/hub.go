package hub

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/bigseized/rksp-final/chat-service/internal/stomp"
	"github.com/bigseized/rksp-final/pkg/log"
)

// Hub tracks connected clients and their topic subscriptions, and fans
// published bodies out as MESSAGE frames.
type Hub struct {
	clients map[string]*Client
	// topics maps destination -> client id -> subscription id.
	topics     map[string]map[string]string
	register   chan *Client
	unregister chan *Client
	broadcast  chan *topicMessage
	done       chan struct{}
	mu         sync.RWMutex
	messageSeq atomic.Uint64
}

type topicMessage struct {
	destination string
	contentType string
	body        []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		topics:     make(map[string]map[string]string),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *topicMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run processes hub events until ctx is done. Write pumps of remaining
// clients stop when Run returns.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldSessionID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				for dest, subs := range h.topics {
					delete(subs, client.ID)
					if len(subs) == 0 {
						delete(h.topics, dest)
					}
				}
				delete(h.clients, client.ID)
				client.Close()
			}
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldSessionID, client.ID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg *topicMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for clientID, subID := range h.topics[msg.destination] {
		client, ok := h.clients[clientID]
		if !ok {
			continue
		}
		id := strconv.FormatUint(h.messageSeq.Add(1), 10)
		data, err := stomp.Encode(stomp.Message(msg.destination, subID, id, msg.contentType, msg.body))
		if err != nil {
			l := log.L()
			l.Error().Err(err).Str(log.FieldDestination, msg.destination).Msg("failed to encode message frame")
			return
		}
		select {
		case client.Send <- data:
		default:
			l := log.L()
			l.Warn().Str(log.FieldSessionID, clientID).Msg("slow consumer, closing connection")
			client.Close()
			go h.Unregister(client)
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribe routes destination to client under subscriptionID. A second
// subscription of the same client to the same destination replaces the first.
func (h *Hub) Subscribe(client *Client, subscriptionID, destination string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[destination]
	if !ok {
		subs = make(map[string]string)
		h.topics[destination] = subs
	}
	subs[client.ID] = subscriptionID
	l := log.L()
	l.Debug().Str(log.FieldSessionID, client.ID).Str(log.FieldDestination, destination).Msg("client subscribed")
}

// Unsubscribe drops the client's subscription with the given id.
func (h *Hub) Unsubscribe(client *Client, subscriptionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for dest, subs := range h.topics {
		if id, ok := subs[client.ID]; ok && id == subscriptionID {
			delete(subs, client.ID)
			if len(subs) == 0 {
				delete(h.topics, dest)
			}
		}
	}
}

// Publish queues body for every subscriber of destination.
func (h *Hub) Publish(destination string, body []byte) {
	select {
	case h.broadcast <- &topicMessage{destination: destination, contentType: stomp.JSONContent, body: body}:
	case <-h.done:
	}
}

// SubscriberCount returns the number of clients subscribed to destination.
func (h *Hub) SubscriberCount(destination string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[destination])
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
