package service

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bigseized/rksp-final/chat-service/internal/domain"
	"github.com/bigseized/rksp-final/chat-service/internal/metrics"
	"github.com/bigseized/rksp-final/chat-service/internal/stomp"
	"github.com/bigseized/rksp-final/pkg/log"
	"github.com/bigseized/rksp-final/pkg/pubsub"
)

// MaxContentLength bounds a message body, in runes.
const MaxContentLength = 4000

const lockStripes = 64

// MessageStore is the persistence used by MessageRouter.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg *domain.ChatMessage, now time.Time) error
	RecentMessages(ctx context.Context, chatID string, limit int) ([]*domain.ChatMessage, error)
}

// Broadcaster delivers a body to every local subscriber of a destination.
type Broadcaster interface {
	Publish(destination string, body []byte)
}

// MessageRouter persists chat messages and fans them out to the chat's
// topic. Persist and broadcast for one chat happen under one lock, so
// messages sent through one instance reach its subscribers in sequence
// order. Relayed messages carry no such guarantee; see Relay.
type MessageRouter struct {
	store   MessageStore
	hub     Broadcaster
	events  pubsub.Publisher
	origin  string
	metrics *metrics.Metrics
	now     func() time.Time
	locks   [lockStripes]sync.Mutex
}

// NewMessageRouter wires the router. events may be nil; origin tags
// published events with this instance's id.
func NewMessageRouter(store MessageStore, hub Broadcaster, events pubsub.Publisher, origin string) *MessageRouter {
	if events == nil {
		events = pubsub.Nop{}
	}
	return &MessageRouter{
		store:  store,
		hub:    hub,
		events: events,
		origin: origin,
		now:    time.Now,
	}
}

// WithMetrics attaches collectors and returns r.
func (r *MessageRouter) WithMetrics(m *metrics.Metrics) *MessageRouter {
	r.metrics = m
	return r
}

func (r *MessageRouter) lockFor(chatID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(chatID))
	return &r.locks[h.Sum32()%lockStripes]
}

// Send validates, persists and broadcasts a message from p. It does not
// check membership.
func (r *MessageRouter) Send(ctx context.Context, chatID, content string, p domain.SessionPrincipal) (*domain.ChatMessage, error) {
	if err := ValidateContent(content); err != nil {
		return nil, err
	}

	msg := &domain.ChatMessage{
		ChatID:            chatID,
		SenderUserID:      p.UserID,
		SenderDisplayName: p.DisplayName,
		Content:           content,
	}

	mu := r.lockFor(chatID)
	mu.Lock()
	defer mu.Unlock()

	if err := r.store.AppendMessage(ctx, msg, r.now()); err != nil {
		return nil, err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	r.hub.Publish(stomp.ChatTopic(chatID), body)
	r.metrics.MessageSent()
	r.publishEvent(ctx, msg)

	l := log.Ctx(ctx)
	l.Debug().
		Str(log.FieldChatID, chatID).
		Str(log.FieldUserID, p.UserID).
		Int64("seq", msg.Seq).
		Msg("message routed")
	return msg, nil
}

func (r *MessageRouter) publishEvent(ctx context.Context, msg *domain.ChatMessage) {
	ev, err := pubsub.NewEvent(pubsub.EventMessageSent, msg.ChatID, pubsub.MessagePayload{
		ID:                msg.ID,
		ChatID:            msg.ChatID,
		Seq:               msg.Seq,
		SenderUserID:      msg.SenderUserID,
		SenderDisplayName: msg.SenderDisplayName,
		Content:           msg.Content,
		Timestamp:         msg.Timestamp.UnixMilli(),
	})
	if err != nil {
		return
	}
	ev.Origin = r.origin
	if err := r.events.Publish(ctx, pubsub.ChatChannel(msg.ChatID), ev); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldChatID, msg.ChatID).Msg("failed to publish message event")
	}
}

// History returns the newest limit messages of a chat in ascending order.
// limit <= 0 selects the default window.
func (r *MessageRouter) History(ctx context.Context, chatID string, limit int) ([]*domain.ChatMessage, error) {
	if limit <= 0 {
		limit = domain.HistoryLimit
	}
	return r.store.RecentMessages(ctx, chatID, limit)
}

// Relay rebroadcasts message events published by other instances to local
// subscribers, until events is closed. A relayed message may reach local
// subscribers after a local message with a higher seq, since the event bus
// delivers it after the remote commit. Clients order a chat by seq.
func (r *MessageRouter) Relay(ctx context.Context, events <-chan *pubsub.Event) {
	l := log.Ctx(ctx)
	for ev := range events {
		if ev.Type != pubsub.EventMessageSent || ev.Origin == r.origin {
			continue
		}
		var p pubsub.MessagePayload
		if err := ev.UnmarshalPayload(&p); err != nil {
			l.Warn().Err(err).Msg("dropping malformed message event")
			continue
		}
		body, err := json.Marshal(&domain.ChatMessage{
			ID:                p.ID,
			ChatID:            p.ChatID,
			Seq:               p.Seq,
			SenderUserID:      p.SenderUserID,
			SenderDisplayName: p.SenderDisplayName,
			Content:           p.Content,
			Timestamp:         time.UnixMilli(p.Timestamp).UTC(),
		})
		if err != nil {
			continue
		}
		mu := r.lockFor(p.ChatID)
		mu.Lock()
		r.hub.Publish(stomp.ChatTopic(p.ChatID), body)
		mu.Unlock()
		r.metrics.MessageRelayed()
	}
}

// ValidateContent rejects blank and oversized message bodies.
func ValidateContent(content string) error {
	if domain.Blank(content) {
		return domain.Validation("message content must not be blank")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return domain.Validation("message content exceeds %d characters", MaxContentLength)
	}
	return nil
}
