package pubsub

import (
	"fmt"
	"strings"
)

// Channel naming for chat domain events: one channel per chat.
const (
	channelChatEvents = "chat:%s:events"

	// PatternAllChats matches every chat events channel.
	PatternAllChats = "chat:*:events"
)

// Event types.
const (
	EventChatCreated   = "chat.created"
	EventMessageSent   = "message.sent"
	EventMemberAdded   = "member.added"
	EventMemberRemoved = "member.removed"
	EventMemberLeft    = "member.left"
	EventMemberRole    = "member.role_changed"
)

// ChatChannel returns the events channel for chatID.
func ChatChannel(chatID string) string {
	return fmt.Sprintf(channelChatEvents, chatID)
}

// ChatIDFromChannel is the inverse of ChatChannel.
func ChatIDFromChannel(channel string) (string, bool) {
	parts := strings.Split(channel, ":")
	if len(parts) != 3 || parts[0] != "chat" || parts[2] != "events" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// MessagePayload carries a persisted chat message.
type MessagePayload struct {
	ID                string `json:"id"`
	ChatID            string `json:"chat_id"`
	Seq               int64  `json:"seq"`
	SenderUserID      string `json:"sender_user_id"`
	SenderDisplayName string `json:"sender_display_name"`
	Content           string `json:"content"`
	Timestamp         int64  `json:"timestamp"` // unix millis
}

// MembershipPayload describes a membership change.
type MembershipPayload struct {
	ChatID  string `json:"chat_id"`
	UserID  string `json:"user_id"`
	ActorID string `json:"actor_id,omitempty"`
	Role    string `json:"role,omitempty"`
}

// ChatPayload describes a created chat.
type ChatPayload struct {
	ChatID     string   `json:"chat_id"`
	Name       string   `json:"name"`
	IsPersonal bool     `json:"is_personal"`
	MemberIDs  []string `json:"member_ids"`
}
