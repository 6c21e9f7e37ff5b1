package stomp

import "strings"

// Destination prefixes.
const (
	TopicChatPrefix = "/topic/chat/"
	AppChatPrefix   = "/chat/"
	SendSuffix      = "/sendMessage"
	// ErrorQueue is the destination business errors are delivered on.
	ErrorQueue = "/queue/errors"
	// UserErrorQueue is what clients subscribe to for their error queue.
	UserErrorQueue = "/user/queue/errors"
)

// ChatTopic returns the broadcast destination of a chat.
func ChatTopic(chatID string) string {
	return TopicChatPrefix + chatID
}

// ParseChatTopic extracts the chat id from "/topic/chat/{id}".
func ParseChatTopic(dest string) (string, bool) {
	return cutSegment(dest, TopicChatPrefix, "")
}

// ParseSendDestination extracts the chat id from "/chat/{id}/sendMessage".
// A leading "/app" application prefix is accepted.
func ParseSendDestination(dest string) (string, bool) {
	dest = strings.TrimPrefix(dest, "/app")
	return cutSegment(dest, AppChatPrefix, SendSuffix)
}

// IsErrorQueue reports whether dest names the caller's error queue.
func IsErrorQueue(dest string) bool {
	return dest == UserErrorQueue || dest == ErrorQueue
}

func cutSegment(dest, prefix, suffix string) (string, bool) {
	rest, ok := strings.CutPrefix(dest, prefix)
	if !ok {
		return "", false
	}
	if suffix != "" {
		if rest, ok = strings.CutSuffix(rest, suffix); !ok {
			return "", false
		}
	}
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}
