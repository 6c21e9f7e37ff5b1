package domain

import (
	"strings"
	"time"
)

// Role is a user's role inside one chat.
type Role string

const (
	RoleMember Role = "MEMBER"
	RoleAdmin  Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

// UserRole is the platform-wide role of a user projection.
const (
	UserRoleUser  = "USER"
	UserRoleAdmin = "ADMIN"
)

// HistoryLimit is the default size of the history window.
const HistoryLimit = 100

// User is the chat service's local projection of an identity.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	AvatarKey string    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"-"`
}

// HasAvatar reports whether an avatar is stored for the user.
func (u *User) HasAvatar() bool { return u.AvatarKey != "" }

type Chat struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPersonal  bool      `json:"personal"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Membership struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	ChatID string `json:"chatId"`
	Role   Role   `json:"role"`
}

// ChatMessage is a persisted message. Seq is the message's position in its
// chat: strictly increasing, never reused.
type ChatMessage struct {
	ID                string    `json:"id"`
	ChatID            string    `json:"chatId"`
	Seq               int64     `json:"seq"`
	SenderUserID      string    `json:"senderId"`
	SenderDisplayName string    `json:"sender"`
	Content           string    `json:"content"`
	Timestamp         time.Time `json:"timestamp"`
}

// SessionPrincipal binds a validated identity to one WebSocket session.
type SessionPrincipal struct {
	SessionID   string
	UserID      string
	DisplayName string
	Email       string
}

// PersonalKey is the order-independent key of a user pair.
func PersonalKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

// Chat views returned to clients.

// ChatSummary is a chat as listed for one user. Personal chats are named
// after the other participant.
type ChatSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	IsPersonal     bool   `json:"personal"`
	Role           Role   `json:"role"`
	InterlocutorID string `json:"interlocutorId,omitempty"`
}

// Member is one row of a chat's member list.
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// UserSearchResult is one hit of the user search.
type UserSearchResult struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Requests.

type CreateChatRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

type CreatePersonalChatRequest struct {
	TargetUserID string `json:"targetUserId" binding:"required"`
	Name         string `json:"name" binding:"max=100"`
	Description  string `json:"description" binding:"max=500"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type UpdateUsernameRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
}

// Blank reports whether s has no visible content.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
