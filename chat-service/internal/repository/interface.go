package repository

import (
	"context"
	"time"

	"github.com/bigseized/rksp-final/chat-service/internal/domain"
)

var (
	ErrChatNotFound           = domain.NotFound("chat not found")
	ErrUserNotFound           = domain.NotFound("user not found")
	ErrMembershipNotFound     = domain.NotFound("user is not a member of this chat")
	ErrAlreadyMember          = domain.Conflict("user is already a member of this chat")
	ErrRemoveAdmin            = domain.IllegalState("cannot remove an administrator, demote first")
	ErrLastAdmin              = domain.Conflict("chat must keep at least one administrator")
	ErrPersonalChatMembership = domain.Conflict("membership of a personal chat cannot change")
	ErrPersonalChatExists     = domain.Conflict("personal chat already exists")
	ErrUsernameTaken          = domain.Conflict("username already taken")
)

// ChatRepository persists chats, memberships and messages. It performs no
// caller identity checks; authorization happens in the service layer.
type ChatRepository interface {
	// CreateChat inserts a group chat with creatorID as its ADMIN.
	CreateChat(ctx context.Context, chat *domain.Chat, creatorID string) error
	// CreatePersonalChat inserts a personal chat with both users as ADMIN.
	// Returns ErrPersonalChatExists when the pair already has one.
	CreatePersonalChat(ctx context.Context, chat *domain.Chat, userA, userB string) error
	// FindPersonalChats returns ids of personal chats whose members are
	// exactly userA and userB.
	FindPersonalChats(ctx context.Context, userA, userB string) ([]string, error)
	GetChat(ctx context.Context, chatID string) (*domain.Chat, error)
	ListChatsForUser(ctx context.Context, userID string) ([]domain.ChatSummary, error)

	AddMember(ctx context.Context, chatID, userID string) error
	RemoveMember(ctx context.Context, chatID, userID string) error
	Leave(ctx context.Context, chatID, userID string) error
	Promote(ctx context.Context, chatID, userID string) error
	Demote(ctx context.Context, chatID, userID string) error
	GetRole(ctx context.Context, userID, chatID string) (domain.Role, error)
	ListMembers(ctx context.Context, chatID string) ([]domain.Member, error)

	// AppendMessage assigns the next sequence number and a timestamp no
	// earlier than the chat's previous message, then stores msg.
	AppendMessage(ctx context.Context, msg *domain.ChatMessage, now time.Time) error
	// RecentMessages returns up to limit of the newest messages in
	// ascending order.
	RecentMessages(ctx context.Context, chatID string, limit int) ([]*domain.ChatMessage, error)
}

// UserRepository persists the local user projection.
type UserRepository interface {
	// Upsert creates the user or refreshes its email. A locally changed
	// username is kept.
	Upsert(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Search(ctx context.Context, query string, limit int) ([]*domain.User, error)
	UpdateUsername(ctx context.Context, id, username string) error
	// SetAvatarKey stores key and returns the previous one.
	SetAvatarKey(ctx context.Context, id, key string) (string, error)
}
