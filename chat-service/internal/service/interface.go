package service

import (
	"context"
	"io"

	"github.com/bigseized/rksp-final/chat-service/internal/domain"
	"github.com/bigseized/rksp-final/pkg/authn"
	"github.com/bigseized/rksp-final/pkg/storage"
)

// ChatService is the entry point for every chat operation. Methods taking
// actorID enforce the actor's membership or admin role before touching the
// store.
type ChatService interface {
	CreateChat(ctx context.Context, actorID string, req domain.CreateChatRequest) (*domain.Chat, error)
	CreatePersonalChat(ctx context.Context, creatorID string, req domain.CreatePersonalChatRequest) (*domain.Chat, error)
	ListChats(ctx context.Context, actorID string) ([]domain.ChatSummary, error)
	ListMembers(ctx context.Context, actorID, chatID string) ([]domain.Member, error)

	History(ctx context.Context, actorID, chatID string) ([]*domain.ChatMessage, error)
	SendMessage(ctx context.Context, p domain.SessionPrincipal, chatID, content string) (*domain.ChatMessage, error)
	// CanSubscribe reports whether the user may receive a chat's topic.
	CanSubscribe(ctx context.Context, userID, chatID string) error

	AddMember(ctx context.Context, actorID, chatID, userID string) error
	RemoveMember(ctx context.Context, actorID, chatID, userID string) error
	Leave(ctx context.Context, actorID, chatID string) error
	Promote(ctx context.Context, actorID, chatID, userID string) error
	Demote(ctx context.Context, actorID, chatID, userID string) error
}

// UserService manages the local user projection and avatars.
type UserService interface {
	// Sync upserts the projection of a validated principal.
	Sync(ctx context.Context, res authn.Result) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	Search(ctx context.Context, query string) ([]domain.UserSearchResult, error)
	UpdateUsername(ctx context.Context, actorID, username string) (*domain.User, error)

	UploadAvatar(ctx context.Context, actorID string, r io.Reader) error
	Avatar(ctx context.Context, userID string) (*storage.Object, error)
	DeleteAvatar(ctx context.Context, actorID string) error
}
