package service

import (
	"context"
	"errors"

	"github.com/bigseized/rksp-final/chat-service/internal/domain"
	"github.com/bigseized/rksp-final/chat-service/internal/repository"
)

// MembershipReader is the read side of the membership store used for
// authorization decisions.
type MembershipReader interface {
	GetRole(ctx context.Context, userID, chatID string) (domain.Role, error)
	GetChat(ctx context.Context, chatID string) (*domain.Chat, error)
}

// Authorizer gates chat operations on the actor's role in the chat.
type Authorizer struct {
	store MembershipReader
}

func NewAuthorizer(store MembershipReader) *Authorizer {
	return &Authorizer{store: store}
}

// RequireMember returns the actor's role, NotFound when the chat does not
// exist, or Forbidden when the actor is not a member.
func (a *Authorizer) RequireMember(ctx context.Context, actorID, chatID string) (domain.Role, error) {
	role, err := a.store.GetRole(ctx, actorID, chatID)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, repository.ErrMembershipNotFound) {
		return "", err
	}
	if _, err := a.store.GetChat(ctx, chatID); err != nil {
		return "", err
	}
	return "", domain.Forbidden("you are not a member of this chat")
}

// RequireAdmin fails with Forbidden unless the actor is an ADMIN of the chat.
func (a *Authorizer) RequireAdmin(ctx context.Context, actorID, chatID string) error {
	role, err := a.RequireMember(ctx, actorID, chatID)
	if err != nil {
		return err
	}
	if role != domain.RoleAdmin {
		return domain.Forbidden("administrator role required")
	}
	return nil
}
