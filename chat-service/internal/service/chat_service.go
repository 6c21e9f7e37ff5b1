package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bigseized/rksp-final/chat-service/internal/audit"
	"github.com/bigseized/rksp-final/chat-service/internal/domain"
	"github.com/bigseized/rksp-final/chat-service/internal/repository"
	"github.com/bigseized/rksp-final/pkg/log"
	"github.com/bigseized/rksp-final/pkg/pubsub"
)

type chatService struct {
	repo   repository.ChatRepository
	users  repository.UserRepository
	authz  *Authorizer
	router *MessageRouter
	events pubsub.Publisher
	origin string
}

func NewChatService(
	repo repository.ChatRepository,
	users repository.UserRepository,
	router *MessageRouter,
	events pubsub.Publisher,
	origin string,
) ChatService {
	if events == nil {
		events = pubsub.Nop{}
	}
	return &chatService{
		repo:   repo,
		users:  users,
		authz:  NewAuthorizer(repo),
		router: router,
		events: events,
		origin: origin,
	}
}

func (s *chatService) CreateChat(ctx context.Context, actorID string, req domain.CreateChatRequest) (*domain.Chat, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.Validation("chat name must not be blank")
	}

	chat := &domain.Chat{Name: name, Description: strings.TrimSpace(req.Description)}
	if err := s.repo.CreateChat(ctx, chat, actorID); err != nil {
		return nil, err
	}

	audit.LogWithDetail(ctx, audit.ActionCreateChat, actorID, chat.ID, "chat created")
	s.publish(ctx, pubsub.EventChatCreated, chat.ID, pubsub.ChatPayload{
		ChatID:    chat.ID,
		Name:      chat.Name,
		MemberIDs: []string{actorID},
	})
	return chat, nil
}

func (s *chatService) CreatePersonalChat(ctx context.Context, creatorID string, req domain.CreatePersonalChatRequest) (*domain.Chat, error) {
	targetID := strings.TrimSpace(req.TargetUserID)
	if targetID == "" {
		return nil, domain.Validation("targetUserId is required")
	}
	if targetID == creatorID {
		return nil, domain.BadRequest("cannot create a personal chat with yourself")
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if err := s.personalChatConflict(ctx, creatorID, targetID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = target.Username
	}
	chat := &domain.Chat{Name: name, Description: strings.TrimSpace(req.Description)}
	if err := s.repo.CreatePersonalChat(ctx, chat, creatorID, targetID); err != nil {
		if errors.Is(err, repository.ErrPersonalChatExists) {
			// Lost the race to a concurrent create of the same pair.
			if cerr := s.personalChatConflict(ctx, creatorID, targetID); cerr != nil {
				return nil, cerr
			}
		}
		return nil, err
	}

	audit.LogWithDetail(ctx, audit.ActionCreatePersonal, creatorID, chat.ID, "personal chat created")
	s.publish(ctx, pubsub.EventChatCreated, chat.ID, pubsub.ChatPayload{
		ChatID:     chat.ID,
		Name:       chat.Name,
		IsPersonal: true,
		MemberIDs:  []string{creatorID, targetID},
	})
	return chat, nil
}

// personalChatConflict returns a Conflict naming the existing personal
// chats of the pair, or nil when there are none.
func (s *chatService) personalChatConflict(ctx context.Context, a, b string) error {
	ids, err := s.repo.FindPersonalChats(ctx, a, b)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return &domain.Error{
		Kind:    domain.KindConflict,
		Message: "personal chat already exists",
		ChatIDs: ids,
	}
}

func (s *chatService) ListChats(ctx context.Context, actorID string) ([]domain.ChatSummary, error) {
	return s.repo.ListChatsForUser(ctx, actorID)
}

func (s *chatService) ListMembers(ctx context.Context, actorID, chatID string) ([]domain.Member, error) {
	if _, err := s.authz.RequireMember(ctx, actorID, chatID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, chatID)
}

func (s *chatService) History(ctx context.Context, actorID, chatID string) ([]*domain.ChatMessage, error) {
	if _, err := s.authz.RequireMember(ctx, actorID, chatID); err != nil {
		return nil, err
	}
	return s.router.History(ctx, chatID, domain.HistoryLimit)
}

func (s *chatService) SendMessage(ctx context.Context, p domain.SessionPrincipal, chatID, content string) (*domain.ChatMessage, error) {
	if err := ValidateContent(content); err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireMember(ctx, p.UserID, chatID); err != nil {
		return nil, err
	}
	p.DisplayName = s.senderName(ctx, p)
	return s.router.Send(ctx, chatID, content, p)
}

// senderName prefers the projection's username, which follows local
// renames, over the name carried by the token.
func (s *chatService) senderName(ctx context.Context, p domain.SessionPrincipal) string {
	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		if domain.KindOf(err) != domain.KindNotFound {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Msg("failed to load sender projection")
		}
		return p.DisplayName
	}
	if u.Username == "" {
		return p.DisplayName
	}
	return u.Username
}

func (s *chatService) CanSubscribe(ctx context.Context, userID, chatID string) error {
	_, err := s.authz.RequireMember(ctx, userID, chatID)
	return err
}

func (s *chatService) AddMember(ctx context.Context, actorID, chatID, userID string) error {
	return s.mutateAsAdmin(ctx, audit.ActionAddMember, pubsub.EventMemberAdded, actorID, chatID, userID, domain.RoleMember,
		func() error { return s.repo.AddMember(ctx, chatID, userID) })
}

func (s *chatService) RemoveMember(ctx context.Context, actorID, chatID, userID string) error {
	return s.mutateAsAdmin(ctx, audit.ActionRemoveMember, pubsub.EventMemberRemoved, actorID, chatID, userID, "",
		func() error { return s.repo.RemoveMember(ctx, chatID, userID) })
}

func (s *chatService) Promote(ctx context.Context, actorID, chatID, userID string) error {
	return s.mutateAsAdmin(ctx, audit.ActionPromote, pubsub.EventMemberRole, actorID, chatID, userID, domain.RoleAdmin,
		func() error { return s.repo.Promote(ctx, chatID, userID) })
}

func (s *chatService) Demote(ctx context.Context, actorID, chatID, userID string) error {
	return s.mutateAsAdmin(ctx, audit.ActionDemote, pubsub.EventMemberRole, actorID, chatID, userID, domain.RoleMember,
		func() error { return s.repo.Demote(ctx, chatID, userID) })
}

// Leave needs no admin role: any member may leave, subject to the store's
// last-admin rule.
func (s *chatService) Leave(ctx context.Context, actorID, chatID string) error {
	if err := s.repo.Leave(ctx, chatID, actorID); err != nil {
		return err
	}
	audit.LogMembership(ctx, audit.ActionLeave, actorID, chatID, actorID)
	s.publish(ctx, pubsub.EventMemberLeft, chatID, pubsub.MembershipPayload{ChatID: chatID, UserID: actorID, ActorID: actorID})
	return nil
}

func (s *chatService) mutateAsAdmin(
	ctx context.Context,
	action, event, actorID, chatID, targetID string,
	role domain.Role,
	mutate func() error,
) error {
	if err := s.authz.RequireAdmin(ctx, actorID, chatID); err != nil {
		if domain.KindOf(err) == domain.KindForbidden {
			audit.LogDenied(ctx, action, actorID, chatID, targetID)
		}
		return err
	}
	if err := mutate(); err != nil {
		return err
	}

	audit.LogMembership(ctx, action, actorID, chatID, targetID)
	s.publish(ctx, event, chatID, pubsub.MembershipPayload{
		ChatID:  chatID,
		UserID:  targetID,
		ActorID: actorID,
		Role:    string(role),
	})
	return nil
}

func (s *chatService) publish(ctx context.Context, eventType, chatID string, payload interface{}) {
	ev, err := pubsub.NewEvent(eventType, chatID, payload)
	if err != nil {
		return
	}
	ev.Origin = s.origin
	if err := s.events.Publish(ctx, pubsub.ChatChannel(chatID), ev); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldChatID, chatID).Str("event", eventType).Msg("failed to publish chat event")
	}
}
