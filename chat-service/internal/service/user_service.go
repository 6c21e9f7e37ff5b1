package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/bigseized/rksp-final/chat-service/internal/audit"
	"github.com/bigseized/rksp-final/chat-service/internal/avatar"
	"github.com/bigseized/rksp-final/chat-service/internal/domain"
	"github.com/bigseized/rksp-final/chat-service/internal/repository"
	"github.com/bigseized/rksp-final/pkg/authn"
	"github.com/bigseized/rksp-final/pkg/log"
	"github.com/bigseized/rksp-final/pkg/storage"
)

const searchLimit = 20

type userService struct {
	repo      repository.UserRepository
	storage   storage.Storage
	processor *avatar.Processor
}

func NewUserService(repo repository.UserRepository, store storage.Storage, processor *avatar.Processor) UserService {
	return &userService{repo: repo, storage: store, processor: processor}
}

func (s *userService) Sync(ctx context.Context, res authn.Result) error {
	if !res.Valid || res.UserID == "" {
		return nil
	}
	username := res.Username
	if username == "" {
		username = res.UserID
	}
	role := domain.UserRoleUser
	for _, r := range res.Roles {
		if strings.EqualFold(r, domain.UserRoleAdmin) {
			role = domain.UserRoleAdmin
		}
	}
	return s.repo.Upsert(ctx, &domain.User{
		ID:       res.UserID,
		Email:    res.Email,
		Username: username,
		Role:     role,
	})
}

func (s *userService) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *userService) Search(ctx context.Context, query string) ([]domain.UserSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.UserSearchResult{}, nil
	}
	users, err := s.repo.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserSearchResult, 0, len(users))
	for _, u := range users {
		out = append(out, domain.UserSearchResult{ID: u.ID, Username: u.Username, Role: u.Role})
	}
	return out, nil
}

func (s *userService) UpdateUsername(ctx context.Context, actorID, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if n := len([]rune(username)); n < 3 || n > 50 {
		return nil, domain.Validation("username must be between 3 and 50 characters")
	}
	if err := s.repo.UpdateUsername(ctx, actorID, username); err != nil {
		return nil, err
	}
	audit.LogWithDetail(ctx, audit.ActionRenameUser, actorID, username, "username changed")
	return s.repo.GetByID(ctx, actorID)
}

func (s *userService) UploadAvatar(ctx context.Context, actorID string, r io.Reader) error {
	if _, err := s.repo.GetByID(ctx, actorID); err != nil {
		return err
	}

	data, err := s.processor.Normalize(r)
	if err != nil {
		switch {
		case errors.Is(err, avatar.ErrTooLarge):
			return domain.Validation("avatar exceeds %d bytes", s.processor.MaxBytes)
		case errors.Is(err, avatar.ErrInvalidImage):
			return domain.Validation("avatar must be a JPEG, PNG or GIF image")
		}
		return err
	}

	key := fmt.Sprintf("avatars/%s/%s.jpg", actorID, uuid.New().String())
	if err := s.storage.Write(ctx, key, bytes.NewReader(data), int64(len(data)), avatar.ContentType); err != nil {
		return fmt.Errorf("store avatar: %w", err)
	}

	previous, err := s.repo.SetAvatarKey(ctx, actorID, key)
	if err != nil {
		s.deleteBlob(ctx, key)
		return err
	}
	if previous != "" {
		s.deleteBlob(ctx, previous)
	}

	audit.LogWithDetail(ctx, audit.ActionAvatarUpload, actorID, key, "avatar uploaded")
	return nil
}

func (s *userService) Avatar(ctx context.Context, userID string) (*storage.Object, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasAvatar() {
		return nil, domain.NotFound("user has no avatar")
	}
	obj, err := s.storage.Read(ctx, user.AvatarKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.NotFound("user has no avatar")
		}
		return nil, err
	}
	return obj, nil
}

func (s *userService) DeleteAvatar(ctx context.Context, actorID string) error {
	previous, err := s.repo.SetAvatarKey(ctx, actorID, "")
	if err != nil {
		return err
	}
	if previous != "" {
		s.deleteBlob(ctx, previous)
	}
	audit.Log(ctx, audit.ActionAvatarDelete, actorID, "avatar deleted")
	return nil
}

func (s *userService) deleteBlob(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str("key", key).Msg("failed to delete avatar object")
	}
}
