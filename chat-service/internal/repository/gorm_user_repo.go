package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bigseized/rksp-final/chat-service/internal/domain"
)

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-based user repository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Upsert(ctx context.Context, user *domain.User) error {
	role := user.Role
	if role == "" {
		role = domain.UserRoleUser
	}
	model := &domain.UserModel{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     role,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "updated_at"}),
	}).Create(model).Error
}

func (r *GormUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var model domain.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Search matches usernames containing query, case-insensitively.
func (r *GormUserRepository) Search(ctx context.Context, query string, limit int) ([]*domain.User, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"

	var models []domain.UserModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(username) LIKE ? ESCAPE '!'", pattern).
		Order("username").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*domain.User, 0, len(models))
	for i := range models {
		out = append(out, models[i].ToDomain())
	}
	return out, nil
}

func (r *GormUserRepository) UpdateUsername(ctx context.Context, id, username string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&domain.UserModel{}).
			Where("username = ? AND id <> ?", username, id).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return ErrUsernameTaken
		}

		result := tx.Model(&domain.UserModel{}).Where("id = ?", id).Update("username", username)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

func (r *GormUserRepository) SetAvatarKey(ctx context.Context, id, key string) (string, error) {
	var previous string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model domain.UserModel
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		previous = model.AvatarKey
		return tx.Model(&domain.UserModel{}).Where("id = ?", id).Update("avatar_key", key).Error
	})
	return previous, err
}

var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
