package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bigseized/rksp-final/auth-service/internal/domain"
	"github.com/bigseized/rksp-final/pkg/database"
)

// GormAccountRepository implements AccountRepository using GORM.
type GormAccountRepository struct {
	db *gorm.DB
}

func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// Create assigns an id and default role, then inserts the account.
func (r *GormAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	account.ID = uuid.New().String()
	if len(account.Roles) == 0 {
		account.Roles = []string{domain.RoleUser}
	}

	model := domain.AccountToModel(account)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}

	account.CreatedAt = model.CreatedAt
	return nil
}

func (r *GormAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GormAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *GormAccountRepository) first(ctx context.Context, query string, arg string) (*domain.Account, error) {
	var model domain.AccountModel
	if err := r.db.WithContext(ctx).First(&model, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}
