package domain

import (
	"time"

	"github.com/bigseized/rksp-final/pkg/database"
)

// AccountModel is the GORM model for the accounts table.
type AccountModel struct {
	ID           string               `gorm:"type:varchar(36);primaryKey"`
	Email        string               `gorm:"type:varchar(255);uniqueIndex;not null"`
	Username     string               `gorm:"type:varchar(50);not null"`
	PasswordHash string               `gorm:"type:varchar(255);not null"`
	Roles        database.StringArray `gorm:"type:text"`
	CreatedAt    time.Time            `gorm:"autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"autoUpdateTime"`
}

func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts AccountModel to domain Account.
func (m *AccountModel) ToDomain() *Account {
	return &Account{
		ID:           m.ID,
		Email:        m.Email,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Roles:        []string(m.Roles),
		CreatedAt:    m.CreatedAt,
	}
}

// AccountToModel converts domain Account to AccountModel.
func AccountToModel(a *Account) *AccountModel {
	return &AccountModel{
		ID:           a.ID,
		Email:        a.Email,
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
		Roles:        database.StringArray(a.Roles),
		CreatedAt:    a.CreatedAt,
	}
}
