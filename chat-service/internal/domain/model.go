package domain

import (
	"time"
)

// UserModel is the GORM model for the users projection.
type UserModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Email     string    `gorm:"type:varchar(255);index"`
	Username  string    `gorm:"type:varchar(50);index;not null"`
	AvatarKey string    `gorm:"type:varchar(255)"`
	Role      string    `gorm:"type:varchar(16);not null;default:USER"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string { return "users" }

func (m *UserModel) ToDomain() *User {
	return &User{
		ID:        m.ID,
		Email:     m.Email,
		Username:  m.Username,
		AvatarKey: m.AvatarKey,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
	}
}

// ChatModel is the GORM model for chats. PersonalKey is set only for
// personal chats and is unique, so one user pair maps to at most one chat.
// MessageSeq is the last sequence number handed out in the chat.
type ChatModel struct {
	ID            string  `gorm:"type:varchar(36);primaryKey"`
	Name          string  `gorm:"type:varchar(100);not null"`
	Description   string  `gorm:"type:varchar(500)"`
	IsPersonal    bool    `gorm:"not null;default:false"`
	PersonalKey   *string `gorm:"type:varchar(80);uniqueIndex:idx_chats_personal_key"`
	MessageSeq    int64   `gorm:"not null;default:0"`
	LastMessageAt *time.Time
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (ChatModel) TableName() string { return "chats" }

func (m *ChatModel) ToDomain() *Chat {
	return &Chat{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		IsPersonal:  m.IsPersonal,
		CreatedAt:   m.CreatedAt,
	}
}

// MembershipModel is the GORM model for memberships.
type MembershipModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_memberships_user_chat,priority:1"`
	ChatID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_memberships_user_chat,priority:2;index"`
	Role      string    `gorm:"type:varchar(16);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (MembershipModel) TableName() string { return "memberships" }

func (m *MembershipModel) ToDomain() *Membership {
	return &Membership{
		ID:     m.ID,
		UserID: m.UserID,
		ChatID: m.ChatID,
		Role:   Role(m.Role),
	}
}

// ChatMessageModel is the GORM model for chat_messages.
type ChatMessageModel struct {
	ID                string    `gorm:"type:varchar(26);primaryKey"`
	ChatID            string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_chat_messages_chat_seq,priority:1"`
	Seq               int64     `gorm:"not null;uniqueIndex:idx_chat_messages_chat_seq,priority:2"`
	SenderUserID      string    `gorm:"type:varchar(36);not null"`
	SenderDisplayName string    `gorm:"type:varchar(100)"`
	Content           string    `gorm:"type:text;not null"`
	Timestamp         time.Time `gorm:"not null"`
}

func (ChatMessageModel) TableName() string { return "chat_messages" }

func (m *ChatMessageModel) ToDomain() *ChatMessage {
	return &ChatMessage{
		ID:                m.ID,
		ChatID:            m.ChatID,
		Seq:               m.Seq,
		SenderUserID:      m.SenderUserID,
		SenderDisplayName: m.SenderDisplayName,
		Content:           m.Content,
		Timestamp:         m.Timestamp,
	}
}

// Models lists every table owned by the chat service, for migration.
func Models() []interface{} {
	return []interface{}{&UserModel{}, &ChatModel{}, &MembershipModel{}, &ChatMessageModel{}}
}
