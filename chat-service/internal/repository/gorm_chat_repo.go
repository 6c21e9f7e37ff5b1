package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bigseized/rksp-final/chat-service/internal/domain"
	"github.com/bigseized/rksp-final/pkg/database"
)

// GormChatRepository implements ChatRepository using GORM.
type GormChatRepository struct {
	db *gorm.DB
}

// NewGormChatRepository creates a new GORM-based chat repository.
func NewGormChatRepository(db *gorm.DB) *GormChatRepository {
	return &GormChatRepository{db: db}
}

func (r *GormChatRepository) CreateChat(ctx context.Context, chat *domain.Chat, creatorID string) error {
	chat.ID = uuid.New().String()
	chat.IsPersonal = false
	model := &domain.ChatModel{
		ID:          chat.ID,
		Name:        chat.Name,
		Description: chat.Description,
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, creatorID); err != nil {
			return err
		}
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		chat.CreatedAt = model.CreatedAt
		return tx.Create(newMembership(chat.ID, creatorID, domain.RoleAdmin)).Error
	})
}

func (r *GormChatRepository) CreatePersonalChat(ctx context.Context, chat *domain.Chat, userA, userB string) error {
	chat.ID = uuid.New().String()
	chat.IsPersonal = true
	key := domain.PersonalKey(userA, userB)
	model := &domain.ChatModel{
		ID:          chat.ID,
		Name:        chat.Name,
		Description: chat.Description,
		IsPersonal:  true,
		PersonalKey: &key,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		chat.CreatedAt = model.CreatedAt
		return tx.Create([]*domain.MembershipModel{
			newMembership(chat.ID, userA, domain.RoleAdmin),
			newMembership(chat.ID, userB, domain.RoleAdmin),
		}).Error
	})
	if database.IsDuplicateKey(err) {
		return ErrPersonalChatExists
	}
	return err
}

func (r *GormChatRepository) FindPersonalChats(ctx context.Context, userA, userB string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Table("chats").
		Select("chats.id").
		Joins("JOIN memberships ma ON ma.chat_id = chats.id AND ma.user_id = ?", userA).
		Joins("JOIN memberships mb ON mb.chat_id = chats.id AND mb.user_id = ?", userB).
		Where("chats.is_personal = ?", true).
		Where("(SELECT COUNT(*) FROM memberships m WHERE m.chat_id = chats.id) = 2").
		Order("chats.created_at").
		Pluck("chats.id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *GormChatRepository) GetChat(ctx context.Context, chatID string) (*domain.Chat, error) {
	var model domain.ChatModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", chatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormChatRepository) ListChatsForUser(ctx context.Context, userID string) ([]domain.ChatSummary, error) {
	db := r.db.WithContext(ctx)

	var memberships []domain.MembershipModel
	if err := db.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return []domain.ChatSummary{}, nil
	}

	roles := make(map[string]domain.Role, len(memberships))
	chatIDs := make([]string, 0, len(memberships))
	for _, m := range memberships {
		roles[m.ChatID] = domain.Role(m.Role)
		chatIDs = append(chatIDs, m.ChatID)
	}

	var chats []domain.ChatModel
	if err := db.Where("id IN ?", chatIDs).Order("created_at").Find(&chats).Error; err != nil {
		return nil, err
	}

	var personalIDs []string
	for _, c := range chats {
		if c.IsPersonal {
			personalIDs = append(personalIDs, c.ID)
		}
	}
	interlocutors, err := r.interlocutors(db, userID, personalIDs)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ChatSummary, 0, len(chats))
	for _, c := range chats {
		s := domain.ChatSummary{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			IsPersonal:  c.IsPersonal,
			Role:        roles[c.ID],
		}
		if other, ok := interlocutors[c.ID]; ok {
			s.InterlocutorID = other.ID
			if other.Username != "" {
				s.Name = other.Username
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// interlocutors maps each personal chat id to the member other than userID.
func (r *GormChatRepository) interlocutors(db *gorm.DB, userID string, chatIDs []string) (map[string]domain.UserModel, error) {
	result := make(map[string]domain.UserModel, len(chatIDs))
	if len(chatIDs) == 0 {
		return result, nil
	}

	var others []domain.MembershipModel
	if err := db.Where("chat_id IN ? AND user_id <> ?", chatIDs, userID).Find(&others).Error; err != nil {
		return nil, err
	}
	userIDs := make([]string, 0, len(others))
	for _, m := range others {
		userIDs = append(userIDs, m.UserID)
	}
	users, err := usersByID(db, userIDs)
	if err != nil {
		return nil, err
	}
	for _, m := range others {
		u, ok := users[m.UserID]
		if !ok {
			u = domain.UserModel{ID: m.UserID}
		}
		result[m.ChatID] = u
	}
	return result, nil
}

func (r *GormChatRepository) AddMember(ctx context.Context, chatID, userID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chat, err := lockChat(tx, chatID)
		if err != nil {
			return err
		}
		if chat.IsPersonal {
			return ErrPersonalChatMembership
		}
		if err := requireUser(tx, userID); err != nil {
			return err
		}
		return tx.Create(newMembership(chatID, userID, domain.RoleMember)).Error
	})
	if database.IsDuplicateKey(err) {
		return ErrAlreadyMember
	}
	return err
}

func (r *GormChatRepository) RemoveMember(ctx context.Context, chatID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chat, err := lockChat(tx, chatID)
		if err != nil {
			return err
		}
		m, err := findMembership(tx, chatID, userID)
		if err != nil {
			return err
		}
		if domain.Role(m.Role) == domain.RoleAdmin {
			return ErrRemoveAdmin
		}
		if chat.IsPersonal {
			return ErrPersonalChatMembership
		}
		return tx.Delete(&domain.MembershipModel{}, "id = ?", m.ID).Error
	})
}

func (r *GormChatRepository) Leave(ctx context.Context, chatID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chat, err := lockChat(tx, chatID)
		if err != nil {
			return err
		}
		m, err := findMembership(tx, chatID, userID)
		if err != nil {
			return err
		}
		if chat.IsPersonal {
			return ErrPersonalChatMembership
		}
		if domain.Role(m.Role) == domain.RoleAdmin {
			admins, err := countAdmins(tx, chatID)
			if err != nil {
				return err
			}
			if admins < 2 {
				return ErrLastAdmin
			}
		}
		return tx.Delete(&domain.MembershipModel{}, "id = ?", m.ID).Error
	})
}

func (r *GormChatRepository) Promote(ctx context.Context, chatID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockChat(tx, chatID); err != nil {
			return err
		}
		m, err := findMembership(tx, chatID, userID)
		if err != nil {
			return err
		}
		if domain.Role(m.Role) == domain.RoleAdmin {
			return nil
		}
		return setRole(tx, m.ID, domain.RoleAdmin)
	})
}

func (r *GormChatRepository) Demote(ctx context.Context, chatID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chat, err := lockChat(tx, chatID)
		if err != nil {
			return err
		}
		m, err := findMembership(tx, chatID, userID)
		if err != nil {
			return err
		}
		if domain.Role(m.Role) == domain.RoleMember {
			return nil
		}
		if chat.IsPersonal {
			return ErrPersonalChatMembership
		}
		admins, err := countAdmins(tx, chatID)
		if err != nil {
			return err
		}
		if admins < 2 {
			return ErrLastAdmin
		}
		return setRole(tx, m.ID, domain.RoleMember)
	})
}

func (r *GormChatRepository) GetRole(ctx context.Context, userID, chatID string) (domain.Role, error) {
	m, err := findMembership(r.db.WithContext(ctx), chatID, userID)
	if err != nil {
		return "", err
	}
	return domain.Role(m.Role), nil
}

func (r *GormChatRepository) ListMembers(ctx context.Context, chatID string) ([]domain.Member, error) {
	db := r.db.WithContext(ctx)

	var memberships []domain.MembershipModel
	if err := db.Where("chat_id = ?", chatID).Order("created_at, id").Find(&memberships).Error; err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.UserID)
	}
	users, err := usersByID(db, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Member, 0, len(memberships))
	for _, m := range memberships {
		u := users[m.UserID]
		out = append(out, domain.Member{
			ID:       m.UserID,
			Username: u.Username,
			Email:    u.Email,
			Role:     domain.Role(m.Role),
		})
	}
	return out, nil
}

func (r *GormChatRepository) AppendMessage(ctx context.Context, msg *domain.ChatMessage, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chat, err := lockChat(tx, msg.ChatID)
		if err != nil {
			return err
		}

		ts := now.UTC()
		if chat.LastMessageAt != nil && ts.Before(*chat.LastMessageAt) {
			ts = chat.LastMessageAt.UTC()
		}
		seq := chat.MessageSeq + 1

		if err := tx.Model(&domain.ChatModel{}).
			Where("id = ?", chat.ID).
			Updates(map[string]interface{}{
				"message_seq":     seq,
				"last_message_at": ts,
			}).Error; err != nil {
			return err
		}

		msg.ID = ulid.Make().String()
		msg.Seq = seq
		msg.Timestamp = ts
		return tx.Create(&domain.ChatMessageModel{
			ID:                msg.ID,
			ChatID:            msg.ChatID,
			Seq:               msg.Seq,
			SenderUserID:      msg.SenderUserID,
			SenderDisplayName: msg.SenderDisplayName,
			Content:           msg.Content,
			Timestamp:         msg.Timestamp,
		}).Error
	})
}

func (r *GormChatRepository) RecentMessages(ctx context.Context, chatID string, limit int) ([]*domain.ChatMessage, error) {
	if limit <= 0 {
		limit = domain.HistoryLimit
	}

	var models []domain.ChatMessageModel
	if err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("seq DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*domain.ChatMessage, len(models))
	for i := range models {
		out[len(models)-1-i] = models[i].ToDomain()
	}
	return out, nil
}

// lockChat loads the chat row with an update lock. Membership mutations and
// message appends on one chat are serialized through this lock.
func lockChat(tx *gorm.DB, chatID string) (*domain.ChatModel, error) {
	var chat domain.ChatModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&chat, "id = ?", chatID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return &chat, nil
}

func findMembership(db *gorm.DB, chatID, userID string) (*domain.MembershipModel, error) {
	var m domain.MembershipModel
	err := db.Where("chat_id = ? AND user_id = ?", chatID, userID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, err
	}
	return &m, nil
}

func countAdmins(tx *gorm.DB, chatID string) (int64, error) {
	var n int64
	err := tx.Model(&domain.MembershipModel{}).
		Where("chat_id = ? AND role = ?", chatID, string(domain.RoleAdmin)).
		Count(&n).Error
	return n, err
}

func setRole(tx *gorm.DB, membershipID string, role domain.Role) error {
	return tx.Model(&domain.MembershipModel{}).
		Where("id = ?", membershipID).
		Update("role", string(role)).Error
}

func requireUser(tx *gorm.DB, userID string) error {
	var n int64
	if err := tx.Model(&domain.UserModel{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func usersByID(db *gorm.DB, ids []string) (map[string]domain.UserModel, error) {
	out := make(map[string]domain.UserModel, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []domain.UserModel
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func newMembership(chatID, userID string, role domain.Role) *domain.MembershipModel {
	return &domain.MembershipModel{
		ID:     uuid.New().String(),
		UserID: userID,
		ChatID: chatID,
		Role:   string(role),
	}
}
