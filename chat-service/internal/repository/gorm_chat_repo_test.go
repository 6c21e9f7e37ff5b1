package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bigseized/rksp-final/chat-service/internal/domain"
	"github.com/bigseized/rksp-final/pkg/database"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.New(&database.Config{Driver: "sqlite", FilePath: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, domain.Models()...))
	return db
}

type fixture struct {
	ctx   context.Context
	chats *GormChatRepository
	users *GormUserRepository
}

func newFixture(t *testing.T, users ...string) *fixture {
	t.Helper()
	db := openTestDB(t)
	f := &fixture{
		ctx:   context.Background(),
		chats: NewGormChatRepository(db),
		users: NewGormUserRepository(db),
	}
	for _, id := range users {
		require.NoError(t, f.users.Upsert(f.ctx, &domain.User{ID: id, Username: id, Email: id + "@example.com"}))
	}
	return f
}

func (f *fixture) groupChat(t *testing.T, admin string) string {
	t.Helper()
	chat := &domain.Chat{Name: "general"}
	require.NoError(t, f.chats.CreateChat(f.ctx, chat, admin))
	return chat.ID
}

func (f *fixture) role(t *testing.T, chatID, userID string) domain.Role {
	t.Helper()
	role, err := f.chats.GetRole(f.ctx, userID, chatID)
	require.NoError(t, err)
	return role
}

func TestCreateChatMakesCreatorAdmin(t *testing.T) {
	f := newFixture(t, "alice")
	chatID := f.groupChat(t, "alice")

	assert.Equal(t, domain.RoleAdmin, f.role(t, chatID, "alice"))

	chat, err := f.chats.GetChat(f.ctx, chatID)
	require.NoError(t, err)
	assert.False(t, chat.IsPersonal)
}

func TestCreateChatUnknownCreator(t *testing.T) {
	f := newFixture(t)
	err := f.chats.CreateChat(f.ctx, &domain.Chat{Name: "x"}, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMembershipRoleTransitions(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	chatID := f.groupChat(t, "alice")

	require.NoError(t, f.chats.AddMember(f.ctx, chatID, "bob"))
	assert.Equal(t, domain.RoleMember, f.role(t, chatID, "bob"))

	require.NoError(t, f.chats.Promote(f.ctx, chatID, "bob"))
	assert.Equal(t, domain.RoleAdmin, f.role(t, chatID, "bob"))

	// Idempotent.
	require.NoError(t, f.chats.Promote(f.ctx, chatID, "bob"))
	assert.Equal(t, domain.RoleAdmin, f.role(t, chatID, "bob"))

	require.NoError(t, f.chats.Demote(f.ctx, chatID, "bob"))
	assert.Equal(t, domain.RoleMember, f.role(t, chatID, "bob"))
	require.NoError(t, f.chats.Demote(f.ctx, chatID, "bob"))
	assert.Equal(t, domain.RoleMember, f.role(t, chatID, "bob"))
}

func TestAddMemberTwiceConflicts(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	chatID := f.groupChat(t, "alice")

	require.NoError(t, f.chats.AddMember(f.ctx, chatID, "bob"))
	err := f.chats.AddMember(f.ctx, chatID, "bob")
	assert.ErrorIs(t, err, ErrAlreadyMember)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestAddMemberMissingTargets(t *testing.T) {
	f := newFixture(t, "alice")
	chatID := f.groupChat(t, "alice")

	assert.ErrorIs(t, f.chats.AddMember(f.ctx, chatID, "ghost"), ErrUserNotFound)
	assert.ErrorIs(t, f.chats.AddMember(f.ctx, "no-such-chat", "alice"), ErrChatNotFound)
}

func TestPromoteDemoteWithoutMembership(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	chatID := f.groupChat(t, "alice")

	assert.ErrorIs(t, f.chats.Promote(f.ctx, chatID, "bob"), ErrMembershipNotFound)
	assert.ErrorIs(t, f.chats.Demote(f.ctx, chatID, "bob"), ErrMembershipNotFound)
	_, err := f.chats.GetRole(f.ctx, "bob", chatID)
	assert.ErrorIs(t, err, ErrMembershipNotFound)
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t, "alice", "bob", "carol")
	chatID := f.groupChat(t, "alice")
	require.NoError(t, f.chats.AddMember(f.ctx, chatID, "bob"))

	require.NoError(t, f.chats.RemoveMember(f.ctx, chatID, "bob"))
	_, err := f.chats.GetRole(f.ctx, "bob", chatID)
	assert.ErrorIs(t, err, ErrMembershipNotFound)

	assert.ErrorIs(t, f.chats.RemoveMember(f.ctx, chatID, "carol"), ErrMembershipNotFound)
}

func TestRemoveAdminIsIllegalState(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	chatID := f.groupChat(t, "alice")
	require.NoError(t, f.chats.AddMember(f.ctx, chatID, "bob"))
	require.NoError(t, f.chats.Promote(f.ctx, chatID, "bob"))

	err := f.chats.RemoveMember(f.ctx, chatID, "bob")
	assert.ErrorIs(t, err, ErrRemoveAdmin)
	assert.Equal(t, domain.KindIllegalState, domain.KindOf(err))
	assert.Equal(t, domain.RoleAdmin, f.role(t, chatID, "bob"))
}

func TestSoleAdminCannotLeave(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	chatID := f.groupChat(t, "alice")
	require.NoError(t, f.chats.AddMember(f.ctx, chatID, "bob"))

	err := f.chats.Leave(f.ctx, chatID, "alice")
	assert.ErrorIs(t, err, ErrLastAdmin)
	assert.Equal(t, domain.RoleAdmin, f.role(t, chatID, "alice"))

	require.NoError(t, f.chats.Promote(f.ctx, chatID, "bob"))
	require.NoError(t, f.chats.Leave(f.ctx, chatID, "alice"))
	_, err = f.chats.GetRole(f.ctx, "alice", chatID)
	assert.ErrorIs(t, err, ErrMembershipNotFound)
}

func TestMemberLeaveRemovesExactlyOneRow(t *testing.T) {
	f := newFixture(t, "alice", "bob", "carol")
	chatID := f.groupChat(t, "alice")
	require.NoError(t, f.chats.AddMember(f.ctx, chatID, "bob"))
	require.NoError(t, f.chats.AddMember(f.ctx, chatID, "carol"))

	require.NoError(t, f.chats.Leave(f.ctx, chatID, "bob"))

	members, err := f.chats.ListMembers(f.ctx, chatID)
	require.NoError(t, err)
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	assert.ElementsMatch(t, []string{"alice", "carol"}, ids)
}

func TestDemoteLastAdminConflicts(t *testing.T) {
	f := newFixture(t, "alice")
	chatID := f.groupChat(t, "alice")

	assert.ErrorIs(t, f.chats.Demote(f.ctx, chatID, "alice"), ErrLastAdmin)
	assert.Equal(t, domain.RoleAdmin, f.role(t, chatID, "alice"))
}

func TestPersonalChatUniqueness(t *testing.T) {
	f := newFixture(t, "alice", "bob")

	chat := &domain.Chat{Name: "dm"}
	require.NoError(t, f.chats.CreatePersonalChat(f.ctx, chat, "alice", "bob"))
	assert.Equal(t, domain.RoleAdmin, f.role(t, chat.ID, "alice"))
	assert.Equal(t, domain.RoleAdmin, f.role(t, chat.ID, "bob"))

	ids, err := f.chats.FindPersonalChats(f.ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{chat.ID}, ids)

	err = f.chats.CreatePersonalChat(f.ctx, &domain.Chat{Name: "dm"}, "bob", "alice")
	assert.ErrorIs(t, err, ErrPersonalChatExists)
}

func TestPersonalChatMembershipIsFrozen(t *testing.T) {
	f := newFixture(t, "alice", "bob", "carol")
	chat := &domain.Chat{Name: "dm"}
	require.NoError(t, f.chats.CreatePersonalChat(f.ctx, chat, "alice", "bob"))

	assert.ErrorIs(t, f.chats.AddMember(f.ctx, chat.ID, "carol"), ErrPersonalChatMembership)
	assert.ErrorIs(t, f.chats.Leave(f.ctx, chat.ID, "alice"), ErrPersonalChatMembership)
	assert.ErrorIs(t, f.chats.Demote(f.ctx, chat.ID, "bob"), ErrPersonalChatMembership)
	assert.ErrorIs(t, f.chats.RemoveMember(f.ctx, chat.ID, "bob"), ErrRemoveAdmin)

	members, err := f.chats.ListMembers(f.ctx, chat.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestListChatsNamesPersonalChatsAfterInterlocutor(t *testing.T) {
	f := newFixture(t, "alice", "bob")
	groupID := f.groupChat(t, "alice")
	dm := &domain.Chat{Name: "ignored"}
	require.NoError(t, f.chats.CreatePersonalChat(f.ctx, dm, "alice", "bob"))

	chats, err := f.chats.ListChatsForUser(f.ctx, "alice")
	require.NoError(t, err)
	require.Len(t, chats, 2)

	byID := map[string]domain.ChatSummary{}
	for _, c := range chats {
		byID[c.ID] = c
	}
	assert.Equal(t, "general", byID[groupID].Name)
	assert.Equal(t, "bob", byID[dm.ID].Name)
	assert.Equal(t, "bob", byID[dm.ID].InterlocutorID)

	bobChats, err := f.chats.ListChatsForUser(f.ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobChats, 1)
	assert.Equal(t, "alice", bobChats[0].Name)

	none, err := f.chats.ListChatsForUser(f.ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAppendMessageAssignsSequenceAndMonotonicTime(t *testing.T) {
	f := newFixture(t, "alice")
	chatID := f.groupChat(t, "alice")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first := &domain.ChatMessage{ChatID: chatID, SenderUserID: "alice", Content: "one"}
	require.NoError(t, f.chats.AppendMessage(f.ctx, first, base))

	// A clock step backwards must not reorder timestamps.
	second := &domain.ChatMessage{ChatID: chatID, SenderUserID: "alice", Content: "two"}
	require.NoError(t, f.chats.AppendMessage(f.ctx, second, base.Add(-time.Minute)))

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
	assert.False(t, second.Timestamp.Before(first.Timestamp))
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestAppendMessageUnknownChat(t *testing.T) {
	f := newFixture(t, "alice")
	err := f.chats.AppendMessage(f.ctx, &domain.ChatMessage{ChatID: "missing", Content: "x"}, time.Now())
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestRecentMessagesWindow(t *testing.T) {
	f := newFixture(t, "alice")
	chatID := f.groupChat(t, "alice")

	now := time.Now()
	for i := 0; i < 5; i++ {
		msg := &domain.ChatMessage{ChatID: chatID, SenderUserID: "alice", Content: strings.Repeat("x", i+1)}
		require.NoError(t, f.chats.AppendMessage(f.ctx, msg, now.Add(time.Duration(i)*time.Second)))
	}

	msgs, err := f.chats.RecentMessages(f.ctx, chatID, 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, []int64{3, 4, 5}, []int64{msgs[0].Seq, msgs[1].Seq, msgs[2].Seq})
	assert.Equal(t, "xxxxx", msgs[2].Content)
}

func TestConcurrentAppendsGetUniqueSequence(t *testing.T) {
	f := newFixture(t, "alice")
	chatID := f.groupChat(t, "alice")

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.chats.AppendMessage(f.ctx, &domain.ChatMessage{ChatID: chatID, SenderUserID: "alice", Content: "hi"}, time.Now())
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	msgs, err := f.chats.RecentMessages(f.ctx, chatID, 100)
	require.NoError(t, err)
	require.Len(t, msgs, n)
	for i, m := range msgs {
		assert.Equal(t, int64(i+1), m.Seq)
		if i > 0 {
			assert.False(t, m.Timestamp.Before(msgs[i-1].Timestamp))
		}
	}
}

func TestUserRepository(t *testing.T) {
	f := newFixture(t, "alice", "bob")

	t.Run("upsert keeps local username", func(t *testing.T) {
		require.NoError(t, f.users.UpdateUsername(f.ctx, "alice", "alice_w"))
		require.NoError(t, f.users.Upsert(f.ctx, &domain.User{ID: "alice", Username: "alice", Email: "new@example.com"}))

		u, err := f.users.GetByID(f.ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice_w", u.Username)
		assert.Equal(t, "new@example.com", u.Email)
		assert.Equal(t, domain.UserRoleUser, u.Role)
	})

	t.Run("username taken", func(t *testing.T) {
		err := f.users.UpdateUsername(f.ctx, "bob", "alice_w")
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("search escapes wildcards", func(t *testing.T) {
		users, err := f.users.Search(f.ctx, "ALI", 10)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "alice", users[0].ID)

		users, err = f.users.Search(f.ctx, "%", 10)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("avatar key swap", func(t *testing.T) {
		prev, err := f.users.SetAvatarKey(f.ctx, "bob", "avatars/bob/1.jpg")
		require.NoError(t, err)
		assert.Empty(t, prev)

		prev, err = f.users.SetAvatarKey(f.ctx, "bob", "")
		require.NoError(t, err)
		assert.Equal(t, "avatars/bob/1.jpg", prev)

		_, err = f.users.SetAvatarKey(f.ctx, "ghost", "k")
		assert.True(t, errors.Is(err, ErrUserNotFound))
	})
}
