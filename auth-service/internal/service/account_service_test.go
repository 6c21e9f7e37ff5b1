package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bigseized/rksp-final/auth-service/internal/domain"
	"github.com/bigseized/rksp-final/auth-service/internal/repository"
	"github.com/bigseized/rksp-final/pkg/database"
	"github.com/bigseized/rksp-final/pkg/jwt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestService(t *testing.T) (AccountService, *repository.GormAccountRepository) {
	t.Helper()
	db, err := database.New(&database.Config{Driver: "sqlite", FilePath: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, &domain.AccountModel{}))

	manager, err := jwt.NewManager(testSecret, 15*time.Minute, time.Hour, "test")
	require.NoError(t, err)

	repo := repository.NewGormAccountRepository(db)
	return NewAccountService(repo, manager, Options{BcryptCost: bcrypt.MinCost, MinPasswordLength: 6}), repo
}

func register(t *testing.T, svc AccountService, email, username string) *domain.AuthResponse {
	t.Helper()
	res, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email: email, Password: "secret-pw", Username: username,
	})
	require.NoError(t, err)
	return res
}

func TestRegisterIssuesValidToken(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	res := register(t, svc, "Alice@Example.com ", "alice")
	require.NotEmpty(t, res.Token)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.Equal(t, []string{domain.RoleUser}, res.User.Roles)

	stored, err := repo.GetByID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret-pw", stored.PasswordHash)

	v := svc.Validate(ctx, res.Token)
	require.True(t, v.Valid)
	assert.Equal(t, res.User.ID, v.UserID)
	assert.Equal(t, "alice", v.Username)
	assert.Equal(t, "alice@example.com", v.Email)
}

func TestRegisterRejects(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "a@example.com", "alice")

	_, err := svc.Register(ctx, &domain.RegisterRequest{Email: "A@example.com", Password: "secret-pw", Username: "other"})
	assert.ErrorIs(t, err, repository.ErrEmailExists)

	_, err = svc.Register(ctx, &domain.RegisterRequest{Email: "b@example.com", Password: "123", Username: "bob"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.Register(ctx, &domain.RegisterRequest{Email: "c@example.com", Password: "secret-pw", Username: "   "})
	assert.ErrorIs(t, err, ErrBlankUsername)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	reg := register(t, svc, "a@example.com", "alice")

	res, err := svc.Login(ctx, &domain.LoginRequest{Email: "a@example.com", Password: "secret-pw"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)

	_, err = svc.Login(ctx, &domain.LoginRequest{Email: "a@example.com", Password: "wrong-pw"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &domain.LoginRequest{Email: "nobody@example.com", Password: "secret-pw"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshAndLogout(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	reg := register(t, svc, "a@example.com", "alice")

	refreshed, err := svc.Refresh(ctx, &domain.RefreshRequest{RefreshToken: reg.RefreshToken})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, refreshed.User.ID)

	_, err = svc.Refresh(ctx, &domain.RefreshRequest{RefreshToken: reg.Token})
	assert.ErrorIs(t, err, ErrInvalidToken, "access token is not a refresh token")

	require.NoError(t, svc.Logout(ctx, reg.User.ID))
	assert.False(t, svc.Validate(ctx, reg.Token).Valid)
	_, err = svc.Refresh(ctx, &domain.RefreshRequest{RefreshToken: reg.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoginRightAfterLogout(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	reg := register(t, svc, "a@example.com", "alice")

	require.NoError(t, svc.Logout(ctx, reg.User.ID))
	res, err := svc.Login(ctx, &domain.LoginRequest{Email: "a@example.com", Password: "secret-pw"})
	require.NoError(t, err)

	v := svc.Validate(ctx, res.Token)
	assert.True(t, v.Valid, v.Error)
	assert.False(t, svc.Validate(ctx, reg.Token).Valid)
}

func TestMe(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	reg := register(t, svc, "a@example.com", "alice")

	me, err := svc.Me(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)

	_, err = svc.Me(ctx, "missing")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
