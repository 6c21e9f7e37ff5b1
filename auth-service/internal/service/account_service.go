package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/bigseized/rksp-final/auth-service/internal/audit"
	"github.com/bigseized/rksp-final/auth-service/internal/domain"
	"github.com/bigseized/rksp-final/auth-service/internal/repository"
	"github.com/bigseized/rksp-final/pkg/authn"
	"github.com/bigseized/rksp-final/pkg/jwt"
	"github.com/bigseized/rksp-final/pkg/log"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrAccountNotFound    = errors.New("account not found")
	ErrWeakPassword       = errors.New("password is too short")
	ErrBlankUsername      = errors.New("username must not be blank")
)

// Options tunes credential handling.
type Options struct {
	BcryptCost        int
	MinPasswordLength int
}

type accountService struct {
	repo   repository.AccountRepository
	tokens TokenIssuer
	opts   Options
}

// NewAccountService creates a new account service.
func NewAccountService(repo repository.AccountRepository, tokens TokenIssuer, opts Options) AccountService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &accountService{repo: repo, tokens: tokens, opts: opts}
}

// Register creates an account with the USER role and logs it in.
func (s *accountService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, ErrBlankUsername
	}
	if utf8.RuneCountInString(req.Password) < s.opts.MinPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.opts.BcryptCost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	account := &domain.Account{
		Email:        normalizeEmail(req.Email),
		Username:     username,
		PasswordHash: string(hash),
		Roles:        []string{domain.RoleUser},
	}
	if err := s.repo.Create(ctx, account); err != nil {
		if !errors.Is(err, repository.ErrEmailExists) {
			l.Error().Err(err).Msg("failed to create account")
		}
		return nil, err
	}

	audit.Log(ctx, audit.ActionRegister, account.ID, "account registered")
	return s.issue(ctx, account)
}

// Login checks the password and returns a fresh token pair.
func (s *accountService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)
	email := normalizeEmail(req.Email)

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			audit.LogWithDetail(ctx, audit.ActionLoginFailed, "", email, "login failed: unknown email")
			return nil, ErrInvalidCredentials
		}
		l.Error().Err(err).Msg("failed to get account by email")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		audit.LogWithDetail(ctx, audit.ActionLoginFailed, account.ID, email, "login failed: wrong password")
		return nil, ErrInvalidCredentials
	}

	audit.Log(ctx, audit.ActionLogin, account.ID, "account logged in")
	return s.issue(ctx, account)
}

// Refresh trades a refresh token for a new pair. The account must still exist.
func (s *accountService) Refresh(ctx context.Context, req *domain.RefreshRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	pair, err := s.tokens.RefreshTokens(req.RefreshToken)
	if err != nil {
		l.Debug().Err(err).Msg("refresh rejected")
		return nil, ErrInvalidToken
	}
	claims, err := s.tokens.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	account, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrInvalidToken
		}
		l.Error().Err(err).Str(log.FieldUserID, claims.UserID).Msg("failed to load account after refresh")
		return nil, err
	}

	audit.Log(ctx, audit.ActionRefreshToken, account.ID, "token refreshed")
	return &domain.AuthResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.AccessExpiresAt,
		User:         account,
	}, nil
}

// Logout revokes every token issued to the account so far.
func (s *accountService) Logout(ctx context.Context, userID string) error {
	s.tokens.RevokeUserTokens(userID)
	audit.Log(ctx, audit.ActionLogout, userID, "account logged out")
	return nil
}

func (s *accountService) Me(ctx context.Context, userID string) (*domain.Account, error) {
	account, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// Validate checks an access token locally. It never reports Unavailable.
func (s *accountService) Validate(ctx context.Context, token string) authn.Result {
	claims, err := s.tokens.ValidateAccessToken(token)
	if err != nil {
		return authn.Invalid(err.Error())
	}
	return ResultFromClaims(claims)
}

// ResultFromClaims converts verified claims into a validation result.
func ResultFromClaims(c *jwt.Claims) authn.Result {
	return authn.Result{
		Valid:    true,
		UserID:   c.UserID,
		Username: c.Username,
		Email:    c.Email,
		Roles:    c.Roles,
	}
}

func (s *accountService) issue(ctx context.Context, account *domain.Account) (*domain.AuthResponse, error) {
	pair, err := s.tokens.GenerateTokenPair(account.ID, account.Email, account.Username, account.Roles)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldUserID, account.ID).Msg("failed to generate tokens")
		return nil, err
	}
	return &domain.AuthResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.AccessExpiresAt,
		User:         account,
	}, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
