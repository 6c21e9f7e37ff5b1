package service

import (
	"context"

	"github.com/bigseized/rksp-final/auth-service/internal/domain"
	"github.com/bigseized/rksp-final/pkg/authn"
	"github.com/bigseized/rksp-final/pkg/jwt"
)

// AccountService registers accounts and issues tokens for them.
type AccountService interface {
	authn.Validator
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	Refresh(ctx context.Context, req *domain.RefreshRequest) (*domain.AuthResponse, error)
	Logout(ctx context.Context, userID string) error
	Me(ctx context.Context, userID string) (*domain.Account, error)
}

// TokenIssuer is the part of jwt.Manager the account service needs.
type TokenIssuer interface {
	GenerateTokenPair(userID, email, username string, roles []string) (*jwt.TokenPair, error)
	ValidateAccessToken(token string) (*jwt.Claims, error)
	RefreshTokens(refreshToken string) (*jwt.TokenPair, error)
	RevokeUserTokens(userID string)
}
