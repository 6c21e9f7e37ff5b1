package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bigseized/rksp-final/auth-service/internal/audit"
	"github.com/bigseized/rksp-final/pkg/jwt"
	"github.com/bigseized/rksp-final/pkg/log"
	pb "github.com/bigseized/rksp-final/proto/auth"
)

// TokenServer exposes the JWT manager as the AuthService RPC contract.
// Rejections are reported in the response body; only malformed requests
// produce an RPC error.
type TokenServer struct {
	pb.UnimplementedAuthServiceServer
	manager *jwt.Manager
}

func NewTokenServer(manager *jwt.Manager) *TokenServer {
	return &TokenServer{manager: manager}
}

func (s *TokenServer) GenerateTokens(ctx context.Context, req *pb.GenerateTokensRequest) (*pb.GenerateTokensResponse, error) {
	if req.UserId == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}

	pair, err := s.manager.GenerateTokenPair(req.UserId, req.Email, req.Username, req.Roles)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldUserID, req.UserId).Msg("failed to generate tokens")
		return nil, status.Error(codes.Internal, "failed to generate tokens")
	}

	return &pb.GenerateTokensResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}, nil
}

func (s *TokenServer) ValidateToken(ctx context.Context, req *pb.ValidateTokenRequest) (*pb.ValidateTokenResponse, error) {
	claims, err := s.manager.ValidateAccessToken(req.AccessToken)
	if err != nil {
		l := log.Ctx(ctx)
		l.Debug().Err(err).Msg("token rejected")
		return &pb.ValidateTokenResponse{Valid: false, ErrorMessage: err.Error()}, nil
	}

	return &pb.ValidateTokenResponse{
		Valid:    true,
		UserId:   claims.UserID,
		Email:    claims.Email,
		Username: claims.Username,
		Roles:    claims.Roles,
	}, nil
}

func (s *TokenServer) RefreshToken(ctx context.Context, req *pb.RefreshTokenRequest) (*pb.RefreshTokenResponse, error) {
	pair, err := s.manager.RefreshTokens(req.RefreshToken)
	if err != nil {
		return &pb.RefreshTokenResponse{ErrorMessage: err.Error()}, nil
	}

	return &pb.RefreshTokenResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}, nil
}

func (s *TokenServer) RevokeTokens(ctx context.Context, req *pb.RevokeTokensRequest) (*pb.RevokeTokensResponse, error) {
	if req.UserId == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}
	s.manager.RevokeUserTokens(req.UserId)
	audit.Log(ctx, audit.ActionRevoke, req.UserId, "tokens revoked")
	return &pb.RevokeTokensResponse{Success: true}, nil
}
