package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/bigseized/rksp-final/pkg/authn"
	"github.com/bigseized/rksp-final/pkg/log"
	pb "github.com/bigseized/rksp-final/proto/auth"
)

// AuthClient validates bearer tokens against the identity service. Each
// call is a single attempt; there is no retry and no caching.
type AuthClient struct {
	conn    *grpc.ClientConn
	client  pb.AuthServiceClient
	timeout time.Duration
}

func NewAuthClient(address string, timeout time.Duration, opts ...grpc.DialOption) (*AuthClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(log.UnaryClientInterceptor()),
	}, opts...)

	conn, err := grpc.Dial(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to auth service: %w", err)
	}

	return &AuthClient{
		conn:    conn,
		client:  pb.NewAuthServiceClient(conn),
		timeout: timeout,
	}, nil
}

// Validate never returns an error: transport failures come back as an
// invalid result with Unavailable set.
func (c *AuthClient) Validate(ctx context.Context, token string) authn.Result {
	if token == "" {
		return authn.Invalid("missing token")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.ValidateToken(ctx, &pb.ValidateTokenRequest{AccessToken: token})
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("token validation call failed")
		return authn.Result{Error: "identity service unavailable", Unavailable: true}
	}
	if !resp.GetValid() {
		reason := resp.GetErrorMessage()
		if reason == "" {
			reason = "invalid token"
		}
		return authn.Invalid(reason)
	}

	return authn.Result{
		Valid:    true,
		UserID:   resp.UserId,
		Username: resp.Username,
		Email:    resp.Email,
		Roles:    resp.Roles,
	}
}

func (c *AuthClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
