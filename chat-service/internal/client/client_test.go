package client

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/bigseized/rksp-final/pkg/authn"
	pb "github.com/bigseized/rksp-final/proto/auth"
)

type fakeAuthServer struct {
	pb.UnimplementedAuthServiceServer
	calls atomic.Int32
}

func (s *fakeAuthServer) ValidateToken(_ context.Context, req *pb.ValidateTokenRequest) (*pb.ValidateTokenResponse, error) {
	s.calls.Add(1)
	if req.AccessToken != "good" {
		return &pb.ValidateTokenResponse{Valid: false, ErrorMessage: "token expired"}, nil
	}
	return &pb.ValidateTokenResponse{
		Valid:    true,
		UserId:   "u-1",
		Username: "alice",
		Email:    "alice@example.com",
		Roles:    []string{"user"},
	}, nil
}

func dialer(lis *bufconn.Listener) grpc.DialOption {
	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
}

func startAuthServer(t *testing.T) (*fakeAuthServer, *bufconn.Listener) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	fake := &fakeAuthServer{}
	pb.RegisterAuthServiceServer(srv, fake)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)
	return fake, lis
}

func TestAuthClientValidate(t *testing.T) {
	_, lis := startAuthServer(t)
	c, err := NewAuthClient("bufnet", time.Second, dialer(lis))
	require.NoError(t, err)
	defer c.Close()

	res := c.Validate(context.Background(), "good")
	assert.True(t, res.Valid)
	assert.Equal(t, "u-1", res.UserID)
	assert.Equal(t, "alice", res.Username)
	assert.Equal(t, "alice@example.com", res.Email)

	res = c.Validate(context.Background(), "bad")
	assert.False(t, res.Valid)
	assert.False(t, res.Unavailable)
	assert.Equal(t, "token expired", res.Error)

	res = c.Validate(context.Background(), "")
	assert.False(t, res.Valid)
}

func TestAuthClientUnavailable(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	require.NoError(t, lis.Close())

	c, err := NewAuthClient("bufnet", 500*time.Millisecond, dialer(lis))
	require.NoError(t, err)
	defer c.Close()

	res := c.Validate(context.Background(), "good")
	assert.False(t, res.Valid)
	assert.True(t, res.Unavailable)
	assert.NotEmpty(t, res.Error)
}

type countingValidator struct {
	calls atomic.Int32
	delay time.Duration
	res   authn.Result
}

func (v *countingValidator) Validate(context.Context, string) authn.Result {
	v.calls.Add(1)
	time.Sleep(v.delay)
	return v.res
}

func newCache(t *testing.T, next authn.Validator) (*CachedValidator, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewCachedValidator(next, rdb, time.Minute, "test"), mr
}

func TestCachedValidatorCachesValidResults(t *testing.T) {
	next := &countingValidator{res: authn.Result{Valid: true, UserID: "u-1", Username: "alice"}}
	v, mr := newCache(t, next)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res := v.Validate(ctx, "tok")
		require.True(t, res.Valid)
		assert.Equal(t, "alice", res.Username)
	}
	assert.Equal(t, int32(1), next.calls.Load())

	// Raw tokens are never stored as keys.
	for _, k := range mr.Keys() {
		assert.NotContains(t, k, "tok")
	}

	mr.FastForward(2 * time.Minute)
	v.Validate(ctx, "tok")
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachedValidatorSkipsFailures(t *testing.T) {
	next := &countingValidator{res: authn.Result{Error: "down", Unavailable: true}}
	v, mr := newCache(t, next)

	v.Validate(context.Background(), "tok")
	v.Validate(context.Background(), "tok")
	assert.Equal(t, int32(2), next.calls.Load())
	assert.Empty(t, mr.Keys())
}

func TestCachedValidatorCollapsesConcurrentCalls(t *testing.T) {
	next := &countingValidator{delay: 100 * time.Millisecond, res: authn.Result{Valid: true, UserID: "u-1"}}
	v, _ := newCache(t, next)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, v.Validate(context.Background(), "tok").Valid)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), next.calls.Load())
}

type gatedValidator struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (v *gatedValidator) Validate(ctx context.Context, _ string) authn.Result {
	v.once.Do(func() { close(v.started) })
	<-v.release
	if err := ctx.Err(); err != nil {
		return authn.Result{Error: err.Error(), Unavailable: true}
	}
	return authn.Result{Valid: true, UserID: "u-1"}
}

func TestCachedValidatorIgnoresFirstCallerCancel(t *testing.T) {
	next := &gatedValidator{started: make(chan struct{}), release: make(chan struct{})}
	v, _ := newCache(t, next)

	first, cancel := context.WithCancel(context.Background())
	results := make(chan authn.Result, 2)
	go func() { results <- v.Validate(first, "tok") }()
	<-next.started
	go func() { results <- v.Validate(context.Background(), "tok") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	close(next.release)

	for i := 0; i < 2; i++ {
		res := <-results
		assert.True(t, res.Valid, res.Error)
	}
}
