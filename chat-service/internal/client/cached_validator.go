package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/bigseized/rksp-final/pkg/authn"
	"github.com/bigseized/rksp-final/pkg/log"
)

// CachedValidator caches successful validations in redis for a bounded TTL.
// Rejections and transport failures are never cached. Concurrent
// validations of one token share a single upstream call.
type CachedValidator struct {
	next   authn.Validator
	client *redis.Client
	ttl    time.Duration
	prefix string
	group  singleflight.Group
}

type cachedPrincipal struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles,omitempty"`
}

func NewCachedValidator(next authn.Validator, client *redis.Client, ttl time.Duration, prefix string) *CachedValidator {
	if prefix == "" {
		prefix = "chat:authcache"
	}
	return &CachedValidator{next: next, client: client, ttl: ttl, prefix: prefix}
}

func (v *CachedValidator) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return v.prefix + ":" + hex.EncodeToString(sum[:])
}

func (v *CachedValidator) Validate(ctx context.Context, token string) authn.Result {
	if token == "" {
		return authn.Invalid("missing token")
	}
	key := v.key(token)
	l := log.Ctx(ctx)

	if data, err := v.client.Get(ctx, key).Bytes(); err == nil {
		var p cachedPrincipal
		if err := json.Unmarshal(data, &p); err == nil {
			return authn.Result{Valid: true, UserID: p.UserID, Username: p.Username, Email: p.Email, Roles: p.Roles}
		}
		l.Warn().Str("key", key).Msg("discarding malformed cached principal")
	} else if err != redis.Nil {
		l.Warn().Err(err).Msg("token cache read failed")
	}

	// The shared call must not inherit one caller's cancellation.
	shared := context.WithoutCancel(ctx)
	res, _, _ := v.group.Do(key, func() (interface{}, error) {
		r := v.next.Validate(shared, token)
		if r.Valid {
			v.store(shared, key, r)
		}
		return r, nil
	})
	return res.(authn.Result)
}

func (v *CachedValidator) store(ctx context.Context, key string, r authn.Result) {
	data, err := json.Marshal(cachedPrincipal{UserID: r.UserID, Username: r.Username, Email: r.Email, Roles: r.Roles})
	if err != nil {
		return
	}
	if err := v.client.Set(ctx, key, data, v.ttl).Err(); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("token cache write failed")
	}
}
