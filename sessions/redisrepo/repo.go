// Package redisrepo is the Redis-backed sessions.Repo. Records live
// under "session:<token>" as the encoded session string; expiry is left
// to Redis via the TTL on each write.
package redisrepo

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quizsystem/web-module/internal/errors"
	"github.com/quizsystem/web-module/sessions"
)

const keyPrefix = "session:"

var _ sessions.Repo = (*Repo)(nil)

type Repo struct {
	redis redis.UniversalClient
}

func New(redisClient redis.UniversalClient) *Repo {
	return &Repo{redis: redisClient}
}

func (r *Repo) key(sessionToken string) string {
	return keyPrefix + sessionToken
}

func (r *Repo) Get(ctx context.Context, sessionToken string) (string, error) {
	value, err := r.redis.Get(ctx, r.key(sessionToken)).Result()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return "", errors.ErrSessionNotFound
		}
		return "", fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return value, nil
}

// Set writes the full encoded record in one SET. Last write wins under
// concurrency, matching the single-record session model.
func (r *Repo) Set(ctx context.Context, sessionToken string, value string, ttl time.Duration) error {
	if err := r.redis.Set(ctx, r.key(sessionToken), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return nil
}

// Ping reports store availability and round-trip latency.
func (r *Repo) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}
