package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"underwriting-engine/internal/domain/underwriting"
	"underwriting-engine/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockKeyPrefix      = "underwriting:lock:"
	defaultLockTTL     = 10 * time.Second
	lockRetryInterval  = 50 * time.Millisecond
	defaultLockTimeout = 2 * time.Second
)

// releaseScript deletes the lock only if it is still held by the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var errLockLost = errors.New("lock expired before release")

type OriginationLocker struct {
	client      *redis.Client
	ttl         time.Duration
	waitTimeout time.Duration
	logger      *slog.Logger
}

var _ underwriting.Locker = (*OriginationLocker)(nil)

func NewOriginationLocker(client *redis.Client, ttl time.Duration, logger *slog.Logger) *OriginationLocker {
	if client == nil {
		panic("redis client cannot be nil for OriginationLocker")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OriginationLocker{
		client:      client,
		ttl:         ttl,
		waitTimeout: defaultLockTimeout,
		logger:      logger.With("component", "OriginationLocker"),
	}
}

// Acquire polls SET NX until the key is free or the wait timeout passes.
func (l *OriginationLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	redisKey := lockKeyPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.waitTimeout)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			l.logger.ErrorContext(ctx, "Failed to acquire lock", "key", redisKey, "error", err)
			return nil, fmt.Errorf("%w: acquire lock %s: %w", apperrors.ErrUnavailable, key, err)
		}
		if ok {
			l.logger.DebugContext(ctx, "Lock acquired", "key", redisKey)
			return l.releaser(redisKey, token), nil
		}

		if time.Now().After(deadline) {
			l.logger.WarnContext(ctx, "Timed out waiting for lock", "key", redisKey)
			return nil, fmt.Errorf("%w: lock %s is held by another request", apperrors.ErrUnavailable, key)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

func (l *OriginationLocker) releaser(redisKey, token string) func(context.Context) error {
	return func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int()
		if err != nil {
			l.logger.ErrorContext(ctx, "Failed to release lock", "key", redisKey, "error", err)
			return fmt.Errorf("release lock %s: %w", redisKey, err)
		}
		if n == 0 {
			l.logger.WarnContext(ctx, "Lock was no longer held at release", "key", redisKey)
			return errLockLost
		}
		return nil
	}
}
