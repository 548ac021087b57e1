package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var ErrLockTimeout = errors.New("lock: timed out waiting for lock")

const (
	keyPrefix    = "stock-ledger:lock:"
	pollInterval = 25 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token, so an expired lock taken over by
// another instance is left alone.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisLocker is a SET NX lease per key. A holder that dies loses the lock once ttl passes.
type RedisLocker struct {
	client redisClient
	ttl    time.Duration
	wait   time.Duration
}

func NewRedisLocker(client redisClient, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, wait: wait}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	k := keyPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to acquire lock %s", key)
		}
		if ok {
			break
		}
		if !time.Now().Before(deadline) {
			return nil, errors.Wrapf(ErrLockTimeout, "key %s", key)
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "waiting for lock %s", key)
		case <-time.After(pollInterval):
		}
	}

	return func() {
		// the caller's context may already be done by the time it unlocks
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := l.client.Eval(ctx, releaseScript, []string{k}, token).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to release lock, it will expire")
		}
	}, nil
}
