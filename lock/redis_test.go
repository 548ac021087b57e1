package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	mu     sync.Mutex
	values map[string]string
	evals  int
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string]string)}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.values[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Eval(_ context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evals++
	if f.values[keys[0]] == args[0].(string) {
		delete(f.values, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

func TestRedisLockerAcquireAndRelease(t *testing.T) {
	client := newFakeRedis()
	l := NewRedisLocker(client, time.Second, 50*time.Millisecond)

	unlock, err := l.Lock(context.Background(), "P-1")
	require.NoError(t, err)
	assert.Contains(t, client.values, keyPrefix+"P-1")

	unlock()
	assert.NotContains(t, client.values, keyPrefix+"P-1")
	assert.Equal(t, 1, client.evals)
}

func TestRedisLockerTimesOut(t *testing.T) {
	client := newFakeRedis()
	l := NewRedisLocker(client, time.Second, 50*time.Millisecond)

	unlock, err := l.Lock(context.Background(), "P-1")
	require.NoError(t, err)
	defer unlock()

	_, err = l.Lock(context.Background(), "P-1")
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestRedisLockerLeavesForeignLease(t *testing.T) {
	client := newFakeRedis()
	l := NewRedisLocker(client, time.Second, 50*time.Millisecond)

	unlock, err := l.Lock(context.Background(), "P-1")
	require.NoError(t, err)

	// our lease expired and another instance took the key
	client.values[keyPrefix+"P-1"] = "someone-else"
	unlock()
	assert.Equal(t, "someone-else", client.values[keyPrefix+"P-1"])
}

func TestRedisLockerClientError(t *testing.T) {
	client := newFakeRedis()
	client.err = redis.ErrClosed
	l := NewRedisLocker(client, time.Second, 50*time.Millisecond)

	_, err := l.Lock(context.Background(), "P-1")
	assert.ErrorIs(t, err, redis.ErrClosed)
}
