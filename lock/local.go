// Package lock serializes the load, mutate and store cycle for one product.
package lock

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// LocalLocker holds one mutex per key for as long as anybody holds or waits for it. It only protects a single
// process; run the Redis locker when several instances share a database.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*keyLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	k, ok := l.locks[key]
	if !ok {
		k = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = k
	}
	k.refs++
	l.mu.Unlock()

	select {
	case k.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, k, false)
		return nil, errors.Wrapf(ctx.Err(), "waiting for lock %s", key)
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(key, k, true) }) }, nil
}

func (l *LocalLocker) release(key string, k *keyLock, held bool) {
	if held {
		<-k.ch
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	k.refs--
	if k.refs == 0 {
		delete(l.locks, key)
	}
}
