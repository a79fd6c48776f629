// Package lock provides ItemLocker implementations that serialize stock
// movements per item.
package lock

import (
	"context"
	"sync"

	"github.com/stockledger/backend/internal/domain/shared"
)

// keyedMutex is a reference counted channel semaphore so an idle key can be dropped
type keyedMutex struct {
	ch   chan struct{}
	refs int
}

// LocalLocker serializes holders of the same key within one process
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedMutex
}

// NewLocalLocker creates an in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*keyedMutex)}
}

// Lock blocks until key is free or ctx is done.
// A cancelled wait reports shared.ErrConcurrencyConflict.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	km, ok := l.locks[key]
	if !ok {
		km = &keyedMutex{ch: make(chan struct{}, 1)}
		l.locks[key] = km
	}
	km.refs++
	l.mu.Unlock()

	select {
	case km.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, km)
		return nil, shared.ErrConcurrencyConflict
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-km.ch
			l.unref(key, km)
		})
	}, nil
}

func (l *LocalLocker) unref(key string, km *keyedMutex) {
	l.mu.Lock()
	defer l.mu.Unlock()
	km.refs--
	if km.refs == 0 {
		delete(l.locks, key)
	}
}

// Len returns the number of keys currently held or awaited
func (l *LocalLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
