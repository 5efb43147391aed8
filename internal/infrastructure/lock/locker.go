// Package lock provides the per-user mutual exclusion held around every balance change.
package lock

import (
	"context"
	"sync"
)

// Locker grants exclusive access to one user's balance. Acquire blocks until the lock is
// held or ctx ends, in which case it returns ErrLockFailed. The returned func releases it.
type Locker interface {
	Acquire(ctx context.Context, userID int64) (release func(), err error)
}

type userLock struct {
	ch   chan struct{}
	refs int
}

// LocalLocker is an in-process Locker. Entries are dropped once nobody holds or waits on them.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

var _ Locker = (*LocalLocker)(nil)

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[int64]*userLock)}
}

func (l *LocalLocker) Acquire(ctx context.Context, userID int64) (func(), error) {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{ch: make(chan struct{}, 1)}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	select {
	case ul.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(userID, ul)
		return nil, ErrLockFailed
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-ul.ch
			l.unref(userID, ul)
		})
	}, nil
}

func (l *LocalLocker) unref(userID int64, ul *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ul.refs--
	if ul.refs == 0 {
		delete(l.locks, userID)
	}
}

func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
