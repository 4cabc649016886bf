// Package leadlock serializes writes for the same lead email.
//
// The upsert reads the whole table and then updates or appends, so two
// concurrent submissions for one address could both append. Holding a lock per
// email across that read-modify-write closes the gap. Local covers a single
// server process; Redis covers several instances sharing one store.
package leadlock

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrLockTimeout indicates the lock could not be acquired within the wait budget.
var ErrLockTimeout = errors.New("lead lock: timed out waiting for lock")

// Locker acquires a lock for key. The returned release func must be called
// exactly once; it is safe to call from any goroutine.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// Key normalizes an email into a lock key.
func Key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Local is an in-process keyed mutex. Entries are dropped once no goroutine
// holds or waits for them.
type Local struct {
	mu    sync.Mutex
	locks map[string]*localEntry
}

type localEntry struct {
	sem  chan struct{}
	refs int
}

// NewLocal constructs an empty Local locker.
func NewLocal() *Local {
	return &Local{locks: make(map[string]*localEntry)}
}

// Lock implements Locker. It blocks until the key is free or ctx is done.
func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	key = Key(key)
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &localEntry{sem: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			l.drop(key, entry)
		})
	}, nil
}

func (l *Local) drop(key string, entry *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}

// size reports tracked keys; used by tests.
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
