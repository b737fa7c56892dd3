// Package lock serializes offense counting and violation creation per user
// and section. Evaluations run unlocked unless a Locker is configured.
package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/heibot/sanction"
)

// Locker acquires a named lock. The returned unlock func is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Key builds the lock key for one user's offense window in a section.
func Key(guildID, userID string, section sanction.RuleSection) string {
	return fmt.Sprintf("%s/%s/%d", guildID, userID, int(section))
}

// Nop never blocks.
type Nop struct{}

// Lock returns immediately.
func (Nop) Lock(ctx context.Context, key string) (func(), error) {
	return func() {}, nil
}

// MemLocker is an in-process keyed mutex.
type MemLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

// NewMemLocker creates an empty MemLocker.
func NewMemLocker() *MemLocker {
	return &MemLocker{held: make(map[string]chan struct{})}
}

// Lock waits for key until it is free or ctx is done.
func (l *MemLocker) Lock(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		wait, busy := l.held[key]
		if !busy {
			done := make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, key)
					l.mu.Unlock()
					close(done)
				})
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", sanction.ErrLockNotAcquired, key, ctx.Err())
		}
	}
}
