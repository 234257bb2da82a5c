// Package lock implements the named DistributedLock contract from §4.3: at
// most one holder per name, a wait timeout, a held-duration TTL that
// auto-releases, and at-most-once execution of the guarded body per lock
// generation (the single-flight law tested in §8).
package lock

import (
	"context"
	"sync"
	"time"

	resolvererrors "github.com/streamforge/resolver/internal/errors"
	"golang.org/x/sync/singleflight"
)

// DistributedLock coalesces concurrent callers for the same name into one
// execution of the guarded function, within a process. Keys are never
// cluster-wide in this build; the contract is written so a Redis-backed
// implementation could satisfy the same interface.
type DistributedLock struct {
	group singleflight.Group

	mu      sync.Mutex
	expires map[string]time.Time
}

// New creates an empty lock registry.
func New() *DistributedLock {
	return &DistributedLock{expires: map[string]time.Time{}}
}

// Options configure one WithLock call.
type Options struct {
	Timeout       time.Duration // caps how long a waiting caller blocks
	TTL           time.Duration // caps how long a holder may run before forced release
	RetryInterval time.Duration
}

// WithLock invokes body at most once per lock generation for name. Callers
// that arrive while body is running share its result. If acquisition
// doesn't happen within Timeout, returns a LOCK_TIMEOUT DebridError.
func (l *DistributedLock) WithLock(ctx context.Context, name string, opts Options, body func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if l.isExpiredHeld(name) {
		l.forget(name)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if opts.TTL > 0 {
		runCtx, cancel = context.WithTimeout(ctx, opts.TTL)
		defer cancel()
	}

	l.markHeld(name, opts.TTL)
	defer l.forget(name)

	type result struct {
		v   interface{}
		err error
	}

	done := make(chan result, 1)
	go func() {
		v, err, _ := l.group.Do(name, func() (interface{}, error) {
			return body(runCtx)
		})
		done <- result{v, err}
	}()

	var timeoutCh <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case r := <-done:
		return r.v, r.err
	case <-timeoutCh:
		return nil, resolvererrors.NewDebridError(resolvererrors.DebridLockTimeout, "timed out waiting for lock "+name)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *DistributedLock) markHeld(name string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expires[name] = time.Now().Add(ttl)
}

func (l *DistributedLock) isExpiredHeld(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	exp, ok := l.expires[name]
	return ok && time.Now().After(exp)
}

func (l *DistributedLock) forget(name string) {
	l.mu.Lock()
	delete(l.expires, name)
	l.mu.Unlock()
	l.group.Forget(name)
}
