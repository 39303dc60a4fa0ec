// Package throttle locks out clients that fail to log in too often.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidLimits = errors.New("throttle limits must be positive")

// Store keeps failure counters and locks. Implementations must be safe for
// concurrent use and expire entries on their own.
type Store interface {
	// Increment counts a failure for key and returns the count within the
	// current window. The window starts at the first failure.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	// Lock locks key for d.
	Lock(ctx context.Context, key string, d time.Duration) error
	// LockedFor returns how long key stays locked, or zero.
	LockedFor(ctx context.Context, key string) (time.Duration, error)
	// Reset forgets the failures and the lock of key.
	Reset(ctx context.Context, key string) error
}

// Limits configures a Limiter.
type Limits struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

// Limiter applies Limits on top of a Store.
type Limiter struct {
	store  Store
	limits Limits
}

func NewLimiter(store Store, limits Limits) (*Limiter, error) {
	if limits.MaxAttempts <= 0 || limits.Window <= 0 || limits.Lockout <= 0 {
		return nil, ErrInvalidLimits
	}
	return &Limiter{store: store, limits: limits}, nil
}

// Check returns the remaining lock time of key, or zero when key may try.
func (l *Limiter) Check(ctx context.Context, key string) (time.Duration, error) {
	retryAfter, err := l.store.LockedFor(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("checking lock: %w", err)
	}
	return retryAfter, nil
}

// Fail records a failed attempt and returns how many attempts are left
// before key is locked. Reaching the limit locks key; further failures in the
// same window extend the lock.
func (l *Limiter) Fail(ctx context.Context, key string) (int, error) {
	count, err := l.store.Increment(ctx, key, l.limits.Window)
	if err != nil {
		return 0, fmt.Errorf("counting failure: %w", err)
	}

	if count < int64(l.limits.MaxAttempts) {
		return l.limits.MaxAttempts - int(count), nil
	}

	if err := l.store.Lock(ctx, key, l.limits.Lockout); err != nil {
		return 0, fmt.Errorf("locking: %w", err)
	}
	return 0, nil
}

// Reset clears key after a successful login.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if err := l.store.Reset(ctx, key); err != nil {
		return fmt.Errorf("resetting: %w", err)
	}
	return nil
}
