// Package ratelimit implements fixed-window admission control per client
// identity. Counter state lives in an injectable Store: MemoryStore for a
// single process, sqlite.RateWindowStore when several processes on one host
// must share quotas.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultLimit is the number of admits allowed per window.
	DefaultLimit = 5
	// DefaultWindow is the fixed window length.
	DefaultWindow = 60 * time.Second
	// UnknownIdentity is the shared bucket for callers with no identity.
	UnknownIdentity = "unknown"
)

// Store applies one fixed-window hit for identity and returns the count
// after the hit. The read-modify-write must be atomic per identity:
// a missing window starts at now with count 1; a window older than
// window restarts at now with count 1; otherwise the count is incremented.
type Store interface {
	Hit(ctx context.Context, identity string, now time.Time, window time.Duration) (int, error)
}

// Limiter admits at most limit calls per identity per window.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLimit overrides DefaultLimit.
func WithLimit(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.limit = n
		}
	}
}

// WithWindow overrides DefaultWindow.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

// WithClock replaces time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a Limiter over store.
func New(store Store, opts ...Option) *Limiter {
	l := &Limiter{store: store, limit: DefaultLimit, window: DefaultWindow, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit counts the call and reports whether it is within quota. The call
// that crosses the limit is itself counted and rejected.
func (l *Limiter) Admit(ctx context.Context, identity string) (bool, error) {
	if identity == "" {
		identity = UnknownIdentity
	}
	count, err := l.store.Hit(ctx, identity, l.now(), l.window)
	if err != nil {
		return false, fmt.Errorf("ratelimit: hit %q: %w", identity, err)
	}
	return count <= l.limit, nil
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration { return l.window }
