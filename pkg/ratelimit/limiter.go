// Package ratelimit implements fixed-window request counters.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Store increments a counter that expires after ttl. Implementations must be
// safe for concurrent use.
type Store interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Rule is an allowance of Limit hits per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// Limiter applies rules against a Store.
type Limiter struct {
	store  Store
	prefix string
	now    func() time.Time
}

// Option customises a Limiter.
type Option func(*Limiter)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithPrefix namespaces the counter keys.
func WithPrefix(prefix string) Option {
	return func(l *Limiter) {
		l.prefix = prefix
	}
}

// New constructs a limiter over store.
func New(store Store, opts ...Option) *Limiter {
	l := &Limiter{store: store, prefix: "ratelimit", now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow counts one hit for subject within group and reports whether it fits the rule.
// The window is aligned to multiples of rule.Window since the Unix epoch.
func (l *Limiter) Allow(ctx context.Context, group, subject string, rule Rule) (Decision, error) {
	if rule.Limit <= 0 || rule.Window <= 0 {
		return Decision{Allowed: true}, nil
	}

	now := l.now()
	windowStart := now.Truncate(rule.Window)
	resetAt := windowStart.Add(rule.Window)
	key := fmt.Sprintf("%s:%s:%s:%d", l.prefix, group, subject, windowStart.Unix())

	count, err := l.store.Incr(ctx, key, resetAt.Sub(now))
	if err != nil {
		return Decision{}, fmt.Errorf("increment %s: %w", key, err)
	}

	remaining := rule.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	decision := Decision{
		Allowed:   count <= int64(rule.Limit),
		Limit:     rule.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
	if !decision.Allowed {
		decision.RetryAfter = resetAt.Sub(now)
	}
	return decision, nil
}
