package client

import (
	"context"
	"sync"
	"time"
)

// RateLimiter controls request pacing.
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// IntervalLimiter spaces requests at least Interval apart across all callers.
type IntervalLimiter struct {
	Interval time.Duration

	mu   sync.Mutex
	next time.Time
}

// NewIntervalLimiter returns a limiter allowing one request per interval.
func NewIntervalLimiter(interval time.Duration) *IntervalLimiter {
	return &IntervalLimiter{Interval: interval}
}

func (l *IntervalLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	slot := l.next
	if slot.Before(now) {
		slot = now
	}
	l.next = slot.Add(l.Interval)
	l.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
