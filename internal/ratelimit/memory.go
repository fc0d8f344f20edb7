package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is a fixed-window counter held in process memory.
// Suitable for single-instance deployments; multi-instance setups
// should use the Redis backend instead.
type MemoryLimiter struct {
	mu      sync.Mutex
	burst   int
	buckets map[string]*bucket
}

type bucket struct {
	count       int
	windowStart time.Time
}

// NewMemoryLimiter creates an in-memory rate limiter
func NewMemoryLimiter(burst int) *MemoryLimiter {
	return &MemoryLimiter{
		burst:   burst,
		buckets: make(map[string]*bucket),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int) (bool, int, time.Time, error) {
	now := time.Now()
	windowStart := now.Truncate(time.Minute)
	windowEnd := windowStart.Add(time.Minute)

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || b.windowStart.Before(windowStart) {
		b = &bucket{windowStart: windowStart}
		l.buckets[key] = b
	}
	b.count++

	l.pruneLocked(windowStart)

	max := limit + l.burst
	remaining := max - b.count
	if remaining < 0 {
		remaining = 0
	}
	return b.count <= max, remaining, windowEnd, nil
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
	return nil
}

// pruneLocked drops buckets from past windows. Caller holds the lock.
func (l *MemoryLimiter) pruneLocked(windowStart time.Time) {
	for key, b := range l.buckets {
		if b.windowStart.Before(windowStart) {
			delete(l.buckets, key)
		}
	}
}
