// Package ratelimit throttles mutating calls against the remote store.
// All mutating call sites (category create, product create/update, media
// upload) share one limiter with no priority between call types.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Algorithm selects the rate limiting strategy.
type Algorithm string

const (
	// AlgorithmSlidingWindow grants at most N permits in any rolling window
	// of length W. This is the default and matches the remote API's
	// "calls per period" contract exactly.
	AlgorithmSlidingWindow Algorithm = "sliding_window"
	// AlgorithmTokenBucket spaces permits at N/W with burst N.
	AlgorithmTokenBucket Algorithm = "token_bucket"
)

// Limiter gates units of work. Implementations must be safe for concurrent
// callers.
type Limiter interface {
	// Acquire blocks until a permit is available or the context is done.
	Acquire(ctx context.Context) error

	// TryAcquire attempts to take a permit without blocking.
	TryAcquire() bool
}

// New creates a limiter allowing at most maxCalls permits per window.
func New(algorithm Algorithm, maxCalls int, window time.Duration) Limiter {
	if maxCalls <= 0 {
		maxCalls = 1
	}
	if window <= 0 {
		window = time.Second
	}
	if algorithm == AlgorithmTokenBucket {
		return NewTokenBucketLimiter(maxCalls, window)
	}
	return NewSlidingWindowLimiter(maxCalls, window)
}

// SlidingWindowLimiter tracks the timestamps of the last maxCalls grants.
// When the window is full, callers wait until the oldest grant exits it.
type SlidingWindowLimiter struct {
	maxCalls   int
	window     time.Duration
	timestamps []time.Time
	mu         sync.Mutex

	// now is swappable for tests
	now func() time.Time
}

// NewSlidingWindowLimiter creates a sliding window limiter.
func NewSlidingWindowLimiter(maxCalls int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		maxCalls:   maxCalls,
		window:     window,
		timestamps: make([]time.Time, 0, maxCalls+1),
		now:        time.Now,
	}
}

// Acquire blocks until a permit is available or the context is cancelled.
func (l *SlidingWindowLimiter) Acquire(ctx context.Context) error {
	for {
		granted, wait := l.tryAcquireWait()
		if granted {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// TryAcquire attempts to take a permit without blocking.
func (l *SlidingWindowLimiter) TryAcquire() bool {
	granted, _ := l.tryAcquireWait()
	return granted
}

// tryAcquireWait takes a permit if the window has capacity; otherwise it
// returns how long until the oldest grant leaves the window.
func (l *SlidingWindowLimiter) tryAcquireWait() (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.window)

	// Drop grants that have left the window
	validIdx := 0
	for _, ts := range l.timestamps {
		if ts.After(windowStart) {
			break
		}
		validIdx++
	}
	if validIdx > 0 {
		l.timestamps = l.timestamps[validIdx:]
	}

	if len(l.timestamps) < l.maxCalls {
		l.timestamps = append(l.timestamps, now)
		return true, 0
	}

	wait := l.timestamps[0].Add(l.window).Sub(now)
	if wait <= 0 {
		wait = time.Millisecond
	}
	return false, wait
}

// TokenBucketLimiter adapts golang.org/x/time/rate to the Limiter contract.
type TokenBucketLimiter struct {
	limiter *rate.Limiter
}

// NewTokenBucketLimiter creates a token bucket limiter refilling at
// maxCalls per window with burst maxCalls.
func NewTokenBucketLimiter(maxCalls int, window time.Duration) *TokenBucketLimiter {
	perSecond := float64(maxCalls) / window.Seconds()
	return &TokenBucketLimiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), maxCalls),
	}
}

// Acquire blocks until a permit is available or the context is cancelled.
func (l *TokenBucketLimiter) Acquire(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// TryAcquire attempts to take a permit without blocking.
func (l *TokenBucketLimiter) TryAcquire() bool {
	return l.limiter.Allow()
}
