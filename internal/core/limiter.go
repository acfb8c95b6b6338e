package core

// limiter.go bounds concurrent inferences. Classifier backends may load a
// model or call a remote service per request, so the service admits at most
// maxConcurrent inferences and makes the rest wait up to maxWait before
// failing with ErrTooManyInferences.

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxConcurrentInferences is the default limit for parallel inferences.
const DefaultMaxConcurrentInferences = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// InferenceLimiter controls concurrent inference using a semaphore.
type InferenceLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

// NewInferenceLimiter creates a limiter that admits at most maxConcurrent inferences.
func NewInferenceLimiter(maxConcurrent int, maxWait time.Duration) *InferenceLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentInferences
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &InferenceLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a slot. The caller must call Release when done.
// Returns ctx.Err() if ctx ends first, ErrTooManyInferences if maxWait elapses.
func (l *InferenceLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyInferences
	}
}

// Release frees a slot taken by Acquire.
func (l *InferenceLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.slots
}

// ActiveCount returns the number of inferences holding a slot.
func (l *InferenceLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *InferenceLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// WaitForDrain blocks until no inference holds a slot or ctx ends.
func (l *InferenceLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of the limiter state.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *InferenceLimiter) Status() LimiterStatus {
	active := l.ActiveCount()
	return LimiterStatus{
		Active:        active,
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
