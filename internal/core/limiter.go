package core

// limiter.go serializes workbook operations.
//
// A workbook tolerates a single writer, and reads racing a mutation see
// half-written rows, so every operation against one workbook takes a slot
// first. The limiter is a semaphore: with the default capacity of one it is
// a mutex that gives up after maxWait with ErrBusy instead of queueing
// forever. WaitForDrain supports graceful shutdown.

import (
	"context"
	"sync/atomic"
	"time"
)

const (
	// DefaultMaxConcurrentOps is the default number of simultaneous operations.
	DefaultMaxConcurrentOps = 1
	// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
	DefaultMaxWaitTime = 30 * time.Second

	drainPollInterval = 50 * time.Millisecond
)

// OperationLimiter bounds concurrent operations against one workbook.
type OperationLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewOperationLimiter creates a limiter allowing maxConcurrent simultaneous
// operations. Requests that cannot get a slot within maxWait receive ErrBusy.
// Non-positive arguments select the defaults.
func NewOperationLimiter(maxConcurrent int, maxWait time.Duration) *OperationLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentOps
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &OperationLimiter{slots: make(chan struct{}, maxConcurrent), maxWait: maxWait}
}

// Acquire waits for a slot. Every successful Acquire must be paired with
// Release.
func (l *OperationLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrBusy
	}
}

// TryAcquire takes a slot without blocking.
func (l *OperationLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *OperationLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Do runs fn while holding a slot.
func (l *OperationLimiter) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn(ctx)
}

// ActiveCount returns the number of running operations.
func (l *OperationLimiter) ActiveCount() int { return int(l.active.Load()) }

// MaxConcurrent returns the slot capacity.
func (l *OperationLimiter) MaxConcurrent() int { return cap(l.slots) }

// Available returns the number of free slots.
func (l *OperationLimiter) Available() int { return cap(l.slots) - len(l.slots) }

// WaitForDrain blocks until no operation is running or ctx is done.
func (l *OperationLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()

	for l.ActiveCount() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// LimiterStatus is a snapshot of the limiter state.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *OperationLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: l.MaxConcurrent(),
	}
}
