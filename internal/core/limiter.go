package core

// limiter.go bounds the number of listing queries running at once.
//
// SQLite serves every query on one connection and Postgres on a small pool,
// so an unbounded burst of filter requests only queues inside the driver
// while holding request goroutines. The limiter queues them here instead
// and turns a long wait into ErrTooManyQueries.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyQueries is returned when no query slot frees up within the
// limiter's wait time.
var ErrTooManyQueries = errors.New("too many concurrent queries, please try again later")

const (
	DefaultMaxConcurrentQueries = 16
	DefaultQueryWait            = 5 * time.Second
)

// QueryLimiter is a counting semaphore for read queries.
type QueryLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewQueryLimiter allows maxConcurrent holders at a time. Acquire gives up
// after maxWait. Non-positive arguments select the defaults.
func NewQueryLimiter(maxConcurrent int, maxWait time.Duration) *QueryLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentQueries
	}
	if maxWait <= 0 {
		maxWait = DefaultQueryWait
	}
	return &QueryLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire blocks until a slot is free. Every successful Acquire must be
// paired with one Release.
func (l *QueryLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-timer.C:
		return ErrTooManyQueries
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (l *QueryLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// ActiveCount returns the number of slots held.
func (l *QueryLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// MaxConcurrent returns the slot count.
func (l *QueryLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Available returns the number of free slots.
func (l *QueryLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}
