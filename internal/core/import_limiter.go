package core

// import_limiter.go bounds how many import runs write to the store at once.
//
// Each run holds one slot from header validation until its last row is
// persisted. When every slot is taken, StartImport waits up to maxWait and
// then fails with ErrTooManyImports. Rows inside a run stay sequential; the
// limiter only caps parallel runs.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyImports is returned when no import slot frees up in time.
var ErrTooManyImports = errors.New("too many concurrent imports, please try again later")

const (
	// DefaultMaxConcurrentImports is the slot count used when none is configured.
	DefaultMaxConcurrentImports = 4

	// DefaultImportWait is how long a new run waits for a free slot.
	DefaultImportWait = 15 * time.Second

	drainPollInterval = 50 * time.Millisecond
)

// ImportLimiter is a counting semaphore over import runs.
type ImportLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// LimiterStatus is a snapshot of limiter usage.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"maxConcurrent"`
}

// NewImportLimiter allows maxConcurrent runs; callers wait at most maxWait.
// Non-positive values fall back to the defaults.
func NewImportLimiter(maxConcurrent int, maxWait time.Duration) *ImportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentImports
	}
	if maxWait <= 0 {
		maxWait = DefaultImportWait
	}
	return &ImportLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting up to maxWait. A cancelled ctx returns
// ctx.Err(); an expired wait returns ErrTooManyImports.
// Every successful Acquire must be paired with Release.
func (l *ImportLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.taken()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyImports
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *ImportLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.taken()
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *ImportLimiter) Release() {
	l.active.Add(-1)
	runsActive.Dec()
	<-l.slots
}

func (l *ImportLimiter) taken() {
	l.active.Add(1)
	runsActive.Inc()
}

// ActiveCount returns the number of runs holding a slot.
func (l *ImportLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// MaxConcurrent returns the slot count.
func (l *ImportLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Status returns current usage for the health endpoint.
func (l *ImportLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}

// WaitForDrain blocks until no run holds a slot or ctx is done.
// Used on shutdown so in-flight imports finish their rows.
func (l *ImportLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(drainPollInterval)
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
