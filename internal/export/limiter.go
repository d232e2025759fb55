package export

// limiter.go bounds how many exports run at once.
//
// An export of a server-paged resource walks every page of the remote API, so
// a burst of export clicks would fan out into many upstream requests. The
// limiter is a semaphore: when all slots are taken, callers wait up to maxWait
// and then fail with ErrTooManyExports.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyExports is returned when all export slots stay occupied for the
// whole wait period.
var ErrTooManyExports = errors.New("too many exports in progress, rate limit reached")

// DefaultMaxConcurrent is the default number of parallel exports.
const DefaultMaxConcurrent = 3

// DefaultMaxWait is how long to wait for a slot before rejecting.
const DefaultMaxWait = 10 * time.Second

// Limiter controls concurrent export processing.
type Limiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewLimiter creates a limiter that allows at most maxConcurrent exports.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Limiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire waits for an export slot.
// The caller must call Release when the export completes.
func (l *Limiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyExports
	}
}

// TryAcquire takes a slot without blocking.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *Limiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.semaphore
}

// Active returns the number of running exports.
func (l *Limiter) Active() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Available returns the number of free slots.
func (l *Limiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until no export is running or ctx is done. Used during
// graceful shutdown.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.Active() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
