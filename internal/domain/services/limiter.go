// Package services contains domain business logic.
package services

import (
	"context"
	"sync"
	"time"
)

// Limiter bounds how many remote calls are in flight at once and paces
// successive call issuances. The slot limit and the pacing delay are
// orthogonal: slots cap simultaneous in-flight calls, the delay enforces a
// minimum spacing between issuances globally across all workers.
type Limiter struct {
	slots chan struct{}
	delay time.Duration

	mu   sync.Mutex
	next time.Time
}

// NewLimiter creates a limiter with the given slot count and pacing delay.
// A slot count below 1 is treated as 1.
func NewLimiter(slots int, delay time.Duration) *Limiter {
	if slots < 1 {
		slots = 1
	}
	return &Limiter{
		slots: make(chan struct{}, slots),
		delay: delay,
	}
}

// Acquire blocks until a slot is free and the pacing window has passed.
// It returns early with the context's error if ctx is cancelled, in which
// case no slot is held.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	if wait := l.reserve(); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			l.Release()
			return ctx.Err()
		}
	}
	return nil
}

// Release frees a slot. It must be called exactly once per successful
// Acquire, whether the guarded call succeeded or failed.
func (l *Limiter) Release() {
	<-l.slots
}

// reserve claims the next issuance window and returns how long the caller
// must wait for it.
func (l *Limiter) reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if l.next.Before(now) {
		l.next = now
	}
	wait := l.next.Sub(now)
	l.next = l.next.Add(l.delay)
	return wait
}
