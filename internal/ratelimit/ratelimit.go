package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Limiter paces outbound requests to one storefront. Wait blocks until the
// next request is allowed or the context is cancelled.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Jittered spaces requests by a random delay inside [min, max]. The jitter
// keeps request timing from looking mechanical to the storefront.
type Jittered struct {
	mu       sync.Mutex
	minDelay time.Duration
	maxDelay time.Duration
	lastSent time.Time
}

func NewJittered(minDelay, maxDelay time.Duration) *Jittered {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Jittered{minDelay: minDelay, maxDelay: maxDelay}
}

func (j *Jittered) Wait(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	elapsed := time.Since(j.lastSent)
	delay := j.nextDelay()

	if elapsed < delay {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay - elapsed):
		}
	}

	j.lastSent = time.Now()
	return nil
}

// nextDelay must be called with the mutex held.
func (j *Jittered) nextDelay() time.Duration {
	if j.minDelay >= j.maxDelay {
		return j.minDelay
	}
	return j.minDelay + time.Duration(rand.Int63n(int64(j.maxDelay-j.minDelay)))
}

// Adaptive widens the delay window after repeated fetch failures and slowly
// narrows it again while fetches keep succeeding.
type Adaptive struct {
	*Jittered
	errorStreak   int
	successStreak int
}

const (
	backoffFactor   = 1.5
	backoffAfter    = 3
	recoverAfter    = 5
	floorDelay      = 1 * time.Second
	ceilingMinDelay = 60 * time.Second
	ceilingMaxDelay = 120 * time.Second
)

func NewAdaptive(minDelay, maxDelay time.Duration) *Adaptive {
	return &Adaptive{Jittered: NewJittered(minDelay, maxDelay)}
}

func (a *Adaptive) RecordSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.successStreak++
	a.errorStreak = 0

	if a.successStreak >= recoverAfter {
		a.minDelay = max(time.Duration(float64(a.minDelay)*0.9), floorDelay)
		a.successStreak = 0
	}
}

func (a *Adaptive) RecordError() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.errorStreak++
	a.successStreak = 0

	if a.errorStreak >= backoffAfter {
		a.minDelay = min(time.Duration(float64(a.minDelay)*backoffFactor), ceilingMinDelay)
		a.maxDelay = min(time.Duration(float64(a.maxDelay)*backoffFactor), ceilingMaxDelay)
		a.errorStreak = 0
	}
}
