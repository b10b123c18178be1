package engine

import (
	"context"
	"time"
)

// TimeProvider abstracts clock reads and idle waits of the run loop
// Timers read Now; the App sleeps between passes through Sleep
type TimeProvider interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration)
}

// MonotonicTimeProvider provides the real system time with monotonic clock readings
type MonotonicTimeProvider struct{}

// NewMonotonicTimeProvider creates a new monotonic time provider
func NewMonotonicTimeProvider() *MonotonicTimeProvider {
	return &MonotonicTimeProvider{}
}

// Now returns the current time with monotonic clock reading
func (p *MonotonicTimeProvider) Now() time.Time {
	return time.Now()
}

// Sleep blocks for d or until ctx is done
func (p *MonotonicTimeProvider) Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
