package engine

import (
	"context"
	"sync"
	"time"
)

// MockTimeProvider provides a controllable time source for testing
// Sleep advances the mock time instead of blocking, so a run loop driven by it is deterministic
type MockTimeProvider struct {
	mu          sync.RWMutex
	currentTime time.Time
	slept       time.Duration
	sleeps      int
}

// NewMockTimeProvider creates a new mock time provider with the given start time
func NewMockTimeProvider(startTime time.Time) *MockTimeProvider {
	return &MockTimeProvider{
		currentTime: startTime,
	}
}

// Now returns the current mocked time
func (m *MockTimeProvider) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentTime
}

// SetTime sets the current time for the mock
func (m *MockTimeProvider) SetTime(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = t
}

// Advance advances the current time by the given duration
func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
}

// Sleep advances the mock time by d without blocking
func (m *MockTimeProvider) Sleep(_ context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
	m.slept += d
	m.sleeps++
}

// Slept returns the total duration and number of Sleep calls
func (m *MockTimeProvider) Slept() (time.Duration, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slept, m.sleeps
}
