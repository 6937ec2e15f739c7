// Package internal provides internal utilities for the smoke package.
package internal

import (
	"context"
	"time"
)

// Clock is an interface for obtaining the current time and pausing.
// The abstraction lets scenario tests control generated suffixes and pauses.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// Sleep blocks for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is a Clock backed by the system clock and real timers.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Sleep waits for d on a real timer. A non-positive d returns immediately.
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// MockClock is a Clock for tests. Sleep advances the clock instead of
// blocking. It is not safe for concurrent use.
type MockClock struct {
	current time.Time
	slept   []time.Duration
}

// NewMockClock creates a MockClock initialized to t.
// If t is zero, it starts at a fixed, non-zero instant.
func NewMockClock(t time.Time) *MockClock {
	if t.IsZero() {
		t = time.Unix(1700000000, 0) // 2023-11-14
	}
	return &MockClock{current: t}
}

// Now returns the mock clock's current time.
func (m *MockClock) Now() time.Time {
	return m.current
}

// Sleep records d and advances the clock by it.
func (m *MockClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.slept = append(m.slept, d)
	m.Advance(d)
	return nil
}

// Slept returns every duration passed to Sleep, in order.
func (m *MockClock) Slept() []time.Duration {
	return m.slept
}

// Advance moves the clock forward by d.
// Panics if d is negative to maintain monotonicity.
func (m *MockClock) Advance(d time.Duration) {
	if d < 0 {
		panic("MockClock.Advance: duration must be non-negative")
	}
	m.current = m.current.Add(d)
}
