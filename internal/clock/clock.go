// Package clock provides a time abstraction so that timer-driven code
// (progress refresh, liveness pulse, volume debouncing) can be tested
// with a controllable clock instead of real time.
package clock

import (
	"sync"
	"time"
)

// Clock is an interface for the time operations the widget core needs.
type Clock interface {
	// Now returns the current time
	Now() time.Time

	// AfterFunc waits for the duration to elapse and then calls f in its own goroutine.
	// It returns a Timer that can be used to cancel the call using its Stop method.
	AfterFunc(d time.Duration, f func()) Timer

	// Since returns the time elapsed since t
	Since(t time.Time) time.Duration
}

// Timer represents a single scheduled event that can be stopped.
type Timer interface {
	// Stop prevents the Timer from firing. Returns true if the call stops the timer,
	// false if the timer has already expired or been stopped.
	Stop() bool
}

// RealClock implements Clock using the standard time package
type RealClock struct{}

// NewRealClock creates a new RealClock instance
func NewRealClock() *RealClock {
	return &RealClock{}
}

// Now returns the current time
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// AfterFunc waits for the duration to elapse and then calls f
func (c *RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return &realTimer{timer: time.AfterFunc(d, f)}
}

// Since returns the time elapsed since t
func (c *RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// realTimer wraps time.Timer to implement our Timer interface
type realTimer struct {
	timer *time.Timer
}

// Stop prevents the Timer from firing
func (t *realTimer) Stop() bool {
	return t.timer.Stop()
}

// MockClock is a Clock implementation for testing that allows manual time control
type MockClock struct {
	mu      sync.Mutex
	current time.Time
	timers  []*mockTimer
}

type mockTimer struct {
	clock    *MockClock
	deadline time.Time
	f        func()
	stopped  bool
	mu       sync.Mutex
}

// NewMockClock creates a new MockClock starting at the given time
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{
		current: start,
		timers:  make([]*mockTimer, 0),
	}
}

// Now returns the mock current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// AfterFunc schedules f to be called after duration d
func (c *MockClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	timer := &mockTimer{
		clock:    c,
		deadline: c.current.Add(d),
		f:        f,
	}
	c.timers = append(c.timers, timer)
	return timer
}

// Since returns the time elapsed since t using the mock current time
func (c *MockClock) Since(t time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Sub(t)
}

// Advance moves the mock clock forward by duration d and fires any timers
// whose deadline has passed. Timers fire in the caller's goroutine so tests
// observe their effects synchronously.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	newTime := c.current.Add(d)
	c.current = newTime

	var toFire []*mockTimer
	var remaining []*mockTimer

	for _, timer := range c.timers {
		timer.mu.Lock()
		if !timer.stopped && !timer.deadline.After(newTime) {
			toFire = append(toFire, timer)
		} else if !timer.stopped {
			remaining = append(remaining, timer)
		}
		timer.mu.Unlock()
	}

	c.timers = remaining
	c.mu.Unlock()

	// Fire outside the lock so a callback may schedule new timers
	for _, timer := range toFire {
		timer.mu.Lock()
		if !timer.stopped {
			timer.stopped = true
			f := timer.f
			timer.mu.Unlock()
			f()
		} else {
			timer.mu.Unlock()
		}
	}
}

// Stop prevents the timer from firing
func (t *mockTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}
