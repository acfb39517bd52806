// Package timer implements the manufacturing stopwatch state machine: one
// model timer per (order, product) pair, each with zero or more component
// timers. All state is in memory and intentionally non-durable.
package timer

import (
	"errors"
	"time"
)

var (
	ErrAlreadyCompleted  = errors.New("timer already completed")
	ErrAlreadyRunning    = errors.New("timer already running")
	ErrNotRunning        = errors.New("timer is not running")
	ErrComponentsOpen    = errors.New("model has unfinished components")
	ErrNotFound          = errors.New("timer not found")
	ErrComponentNotFound = errors.New("component timer not found")
)

// Key identifies one model timer. A struct key rules out the collisions a
// concatenated "orderID-productID" string would allow.
type Key struct {
	OrderID   string
	ProductID string
}

// Timer is a stopwatch that accumulates active seconds. StartedAt is non-nil
// exactly while the timer is in progress; elapsed time is always derived from
// it by wall-clock subtraction, never by counting ticks.
type Timer struct {
	Status         Status
	ElapsedSeconds int64
	StartedAt      *time.Time
}

// Start begins or resumes the stopwatch. Resuming back-dates the start
// instant by the accumulated elapsed time, so that now-minus-start keeps
// yielding the correct total.
func (t *Timer) Start(now time.Time) error {
	switch t.Status {
	case StatusCompleted:
		return ErrAlreadyCompleted
	case StatusInProgress:
		return ErrAlreadyRunning
	}
	start := now.Add(-time.Duration(t.ElapsedSeconds) * time.Second)
	t.StartedAt = &start
	t.Status = StatusInProgress
	return nil
}

// Pause freezes the elapsed total and clears the start instant.
func (t *Timer) Pause(now time.Time) error {
	if t.Status != StatusInProgress {
		return ErrNotRunning
	}
	t.ElapsedSeconds = elapsedSince(*t.StartedAt, now)
	t.StartedAt = nil
	t.Status = StatusPaused
	return nil
}

// Reset returns the stopwatch to pending with zero elapsed time. Completed
// timers stay completed.
func (t *Timer) Reset() error {
	if t.Status == StatusCompleted {
		return ErrAlreadyCompleted
	}
	t.Status = StatusPending
	t.ElapsedSeconds = 0
	t.StartedAt = nil
	return nil
}

// Complete finishes the stopwatch, capturing the final elapsed total if it
// was still running.
func (t *Timer) Complete(now time.Time) error {
	if t.Status == StatusCompleted {
		return ErrAlreadyCompleted
	}
	if t.Status == StatusInProgress {
		t.ElapsedSeconds = elapsedSince(*t.StartedAt, now)
	}
	t.StartedAt = nil
	t.Status = StatusCompleted
	return nil
}

// Refresh recomputes the elapsed total from the stored start instant. No-op
// unless running, so a frozen timer never moves.
func (t *Timer) Refresh(now time.Time) {
	if t.Status != StatusInProgress || t.StartedAt == nil {
		return
	}
	t.ElapsedSeconds = elapsedSince(*t.StartedAt, now)
}

func (t *Timer) elapsedAt(now time.Time) int64 {
	if t.Status == StatusInProgress && t.StartedAt != nil {
		return elapsedSince(*t.StartedAt, now)
	}
	return t.ElapsedSeconds
}

func elapsedSince(start, now time.Time) int64 {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// ComponentTimer tracks one component inside a model timer.
type ComponentTimer struct {
	ComponentID string
	Name        string
	Timer
}

// ModelTimer tracks one product line within one order, plus the component
// timers seeded from the product's selected components.
type ModelTimer struct {
	Key        Key
	ItemName   string
	ItemType   string
	Quantity   int
	Components []*ComponentTimer
	Timer
}

func (m *ModelTimer) component(id string) *ComponentTimer {
	for _, c := range m.Components {
		if c.ComponentID == id {
			return c
		}
	}
	return nil
}

// ComponentsCompleted reports whether every child timer is completed.
// Trivially true for products without components.
func (m *ModelTimer) ComponentsCompleted() bool {
	for _, c := range m.Components {
		if c.Status != StatusCompleted {
			return false
		}
	}
	return true
}

// CompleteModel finishes the model timer, refusing while any component timer
// is still open.
func (m *ModelTimer) CompleteModel(now time.Time) error {
	if m.Status != StatusCompleted && !m.ComponentsCompleted() {
		return ErrComponentsOpen
	}
	return m.Timer.Complete(now)
}
