// Package timer measures how long a run and its current stage have taken.
package timer

import (
	"sync"
	"time"
)

// Timer tracks the total elapsed time and the time spent in the current stage.
type Timer interface {
	// Start resets the timer and begins the first stage.
	Start()
	// NewStage begins a new stage; the total keeps running.
	NewStage()
	// GetTiming returns the total elapsed time and the current stage's elapsed time.
	GetTiming() (time.Duration, time.Duration)
}

type stageTimer struct {
	mu         sync.Mutex
	now        func() time.Time
	start      time.Time
	stageStart time.Time
}

// New creates a stopped timer using the wall clock.
func New() Timer {
	return NewWithClock(time.Now)
}

// NewWithClock creates a timer reading time from now.
func NewWithClock(now func() time.Time) Timer {
	return &stageTimer{now: now}
}

func (t *stageTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.start = t.now()
	t.stageStart = t.start
}

func (t *stageTimer) NewStage() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.start.IsZero() {
		t.start = t.now()
	}

	t.stageStart = t.now()
}

func (t *stageTimer) GetTiming() (time.Duration, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.start.IsZero() {
		return 0, 0
	}

	current := t.now()

	return current.Sub(t.start), current.Sub(t.stageStart)
}
