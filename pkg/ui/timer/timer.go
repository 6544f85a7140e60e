// Package timer provides stage-aware timing for command handlers.
//
// A Timer tracks the total elapsed time since Start and the elapsed time of
// the current stage. Handlers call NewStage between activities so that
// success messages can report both durations.
package timer

import (
	"sync"
	"time"
)

// Timer measures total and per-stage elapsed time.
type Timer interface {
	// Start begins timing. Calling Start again resets both durations.
	Start()
	// NewStage marks the beginning of a new stage, resetting the stage duration.
	NewStage()
	// GetTiming returns the total elapsed time and the current stage's elapsed time.
	GetTiming() (time.Duration, time.Duration)
}

// New constructs a Timer that starts measuring on the first call to Start.
func New() Timer {
	return &monotonicTimer{}
}

// --- internals ---

type monotonicTimer struct {
	mu         sync.Mutex
	start      time.Time
	stageStart time.Time
}

func (t *monotonicTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.start = now
	t.stageStart = now
}

func (t *monotonicTimer) NewStage() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stageStart = time.Now()
}

func (t *monotonicTimer) GetTiming() (time.Duration, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.start.IsZero() {
		return 0, 0
	}

	now := time.Now()

	return now.Sub(t.start), now.Sub(t.stageStart)
}
