package utils

import (
	"sync"
	"time"
)

// Watch measures wall time that can be paused, e.g. to exclude result assembly from a computation's runtime.
type Watch struct {
	mu           sync.RWMutex
	paused       bool
	pauseTime    time.Time
	startTime    time.Time
	adjustedTime time.Time
}

func (w *Watch) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.startTime = time.Now()
	w.adjustedTime = w.startTime
	w.paused = false
}

func (w *Watch) Elapsed() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.paused {
		return w.pauseTime.Sub(w.adjustedTime)
	}
	return time.Since(w.adjustedTime)
}

func (w *Watch) AbsoluteElapsed() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return time.Since(w.startTime)
}

// Returns the elapsed time at the moment of pausing. Pausing twice is a no-op.
func (w *Watch) Pause() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.paused {
		w.pauseTime = time.Now()
		w.paused = true
	}
	return w.pauseTime.Sub(w.adjustedTime)
}

func (w *Watch) UnPause() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.paused {
		w.paused = false
		w.adjustedTime = w.adjustedTime.Add(time.Since(w.pauseTime))
	}
}
