// Package sched runs callbacks on a single logical thread. Periodic tasks
// and posted callbacks never run concurrently with each other, so state
// touched only from callbacks needs no locking.
package sched

import (
	"sync/atomic"
	"time"
)

// Task is a handle to a periodic callback.
type Task interface {
	// Cancel stops the task. After Cancel returns the callback will not run
	// again, even if a firing was already queued. Safe to call repeatedly.
	Cancel()
}

// Scheduler schedules callbacks onto one logical thread.
type Scheduler interface {
	// Every runs fn every d until the returned task is cancelled.
	Every(d time.Duration, fn func()) Task
	// Post queues fn to run once on the scheduler thread.
	Post(fn func())
}

// Cancel cancels every non-nil task. Nil entries are skipped.
func Cancel(tasks ...Task) {
	for _, t := range tasks {
		if t != nil {
			t.Cancel()
		}
	}
}

// handle carries the cancelled flag checked on the scheduler thread
// right before each firing.
type handle struct {
	cancelled atomic.Bool
	stop      chan struct{}
}

func newHandle() *handle {
	return &handle{stop: make(chan struct{})}
}

func (h *handle) Cancel() {
	if h.cancelled.CompareAndSwap(false, true) {
		close(h.stop)
	}
}

func (h *handle) live() bool {
	return !h.cancelled.Load()
}
