package sched

import (
	"context"
	"sync"
	"time"
)

// Loop is the production Scheduler: a single goroutine (the one calling
// Run) drains a queue of callbacks. Tickers live in their own goroutines
// and only enqueue.
type Loop struct {
	queue    chan func()
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Compile-time check that Loop implements Scheduler.
var _ Scheduler = (*Loop)(nil)

// NewLoop creates a loop with the given queue capacity.
func NewLoop(capacity int) *Loop {
	if capacity < 1 {
		capacity = 1
	}
	return &Loop{
		queue: make(chan func(), capacity),
		done:  make(chan struct{}),
	}
}

// Run executes queued callbacks until ctx is cancelled or Stop is called.
// Callbacks still queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.queue:
			fn()
		}
	}
}

// Stop ends Run and every ticker goroutine. Safe to call repeatedly and
// from inside a callback.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

// Wait blocks until all ticker goroutines have exited.
func (l *Loop) Wait() {
	l.wg.Wait()
}

// Post queues fn. It blocks while the queue is full and drops fn once the
// loop has stopped.
func (l *Loop) Post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Every starts a ticker goroutine posting fn every d.
func (l *Loop) Every(d time.Duration, fn func()) Task {
	h := newHandle()
	fire := func() {
		if h.live() {
			fn()
		}
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ticker := time.NewTicker(d)
		defer ticker.Stop()

		for {
			select {
			case <-h.stop:
				return
			case <-l.done:
				return
			case <-ticker.C:
				select {
				case l.queue <- fire:
				case <-h.stop:
					return
				case <-l.done:
					return
				}
			}
		}
	}()

	return h
}
