package sched

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler driven by virtual time. Nothing runs
// until Advance or Drain is called, and everything runs on the caller's
// goroutine. Post may be called from any goroutine. Intended for tests.
type Manual struct {
	now    time.Duration
	seq    int
	timers []*manualTimer

	mu     sync.Mutex
	posted []func()
}

// Compile-time check that Manual implements Scheduler.
var _ Scheduler = (*Manual)(nil)

type manualTimer struct {
	*handle
	period time.Duration
	next   time.Duration
	seq    int
	fn     func()
}

// NewManual creates a scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

// Now returns the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Every registers fn to fire every d of virtual time.
func (m *Manual) Every(d time.Duration, fn func()) Task {
	if d <= 0 {
		panic("sched: non-positive period")
	}
	m.seq++
	t := &manualTimer{
		handle: newHandle(),
		period: d,
		next:   m.now + d,
		seq:    m.seq,
		fn:     fn,
	}
	m.timers = append(m.timers, t)
	return t
}

// Post queues fn; it runs on the next Drain or Advance.
func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.posted = append(m.posted, fn)
	m.mu.Unlock()
}

// Drain runs posted callbacks, including any posted while draining.
func (m *Manual) Drain() {
	for {
		m.mu.Lock()
		if len(m.posted) == 0 {
			m.mu.Unlock()
			return
		}
		fn := m.posted[0]
		m.posted = m.posted[1:]
		m.mu.Unlock()
		fn()
	}
}

// Active returns the number of tasks not yet cancelled.
func (m *Manual) Active() int {
	m.prune()
	return len(m.timers)
}

// Advance moves virtual time forward by d, firing every due task in
// deadline order. Ties fire in registration order. Posted callbacks are
// drained before each firing and once more at the end.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	for {
		m.Drain()
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.next
		t.next += t.period
		if t.live() {
			t.fn()
		}
	}
	m.now = target
	m.Drain()
}

func (m *Manual) nextDue(target time.Duration) *manualTimer {
	m.prune()
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].next != m.timers[j].next {
			return m.timers[i].next < m.timers[j].next
		}
		return m.timers[i].seq < m.timers[j].seq
	})
	if len(m.timers) == 0 || m.timers[0].next > target {
		return nil
	}
	return m.timers[0]
}

func (m *Manual) prune() {
	kept := m.timers[:0]
	for _, t := range m.timers {
		if t.live() {
			kept = append(kept, t)
		}
	}
	m.timers = kept
}
