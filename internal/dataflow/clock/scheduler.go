package clock

import (
	"container/heap"
	"errors"
	"sync"
	"time"
)

// ErrCancelled identifies a task cancelled before it ran. The schedulers in
// this package never return it: a cancelled task is skipped without being
// called, and no error is delivered to it. It is also the sentinel
// documented in spec.md §4.1 as the `Cancelled` failure.
var ErrCancelled = errors.New("clock: task cancelled")

// TaskID identifies a scheduled task for later cancellation.
type TaskID uint64

// TaskFunc is a unit of deferred work. It receives the Fraction time at
// which it actually ran (which may be later than its requested due time if
// the scheduler was busy or paused).
type TaskFunc func(now Fraction)

// Scheduler runs tasks in scheduled-time order. Tasks due in the past run
// as soon as the scheduler is serviced.
type Scheduler interface {
	// ScheduleAt runs task at the given absolute time.
	ScheduleAt(task TaskFunc, when Fraction) TaskID
	// ScheduleIn runs task after delay has elapsed from now.
	ScheduleIn(task TaskFunc, delay Fraction) TaskID
	// Cancel tombstones a pending task. Returns false if the task already
	// ran or does not exist.
	Cancel(id TaskID) bool
	// Close stops the scheduler's worker and cancels all pending tasks.
	Close()
}

type taskEntry struct {
	due       Fraction
	id        TaskID
	task      TaskFunc
	tombstone bool
	index     int
}

// taskHeap is a min-heap ordered by due time, then by id for stable
// ordering of equal-time tasks.
type taskHeap []*taskEntry

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Num*h[j].due.Den != h[j].due.Num*h[i].due.Den {
		return h[i].due.Less(h[j].due)
	}
	return h[i].id < h[j].id
}
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *taskHeap) Push(x any) {
	e := x.(*taskEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// WallClockScheduler drives tasks against a real-time Clock using one
// dedicated worker goroutine that sleeps until the next task's due time, or
// is woken early when a nearer task is scheduled.
type WallClockScheduler struct {
	clock Clock

	mu      sync.Mutex
	heap    taskHeap
	byID    map[TaskID]*taskEntry
	nextID  TaskID
	wake    chan struct{}
	closing bool
	closed  chan struct{}
}

// NewWallClockScheduler creates a scheduler driven by the given clock and
// starts its worker goroutine.
func NewWallClockScheduler(c Clock) *WallClockScheduler {
	s := &WallClockScheduler{
		clock:  c,
		byID:   make(map[TaskID]*taskEntry),
		wake:   make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *WallClockScheduler) ScheduleAt(task TaskFunc, when Fraction) TaskID {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	e := &taskEntry{due: when, id: id, task: task}
	s.byID[id] = e
	heap.Push(&s.heap, e)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return id
}

func (s *WallClockScheduler) ScheduleIn(task TaskFunc, delay Fraction) TaskID {
	return s.ScheduleAt(task, s.clock.Now().Add(delay))
}

func (s *WallClockScheduler) Cancel(id TaskID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok || e.tombstone {
		return false
	}
	e.tombstone = true
	delete(s.byID, id)
	return true
}

func (s *WallClockScheduler) Close() {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return
	}
	s.closing = true
	for _, e := range s.heap {
		e.tombstone = true
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	<-s.closed
}

func (s *WallClockScheduler) run() {
	defer close(s.closed)
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		s.mu.Lock()
		if s.closing {
			s.mu.Unlock()
			return
		}
		var wait time.Duration
		hasTask := len(s.heap) > 0
		if hasTask {
			next := s.heap[0]
			nowSec := s.clock.Now().Seconds()
			dueSec := next.due.Seconds()
			wait = time.Duration((dueSec - nowSec) * float64(time.Second))
			if wait < 0 {
				wait = 0
			}
		} else {
			wait = time.Hour
		}
		s.mu.Unlock()

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-timer.C:
			s.fireDue()
		case <-s.wake:
			// loop around: recompute wait time against the (possibly new) head.
		}
	}
}

func (s *WallClockScheduler) fireDue() {
	now := s.clock.Now()
	for {
		s.mu.Lock()
		if len(s.heap) == 0 {
			s.mu.Unlock()
			return
		}
		top := s.heap[0]
		if top.due.Seconds() > now.Seconds() {
			s.mu.Unlock()
			return
		}
		heap.Pop(&s.heap)
		delete(s.byID, top.id)
		s.mu.Unlock()

		if !top.tombstone {
			top.task(now)
		}
	}
}

// TestScheduler is a deterministic scheduler paired with a VirtualClock:
// tasks fire when Advance or SetNow moves the clock's time past their due
// time, synchronously on the calling goroutine. No background worker runs.
type TestScheduler struct {
	clock *VirtualClock

	mu     sync.Mutex
	heap   taskHeap
	byID   map[TaskID]*taskEntry
	nextID TaskID
}

// NewTestScheduler creates a TestScheduler bound to the given virtual clock.
func NewTestScheduler(c *VirtualClock) *TestScheduler {
	return &TestScheduler{
		clock: c,
		byID:  make(map[TaskID]*taskEntry),
	}
}

func (s *TestScheduler) ScheduleAt(task TaskFunc, when Fraction) TaskID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	e := &taskEntry{due: when, id: id, task: task}
	s.byID[id] = e
	heap.Push(&s.heap, e)
	return id
}

func (s *TestScheduler) ScheduleIn(task TaskFunc, delay Fraction) TaskID {
	return s.ScheduleAt(task, s.clock.Now().Add(delay))
}

func (s *TestScheduler) Cancel(id TaskID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok || e.tombstone {
		return false
	}
	e.tombstone = true
	delete(s.byID, id)
	return true
}

func (s *TestScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.heap {
		e.tombstone = true
	}
	s.heap = nil
	s.byID = make(map[TaskID]*taskEntry)
}

// Advance moves the bound VirtualClock forward by delta and fires any tasks
// now due, in due-time order.
func (s *TestScheduler) Advance(delta Fraction) {
	s.clock.Advance(delta)
	s.fireDue()
}

// SetNow moves the bound VirtualClock to an absolute time and fires any
// tasks now due.
func (s *TestScheduler) SetNow(t Fraction) {
	s.clock.Set(t)
	s.fireDue()
}

func (s *TestScheduler) fireDue() {
	now := s.clock.Now()
	for {
		s.mu.Lock()
		if len(s.heap) == 0 {
			s.mu.Unlock()
			return
		}
		top := s.heap[0]
		if top.due.Seconds() > now.Seconds() {
			s.mu.Unlock()
			return
		}
		heap.Pop(&s.heap)
		delete(s.byID, top.id)
		s.mu.Unlock()

		if !top.tombstone {
			top.task(now)
		}
	}
}
