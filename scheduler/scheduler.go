// Package scheduler implements the cooperative guest-thread scheduler:
// a min-heap over Ready threads keyed on (priority, insertion order) and
// the time-slice accounting the runner drives one micro-quantum at a
// time (spec.md §4.7).
package scheduler

import (
	"container/heap"

	"github.com/cellforge/cellcore/kernel"
)

// State is a guest thread's scheduling state (spec.md §4.7's transition
// table).
type State uint8

const (
	Ready State = iota
	Running
	Waiting
	Stopped
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Waiting:
		return "waiting"
	default:
		return "stopped"
	}
}

// DefaultQuantum is the time-slice credited to a thread each time it is
// scheduled, in micro-quanta (spec.md §4.7).
const DefaultQuantum = 64

// thread is the scheduler's private bookkeeping record for one guest
// thread; the interpreter and kernel state for the same ThreadID live
// elsewhere (ppu.Thread / spu.Thread).
type thread struct {
	id            kernel.ThreadID
	priority      int32
	state         State
	quantumLeft   int64
	totalExecuted uint64
	heapIndex     int
	seq           uint64
}

// Scheduler multiplexes guest threads onto the single host thread that
// drives the runner loop (spec.md §5).
type Scheduler struct {
	threads map[kernel.ThreadID]*thread
	ready   *readyHeap
	current kernel.ThreadID
	hasCurr bool
	seq     uint64
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{threads: make(map[kernel.ThreadID]*thread), ready: &readyHeap{}}
}

// AddThread registers a new thread at priority and makes it Ready. Lower
// numeric priority runs first, matching the kernel wait-queue convention
// used throughout this module.
func (s *Scheduler) AddThread(id kernel.ThreadID, priority int32) {
	s.seq++
	t := &thread{id: id, priority: priority, state: Ready, quantumLeft: DefaultQuantum, seq: s.seq}
	s.threads[id] = t
	heap.Push(s.ready, t)
}

// RemoveThread drops a thread from scheduling entirely (e.g. on group
// teardown).
func (s *Scheduler) RemoveThread(id kernel.ThreadID) {
	t, ok := s.threads[id]
	if !ok {
		return
	}
	if t.state == Ready {
		heap.Remove(s.ready, t.heapIndex)
	}
	delete(s.threads, id)
	if s.hasCurr && s.current == id {
		s.hasCurr = false
	}
}

// SetPriority changes a thread's priority, re-heapifying if it is
// currently Ready (spec.md §4.7's "explicit priority change" transition
// note — a Running thread's new priority takes effect the next time it
// is requeued).
func (s *Scheduler) SetPriority(id kernel.ThreadID, priority int32) error {
	t, ok := s.threads[id]
	if !ok {
		return &kernel.InvalidIDError{}
	}
	t.priority = priority
	if t.state == Ready {
		heap.Fix(s.ready, t.heapIndex)
	}
	return nil
}

// Priority reports a thread's current priority.
func (s *Scheduler) Priority(id kernel.ThreadID) (int32, bool) {
	t, ok := s.threads[id]
	if !ok {
		return 0, false
	}
	return t.priority, true
}

// Schedule pops the highest-priority Ready thread, requeues the
// previously Running thread (unless it blocked or stopped in the
// interim), and returns the new current thread's id.
func (s *Scheduler) Schedule() (kernel.ThreadID, bool) {
	if s.hasCurr {
		if prev := s.threads[s.current]; prev != nil && prev.state == Running {
			prev.state = Ready
			prev.quantumLeft = DefaultQuantum
			s.seq++
			prev.seq = s.seq
			heap.Push(s.ready, prev)
		}
		s.hasCurr = false
	}
	if s.ready.Len() == 0 {
		return kernel.ThreadID{}, false
	}
	next := heap.Pop(s.ready).(*thread)
	next.state = Running
	next.quantumLeft = DefaultQuantum
	s.current = next.id
	s.hasCurr = true
	return next.id, true
}

// Current reports the currently Running thread, if any.
func (s *Scheduler) Current() (kernel.ThreadID, bool) {
	return s.current, s.hasCurr
}

// UpdateTimeSlice charges micro-quanta spent executing the current
// thread against its remaining quantum.
func (s *Scheduler) UpdateTimeSlice(microQuanta int64) {
	if !s.hasCurr {
		return
	}
	t := s.threads[s.current]
	t.quantumLeft -= microQuanta
	t.totalExecuted += uint64(microQuanta)
}

// TimeSliceExpired reports whether the current thread has exhausted its
// quantum.
func (s *Scheduler) TimeSliceExpired() bool {
	if !s.hasCurr {
		return false
	}
	return s.threads[s.current].quantumLeft <= 0
}

// YieldCurrent moves the current thread back onto Ready with a fresh
// quantum, used both for explicit guest yields and quantum expiry
// (spec.md §4.7).
func (s *Scheduler) YieldCurrent() {
	if !s.hasCurr {
		return
	}
	t := s.threads[s.current]
	t.state = Ready
	t.quantumLeft = DefaultQuantum
	s.seq++
	t.seq = s.seq
	heap.Push(s.ready, t)
	s.hasCurr = false
}

// Block transitions the current thread to Waiting, removing it from
// scheduling consideration until a matching Wake.
func (s *Scheduler) Block(id kernel.ThreadID) {
	t, ok := s.threads[id]
	if !ok {
		return
	}
	t.state = Waiting
	if s.hasCurr && s.current == id {
		s.hasCurr = false
	}
}

// Wake transitions a Waiting thread back to Ready, on a primitive's wake
// or a timeout's expiry.
func (s *Scheduler) Wake(id kernel.ThreadID) {
	t, ok := s.threads[id]
	if !ok || t.state != Waiting {
		return
	}
	t.state = Ready
	t.quantumLeft = DefaultQuantum
	s.seq++
	t.seq = s.seq
	heap.Push(s.ready, t)
}

// Stop transitions a thread to Stopped, on exit or fatal fault.
func (s *Scheduler) Stop(id kernel.ThreadID) {
	t, ok := s.threads[id]
	if !ok {
		return
	}
	t.state = Stopped
	if s.hasCurr && s.current == id {
		s.hasCurr = false
	}
}

// StateOf reports a thread's current scheduling state.
func (s *Scheduler) StateOf(id kernel.ThreadID) (State, bool) {
	t, ok := s.threads[id]
	if !ok {
		return Stopped, false
	}
	return t.state, true
}

// Len reports the number of threads still registered with the
// scheduler, in any state.
func (s *Scheduler) Len() int { return len(s.threads) }
