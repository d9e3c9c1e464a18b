package kernel

import "time"

// Semaphore is a counting semaphore bounded by Max (spec.md §4.6).
type Semaphore struct {
	Max     int32
	count   int32
	waiters *waitQueue
}

// NewSemaphore creates a semaphore with the given initial count and
// ceiling.
func NewSemaphore(initial, max int32, fifo bool) *Semaphore {
	return &Semaphore{Max: max, count: initial, waiters: newWaitQueue(fifo)}
}

// Wait (P) decrements the count if positive, else enqueues caller.
func (s *Semaphore) Wait(caller ThreadID, priority int32, timeout time.Duration) (blocked bool, err error) {
	if s.count > 0 {
		s.count--
		return false, nil
	}
	s.waiters.push(caller, priority, timeout)
	return true, nil
}

// TryWait is Wait without enqueueing on contention.
func (s *Semaphore) TryWait() (ok bool) {
	if s.count > 0 {
		s.count--
		return true
	}
	return false
}

// Post (V) wakes one waiter if any are parked, otherwise increments the
// count up to Max. Posting past Max is a BadAttributeError.
func (s *Semaphore) Post() (woken ThreadID, ok bool, err error) {
	if next, has := s.waiters.pop(); has {
		return next, true, nil
	}
	if s.count >= s.Max {
		return ThreadID{}, false, &BadAttributeError{Detail: "semaphore count would exceed max"}
	}
	s.count++
	return ThreadID{}, false, nil
}

// Count reports the current available count.
func (s *Semaphore) Count() int32 { return s.count }

// ExpireTimeouts removes and returns waiters whose deadline has passed.
func (s *Semaphore) ExpireTimeouts(now time.Time) []ThreadID {
	return s.waiters.expire(now)
}
