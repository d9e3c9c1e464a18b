package kernel

import "time"

// Mutex is a recursive-capable, priority-ordered lock (spec.md §4.6).
// Ownership is tracked by ThreadID rather than by a Go-level lock: the
// actual blocking is reported as blocked=true, which the caller's syscall
// handler turns into a thread-state transition, never a goroutine park.
type Mutex struct {
	Recursive bool

	hasOwner  bool
	owner     ThreadID
	lockCount int
	waiters   *waitQueue
}

// NewMutex creates an unlocked mutex. fifo selects FIFO wait-queue order
// over priority order, per the creation attribute in spec.md §4.6.
func NewMutex(recursive, fifo bool) *Mutex {
	return &Mutex{Recursive: recursive, waiters: newWaitQueue(fifo)}
}

// Lock attempts to acquire m for caller. If m is free, or already held
// recursively by caller, it succeeds immediately (blocked=false). If
// held by another thread, caller is enqueued and the syscall handler
// must report WouldBlock to the runner so it can park caller; a
// subsequent Unlock by the owning thread (or Context.Release tearing the
// mutex down) is what moves caller off the wait queue.
func (m *Mutex) Lock(caller ThreadID, priority int32, timeout time.Duration) (blocked bool, err error) {
	if !m.hasOwner {
		m.hasOwner = true
		m.owner = caller
		m.lockCount = 1
		return false, nil
	}
	if m.owner == caller {
		if !m.Recursive {
			return false, &BadAttributeError{Detail: "mutex is not recursive"}
		}
		m.lockCount++
		return false, nil
	}
	m.waiters.push(caller, priority, timeout)
	return true, nil
}

// TryLock is Lock without enqueueing on contention.
func (m *Mutex) TryLock(caller ThreadID) (ok bool, err error) {
	if !m.hasOwner {
		m.hasOwner = true
		m.owner = caller
		m.lockCount = 1
		return true, nil
	}
	if m.owner == caller && m.Recursive {
		m.lockCount++
		return true, nil
	}
	return false, nil
}

// Unlock releases one level of ownership. If the lock count reaches
// zero, the next waiter (by the queue's order) becomes the new owner and
// is returned so the runner can wake it; woken is the zero ThreadID with
// ok=false when no waiter was pending and the mutex is now free.
func (m *Mutex) Unlock(caller ThreadID) (woken ThreadID, ok bool, err error) {
	if !m.hasOwner || m.owner != caller {
		return ThreadID{}, false, &NotHeldError{Caller: caller}
	}
	m.lockCount--
	if m.lockCount > 0 {
		return ThreadID{}, false, nil
	}
	next, has := m.waiters.pop()
	if !has {
		m.hasOwner = false
		return ThreadID{}, false, nil
	}
	m.owner = next
	m.lockCount = 1
	return next, true, nil
}

// ExpireTimeouts removes and returns waiters whose deadline has passed,
// for the runner's per-quantum timeout sweep (spec.md §4.6's timed
// waits).
func (m *Mutex) ExpireTimeouts(now time.Time) []ThreadID {
	return m.waiters.expire(now)
}

// CancelWaiter removes a specific waiter, e.g. when its thread is
// terminated while parked.
func (m *Mutex) CancelWaiter(id ThreadID) bool {
	return m.waiters.remove(id)
}
