package kernel

import "time"

// CondVar is a condition variable associated with a single Mutex,
// following the lock-release/wait/reacquire protocol of spec.md §4.6.
type CondVar struct {
	Mutex   *Mutex
	waiters *waitQueue
}

// NewCondVar creates a condition variable bound to mutex.
func NewCondVar(mutex *Mutex, fifo bool) *CondVar {
	return &CondVar{Mutex: mutex, waiters: newWaitQueue(fifo)}
}

// Wait releases the calling thread's hold on the bound mutex (as if by
// Unlock) and parks it on the condition variable. The caller must hold
// the mutex. Waking (Signal, Broadcast) does not reacquire the mutex for
// the waiter: nothing in this module locks it again on the waiter's
// behalf.
func (c *CondVar) Wait(caller ThreadID, priority int32, timeout time.Duration) (woken ThreadID, unlockedMutex bool, err error) {
	next, hadWaiter, err := c.Mutex.Unlock(caller)
	if err != nil {
		return ThreadID{}, false, err
	}
	c.waiters.push(caller, priority, timeout)
	return next, hadWaiter, nil
}

// Signal wakes the single highest-priority (or longest-waiting, under
// FIFO order) waiter and returns its id; the bound mutex is left as it
// is.
func (c *CondVar) Signal() (ThreadID, bool) {
	return c.waiters.pop()
}

// Broadcast wakes every parked waiter.
func (c *CondVar) Broadcast() []ThreadID {
	var woken []ThreadID
	for {
		id, ok := c.waiters.pop()
		if !ok {
			break
		}
		woken = append(woken, id)
	}
	return woken
}

// ExpireTimeouts removes and returns waiters whose deadline has passed.
func (c *CondVar) ExpireTimeouts(now time.Time) []ThreadID {
	return c.waiters.expire(now)
}
