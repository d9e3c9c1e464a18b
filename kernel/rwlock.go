package kernel

import "time"

// RWLock is a reader/writer lock with writer-preference: once a writer
// is queued, new readers park behind it rather than starving the writer
// (spec.md §4.6).
type RWLock struct {
	readers       int
	hasWriter     bool
	writer        ThreadID
	pendingWriter bool
	readWaiters   *waitQueue
	writeWaiters  *waitQueue
}

// NewRWLock creates an unlocked reader/writer lock.
func NewRWLock(fifo bool) *RWLock {
	return &RWLock{readWaiters: newWaitQueue(fifo), writeWaiters: newWaitQueue(fifo)}
}

// LockRead acquires a shared hold, blocking behind any writer that is
// holding or already waiting.
func (l *RWLock) LockRead(caller ThreadID, priority int32, timeout time.Duration) (blocked bool, err error) {
	if l.hasWriter || l.pendingWriter {
		l.readWaiters.push(caller, priority, timeout)
		return true, nil
	}
	l.readers++
	return false, nil
}

// LockWrite acquires the exclusive hold, blocking behind existing
// readers or a current writer.
func (l *RWLock) LockWrite(caller ThreadID, priority int32, timeout time.Duration) (blocked bool, err error) {
	if l.hasWriter || l.readers > 0 {
		l.pendingWriter = true
		l.writeWaiters.push(caller, priority, timeout)
		return true, nil
	}
	l.hasWriter = true
	l.writer = caller
	return false, nil
}

// UnlockRead releases one shared hold. When the last reader drains and a
// writer is pending, that writer is promoted and returned.
func (l *RWLock) UnlockRead(caller ThreadID) (woken ThreadID, wokeWriter bool, err error) {
	if l.readers == 0 {
		return ThreadID{}, false, &NotHeldError{Caller: caller}
	}
	l.readers--
	if l.readers == 0 {
		if next, has := l.writeWaiters.pop(); has {
			l.hasWriter = true
			l.writer = next
			l.pendingWriter = l.writeWaiters.len() > 0
			return next, true, nil
		}
	}
	return ThreadID{}, false, nil
}

// UnlockWrite releases the exclusive hold. A pending writer is promoted
// first; otherwise every parked reader is released together.
func (l *RWLock) UnlockWrite(caller ThreadID) (wokeWriter bool, writerID ThreadID, wokeReaders []ThreadID, err error) {
	if !l.hasWriter || l.writer != caller {
		return false, ThreadID{}, nil, &NotHeldError{Caller: caller}
	}
	l.hasWriter = false
	if next, has := l.writeWaiters.pop(); has {
		l.hasWriter = true
		l.writer = next
		l.pendingWriter = l.writeWaiters.len() > 0
		return true, next, nil, nil
	}
	l.pendingWriter = false
	for {
		id, has := l.readWaiters.pop()
		if !has {
			break
		}
		l.readers++
		wokeReaders = append(wokeReaders, id)
	}
	return false, ThreadID{}, wokeReaders, nil
}

// ExpireTimeouts sweeps both wait queues for timed-out waiters.
func (l *RWLock) ExpireTimeouts(now time.Time) (readers, writers []ThreadID) {
	return l.readWaiters.expire(now), l.writeWaiters.expire(now)
}
