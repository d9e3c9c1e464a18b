package kernel

import (
	"testing"
	"time"
)

func thread(idx uint32) ThreadID { return ThreadID{Kind: PPUThread, Index: idx} }

func TestContextMintsMonotonicNeverReusedIDs(t *testing.T) {
	ctx := NewContext()
	a := ctx.Create("mutex", NewMutex(false, false))
	b := ctx.Create("mutex", NewMutex(false, false))
	if b <= a {
		t.Fatalf("ids not monotonic: a=%d b=%d", a, b)
	}
	if _, err := ctx.Release(a); err != nil {
		t.Fatalf("release a: %v", err)
	}
	if _, err := ctx.Release(a); err == nil {
		t.Fatalf("expected InvalidIDError re-releasing a destroyed object")
	}
	c := ctx.Create("mutex", NewMutex(false, false))
	if c == a {
		t.Fatalf("id %d was reused after destruction", c)
	}
}

func TestMutexContendedLockQueuesByPriority(t *testing.T) {
	m := NewMutex(false, false)
	owner := thread(1)
	if blocked, err := m.Lock(owner, 0, 0); err != nil || blocked {
		t.Fatalf("initial lock: blocked=%v err=%v", blocked, err)
	}

	low := thread(2)
	high := thread(3)
	if blocked, err := m.Lock(low, 10, 0); err != nil || !blocked {
		t.Fatalf("low-priority contended lock: blocked=%v err=%v", blocked, err)
	}
	if blocked, err := m.Lock(high, 1, 0); err != nil || !blocked {
		t.Fatalf("high-priority contended lock: blocked=%v err=%v", blocked, err)
	}

	woken, ok, err := m.Unlock(owner)
	if err != nil || !ok {
		t.Fatalf("unlock: ok=%v err=%v", ok, err)
	}
	if woken != high {
		t.Fatalf("woken = %v, want the higher-priority waiter %v", woken, high)
	}
}

func TestMutexRecursiveLockRequiresAttribute(t *testing.T) {
	m := NewMutex(false, false)
	caller := thread(1)
	if _, err := m.Lock(caller, 0, 0); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := m.Lock(caller, 0, 0); err == nil {
		t.Fatalf("expected BadAttributeError re-locking a non-recursive mutex from the owner")
	}
}

// TestEventFlagWaitAllSatisfiedByUnion exercises spec scenario S5.
func TestEventFlagWaitAllSatisfiedByUnion(t *testing.T) {
	f := NewEventFlag(0)
	waiter := thread(1)
	blocked, err := f.Wait(waiter, 0x3, WaitAll, ClearMatched, 0)
	if err != nil || !blocked {
		t.Fatalf("wait: blocked=%v err=%v", blocked, err)
	}

	if woken := f.Set(0x1); len(woken) != 0 {
		t.Fatalf("partial set woke waiters early: %v", woken)
	}
	woken := f.Set(0x2)
	if len(woken) != 1 || woken[0] != waiter {
		t.Fatalf("woken = %v, want [%v]", woken, waiter)
	}
	if f.Bits() != 0 {
		t.Fatalf("bits = 0x%x, want 0 after clearing the matched mask", f.Bits())
	}
}

// TestEventFlagClearAllZeroesWholePattern exercises CLEAR_ALL's "zero
// the entire pattern" contract, distinct from CLEAR's "remove only the
// bits named in the wait mask".
func TestEventFlagClearAllZeroesWholePattern(t *testing.T) {
	f := NewEventFlag(0)
	waiter := thread(1)
	blocked, err := f.Wait(waiter, 0x1, WaitAny, ClearAll, 0)
	if err != nil || !blocked {
		t.Fatalf("wait: blocked=%v err=%v", blocked, err)
	}
	woken := f.Set(0x5)
	if len(woken) != 1 || woken[0] != waiter {
		t.Fatalf("woken = %v, want [%v]", woken, waiter)
	}
	if f.Bits() != 0 {
		t.Fatalf("bits = 0x%x, want 0 — CLEAR_ALL zeroes bits beyond the matched mask too", f.Bits())
	}
}

// TestEventFlagClearModeIsPerWaitNotPerObject confirms two waiters on
// the same flag can request different clear behavior in the same Set.
func TestEventFlagClearModeIsPerWaitNotPerObject(t *testing.T) {
	f := NewEventFlag(0)
	none := thread(1)
	matched := thread(2)
	if _, err := f.Wait(none, 0x1, WaitAny, ClearNone, 0); err != nil {
		t.Fatalf("wait none: %v", err)
	}
	if _, err := f.Wait(matched, 0x2, WaitAny, ClearMatched, 0); err != nil {
		t.Fatalf("wait matched: %v", err)
	}
	woken := f.Set(0x3)
	if len(woken) != 2 {
		t.Fatalf("woken = %v, want both waiters", woken)
	}
	if f.Bits() != 0x1 {
		t.Fatalf("bits = 0x%x, want 0x1 (ClearNone's bit survives, ClearMatched's is gone)", f.Bits())
	}
}

func TestSemaphorePostWakesWaiterBeforeIncrementingCount(t *testing.T) {
	s := NewSemaphore(0, 1, true)
	waiter := thread(1)
	blocked, err := s.Wait(waiter, 0, 0)
	if err != nil || !blocked {
		t.Fatalf("wait: blocked=%v err=%v", blocked, err)
	}
	woken, ok, err := s.Post()
	if err != nil || !ok || woken != waiter {
		t.Fatalf("post: woken=%v ok=%v err=%v", woken, ok, err)
	}
	if s.Count() != 0 {
		t.Fatalf("count = %d, want 0 (handed directly to the waiter)", s.Count())
	}
}

func TestRWLockWriterPreference(t *testing.T) {
	l := NewRWLock(true)
	r1 := thread(1)
	if blocked, err := l.LockRead(r1, 0, 0); err != nil || blocked {
		t.Fatalf("first reader: blocked=%v err=%v", blocked, err)
	}

	w := thread(2)
	if blocked, err := l.LockWrite(w, 0, 0); err != nil || !blocked {
		t.Fatalf("writer behind reader: blocked=%v err=%v", blocked, err)
	}

	r2 := thread(3)
	if blocked, err := l.LockRead(r2, 0, 0); err != nil || !blocked {
		t.Fatalf("reader arriving after pending writer should queue: blocked=%v err=%v", blocked, err)
	}

	woken, wokeWriter, err := l.UnlockRead(r1)
	if err != nil || !wokeWriter || woken != w {
		t.Fatalf("unlock last reader: woken=%v wokeWriter=%v err=%v", woken, wokeWriter, err)
	}
}

func TestWaitQueueExpiresTimedOutWaiters(t *testing.T) {
	q := newWaitQueue(true)
	q.push(thread(1), 0, time.Nanosecond)
	time.Sleep(time.Millisecond)
	expired := q.expire(time.Now())
	if len(expired) != 1 || expired[0] != thread(1) {
		t.Fatalf("expired = %v, want [thread 1]", expired)
	}
}

func TestEventQueueDeliversDirectlyToBlockedReceiver(t *testing.T) {
	q := NewEventQueue(4)
	receiver := thread(1)
	_, blocked, err := q.Receive(receiver, 0)
	if err != nil || !blocked {
		t.Fatalf("receive: blocked=%v err=%v", blocked, err)
	}
	woken, direct, err := q.Send(Event{Source: 1, Data1: 42})
	if err != nil || !direct || woken != receiver {
		t.Fatalf("send: woken=%v direct=%v err=%v", woken, direct, err)
	}
}

func TestMemoryContainerRejectsOverBudgetCharge(t *testing.T) {
	c := NewMemoryContainer(256)
	if err := c.Charge(200); err != nil {
		t.Fatalf("charge 200: %v", err)
	}
	if err := c.Charge(100); err == nil {
		t.Fatalf("expected ResourceLimitError charging past capacity")
	}
	c.Uncharge(200)
	if c.Available() != 256 {
		t.Fatalf("available = %d, want 256 after full uncharge", c.Available())
	}
}

func TestSpuGroupRejectsMembershipChangeAfterStart(t *testing.T) {
	g := NewSpuGroup(10)
	if err := g.AddThread(thread(1)); err != nil {
		t.Fatalf("add thread: %v", err)
	}
	if _, err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := g.AddThread(thread(2)); err == nil {
		t.Fatalf("expected BadAttributeError adding to a running group")
	}
}
