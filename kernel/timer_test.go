package kernel

import "testing"

// TestTimerOneShotFiresOnceAtExactDelay exercises the no-overshoot case:
// Advance exactly to the delay fires and disarms, and a further Advance
// is a no-op.
func TestTimerOneShotFiresOnceAtExactDelay(t *testing.T) {
	q := NewEventQueue(4)
	receiver := thread(1)
	if _, blocked, err := q.Receive(receiver, 0); err != nil || !blocked {
		t.Fatalf("receive: blocked=%v err=%v", blocked, err)
	}

	port := NewEventPort(0xabc)
	if err := port.Connect(1, q); err != nil {
		t.Fatalf("connect: %v", err)
	}

	tm := NewTimer(false, 0)
	tm.Arm(100, 1, port)
	if !tm.Armed() {
		t.Fatalf("expected armed after Arm")
	}

	woken, delivered, err := tm.Advance(99)
	if err != nil || delivered {
		t.Fatalf("advance below delay: delivered=%v err=%v", delivered, err)
	}
	if !tm.Armed() {
		t.Fatalf("timer disarmed early")
	}

	woken, delivered, err = tm.Advance(1)
	if err != nil || !delivered || woken != receiver {
		t.Fatalf("advance to delay: woken=%v delivered=%v err=%v", woken, delivered, err)
	}
	if tm.Armed() {
		t.Fatalf("one-shot timer still armed after firing")
	}

	woken, delivered, err = tm.Advance(1000)
	if err != nil || delivered || woken != (ThreadID{}) {
		t.Fatalf("advance after disarm should be a no-op: woken=%v delivered=%v err=%v", woken, delivered, err)
	}
}

// TestTimerPeriodicReloadsAndCoalescesMissedPeriods exercises Advance's
// overshoot-modulo reload: a single Advance spanning several periods
// fires once and reloads to the correct phase, rather than firing once
// per missed period.
func TestTimerPeriodicReloadsAndCoalescesMissedPeriods(t *testing.T) {
	q := NewEventQueue(4)
	port := NewEventPort(0xdef)
	if err := port.Connect(1, q); err != nil {
		t.Fatalf("connect: %v", err)
	}

	receiver := thread(1)
	if _, blocked, err := q.Receive(receiver, 0); err != nil || !blocked {
		t.Fatalf("receive: blocked=%v err=%v", blocked, err)
	}

	tm := NewTimer(true, 50)
	tm.Arm(50, 1, port)

	// Advance by 130: the initial delay of 50 expires, leaving 80 of
	// overshoot against a 50-cycle period, i.e. the periods due at 100 and
	// 130 are coalesced into this single firing rather than fired again.
	woken, delivered, err := tm.Advance(130)
	if err != nil || !delivered || woken != receiver {
		t.Fatalf("advance across periods: woken=%v delivered=%v err=%v", woken, delivered, err)
	}
	if !tm.Armed() {
		t.Fatalf("periodic timer should rearm after firing")
	}

	// Exactly one event was queued for the whole span: the woken receiver
	// gets it, and a second Receive finds nothing and parks again.
	if _, blocked, err := q.Receive(receiver, 0); err != nil || blocked {
		t.Fatalf("receive coalesced event: blocked=%v err=%v", blocked, err)
	}
	if _, blocked, err := q.Receive(receiver, 0); err != nil || !blocked {
		t.Fatalf("missed periods were not coalesced: blocked=%v err=%v", blocked, err)
	}

	// 130 - 50 (initial delay) = 80 overshoot; 80 % 50 = 30 into the
	// current period, so 50 - 30 = 20 left to the next fire (at 150).
	_, delivered, err = tm.Advance(19)
	if err != nil || delivered {
		t.Fatalf("advance short of reload: delivered=%v err=%v", delivered, err)
	}
	woken, delivered, err = tm.Advance(1)
	if err != nil || !delivered || woken != receiver {
		t.Fatalf("advance to reload boundary: woken=%v delivered=%v err=%v", woken, delivered, err)
	}
}

// TestTimerDisarmStopsFiring confirms a disarmed timer never sends,
// even when Advanced far past its original delay.
func TestTimerDisarmStopsFiring(t *testing.T) {
	q := NewEventQueue(4)
	port := NewEventPort(1)
	if err := port.Connect(1, q); err != nil {
		t.Fatalf("connect: %v", err)
	}

	tm := NewTimer(false, 0)
	tm.Arm(10, 1, port)
	tm.Disarm()
	if tm.Armed() {
		t.Fatalf("expected disarmed")
	}

	woken, delivered, err := tm.Advance(1000)
	if err != nil || delivered || woken != (ThreadID{}) {
		t.Fatalf("disarmed timer fired: woken=%v delivered=%v err=%v", woken, delivered, err)
	}
}

// TestTimerFiresIntoQueueWithNoWaitingReceiver confirms firing still
// buffers the event (via EventQueue.Send) when nobody is parked in
// Receive yet, so a later Receive still observes it.
func TestTimerFiresIntoQueueWithNoWaitingReceiver(t *testing.T) {
	q := NewEventQueue(4)
	port := NewEventPort(7)
	if err := port.Connect(1, q); err != nil {
		t.Fatalf("connect: %v", err)
	}

	tm := NewTimer(false, 0)
	tm.Arm(5, 1, port)
	_, delivered, err := tm.Advance(5)
	if err != nil || delivered {
		t.Fatalf("fire with no waiter should not report direct delivery: delivered=%v err=%v", delivered, err)
	}

	ev, blocked, err := q.Receive(thread(9), 0)
	if err != nil || blocked {
		t.Fatalf("receive after buffered fire: blocked=%v err=%v", blocked, err)
	}
	if ev.Source != 1 {
		t.Fatalf("event source = %d, want the port id 1 passed to Arm", ev.Source)
	}
}
