package kernel

// Timer is a one-shot or periodic kernel timer (spec.md §4.6). Rather
// than storing an absolute fire time, each Timer independently stores
// the cycles left until it fires, and Advance decrements that count.
type Timer struct {
	Periodic bool
	Period   uint64 // reload value when Periodic

	port   *EventPort
	portID ObjectID
	armed  bool
	left   uint64
}

// NewTimer creates a disarmed timer.
func NewTimer(periodic bool, period uint64) *Timer {
	return &Timer{Periodic: periodic, Period: period}
}

// Arm starts (or restarts) the timer counting down from delay cycles,
// firing into portID/port on expiry.
func (t *Timer) Arm(delay uint64, portID ObjectID, port *EventPort) {
	t.left = delay
	t.port = port
	t.portID = portID
	t.armed = true
}

// Disarm stops the timer without firing it.
func (t *Timer) Disarm() {
	t.armed = false
}

// Advance decrements the timer by cycles and, if it expires, sends a
// notification through its bound port and either rearms (Periodic) or
// disarms itself. Returns the woken receiver thread if the firing
// delivered directly to a blocked EventQueue.Receive.
func (t *Timer) Advance(cycles uint64) (woken ThreadID, delivered bool, err error) {
	if !t.armed {
		return ThreadID{}, false, nil
	}
	if cycles < t.left {
		t.left -= cycles
		return ThreadID{}, false, nil
	}
	overshoot := cycles - t.left
	if t.Periodic && t.Period > 0 {
		t.left = t.Period - (overshoot % t.Period)
	} else {
		t.armed = false
	}
	woken, delivered, err = t.port.Send(t.portID, 0, 0, 0)
	return woken, delivered, err
}

// Armed reports whether the timer is currently counting down.
func (t *Timer) Armed() bool { return t.armed }
