package kernel

// EventPort is a one-to-one sender handle bound to a single EventQueue
// (spec.md §4.6, and the send side of the SPU bridge's signal path in
// spec.md §4.8). A port unattached to any queue fails Send with
// InvalidIDError, mirroring a guest creating a port before connecting
// it.
type EventPort struct {
	Name   uint64
	queue  *EventQueue
	target ObjectID
}

// NewEventPort creates a detached event port tagged with name, an opaque
// identifier the guest chooses. The name is kept in Name only; delivered
// events carry the port's object id as Event.Source (see Send).
func NewEventPort(name uint64) *EventPort {
	return &EventPort{Name: name}
}

// Connect binds the port to queue, identified by queueID for the events
// it sends.
func (p *EventPort) Connect(queueID ObjectID, queue *EventQueue) error {
	if p.queue != nil {
		return &AlreadyExistsError{ID: queueID}
	}
	p.queue = queue
	p.target = queueID
	return nil
}

// Disconnect unbinds the port from its queue.
func (p *EventPort) Disconnect() error {
	if p.queue == nil {
		return &InvalidIDError{ID: p.target}
	}
	p.queue = nil
	p.target = 0
	return nil
}

// Send pushes an event carrying data through the port to its connected
// queue. portID is the port's own object id, the syscall handler's
// handle for it, echoed back to the receiver as Event.Source.
func (p *EventPort) Send(portID ObjectID, data1, data2, data3 uint64) (woken ThreadID, deliverDirect bool, err error) {
	if p.queue == nil {
		return ThreadID{}, false, &InvalidIDError{ID: p.target}
	}
	return p.queue.Send(Event{Source: portID, Data1: data1, Data2: data2, Data3: data3})
}
