// Package bridge implements the process-wide single-producer/single-
// consumer channel between the high-level-emulation supervisor and the
// SPU executor (spec.md §4.8), grounded on the teacher's core runner's
// packet-channel idiom: a typed message enum pushed down one channel,
// drained FIFO by the receiver's dispatch switch.
package bridge

import (
	"sync/atomic"
)

// RequestKind enumerates the sender-side (supervisor → SPU executor)
// operations (spec.md §4.8).
type RequestKind uint8

const (
	SubmitWorkload RequestKind = iota
	CreateGroup
	CreateThread
	DmaTransfer
	SendSignal
	WriteMailbox
	AttachEventQueue
	DetachEventQueue
)

// Request is one sender-side bridge message. Which fields are populated
// depends on Kind; unused fields are left zero.
type Request struct {
	Kind      RequestKind
	ThreadID  uint32
	GroupID   uint32
	QueueID   uint32
	SignalNum uint32
	Mailbox   uint32
	Value     uint64
	DmaEA     uint32
	DmaLS     uint32
	DmaSize   uint32
	Priority  int32
	ImagePath string
}

// CompletionKind enumerates the receiver-side (SPU executor →
// supervisor) notifications (spec.md §4.8).
type CompletionKind uint8

const (
	WorkloadComplete CompletionKind = iota
	ThreadStopped
	DmaComplete
	MailboxReady
	SignalEvent
)

// Completion is one receiver-side bridge message.
type Completion struct {
	Kind     CompletionKind
	ThreadID uint32
	Value    uint64
}

// Bridge is the bidirectional SPSC message channel plus the shared
// connected flag and instrumentation counters spec.md §4.8 names.
type Bridge struct {
	requests    chan Request
	completions chan Completion

	connected atomic.Bool

	activeThreads     atomic.Int64
	completedWorkload atomic.Int64
}

// New creates a connected bridge with the given per-direction backlog
// depth.
func New(depth int) *Bridge {
	b := &Bridge{
		requests:    make(chan Request, depth),
		completions: make(chan Completion, depth),
	}
	b.connected.Store(true)
	return b
}

// Disconnect marks the bridge closed to new sends in both directions;
// already-queued messages already in the channel buffers remain
// drainable.
func (b *Bridge) Disconnect() {
	b.connected.Store(false)
}

// Connected reports the shared connected flag.
func (b *Bridge) Connected() bool {
	return b.connected.Load()
}

// disconnectedError is returned by every Send* method once the bridge
// has been disconnected.
type disconnectedError struct{}

func (disconnectedError) Error() string { return "bridge: disconnected" }

// Send pushes a sender-side request, failing without enqueueing if the
// bridge is disconnected or the backlog is full.
func (b *Bridge) Send(req Request) error {
	if !b.connected.Load() {
		return disconnectedError{}
	}
	if req.Kind == CreateThread {
		b.activeThreads.Add(1)
	}
	select {
	case b.requests <- req:
		return nil
	default:
		return &backlogFullError{direction: "request"}
	}
}

// Receive drains the next sender-side request, non-blocking.
func (b *Bridge) Receive() (Request, bool) {
	select {
	case req := <-b.requests:
		return req, true
	default:
		return Request{}, false
	}
}

// Complete pushes a receiver-side completion, failing without
// enqueueing if the bridge is disconnected or the backlog is full.
func (b *Bridge) Complete(c Completion) error {
	if !b.connected.Load() {
		return disconnectedError{}
	}
	switch c.Kind {
	case WorkloadComplete:
		b.completedWorkload.Add(1)
	case ThreadStopped:
		b.activeThreads.Add(-1)
	}
	select {
	case b.completions <- c:
		return nil
	default:
		return &backlogFullError{direction: "completion"}
	}
}

// PollCompletion drains the next receiver-side completion, non-blocking.
func (b *Bridge) PollCompletion() (Completion, bool) {
	select {
	case c := <-b.completions:
		return c, true
	default:
		return Completion{}, false
	}
}

// ActiveThreads and CompletedWorkloads expose the instrumentation
// counters spec.md §4.8 requires.
func (b *Bridge) ActiveThreads() int64      { return b.activeThreads.Load() }
func (b *Bridge) CompletedWorkloads() int64 { return b.completedWorkload.Load() }

type backlogFullError struct{ direction string }

func (e *backlogFullError) Error() string { return "bridge: " + e.direction + " backlog full" }
