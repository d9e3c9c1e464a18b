package kernel

import "fmt"

// Error taxonomy for kernel-primitive failures (spec.md §7). Per the
// propagation policy, these never stop a thread: they return to the
// guest through the syscall return code.

type InvalidIDError struct{ ID ObjectID }

func (e *InvalidIDError) Error() string { return fmt.Sprintf("kernel: invalid object id %d", e.ID) }

type AlreadyExistsError struct{ ID ObjectID }

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("kernel: object %d already exists", e.ID)
}

type ResourceLimitError struct{ Resource string }

func (e *ResourceLimitError) Error() string {
	return fmt.Sprintf("kernel: resource limit reached: %s", e.Resource)
}

// WouldBlockError distinguishes a would-block outcome (timeout expiry or
// a non-blocking trywait whose predicate is unmet) from success.
type WouldBlockError struct{ Reason string }

func (e *WouldBlockError) Error() string { return fmt.Sprintf("kernel: would block: %s", e.Reason) }

// CancelledError is delivered to a waiter explicitly cancelled by the
// primitive it waits on, distinguished from both success and timeout.
type CancelledError struct{}

func (e *CancelledError) Error() string { return "kernel: wait cancelled" }

type NotHeldError struct {
	ID      ObjectID
	Caller  ThreadID
}

func (e *NotHeldError) Error() string {
	return fmt.Sprintf("kernel: %s does not hold object %d", e.Caller, e.ID)
}

type BadAttributeError struct{ Detail string }

func (e *BadAttributeError) Error() string { return fmt.Sprintf("kernel: bad attribute: %s", e.Detail) }
