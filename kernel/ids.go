// Package kernel implements the process-wide kernel object manager and
// the synchronization primitives it hosts: mutexes, condition variables,
// semaphores, reader/writer locks, event flags, event queues and ports,
// and timers (spec.md §4.6).
package kernel

import "fmt"

// ThreadKind distinguishes a PPU hardware thread from an SPU thread in a
// ThreadID, per spec.md §3's "identity {PPU|SPU, 32-bit index}".
type ThreadKind uint8

const (
	PPUThread ThreadKind = iota
	SPUThread
)

func (k ThreadKind) String() string {
	if k == SPUThread {
		return "spu"
	}
	return "ppu"
}

// ThreadID identifies a guest thread across both processing element
// kinds, the key the scheduler and every wait queue in this package
// orders its entries by.
type ThreadID struct {
	Kind  ThreadKind
	Index uint32
}

func (id ThreadID) String() string {
	return fmt.Sprintf("%s-%d", id.Kind, id.Index)
}

// ObjectID is a kernel object's identifier: monotonic, never reused
// during a process's lifetime (spec.md §3).
type ObjectID uint32
