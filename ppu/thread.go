package ppu

import (
	"fmt"

	"github.com/cellforge/cellcore/memory"
)

// Reservation is the thread-local record of the most recent lwarx/ldarx,
// consulted by the matching stwcx./stdcx. per the reservation protocol.
type Reservation struct {
	Valid bool
	Line  uint32
	Stamp uint64
}

// Thread is one PPU hardware thread's execution state.
type Thread struct {
	Regs RegisterFile
	Resv Reservation

	// Stopped is set once the thread has faulted or executed an exit
	// path; Step refuses to advance a stopped thread.
	Stopped bool
	Fault   error
}

// NewThread creates a PPU thread with its program counter at entry.
func NewThread(entry uint32) *Thread {
	t := &Thread{}
	t.Regs.CIA = entry
	return t
}

// OutcomeKind discriminates the result of a single Step call.
type OutcomeKind int

const (
	Completed OutcomeKind = iota
	Stopped
	SyscallTrap
)

// StepOutcome is the result of advancing a PPU thread by one instruction,
// per the interpreter step contract.
type StepOutcome struct {
	Kind        OutcomeKind
	SyscallNum  uint64
	SyscallArgs [8]uint64 // R3..R10
}

// IllegalOpcodeError reports an undecodable or unimplemented instruction.
type IllegalOpcodeError struct {
	PC  uint32
	Raw uint32
}

func (e *IllegalOpcodeError) Error() string {
	return fmt.Sprintf("ppu: illegal opcode 0x%08x at pc 0x%08x", e.Raw, e.PC)
}

// FetchFailedError wraps a memory error encountered while fetching an
// instruction word.
type FetchFailedError struct {
	PC  uint32
	Err error
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("ppu: fetch failed at pc 0x%08x: %v", e.PC, e.Err)
}

func (e *FetchFailedError) Unwrap() error { return e.Err }

// Step fetches, decodes, and executes one instruction at the thread's
// current CIA, then advances CIA by 4 unless the instruction branched or
// raised; a syscall trap also advances CIA past the sc. A faulted thread is marked Stopped and the error is
// both returned and stashed in t.Fault, per the propagation policy: the
// caller (the runner) is expected to stop scheduling this thread and
// continue with others.
func (t *Thread) Step(m *memory.Space) (StepOutcome, error) {
	if t.Stopped {
		return StepOutcome{Kind: Stopped}, t.Fault
	}

	pc := t.Regs.CIA
	if err := m.CheckAccess(pc, 4, memory.PermExecute|memory.PermRead); err != nil {
		ferr := &FetchFailedError{PC: pc, Err: err}
		t.Stopped = true
		t.Fault = ferr
		return StepOutcome{Kind: Stopped}, ferr
	}
	word, err := m.ReadBE32Unchecked(pc)
	if err != nil {
		ferr := &FetchFailedError{PC: pc, Err: err}
		t.Stopped = true
		t.Fault = ferr
		return StepOutcome{Kind: Stopped}, ferr
	}

	branched, outcome, err := t.execute(m, word)
	if err != nil {
		t.Stopped = true
		t.Fault = err
		return StepOutcome{Kind: Stopped}, err
	}
	if outcome.Kind == SyscallTrap {
		t.Regs.CIA += 4
		return outcome, nil
	}
	if !branched {
		t.Regs.CIA += 4
	}
	return StepOutcome{Kind: Completed}, nil
}

func (t *Thread) execute(m *memory.Space, word uint32) (branched bool, outcome StepOutcome, err error) {
	primary := uint8(word >> 26)
	fn := dispatchTable[primary]
	if fn == nil {
		return false, StepOutcome{}, &IllegalOpcodeError{PC: t.Regs.CIA, Raw: word}
	}
	return fn(t, m, word)
}
