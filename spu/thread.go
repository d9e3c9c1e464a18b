package spu

import (
	"fmt"

	"github.com/cellforge/cellcore/memory"
)

// OutcomeKind discriminates the result of a single Step call.
type OutcomeKind int

const (
	Completed OutcomeKind = iota
	WouldBlockRead
	WouldBlockWrite
	Stopped
)

// StepOutcome is the result of advancing an SPU thread by one instruction.
type StepOutcome struct {
	Kind    OutcomeKind
	Channel uint8
	Target  uint8  // destination register for a stalled rdch
	Value   uint32 // pending value for a stalled wrch
}

// IllegalOpcodeError reports an opcode this interpreter has no handler
// for; the SPU has no architected exception for this, so the thread
// simply stops (spec.md §4.4).
type IllegalOpcodeError struct {
	PC  uint32
	Raw uint32
}

func (e *IllegalOpcodeError) Error() string {
	return fmt.Sprintf("spu: illegal opcode 0x%08x at pc 0x%05x", e.Raw, e.PC)
}

// Reservation mirrors ppu.Reservation for the SPU's getllar/putllc pair.
type Reservation struct {
	Valid bool
	Line  uint32
	Stamp uint64
}

// Thread is one SPU's complete execution state.
type Thread struct {
	Regs  RegisterFile
	Store LocalStore
	Chans *Channels
	Resv  Reservation

	Stopped bool
	Fault   error

	// blocked records that the last Step stalled on a channel access.
	// Only this flag is kept: the stalled instruction is re-fetched and
	// re-executed from the unchanged PC on the next Step.
	blocked bool
}

// NewThread creates an SPU thread with PC at entry (masked into range).
func NewThread(entry uint32) *Thread {
	t := &Thread{Chans: NewChannels()}
	t.Regs.PC = Mask(entry)
	return t
}

// Step fetches, decodes, and executes one instruction. A thread blocked
// on a channel op left its PC on that op, so Step fetches and retries it.
func (t *Thread) Step(m *memory.Space) (StepOutcome, error) {
	if t.Stopped {
		return StepOutcome{Kind: Stopped}, t.Fault
	}

	word := t.Store.ReadQuad(t.Regs.PC &^ 0xf)[(t.Regs.PC>>2)&0x3]
	outcome, err := t.execute(m, word)
	if err != nil {
		t.Stopped = true
		t.Fault = err
		return StepOutcome{Kind: Stopped}, err
	}
	switch outcome.Kind {
	case WouldBlockRead, WouldBlockWrite:
		t.blocked = true
		return outcome, nil
	case Completed:
		t.blocked = false
	}
	return outcome, nil
}

func (t *Thread) execute(m *memory.Space, word uint32) (StepOutcome, error) {
	op := uint8(word >> 25)
	fn := spuDispatch[op]
	if fn == nil {
		return StepOutcome{}, &IllegalOpcodeError{PC: t.Regs.PC, Raw: word}
	}
	return fn(t, m, word)
}

// advance moves PC to the next instruction, wrapping within Local Store.
func (t *Thread) advance() {
	t.Regs.PC = Mask(t.Regs.PC + 4)
}
