package spu

import (
	"testing"

	"github.com/cellforge/cellcore/memory"
)

func newMainMemory(t *testing.T) *memory.Space {
	t.Helper()
	return memory.NewSpace(0x30000, 0x10000, []memory.Region{
		{Name: "main", Base: 0x20000, Size: 0x10000, Flags: memory.PermRead | memory.PermWrite | memory.PermExecute},
	})
}

func rrWord(op uint8, rt, ra, rb uint8) uint32 {
	return uint32(op)<<25 | uint32(rt)<<18 | uint32(ra)<<11 | uint32(rb)<<4
}

func ri16Word(op uint8, rt uint8, imm int32) uint32 {
	return uint32(op)<<25 | uint32(rt)<<18 | (uint32(imm)&0xffff)<<2
}

// TestImmediateLoad exercises spec scenario S3.
func TestImmediateLoad(t *testing.T) {
	th := NewThread(0x100)
	word := ri16Word(opIL, 1, 0x1234)
	th.Store.WriteQuad(0x100, Quad{word, 0, 0, 0})
	// instruction fetch reads one word lane from the quad at 0x100; lane 0.

	sp := newMainMemory(t)
	outcome, err := th.Step(sp)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if outcome.Kind != Completed {
		t.Fatalf("outcome = %v, want Completed", outcome.Kind)
	}
	if got := th.Regs.GPR[1].Preferred(); got != 0x1234 {
		t.Fatalf("r1 preferred slot = 0x%x, want 0x1234", got)
	}
	if th.Regs.PC != 0x104 {
		t.Fatalf("PC = 0x%x, want 0x104", th.Regs.PC)
	}
}

// TestMailboxStallAndWake exercises spec scenario S4.
func TestMailboxStallAndWake(t *testing.T) {
	th := NewThread(0x200)
	word := rrWord(opRDCH, 2, 0, ChanRdInMbox)
	th.Store.WriteQuad(0x200, Quad{word, 0, 0, 0})
	sp := newMainMemory(t)

	outcome, err := th.Step(sp)
	if err != nil {
		t.Fatalf("first step: %v", err)
	}
	if outcome.Kind != WouldBlockRead {
		t.Fatalf("outcome = %v, want WouldBlockRead", outcome.Kind)
	}
	if th.Regs.PC != 0x200 {
		t.Fatalf("PC advanced while blocked: 0x%x", th.Regs.PC)
	}

	if !th.Chans.PushInbound(0xcafebabe) {
		t.Fatalf("mailbox push failed")
	}

	outcome, err = th.Retry(sp)
	if err != nil {
		t.Fatalf("retry step: %v", err)
	}
	if outcome.Kind != Completed {
		t.Fatalf("outcome = %v, want Completed", outcome.Kind)
	}
	if got := th.Regs.GPR[2].Preferred(); got != 0xcafebabe {
		t.Fatalf("r2 preferred slot = 0x%x, want 0xcafebabe", got)
	}
	if th.Regs.PC != 0x204 {
		t.Fatalf("PC = 0x%x, want 0x204", th.Regs.PC)
	}
}

// TestGetllarPutllcFailsAfterConcurrentWrite exercises spec scenario S11
// and testable property 11.
func TestGetllarPutllcFailsAfterConcurrentWrite(t *testing.T) {
	sp := newMainMemory(t)
	if err := sp.WriteBE32(0x20000, 0x11111111); err != nil {
		t.Fatalf("seed: %v", err)
	}

	th := NewThread(0x300)
	th.Regs.GPR[4] = PreferredQuad(0x20000) // RA: main-memory EA
	th.Regs.GPR[3] = PreferredQuad(0x0)     // RT: Local Store destination

	getllar := rrWord(opGETLLAR, 3, 4, 0)
	putllc := rrWord(opPUTLLC, 3, 4, 0)
	th.Store.WriteQuad(0x300, Quad{getllar, 0, 0, 0})
	th.Store.WriteQuad(0x310, Quad{putllc, 0, 0, 0})

	if _, err := th.Step(sp); err != nil {
		t.Fatalf("getllar: %v", err)
	}
	if !th.Resv.Valid {
		t.Fatalf("expected reservation after getllar")
	}

	// Another agent writes to the same line, invalidating the reservation.
	if err := sp.WriteBE32(0x20004, 0x22222222); err != nil {
		t.Fatalf("concurrent write: %v", err)
	}

	th.Regs.PC = 0x310
	if _, err := th.Step(sp); err != nil {
		t.Fatalf("putllc: %v", err)
	}
	if status := th.Regs.GPR[3].Preferred(); status != 1 {
		t.Fatalf("putllc status = %d, want 1 (failure)", status)
	}
}

func TestIllegalOpcodeStopsThread(t *testing.T) {
	th := NewThread(0x400)
	sp := newMainMemory(t)
	_, err := th.Step(sp)
	if err == nil {
		t.Fatalf("expected illegal opcode error")
	}
	if !th.Stopped {
		t.Fatalf("thread should be stopped")
	}
}

func TestDmaQueueOrdersByCompletionTime(t *testing.T) {
	q := NewDmaQueue(4)
	if err := q.Submit(DmaCommand{Tag: 1}, 10); err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	if err := q.Submit(DmaCommand{Tag: 2}, 15); err != nil {
		t.Fatalf("submit 2: %v", err)
	}

	done := q.Advance(10)
	if len(done) != 1 || done[0].Tag != 1 {
		t.Fatalf("Advance(10) = %+v, want [tag 1]", done)
	}
	done = q.Advance(5)
	if len(done) != 1 || done[0].Tag != 2 {
		t.Fatalf("Advance(5) = %+v, want [tag 2]", done)
	}
	if q.Len() != 0 {
		t.Fatalf("queue should be drained, len=%d", q.Len())
	}
}
