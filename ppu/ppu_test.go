package ppu

import (
	"testing"

	"github.com/cellforge/cellcore/memory"
)

func newCodeSpace(t *testing.T, base uint32, code []uint32) *memory.Space {
	t.Helper()
	const regionSize = 0x20000
	sp := memory.NewSpace(base+regionSize, 0x10000, []memory.Region{
		{Name: "code", Base: base, Size: regionSize, Flags: memory.PermRead | memory.PermWrite | memory.PermExecute},
	})
	for i, w := range code {
		if err := sp.WriteBE32(base+uint32(i)*4, w); err != nil {
			t.Fatalf("seeding code: %v", err)
		}
	}
	return sp
}

// TestAddiAdvancesCIA exercises spec scenario S1: addi r3,0,100 at CIA
// 0x10000 leaves r3=100 and CIA=0x10004.
func TestAddiAdvancesCIA(t *testing.T) {
	sp := newCodeSpace(t, 0x10000, []uint32{0x38600064})
	th := NewThread(0x10000)

	outcome, err := th.Step(sp)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if outcome.Kind != Completed {
		t.Fatalf("outcome kind = %v, want Completed", outcome.Kind)
	}
	if th.Regs.GPR[3] != 100 {
		t.Fatalf("r3 = %d, want 100", th.Regs.GPR[3])
	}
	if th.Regs.CIA != 0x10004 {
		t.Fatalf("CIA = 0x%x, want 0x10004", th.Regs.CIA)
	}
}

func TestBranchUnconditional(t *testing.T) {
	// b 0x10010 (absolute), at CIA 0x10000.
	word := uint32(18<<26) | uint32(0x10010) | 0x2 // AA=1
	sp := newCodeSpace(t, 0x10000, []uint32{word})
	th := NewThread(0x10000)

	if _, err := th.Step(sp); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if th.Regs.CIA != 0x10010 {
		t.Fatalf("CIA = 0x%x, want 0x10010", th.Regs.CIA)
	}
}

func TestLwarxStwcxRoundTrip(t *testing.T) {
	// lwarx r3,0,r4 ; stwcx. r5,0,r4  -- group 31, xo 20 and 150.
	lwarx := uint32(31<<26) | uint32(3<<21) | uint32(4<<11) | uint32(20<<1)
	stwcx := uint32(31<<26) | uint32(5<<21) | uint32(4<<11) | uint32(150<<1) | 1
	sp := newCodeSpace(t, 0x10000, []uint32{lwarx, stwcx})

	if err := sp.WriteBE32(0x20000, 0xdeadbeef); err != nil {
		t.Fatalf("seed data: %v", err)
	}

	th := NewThread(0x10000)
	th.Regs.GPR[4] = 0x20000
	th.Regs.GPR[5] = 0x12345678

	if _, err := th.Step(sp); err != nil {
		t.Fatalf("lwarx step: %v", err)
	}
	if th.Regs.GPR[3] != 0xdeadbeef {
		t.Fatalf("r3 = 0x%x, want 0xdeadbeef", th.Regs.GPR[3])
	}
	if !th.Resv.Valid {
		t.Fatalf("expected reservation to be set")
	}

	if _, err := th.Step(sp); err != nil {
		t.Fatalf("stwcx step: %v", err)
	}
	if th.Regs.CRBit(2) != true { // CR0 EQ bit
		t.Fatalf("stwcx. did not report success in CR0")
	}
	v, err := sp.ReadBE32(0x20000)
	if err != nil {
		t.Fatalf("readback: %v", err)
	}
	if v != 0x12345678 {
		t.Fatalf("memory = 0x%x, want 0x12345678", v)
	}
}

func TestIllegalOpcodeStopsThread(t *testing.T) {
	sp := newCodeSpace(t, 0x10000, []uint32{0x00000000})
	th := NewThread(0x10000)

	_, err := th.Step(sp)
	if err == nil {
		t.Fatalf("expected illegal opcode error")
	}
	if !th.Stopped {
		t.Fatalf("thread should be stopped after fault")
	}
}
