package runner

import (
	"testing"

	"github.com/cellforge/cellcore/memory"
	"github.com/cellforge/cellcore/scheduler"
)

func newTestMemory(t *testing.T) *memory.Space {
	t.Helper()
	return memory.NewSpace(0x30000, 0x10000, []memory.Region{
		{Name: "main", Base: 0x10000, Size: 0x20000, Flags: memory.PermRead | memory.PermWrite | memory.PermExecute},
	})
}

func TestRunFrameStepsReadyPPUThread(t *testing.T) {
	mem := newTestMemory(t)
	// addi r3, 0, 100 at 0x10000
	if err := mem.WriteBE32(0x10000, 0x38600064); err != nil {
		t.Fatalf("seed instruction: %v", err)
	}
	r := New(mem, Config{MicroQuantaPerFrame: 4}, nil)
	id := r.CreatePPUThread(0x10000, 10)

	r.RunFrame(nil)

	th := r.ppuThreads[id.Index]
	if th.Regs.GPR[3] != 100 {
		t.Fatalf("r3 = %d, want 100", th.Regs.GPR[3])
	}
}

func TestRunFrameStopsOnIllegalOpcode(t *testing.T) {
	mem := newTestMemory(t)
	r := New(mem, Config{MicroQuantaPerFrame: 4}, nil)
	id := r.CreatePPUThread(0x10000, 10)

	r.RunFrame(nil)

	state, ok := r.Sched.StateOf(id)
	if !ok || state != scheduler.Stopped {
		t.Fatalf("state = %v, ok=%v, want Stopped", state, ok)
	}
}
