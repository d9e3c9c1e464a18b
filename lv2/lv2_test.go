package lv2

import (
	"testing"

	"github.com/cellforge/cellcore/kernel"
	"github.com/cellforge/cellcore/scheduler"
)

func newEnv() *Env {
	sched := scheduler.New()
	sched.AddThread(kernel.ThreadID{Kind: kernel.PPUThread, Index: 1}, 10)
	sched.Schedule()
	return &Env{
		Caller: kernel.ThreadID{Kind: kernel.PPUThread, Index: 1},
		Sched:  sched,
		Kernel: kernel.NewContext(),
	}
}

func TestMutexCreateLockUnlockRoundTrip(t *testing.T) {
	env := newEnv()
	id, err := Dispatch(env, SysMutexCreate, Args{0, 0})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rv, err := Dispatch(env, SysMutexLock, Args{id, 0, 0}); err != nil || rv != 0 {
		t.Fatalf("lock: rv=%d err=%v", rv, err)
	}
	if rv, err := Dispatch(env, SysMutexUnlock, Args{id, 0, 0}); err != nil || rv != 0 {
		t.Fatalf("unlock: rv=%d err=%v", rv, err)
	}
}

func TestUnknownSyscallReportsError(t *testing.T) {
	env := newEnv()
	rv, err := Dispatch(env, 0xdead, Args{})
	if err == nil {
		t.Fatalf("expected NoSuchSyscall")
	}
	if rv != failure {
		t.Fatalf("rv = 0x%x, want failure sentinel", rv)
	}
}

func TestEventFlagSetWakesBlockedThread(t *testing.T) {
	env := newEnv()
	id, err := Dispatch(env, SysEventFlagCreate, Args{0})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	rv, err := Dispatch(env, SysEventFlagWait, Args{id, 0x1, uint64(kernel.WaitAny), uint64(kernel.ClearMatched), 0})
	if err != nil || rv != 0 {
		t.Fatalf("wait: rv=%d err=%v", rv, err)
	}
	state, _ := env.Sched.StateOf(env.Caller)
	if state != scheduler.Waiting {
		t.Fatalf("state = %v, want Waiting", state)
	}
	if rv, err := Dispatch(env, SysEventFlagSet, Args{id, 0x1}); err != nil || rv != 0 {
		t.Fatalf("set: rv=%d err=%v", rv, err)
	}
	state, _ = env.Sched.StateOf(env.Caller)
	if state != scheduler.Ready {
		t.Fatalf("state after set = %v, want Ready", state)
	}
}

func TestEventQueueSendThenReceiveRoundTrip(t *testing.T) {
	env := newEnv()
	var written []uint64
	env.WriteU64 = func(addr uint32, v uint64) error {
		written = append(written, v)
		return nil
	}

	qid, err := Dispatch(env, SysEventQueueCreate, Args{4})
	if err != nil {
		t.Fatalf("create queue: %v", err)
	}
	pid, err := Dispatch(env, SysEventPortCreate, Args{0xabc})
	if err != nil {
		t.Fatalf("create port: %v", err)
	}
	if rv, err := Dispatch(env, SysEventPortConnect, Args{pid, qid}); err != nil || rv != 0 {
		t.Fatalf("connect: rv=%d err=%v", rv, err)
	}
	if rv, err := Dispatch(env, SysEventPortSend, Args{pid, 10, 20, 30}); err != nil || rv != 0 {
		t.Fatalf("send: rv=%d err=%v", rv, err)
	}
	if rv, err := Dispatch(env, SysEventQueueReceive, Args{qid, 0, 0x1000}); err != nil || rv != 0 {
		t.Fatalf("receive: rv=%d err=%v", rv, err)
	}
	if len(written) != 3 || written[0] != 10 || written[1] != 20 || written[2] != 30 {
		t.Fatalf("unexpected written words: %v", written)
	}
}

func TestRwlockWriterBlocksReader(t *testing.T) {
	env := newEnv()
	id, err := Dispatch(env, SysRwlockCreate, Args{0})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rv, err := Dispatch(env, SysRwlockWrLock, Args{id, 0, 0}); err != nil || rv != 0 {
		t.Fatalf("wrlock: rv=%d err=%v", rv, err)
	}
	other := kernel.ThreadID{Kind: kernel.PPUThread, Index: 2}
	env.Sched.AddThread(other, 10)
	env2 := *env
	env2.Caller = other
	if rv, err := Dispatch(&env2, SysRwlockRdLock, Args{id, 0, 0}); err != nil || rv != 0 {
		t.Fatalf("rdlock: rv=%d err=%v", rv, err)
	}
	state, _ := env.Sched.StateOf(other)
	if state != scheduler.Waiting {
		t.Fatalf("reader state = %v, want Waiting behind active writer", state)
	}
}

func TestMemAllocateFreeRoundTrip(t *testing.T) {
	env := newEnv()
	var freedAddr, freedSize uint32
	env.AllocateMemory = func(size, align uint32) (uint32, error) { return 0x1000, nil }
	env.FreeMemory = func(addr, size uint32) error {
		freedAddr, freedSize = addr, size
		return nil
	}
	rv, err := Dispatch(env, SysMemAllocate, Args{0x100, 0x10})
	if err != nil || rv != 0x1000 {
		t.Fatalf("allocate: rv=0x%x err=%v", rv, err)
	}
	if rv, err := Dispatch(env, SysMemFree, Args{rv, 0x100}); err != nil || rv != 0 {
		t.Fatalf("free: rv=%d err=%v", rv, err)
	}
	if freedAddr != 0x1000 || freedSize != 0x100 {
		t.Fatalf("free hook got addr=0x%x size=0x%x", freedAddr, freedSize)
	}
}
