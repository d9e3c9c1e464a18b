package lv2

import (
	"time"

	"github.com/cellforge/cellcore/kernel"
)

func sysDestroy(env *Env, args Args) uint64 {
	if _, err := env.Kernel.Release(kernel.ObjectID(args[0])); err != nil {
		return failure
	}
	return 0
}

// Mutex: args[0]=recursive(0/1), args[1]=fifo(0/1) on create; args[0]=id
// otherwise.

func sysMutexCreate(env *Env, args Args) uint64 {
	m := kernel.NewMutex(args[0] != 0, args[1] != 0)
	return uint64(env.Kernel.Create("mutex", m))
}

func sysMutexLock(env *Env, args Args) uint64 {
	m, err := lookupMutex(env, args[0])
	if err != nil {
		return failure
	}
	priority := int32(args[1])
	timeout := time.Duration(args[2]) * time.Microsecond
	blocked, err := m.Lock(env.Caller, priority, timeout)
	if err != nil {
		return failure
	}
	if blocked {
		env.Sched.Block(env.Caller)
	}
	return 0
}

func sysMutexTryLock(env *Env, args Args) uint64 {
	m, err := lookupMutex(env, args[0])
	if err != nil {
		return failure
	}
	ok, err := m.TryLock(env.Caller)
	if err != nil || !ok {
		return failure
	}
	return 0
}

func sysMutexUnlock(env *Env, args Args) uint64 {
	m, err := lookupMutex(env, args[0])
	if err != nil {
		return failure
	}
	woken, ok, err := m.Unlock(env.Caller)
	if err != nil {
		return failure
	}
	if ok {
		env.Sched.Wake(woken)
	}
	return 0
}

func lookupMutex(env *Env, id uint64) (*kernel.Mutex, error) {
	v, err := env.Kernel.LookupKind(kernel.ObjectID(id), "mutex")
	if err != nil {
		return nil, err
	}
	return v.(*kernel.Mutex), nil
}

// Semaphore: args[0]=initial, args[1]=max, args[2]=fifo on create;
// args[0]=id otherwise.

func sysSemCreate(env *Env, args Args) uint64 {
	s := kernel.NewSemaphore(int32(args[0]), int32(args[1]), args[2] != 0)
	return uint64(env.Kernel.Create("semaphore", s))
}

func lookupSemaphore(env *Env, id uint64) (*kernel.Semaphore, error) {
	v, err := env.Kernel.LookupKind(kernel.ObjectID(id), "semaphore")
	if err != nil {
		return nil, err
	}
	return v.(*kernel.Semaphore), nil
}

func sysSemWait(env *Env, args Args) uint64 {
	s, err := lookupSemaphore(env, args[0])
	if err != nil {
		return failure
	}
	priority := int32(args[1])
	timeout := time.Duration(args[2]) * time.Microsecond
	blocked, err := s.Wait(env.Caller, priority, timeout)
	if err != nil {
		return failure
	}
	if blocked {
		env.Sched.Block(env.Caller)
	}
	return 0
}

func sysSemTryWait(env *Env, args Args) uint64 {
	s, err := lookupSemaphore(env, args[0])
	if err != nil || !s.TryWait() {
		return failure
	}
	return 0
}

func sysSemPost(env *Env, args Args) uint64 {
	s, err := lookupSemaphore(env, args[0])
	if err != nil {
		return failure
	}
	woken, ok, err := s.Post()
	if err != nil {
		return failure
	}
	if ok {
		env.Sched.Wake(woken)
	}
	return 0
}

// Event flag: args[0]=initial bits on create; args[0]=id otherwise.
// Clear mode is a per-wait argument (spec.md §4.6), not fixed at
// create time.

func sysEventFlagCreate(env *Env, args Args) uint64 {
	f := kernel.NewEventFlag(args[0])
	return uint64(env.Kernel.Create("eventflag", f))
}

func lookupEventFlag(env *Env, id uint64) (*kernel.EventFlag, error) {
	v, err := env.Kernel.LookupKind(kernel.ObjectID(id), "eventflag")
	if err != nil {
		return nil, err
	}
	return v.(*kernel.EventFlag), nil
}

// sysEventFlagWait: args[0]=id, args[1]=mask, args[2]=mode (AND/OR),
// args[3]=clear mode (NONE/CLEAR/CLEAR_ALL), args[4]=timeout in
// microseconds.
func sysEventFlagWait(env *Env, args Args) uint64 {
	f, err := lookupEventFlag(env, args[0])
	if err != nil {
		return failure
	}
	mask := args[1]
	mode := kernel.WaitMode(args[2])
	clear := kernel.ClearMode(args[3])
	timeout := time.Duration(args[4]) * time.Microsecond
	blocked, err := f.Wait(env.Caller, mask, mode, clear, timeout)
	if err != nil {
		return failure
	}
	if blocked {
		env.Sched.Block(env.Caller)
	}
	return 0
}

func sysEventFlagSet(env *Env, args Args) uint64 {
	f, err := lookupEventFlag(env, args[0])
	if err != nil {
		return failure
	}
	for _, woken := range f.Set(args[1]) {
		env.Sched.Wake(woken)
	}
	return 0
}

func sysEventFlagClear(env *Env, args Args) uint64 {
	f, err := lookupEventFlag(env, args[0])
	if err != nil {
		return failure
	}
	f.ClearBits(args[1])
	return 0
}

func sysEventFlagCancel(env *Env, args Args) uint64 {
	f, err := lookupEventFlag(env, args[0])
	if err != nil {
		return failure
	}
	target := kernelThreadID(env.Caller.Kind, uint32(args[1]))
	if !f.Cancel(target) {
		return failure
	}
	env.Sched.Wake(target)
	return 0
}
