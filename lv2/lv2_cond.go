package lv2

import (
	"time"

	"github.com/cellforge/cellcore/kernel"
)

// Condition variable: args[0]=mutex id, args[1]=fifo(0/1) on create;
// args[0]=id thereafter.

func sysCondCreate(env *Env, args Args) uint64 {
	m, err := lookupMutex(env, args[0])
	if err != nil {
		return failure
	}
	c := kernel.NewCondVar(m, args[1] != 0)
	return uint64(env.Kernel.Create("condvar", c))
}

func lookupCondVar(env *Env, id uint64) (*kernel.CondVar, error) {
	v, err := env.Kernel.LookupKind(kernel.ObjectID(id), "condvar")
	if err != nil {
		return nil, err
	}
	return v.(*kernel.CondVar), nil
}

// sysCondWait releases the bound mutex and parks the caller; the
// runner's scheduler sees it as a plain Block, the same as any other
// wait-queue primitive. Re-acquiring the mutex on wake is the guest
// stub's job (per spec.md §8.6's release-join-reacquire protocol), not
// this syscall's.
func sysCondWait(env *Env, args Args) uint64 {
	c, err := lookupCondVar(env, args[0])
	if err != nil {
		return failure
	}
	priority := int32(args[1])
	timeout := time.Duration(args[2]) * time.Microsecond
	woken, hadWaiter, err := c.Wait(env.Caller, priority, timeout)
	if err != nil {
		return failure
	}
	if hadWaiter {
		env.Sched.Wake(woken)
	}
	env.Sched.Block(env.Caller)
	return 0
}

func sysCondSignal(env *Env, args Args) uint64 {
	c, err := lookupCondVar(env, args[0])
	if err != nil {
		return failure
	}
	if woken, ok := c.Signal(); ok {
		env.Sched.Wake(woken)
	}
	return 0
}

func sysCondBroadcast(env *Env, args Args) uint64 {
	c, err := lookupCondVar(env, args[0])
	if err != nil {
		return failure
	}
	for _, woken := range c.Broadcast() {
		env.Sched.Wake(woken)
	}
	return 0
}
