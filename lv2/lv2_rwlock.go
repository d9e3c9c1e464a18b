package lv2

import (
	"time"

	"github.com/cellforge/cellcore/kernel"
)

// Reader/writer lock: args[0]=fifo(0/1) on create; args[0]=id
// thereafter.

func sysRwlockCreate(env *Env, args Args) uint64 {
	l := kernel.NewRWLock(args[0] != 0)
	return uint64(env.Kernel.Create("rwlock", l))
}

func lookupRWLock(env *Env, id uint64) (*kernel.RWLock, error) {
	v, err := env.Kernel.LookupKind(kernel.ObjectID(id), "rwlock")
	if err != nil {
		return nil, err
	}
	return v.(*kernel.RWLock), nil
}

func sysRwlockRdLock(env *Env, args Args) uint64 {
	l, err := lookupRWLock(env, args[0])
	if err != nil {
		return failure
	}
	priority := int32(args[1])
	timeout := time.Duration(args[2]) * time.Microsecond
	blocked, err := l.LockRead(env.Caller, priority, timeout)
	if err != nil {
		return failure
	}
	if blocked {
		env.Sched.Block(env.Caller)
	}
	return 0
}

func sysRwlockWrLock(env *Env, args Args) uint64 {
	l, err := lookupRWLock(env, args[0])
	if err != nil {
		return failure
	}
	priority := int32(args[1])
	timeout := time.Duration(args[2]) * time.Microsecond
	blocked, err := l.LockWrite(env.Caller, priority, timeout)
	if err != nil {
		return failure
	}
	if blocked {
		env.Sched.Block(env.Caller)
	}
	return 0
}

func sysRwlockRdUnlock(env *Env, args Args) uint64 {
	l, err := lookupRWLock(env, args[0])
	if err != nil {
		return failure
	}
	woken, wokeWriter, err := l.UnlockRead(env.Caller)
	if err != nil {
		return failure
	}
	if wokeWriter {
		env.Sched.Wake(woken)
	}
	return 0
}

func sysRwlockWrUnlock(env *Env, args Args) uint64 {
	l, err := lookupRWLock(env, args[0])
	if err != nil {
		return failure
	}
	wokeWriter, writerID, wokeReaders, err := l.UnlockWrite(env.Caller)
	if err != nil {
		return failure
	}
	if wokeWriter {
		env.Sched.Wake(writerID)
	}
	for _, id := range wokeReaders {
		env.Sched.Wake(id)
	}
	return 0
}
