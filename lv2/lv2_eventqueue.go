package lv2

import (
	"time"

	"github.com/cellforge/cellcore/kernel"
)

// Event queue: args[0]=capacity on create; args[0]=id, args[1]=timeout
// micros, args[2]=guest address of a 3-uint64 {data1,data2,data3} out
// buffer on Receive.

func sysEventQueueCreate(env *Env, args Args) uint64 {
	q := kernel.NewEventQueue(int(args[0]))
	return uint64(env.Kernel.Create("eventqueue", q))
}

func lookupEventQueue(env *Env, id uint64) (*kernel.EventQueue, error) {
	v, err := env.Kernel.LookupKind(kernel.ObjectID(id), "eventqueue")
	if err != nil {
		return nil, err
	}
	return v.(*kernel.EventQueue), nil
}

func sysEventQueueReceive(env *Env, args Args) uint64 {
	q, err := lookupEventQueue(env, args[0])
	if err != nil {
		return failure
	}
	timeout := time.Duration(args[1]) * time.Microsecond
	ev, blocked, err := q.Receive(env.Caller, timeout)
	if err != nil {
		return failure
	}
	if blocked {
		env.Sched.Block(env.Caller)
		return 0
	}
	if env.WriteU64 != nil {
		out := uint32(args[2])
		env.WriteU64(out, ev.Data1)
		env.WriteU64(out+8, ev.Data2)
		env.WriteU64(out+16, ev.Data3)
	}
	return 0
}
