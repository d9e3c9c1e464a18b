package lv2

import "github.com/cellforge/cellcore/kernel"

// Event port: args[0]=name on create; args[0]=port id, args[1]=queue id
// on Connect; args[0]=port id, args[1..3]=data1..3 on Send.

func sysEventPortCreate(env *Env, args Args) uint64 {
	p := kernel.NewEventPort(args[0])
	return uint64(env.Kernel.Create("eventport", p))
}

func lookupEventPort(env *Env, id uint64) (*kernel.EventPort, error) {
	v, err := env.Kernel.LookupKind(kernel.ObjectID(id), "eventport")
	if err != nil {
		return nil, err
	}
	return v.(*kernel.EventPort), nil
}

func sysEventPortConnect(env *Env, args Args) uint64 {
	p, err := lookupEventPort(env, args[0])
	if err != nil {
		return failure
	}
	queueID := kernel.ObjectID(args[1])
	q, err := lookupEventQueue(env, args[1])
	if err != nil {
		return failure
	}
	if err := p.Connect(queueID, q); err != nil {
		return failure
	}
	if err := q.AttachPort(kernel.ObjectID(args[0])); err != nil {
		return failure
	}
	return 0
}

func sysEventPortSend(env *Env, args Args) uint64 {
	p, err := lookupEventPort(env, args[0])
	if err != nil {
		return failure
	}
	portID := kernel.ObjectID(args[0])
	woken, deliverDirect, err := p.Send(portID, args[1], args[2], args[3])
	if err != nil {
		return failure
	}
	if deliverDirect {
		env.Sched.Wake(woken)
	}
	return 0
}
