package lv2

import "github.com/cellforge/cellcore/kernel"

// Timer: args[0]=periodic(0/1), args[1]=period (cycles) on create;
// args[0]=id thereafter. Start takes args[1]=delay, args[2]=port id.

func sysTimerCreate(env *Env, args Args) uint64 {
	t := kernel.NewTimer(args[0] != 0, args[1])
	return uint64(env.Kernel.Create("timer", t))
}

func lookupTimer(env *Env, id uint64) (*kernel.Timer, error) {
	v, err := env.Kernel.LookupKind(kernel.ObjectID(id), "timer")
	if err != nil {
		return nil, err
	}
	return v.(*kernel.Timer), nil
}

func sysTimerStart(env *Env, args Args) uint64 {
	t, err := lookupTimer(env, args[0])
	if err != nil {
		return failure
	}
	portID := kernel.ObjectID(args[2])
	port, err := lookupEventPort(env, args[2])
	if err != nil {
		return failure
	}
	t.Arm(args[1], portID, port)
	return 0
}

func sysTimerStop(env *Env, args Args) uint64 {
	t, err := lookupTimer(env, args[0])
	if err != nil {
		return failure
	}
	t.Disarm()
	return 0
}
