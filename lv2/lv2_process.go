package lv2

import "time"

func sysGetPid(env *Env, args Args) uint64 {
	return 1
}

func sysExit(env *Env, args Args) uint64 {
	env.Sched.Stop(env.Caller)
	return 0
}

func sysGetSDKVersion(env *Env, args Args) uint64 {
	return 0x0049_0001
}

func sysThreadYield(env *Env, args Args) uint64 {
	env.Sched.YieldCurrent()
	return 0
}

func sysThreadGetID(env *Env, args Args) uint64 {
	return uint64(env.Caller.Index)
}

func sysThreadSetPrio(env *Env, args Args) uint64 {
	target := kernelThreadID(env.Caller.Kind, uint32(args[0]))
	if err := env.Sched.SetPriority(target, int32(args[1])); err != nil {
		return failure
	}
	return 0
}

func sysThreadGetPrio(env *Env, args Args) uint64 {
	target := kernelThreadID(env.Caller.Kind, uint32(args[0]))
	priority, ok := env.Sched.Priority(target)
	if !ok {
		return failure
	}
	return uint64(uint32(priority))
}

// sysUsleep parks the caller and registers a wake deadline with the
// runner (spec.md §4.6's timed-wait contract). A zero delay yields the
// caller instead of sleeping, unlike the kernel wait queues' push(),
// where a zero timeout means block indefinitely.
func sysUsleep(env *Env, args Args) uint64 {
	return sleepFor(env, time.Duration(args[0])*time.Microsecond)
}

// sysSleep is usleep's whole-second-granularity sibling.
func sysSleep(env *Env, args Args) uint64 {
	return sleepFor(env, time.Duration(args[0])*time.Second)
}

func sleepFor(env *Env, d time.Duration) uint64 {
	if d <= 0 {
		env.Sched.YieldCurrent()
		return 0
	}
	env.Sched.Block(env.Caller)
	if env.SleepFor != nil {
		env.SleepFor(d)
	}
	return 0
}

func sysGetSystemTime(env *Env, args Args) uint64 {
	now := time.Now()
	if env.Now != nil {
		now = env.Now()
	}
	return uint64(now.UnixMicro())
}

func sysGetTimebaseFrequency(env *Env, args Args) uint64 {
	return TimebaseFrequency
}

func sysTTYWrite(env *Env, args Args) uint64 {
	if env.ReadCString == nil || env.WriteTTY == nil {
		return failure
	}
	s, err := env.ReadCString(uint32(args[0]))
	if err != nil {
		return failure
	}
	env.WriteTTY(s)
	return uint64(len(s))
}
