package lv2

import "github.com/cellforge/cellcore/kernel"

// SPU thread/group: thread creation goes through the runner's hook
// (entry EA, priority) since Local Store ownership lives there; groups
// are pure kernel bookkeeping over already-created thread ids.

func sysSpuThreadCreate(env *Env, args Args) uint64 {
	if env.CreateSPUThread == nil {
		return failure
	}
	id, err := env.CreateSPUThread(uint32(args[0]), int32(args[1]))
	if err != nil {
		return failure
	}
	return uint64(id.Index)
}

func sysSpuGroupCreate(env *Env, args Args) uint64 {
	g := kernel.NewSpuGroup(int32(args[0]))
	return uint64(env.Kernel.Create("spugroup", g))
}

func lookupSpuGroup(env *Env, id uint64) (*kernel.SpuGroup, error) {
	v, err := env.Kernel.LookupKind(kernel.ObjectID(id), "spugroup")
	if err != nil {
		return nil, err
	}
	return v.(*kernel.SpuGroup), nil
}

// sysSpuImageOpen DMA-copies an SPU image into the target thread's
// Local Store and sets its PC to the entry point (spec.md §6.5).
// args[0]=target SPU thread index, args[1]=image effective address in
// main memory, args[2]=image size, args[3]=entry address within Local
// Store.
func sysSpuImageOpen(env *Env, args Args) uint64 {
	if env.LoadSPUImage == nil {
		return failure
	}
	target := kernelThreadID(kernel.SPUThread, uint32(args[0]))
	if err := env.LoadSPUImage(target, uint32(args[1]), uint32(args[2]), uint32(args[3])); err != nil {
		return failure
	}
	return 0
}

// sysSpuGroupStart transitions the group to Running; args[0]=group id.
// Member threads are already Ready in the scheduler from their own
// sys_spu_thread_create calls, so starting the group is pure state
// bookkeeping rather than an enqueue step.
func sysSpuGroupStart(env *Env, args Args) uint64 {
	g, err := lookupSpuGroup(env, args[0])
	if err != nil {
		return failure
	}
	if _, err := g.Start(); err != nil {
		return failure
	}
	return 0
}
