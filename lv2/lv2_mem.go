package lv2

// Memory: args[0]=size, args[1]=align on Allocate; args[0]=addr,
// args[1]=size on Free. Delegates straight to the runner's
// memory.Space.Allocate/Free (spec.md §6.3's memory allocate/free
// group) rather than modelling a separate guest heap.

func sysMemAllocate(env *Env, args Args) uint64 {
	if env.AllocateMemory == nil {
		return failure
	}
	addr, err := env.AllocateMemory(uint32(args[0]), uint32(args[1]))
	if err != nil {
		return failure
	}
	return uint64(addr)
}

func sysMemFree(env *Env, args Args) uint64 {
	if env.FreeMemory == nil {
		return failure
	}
	if err := env.FreeMemory(uint32(args[0]), uint32(args[1])); err != nil {
		return failure
	}
	return 0
}
