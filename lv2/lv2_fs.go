package lv2

// Filesystem: a thin stub delegating to the runner's host-backed open
// hook (spec.md §6.3's "filesystem: open/close stubs that delegate to
// an external VFS"). args[0]=guest address of a NUL-terminated path on
// Open; args[0]=fd on Close.

func sysFsOpen(env *Env, args Args) uint64 {
	if env.ReadCString == nil || env.OpenFile == nil {
		return failure
	}
	path, err := env.ReadCString(uint32(args[0]))
	if err != nil {
		return failure
	}
	fd, err := env.OpenFile(path)
	if err != nil {
		return failure
	}
	return uint64(fd)
}

func sysFsClose(env *Env, args Args) uint64 {
	if env.CloseFile == nil {
		return failure
	}
	if err := env.CloseFile(uintptr(args[0])); err != nil {
		return failure
	}
	return 0
}
