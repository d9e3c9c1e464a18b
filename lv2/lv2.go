// Package lv2 implements the syscall surface exposed to guest code
// (spec.md §6.3), named for the PS3 kernel's own syscall layer rather
// than "syscall" to avoid colliding with the standard library package of
// that name. Handlers are pure functions of an Env plus the guest's
// register arguments; the runner supplies Env so this package never
// imports the runner's thread-storage types directly (spec.md §4.7's
// "invokes the registered handler" dispatch).
package lv2

import (
	"time"

	"github.com/cellforge/cellcore/bridge"
	"github.com/cellforge/cellcore/kernel"
	"github.com/cellforge/cellcore/scheduler"
)

// Syscall numbers (spec.md §6.3). Stable once assigned, grouped by
// subsystem the way the guest ABI groups them.
const (
	SysGetPid        = 1
	SysExit          = 2
	SysGetSDKVersion = 3

	SysThreadYield   = 10
	SysThreadGetID   = 11
	SysThreadSetPrio = 12
	SysThreadGetPrio = 13
	SysUsleep        = 14
	SysSleep         = 15

	SysMutexCreate  = 20
	SysMutexDestroy = 21
	SysMutexLock    = 22
	SysMutexTryLock = 23
	SysMutexUnlock  = 24

	SysCondCreate    = 25
	SysCondDestroy   = 26
	SysCondWait      = 27
	SysCondSignal    = 28
	SysCondBroadcast = 29

	SysSemCreate  = 30
	SysSemDestroy = 31
	SysSemWait    = 32
	SysSemTryWait = 33
	SysSemPost    = 34

	SysRwlockCreate   = 35
	SysRwlockDestroy  = 36
	SysRwlockRdLock   = 37
	SysRwlockWrLock   = 38
	SysRwlockRdUnlock = 39
	SysRwlockWrUnlock = 40

	SysEventFlagCreate  = 41
	SysEventFlagDestroy = 42
	SysEventFlagWait    = 43
	SysEventFlagSet     = 44
	SysEventFlagClear   = 45
	SysEventFlagCancel  = 46

	SysEventQueueCreate  = 47
	SysEventQueueDestroy = 48
	SysEventQueueReceive = 49

	SysEventPortCreate  = 50
	SysEventPortDestroy = 51
	SysEventPortConnect = 52
	SysEventPortSend    = 53

	SysTimerCreate  = 54
	SysTimerDestroy = 55
	SysTimerStart   = 56
	SysTimerStop    = 57

	SysSpuThreadCreate = 60
	SysSpuGroupCreate  = 61
	SysSpuGroupStart   = 62
	SysSpuImageOpen    = 63

	SysFsOpen  = 70
	SysFsClose = 71

	SysMemAllocate = 80
	SysMemFree     = 81

	SysGetSystemTime        = 90
	SysGetTimebaseFrequency = 91

	SysTTYWrite = 100
)

// TimebaseFrequency is the fixed guest timebase rate (spec.md §6.3).
const TimebaseFrequency = 79_800_000

// NoSuchSyscall marks an unregistered syscall number; the runner logs it
// and leaves R3 at 0xFFFFFFFFFFFFFFFF without further side effects.
type NoSuchSyscall struct{ Number uint64 }

func (e *NoSuchSyscall) Error() string { return "lv2: unknown syscall" }

// Args mirrors R3..R10 at the point of the sc trap.
type Args [8]uint64

// Env is the host-side context a handler runs against. Fields ending in
// a function type are hooks into state the runner owns (thread storage,
// guest memory) that this package deliberately does not reach into
// directly, keeping the dependency direction one-way: runner -> lv2.
type Env struct {
	Caller kernel.ThreadID
	Sched  *scheduler.Scheduler
	Kernel *kernel.Context
	Bridge *bridge.Bridge
	Now    func() time.Time

	CreateSPUThread func(entryEA uint32, priority int32) (kernel.ThreadID, error)
	ReadCString     func(addr uint32) (string, error)
	WriteTTY        func(s string)
	WriteU64        func(addr uint32, v uint64) error
	AllocateMemory  func(size, align uint32) (uint32, error)
	FreeMemory      func(addr, size uint32) error
	OpenFile        func(path string) (uintptr, error)
	CloseFile       func(fd uintptr) error
	LoadSPUImage    func(target kernel.ThreadID, imageEA, size, entry uint32) error
	SleepFor        func(d time.Duration)
}

// Handler is one syscall's implementation. It returns the guest-visible
// R3 value directly (spec.md §4.7: "places the return value in R3").
type Handler func(env *Env, args Args) uint64

var table = map[uint64]Handler{
	SysGetPid:               sysGetPid,
	SysExit:                 sysExit,
	SysGetSDKVersion:        sysGetSDKVersion,
	SysThreadYield:          sysThreadYield,
	SysThreadGetID:          sysThreadGetID,
	SysThreadSetPrio:        sysThreadSetPrio,
	SysThreadGetPrio:        sysThreadGetPrio,
	SysUsleep:               sysUsleep,
	SysSleep:                sysSleep,
	SysMutexCreate:          sysMutexCreate,
	SysMutexDestroy:         sysDestroy,
	SysMutexLock:            sysMutexLock,
	SysMutexTryLock:         sysMutexTryLock,
	SysMutexUnlock:          sysMutexUnlock,
	SysCondCreate:           sysCondCreate,
	SysCondDestroy:          sysDestroy,
	SysCondWait:             sysCondWait,
	SysCondSignal:           sysCondSignal,
	SysCondBroadcast:        sysCondBroadcast,
	SysSemCreate:            sysSemCreate,
	SysSemDestroy:           sysDestroy,
	SysSemWait:              sysSemWait,
	SysSemTryWait:           sysSemTryWait,
	SysSemPost:              sysSemPost,
	SysRwlockCreate:         sysRwlockCreate,
	SysRwlockDestroy:        sysDestroy,
	SysRwlockRdLock:         sysRwlockRdLock,
	SysRwlockWrLock:         sysRwlockWrLock,
	SysRwlockRdUnlock:       sysRwlockRdUnlock,
	SysRwlockWrUnlock:       sysRwlockWrUnlock,
	SysEventFlagCreate:      sysEventFlagCreate,
	SysEventFlagDestroy:     sysDestroy,
	SysEventFlagWait:        sysEventFlagWait,
	SysEventFlagSet:         sysEventFlagSet,
	SysEventFlagClear:       sysEventFlagClear,
	SysEventFlagCancel:      sysEventFlagCancel,
	SysEventQueueCreate:     sysEventQueueCreate,
	SysEventQueueDestroy:    sysDestroy,
	SysEventQueueReceive:    sysEventQueueReceive,
	SysEventPortCreate:      sysEventPortCreate,
	SysEventPortDestroy:     sysDestroy,
	SysEventPortConnect:     sysEventPortConnect,
	SysEventPortSend:        sysEventPortSend,
	SysTimerCreate:          sysTimerCreate,
	SysTimerDestroy:         sysDestroy,
	SysTimerStart:           sysTimerStart,
	SysTimerStop:            sysTimerStop,
	SysSpuThreadCreate:      sysSpuThreadCreate,
	SysSpuGroupCreate:       sysSpuGroupCreate,
	SysSpuGroupStart:        sysSpuGroupStart,
	SysSpuImageOpen:         sysSpuImageOpen,
	SysFsOpen:               sysFsOpen,
	SysFsClose:              sysFsClose,
	SysMemAllocate:          sysMemAllocate,
	SysMemFree:              sysMemFree,
	SysGetSystemTime:        sysGetSystemTime,
	SysGetTimebaseFrequency: sysGetTimebaseFrequency,
	SysTTYWrite:             sysTTYWrite,
}

// failure is the fixed guest-visible error return (spec.md §4.7).
const failure = 0xFFFFFFFFFFFFFFFF

func kernelThreadID(kind kernel.ThreadKind, index uint32) kernel.ThreadID {
	return kernel.ThreadID{Kind: kind, Index: index}
}

// Dispatch invokes the handler registered for num, or reports
// NoSuchSyscall for anything unregistered.
func Dispatch(env *Env, num uint64, args Args) (uint64, error) {
	h, ok := table[num]
	if !ok {
		return failure, &NoSuchSyscall{Number: num}
	}
	return h(env, args), nil
}
