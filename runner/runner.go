// Package runner drives the cooperative frame loop (spec.md §4.7): one
// host thread repeatedly asks the scheduler for the next Ready guest
// thread, steps its interpreter once, accounts the time slice, and
// services whatever the step reported before moving on.
package runner

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cellforge/cellcore/bridge"
	"github.com/cellforge/cellcore/kernel"
	"github.com/cellforge/cellcore/lv2"
	"github.com/cellforge/cellcore/memory"
	"github.com/cellforge/cellcore/ppu"
	"github.com/cellforge/cellcore/scheduler"
	"github.com/cellforge/cellcore/spu"
)

// Collaborator is the external graphics/presentation boundary the frame
// loop calls out to at the start and end of each frame (spec.md §4.7
// step 1 and step 5's "tell external collaborator" / "pace to target
// frame interval").
type Collaborator interface {
	BeginFrame()
	EndFrame()
}

// Config bounds one frame's work and its pacing.
type Config struct {
	MicroQuantaPerFrame int
	FrameInterval       time.Duration
}

// Runner owns every piece of per-process state the spec names: the
// memory substrate, the two interpreters' thread pools, the scheduler,
// the kernel object manager, and the SPU bridge.
type Runner struct {
	Memory *memory.Space
	Sched  *scheduler.Scheduler
	Kernel *kernel.Context
	Bridge *bridge.Bridge
	Log    *slog.Logger

	cfg Config

	ppuThreads map[uint32]*ppu.Thread
	spuThreads map[uint32]*spu.Thread
	spuMfcs    map[uint32]*spu.Mfc

	nextPPUIndex uint32
	nextSPUIndex uint32

	breakpoints map[uint32]bool

	openFiles map[uintptr]*os.File
	nextFd    uintptr

	// spuGroups and bridgeQueues translate the supervisor's own chosen
	// handles (spec.md §4.8's GroupID/QueueID) into this runner's kernel
	// objects; the bridge's ids and kernel.Context's ObjectIDs are
	// deliberately separate namespaces.
	spuGroups    map[uint32]*kernel.SpuGroup
	bridgeQueues map[uint32]kernel.ObjectID

	// pendingWorkloads remembers the value a submit_workload request
	// carried for a target SPU thread, so its eventual stop can report a
	// WorkloadComplete completion alongside the plain ThreadStopped one.
	pendingWorkloads map[uint32]uint64

	sleepers []sleeper
}

// bridgeDmaLatency is the fixed completion latency, in micro-quanta,
// applied to a DMA transfer the bridge submits directly rather than one
// an SPU program issues itself through its own MFC channel writes.
const bridgeDmaLatency = 4

// sleeper is a thread parked in sys_usleep/sys_sleep awaiting a wall-clock
// deadline the scheduler has no native concept of (spec.md §4.6's timed-wait
// contract); expireSleepers sweeps this list once per frame.
type sleeper struct {
	id   kernel.ThreadID
	wake time.Time
}

// New creates a runner over mem with an empty thread pool.
func New(mem *memory.Space, cfg Config, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		Memory:           mem,
		Sched:            scheduler.New(),
		Kernel:           kernel.NewContext(),
		Bridge:           bridge.New(64),
		Log:              log,
		cfg:              cfg,
		ppuThreads:       make(map[uint32]*ppu.Thread),
		spuThreads:       make(map[uint32]*spu.Thread),
		spuMfcs:          make(map[uint32]*spu.Mfc),
		breakpoints:      make(map[uint32]bool),
		openFiles:        make(map[uintptr]*os.File),
		nextFd:           1,
		spuGroups:        make(map[uint32]*kernel.SpuGroup),
		bridgeQueues:     make(map[uint32]kernel.ObjectID),
		pendingWorkloads: make(map[uint32]uint64),
	}
}

// PPUThread and SPUThread expose the registered threads for the
// operator console's inspection commands (regs/mem/step).
func (r *Runner) PPUThread(idx uint32) (*ppu.Thread, bool) {
	t, ok := r.ppuThreads[idx]
	return t, ok
}

func (r *Runner) SPUThread(idx uint32) (*spu.Thread, bool) {
	t, ok := r.spuThreads[idx]
	return t, ok
}

// AddBreakpoint and RemoveBreakpoint manage the console's PPU
// breakpoint set. A PPU thread whose CIA matches a breakpoint is parked
// Waiting instead of stepped. Neither RemoveBreakpoint nor StepThread
// makes a parked thread Ready again; StepThread only executes one
// instruction for it.
func (r *Runner) AddBreakpoint(addr uint32)    { r.breakpoints[addr] = true }
func (r *Runner) RemoveBreakpoint(addr uint32) { delete(r.breakpoints, addr) }
func (r *Runner) Breakpoints() []uint32 {
	addrs := make([]uint32, 0, len(r.breakpoints))
	for a := range r.breakpoints {
		addrs = append(addrs, a)
	}
	return addrs
}

// StepThread single-steps one thread directly, bypassing scheduler
// selection, for the operator console's "step" command.
func (r *Runner) StepThread(id kernel.ThreadID) error {
	switch id.Kind {
	case kernel.PPUThread:
		t, ok := r.ppuThreads[id.Index]
		if !ok {
			return &kernel.InvalidIDError{}
		}
		r.stepPPU(id, t)
	case kernel.SPUThread:
		t, ok := r.spuThreads[id.Index]
		if !ok {
			return &kernel.InvalidIDError{}
		}
		r.stepSPU(id, t)
	}
	return nil
}

// CreatePPUThread registers a new PPU thread at entry and makes it
// Ready.
func (r *Runner) CreatePPUThread(entry uint32, priority int32) kernel.ThreadID {
	idx := r.nextPPUIndex
	r.nextPPUIndex++
	r.ppuThreads[idx] = ppu.NewThread(entry)
	id := kernel.ThreadID{Kind: kernel.PPUThread, Index: idx}
	r.Sched.AddThread(id, priority)
	return id
}

// CreateSPUThread registers a new SPU thread at entry with a fresh MFC,
// and makes it Ready. Image loading into Local Store (spec.md §6.5) is a
// separate step performed by loadSPUImage, reached only through the lv2
// LoadSPUImage hook (sys_spu_image_open); the bridge's CreateThread
// request does not load an image.
func (r *Runner) CreateSPUThread(entry uint32, priority int32, mfcQueueDepth int) kernel.ThreadID {
	idx := r.nextSPUIndex
	r.nextSPUIndex++
	r.spuThreads[idx] = spu.NewThread(entry)
	r.spuMfcs[idx] = spu.NewMfc(mfcQueueDepth)
	id := kernel.ThreadID{Kind: kernel.SPUThread, Index: idx}
	r.Sched.AddThread(id, priority)
	return id
}

// loadSPUImage implements the SPU image-open step (spec.md §6.5): the
// image is DMA-copied from main memory into the target thread's Local
// Store at address 0, the SPU PC is set to entry, and the thread is
// marked Ready so the scheduler picks it up on its next Schedule call.
func (r *Runner) loadSPUImage(target kernel.ThreadID, imageEA, size, entry uint32) error {
	t, ok := r.spuThreads[target.Index]
	if !ok {
		return &kernel.InvalidIDError{ID: kernel.ObjectID(target.Index)}
	}
	buf := make([]byte, size)
	if err := r.Memory.ReadBytes(imageEA, buf); err != nil {
		return err
	}
	t.Store.WriteBytes(0, buf)
	t.Regs.PC = spu.Mask(entry)
	r.Sched.Wake(target)
	return nil
}

// lv2Env builds the syscall environment for one dispatch, wiring the
// runner's memory and thread-creation hooks into lv2's decoupled Env.
func (r *Runner) lv2Env(caller kernel.ThreadID) *lv2.Env {
	return &lv2.Env{
		Caller: caller,
		Sched:  r.Sched,
		Kernel: r.Kernel,
		Bridge: r.Bridge,
		Now:    time.Now,
		CreateSPUThread: func(entryEA uint32, priority int32) (kernel.ThreadID, error) {
			return r.CreateSPUThread(entryEA, priority, 16), nil
		},
		ReadCString: r.readCString,
		WriteTTY:    func(s string) { fmt.Print(s) },
		WriteU64:    r.Memory.WriteBE64,
		AllocateMemory: func(size, align uint32) (uint32, error) {
			return r.Memory.Allocate(size, align, memory.PermRead|memory.PermWrite)
		},
		FreeMemory: r.Memory.Free,
		OpenFile:   r.openFile,
		CloseFile:  r.closeFile,
		LoadSPUImage: func(target kernel.ThreadID, imageEA, size, entry uint32) error {
			return r.loadSPUImage(target, imageEA, size, entry)
		},
		SleepFor: func(d time.Duration) {
			r.sleepers = append(r.sleepers, sleeper{id: caller, wake: time.Now().Add(d)})
		},
	}
}

// expireSleepers wakes every sleeper whose deadline has elapsed, closing
// sys_usleep/sys_sleep's timed-wait contract (spec.md §4.6): without this
// sweep a sleeping thread would Block and never be told to Wake.
func (r *Runner) expireSleepers() {
	now := time.Now()
	remaining := r.sleepers[:0]
	for _, s := range r.sleepers {
		if now.Before(s.wake) {
			remaining = append(remaining, s)
			continue
		}
		r.Sched.Wake(s.id)
	}
	r.sleepers = remaining
}

// openFile and closeFile back the filesystem syscall stubs (spec.md's
// "delegates to an external VFS" note): guest paths resolve directly
// against the host filesystem, with no guest/host namespace translation.
func (r *Runner) openFile(path string) (uintptr, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	fd := r.nextFd
	r.nextFd++
	r.openFiles[fd] = f
	return fd, nil
}

func (r *Runner) closeFile(fd uintptr) error {
	f, ok := r.openFiles[fd]
	if !ok {
		return fmt.Errorf("runner: no such open file descriptor %d", fd)
	}
	delete(r.openFiles, fd)
	return f.Close()
}

func (r *Runner) readCString(addr uint32) (string, error) {
	var buf []byte
	for i := uint32(0); i < 4096; i++ {
		b, err := r.Memory.Read8(addr + i)
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

// stepPPU advances one PPU thread, servicing syscalls inline and
// stopping the thread in the scheduler on a fault or stop outcome.
func (r *Runner) stepPPU(id kernel.ThreadID, t *ppu.Thread) {
	outcome, err := t.Step(r.Memory)
	if err != nil {
		r.Log.Error("ppu fault", "thread", id.String(), "pc", t.Regs.CIA, "err", err)
		r.Sched.Stop(id)
		return
	}
	switch outcome.Kind {
	case ppu.Stopped:
		r.Sched.Stop(id)
	case ppu.SyscallTrap:
		env := r.lv2Env(id)
		var args lv2.Args
		copy(args[:], outcome.SyscallArgs[:])
		rv, err := lv2.Dispatch(env, outcome.SyscallNum, args)
		if err != nil {
			r.Log.Warn("unknown syscall", "thread", id.String(), "num", outcome.SyscallNum)
		}
		t.Regs.GPR[3] = rv
	}
}

// stepSPU advances one SPU thread. A would-block outcome parks the
// thread without moving its PC, per spec.md §5's suspension-point
// contract; the runner is responsible for retrying it once whatever it
// is waiting on becomes ready (a mailbox push, a signal, or a DMA tag
// completion).
func (r *Runner) stepSPU(id kernel.ThreadID, t *spu.Thread) {
	outcome, err := t.Step(r.Memory)
	if err != nil {
		r.Log.Error("spu fault", "thread", id.String(), "pc", t.Regs.PC, "err", err)
		r.Sched.Stop(id)
		return
	}
	switch outcome.Kind {
	case spu.Stopped:
		r.Sched.Stop(id)
		r.reportStopped(id)
	case spu.WouldBlockRead, spu.WouldBlockWrite:
		r.Sched.Block(id)
	}
}

// reportStopped pushes the bridge completions a stopped SPU thread owes
// the supervisor: always ThreadStopped, plus WorkloadComplete if the stop
// closes out a submit_workload request (spec.md §4.8).
func (r *Runner) reportStopped(id kernel.ThreadID) {
	if err := r.Bridge.Complete(bridge.Completion{Kind: bridge.ThreadStopped, ThreadID: id.Index}); err != nil {
		r.Log.Warn("bridge completion dropped", "kind", "ThreadStopped", "err", err)
	}
	if value, ok := r.pendingWorkloads[id.Index]; ok {
		delete(r.pendingWorkloads, id.Index)
		if err := r.Bridge.Complete(bridge.Completion{Kind: bridge.WorkloadComplete, ThreadID: id.Index, Value: value}); err != nil {
			r.Log.Warn("bridge completion dropped", "kind", "WorkloadComplete", "err", err)
		}
	}
}

// wakeIfWaiting retries a thread parked on a channel/primitive whose
// condition may now hold; Step re-blocks it if the retry still stalls.
func (r *Runner) wakeIfWaiting(id kernel.ThreadID) {
	if state, ok := r.Sched.StateOf(id); ok && state == scheduler.Waiting {
		r.Sched.Wake(id)
	}
}

// RunFrame executes one frame per the five-step loop (spec.md §4.7).
func (r *Runner) RunFrame(collab Collaborator) {
	if collab != nil {
		collab.BeginFrame()
	}

	r.drainBridge()

	for i := 0; i < r.cfg.MicroQuantaPerFrame; i++ {
		id, ok := r.Sched.Schedule()
		if !ok {
			break
		}
		switch id.Kind {
		case kernel.PPUThread:
			if t := r.ppuThreads[id.Index]; t != nil {
				if r.breakpoints[t.Regs.CIA] {
					r.Sched.Block(id)
					r.Log.Info("hit breakpoint", "thread", id.String(), "pc", t.Regs.CIA)
					continue
				}
				r.stepPPU(id, t)
			}
		case kernel.SPUThread:
			if t := r.spuThreads[id.Index]; t != nil {
				r.stepSPU(id, t)
			}
		}
		r.Sched.UpdateTimeSlice(1)
		if r.Sched.TimeSliceExpired() {
			r.Sched.YieldCurrent()
		}
	}

	r.flushDMA()
	r.drainSPUOutbound()
	r.expireSleepers()

	if collab != nil {
		collab.EndFrame()
	}
}

// flushDMA advances every SPU's MFC queue by one frame's worth of
// cycles, performs completed transfers, and wakes any thread parked
// waiting on the channel the completion feeds.
func (r *Runner) flushDMA() {
	for idx, mfc := range r.spuMfcs {
		t := r.spuThreads[idx]
		if t == nil {
			continue
		}
		for _, cmd := range mfc.Queue.Advance(r.cfg.MicroQuantaPerFrame) {
			id := kernel.ThreadID{Kind: kernel.SPUThread, Index: idx}
			if err := spu.Complete(t, r.Memory, cmd); err != nil {
				r.Log.Error("dma completion failed", "spu", idx, "tag", cmd.Tag, "err", err)
				continue
			}
			r.wakeIfWaiting(id)
			if err := r.Bridge.Complete(bridge.Completion{Kind: bridge.DmaComplete, ThreadID: idx, Value: uint64(cmd.Tag)}); err != nil {
				r.Log.Warn("bridge completion dropped", "kind", "DmaComplete", "err", err)
			}
		}
	}
}

// drainSPUOutbound pushes every SPU's pending outbound mailbox word as a
// MailboxReady completion, the host-visible half of spec scenario S4 (an
// SPU writes a result, the supervisor learns of it through the bridge
// rather than by polling channel state directly).
func (r *Runner) drainSPUOutbound() {
	for idx, t := range r.spuThreads {
		for {
			v, ok := t.Chans.PopOutbound()
			if !ok {
				break
			}
			if err := r.Bridge.Complete(bridge.Completion{Kind: bridge.MailboxReady, ThreadID: idx, Value: uint64(v)}); err != nil {
				r.Log.Warn("bridge completion dropped", "kind", "MailboxReady", "err", err)
			}
		}
		for {
			v, ok := t.Chans.PopOutboundIntr()
			if !ok {
				break
			}
			if err := r.Bridge.Complete(bridge.Completion{Kind: bridge.MailboxReady, ThreadID: idx, Value: uint64(v)}); err != nil {
				r.Log.Warn("bridge completion dropped", "kind", "MailboxReady", "err", err)
			}
		}
	}
}

// drainBridge applies every sender-side request queued since the last
// frame, in FIFO order (spec.md §4.8). This is the supervisor's only way
// to reach SPU state: create groups/threads, push DMA, write mailboxes,
// and send signals all arrive here rather than through any direct call
// into the runner.
func (r *Runner) drainBridge() {
	for {
		req, ok := r.Bridge.Receive()
		if !ok {
			return
		}
		r.applyBridgeRequest(req)
	}
}

func (r *Runner) applyBridgeRequest(req bridge.Request) {
	switch req.Kind {
	case bridge.SubmitWorkload:
		id := kernel.ThreadID{Kind: kernel.SPUThread, Index: req.ThreadID}
		r.pendingWorkloads[req.ThreadID] = req.Value
		r.wakeIfWaiting(id)

	case bridge.CreateGroup:
		r.spuGroups[req.GroupID] = kernel.NewSpuGroup(req.Priority)

	case bridge.CreateThread:
		id := r.CreateSPUThread(req.DmaEA, req.Priority, 16)
		if g, ok := r.spuGroups[req.GroupID]; ok {
			if err := g.AddThread(id); err != nil {
				r.Log.Warn("bridge create_thread: group add failed", "group", req.GroupID, "err", err)
			}
		}

	case bridge.DmaTransfer:
		mfc, ok := r.spuMfcs[req.ThreadID]
		if !ok {
			r.Log.Warn("bridge dma_transfer: unknown spu thread", "thread", req.ThreadID)
			return
		}
		cmd := spu.DmaCommand{Direction: spu.DmaGet, Tag: uint8(req.SignalNum), LSAddr: req.DmaLS, EA: req.DmaEA, Size: req.DmaSize}
		if err := mfc.SubmitOrdinary(cmd, bridgeDmaLatency); err != nil {
			r.Log.Warn("bridge dma_transfer: queue full", "thread", req.ThreadID, "err", err)
		}

	case bridge.SendSignal:
		t, ok := r.spuThreads[req.ThreadID]
		if !ok {
			r.Log.Warn("bridge send_signal: unknown spu thread", "thread", req.ThreadID)
			return
		}
		index := 0
		if req.SignalNum != 0 {
			index = 1
		}
		t.Chans.Signal(index, spu.SignalOverwrite, uint32(req.Value))
		r.wakeIfWaiting(kernel.ThreadID{Kind: kernel.SPUThread, Index: req.ThreadID})
		if err := r.Bridge.Complete(bridge.Completion{Kind: bridge.SignalEvent, ThreadID: req.ThreadID, Value: req.Value}); err != nil {
			r.Log.Warn("bridge completion dropped", "kind", "SignalEvent", "err", err)
		}

	case bridge.WriteMailbox:
		t, ok := r.spuThreads[req.ThreadID]
		if !ok {
			r.Log.Warn("bridge write_mailbox: unknown spu thread", "thread", req.ThreadID)
			return
		}
		if !t.Chans.PushInbound(req.Mailbox) {
			r.Log.Warn("bridge write_mailbox: inbound mailbox full", "thread", req.ThreadID)
			return
		}
		r.wakeIfWaiting(kernel.ThreadID{Kind: kernel.SPUThread, Index: req.ThreadID})

	case bridge.AttachEventQueue:
		r.bridgeQueues[req.QueueID] = r.Kernel.Create("eventqueue", kernel.NewEventQueue(32))

	case bridge.DetachEventQueue:
		if id, ok := r.bridgeQueues[req.QueueID]; ok {
			if _, err := r.Kernel.Release(id); err != nil {
				r.Log.Warn("bridge detach_event_queue: release failed", "queue", req.QueueID, "err", err)
			}
			delete(r.bridgeQueues, req.QueueID)
		}
	}
}
