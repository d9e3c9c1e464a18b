// Package console implements the operator REPL: a minimum-match command
// table and line tokenizer grounded on the teacher's command/parser
// idiom, driving a runner.Runner instead of an S/370 CPU core.
package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/cellforge/cellcore/disasm"
	"github.com/cellforge/cellcore/kernel"
	"github.com/cellforge/cellcore/runner"
	"github.com/cellforge/cellcore/util/hex"
)

type cmd struct {
	name     string
	min      int
	process  func(*cmdLine, *runner.Runner) (bool, error)
	complete func(*cmdLine) []string
}

type cmdLine struct {
	line string
	pos  int
}

var cmdList = []cmd{
	{name: "threads", min: 1, process: cmdThreads},
	{name: "regs", min: 1, process: cmdRegs},
	{name: "step", min: 2, process: cmdStep},
	{name: "mem", min: 1, process: cmdMem},
	{name: "dis", min: 1, process: cmdDis},
	{name: "break", min: 2, process: cmdBreak},
	{name: "quit", min: 1, process: cmdQuit},
}

// ProcessCommand parses and executes one command line against r,
// returning true when the operator asked to quit.
func ProcessCommand(commandLine string, r *runner.Runner) (bool, error) {
	line := cmdLine{line: commandLine}
	name := line.getWord()

	match := matchList(name)
	if len(match) == 0 {
		return false, errors.New("command not found: " + name)
	}
	if len(match) > 1 {
		return false, errors.New("ambiguous command: " + name)
	}
	return match[0].process(&line, r)
}

// CompleteCmd implements liner's tab-completion callback.
func CompleteCmd(commandLine string) []string {
	line := cmdLine{line: commandLine}
	name := line.getWord()
	match := matchList(name)
	matches := make([]string, len(match))
	for i, m := range match {
		matches[i] = m.name
	}
	return matches
}

func matchCommand(c cmd, name string) bool {
	if len(name) > len(c.name) {
		return false
	}
	l := 0
	for l = range len(name) {
		if c.name[l] != name[l] {
			return false
		}
	}
	return l >= c.min
}

func matchList(name string) []cmd {
	if name == "" {
		return nil
	}
	var match []cmd
	for _, c := range cmdList {
		if matchCommand(c, name) {
			match = append(match, c)
		}
	}
	return match
}

func (l *cmdLine) skipSpace() {
	for l.pos < len(l.line) && unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
}

func (l *cmdLine) isEOL() bool { return l.pos >= len(l.line) }

func (l *cmdLine) getWord() string {
	l.skipSpace()
	start := l.pos
	for l.pos < len(l.line) && !unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
	return strings.ToLower(l.line[start:l.pos])
}

func parseThreadID(s string) (kernel.ThreadID, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return kernel.ThreadID{}, fmt.Errorf("thread id must be ppu-<n> or spu-<n>, got %q", s)
	}
	idx, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return kernel.ThreadID{}, fmt.Errorf("invalid thread index: %q", parts[1])
	}
	switch parts[0] {
	case "ppu":
		return kernel.ThreadID{Kind: kernel.PPUThread, Index: uint32(idx)}, nil
	case "spu":
		return kernel.ThreadID{Kind: kernel.SPUThread, Index: uint32(idx)}, nil
	default:
		return kernel.ThreadID{}, fmt.Errorf("unknown thread kind: %q", parts[0])
	}
}

func cmdThreads(line *cmdLine, r *runner.Runner) (bool, error) {
	for idx := uint32(0); ; idx++ {
		id := kernel.ThreadID{Kind: kernel.PPUThread, Index: idx}
		t, ok := r.PPUThread(idx)
		if !ok {
			break
		}
		state, _ := r.Sched.StateOf(id)
		fmt.Printf("%s  pc=0x%08x  state=%s\n", id, t.Regs.CIA, state)
	}
	for idx := uint32(0); ; idx++ {
		id := kernel.ThreadID{Kind: kernel.SPUThread, Index: idx}
		t, ok := r.SPUThread(idx)
		if !ok {
			break
		}
		state, _ := r.Sched.StateOf(id)
		fmt.Printf("%s  pc=0x%08x  state=%s\n", id, t.Regs.PC, state)
	}
	return false, nil
}

func cmdRegs(line *cmdLine, r *runner.Runner) (bool, error) {
	id, err := parseThreadID(line.getWord())
	if err != nil {
		return false, err
	}
	switch id.Kind {
	case kernel.PPUThread:
		t, ok := r.PPUThread(id.Index)
		if !ok {
			return false, fmt.Errorf("no such thread: %s", id)
		}
		fmt.Printf("cia=0x%08x lr=0x%016x ctr=0x%016x cr=0x%08x xer=0x%016x\n",
			t.Regs.CIA, t.Regs.LR, t.Regs.CTR, t.Regs.CR, t.Regs.XER)
		for i := 0; i < 32; i += 4 {
			fmt.Printf("r%-2d=0x%016x r%-2d=0x%016x r%-2d=0x%016x r%-2d=0x%016x\n",
				i, t.Regs.GPR[i], i+1, t.Regs.GPR[i+1], i+2, t.Regs.GPR[i+2], i+3, t.Regs.GPR[i+3])
		}
	case kernel.SPUThread:
		t, ok := r.SPUThread(id.Index)
		if !ok {
			return false, fmt.Errorf("no such thread: %s", id)
		}
		fmt.Printf("pc=0x%08x\n", t.Regs.PC)
		for i := 0; i < 4; i++ {
			q := t.Regs.GPR[i]
			fmt.Printf("r%-3d=%08x %08x %08x %08x\n", i, q[0], q[1], q[2], q[3])
		}
	}
	return false, nil
}

func cmdStep(line *cmdLine, r *runner.Runner) (bool, error) {
	id, err := parseThreadID(line.getWord())
	if err != nil {
		return false, err
	}
	if err := r.StepThread(id); err != nil {
		return false, err
	}
	return false, nil
}

func cmdMem(line *cmdLine, r *runner.Runner) (bool, error) {
	addrStr := line.getWord()
	lenStr := line.getWord()
	addr, err := strconv.ParseUint(addrStr, 16, 32)
	if err != nil {
		return false, fmt.Errorf("invalid address: %q", addrStr)
	}
	n, err := strconv.ParseUint(lenStr, 10, 32)
	if err != nil || n == 0 {
		n = 16
	}
	buf := make([]byte, n)
	if err := r.Memory.ReadBytes(uint32(addr), buf); err != nil {
		return false, err
	}
	var sb strings.Builder
	hex.FormatBytes(&sb, true, buf)
	fmt.Printf("0x%08x: %s\n", addr, sb.String())
	return false, nil
}

// cmdDis prints count (default 1) decoded instructions starting at
// addr, reading words from main memory (for an SPU thread too; its Local
// Store is not read) and formatting them with the disasm package for that
// thread kind.
func cmdDis(line *cmdLine, r *runner.Runner) (bool, error) {
	id, err := parseThreadID(line.getWord())
	if err != nil {
		return false, err
	}
	addrStr := line.getWord()
	addr, err := strconv.ParseUint(addrStr, 16, 32)
	if err != nil {
		return false, fmt.Errorf("invalid address: %q", addrStr)
	}
	countStr := line.getWord()
	n, err := strconv.ParseUint(countStr, 10, 32)
	if err != nil || n == 0 {
		n = 1
	}
	for i := uint64(0); i < n; i++ {
		ea := uint32(addr) + uint32(i*4)
		word, err := r.Memory.ReadBE32(ea)
		if err != nil {
			return false, err
		}
		fmt.Printf("0x%08x: %08x  %s\n", ea, word, disasm.Instruction(id.Kind, word))
	}
	return false, nil
}

func cmdBreak(line *cmdLine, r *runner.Runner) (bool, error) {
	addrStr := line.getWord()
	addr, err := strconv.ParseUint(addrStr, 16, 32)
	if err != nil {
		return false, fmt.Errorf("invalid address: %q", addrStr)
	}
	r.AddBreakpoint(uint32(addr))
	return false, nil
}

func cmdQuit(line *cmdLine, r *runner.Runner) (bool, error) {
	return true, nil
}
