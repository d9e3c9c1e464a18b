package ppu

import "github.com/cellforge/cellcore/memory"

// Branch and condition-register instructions (spec.md §4.3). BO/BI decoding
// follows the PowerPC convention: bit 2 of BO ("decrement CTR") and bit 3
// ("branch if CR bit true/false") select among the four simplified forms
// actually emitted by compiled LV2 code; the full 32-entry BO table is not
// reproduced since unused encodings never appear in practice.

func branchTaken(t *Thread, bo, bi uint8) bool {
	decrementCTR := bo&0x4 == 0
	condOK := bo&0x10 != 0 // unconditionally true if bit set
	if decrementCTR {
		t.Regs.CTR--
	}
	ctrOK := true
	if decrementCTR {
		if bo&0x2 != 0 {
			ctrOK = t.Regs.CTR == 0
		} else {
			ctrOK = t.Regs.CTR != 0
		}
	}
	if !condOK {
		want := bo&0x8 != 0
		condOK = t.Regs.CRBit(bi) == want
	}
	return ctrOK && condOK
}

func opB(t *Thread, _ *memory.Space, w uint32) (bool, StepOutcome, error) {
	target := computeBranchTarget(t, fLI24(w), fAA(w))
	if fLK(w) {
		t.Regs.LR = uint64(t.Regs.CIA + 4)
	}
	t.Regs.CIA = target
	return true, StepOutcome{}, nil
}

func opBc(t *Thread, _ *memory.Space, w uint32) (bool, StepOutcome, error) {
	bo, bi := fBO(w), fBI(w)
	taken := branchTaken(t, bo, bi)
	if fLK(w) {
		link := t.Regs.CIA + 4
		if taken {
			target := computeBranchTarget(t, fBD14(w), fAA(w))
			t.Regs.LR = uint64(link)
			t.Regs.CIA = target
			return true, StepOutcome{}, nil
		}
		t.Regs.LR = uint64(link)
		return false, StepOutcome{}, nil
	}
	if taken {
		t.Regs.CIA = computeBranchTarget(t, fBD14(w), fAA(w))
		return true, StepOutcome{}, nil
	}
	return false, StepOutcome{}, nil
}

func computeBranchTarget(t *Thread, disp int32, absolute bool) uint32 {
	if absolute {
		return uint32(disp)
	}
	return t.Regs.CIA + uint32(disp)
}

// op19Extended covers the group-19 table: branch-to-LR/CTR and
// condition-register logical ops.
func op19Extended(t *Thread, _ *memory.Space, w uint32) (bool, StepOutcome, error) {
	xo := fXO10(w)
	switch xo {
	case 16: // bclr
		bo, bi := fBO(w), fBI(w)
		taken := branchTaken(t, bo, bi)
		link := t.Regs.CIA + 4
		if taken {
			t.Regs.CIA = uint32(t.Regs.LR) &^ 0x3
		}
		if fLK(w) {
			t.Regs.LR = uint64(link)
		}
		return taken, StepOutcome{}, nil
	case 528: // bcctr
		bo, bi := fBO(w), fBI(w)
		want := bo&0x8 != 0
		condOK := bo&0x10 != 0 || t.Regs.CRBit(bi) == want
		link := t.Regs.CIA + 4
		if condOK {
			t.Regs.CIA = uint32(t.Regs.CTR) &^ 0x3
		}
		if fLK(w) {
			t.Regs.LR = uint64(link)
		}
		return condOK, StepOutcome{}, nil
	case 150: // isync
		return false, StepOutcome{}, nil
	case 257: // crand
		crLogical(t, w, func(a, b bool) bool { return a && b })
	case 449: // cror
		crLogical(t, w, func(a, b bool) bool { return a || b })
	case 193: // crxor
		crLogical(t, w, func(a, b bool) bool { return a != b })
	case 225: // crnand
		crLogical(t, w, func(a, b bool) bool { return !(a && b) })
	case 33: // crnor
		crLogical(t, w, func(a, b bool) bool { return !(a || b) })
	case 289: // creqv
		crLogical(t, w, func(a, b bool) bool { return a == b })
	default:
		return false, StepOutcome{}, &IllegalOpcodeError{PC: t.Regs.CIA, Raw: w}
	}
	return false, StepOutcome{}, nil
}

func crLogical(t *Thread, w uint32, op func(a, b bool) bool) {
	bt := uint8((w >> 21) & 0x1f)
	ba := uint8((w >> 16) & 0x1f)
	bb := uint8((w >> 11) & 0x1f)
	t.Regs.SetCRBit(bt, op(t.Regs.CRBit(ba), t.Regs.CRBit(bb)))
}

// opSc traps to the supervisor: the syscall number travels in r0 and
// arguments in r3-r10, per the LV2 calling convention. Step advances CIA
// past the sc instruction itself before returning the trap to the caller.
func opSc(t *Thread, _ *memory.Space, _ uint32) (bool, StepOutcome, error) {
	var args [8]uint64
	copy(args[:], t.Regs.GPR[3:11])
	return false, StepOutcome{Kind: SyscallTrap, SyscallNum: t.Regs.GPR[0], SyscallArgs: args}, nil
}
