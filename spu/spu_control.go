package spu

import "github.com/cellforge/cellcore/memory"

// Control flow (spec.md §4.4 "control flow"). Branch displacements are
// word-scaled (×4) in this interpreter's encoding, matching the
// word-granular addressing used throughout the rest of the decoder.

func opBr(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	t.Regs.PC = Mask(uint32(int32(t.Regs.PC) + sI16(w)*4))
	return StepOutcome{}, nil
}

func opBra(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	t.Regs.PC = Mask(uint32(sI18(w)))
	return StepOutcome{}, nil
}

func opBrsl(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	link := Mask(t.Regs.PC + 4)
	t.Regs.GPR[sRT(w)] = PreferredQuad(link)
	t.Regs.PC = Mask(uint32(int32(t.Regs.PC) + sI16(w)*4))
	return StepOutcome{}, nil
}

func opBi(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	t.Regs.PC = Mask(t.Regs.GPR[sRA(w)].Preferred())
	return StepOutcome{}, nil
}

func opBiz(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	if t.Regs.GPR[sRT(w)].Preferred() == 0 {
		t.Regs.PC = Mask(t.Regs.GPR[sRA(w)].Preferred())
	} else {
		t.advance()
	}
	return StepOutcome{}, nil
}

func opBinz(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	if t.Regs.GPR[sRT(w)].Preferred() != 0 {
		t.Regs.PC = Mask(t.Regs.GPR[sRA(w)].Preferred())
	} else {
		t.advance()
	}
	return StepOutcome{}, nil
}

func opBrz(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	if t.Regs.GPR[sRT(w)].Preferred() == 0 {
		t.Regs.PC = Mask(uint32(int32(t.Regs.PC) + sI16(w)*4))
	} else {
		t.advance()
	}
	return StepOutcome{}, nil
}

func opBrnz(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	if t.Regs.GPR[sRT(w)].Preferred() != 0 {
		t.Regs.PC = Mask(uint32(int32(t.Regs.PC) + sI16(w)*4))
	} else {
		t.advance()
	}
	return StepOutcome{}, nil
}

func opLnop(t *Thread, _ *memory.Space, _ uint32) (StepOutcome, error) {
	t.advance()
	return StepOutcome{}, nil
}

func opNop(t *Thread, _ *memory.Space, _ uint32) (StepOutcome, error) {
	t.advance()
	return StepOutcome{}, nil
}

// opHbr is a branch prefetch hint; this model has no prefetch pipeline to
// feed, so it is observably a no-op, per spec.md §4.4.
func opHbr(t *Thread, _ *memory.Space, _ uint32) (StepOutcome, error) {
	t.advance()
	return StepOutcome{}, nil
}
