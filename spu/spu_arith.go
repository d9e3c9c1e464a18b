package spu

import "github.com/cellforge/cellcore/memory"

// Lane-wise SIMD arithmetic and logic (spec.md §4.4 "arithmetic & logic").
// Most ops operate independently on the four 32-bit word lanes; ah works
// on the halfwords and ceqb on the bytes within each lane.

func lanewise(t *Thread, rt, ra, rb uint8, f func(a, b uint32) uint32) {
	var out Quad
	a, b := t.Regs.GPR[ra], t.Regs.GPR[rb]
	for i := 0; i < 4; i++ {
		out[i] = f(a[i], b[i])
	}
	t.Regs.GPR[rt] = out
}

func opAdd(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	lanewise(t, sRT(w), sRA(w), sRB(w), func(a, b uint32) uint32 { return a + b })
	t.advance()
	return StepOutcome{}, nil
}

func opAh(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	rt, ra, rb := sRT(w), sRA(w), sRB(w)
	var out Quad
	for i := 0; i < 4; i++ {
		lo := uint16(t.Regs.GPR[ra][i]) + uint16(t.Regs.GPR[rb][i])
		hi := uint16(t.Regs.GPR[ra][i]>>16) + uint16(t.Regs.GPR[rb][i]>>16)
		out[i] = uint32(hi)<<16 | uint32(lo)
	}
	t.Regs.GPR[rt] = out
	t.advance()
	return StepOutcome{}, nil
}

func opSf(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	// sf rt,ra,rb computes rb - ra per the SPU's subtract-from convention.
	lanewise(t, sRT(w), sRA(w), sRB(w), func(a, b uint32) uint32 { return b - a })
	t.advance()
	return StepOutcome{}, nil
}

func opAi(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	imm := uint32(sI10(w))
	rt, ra := sRT(w), sRA(w)
	var out Quad
	for i := 0; i < 4; i++ {
		out[i] = t.Regs.GPR[ra][i] + imm
	}
	t.Regs.GPR[rt] = out
	t.advance()
	return StepOutcome{}, nil
}

func opAnd(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	lanewise(t, sRT(w), sRA(w), sRB(w), func(a, b uint32) uint32 { return a & b })
	t.advance()
	return StepOutcome{}, nil
}

func opOr(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	lanewise(t, sRT(w), sRA(w), sRB(w), func(a, b uint32) uint32 { return a | b })
	t.advance()
	return StepOutcome{}, nil
}

func opXor(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	lanewise(t, sRT(w), sRA(w), sRB(w), func(a, b uint32) uint32 { return a ^ b })
	t.advance()
	return StepOutcome{}, nil
}

func immLanewise(t *Thread, w uint32, f func(a, imm uint32) uint32) {
	imm := uint32(sI10(w))
	rt, ra := sRT(w), sRA(w)
	var out Quad
	for i := 0; i < 4; i++ {
		out[i] = f(t.Regs.GPR[ra][i], imm)
	}
	t.Regs.GPR[rt] = out
}

func opAndi(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	immLanewise(t, w, func(a, imm uint32) uint32 { return a & imm })
	t.advance()
	return StepOutcome{}, nil
}

func opOri(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	immLanewise(t, w, func(a, imm uint32) uint32 { return a | imm })
	t.advance()
	return StepOutcome{}, nil
}

func opXori(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	immLanewise(t, w, func(a, imm uint32) uint32 { return a ^ imm })
	t.advance()
	return StepOutcome{}, nil
}

// opCg computes the per-lane carry generated by a+b, used alongside "a"
// by compiled 64-bit arithmetic sequences.
func opCg(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	lanewise(t, sRT(w), sRA(w), sRB(w), func(a, b uint32) uint32 {
		if uint64(a)+uint64(b) > 0xffffffff {
			return 1
		}
		return 0
	})
	t.advance()
	return StepOutcome{}, nil
}

func boolLane(v bool) uint32 {
	if v {
		return 0xffffffff
	}
	return 0
}

func opCeqb(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	rt, ra, rb := sRT(w), sRA(w), sRB(w)
	var out Quad
	for i := 0; i < 4; i++ {
		var lane uint32
		av, bv := t.Regs.GPR[ra][i], t.Regs.GPR[rb][i]
		for sh := 0; sh < 32; sh += 8 {
			if byte(av>>sh) == byte(bv>>sh) {
				lane |= 0xff << sh
			}
		}
		out[i] = lane
	}
	t.Regs.GPR[rt] = out
	t.advance()
	return StepOutcome{}, nil
}

func opCeq(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	lanewise(t, sRT(w), sRA(w), sRB(w), func(a, b uint32) uint32 { return boolLane(a == b) })
	t.advance()
	return StepOutcome{}, nil
}

func opCgt(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	lanewise(t, sRT(w), sRA(w), sRB(w), func(a, b uint32) uint32 { return boolLane(int32(a) > int32(b)) })
	t.advance()
	return StepOutcome{}, nil
}

// opSelb is a three-register form of the four-register selb, so that it
// fits the RR-format table: the mask is GPR[RB], and per bit
// rt := (old rt &^ mask) | (ra & mask), i.e. RT's prior value supplies
// the bits where the mask is clear and RA the bits where it is set.
func opSelb(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	rt, ra, rb := sRT(w), sRA(w), sRB(w)
	var out Quad
	cur := t.Regs.GPR[rt]
	for i := 0; i < 4; i++ {
		mask := t.Regs.GPR[rb][i]
		out[i] = (cur[i] &^ mask) | (t.Regs.GPR[ra][i] & mask)
	}
	t.Regs.GPR[rt] = out
	t.advance()
	return StepOutcome{}, nil
}
