package spu

import "github.com/cellforge/cellcore/memory"

// Per-lane shift and rotate (spec.md §4.4 "shift & rotate"), plus
// quadword byte rotate used by alignment sequences.

func opShli(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	sh := uint32(sI10(w)) & 0x3f
	rt, ra := sRT(w), sRA(w)
	var out Quad
	for i := 0; i < 4; i++ {
		if sh >= 32 {
			out[i] = 0
		} else {
			out[i] = t.Regs.GPR[ra][i] << sh
		}
	}
	t.Regs.GPR[rt] = out
	t.advance()
	return StepOutcome{}, nil
}

func opShl(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	rt, ra, rb := sRT(w), sRA(w), sRB(w)
	var out Quad
	for i := 0; i < 4; i++ {
		sh := t.Regs.GPR[rb][i] & 0x3f
		if sh >= 32 {
			out[i] = 0
		} else {
			out[i] = t.Regs.GPR[ra][i] << sh
		}
	}
	t.Regs.GPR[rt] = out
	t.advance()
	return StepOutcome{}, nil
}

func rotl(v, n uint32) uint32 {
	n &= 31
	if n == 0 {
		return v
	}
	return (v << n) | (v >> (32 - n))
}

func opRoti(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	sh := uint32(sI10(w))
	rt, ra := sRT(w), sRA(w)
	var out Quad
	for i := 0; i < 4; i++ {
		out[i] = rotl(t.Regs.GPR[ra][i], sh)
	}
	t.Regs.GPR[rt] = out
	t.advance()
	return StepOutcome{}, nil
}

func opRot(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	rt, ra, rb := sRT(w), sRA(w), sRB(w)
	var out Quad
	for i := 0; i < 4; i++ {
		out[i] = rotl(t.Regs.GPR[ra][i], t.Regs.GPR[rb][i])
	}
	t.Regs.GPR[rt] = out
	t.advance()
	return StepOutcome{}, nil
}

// opRotqbyi rotates the whole quadword left by a byte count given as an
// immediate, the common lane-realignment idiom after an unaligned load.
func opRotqbyi(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	count := uint32(sI10(w)) & 0xf
	rt, ra := sRT(w), sRA(w)
	q := t.Regs.GPR[ra]
	var bytes [16]byte
	for i := 0; i < 4; i++ {
		bytes[i*4] = byte(q[i] >> 24)
		bytes[i*4+1] = byte(q[i] >> 16)
		bytes[i*4+2] = byte(q[i] >> 8)
		bytes[i*4+3] = byte(q[i])
	}
	var rotated [16]byte
	for i := 0; i < 16; i++ {
		rotated[i] = bytes[(uint32(i)+count)%16]
	}
	var out Quad
	for i := 0; i < 4; i++ {
		out[i] = uint32(rotated[i*4])<<24 | uint32(rotated[i*4+1])<<16 | uint32(rotated[i*4+2])<<8 | uint32(rotated[i*4+3])
	}
	t.Regs.GPR[rt] = out
	t.advance()
	return StepOutcome{}, nil
}
