package spu

import (
	"math"

	"github.com/cellforge/cellcore/memory"
)

// Single- and double-precision lane-wise floating point (spec.md §4.4
// "floating point"). Single-precision lanes are stored as their raw
// float32 bit pattern in each of the four word lanes; double-precision
// instructions pair adjacent lanes into two float64 values, the layout
// compiled DP code expects from the quadword register file.

func f32Lanewise(t *Thread, w uint32, f func(a, b float32) float32) {
	rt, ra, rb := sRT(w), sRA(w), sRB(w)
	var out Quad
	for i := 0; i < 4; i++ {
		av := math.Float32frombits(t.Regs.GPR[ra][i])
		bv := math.Float32frombits(t.Regs.GPR[rb][i])
		out[i] = math.Float32bits(f(av, bv))
	}
	t.Regs.GPR[rt] = out
}

func opFa(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	f32Lanewise(t, w, func(a, b float32) float32 { return a + b })
	t.advance()
	return StepOutcome{}, nil
}

func opFs(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	f32Lanewise(t, w, func(a, b float32) float32 { return a - b })
	t.advance()
	return StepOutcome{}, nil
}

func opFm(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	f32Lanewise(t, w, func(a, b float32) float32 { return a * b })
	t.advance()
	return StepOutcome{}, nil
}

func pairToF64(q Quad, pair int) float64 {
	bits := uint64(q[pair*2])<<32 | uint64(q[pair*2+1])
	return math.Float64frombits(bits)
}

func f64FromPairs(hi, lo float64) Quad {
	var out Quad
	hb, lb := math.Float64bits(hi), math.Float64bits(lo)
	out[0], out[1] = uint32(hb>>32), uint32(hb)
	out[2], out[3] = uint32(lb>>32), uint32(lb)
	return out
}

func f64Lanewise(t *Thread, w uint32, f func(a, b float64) float64) {
	rt, ra, rb := sRT(w), sRA(w), sRB(w)
	a, b := t.Regs.GPR[ra], t.Regs.GPR[rb]
	hi := f(pairToF64(a, 0), pairToF64(b, 0))
	lo := f(pairToF64(a, 1), pairToF64(b, 1))
	t.Regs.GPR[rt] = f64FromPairs(hi, lo)
}

func opDfa(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	f64Lanewise(t, w, func(a, b float64) float64 { return a + b })
	t.advance()
	return StepOutcome{}, nil
}

func opDfs(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	f64Lanewise(t, w, func(a, b float64) float64 { return a - b })
	t.advance()
	return StepOutcome{}, nil
}

func opDfm(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	f64Lanewise(t, w, func(a, b float64) float64 { return a * b })
	t.advance()
	return StepOutcome{}, nil
}

func opFceq(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	f32Lanewise(t, w, func(a, b float32) float32 {
		if a == b {
			return math.Float32frombits(0xffffffff)
		}
		return 0
	})
	t.advance()
	return StepOutcome{}, nil
}

func opFcgt(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	f32Lanewise(t, w, func(a, b float32) float32 {
		if a > b {
			return math.Float32frombits(0xffffffff)
		}
		return 0
	})
	t.advance()
	return StepOutcome{}, nil
}
