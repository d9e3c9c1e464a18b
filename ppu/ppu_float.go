package ppu

import (
	"math"

	"github.com/cellforge/cellcore/memory"
)

// Floating-point arithmetic: op59Extended covers the single-precision
// A-form table, op63Extended the double-precision one. Both share FPR
// storage as raw float64 bit patterns; single-precision results are
// rounded to float32 before being re-widened, matching the architecture's
// "single values live in double registers" rule.

func frA(w uint32) uint8 { return uint8((w >> 16) & 0x1f) }
func frB(w uint32) uint8 { return uint8((w >> 11) & 0x1f) }
func frC(w uint32) uint8 { return uint8((w >> 6) & 0x1f) }
func frT(w uint32) uint8 { return uint8((w >> 21) & 0x1f) }

func getFPR(t *Thread, n uint8) float64 {
	return math.Float64frombits(t.Regs.FPR[n])
}

func setFPR(t *Thread, n uint8, v float64) {
	t.Regs.FPR[n] = math.Float64bits(v)
}

func setFPRSingle(t *Thread, n uint8, v float64) {
	setFPR(t, n, float64(float32(v)))
}

func fpCmpOrdered(t *Thread, field uint8, a, b float64) {
	var f uint8
	switch {
	case math.IsNaN(a) || math.IsNaN(b):
		f = 1 // FU
	case a < b:
		f = crLT
	case a > b:
		f = crGT
	default:
		f = crEQ
	}
	t.Regs.SetCRField(field, f)
}

func op59Extended(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	return floatGroup(t, m, w, setFPRSingle)
}

func op63Extended(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	xo9 := fXO9(w)
	if xo9 == 32 { // fcmpo, the ordered compare
		field := uint8((w >> 23) & 0x7)
		fpCmpOrdered(t, field, getFPR(t, frA(w)), getFPR(t, frB(w)))
		return false, StepOutcome{}, nil
	}
	return floatGroup(t, m, w, setFPR)
}

func floatGroup(t *Thread, _ *memory.Space, w uint32, store func(*Thread, uint8, float64)) (bool, StepOutcome, error) {
	xo5 := fXO5(w)
	a, b, c, rt := frA(w), frB(w), frC(w), frT(w)
	switch xo5 {
	case 21: // fadd
		store(t, rt, getFPR(t, a)+getFPR(t, b))
	case 20: // fsub
		store(t, rt, getFPR(t, a)-getFPR(t, b))
	case 25: // fmul
		store(t, rt, getFPR(t, a)*getFPR(t, c))
	case 18: // fdiv
		store(t, rt, getFPR(t, a)/getFPR(t, b))
	case 23: // fsel
		if getFPR(t, a) >= 0 {
			store(t, rt, getFPR(t, c))
		} else {
			store(t, rt, getFPR(t, b))
		}
	default:
		switch fXO10(w) {
		case 72: // fmr
			store(t, rt, getFPR(t, b))
		case 40: // fneg
			store(t, rt, -getFPR(t, b))
		case 264: // fabs
			store(t, rt, math.Abs(getFPR(t, b)))
		case 136: // fnabs
			store(t, rt, -math.Abs(getFPR(t, b)))
		default:
			return false, StepOutcome{}, &IllegalOpcodeError{PC: t.Regs.CIA, Raw: w}
		}
	}
	if fRc(w) {
		t.Regs.setCR0(0)
	}
	return false, StepOutcome{}, nil
}
