package ppu

import "github.com/cellforge/cellcore/memory"

// Integer arithmetic and logic: primary-opcode immediate forms plus the
// group-31 extended register-to-register forms (spec.md §4.3).

func opAddi(t *Thread, _ *memory.Space, w uint32) (bool, StepOutcome, error) {
	ra := fRA(w)
	base := int64(0)
	if ra != 0 {
		base = int64(t.Regs.GPR[ra])
	}
	t.Regs.GPR[fRT(w)] = uint64(base + fSIMM(w))
	return false, StepOutcome{}, nil
}

func opAddis(t *Thread, _ *memory.Space, w uint32) (bool, StepOutcome, error) {
	ra := fRA(w)
	base := int64(0)
	if ra != 0 {
		base = int64(t.Regs.GPR[ra])
	}
	t.Regs.GPR[fRT(w)] = uint64(base + (fSIMM(w) << 16))
	return false, StepOutcome{}, nil
}

func opCmpi(t *Thread, _ *memory.Space, w uint32) (bool, StepOutcome, error) {
	bf := (w >> 23) & 0x7
	l64 := (w>>21)&1 != 0
	ra := int64(t.Regs.GPR[fRA(w)])
	if !l64 {
		ra = int64(int32(ra))
	}
	cmpSigned(t, uint8(bf), ra, fSIMM(w))
	return false, StepOutcome{}, nil
}

func opCmpli(t *Thread, _ *memory.Space, w uint32) (bool, StepOutcome, error) {
	bf := (w >> 23) & 0x7
	l64 := (w>>21)&1 != 0
	ra := t.Regs.GPR[fRA(w)]
	if !l64 {
		ra = uint64(uint32(ra))
	}
	cmpUnsigned(t, uint8(bf), ra, fUIMM(w))
	return false, StepOutcome{}, nil
}

func cmpSigned(t *Thread, field uint8, a, b int64) {
	var f uint8
	switch {
	case a < b:
		f = crLT
	case a > b:
		f = crGT
	default:
		f = crEQ
	}
	if t.Regs.XER&xerSO != 0 {
		f |= crSO
	}
	t.Regs.SetCRField(field, f)
}

func cmpUnsigned(t *Thread, field uint8, a, b uint64) {
	var f uint8
	switch {
	case a < b:
		f = crLT
	case a > b:
		f = crGT
	default:
		f = crEQ
	}
	if t.Regs.XER&xerSO != 0 {
		f |= crSO
	}
	t.Regs.SetCRField(field, f)
}

func opOri(t *Thread, _ *memory.Space, w uint32) (bool, StepOutcome, error) {
	t.Regs.GPR[fRA(w)] = t.Regs.GPR[fRS(w)] | fUIMM(w)
	return false, StepOutcome{}, nil
}

func opOris(t *Thread, _ *memory.Space, w uint32) (bool, StepOutcome, error) {
	t.Regs.GPR[fRA(w)] = t.Regs.GPR[fRS(w)] | (fUIMM(w) << 16)
	return false, StepOutcome{}, nil
}

func opXori(t *Thread, _ *memory.Space, w uint32) (bool, StepOutcome, error) {
	t.Regs.GPR[fRA(w)] = t.Regs.GPR[fRS(w)] ^ fUIMM(w)
	return false, StepOutcome{}, nil
}

func opXoris(t *Thread, _ *memory.Space, w uint32) (bool, StepOutcome, error) {
	t.Regs.GPR[fRA(w)] = t.Regs.GPR[fRS(w)] ^ (fUIMM(w) << 16)
	return false, StepOutcome{}, nil
}

func opAndiDot(t *Thread, _ *memory.Space, w uint32) (bool, StepOutcome, error) {
	v := t.Regs.GPR[fRS(w)] & fUIMM(w)
	t.Regs.GPR[fRA(w)] = v
	t.Regs.setCR0(int64(v))
	return false, StepOutcome{}, nil
}

func opAndisDot(t *Thread, _ *memory.Space, w uint32) (bool, StepOutcome, error) {
	v := t.Regs.GPR[fRS(w)] & (fUIMM(w) << 16)
	t.Regs.GPR[fRA(w)] = v
	t.Regs.setCR0(int64(v))
	return false, StepOutcome{}, nil
}

func rotl32(v, n uint32) uint32 {
	n &= 31
	return (v << n) | (v >> (32 - n))
}

func maskFromME(mb, me uint8) uint32 {
	var mask uint32
	if mb <= me {
		for i := int(mb); i <= int(me); i++ {
			mask |= 1 << (31 - i)
		}
	} else {
		for i := 0; i <= int(me); i++ {
			mask |= 1 << (31 - i)
		}
		for i := int(mb); i <= 31; i++ {
			mask |= 1 << (31 - i)
		}
	}
	return mask
}

func opRlwinm(t *Thread, _ *memory.Space, w uint32) (bool, StepOutcome, error) {
	sh := uint32((w >> 11) & 0x1f)
	mb := uint8((w >> 6) & 0x1f)
	me := uint8((w >> 1) & 0x1f)
	rotated := rotl32(uint32(t.Regs.GPR[fRS(w)]), sh)
	mask := maskFromME(mb, me)
	v := rotated & mask
	t.Regs.GPR[fRA(w)] = uint64(v)
	if fRc(w) {
		t.Regs.setCR0(int64(int32(v)))
	}
	return false, StepOutcome{}, nil
}

func opRlwimi(t *Thread, _ *memory.Space, w uint32) (bool, StepOutcome, error) {
	sh := uint32((w >> 11) & 0x1f)
	mb := uint8((w >> 6) & 0x1f)
	me := uint8((w >> 1) & 0x1f)
	rotated := rotl32(uint32(t.Regs.GPR[fRS(w)]), sh)
	mask := maskFromME(mb, me)
	ra := uint32(t.Regs.GPR[fRA(w)])
	v := (rotated & mask) | (ra &^ mask)
	t.Regs.GPR[fRA(w)] = uint64(v)
	if fRc(w) {
		t.Regs.setCR0(int64(int32(v)))
	}
	return false, StepOutcome{}, nil
}

func opRlwnm(t *Thread, _ *memory.Space, w uint32) (bool, StepOutcome, error) {
	sh := uint32(t.Regs.GPR[fRB(w)]) & 0x1f
	mb := uint8((w >> 6) & 0x1f)
	me := uint8((w >> 1) & 0x1f)
	rotated := rotl32(uint32(t.Regs.GPR[fRS(w)]), sh)
	mask := maskFromME(mb, me)
	v := rotated & mask
	t.Regs.GPR[fRA(w)] = uint64(v)
	if fRc(w) {
		t.Regs.setCR0(int64(int32(v)))
	}
	return false, StepOutcome{}, nil
}

// op31Extended dispatches the group-31 register-to-register extended
// opcode table, keyed on the 10-bit XO field.
func op31Extended(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	xo := fXO10(w)
	switch xo {
	case 0: // cmp
		l64 := (w>>21)&1 != 0
		bf := uint8((w >> 23) & 0x7)
		ra := int64(t.Regs.GPR[fRA(w)])
		rb := int64(t.Regs.GPR[fRB(w)])
		if !l64 {
			ra, rb = int64(int32(ra)), int64(int32(rb))
		}
		cmpSigned(t, bf, ra, rb)
	case 32: // cmpl
		l64 := (w>>21)&1 != 0
		bf := uint8((w >> 23) & 0x7)
		ra := t.Regs.GPR[fRA(w)]
		rb := t.Regs.GPR[fRB(w)]
		if !l64 {
			ra, rb = uint64(uint32(ra)), uint64(uint32(rb))
		}
		cmpUnsigned(t, bf, ra, rb)
	case 266: // add
		v := t.Regs.GPR[fRA(w)] + t.Regs.GPR[fRB(w)]
		t.Regs.GPR[fRT(w)] = v
		maybeSetCR0(t, w, int64(v))
	case 40: // subf
		v := t.Regs.GPR[fRB(w)] - t.Regs.GPR[fRA(w)]
		t.Regs.GPR[fRT(w)] = v
		maybeSetCR0(t, w, int64(v))
	case 233: // mulld
		v := t.Regs.GPR[fRA(w)] * t.Regs.GPR[fRB(w)]
		t.Regs.GPR[fRT(w)] = v
		maybeSetCR0(t, w, int64(v))
	case 235: // mullw
		v := int64(int32(t.Regs.GPR[fRA(w)])) * int64(int32(t.Regs.GPR[fRB(w)]))
		t.Regs.GPR[fRT(w)] = uint64(v)
		maybeSetCR0(t, w, v)
	case 489: // divd
		a, b := int64(t.Regs.GPR[fRA(w)]), int64(t.Regs.GPR[fRB(w)])
		var v int64
		if b != 0 {
			v = a / b
		}
		t.Regs.GPR[fRT(w)] = uint64(v)
		maybeSetCR0(t, w, v)
	case 28: // and
		v := t.Regs.GPR[fRS(w)] & t.Regs.GPR[fRB(w)]
		t.Regs.GPR[fRA(w)] = v
		maybeSetCR0(t, w, int64(v))
	case 444: // or
		v := t.Regs.GPR[fRS(w)] | t.Regs.GPR[fRB(w)]
		t.Regs.GPR[fRA(w)] = v
		maybeSetCR0(t, w, int64(v))
	case 316: // xor
		v := t.Regs.GPR[fRS(w)] ^ t.Regs.GPR[fRB(w)]
		t.Regs.GPR[fRA(w)] = v
		maybeSetCR0(t, w, int64(v))
	case 476: // nand
		v := ^(t.Regs.GPR[fRS(w)] & t.Regs.GPR[fRB(w)])
		t.Regs.GPR[fRA(w)] = v
		maybeSetCR0(t, w, int64(v))
	case 124: // nor
		v := ^(t.Regs.GPR[fRS(w)] | t.Regs.GPR[fRB(w)])
		t.Regs.GPR[fRA(w)] = v
		maybeSetCR0(t, w, int64(v))
	case 536: // srw
		v := uint32(t.Regs.GPR[fRS(w)]) >> (t.Regs.GPR[fRB(w)] & 0x3f)
		t.Regs.GPR[fRA(w)] = uint64(v)
		maybeSetCR0(t, w, int64(int32(v)))
	case 24: // slw
		sh := t.Regs.GPR[fRB(w)] & 0x3f
		var v uint32
		if sh < 32 {
			v = uint32(t.Regs.GPR[fRS(w)]) << sh
		}
		t.Regs.GPR[fRA(w)] = uint64(v)
		maybeSetCR0(t, w, int64(int32(v)))
	case 792: // sraw
		sh := t.Regs.GPR[fRB(w)] & 0x3f
		v := int32(t.Regs.GPR[fRS(w)])
		carried := v < 0 && (uint64(uint32(v))<<(64-sh))&0xffffffff != 0 && sh > 0
		t.Regs.setXERCA(carried)
		v >>= min32(sh, 31)
		t.Regs.GPR[fRA(w)] = uint64(uint32(v))
		maybeSetCR0(t, w, int64(v))
	case 26: // cntlzw
		v := countLeadingZeros32(uint32(t.Regs.GPR[fRS(w)]))
		t.Regs.GPR[fRA(w)] = uint64(v)
		maybeSetCR0(t, w, int64(v))
	case 20: // lwarx
		return opLwarx(t, m, w)
	case 21: // ldarx
		return opLdarx(t, m, w)
	case 150: // stwcx.
		return opStwcxDot(t, m, w)
	case 214: // stdcx.
		return opStdcxDot(t, m, w)
	default:
		return false, StepOutcome{}, &IllegalOpcodeError{PC: t.Regs.CIA, Raw: w}
	}
	return false, StepOutcome{}, nil
}

func maybeSetCR0(t *Thread, w uint32, v int64) {
	if fRc(w) {
		t.Regs.setCR0(v)
	}
}

func min32(a uint64, b uint32) uint32 {
	if uint32(a) < b {
		return uint32(a)
	}
	return b
}

func countLeadingZeros32(v uint32) uint32 {
	if v == 0 {
		return 32
	}
	n := uint32(0)
	for v&0x80000000 == 0 {
		v <<= 1
		n++
	}
	return n
}
