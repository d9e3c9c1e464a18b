package spu

import "github.com/cellforge/cellcore/memory"

// Immediate-load family and the quadword load/store addressing forms
// (spec.md §4.4 "memory"). All quadword addresses are masked into the
// Local Store and aligned down to 16 bytes; misalignment is never
// trapped, per the spec's explicit non-trapping rule.

func opIl(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	v := uint32(sI16(w))
	t.Regs.GPR[sRT(w)] = Quad{v, v, v, v}
	t.advance()
	return StepOutcome{}, nil
}

func opIlh(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	v := uint32(uint16(sI16(w)))
	t.Regs.GPR[sRT(w)] = Quad{v, v, v, v}
	t.advance()
	return StepOutcome{}, nil
}

func opIlhu(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	v := uint32(uint16(sI16(w))) << 16
	t.Regs.GPR[sRT(w)] = Quad{v, v, v, v}
	t.advance()
	return StepOutcome{}, nil
}

func opIla(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	v := uint32(sI18(w)) & 0x3ffff
	t.Regs.GPR[sRT(w)] = Quad{v, v, v, v}
	t.advance()
	return StepOutcome{}, nil
}

func opIohl(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	v := uint32(uint16(sI16(w)))
	rt := sRT(w)
	for i := range t.Regs.GPR[rt] {
		t.Regs.GPR[rt][i] |= v
	}
	t.advance()
	return StepOutcome{}, nil
}

func opLqd(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	addr := uint32(int32(t.Regs.GPR[sRA(w)].Preferred()) + sI10(w)*16)
	t.Regs.GPR[sRT(w)] = t.Store.ReadQuad(addr)
	t.advance()
	return StepOutcome{}, nil
}

func opStqd(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	addr := uint32(int32(t.Regs.GPR[sRA(w)].Preferred()) + sI10(w)*16)
	t.Store.WriteQuad(addr, t.Regs.GPR[sRT(w)])
	t.advance()
	return StepOutcome{}, nil
}

func opLqa(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	addr := uint32(sI16(w)) * 16
	t.Regs.GPR[sRT(w)] = t.Store.ReadQuad(addr)
	t.advance()
	return StepOutcome{}, nil
}

func opStqa(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	addr := uint32(sI16(w)) * 16
	t.Store.WriteQuad(addr, t.Regs.GPR[sRT(w)])
	t.advance()
	return StepOutcome{}, nil
}

func opLqx(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	addr := t.Regs.GPR[sRA(w)].Preferred() + t.Regs.GPR[sRB(w)].Preferred()
	t.Regs.GPR[sRT(w)] = t.Store.ReadQuad(addr)
	t.advance()
	return StepOutcome{}, nil
}

func opStqx(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	addr := t.Regs.GPR[sRA(w)].Preferred() + t.Regs.GPR[sRB(w)].Preferred()
	t.Store.WriteQuad(addr, t.Regs.GPR[sRT(w)])
	t.advance()
	return StepOutcome{}, nil
}

func opLqr(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	addr := uint32(int32(t.Regs.PC) + sI16(w)*16)
	t.Regs.GPR[sRT(w)] = t.Store.ReadQuad(addr)
	t.advance()
	return StepOutcome{}, nil
}

func opStqr(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	addr := uint32(int32(t.Regs.PC) + sI16(w)*16)
	t.Store.WriteQuad(addr, t.Regs.GPR[sRT(w)])
	t.advance()
	return StepOutcome{}, nil
}

// generateInsert builds the simplified insertion mask shared by
// cbd/chd/cwd/cdd: every byte lane holds its own identity index except
// the granule selected by the effective address's alignment bits, which
// is marked with the sentinel 0xff so a later shuffle step can recognise
// "insert the source's low bytes here". This is a simplified model of the
// real generate-insert family, not a byte-exact shufb-compatible mask.
func generateInsert(addr uint32, granule int) Quad {
	var bytes [16]byte
	for i := range bytes {
		bytes[i] = byte(i)
	}
	sel := int(addr) % (16 / granule)
	for i := 0; i < granule; i++ {
		bytes[sel*granule+i] = 0xff
	}
	var q Quad
	for i := 0; i < 4; i++ {
		q[i] = uint32(bytes[i*4])<<24 | uint32(bytes[i*4+1])<<16 | uint32(bytes[i*4+2])<<8 | uint32(bytes[i*4+3])
	}
	return q
}

func opCbd(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	addr := uint32(int32(t.Regs.GPR[sRA(w)].Preferred()) + sI10(w))
	t.Regs.GPR[sRT(w)] = generateInsert(addr, 1)
	t.advance()
	return StepOutcome{}, nil
}

func opChd(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	addr := uint32(int32(t.Regs.GPR[sRA(w)].Preferred()) + sI10(w))
	t.Regs.GPR[sRT(w)] = generateInsert(addr, 2)
	t.advance()
	return StepOutcome{}, nil
}

func opCwd(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	addr := uint32(int32(t.Regs.GPR[sRA(w)].Preferred()) + sI10(w))
	t.Regs.GPR[sRT(w)] = generateInsert(addr, 4)
	t.advance()
	return StepOutcome{}, nil
}

func opCdd(t *Thread, _ *memory.Space, w uint32) (StepOutcome, error) {
	addr := uint32(int32(t.Regs.GPR[sRA(w)].Preferred()) + sI10(w))
	t.Regs.GPR[sRT(w)] = generateInsert(addr, 8)
	t.advance()
	return StepOutcome{}, nil
}
