package ppu

import "github.com/cellforge/cellcore/memory"

// Integer load/store family (spec.md §4.3): byte/halfword/word/doubleword,
// with or without update, displacement-indexed (D-form) addressing, and
// sign/zero extension. Big-endian semantics are entirely delegated to the
// memory substrate's typed helpers; no raw casts appear here.

func effAddr(t *Thread, w uint32) uint32 {
	ra := fRA(w)
	base := uint32(0)
	if ra != 0 {
		base = uint32(t.Regs.GPR[ra])
	}
	return base + uint32(fD16(w))
}

func opLwz(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	v, err := m.ReadBE32(effAddr(t, w))
	if err != nil {
		return false, StepOutcome{}, err
	}
	t.Regs.GPR[fRT(w)] = uint64(v)
	return false, StepOutcome{}, nil
}

func opLwzu(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	addr := effAddr(t, w)
	v, err := m.ReadBE32(addr)
	if err != nil {
		return false, StepOutcome{}, err
	}
	t.Regs.GPR[fRT(w)] = uint64(v)
	t.Regs.GPR[fRA(w)] = uint64(addr)
	return false, StepOutcome{}, nil
}

func opLbz(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	v, err := m.Read8(effAddr(t, w))
	if err != nil {
		return false, StepOutcome{}, err
	}
	t.Regs.GPR[fRT(w)] = uint64(v)
	return false, StepOutcome{}, nil
}

func opLbzu(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	addr := effAddr(t, w)
	v, err := m.Read8(addr)
	if err != nil {
		return false, StepOutcome{}, err
	}
	t.Regs.GPR[fRT(w)] = uint64(v)
	t.Regs.GPR[fRA(w)] = uint64(addr)
	return false, StepOutcome{}, nil
}

func opLhz(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	v, err := m.ReadBE16(effAddr(t, w))
	if err != nil {
		return false, StepOutcome{}, err
	}
	t.Regs.GPR[fRT(w)] = uint64(v)
	return false, StepOutcome{}, nil
}

func opLhzu(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	addr := effAddr(t, w)
	v, err := m.ReadBE16(addr)
	if err != nil {
		return false, StepOutcome{}, err
	}
	t.Regs.GPR[fRT(w)] = uint64(v)
	t.Regs.GPR[fRA(w)] = uint64(addr)
	return false, StepOutcome{}, nil
}

func opLha(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	v, err := m.ReadBE16(effAddr(t, w))
	if err != nil {
		return false, StepOutcome{}, err
	}
	t.Regs.GPR[fRT(w)] = uint64(int64(int16(v)))
	return false, StepOutcome{}, nil
}

func opStw(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	err := m.WriteBE32(effAddr(t, w), uint32(t.Regs.GPR[fRS(w)]))
	return false, StepOutcome{}, err
}

func opStwu(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	addr := effAddr(t, w)
	if err := m.WriteBE32(addr, uint32(t.Regs.GPR[fRS(w)])); err != nil {
		return false, StepOutcome{}, err
	}
	t.Regs.GPR[fRA(w)] = uint64(addr)
	return false, StepOutcome{}, nil
}

func opStb(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	err := m.Write8(effAddr(t, w), uint8(t.Regs.GPR[fRS(w)]))
	return false, StepOutcome{}, err
}

func opStbu(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	addr := effAddr(t, w)
	if err := m.Write8(addr, uint8(t.Regs.GPR[fRS(w)])); err != nil {
		return false, StepOutcome{}, err
	}
	t.Regs.GPR[fRA(w)] = uint64(addr)
	return false, StepOutcome{}, nil
}

func opSth(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	err := m.WriteBE16(effAddr(t, w), uint16(t.Regs.GPR[fRS(w)]))
	return false, StepOutcome{}, err
}

func opSthu(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	addr := effAddr(t, w)
	if err := m.WriteBE16(addr, uint16(t.Regs.GPR[fRS(w)])); err != nil {
		return false, StepOutcome{}, err
	}
	t.Regs.GPR[fRA(w)] = uint64(addr)
	return false, StepOutcome{}, nil
}

// opLdGroup decodes the 2-bit XO field of the primary-58 doubleword load
// group: 0b00 = ld, 0b01 = ldu, 0b10 = lwa (load word algebraic).
func opLdGroup(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	xo := w & 0x3
	addr := effAddr(t, w) &^ 0x3
	switch xo {
	case 0: // ld
		v, err := m.ReadBE64(addr)
		if err != nil {
			return false, StepOutcome{}, err
		}
		t.Regs.GPR[fRT(w)] = v
		return false, StepOutcome{}, nil
	case 1: // ldu
		v, err := m.ReadBE64(addr)
		if err != nil {
			return false, StepOutcome{}, err
		}
		t.Regs.GPR[fRT(w)] = v
		t.Regs.GPR[fRA(w)] = uint64(addr)
		return false, StepOutcome{}, nil
	case 2: // lwa
		v, err := m.ReadBE32(addr)
		if err != nil {
			return false, StepOutcome{}, err
		}
		t.Regs.GPR[fRT(w)] = uint64(int64(int32(v)))
		return false, StepOutcome{}, nil
	default:
		return false, StepOutcome{}, &IllegalOpcodeError{PC: t.Regs.CIA, Raw: w}
	}
}

// opStdGroup decodes the 1-bit XO field of the primary-62 doubleword
// store group: 0 = std, 1 = stdu.
func opStdGroup(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	addr := effAddr(t, w) &^ 0x3
	if err := m.WriteBE64(addr, t.Regs.GPR[fRS(w)]); err != nil {
		return false, StepOutcome{}, err
	}
	if w&1 != 0 {
		t.Regs.GPR[fRA(w)] = uint64(addr)
	}
	return false, StepOutcome{}, nil
}

// lwarx/ldarx, stwcx./stdcx. — the reservation-carrying load/store pair
// (spec.md §4.2), dispatched from the group-31 extended table.

func opLwarx(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	addr := uint32(0)
	if ra := fRA(w); ra != 0 {
		addr = uint32(t.Regs.GPR[ra])
	}
	addr += uint32(t.Regs.GPR[fRB(w)])
	v, err := m.ReadBE32(addr)
	if err != nil {
		return false, StepOutcome{}, err
	}
	line, stamp, err := m.AcquireReservation(addr)
	if err != nil {
		return false, StepOutcome{}, err
	}
	t.Resv = Reservation{Valid: true, Line: line, Stamp: stamp}
	t.Regs.GPR[fRT(w)] = uint64(v)
	return false, StepOutcome{}, nil
}

func opLdarx(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	addr := uint32(0)
	if ra := fRA(w); ra != 0 {
		addr = uint32(t.Regs.GPR[ra])
	}
	addr += uint32(t.Regs.GPR[fRB(w)])
	v, err := m.ReadBE64(addr)
	if err != nil {
		return false, StepOutcome{}, err
	}
	line, stamp, err := m.AcquireReservation(addr)
	if err != nil {
		return false, StepOutcome{}, err
	}
	t.Resv = Reservation{Valid: true, Line: line, Stamp: stamp}
	t.Regs.GPR[fRT(w)] = v
	return false, StepOutcome{}, nil
}

func opStwcxDot(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	addr := uint32(0)
	if ra := fRA(w); ra != 0 {
		addr = uint32(t.Regs.GPR[ra])
	}
	addr += uint32(t.Regs.GPR[fRB(w)])

	ok := t.Resv.Valid && t.Resv.Line == memory.ReservationLine(addr) &&
		m.CheckAccess(addr, 4, memory.PermWrite) == nil && m.TryCommit(t.Resv.Line, t.Resv.Stamp)
	if ok {
		if err := m.WriteBE32Unchecked(addr, uint32(t.Regs.GPR[fRS(w)])); err != nil {
			return false, StepOutcome{}, err
		}
	}
	t.Resv.Valid = false
	t.Regs.SetCRField(0, crEQAsBit(ok, t.Regs.XER))
	return false, StepOutcome{}, nil
}

func opStdcxDot(t *Thread, m *memory.Space, w uint32) (bool, StepOutcome, error) {
	addr := uint32(0)
	if ra := fRA(w); ra != 0 {
		addr = uint32(t.Regs.GPR[ra])
	}
	addr += uint32(t.Regs.GPR[fRB(w)])

	ok := t.Resv.Valid && t.Resv.Line == memory.ReservationLine(addr) &&
		m.CheckAccess(addr, 8, memory.PermWrite) == nil && m.TryCommit(t.Resv.Line, t.Resv.Stamp)
	if ok {
		if err := m.WriteBE64Unchecked(addr, t.Regs.GPR[fRS(w)]); err != nil {
			return false, StepOutcome{}, err
		}
	}
	t.Resv.Valid = false
	t.Regs.SetCRField(0, crEQAsBit(ok, t.Regs.XER))
	return false, StepOutcome{}, nil
}

// crEQAsBit builds the CR0 nibble that stwcx./stdcx. produce: EQ set iff
// the store succeeded, SO copied from XER.
func crEQAsBit(success bool, xer uint64) uint8 {
	var f uint8
	if success {
		f = crEQ
	}
	if xer&xerSO != 0 {
		f |= crSO
	}
	return f
}
