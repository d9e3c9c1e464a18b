package spu

import "github.com/cellforge/cellcore/memory"

// Mfc is the per-SPU Memory Flow Controller: the DMA queue plus the
// reservation-backed atomic command trio (spec.md §4.5 "MFC DMA").
type Mfc struct {
	Queue *DmaQueue
}

// NewMfc creates an MFC with the given command-queue depth.
func NewMfc(queueDepth int) *Mfc {
	return &Mfc{Queue: NewDmaQueue(queueDepth)}
}

// SubmitOrdinary queues an ordinary get/put command with the given
// completion latency in runner cycles, honouring bounds-masking on the
// Local-Store side (permission checks on the main-memory side happen
// when the transfer is actually performed, at completion).
func (mfc *Mfc) SubmitOrdinary(cmd DmaCommand, latency int) error {
	cmd.LSAddr = Mask(cmd.LSAddr)
	return mfc.Queue.Submit(cmd, latency)
}

// Complete performs the byte copy for a finished command and sets its tag
// bit in chans, or leaves the tag unset and returns the memory error if
// the main-memory side failed permission checks.
func Complete(t *Thread, m *memory.Space, cmd DmaCommand) error {
	buf := make([]byte, cmd.Size)
	switch cmd.Direction {
	case DmaGet:
		if err := m.ReadBytes(cmd.EA, buf); err != nil {
			return err
		}
		t.Store.WriteBytes(cmd.LSAddr, buf)
	case DmaPut:
		t.Store.ReadBytes(cmd.LSAddr, buf)
		if err := m.WriteBytes(cmd.EA, buf); err != nil {
			return err
		}
	}
	t.Chans.CompleteTag(cmd.Tag)
	return nil
}

// Atomic commands (spec.md §4.2, §4.5): getllar/putllc/putlluc delegate
// to the reservation engine. RA holds the main-memory effective address,
// RT both names the Local Store destination (its preferred slot) and
// receives a copy of the first quadword of the fetched line on getllar.

func opGetllar(t *Thread, m *memory.Space, w uint32) (StepOutcome, error) {
	ea := t.Regs.GPR[sRA(w)].Preferred()
	lsAddr := Mask(t.Regs.GPR[sRT(w)].Preferred())

	var buf [128]byte
	if err := m.ReadBytes(ea, buf[:]); err != nil {
		return StepOutcome{}, err
	}
	t.Store.WriteBytes(lsAddr, buf[:])

	line, stamp, err := m.AcquireReservation(ea)
	if err != nil {
		return StepOutcome{}, err
	}
	t.Resv = Reservation{Valid: true, Line: line, Stamp: stamp}
	t.Regs.GPR[sRT(w)] = t.Store.ReadQuad(lsAddr)
	t.advance()
	return StepOutcome{}, nil
}

func opPutllc(t *Thread, m *memory.Space, w uint32) (StepOutcome, error) {
	ea := t.Regs.GPR[sRA(w)].Preferred()
	lsAddr := Mask(t.Regs.GPR[sRT(w)].Preferred())

	ok := t.Resv.Valid && t.Resv.Line == memory.ReservationLine(ea) &&
		m.CheckAccess(ea, 128, memory.PermWrite) == nil && m.TryCommit(t.Resv.Line, t.Resv.Stamp)
	status := uint32(1)
	if ok {
		var buf [128]byte
		t.Store.ReadBytes(lsAddr, buf[:])
		if err := m.WriteBytesUnchecked(ea, buf[:]); err != nil {
			return StepOutcome{}, err
		}
		status = 0
	}
	t.Resv.Valid = false
	t.Regs.GPR[sRT(w)] = PreferredQuad(status)
	t.advance()
	return StepOutcome{}, nil
}

func opPutlluc(t *Thread, m *memory.Space, w uint32) (StepOutcome, error) {
	ea := t.Regs.GPR[sRA(w)].Preferred()
	lsAddr := Mask(t.Regs.GPR[sRT(w)].Preferred())

	var buf [128]byte
	t.Store.ReadBytes(lsAddr, buf[:])
	if err := m.WriteBytes(ea, buf[:]); err != nil {
		return StepOutcome{}, err
	}
	t.Resv.Valid = false
	t.advance()
	return StepOutcome{}, nil
}
