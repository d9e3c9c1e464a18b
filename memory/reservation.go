package memory

import "sync/atomic"

// reservationLine is the granularity, in bytes, at which load-linked /
// store-conditional reservations are tracked.
const reservationLine = 128

// lineStamp is the monotonic timestamp for one reservation line. It lives
// inside the page that owns the line so that reservations never need a
// separate, eagerly-allocated table covering the whole 32-bit space.
type lineStamp struct {
	v atomic.Uint64
}

func (s *Space) lineFor(addr uint32) (*page, uint32) {
	pg := s.lookupPage(addr)
	if pg == nil {
		return nil, 0
	}
	off := addr & pageMask
	return pg, off / reservationLine
}

func (s *Space) bumpLine(line uint32) {
	addr := line * reservationLine
	pg, idx := s.lineFor(addr)
	if pg == nil {
		return
	}
	pg.lines[idx].v.Add(1)
}

// AcquireReservation publishes the current timestamp of the 128-byte line
// containing addr, per the acquire half of the reservation protocol. The
// line address is rounded down to the 128-byte boundary.
func (s *Space) AcquireReservation(addr uint32) (line uint32, stamp uint64, err error) {
	if err := s.CheckAccess(addr, 1, PermRead); err != nil {
		return 0, 0, err
	}
	aligned := addr &^ (reservationLine - 1)
	pg, idx := s.lineFor(aligned)
	if pg == nil {
		return 0, 0, &InvalidAddressError{Addr: aligned}
	}
	return aligned / reservationLine, pg.lines[idx].v.Load(), nil
}

// TryCommit succeeds, advancing the line's timestamp atomically with the
// caller's write, iff no write has touched the line since stamp was read
// by AcquireReservation. Callers perform the guarded store themselves
// (via WriteBytesUnchecked et al.) only after TryCommit returns true;
// TryCommit performs the timestamp bump as part of the same compare-and-
// swap so there is no window in which a concurrent writer's bump could be
// lost.
func (s *Space) TryCommit(line uint32, stamp uint64) bool {
	addr := line * reservationLine
	pg, idx := s.lineFor(addr)
	if pg == nil {
		return false
	}
	return pg.lines[idx].v.CompareAndSwap(stamp, stamp+1)
}

// ReservationLine returns the 128-byte-aligned line number containing addr.
func ReservationLine(addr uint32) uint32 {
	return (addr &^ (reservationLine - 1)) / reservationLine
}
