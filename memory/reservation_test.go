package memory

import "testing"

// TestReservationCommitFailsAfterConcurrentWrite is testable property 4:
// acquire(L); any_write_to(L); try_commit(L, t) must return false.
func TestReservationCommitFailsAfterConcurrentWrite(t *testing.T) {
	s := newTestSpace()
	addr := uint32(0x00010200)
	if err := s.Write8(addr, 0); err != nil {
		t.Fatalf("seed write: %v", err)
	}

	line, stamp, err := s.AcquireReservation(addr)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if err := s.Write8(addr+4, 0x55); err != nil {
		t.Fatalf("interleaved write: %v", err)
	}

	if s.TryCommit(line, stamp) {
		t.Fatalf("try_commit succeeded despite a concurrent write to the line")
	}
}

func TestReservationCommitSucceedsWithNoInterveningWrite(t *testing.T) {
	s := newTestSpace()
	addr := uint32(0x00010300)

	line, stamp, err := s.AcquireReservation(addr)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if !s.TryCommit(line, stamp) {
		t.Fatalf("try_commit failed with no intervening write")
	}

	// A second commit against the same stale stamp must now fail: the
	// first commit already advanced the timestamp.
	if s.TryCommit(line, stamp) {
		t.Fatalf("try_commit succeeded twice against the same stamp")
	}
}

func TestReservationLineAlignment(t *testing.T) {
	if ReservationLine(0x1000) != 0x1000/reservationLine {
		t.Fatalf("unexpected line for aligned address")
	}
	if ReservationLine(0x1001) != ReservationLine(0x1000) {
		t.Fatalf("unaligned address should fall back to its containing line")
	}
}
