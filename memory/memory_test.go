package memory

import "testing"

func newTestSpace() *Space {
	return NewSpace(0x00100000, 64*1024, []Region{
		{Name: "main", Base: 0x00010000, Size: 0x00100000, Flags: PermRead | PermWrite | PermExecute},
	})
}

func TestAllocateThenFreeFailsAccess(t *testing.T) {
	s := newTestSpace()

	addr, err := s.Allocate(4096, 4096, PermRead|PermWrite)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	if _, err := s.Read8(addr); err != nil {
		t.Fatalf("read after allocate: %v", err)
	}

	if err := s.Free(addr, 4096); err != nil {
		t.Fatalf("free: %v", err)
	}

	if _, err := s.Read8(addr); err == nil {
		t.Fatalf("expected access violation after free")
	}
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	s := newTestSpace()
	addr := uint32(0x00010100)

	if err := s.Write8(addr, 0x42); err != nil {
		t.Fatalf("write: %v", err)
	}
	v, err := s.Read8(addr)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v != 0x42 {
		t.Fatalf("got %#x, want 0x42", v)
	}
}

// TestBigEndianRoundTrip is testable property 3 (S2 in spec.md): writing
// 0xDEADBEEF as a big-endian word must leave [DE AD BE EF] in memory.
func TestBigEndianRoundTrip(t *testing.T) {
	s := newTestSpace()
	addr := uint32(0x00020000)

	if err := s.WriteBE32(addr, 0xDEADBEEF); err != nil {
		t.Fatalf("write: %v", err)
	}

	v, err := s.ReadBE32(addr)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v != 0xDEADBEEF {
		t.Fatalf("got %#x, want 0xDEADBEEF", v)
	}

	raw := make([]byte, 4)
	if err := s.ReadBytes(addr, raw); err != nil {
		t.Fatalf("read bytes: %v", err)
	}
	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	for i := range want {
		if raw[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, raw[i], want[i])
		}
	}
}

func TestCheckAccessUnbackedAddress(t *testing.T) {
	s := newTestSpace()
	if err := s.CheckAccess(0xFFFF0000, 4, PermRead); err == nil {
		t.Fatalf("expected error for unbacked address")
	}
}

func TestCheckAccessReadOnlyPage(t *testing.T) {
	s := newTestSpace()
	addr, err := s.Allocate(4096, 4096, PermRead)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if err := s.Write8(addr, 1); err == nil {
		t.Fatalf("expected write access violation on read-only page")
	}
}
