package spu

import "fmt"

// localStoreSize is the fixed Local Store capacity: 256 KiB exactly.
const localStoreSize = 262144

// localStoreMask confines any address to the 18-bit Local Store range;
// overflowing arithmetic wraps rather than faults, per the SPU's
// addressing discipline.
const localStoreMask = localStoreSize - 1

// LocalStoreBoundsError reports an access that could not be masked into
// range, which can only happen for a request wider than the store itself.
type LocalStoreBoundsError struct {
	Addr uint32
	Size uint32
}

func (e *LocalStoreBoundsError) Error() string {
	return fmt.Sprintf("spu: local store access out of bounds: addr=0x%05x size=%d", e.Addr, e.Size)
}

// LocalStore is the SPU's private 256 KiB address space.
type LocalStore struct {
	data [localStoreSize]byte
}

// Mask confines addr to the Local Store range.
func Mask(addr uint32) uint32 { return addr & localStoreMask }

// ReadQuad loads the 128-bit-aligned quadword at addr (masked and aligned
// down to 16 bytes) as four big-endian lanes.
func (ls *LocalStore) ReadQuad(addr uint32) Quad {
	a := Mask(addr) &^ 0xf
	var q Quad
	for i := 0; i < 4; i++ {
		off := a + uint32(i*4)
		q[i] = beWord(ls.data[off : off+4])
	}
	return q
}

// WriteQuad stores q at the 128-bit-aligned quadword containing addr.
func (ls *LocalStore) WriteQuad(addr uint32, q Quad) {
	a := Mask(addr) &^ 0xf
	for i := 0; i < 4; i++ {
		off := a + uint32(i*4)
		putBEWord(ls.data[off:off+4], q[i])
	}
}

// ReadBytes copies size bytes starting at the masked address into dst.
// Used by the MFC for byte-granular DMA into/out of the store.
func (ls *LocalStore) ReadBytes(addr uint32, dst []byte) {
	a := Mask(addr)
	n := copy(dst, ls.data[a:])
	if n < len(dst) {
		copy(dst[n:], ls.data[:len(dst)-n])
	}
}

// WriteBytes copies src into the store starting at the masked address,
// wrapping at the end of the store.
func (ls *LocalStore) WriteBytes(addr uint32, src []byte) {
	a := Mask(addr)
	n := copy(ls.data[a:], src)
	if n < len(src) {
		copy(ls.data[:], src[n:])
	}
}

// RawPointer exposes the backing slice from addr to the end of the store,
// for DMA helpers that need direct access without an intermediate copy.
func (ls *LocalStore) RawPointer(addr uint32) []byte {
	return ls.data[Mask(addr):]
}

func beWord(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func putBEWord(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
