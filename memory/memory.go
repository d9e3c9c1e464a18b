// Package memory implements the Cell core's main-memory substrate: a flat
// 4 GiB big-endian guest address space, a 4 KiB page table carrying
// per-page permissions, and bulk/typed access helpers used by the PPU and
// SPU interpreters and by the MFC DMA engine.
package memory

import (
	"sync"
)

// Perm is a set of page permission bits.
type Perm uint8

const (
	PermRead Perm = 1 << iota
	PermWrite
	PermExecute
	PermMMIO
)

const (
	pageShift = 12
	pageSize  = 1 << pageShift // 4 KiB
	pageMask  = pageSize - 1
	pageCount = 1 << (32 - pageShift) // pages in the full 32-bit space

	linesPerPage = pageSize / reservationLine
)

// page is the backing store for one 4 KiB page plus the reservation
// timestamps for the 128-byte lines it contains. Pages are allocated
// lazily: an address with no page is unbacked.
type page struct {
	data  [pageSize]byte
	lines [linesPerPage]lineStamp
	perm  Perm
}

// Region names a named span of the guest address space per the reserved
// layout table; it exists for documentation and for Space.Regions(), not
// for access control (permissions live per-page).
type Region struct {
	Name  string
	Base  uint32
	Size  uint32
	Flags Perm
}

// Space is one guest process's address space.
type Space struct {
	mu      sync.RWMutex
	pages   map[uint32]*page // keyed by page number (addr >> 12)
	regions []Region

	// allocBase/allocPages bound the region Allocate searches for free
	// runs of pages, tracked by the bitmap below.
	allocBase  uint32
	allocPages uint32
	bitmap     []uint64 // one bit per page in the alloc region; 1 == in use
}

// NewSpace creates an address space and pre-declares the regions of the
// reserved guest memory layout. allocBase/allocSize bound the region used
// by Allocate/Free (the "user memory" region of the layout table).
func NewSpace(allocBase, allocSize uint32, regions []Region) *Space {
	npages := (allocSize + pageSize - 1) / pageSize
	s := &Space{
		pages:      make(map[uint32]*page),
		regions:    regions,
		allocBase:  allocBase,
		allocPages: npages,
		bitmap:     make([]uint64, (npages+63)/64),
	}
	for _, r := range regions {
		if r.Flags&PermMMIO != 0 {
			continue // MMIO regions are backed by the collaborator, not by committed pages
		}
		_ = s.Commit(r.Base, r.Size, r.Flags)
	}
	return s
}

// Regions returns the address space's declared layout, for diagnostics.
func (s *Space) Regions() []Region {
	return s.regions
}

// Commit installs npages worth of backing store and permissions starting
// at addr, rounding addr down and size up to page boundaries. It is used
// both by NewSpace to install the static layout and by Allocate.
func (s *Space) Commit(addr, size uint32, flags Perm) error {
	if size == 0 {
		return nil
	}
	start := addr &^ pageMask
	end := (addr + size + pageMask) &^ pageMask
	if end <= start { // wrapped past 2^32
		return &InvalidAddressError{Addr: addr}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := start; p < end; p += pageSize {
		pn := p >> pageShift
		pg, ok := s.pages[pn]
		if !ok {
			pg = &page{}
			s.pages[pn] = pg
		}
		pg.perm = flags
	}
	return nil
}

// Decommit removes backing store for the given range, making it unbacked.
func (s *Space) Decommit(addr, size uint32) error {
	if size == 0 {
		return nil
	}
	start := addr &^ pageMask
	end := (addr + size + pageMask) &^ pageMask
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := start; p < end; p += pageSize {
		delete(s.pages, p>>pageShift)
	}
	return nil
}

// lookupPage returns the page backing addr, or nil if unbacked.
func (s *Space) lookupPage(addr uint32) *page {
	s.mu.RLock()
	pg := s.pages[addr>>pageShift]
	s.mu.RUnlock()
	return pg
}

// CheckAccess verifies that every byte in [addr, addr+size) is backed and
// carries all of required. It never partially validates a range: either
// the whole range is accessible or an error naming the first failing
// address/kind is returned.
func (s *Space) CheckAccess(addr, size uint32, required Perm) error {
	if size == 0 {
		return nil
	}
	if uint64(addr)+uint64(size) > 1<<32 {
		return &InvalidAddressError{Addr: addr}
	}
	start := addr &^ pageMask
	end := (addr + size - 1) &^ pageMask
	for p := start; ; p += pageSize {
		pg := s.lookupPage(p)
		if pg == nil {
			return &InvalidAddressError{Addr: p}
		}
		if required&PermRead != 0 && pg.perm&PermRead == 0 {
			return &AccessViolationError{Kind: AccessRead, Addr: p}
		}
		if required&PermWrite != 0 && pg.perm&PermWrite == 0 {
			return &AccessViolationError{Kind: AccessWrite, Addr: p}
		}
		if required&PermExecute != 0 && pg.perm&PermExecute == 0 {
			return &AccessViolationError{Kind: AccessExecute, Addr: p}
		}
		if p == end {
			break
		}
	}
	return nil
}

// touch bumps the reservation line(s) covering [addr, addr+size) to
// invalidate any outstanding reservation (callers must have already
// CheckAccess'd).
func (s *Space) touch(addr, size uint32) {
	first := addr / reservationLine
	last := (addr + size - 1) / reservationLine
	for line := first; line <= last; line++ {
		s.bumpLine(line)
	}
}

// ReadBytes copies size bytes starting at addr into dst, honoring
// permission checks. dst must be at least size bytes.
func (s *Space) ReadBytes(addr uint32, dst []byte) error {
	size := uint32(len(dst))
	if err := s.CheckAccess(addr, size, PermRead); err != nil {
		return err
	}
	return s.ReadBytesUnchecked(addr, dst)
}

// ReadBytesUnchecked is the same as ReadBytes but skips CheckAccess; the
// caller must have validated the range (or accept a panic on unbacked
// memory, which never happens for ranges that were just checked).
func (s *Space) ReadBytesUnchecked(addr uint32, dst []byte) error {
	remaining := dst
	for len(remaining) > 0 {
		pg := s.lookupPage(addr)
		if pg == nil {
			return &InvalidAddressError{Addr: addr}
		}
		off := addr & pageMask
		n := copy(remaining, pg.data[off:])
		remaining = remaining[n:]
		addr += uint32(n)
	}
	return nil
}

// WriteBytes copies src into the address space starting at addr, honoring
// permission checks, and advances the reservation timestamp of every line
// touched.
func (s *Space) WriteBytes(addr uint32, src []byte) error {
	size := uint32(len(src))
	if err := s.CheckAccess(addr, size, PermWrite); err != nil {
		return err
	}
	if err := s.WriteBytesUnchecked(addr, src); err != nil {
		return err
	}
	s.touch(addr, size)
	return nil
}

// WriteBytesUnchecked is WriteBytes without the permission check or the
// reservation bump; only safe for callers (the reservation engine itself)
// that manage the line timestamp separately.
func (s *Space) WriteBytesUnchecked(addr uint32, src []byte) error {
	remaining := src
	for len(remaining) > 0 {
		pg := s.lookupPage(addr)
		if pg == nil {
			return &InvalidAddressError{Addr: addr}
		}
		off := addr & pageMask
		n := copy(pg.data[off:], remaining)
		remaining = remaining[n:]
		addr += uint32(n)
	}
	return nil
}

// Read8 returns the byte at addr.
func (s *Space) Read8(addr uint32) (uint8, error) {
	var buf [1]byte
	if err := s.ReadBytes(addr, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Write8 stores v at addr.
func (s *Space) Write8(addr uint32, v uint8) error {
	return s.WriteBytes(addr, []byte{v})
}

// ReadBE16 returns the big-endian halfword at addr.
func (s *Space) ReadBE16(addr uint32) (uint16, error) {
	var buf [2]byte
	if err := s.ReadBytes(addr, buf[:]); err != nil {
		return 0, err
	}
	return uint16(buf[0])<<8 | uint16(buf[1]), nil
}

// WriteBE16 stores v as a big-endian halfword at addr.
func (s *Space) WriteBE16(addr uint32, v uint16) error {
	buf := [2]byte{byte(v >> 8), byte(v)}
	return s.WriteBytes(addr, buf[:])
}

// ReadBE32 returns the big-endian word at addr.
func (s *Space) ReadBE32(addr uint32) (uint32, error) {
	var buf [4]byte
	if err := s.ReadBytes(addr, buf[:]); err != nil {
		return 0, err
	}
	return beWord(buf[:]), nil
}

// WriteBE32 stores v as a big-endian word at addr.
func (s *Space) WriteBE32(addr uint32, v uint32) error {
	var buf [4]byte
	putBEWord(buf[:], v)
	return s.WriteBytes(addr, buf[:])
}

// ReadBE32Unchecked is ReadBE32 without the permission check, for the
// interpreter fetch path after a successful instruction-fetch check.
func (s *Space) ReadBE32Unchecked(addr uint32) (uint32, error) {
	var buf [4]byte
	if err := s.ReadBytesUnchecked(addr, buf[:]); err != nil {
		return 0, err
	}
	return beWord(buf[:]), nil
}

// WriteBE32Unchecked is WriteBE32 without the permission check or the
// reservation bump, for callers (the reservation engine's conditional
// stores) that have already advanced the line timestamp via TryCommit.
func (s *Space) WriteBE32Unchecked(addr uint32, v uint32) error {
	var buf [4]byte
	putBEWord(buf[:], v)
	return s.WriteBytesUnchecked(addr, buf[:])
}

// ReadBE64 returns the big-endian doubleword at addr.
func (s *Space) ReadBE64(addr uint32) (uint64, error) {
	var buf [8]byte
	if err := s.ReadBytes(addr, buf[:]); err != nil {
		return 0, err
	}
	return beDouble(buf[:]), nil
}

// WriteBE64 stores v as a big-endian doubleword at addr.
func (s *Space) WriteBE64(addr uint32, v uint64) error {
	var buf [8]byte
	putBEDouble(buf[:], v)
	return s.WriteBytes(addr, buf[:])
}

// WriteBE64Unchecked is WriteBE64 without the permission check or the
// reservation bump; see WriteBE32Unchecked.
func (s *Space) WriteBE64Unchecked(addr uint32, v uint64) error {
	var buf [8]byte
	putBEDouble(buf[:], v)
	return s.WriteBytesUnchecked(addr, buf[:])
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

func beDouble(b []byte) uint64 {
	return uint64(beWord(b[0:4]))<<32 | uint64(beWord(b[4:8]))
}

func putBEDouble(b []byte, v uint64) {
	putBEWord(b[0:4], uint32(v>>32))
	putBEWord(b[4:8], uint32(v))
}

// Allocate reserves a contiguous run of pages in the alloc region large
// enough for size bytes aligned to align, installs flags as their
// permission set, and returns the base address. align must be a power of
// two no smaller than the page size granularity used internally; callers
// asking for sub-page alignment still receive page-aligned addresses.
func (s *Space) Allocate(size, align uint32, flags Perm) (uint32, error) {
	if size == 0 {
		return 0, &InvalidAddressError{Addr: 0}
	}
	npages := (size + pageMask) >> pageShift
	alignPages := uint32(1)
	if align > pageSize {
		alignPages = align >> pageShift
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for start := uint32(0); start+npages <= s.allocPages; start += alignPages {
		if alignPages > 1 && start%alignPages != 0 {
			continue
		}
		if s.rangeFreeLocked(start, npages) {
			s.markRangeLocked(start, npages, true)
			base := s.allocBase + start*pageSize
			for p := uint32(0); p < npages; p++ {
				pn := (base >> pageShift) + p
				s.pages[pn] = &page{perm: flags}
			}
			return base, nil
		}
	}
	return 0, ErrOutOfMemory
}

// Free releases a range previously returned by Allocate.
func (s *Space) Free(addr, size uint32) error {
	if addr < s.allocBase {
		return &InvalidAddressError{Addr: addr}
	}
	start := (addr - s.allocBase) >> pageShift
	npages := (size + pageMask) >> pageShift

	s.mu.Lock()
	defer s.mu.Unlock()
	if start+npages > s.allocPages {
		return &InvalidAddressError{Addr: addr}
	}
	s.markRangeLocked(start, npages, false)
	for p := uint32(0); p < npages; p++ {
		delete(s.pages, (addr>>pageShift)+p)
	}
	return nil
}

func (s *Space) rangeFreeLocked(start, count uint32) bool {
	for i := start; i < start+count; i++ {
		if s.bitmap[i/64]&(1<<(i%64)) != 0 {
			return false
		}
	}
	return true
}

func (s *Space) markRangeLocked(start, count uint32, used bool) {
	for i := start; i < start+count; i++ {
		if used {
			s.bitmap[i/64] |= 1 << (i % 64)
		} else {
			s.bitmap[i/64] &^= 1 << (i % 64)
		}
	}
}

// RawPointer exposes the backing byte slice for one page of addr, for
// external collaborators (e.g., the graphics command processor) that need
// DMA-like bulk access. Per the substrate contract, callers of this
// unchecked interface are bound by the same invariants as the checked
// helpers: they must not read/write past the returned slice and must
// respect the page's declared permissions themselves. Returns nil if addr
// is unbacked.
func (s *Space) RawPointer(addr uint32) []byte {
	pg := s.lookupPage(addr)
	if pg == nil {
		return nil
	}
	off := addr & pageMask
	return pg.data[off:]
}
