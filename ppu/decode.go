package ppu

import "github.com/cellforge/cellcore/memory"

// opFunc executes one decoded instruction. It returns whether the
// instruction set CIA itself (a taken branch), the step outcome (used
// only for the syscall trap), and any fault.
type opFunc func(t *Thread, m *memory.Space, word uint32) (branched bool, outcome StepOutcome, err error)

// dispatchTable is keyed by the primary 6-bit opcode (bits 31-26 of the
// big-endian instruction word), mirroring the table-per-opcode-class
// idiom used throughout this interpreter's lineage, generalized from an
// 8-bit single-level table to PowerPC's primary+extended split.
var dispatchTable [64]opFunc

func init() {
	dispatchTable[14] = opAddi
	dispatchTable[15] = opAddis
	dispatchTable[11] = opCmpi
	dispatchTable[10] = opCmpli
	dispatchTable[24] = opOri
	dispatchTable[25] = opOris
	dispatchTable[26] = opXori
	dispatchTable[27] = opXoris
	dispatchTable[28] = opAndiDot
	dispatchTable[29] = opAndisDot
	dispatchTable[20] = opRlwimi
	dispatchTable[21] = opRlwinm
	dispatchTable[23] = opRlwnm

	dispatchTable[32] = opLwz
	dispatchTable[33] = opLwzu
	dispatchTable[34] = opLbz
	dispatchTable[35] = opLbzu
	dispatchTable[36] = opStw
	dispatchTable[37] = opStwu
	dispatchTable[38] = opStb
	dispatchTable[39] = opStbu
	dispatchTable[40] = opLhz
	dispatchTable[41] = opLhzu
	dispatchTable[42] = opLha
	dispatchTable[44] = opSth
	dispatchTable[45] = opSthu
	dispatchTable[58] = opLdGroup
	dispatchTable[62] = opStdGroup

	dispatchTable[18] = opB
	dispatchTable[16] = opBc
	dispatchTable[19] = op19Extended
	dispatchTable[31] = op31Extended
	dispatchTable[59] = op59Extended
	dispatchTable[63] = op63Extended
	dispatchTable[4] = op4Extended

	dispatchTable[17] = opSc
}

// field extraction helpers, named after the PowerPC manual's mnemonics.

func fRT(w uint32) uint8  { return uint8((w >> 21) & 0x1f) }
func fRS(w uint32) uint8  { return uint8((w >> 21) & 0x1f) }
func fRA(w uint32) uint8  { return uint8((w >> 16) & 0x1f) }
func fRB(w uint32) uint8  { return uint8((w >> 11) & 0x1f) }
func fXO10(w uint32) uint16 { return uint16((w >> 1) & 0x3ff) }
func fXO9(w uint32) uint16  { return uint16((w >> 1) & 0x1ff) }
func fXO5(w uint32) uint8   { return uint8((w >> 1) & 0x1f) }
func fRc(w uint32) bool   { return w&1 != 0 }
func fOE(w uint32) bool   { return (w>>10)&1 != 0 }
func fAA(w uint32) bool   { return (w>>1)&1 != 0 }
func fLK(w uint32) bool   { return w&1 != 0 }
func fBO(w uint32) uint8  { return uint8((w >> 21) & 0x1f) }
func fBI(w uint32) uint8  { return uint8((w >> 16) & 0x1f) }

func fSIMM(w uint32) int64 {
	return int64(int16(uint16(w & 0xffff)))
}

func fUIMM(w uint32) uint64 {
	return uint64(uint16(w & 0xffff))
}

// fD16 returns a 16-bit displacement field (D-form memory instructions),
// sign-extended.
func fD16(w uint32) int32 {
	return int32(int16(uint16(w & 0xffff)))
}

// fBD14 returns a 14-bit branch displacement (BD field), sign-extended
// and scaled by 4 (the low two bits are always zero in the encoding).
func fBD14(w uint32) int32 {
	raw := int32(w & 0xfffc)
	raw <<= 16
	raw >>= 16
	return raw
}

// fLI24 returns the 24-bit branch target field (LI) of the unconditional
// branch instruction, sign-extended and scaled by 4.
func fLI24(w uint32) int32 {
	raw := int32(w & 0x03fffffc)
	raw <<= 6
	raw >>= 6
	return raw
}
