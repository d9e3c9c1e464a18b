package spu

import "github.com/cellforge/cellcore/memory"

// opFunc executes one decoded SPU instruction.
type opFunc func(t *Thread, m *memory.Space, word uint32) (StepOutcome, error)

// spuDispatch is keyed by this interpreter's 7-bit primary opcode (bits
// 31-25), mirroring the single-level dispatch-table idiom used for the
// PPU, simplified from the real SPU ISA's variable 4-to-11-bit prefix
// into one fixed field for decoder clarity.
var spuDispatch [128]opFunc

func init() {
	spuDispatch[opIL] = opIl
	spuDispatch[opILH] = opIlh
	spuDispatch[opILHU] = opIlhu
	spuDispatch[opILA] = opIla
	spuDispatch[opIOHL] = opIohl

	spuDispatch[opLQD] = opLqd
	spuDispatch[opSTQD] = opStqd
	spuDispatch[opLQA] = opLqa
	spuDispatch[opSTQA] = opStqa
	spuDispatch[opLQX] = opLqx
	spuDispatch[opSTQX] = opStqx
	spuDispatch[opLQR] = opLqr
	spuDispatch[opSTQR] = opStqr
	spuDispatch[opCBD] = opCbd
	spuDispatch[opCHD] = opChd
	spuDispatch[opCWD] = opCwd
	spuDispatch[opCDD] = opCdd

	spuDispatch[opAH] = opAh
	spuDispatch[opA] = opAdd
	spuDispatch[opSF] = opSf
	spuDispatch[opAI] = opAi
	spuDispatch[opAND] = opAnd
	spuDispatch[opOR] = opOr
	spuDispatch[opXOR] = opXor
	spuDispatch[opANDI] = opAndi
	spuDispatch[opORI] = opOri
	spuDispatch[opXORI] = opXori
	spuDispatch[opCG] = opCg
	spuDispatch[opCEQB] = opCeqb
	spuDispatch[opCEQ] = opCeq
	spuDispatch[opCGT] = opCgt
	spuDispatch[opSELB] = opSelb

	spuDispatch[opSHLI] = opShli
	spuDispatch[opSHL] = opShl
	spuDispatch[opROTI] = opRoti
	spuDispatch[opROT] = opRot
	spuDispatch[opROTQBYI] = opRotqbyi

	spuDispatch[opFA] = opFa
	spuDispatch[opFS] = opFs
	spuDispatch[opFM] = opFm
	spuDispatch[opDFA] = opDfa
	spuDispatch[opDFS] = opDfs
	spuDispatch[opDFM] = opDfm
	spuDispatch[opFCEQ] = opFceq
	spuDispatch[opFCGT] = opFcgt

	spuDispatch[opBR] = opBr
	spuDispatch[opBRA] = opBra
	spuDispatch[opBRSL] = opBrsl
	spuDispatch[opBI] = opBi
	spuDispatch[opBIZ] = opBiz
	spuDispatch[opBINZ] = opBinz
	spuDispatch[opBRZ] = opBrz
	spuDispatch[opBRNZ] = opBrnz
	spuDispatch[opLNOP] = opLnop
	spuDispatch[opNOP] = opNop
	spuDispatch[opHBR] = opHbr

	spuDispatch[opRDCH] = opRdch
	spuDispatch[opWRCH] = opWrch
	spuDispatch[opRCHCNT] = opRchcnt

	spuDispatch[opGETLLAR] = opGetllar
	spuDispatch[opPUTLLC] = opPutllc
	spuDispatch[opPUTLLUC] = opPutlluc
}

// Primary opcode assignments for this interpreter's fixed 7-bit field.
// These are internal dispatch keys, not the real SPU ISA's bit patterns.
const (
	opIL uint8 = iota + 1
	opILH
	opILHU
	opILA
	opIOHL

	opLQD
	opSTQD
	opLQA
	opSTQA
	opLQX
	opSTQX
	opLQR
	opSTQR
	opCBD
	opCHD
	opCWD
	opCDD

	opAH
	opA
	opSF
	opAI
	opAND
	opOR
	opXOR
	opANDI
	opORI
	opXORI
	opCG
	opCEQB
	opCEQ
	opCGT
	opSELB

	opSHLI
	opSHL
	opROTI
	opROT
	opROTQBYI

	opFA
	opFS
	opFM
	opDFA
	opDFS
	opDFM
	opFCEQ
	opFCGT

	opBR
	opBRA
	opBRSL
	opBI
	opBIZ
	opBINZ
	opBRZ
	opBRNZ
	opLNOP
	opNOP
	opHBR

	opRDCH
	opWRCH
	opRCHCNT

	opGETLLAR
	opPUTLLC
	opPUTLLUC
)

// Field extraction for this interpreter's word layout: a 7-bit primary
// opcode in bits 31-25, then format-dependent fields in the low 25 bits.
//
//	RR:   RT[24:18] RA[17:11] RB[10:4]
//	RI10: RT[24:18] RA[17:11] I10[10:1] (signed)
//	RI16: RT[24:18] I16[17:2] (signed)
//	RI18: RT[24:18] I18[17:0] (signed)
//	Channel: RT/RS[24:18] channel[10:4]

func sRT(w uint32) uint8 { return uint8((w >> 18) & 0x7f) }
func sRA(w uint32) uint8 { return uint8((w >> 11) & 0x7f) }
func sRB(w uint32) uint8 { return uint8((w >> 4) & 0x7f) }
func sChannel(w uint32) uint8 { return uint8((w >> 4) & 0x7f) }

func sI10(w uint32) int32 {
	raw := int32((w >> 1) & 0x3ff)
	raw <<= 22
	raw >>= 22
	return raw
}

func sI16(w uint32) int32 {
	raw := int32((w >> 2) & 0xffff)
	raw <<= 16
	raw >>= 16
	return raw
}

func sI18(w uint32) int32 {
	raw := int32(w & 0x3ffff)
	raw <<= 14
	raw >>= 14
	return raw
}
