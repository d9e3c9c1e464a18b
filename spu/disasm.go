package spu

import "fmt"

// Disassemble formats a best-effort mnemonic for word, using this
// interpreter's own internal primary-opcode field (not a real SPU ISA
// bit-pattern decode, per decode.go's documented simplification) so the
// output matches what Step would actually execute.
func Disassemble(word uint32) string {
	primary := uint8(word >> 25)
	switch primary {
	case opIL:
		return fmt.Sprintf("il      $%d,%d", sRT(word), sI16(word))
	case opILH:
		return fmt.Sprintf("ilh     $%d,%d", sRT(word), sI16(word))
	case opILHU:
		return fmt.Sprintf("ilhu    $%d,%d", sRT(word), sI16(word))
	case opILA:
		return fmt.Sprintf("ila     $%d,%d", sRT(word), sI18(word))
	case opIOHL:
		return fmt.Sprintf("iohl    $%d,%d", sRT(word), sI16(word))
	case opLQD:
		return fmt.Sprintf("lqd     $%d,%d($%d)", sRT(word), sI10(word), sRA(word))
	case opSTQD:
		return fmt.Sprintf("stqd    $%d,%d($%d)", sRT(word), sI10(word), sRA(word))
	case opLQA:
		return fmt.Sprintf("lqa     $%d,%d", sRT(word), sI18(word))
	case opSTQA:
		return fmt.Sprintf("stqa    $%d,%d", sRT(word), sI18(word))
	case opLQX:
		return fmt.Sprintf("lqx     $%d,$%d,$%d", sRT(word), sRA(word), sRB(word))
	case opSTQX:
		return fmt.Sprintf("stqx    $%d,$%d,$%d", sRT(word), sRA(word), sRB(word))
	case opAH:
		return fmt.Sprintf("ah      $%d,$%d,$%d", sRT(word), sRA(word), sRB(word))
	case opA:
		return fmt.Sprintf("a       $%d,$%d,$%d", sRT(word), sRA(word), sRB(word))
	case opSF:
		return fmt.Sprintf("sf      $%d,$%d,$%d", sRT(word), sRA(word), sRB(word))
	case opAI:
		return fmt.Sprintf("ai      $%d,$%d,%d", sRT(word), sRA(word), sI10(word))
	case opAND:
		return fmt.Sprintf("and     $%d,$%d,$%d", sRT(word), sRA(word), sRB(word))
	case opOR:
		return fmt.Sprintf("or      $%d,$%d,$%d", sRT(word), sRA(word), sRB(word))
	case opXOR:
		return fmt.Sprintf("xor     $%d,$%d,$%d", sRT(word), sRA(word), sRB(word))
	case opCEQ:
		return fmt.Sprintf("ceq     $%d,$%d,$%d", sRT(word), sRA(word), sRB(word))
	case opCGT:
		return fmt.Sprintf("cgt     $%d,$%d,$%d", sRT(word), sRA(word), sRB(word))
	case opSELB:
		return fmt.Sprintf("selb    $%d,$%d,$%d,$%d", sRT(word), sRA(word), sRB(word), sChannel(word))
	case opSHLI:
		return fmt.Sprintf("shli    $%d,$%d,%d", sRT(word), sRA(word), sI10(word))
	case opROTI:
		return fmt.Sprintf("roti    $%d,$%d,%d", sRT(word), sRA(word), sI10(word))
	case opFA:
		return fmt.Sprintf("fa      $%d,$%d,$%d", sRT(word), sRA(word), sRB(word))
	case opFS:
		return fmt.Sprintf("fs      $%d,$%d,$%d", sRT(word), sRA(word), sRB(word))
	case opFM:
		return fmt.Sprintf("fm      $%d,$%d,$%d", sRT(word), sRA(word), sRB(word))
	case opBR:
		return fmt.Sprintf("br      %d", sI16(word))
	case opBRA:
		return fmt.Sprintf("bra     %d", sI16(word))
	case opBRSL:
		return fmt.Sprintf("brsl    $%d,%d", sRT(word), sI16(word))
	case opBI:
		return fmt.Sprintf("bi      $%d", sRA(word))
	case opLNOP:
		return "lnop"
	case opNOP:
		return "nop"
	case opHBR:
		return "hbr"
	case opRDCH:
		return fmt.Sprintf("rdch    $%d,%d", sRT(word), sChannel(word))
	case opWRCH:
		return fmt.Sprintf("wrch    %d,$%d", sChannel(word), sRT(word))
	case opRCHCNT:
		return fmt.Sprintf("rchcnt  $%d,%d", sRT(word), sChannel(word))
	case opGETLLAR:
		return fmt.Sprintf("getllar $%d,$%d", sRT(word), sRA(word))
	case opPUTLLC:
		return fmt.Sprintf("putllc  $%d", sRA(word))
	case opPUTLLUC:
		return fmt.Sprintf("putlluc $%d", sRA(word))
	default:
		return fmt.Sprintf(".long 0x%08x", word)
	}
}
