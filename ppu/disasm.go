package ppu

import "fmt"

// Disassemble formats a best-effort mnemonic for word, covering the
// instruction families this interpreter implements. Anything outside
// that set, including opcodes this interpreter recognizes only as part
// of an extended (31/59/63/19/4) group this formatter doesn't break out
// individually, falls back to the raw-word form.
func Disassemble(word uint32) string {
	op := word >> 26
	switch op {
	case 14:
		return fmt.Sprintf("addi    r%d,r%d,%d", fRT(word), fRA(word), fSIMM(word))
	case 15:
		return fmt.Sprintf("addis   r%d,r%d,%d", fRT(word), fRA(word), fSIMM(word))
	case 11:
		return fmt.Sprintf("cmpi    cr%d,r%d,%d", (word>>23)&0x7, fRA(word), fSIMM(word))
	case 10:
		return fmt.Sprintf("cmpli   cr%d,r%d,%d", (word>>23)&0x7, fRA(word), fUIMM(word))
	case 24:
		return fmt.Sprintf("ori     r%d,r%d,0x%x", fRA(word), fRT(word), fUIMM(word))
	case 25:
		return fmt.Sprintf("oris    r%d,r%d,0x%x", fRA(word), fRT(word), fUIMM(word))
	case 26:
		return fmt.Sprintf("xori    r%d,r%d,0x%x", fRA(word), fRT(word), fUIMM(word))
	case 27:
		return fmt.Sprintf("xoris   r%d,r%d,0x%x", fRA(word), fRT(word), fUIMM(word))
	case 28:
		return fmt.Sprintf("andi.   r%d,r%d,0x%x", fRA(word), fRT(word), fUIMM(word))
	case 29:
		return fmt.Sprintf("andis.  r%d,r%d,0x%x", fRA(word), fRT(word), fUIMM(word))
	case 32:
		return fmt.Sprintf("lwz     r%d,%d(r%d)", fRT(word), fD16(word), fRA(word))
	case 33:
		return fmt.Sprintf("lwzu    r%d,%d(r%d)", fRT(word), fD16(word), fRA(word))
	case 34:
		return fmt.Sprintf("lbz     r%d,%d(r%d)", fRT(word), fD16(word), fRA(word))
	case 35:
		return fmt.Sprintf("lbzu    r%d,%d(r%d)", fRT(word), fD16(word), fRA(word))
	case 36:
		return fmt.Sprintf("stw     r%d,%d(r%d)", fRS(word), fD16(word), fRA(word))
	case 37:
		return fmt.Sprintf("stwu    r%d,%d(r%d)", fRS(word), fD16(word), fRA(word))
	case 38:
		return fmt.Sprintf("stb     r%d,%d(r%d)", fRS(word), fD16(word), fRA(word))
	case 39:
		return fmt.Sprintf("stbu    r%d,%d(r%d)", fRS(word), fD16(word), fRA(word))
	case 40:
		return fmt.Sprintf("lhz     r%d,%d(r%d)", fRT(word), fD16(word), fRA(word))
	case 41:
		return fmt.Sprintf("lhzu    r%d,%d(r%d)", fRT(word), fD16(word), fRA(word))
	case 42:
		return fmt.Sprintf("lha     r%d,%d(r%d)", fRT(word), fD16(word), fRA(word))
	case 44:
		return fmt.Sprintf("sth     r%d,%d(r%d)", fRS(word), fD16(word), fRA(word))
	case 45:
		return fmt.Sprintf("sthu    r%d,%d(r%d)", fRS(word), fD16(word), fRA(word))
	case 58:
		return fmt.Sprintf("ld      r%d,%d(r%d)", fRT(word), fD16(word)&^3, fRA(word))
	case 62:
		return fmt.Sprintf("std     r%d,%d(r%d)", fRS(word), fD16(word)&^3, fRA(word))
	case 18:
		aa, lk := "", ""
		if fAA(word) {
			aa = "a"
		}
		if fLK(word) {
			lk = "l"
		}
		return fmt.Sprintf("b%s%s     %d", lk, aa, fLI24(word))
	case 16:
		aa, lk := "", ""
		if fAA(word) {
			aa = "a"
		}
		if fLK(word) {
			lk = "l"
		}
		return fmt.Sprintf("bc%s%s    %d,%d,%d", lk, aa, fBO(word), fBI(word), fBD14(word))
	case 17:
		return "sc"
	case 19, 31, 59, 63, 4:
		return fmt.Sprintf(".long 0x%08x  ; extended group %d", word, op)
	default:
		return fmt.Sprintf(".long 0x%08x", word)
	}
}
