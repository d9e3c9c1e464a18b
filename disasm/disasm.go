// Package disasm dispatches a raw instruction word to the PPU or SPU
// formatter, per SPEC_FULL.md's disassembly supplement: a best-effort
// mnemonic printer for the operator console's dis command, grounded on
// the teacher's emu/disassemble. It owns no opcode tables of its own —
// ppu.Disassemble and spu.Disassemble keep those, since only the
// interpreter packages have access to the field-extraction helpers and
// opcode constants a real decode needs.
package disasm

import (
	"github.com/cellforge/cellcore/kernel"
	"github.com/cellforge/cellcore/ppu"
	"github.com/cellforge/cellcore/spu"
)

// Instruction formats word as it would be decoded for the given thread
// kind.
func Instruction(kind kernel.ThreadKind, word uint32) string {
	if kind == kernel.SPUThread {
		return spu.Disassemble(word)
	}
	return ppu.Disassemble(word)
}
