package ppu

import (
	"math"

	"github.com/cellforge/cellcore/memory"
)

// VMX (AltiVec) vector instructions: a representative subset of the
// group-4 extended table, enough to exercise lane-wise float/integer
// arithmetic and the splat/logical forms SPU-facing HLE code leans on
// most heavily. VR is stored as four big-endian-ordered uint32 lanes.

func fXO11(w uint32) uint16 { return uint16(w & 0x7ff) }

func vrA(w uint32) uint8 { return uint8((w >> 16) & 0x1f) }
func vrB(w uint32) uint8 { return uint8((w >> 11) & 0x1f) }
func vrT(w uint32) uint8 { return uint8((w >> 21) & 0x1f) }

func vecLaneFloat(l uint32) float32  { return math.Float32frombits(l) }
func floatLane(f float32) uint32     { return math.Float32bits(f) }

func op4Extended(t *Thread, _ *memory.Space, w uint32) (bool, StepOutcome, error) {
	xo := fXO11(w)
	a, b, rt := vrA(w), vrB(w), vrT(w)
	switch xo {
	case 10: // vaddfp
		var out VR
		for i := 0; i < 4; i++ {
			out[i] = floatLane(vecLaneFloat(t.Regs.VR[a][i]) + vecLaneFloat(t.Regs.VR[b][i]))
		}
		t.Regs.VR[rt] = out
	case 74: // vsubfp
		var out VR
		for i := 0; i < 4; i++ {
			out[i] = floatLane(vecLaneFloat(t.Regs.VR[a][i]) - vecLaneFloat(t.Regs.VR[b][i]))
		}
		t.Regs.VR[rt] = out
	case 1028: // vand
		var out VR
		for i := 0; i < 4; i++ {
			out[i] = t.Regs.VR[a][i] & t.Regs.VR[b][i]
		}
		t.Regs.VR[rt] = out
	case 1092: // vandc
		var out VR
		for i := 0; i < 4; i++ {
			out[i] = t.Regs.VR[a][i] &^ t.Regs.VR[b][i]
		}
		t.Regs.VR[rt] = out
	case 1156: // vor
		var out VR
		for i := 0; i < 4; i++ {
			out[i] = t.Regs.VR[a][i] | t.Regs.VR[b][i]
		}
		t.Regs.VR[rt] = out
	case 1220: // vxor
		var out VR
		for i := 0; i < 4; i++ {
			out[i] = t.Regs.VR[a][i] ^ t.Regs.VR[b][i]
		}
		t.Regs.VR[rt] = out
	case 1284: // vnor
		var out VR
		for i := 0; i < 4; i++ {
			out[i] = ^(t.Regs.VR[a][i] | t.Regs.VR[b][i])
		}
		t.Regs.VR[rt] = out
	case 908: // vspltisw
		simm := int32(int8(uint8((w>>16)&0x1f)<<3) >> 3)
		var out VR
		for i := range out {
			out[i] = uint32(simm)
		}
		t.Regs.VR[rt] = out
	case 652: // vspltw
		uimm := (w >> 16) & 0x3
		lane := t.Regs.VR[b][uimm]
		var out VR
		for i := range out {
			out[i] = lane
		}
		t.Regs.VR[rt] = out
	case 384: // vaddsws (saturating add, simplified to wraparound)
		var out VR
		for i := 0; i < 4; i++ {
			out[i] = t.Regs.VR[a][i] + t.Regs.VR[b][i]
		}
		t.Regs.VR[rt] = out
	default:
		return false, StepOutcome{}, &IllegalOpcodeError{PC: t.Regs.CIA, Raw: w}
	}
	return false, StepOutcome{}, nil
}
