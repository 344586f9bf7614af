// Package reverb implements the SPU's reverb network: 22 delay-line
// address registers, a set of fixed-point gain registers, and the per-tick
// comb/all-pass filter formula that reads and writes the shared SPU RAM.
//
// Grounded bit-exactly on SPU::DoReverb / SPU::ReverbRead / SPU::ReverbWrite
// / SPU::ReverbMemoryAddress / the ReverbSample saturating-arithmetic struct
// in the retrieved duckstation spu.cpp.
package reverb

func addSat(lhs, rhs int16) int16 {
	r := int32(lhs) + int32(rhs)
	return clamp16(r)
}

func subSat(lhs, rhs int16) int16 {
	r := int32(lhs) - int32(rhs)
	return clamp16(r)
}

func mul(lhs, rhs int16) int16 {
	return int16((int32(lhs) * int32(rhs)) >> 15)
}

func clamp16(v int32) int16 {
	if v < -32768 {
		return -32768
	}
	if v > 32767 {
		return 32767
	}
	return int16(v)
}

// Registers holds the reverb engine's game-writable configuration: the
// work-area base and the delay-line offset / gain registers, all in the
// console's native units (offsets in 8-byte units, gains in Q15 fixed
// point).
type Registers struct {
	Base uint16 // mBASE, in 8-byte units

	DApfOffset1, DApfOffset2 uint16 // dAPF1, dAPF2

	VolIIR  int16 // vIIR
	VolComb1, VolComb2, VolComb3, VolComb4 int16
	VolWall int16 // vWALL
	VolAPF1, VolAPF2 int16

	VolLeftIn, VolRightIn int16 // vLIN, vRIN

	MLSame, MRSame                 uint16 // mLSAME, mRSAME
	MLComb1, MRComb1               uint16
	MLComb2, MRComb2               uint16
	DLSame, DRSame                 uint16
	MLDiff, MRDiff                 uint16
	MLComb3, MRComb3               uint16
	MLComb4, MRComb4               uint16
	DLDiff, DRDiff                 uint16
	MLApf1, MRApf1                 uint16
	MLApf2, MRApf2                 uint16

	VolLeftOut, VolRightOut int16 // vLOUT, vROUT
}

// RAM is the subset of spuram.RAM's surface the reverb engine needs: raw
// word access, since reverb reads/writes never trip the RAM-address IRQ
// match (the console's ReverbRead/ReverbWrite do not call CheckRAMIRQ).
type RAM interface {
	ReadWord(address uint32) uint16
	WriteWord(address uint32, value uint16)
}

// Engine is the per-tick reverb processor. It owns no RAM itself; it
// operates on whatever spuram.RAM is handed to Tick, sharing it with the
// rest of the SPU.
type Engine struct {
	Regs Registers

	// MasterEnable gates writes (ReverbWrite is a no-op when false, matching
	// SPUCNT's reverb_master_enable), but never gates reads.
	MasterEnable bool

	CurrentAddress uint32 // in bytes, absolute RAM offset

	LeftOutput, RightOutput int16
}

const ramSize = 512 * 1024

// ResetAddress reseeds the current reverb work pointer from mBASE, as done
// on SPU reset and whenever mBASE is rewritten.
func (e *Engine) ResetAddress() {
	e.CurrentAddress = uint32(e.Regs.Base) * 8
}

// memAddress folds an absolute byte address into the reverb work area
// [mBASE*8, RAM_SIZE), matching ReverbMemoryAddress exactly, including its
// word-alignment mask.
func (e *Engine) memAddress(address uint32) uint32 {
	base := uint32(e.Regs.Base) * 8
	span := uint32(ramSize) - base
	relative := (address - base) % span
	return (base + relative) & 0x7FFFE
}

func (e *Engine) read(ram RAM, address uint32) int16 {
	return int16(ram.ReadWord(e.memAddress(address)))
}

func (e *Engine) write(ram RAM, address uint32, value int16) {
	if !e.MasterEnable {
		return
	}
	ram.WriteWord(e.memAddress(address), uint16(value))
}

// off returns a delay-line register value converted to a byte offset
// relative to CurrentAddress (Rm(name) = value*8 in the reference source).
func off(reg uint16) uint32 {
	return uint32(reg) * 8
}

// Tick runs one reverb sample period: mixes the current left/right input
// samples through the comb and all-pass network, advances the delay-line
// write cursor, and stores the result in LeftOutput/RightOutput.
//
// The R-to-R comb write is reproduced literally from the reference decoder,
// which writes the mRSAME computation to the mLSAME address (an apparent
// transcription slip inherited from the original hardware's documented
// behavior); silently "fixing" it would diverge from real console output,
// so it is kept as observed.
func (e *Engine) Tick(ram RAM, leftInput, rightInput int16) {
	r := e.Regs
	lin := mul(leftInput, r.VolLeftIn)
	rin := mul(rightInput, r.VolRightIn)

	base := e.CurrentAddress

	mLSame := off(r.MLSame) + base
	mRSame := off(r.MRSame) + base
	dLSame := off(r.DLSame) + base
	dRSame := off(r.DRSame) + base

	lSame := addSat(mul(addSat(lin, mul(e.read(ram, dLSame), r.VolWall)), r.VolIIR),
		e.read(ram, mLSame-2))
	e.write(ram, mLSame, lSame)

	rSame := addSat(mul(addSat(rin, mul(e.read(ram, dRSame), r.VolWall)), r.VolIIR),
		e.read(ram, mRSame-2))
	// Deliberately mirrors the reference decoder: written to mLSame, not mRSame.
	e.write(ram, mLSame, rSame)

	mLDiff := off(r.MLDiff) + base
	mRDiff := off(r.MRDiff) + base
	dLDiff := off(r.DLDiff) + base
	dRDiff := off(r.DRDiff) + base

	lDiff := addSat(mul(addSat(lin, mul(e.read(ram, dRDiff), r.VolWall)), r.VolIIR),
		e.read(ram, mLDiff-2))
	e.write(ram, mLDiff, lDiff)

	rDiff := addSat(mul(addSat(rin, mul(e.read(ram, dLDiff), r.VolWall)), r.VolIIR),
		e.read(ram, mRDiff-2))
	e.write(ram, mRDiff, rDiff)

	lout := addSat(addSat(mul(r.VolComb1, e.read(ram, off(r.MLComb1)+base)), mul(r.VolComb2, e.read(ram, off(r.MLComb2)+base))),
		addSat(mul(r.VolComb3, e.read(ram, off(r.MLComb3)+base)), mul(r.VolComb4, e.read(ram, off(r.MLComb4)+base))))
	rout := addSat(addSat(mul(r.VolComb1, e.read(ram, off(r.MRComb1)+base)), mul(r.VolComb2, e.read(ram, off(r.MRComb2)+base))),
		addSat(mul(r.VolComb3, e.read(ram, off(r.MRComb3)+base)), mul(r.VolComb4, e.read(ram, off(r.MRComb4)+base))))

	dApf1 := off(r.DApfOffset1)
	dApf2 := off(r.DApfOffset2)

	mLApf1 := off(r.MLApf1) + base
	lout = subSat(lout, mul(r.VolAPF1, e.read(ram, mLApf1-dApf1)))
	e.write(ram, mLApf1, lout)
	lout = addSat(mul(lout, r.VolAPF1), e.read(ram, mLApf1-dApf1))

	mRApf1 := off(r.MRApf1) + base
	rout = subSat(rout, mul(r.VolAPF1, e.read(ram, mRApf1-dApf1)))
	e.write(ram, mRApf1, rout)
	rout = addSat(mul(rout, r.VolAPF1), e.read(ram, mRApf1-dApf1))

	mLApf2 := off(r.MLApf2) + base
	lout = subSat(lout, mul(r.VolAPF2, e.read(ram, mLApf2-dApf2)))
	e.write(ram, mLApf2, lout)
	lout = addSat(mul(lout, r.VolAPF2), e.read(ram, mLApf2-dApf2))

	mRApf2 := off(r.MRApf2) + base
	rout = subSat(rout, mul(r.VolAPF2, e.read(ram, mRApf2-dApf2)))
	e.write(ram, mRApf2, rout)
	rout = addSat(mul(rout, r.VolAPF2), e.read(ram, mRApf2-dApf2))

	e.LeftOutput = mul(lout, r.VolLeftOut)
	e.RightOutput = mul(rout, r.VolRightOut)

	e.CurrentAddress = e.memAddress(e.CurrentAddress + 2)
}
