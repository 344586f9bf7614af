// Package spu wires the register file, the 24 voices, the reverb engine,
// the RAM, the DMA transfer path and the capture buffers into the single
// per-tick mixer loop that produces one stereo output frame.
//
// Grounded on SPU::Execute (the tick loop), SPU::SampleVoice, SPU::Reset
// and the register dispatch methods in the retrieved duckstation spu.cpp,
// restructured into the teacher's driver style (internal/emulator.Emulator
// sampling internal/apu.APU.GenerateSampleFixed every N cycles inside
// RunFrame).
package spu

import (
	"nitrospu/internal/adpcm"
	"nitrospu/internal/capture"
	"nitrospu/internal/cdaudio"
	"nitrospu/internal/dma"
	"nitrospu/internal/envelope"
	"nitrospu/internal/irq"
	"nitrospu/internal/regs"
	"nitrospu/internal/reverb"
	"nitrospu/internal/spuram"
	"nitrospu/internal/voice"
)

// NumVoices is the number of independent ADPCM voices the SPU mixes.
const NumVoices = regs.NumVoices

// MinKeyOnOffTicks mirrors voice.MinKeyOnOffTicks, re-exported for callers
// that only import this package.
const MinKeyOnOffTicks = voice.MinKeyOnOffTicks

// Logger is the narrow logging surface the SPU core needs; internal/debug
// provides a charmbracelet/log-backed implementation.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nullLogger struct{}

func (nullLogger) Debugf(string, ...any) {}
func (nullLogger) Warnf(string, ...any)  {}

// DumpWriter receives every mixed output frame, in addition to the
// configured Sink, for optional debugging capture (internal/wavdump
// implements this).
type DumpWriter interface {
	WriteFrames(frames [][2]int16) error
}

// SPU is the complete sound processing unit core.
type SPU struct {
	Regs   regs.File
	Voices [NumVoices]*voice.Voice
	RAM    *spuram.RAM
	Reverb reverb.Engine

	CDAudio cdaudio.FIFO
	Capture capture.Writer
	Transfer dma.Transfer

	MainVolumeLeft, MainVolumeRight envelope.Sweep

	IRQLine irq.Line
	Logger  Logger
	Dump    DumpWriter

	endxRegister  uint32
	tickCounter   uint32
	keyOnOffDelay [NumVoices]int32

	reverbLeftInput, reverbRightInput int16
}

// New returns a fully reset SPU, ready to have its register window driven.
func New() *SPU {
	s := &SPU{
		RAM:     spuram.New(),
		IRQLine: irq.NullLine{},
		Logger:  nullLogger{},
	}
	for i := range s.Voices {
		s.Voices[i] = voice.New()
	}
	s.RAM.SetIRQChecker(s.checkRAMIRQ)
	return s
}

// Reset returns the SPU to its post-reset state: RAM is zeroed, every
// voice is silenced, and the reverb work pointer is reseeded from mBASE
// (0xE128 on real hardware, the reset value of SPU::Reset).
func (s *SPU) Reset() {
	s.RAM.Reset()
	for _, v := range s.Voices {
		v.Reset()
	}
	s.Regs = regs.File{}
	s.Regs.ReverbBase = 0xE128
	s.Reverb = reverb.Engine{}
	s.Reverb.Regs.Base = s.Regs.ReverbBase
	s.Reverb.ResetAddress()
	s.CDAudio.Reset()
	s.Capture.Reset()
	s.Transfer = dma.Transfer{}
	s.endxRegister = 0
	s.tickCounter = 0
	s.keyOnOffDelay = [NumVoices]int32{}
	s.MainVolumeLeft = envelope.Sweep{}
	s.MainVolumeRight = envelope.Sweep{}
}

// ReadRegister reads a 16-bit value from the register window at the given
// offset, relative to the SPU's base address (0x1F801C00).
func (s *SPU) ReadRegister(offset uint32) uint16 {
	return s.Regs.Read(offset, s)
}

// WriteRegister writes a 16-bit value into the register window.
func (s *SPU) WriteRegister(offset uint32, value uint16) {
	s.Regs.Write(offset, value, s)
}

// EndX returns the current ENDX register (one bit per voice, latched when
// a voice's ADPCM stream reaches a non-repeating loop end).
func (s *SPU) EndX() uint32 { return s.endxRegister }

// State captures everything internal/savestate needs to restore an SPU bit
// for bit, including the fields this package keeps unexported (ENDX, the
// key-on/off debounce counters, the tick parity and latched reverb inputs).
type State struct {
	Regs    regs.File
	Voices  [NumVoices]voice.State
	RAM     []byte
	Reverb  reverb.Engine
	CDAudio cdaudio.State
	Capture uint32
	Transfer dma.Transfer

	MainVolumeLeft, MainVolumeRight envelope.SweepState

	EndX          uint32
	TickCounter   uint32
	KeyOnOffDelay [NumVoices]int32

	ReverbLeftInput, ReverbRightInput int16
}

// Snapshot returns the SPU's complete internal state.
func (s *SPU) Snapshot() State {
	st := State{
		Regs:              s.Regs,
		RAM:               append([]byte(nil), s.RAM.Bytes()...),
		Reverb:            s.Reverb,
		CDAudio:           s.CDAudio.Snapshot(),
		Capture:           s.Capture.Snapshot(),
		Transfer:          s.Transfer,
		MainVolumeLeft:    s.MainVolumeLeft.Snapshot(),
		MainVolumeRight:   s.MainVolumeRight.Snapshot(),
		EndX:              s.endxRegister,
		TickCounter:       s.tickCounter,
		KeyOnOffDelay:     s.keyOnOffDelay,
		ReverbLeftInput:   s.reverbLeftInput,
		ReverbRightInput:  s.reverbRightInput,
	}
	for i, v := range s.Voices {
		st.Voices[i] = v.Snapshot()
	}
	return st
}

// Restore installs a previously captured state.
func (s *SPU) Restore(st State) {
	s.Regs = st.Regs
	s.RAM.RestoreBytes(st.RAM)
	s.Reverb = st.Reverb
	s.CDAudio.Restore(st.CDAudio)
	s.Capture.Restore(st.Capture)
	s.Transfer = st.Transfer
	s.MainVolumeLeft.Restore(st.MainVolumeLeft)
	s.MainVolumeRight.Restore(st.MainVolumeRight)
	s.endxRegister = st.EndX
	s.tickCounter = st.TickCounter
	s.keyOnOffDelay = st.KeyOnOffDelay
	s.reverbLeftInput = st.ReverbLeftInput
	s.reverbRightInput = st.ReverbRightInput
	for i := range s.Voices {
		s.Voices[i].Restore(st.Voices[i])
	}
}

// --- regs.Hooks ---

func (s *SPU) InvokeEarly() {}

func (s *SPU) KeyOn(i int) {
	if s.keyOnOffDelay[i] > 0 {
		s.Logger.Debugf("voice %d key-on dropped, debounced", i)
		return
	}
	s.Voices[i].KeyOn(s.Regs.Voices[i].StartAddress)
	s.keyOnOffDelay[i] = MinKeyOnOffTicks
}

func (s *SPU) KeyOff(i int) {
	if s.keyOnOffDelay[i] > 0 {
		s.Logger.Debugf("voice %d key-off dropped, debounced", i)
		return
	}
	s.Voices[i].KeyOff()
	s.keyOnOffDelay[i] = MinKeyOnOffTicks
}

func (s *SPU) VoiceRegisterWritten(voiceIndex, regIndex int) {
	v := s.Voices[voiceIndex]
	r := &s.Regs.Voices[voiceIndex]
	switch regIndex {
	case 0:
		v.LeftVolume.Reset(regs.VolumeParams(r.VolumeLeft))
	case 1:
		v.RightVolume.Reset(regs.VolumeParams(r.VolumeRight))
	case 4, 5:
		decoded := regs.DecodeADSR(r.ADSRLow, r.ADSRHigh)
		v.Config = voice.ADSRConfig{
			SustainLevel:             decoded.SustainLevel,
			AttackRate:               decoded.AttackRate,
			AttackExponential:        decoded.AttackExponential,
			DecayRateShr2:            decoded.DecayRateShr2,
			SustainRate:              decoded.SustainRate,
			SustainDirectionDecrease: decoded.SustainDirectionDecrease,
			SustainExponential:       decoded.SustainExponential,
			ReleaseRateShr2:          decoded.ReleaseRateShr2,
			ReleaseExponential:       decoded.ReleaseExponential,
		}
	case 6:
		v.SetADSRVolume(int16(r.ADSRVolume))
	case 7:
		v.RepeatAddress = r.RepeatAddress
	}
}

func (s *SPU) MainVolumeLeftWritten() {
	s.MainVolumeLeft.Reset(regs.VolumeParams(s.Regs.MainVolumeLeft))
}

func (s *SPU) MainVolumeRightWritten() {
	s.MainVolumeRight.Reset(regs.VolumeParams(s.Regs.MainVolumeRight))
}

func (s *SPU) ReverbBaseWritten() {
	s.Reverb.Regs.Base = s.Regs.ReverbBase
	s.Reverb.ResetAddress()
}

// reverbRegisterOrder maps the 32-register reverb bank (offsets 0x1C0..0x1FE) to
// Registers fields, matching the console's documented register order.
var reverbRegisterOrder = [32]func(*reverb.Registers, uint16){
	0:  func(r *reverb.Registers, v uint16) { r.DApfOffset1 = v },
	1:  func(r *reverb.Registers, v uint16) { r.DApfOffset2 = v },
	2:  func(r *reverb.Registers, v uint16) { r.VolIIR = int16(v) },
	3:  func(r *reverb.Registers, v uint16) { r.VolComb1 = int16(v) },
	4:  func(r *reverb.Registers, v uint16) { r.VolComb2 = int16(v) },
	5:  func(r *reverb.Registers, v uint16) { r.VolComb3 = int16(v) },
	6:  func(r *reverb.Registers, v uint16) { r.VolComb4 = int16(v) },
	7:  func(r *reverb.Registers, v uint16) { r.VolWall = int16(v) },
	8:  func(r *reverb.Registers, v uint16) { r.VolAPF1 = int16(v) },
	9:  func(r *reverb.Registers, v uint16) { r.VolAPF2 = int16(v) },
	10: func(r *reverb.Registers, v uint16) { r.MLSame = v },
	11: func(r *reverb.Registers, v uint16) { r.MRSame = v },
	12: func(r *reverb.Registers, v uint16) { r.MLComb1 = v },
	13: func(r *reverb.Registers, v uint16) { r.MRComb1 = v },
	14: func(r *reverb.Registers, v uint16) { r.MLComb2 = v },
	15: func(r *reverb.Registers, v uint16) { r.MRComb2 = v },
	16: func(r *reverb.Registers, v uint16) { r.DLSame = v },
	17: func(r *reverb.Registers, v uint16) { r.DRSame = v },
	18: func(r *reverb.Registers, v uint16) { r.MLDiff = v },
	19: func(r *reverb.Registers, v uint16) { r.MRDiff = v },
	20: func(r *reverb.Registers, v uint16) { r.MLComb3 = v },
	21: func(r *reverb.Registers, v uint16) { r.MRComb3 = v },
	22: func(r *reverb.Registers, v uint16) { r.MLComb4 = v },
	23: func(r *reverb.Registers, v uint16) { r.MRComb4 = v },
	24: func(r *reverb.Registers, v uint16) { r.DLDiff = v },
	25: func(r *reverb.Registers, v uint16) { r.DRDiff = v },
	26: func(r *reverb.Registers, v uint16) { r.MLApf1 = v },
	27: func(r *reverb.Registers, v uint16) { r.MRApf1 = v },
	28: func(r *reverb.Registers, v uint16) { r.MLApf2 = v },
	29: func(r *reverb.Registers, v uint16) { r.MRApf2 = v },
	30: func(r *reverb.Registers, v uint16) { r.VolLeftIn = int16(v) },
	31: func(r *reverb.Registers, v uint16) { r.VolRightIn = int16(v) },
}

func (s *SPU) ReverbRegisterWritten(index int) {
	reverbRegisterOrder[index](&s.Reverb.Regs, s.Regs.Reverb[index])
}

func (s *SPU) ControlWritten() {
	s.Reverb.MasterEnable = s.Regs.Control.ReverbMasterEnable()
	if !s.Regs.Control.IRQ9Enable() {
		s.Regs.Status.SetIRQFlag(false)
	}
}

func (s *SPU) TransferAddressWritten() {
	s.Transfer.SetAddressRegister(s.Regs.TransferAddressReg)
}

func (s *SPU) TransferDataWritten(value uint16) {
	s.Transfer.WriteWord(ramAdapter{s.RAM}, value)
}

// --- RAM IRQ wiring ---

func (s *SPU) checkRAMIRQ(address uint32) {
	if uint32(s.Regs.IRQAddress)*8 == address && s.Regs.Control.IRQ9Enable() {
		s.Logger.Debugf("RAM IRQ at 0x%08X", address)
		s.Regs.Status.SetIRQFlag(true)
		s.IRQLine.Pulse()
	}
}

// ramAdapter narrows spuram.RAM to dma.RAM's interface.
type ramAdapter struct{ r *spuram.RAM }

func (a ramAdapter) ReadWord(addr uint32) uint16          { return a.r.ReadWord(addr) }
func (a ramAdapter) WriteWord(addr uint32, v uint16)      { a.r.WriteWord(addr, v) }
func (a ramAdapter) ReadWordChecked(addr uint32) uint16   { return a.r.ReadWordChecked(addr) }
func (a ramAdapter) WriteWordChecked(addr uint32, v uint16) { a.r.WriteWordChecked(addr, v) }

// --- mixer tick ---

// applyVolume matches the console's (sample*volume)>>15 ungated multiply.
func applyVolume(sample, volume int32) int32 {
	return (sample * volume) >> 15
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

// sampleVoice runs one voice's per-tick sampling: lazy ADPCM decode,
// interpolation, ADSR tick, pitch modulation and loop handling. It returns
// the voice's post-channel-volume left/right contribution.
func (s *SPU) sampleVoice(i int) (left, right int32) {
	v := s.Voices[i]
	if !v.IsOn() {
		v.SetLastAmplitude(0)
		return 0, 0
	}

	if !v.HasSamples() {
		addr := uint32(v.CurrentAddress) * 8
		block := adpcm.Block(s.RAM.Block16(addr))
		s.RAM.CheckIRQ(addr)
		s.RAM.CheckIRQ((addr + 8) & spuram.Mask)
		v.DecodeBlock(block)
		v.SetHasSamples(true)
		if v.BlockFlags().LoopStart {
			v.RepeatAddress = v.CurrentAddress
		}
	}

	amplitude := voice.ApplyVolume(v.Interpolate(), v.AdsrVolume())
	v.SetLastAmplitude(amplitude)
	v.TickADSR()

	step := s.Regs.Voices[i].SampleRate
	if i > 0 && s.Regs.PitchModulationEnable&(1<<uint(i)) != 0 {
		prev := s.Voices[i-1].LastAmplitude()
		if prev < -0x8000 {
			prev = -0x8000
		} else if prev > 0x7FFF {
			prev = 0x7FFF
		}
		factor := uint32(prev + 0x8000)
		step = uint16((uint32(step) * factor) >> 15)
	}
	if step > 0x4000 {
		step = 0x4000
	}

	if v.AdvanceCounter(step) {
		v.SetHasSamples(false)
		v.CurrentAddress += 2
		flags := v.BlockFlags()
		if flags.LoopEnd {
			if !flags.LoopRepeat {
				s.endxRegister |= 1 << uint(i)
				v.SetADSRVolume(0)
				v.SetADSRPhase(envelope.PhaseOff)
			} else {
				v.CurrentAddress = v.RepeatAddress
			}
		}
	}

	left = voice.ApplyVolume(int16(amplitude), v.LeftVolume.Current)
	right = voice.ApplyVolume(int16(amplitude), v.RightVolume.Current)
	v.LeftVolume.Tick()
	v.RightVolume.Tick()
	return left, right
}

// Tick produces exactly one stereo output frame, matching one iteration of
// SPU::Execute's per-frame loop body.
func (s *SPU) Tick() (left, right int16) {
	var leftSum, rightSum int32
	var reverbInLeft, reverbInRight int32

	if s.Regs.Control.Enable() {
		reverbOn := s.Regs.ReverbOnRegister
		for i := 0; i < NumVoices; i++ {
			l, r := s.sampleVoice(i)
			leftSum += l
			rightSum += r
			if reverbOn&1 != 0 {
				reverbInLeft += l
				reverbInRight += r
			}
			reverbOn >>= 1
		}
		if !s.Regs.Control.MuteN() {
			leftSum, rightSum = 0, 0
		}
	}

	var cdLeft, cdRight int16
	if !s.CDAudio.IsEmpty() {
		cdLeft = s.CDAudio.Pop()
		cdRight = s.CDAudio.Pop()
		if s.Regs.Control.CDAudioEnable() {
			cl := applyVolume(int32(cdLeft), int32(s.Regs.CDAudioVolumeLeft))
			cr := applyVolume(int32(cdRight), int32(s.Regs.CDAudioVolumeRight))
			leftSum += cl
			rightSum += cr
			if s.Regs.Control.CDAudioReverb() {
				reverbInLeft += cl
				reverbInRight += cr
			}
		}
	}

	s.tickCounter++
	if s.tickCounter&1 != 0 {
		s.reverbLeftInput = clamp16(reverbInLeft)
	} else {
		s.reverbRightInput = clamp16(reverbInRight)
		ram := ramAdapter{s.RAM}
		s.Reverb.Tick(ram, s.reverbLeftInput, s.reverbRightInput)
		s.RAM.CheckIRQ(s.Reverb.CurrentAddress)
	}

	leftSum += int32(s.Reverb.LeftOutput)
	rightSum += int32(s.Reverb.RightOutput)

	out := [2]int16{
		clamp16(applyVolume(leftSum, int32(s.MainVolumeLeft.Current))),
		clamp16(applyVolume(rightSum, int32(s.MainVolumeRight.Current))),
	}
	s.MainVolumeLeft.Tick()
	s.MainVolumeRight.Tick()

	ram := ramAdapter{s.RAM}
	s.Capture.Write(ram, 0, cdLeft)
	s.Capture.Write(ram, 1, cdRight)
	s.Capture.Write(ram, 2, clamp16(s.Voices[1].LastAmplitude()))
	s.Capture.Write(ram, 3, clamp16(s.Voices[3].LastAmplitude()))
	s.Capture.Advance()
	s.Regs.Status.SetSecondHalfCapture(s.Capture.SecondHalf())

	for i := range s.keyOnOffDelay {
		if s.keyOnOffDelay[i] > 0 {
			s.keyOnOffDelay[i]--
		}
	}

	if s.Dump != nil {
		s.Dump.WriteFrames([][2]int16{out})
	}

	return out[0], out[1]
}
