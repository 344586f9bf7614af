// Package voice implements a single SPU ADPCM voice: ADPCM block
// streaming, 4-point gaussian interpolation, ADSR envelope progression,
// pitch modulation and loop handling.
//
// Grounded bit-exactly on Voice::SampleVoice / Voice::DecodeBlock /
// Voice::Interpolate / Voice::TickADSR / Voice::KeyOn / Voice::KeyOff in the
// retrieved duckstation spu.cpp, restructured into the teacher's
// one-struct-per-hardware-unit style (see internal/apu.Channel in the
// teacher repo for the precedent of a per-unit struct driven by a shared
// tick call).
package voice

import (
	"nitrospu/internal/adpcm"
	"nitrospu/internal/envelope"
)

// SamplesPerBlock mirrors adpcm.SamplesPerBlock for callers that only
// import voice.
const SamplesPerBlock = adpcm.SamplesPerBlock

// MinKeyOnOffTicks is the minimum number of ticks that must elapse between
// accepted key-on/key-off register writes for the same voice, matching the
// console's debounce window.
const MinKeyOnOffTicks = 2

// ADSRConfig is the static (game-written) envelope configuration latched
// into the ADSR register pair.
type ADSRConfig struct {
	SustainLevel uint8 // 4-bit field, table value = (SustainLevel+1)*0x800

	AttackRate        uint8
	AttackExponential bool

	DecayRateShr2 uint8 // already shr2; table rate = DecayRateShr2<<2

	SustainRate              uint8
	SustainDirectionDecrease bool
	SustainExponential       bool

	ReleaseRateShr2     uint8
	ReleaseExponential  bool
}

// ChannelVolume is a per-side (left/right) volume sweep register pair, used
// both for a voice's own stereo volume and, generalized, by the mixer's
// main volume registers.
type ChannelVolume = envelope.Sweep

// Block is the raw 16-byte ADPCM block a RAM fetcher hands to DecodeBlock.
type Block = adpcm.Block

// Voice is one of the SPU's 24 independent ADPCM channels.
type Voice struct {
	Config ADSRConfig

	CurrentAddress uint16 // in 8-byte units, per the console's addressing
	RepeatAddress  uint16

	LeftVolume  ChannelVolume
	RightVolume ChannelVolume

	adsrEnvelope envelope.Envelope
	adsrPhase    envelope.Phase
	adsrTarget   int16
	adsrVolume   int16

	hist         adpcm.History
	blockSamples [SamplesPerBlock]int16
	blockFlags   adpcm.Flags
	hasSamples   bool

	counter uint32 // bits 0-3 subprecision, 4-11 interpolation index, 12-16 sample index

	lastAmplitude int32

	// caller-owned flag; the internal/spu mixer does not set it and latches
	// ENDX in its own register instead (see SPU.EndX).
	EndXThisTick bool
}

// New returns a voice in its post-reset (off) state.
func New() *Voice {
	v := &Voice{}
	v.SetADSRPhase(envelope.PhaseOff)
	return v
}

// Reset returns the voice to its post-reset state, matching SPU::Reset's
// per-voice field clears.
func (v *Voice) Reset() {
	*v = Voice{}
	v.SetADSRPhase(envelope.PhaseOff)
}

// IsOn reports whether the voice is currently producing sound (ADSR phase
// other than Off).
func (v *Voice) IsOn() bool {
	return v.adsrPhase != envelope.PhaseOff
}

// AdsrVolume returns the current envelope level, used by ENDX/debug export
// and by the mixer to apply the voice's own amplitude.
func (v *Voice) AdsrVolume() int16 {
	return v.adsrVolume
}

// SetADSRVolume overwrites the envelope level directly, used both by a
// direct register write to the ADSR volume register and by the mixer when
// a non-repeating loop end silences the voice.
func (v *Voice) SetADSRVolume(level int16) {
	v.adsrVolume = level
}

// KeyOn starts the voice from its ADPCM start address. The debounce window
// between accepted key-on/key-off writes is enforced by the caller (the
// mixer tracks one delay counter per voice, shared across on and off).
func (v *Voice) KeyOn(startAddress uint16) {
	v.CurrentAddress = startAddress
	v.adsrVolume = 0
	v.hasSamples = false
	v.counter = 0
	v.SetADSRPhase(envelope.PhaseAttack)
}

// KeyOff releases the voice, unless it is already off or releasing.
func (v *Voice) KeyOff() {
	if v.adsrPhase == envelope.PhaseOff || v.adsrPhase == envelope.PhaseRelease {
		return
	}
	v.SetADSRPhase(envelope.PhaseRelease)
}

// SetADSRPhase transitions to a new phase, reloading the target level and
// the rate-table envelope exactly as Voice::SetADSRPhase does.
func (v *Voice) SetADSRPhase(phase envelope.Phase) {
	v.adsrPhase = phase
	switch phase {
	case envelope.PhaseOff:
		v.adsrTarget = 0
		v.adsrEnvelope.Reset(0, false, false)
	case envelope.PhaseAttack:
		v.adsrTarget = envelope.MaxVolume
		v.adsrEnvelope.Reset(v.Config.AttackRate, false, v.Config.AttackExponential)
	case envelope.PhaseDecay:
		target := (int32(v.Config.SustainLevel) + 1) * 0x800
		if target > envelope.MaxVolume {
			target = envelope.MaxVolume
		}
		v.adsrTarget = int16(target)
		v.adsrEnvelope.Reset(v.Config.DecayRateShr2<<2, true, true)
	case envelope.PhaseSustain:
		v.adsrTarget = 0
		v.adsrEnvelope.Reset(v.Config.SustainRate, v.Config.SustainDirectionDecrease, v.Config.SustainExponential)
	case envelope.PhaseRelease:
		v.adsrTarget = 0
		v.adsrEnvelope.Reset(v.Config.ReleaseRateShr2<<2, true, v.Config.ReleaseExponential)
	}
}

// TickADSR advances the envelope by one tick and transitions phase once the
// target level is reached (sustain never auto-transitions; only key-off
// moves it to release from outside this call).
func (v *Voice) TickADSR() {
	v.adsrVolume = v.adsrEnvelope.Tick(v.adsrVolume)
	if v.adsrPhase == envelope.PhaseSustain {
		return
	}
	reached := false
	if v.adsrEnvelope.Decreasing {
		reached = v.adsrVolume <= v.adsrTarget
	} else {
		reached = v.adsrVolume >= v.adsrTarget
	}
	if reached {
		v.SetADSRPhase(envelope.Next(v.adsrPhase))
	}
}

// DecodeBlock decodes a freshly fetched ADPCM block into the voice's sample
// window, snapshotting the outgoing block's tail for interpolation
// lookback.
func (v *Voice) DecodeBlock(block Block) {
	v.hist.SnapshotTail(v.blockSamples)
	v.blockSamples = adpcm.Decode(block, &v.hist)
	v.blockFlags = block.Flags()
}

func (v *Voice) sampleAt(index int32) int16 {
	if index < 0 {
		return v.hist.PrevTail[index+3]
	}
	return v.blockSamples[index]
}

// Interpolate returns the gaussian-filtered output sample at the voice's
// current fractional position.
func (v *Voice) Interpolate() int16 {
	i := int32((v.counter >> 4) & 0xFF)
	s := int32((v.counter >> 12) & 0x1F)

	out := int16(int32(gauss[0x0FF-i]) * int32(v.sampleAt(s-3)) >> 15)
	out += int16(int32(gauss[0x1FF-i]) * int32(v.sampleAt(s-2)) >> 15)
	out += int16(int32(gauss[0x100+i]) * int32(v.sampleAt(s-1)) >> 15)
	out += int16(int32(gauss[0x000+i]) * int32(v.sampleAt(s-0)) >> 15)
	return out
}

// BlockFlags exposes the currently decoded block's loop flags.
func (v *Voice) BlockFlags() adpcm.Flags {
	return v.blockFlags
}

// HasSamples reports whether a block is currently loaded (false right after
// a block boundary, until the caller fetches and calls DecodeBlock again).
func (v *Voice) HasSamples() bool {
	return v.hasSamples
}

// SetHasSamples is used by the mixer immediately after DecodeBlock and when
// crossing a block boundary.
func (v *Voice) SetHasSamples(v2 bool) {
	v.hasSamples = v2
}

// LastAmplitude returns the previous tick's post-ADSR, pre-channel-volume
// amplitude, the value neighboring voices read for pitch modulation.
func (v *Voice) LastAmplitude() int32 {
	return v.lastAmplitude
}

// SetLastAmplitude records this tick's amplitude for the next voice's pitch
// modulation lookup, and zeroes it when the voice is off.
func (v *Voice) SetLastAmplitude(a int32) {
	v.lastAmplitude = a
}

// AdvanceCounter adds a pitch step to the fractional counter and reports
// whether the sample index crossed into the next ADPCM block (index >= 28).
// On overflow the counter is wrapped in place. The caller advances
// CurrentAddress and reloads the block when overflowed.
func (v *Voice) AdvanceCounter(step uint16) (overflowed bool) {
	v.counter += uint32(step)
	sampleIndex := (v.counter >> 12) & 0x1F
	if sampleIndex >= SamplesPerBlock {
		v.counter -= uint32(SamplesPerBlock) << 12
		return true
	}
	return false
}

// State captures a Voice's full internal state, including fields the
// package keeps unexported (the envelope counter, ADPCM history, the
// currently decoded block), for save-state round-tripping.
type State struct {
	Config ADSRConfig

	CurrentAddress uint16
	RepeatAddress  uint16

	LeftVolume  envelope.SweepState
	RightVolume envelope.SweepState

	AdsrEnvelope envelope.State
	AdsrPhase    envelope.Phase
	AdsrTarget   int16
	AdsrVolume   int16

	Hist         adpcm.History
	BlockSamples [SamplesPerBlock]int16
	BlockFlags   adpcm.Flags
	HasSamples   bool

	Counter       uint32
	LastAmplitude int32
}

// Snapshot returns v's current state.
func (v *Voice) Snapshot() State {
	return State{
		Config:         v.Config,
		CurrentAddress: v.CurrentAddress,
		RepeatAddress:  v.RepeatAddress,
		LeftVolume:     v.LeftVolume.Snapshot(),
		RightVolume:    v.RightVolume.Snapshot(),
		AdsrEnvelope:   v.adsrEnvelope.Snapshot(),
		AdsrPhase:      v.adsrPhase,
		AdsrTarget:     v.adsrTarget,
		AdsrVolume:     v.adsrVolume,
		Hist:           v.hist,
		BlockSamples:   v.blockSamples,
		BlockFlags:     v.blockFlags,
		HasSamples:     v.hasSamples,
		Counter:        v.counter,
		LastAmplitude:  v.lastAmplitude,
	}
}

// Restore installs a previously captured state.
func (v *Voice) Restore(s State) {
	v.Config = s.Config
	v.CurrentAddress = s.CurrentAddress
	v.RepeatAddress = s.RepeatAddress
	v.LeftVolume.Restore(s.LeftVolume)
	v.RightVolume.Restore(s.RightVolume)
	v.adsrEnvelope.Restore(s.AdsrEnvelope)
	v.adsrPhase = s.AdsrPhase
	v.adsrTarget = s.AdsrTarget
	v.adsrVolume = s.AdsrVolume
	v.hist = s.Hist
	v.blockSamples = s.BlockSamples
	v.blockFlags = s.BlockFlags
	v.hasSamples = s.HasSamples
	v.counter = s.Counter
	v.lastAmplitude = s.LastAmplitude
}

// ApplyVolume scales a sample by a Q15-ish envelope/volume level, matching
// the console's (sample * volume) >> 15 ungated multiply.
func ApplyVolume(sample int16, volume int16) int32 {
	return (int32(sample) * int32(volume)) >> 15
}
