package spu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nitrospu/internal/irq"
)

func enableSPU(s *SPU) {
	s.WriteRegister(0x1AA, 0x8000|0x4000) // Enable | MuteN
}

func TestNewIsSilent(t *testing.T) {
	s := New()
	left, right := s.Tick()
	assert.Zero(t, left)
	assert.Zero(t, right)
}

func TestResetZeroesEndX(t *testing.T) {
	s := New()
	s.endxRegister = 0xFFFFFF
	s.Reset()
	assert.Zero(t, s.EndX())
}

func TestResetReseedsReverbBaseFromDefault(t *testing.T) {
	s := New()
	s.Reset()
	assert.Equal(t, uint16(0xE128), s.Regs.ReverbBase)
	assert.Equal(t, uint32(0xE128)*8, s.Reverb.CurrentAddress)
}

func TestKeyOnProducesNonZeroOutputEventually(t *testing.T) {
	s := New()
	s.Reset()
	enableSPU(s)

	// fast attack, sustain loud, full volume both channels, full pitch step.
	s.WriteRegister(0x0008, 0x7F00) // ADSRLow: attack rate max
	s.WriteRegister(0x0000, 0x7FFF) // VolumeLeft fixed max
	s.WriteRegister(0x0002, 0x7FFF) // VolumeRight fixed max
	s.WriteRegister(0x0004, 0x3FFF) // SampleRate
	s.WriteRegister(0x180, 0x7FFF) // MainVolumeLeft fixed max
	s.WriteRegister(0x182, 0x7FFF) // MainVolumeRight fixed max
	s.WriteRegister(0x0006, 0x0000) // StartAddress

	// put a non-silent ADPCM block at RAM address 0: shift 0, filter 0, one
	// loud positive nibble.
	s.RAM.WriteByte(0, 0x00)
	s.RAM.WriteByte(1, 0x00)
	s.RAM.WriteByte(2, 0x07)

	s.WriteRegister(0x188, 0x0001) // key-on voice 0

	var sawNonZero bool
	for i := 0; i < 64; i++ {
		l, r := s.Tick()
		if l != 0 || r != 0 {
			sawNonZero = true
			break
		}
	}
	assert.True(t, sawNonZero, "voice 0 produced only silence after key-on")
}

func TestKeyOnDebounceDropsImmediateRepeat(t *testing.T) {
	// regression guard for the fixed key-on/off debounce bug: a second
	// key-on for the same voice within MinKeyOnOffTicks must be dropped by
	// the mixer's own counter, and must NOT permanently wedge the voice —
	// a later key-on past the debounce window must succeed.
	s := New()
	s.Reset()
	enableSPU(s)

	s.WriteRegister(0x0006, 0x0010) // StartAddress = 0x10
	s.WriteRegister(0x188, 0x0001) // key-on voice 0
	require.Equal(t, uint16(0x10), s.Regs.Voices[0].StartAddress)
	require.True(t, s.Voices[0].IsOn())

	s.WriteRegister(0x0006, 0x0020) // change start address
	s.WriteRegister(0x188, 0x0001) // immediate second key-on: must be debounced
	assert.Equal(t, uint16(0x10), s.Voices[0].CurrentAddress, "debounced key-on must not move CurrentAddress")

	for i := 0; i < MinKeyOnOffTicks+1; i++ {
		s.Tick()
	}

	s.WriteRegister(0x188, 0x0001) // key-on past the debounce window
	assert.Equal(t, uint16(0x20), s.Voices[0].CurrentAddress, "key-on after the debounce window elapsed must succeed")
}

func TestKeyOffTransitionsVoiceTowardSilence(t *testing.T) {
	s := New()
	s.Reset()
	enableSPU(s)

	s.WriteRegister(0x0008, 0x7F00)
	s.WriteRegister(0x188, 0x0001)
	require.True(t, s.Voices[0].IsOn())

	for i := 0; i < MinKeyOnOffTicks; i++ {
		s.Tick() // let the key-on debounce window elapse so key-off is accepted
	}

	s.WriteRegister(0x18C, 0x0001) // key-off voice 0 (the aliased register)
	assert.True(t, s.Voices[0].IsOn(), "key-off transitions to release, not immediately off")
}

func TestRAMIRQFiresOnAddressMatch(t *testing.T) {
	s := New()
	s.Reset()
	line := &irq.CountingLine{}
	s.IRQLine = line

	s.WriteRegister(0x1A4, 0x0010) // IRQAddress, in 8-byte units
	s.WriteRegister(0x1AA, 0x0040) // IRQ9Enable

	s.RAM.WriteWordChecked(0x80, 0x1234) // 0x10*8 = 0x80

	assert.Equal(t, 1, line.Count)
}

func TestRAMIRQDoesNotFireWhenDisabled(t *testing.T) {
	s := New()
	s.Reset()
	line := &irq.CountingLine{}
	s.IRQLine = line

	s.WriteRegister(0x1A4, 0x0010)
	// IRQ9Enable left clear.
	s.RAM.WriteWordChecked(0x80, 0x1234)

	assert.Zero(t, line.Count)
}

func TestControlWriteClearingIRQ9DisablesClearsFlag(t *testing.T) {
	s := New()
	s.Reset()
	s.Regs.Status.SetIRQFlag(true)
	s.WriteRegister(0x1AA, 0) // IRQ9Enable clear
	assert.False(t, s.Regs.Status.IRQFlag())
}

func TestSnapshotRestoreRoundTripsTick(t *testing.T) {
	s := New()
	s.Reset()
	enableSPU(s)
	s.WriteRegister(0x0008, 0x7F00)
	s.WriteRegister(0x188, 0x0001)
	s.Tick()
	s.Tick()

	snap := s.Snapshot()

	restored := New()
	restored.Restore(snap)

	assert.Equal(t, s.EndX(), restored.EndX())
	assert.Equal(t, s.Voices[0].CurrentAddress, restored.Voices[0].CurrentAddress)
	assert.Equal(t, s.Voices[0].AdsrVolume(), restored.Voices[0].AdsrVolume())

	l1, r1 := s.Tick()
	l2, r2 := restored.Tick()
	assert.Equal(t, l1, l2, "restored SPU diverged from the original after one more tick")
	assert.Equal(t, r1, r2)
}

func TestCDAudioMixInRequiresEnableBit(t *testing.T) {
	s := New()
	s.Reset()
	enableSPU(s)
	s.WriteRegister(0x1B0, 0x7FFF)
	s.WriteRegister(0x1B2, 0x7FFF)
	s.WriteRegister(0x180, 0x7FFF)
	s.WriteRegister(0x182, 0x7FFF)
	s.CDAudio.PushFrame(0x1000, -0x1000)

	// CDAudioEnable bit (0x0001) left clear: CD audio must be drained from
	// the FIFO (so it cannot stall) but not mixed into the output.
	l, r := s.Tick()
	assert.Zero(t, l)
	assert.Zero(t, r)
	assert.True(t, s.CDAudio.IsEmpty())
}

func TestCDAudioMixInWhenEnabled(t *testing.T) {
	s := New()
	s.Reset()
	enableSPU(s)
	s.WriteRegister(0x1B0, 0x7FFF)
	s.WriteRegister(0x1B2, 0x7FFF)
	s.WriteRegister(0x180, 0x3FFF)
	s.WriteRegister(0x182, 0x3FFF)
	s.WriteRegister(0x1AA, 0x8000|0x4000|0x0001) // Enable | MuteN | CDAudioEnable
	s.CDAudio.PushFrame(0x1000, -0x1000)

	l, r := s.Tick()
	assert.NotZero(t, l)
	assert.NotZero(t, r)
}

func TestCaptureSecondHalfStatusBitAdvances(t *testing.T) {
	s := New()
	s.Reset()
	enableSPU(s)

	for i := 0; i < 300 && s.Regs.Status.Bits&0x800 == 0; i++ {
		s.Tick()
	}
	assert.NotZero(t, s.Regs.Status.Bits&0x800, "second-half capture status bit never set across 300 ticks")
}

func TestSilentADSRProducesZeroFrames(t *testing.T) {
	// no voice keyed on: every tick must produce (0,0) regardless of how
	// many ticks elapse.
	s := New()
	s.Reset()
	enableSPU(s)

	for i := 0; i < 1000; i++ {
		l, r := s.Tick()
		if l != 0 || r != 0 {
			t.Fatalf("tick %d produced (%d,%d), want (0,0)", i, l, r)
		}
	}
}

func TestLoopRepeatReturnsToRepeatAddress(t *testing.T) {
	s := New()
	s.Reset()
	enableSPU(s)

	s.WriteRegister(0x0008, 0x7F00) // ADSRLow: attack rate 0x7F (slowest), so the voice stays in attack
	s.WriteRegister(0x0004, 0x1000) // SampleRate: one sample per tick, one block every 28 ticks
	s.WriteRegister(0x0006, 0x0000) // StartAddress = 0
	s.WriteRegister(0x000E, 0x0040) // RepeatAddress = 0x200 in bytes (0x40 in 8-byte units)

	// loop_end=1, loop_repeat=1 in the block header's flag byte.
	s.RAM.WriteByte(0, 0x00)
	s.RAM.WriteByte(1, 0x03)
	s.RAM.WriteByte(2, 0x07)

	s.WriteRegister(0x188, 0x0001) // key-on voice 0

	for i := 0; i < 40; i++ {
		s.Tick()
	}

	assert.True(t, s.Voices[0].IsOn(), "voice must remain On after a repeating loop end")
	assert.Equal(t, uint16(0x0040), s.Voices[0].CurrentAddress, "CurrentAddress must jump to RepeatAddress on a repeating loop end")
}

func TestEndXSetOnNonRepeatingLoopEnd(t *testing.T) {
	s := New()
	s.Reset()
	enableSPU(s)
	s.WriteRegister(0x0008, 0x7F00)
	s.WriteRegister(0x0004, 0x3FFF) // fast pitch to reach the block end quickly
	s.WriteRegister(0x188, 0x0001)

	// mark the single loaded block as loop-end, non-repeat.
	s.RAM.WriteByte(1, 0x01)

	var sawEndX bool
	for i := 0; i < 256; i++ {
		s.Tick()
		if s.EndX()&1 != 0 {
			sawEndX = true
			break
		}
	}
	assert.True(t, sawEndX, "ENDX bit never latched for a non-repeating loop end")
}
