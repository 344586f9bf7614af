// Package clock drives the SPU core one output sample at a time, the glue
// between internal/spu's single Tick call and a host audio sink, restructured
// from the teacher's MasterClock (internal/clock.MasterClock, a cycle
// scheduler coordinating CPU/PPU/APU step functions against a shared
// cycle counter) into a scheduler for a single device that produces one
// stereo frame per call instead of three devices on independent cycle
// ratios.
package clock

import "nitrospu/internal/hostaudio"

// Device is the subset of internal/spu.SPU the scheduler drives: one tick
// call producing one stereo output frame.
type Device interface {
	Tick() (left, right int16)
}

// Scheduler repeatedly ticks a Device and forwards each frame to a Sink,
// counting the total number of frames produced since the last Reset.
type Scheduler struct {
	Device Device
	Sink   hostaudio.Sink

	frameCount uint64
}

// NewScheduler returns a scheduler driving device into sink.
func NewScheduler(device Device, sink hostaudio.Sink) *Scheduler {
	return &Scheduler{Device: device, Sink: sink}
}

// RunFrames ticks the device count times, writing every produced frame to
// the sink. It blocks inside Sink.BeginWrite whenever the sink applies
// backpressure — the single blocking point the core's concurrency model
// allows (§5).
func (s *Scheduler) RunFrames(count int) {
	remaining := count
	for remaining > 0 {
		avail := s.Sink.BeginWrite()
		if avail > remaining {
			avail = remaining
		}
		if avail <= 0 {
			avail = 1
		}
		for i := 0; i < avail; i++ {
			l, r := s.Device.Tick()
			s.Sink.Write(l, r)
		}
		s.Sink.EndWrite()
		s.frameCount += uint64(avail)
		remaining -= avail
	}
}

// FrameCount returns the total number of frames produced since the last
// Reset.
func (s *Scheduler) FrameCount() uint64 {
	return s.frameCount
}

// Reset zeroes the scheduler's frame counter (the underlying Device is
// reset independently via its own Reset method).
func (s *Scheduler) Reset() {
	s.frameCount = 0
}
