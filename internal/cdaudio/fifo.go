// Package cdaudio implements the bounded interleaved-stereo FIFO the SPU
// mixes CD audio frames from, including the backpressure behavior applied
// when the CD-ROM subsystem produces faster than the mixer drains.
//
// Grounded on SPU's m_cd_audio_buffer usage (SPU::Execute's CD-audio mix-in,
// SPU::EnsureCDAudioSpace) in the retrieved duckstation spu.cpp.
package cdaudio

// Capacity is the FIFO's size in interleaved s16 samples (left, right
// pairs), generously sized relative to one host audio callback's worth of
// frames.
const Capacity = 4096

// FIFO is a single-producer/single-consumer ring of interleaved stereo
// frames. It is not safe for concurrent use; the producer (CD-ROM/DMA glue)
// and the consumer (the mixer tick) run on the same thread as the rest of
// the SPU core per the package's concurrency model.
type FIFO struct {
	buf        [Capacity]int16
	readPos    int
	writePos   int
	count      int
}

// Reset empties the FIFO.
func (f *FIFO) Reset() {
	f.readPos, f.writePos, f.count = 0, 0, 0
}

// Space returns the number of int16 samples (not frames) free for writing.
func (f *FIFO) Space() int {
	return Capacity - f.count
}

// IsEmpty reports whether the FIFO holds no samples.
func (f *FIFO) IsEmpty() bool {
	return f.count == 0
}

// Push appends one interleaved sample. The caller must not push more
// samples than Space reports; EnsureSpace should be called first.
func (f *FIFO) Push(sample int16) {
	f.buf[f.writePos] = sample
	f.writePos = (f.writePos + 1) % Capacity
	f.count++
}

// Pop removes and returns the oldest sample. Callers must check IsEmpty
// first; popping an empty FIFO does not panic but returns a stale slot and
// leaves the count negative.
func (f *FIFO) Pop() int16 {
	v := f.buf[f.readPos]
	f.readPos = (f.readPos + 1) % Capacity
	f.count--
	return v
}

// Remove discards the given number of samples from the front of the FIFO,
// the drop-oldest behavior EnsureSpace uses to recover from overflow.
func (f *FIFO) Remove(n int) {
	if n > f.count {
		n = f.count
	}
	f.readPos = (f.readPos + n) % Capacity
	f.count -= n
}

// PushFrame appends one interleaved left/right frame, the external-interface
// shape callers outside this package use (§6 of the specification).
func (f *FIFO) PushFrame(l, r int16) {
	f.Push(l)
	f.Push(r)
}

// PopFrame removes and returns the oldest left/right frame. ok is false and
// the FIFO is left untouched when fewer than one full frame is queued.
func (f *FIFO) PopFrame() (l, r int16, ok bool) {
	if f.count < 2 {
		return 0, 0, false
	}
	return f.Pop(), f.Pop(), true
}

// State captures a FIFO's full contents for save-state round-tripping.
type State struct {
	Buf      [Capacity]int16
	ReadPos  int
	WritePos int
	Count    int
}

// Snapshot returns f's current state.
func (f *FIFO) Snapshot() State {
	return State{f.buf, f.readPos, f.writePos, f.count}
}

// Restore installs a previously captured state.
func (f *FIFO) Restore(s State) {
	f.buf, f.readPos, f.writePos, f.count = s.Buf, s.ReadPos, s.WritePos, s.Count
}

// EnsureSpace guarantees at least remainingFrames*2 samples of free space,
// dropping the oldest queued samples if the CD-ROM producer has gotten
// ahead of the mixer. onDrop, if non-nil, is called with the number of
// samples dropped for logging.
func (f *FIFO) EnsureSpace(remainingFrames int, onDrop func(dropped int)) {
	needed := remainingFrames * 2
	if f.Space() >= needed {
		return
	}
	toDrop := needed - f.Space()
	f.Remove(toDrop)
	if onDrop != nil {
		onDrop(toDrop)
	}
}
