// Package hostaudio defines the SPU core's output boundary: the narrow Sink
// interface the mixer drains frames into, an in-process ring used by tests
// and as a fallback, and an SDL2-backed sink for real playback.
//
// Grounded on the teacher's SDL2 audio-queue glue (internal/ui/fyne_ui.go:
// sdl.Init(sdl.INIT_AUDIO), sdl.OpenAudioDevice, sdl.QueueAudio,
// sdl.GetQueuedAudioSize, sdl.ClearQueuedAudio), restructured behind an
// interface so internal/spu never imports SDL directly.
package hostaudio

import "sync"

// Sink is the host collaborator the SPU core writes its mixed output frames
// into, once per Tick. The core never constructs a Sink itself (§7 of the
// specification); callers choose and wire one.
type Sink interface {
	// BeginWrite returns the number of frames the caller may write before
	// the sink's buffer would overflow, blocking if necessary to apply
	// backpressure (the one blocking point the core's tick loop accepts).
	BeginWrite() (frames int)
	Write(l, r int16)
	EndWrite()
	BufferSizeFrames() int
	EmptyBuffers()
}

// NullSink discards every frame; used when no audio device is available.
type NullSink struct{}

func (NullSink) BeginWrite() int       { return 1 << 30 }
func (NullSink) Write(l, r int16)      {}
func (NullSink) EndWrite()             {}
func (NullSink) BufferSizeFrames() int { return 0 }
func (NullSink) EmptyBuffers()         {}

// RingSink is a single-producer/single-consumer ring of stereo frames,
// mutex-and-condition-variable backed rather than lock-free, matching the
// single-threaded-producer framing the rest of the core assumes (only the
// consumer side may run on another goroutine, as SDLSink's drain loop does).
type RingSink struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	buf       [][2]int16
	readPos   int
	writePos  int
	count     int
	reserved  int // frames granted by BeginWrite, not yet Write()+EndWrite()-committed
	closed    bool
}

// NewRingSink returns a ring sized to hold capacityFrames stereo frames.
func NewRingSink(capacityFrames int) *RingSink {
	if capacityFrames < 1 {
		capacityFrames = 1
	}
	r := &RingSink{buf: make([][2]int16, capacityFrames)}
	r.notEmpty = sync.NewCond(&r.mu)
	r.notFull = sync.NewCond(&r.mu)
	return r
}

// BeginWrite blocks until at least one frame of space is free, then returns
// the number of free frames currently available to Write (free space in
// the ring, which may wrap past its end).
func (r *RingSink) BeginWrite() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.count >= len(r.buf) && !r.closed {
		r.notFull.Wait()
	}
	r.reserved = len(r.buf) - r.count
	return r.reserved
}

// Write appends one frame; the caller must not call Write more times than
// the frame count BeginWrite returned.
func (r *RingSink) Write(l, r16 int16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.writePos] = [2]int16{l, r16}
	r.writePos = (r.writePos + 1) % len(r.buf)
	r.count++
	r.notEmpty.Signal()
}

// EndWrite is a no-op placeholder for symmetry with BeginWrite; the ring
// commits each frame as it is written.
func (r *RingSink) EndWrite() {}

// BufferSizeFrames returns the ring's total capacity.
func (r *RingSink) BufferSizeFrames() int {
	return len(r.buf)
}

// EmptyBuffers discards all queued frames.
func (r *RingSink) EmptyBuffers() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readPos, r.writePos, r.count = 0, 0, 0
	r.notFull.Broadcast()
}

// Read removes up to len(out) frames, blocking until at least one is
// available or the ring is closed. It returns the number of frames read,
// which is 0 only once Close has been called and the ring has drained.
func (r *RingSink) Read(out [][2]int16) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.count == 0 && !r.closed {
		r.notEmpty.Wait()
	}
	n := 0
	for n < len(out) && r.count > 0 {
		out[n] = r.buf[r.readPos]
		r.readPos = (r.readPos + 1) % len(r.buf)
		r.count--
		n++
	}
	r.notFull.Signal()
	return n
}

// Close marks the ring shut down and wakes any goroutine parked in Read or
// BeginWrite so it can observe the closed state instead of blocking forever.
// Safe to call more than once.
func (r *RingSink) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.notEmpty.Broadcast()
	r.notFull.Broadcast()
}
