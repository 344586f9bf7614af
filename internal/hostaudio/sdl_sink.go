package hostaudio

import (
	"encoding/binary"
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
)

// SDLSink wraps an SDL2 audio device opened for 16-bit stereo output. It
// drains an internal RingSink from a background goroutine and queues the
// drained frames with sdl.QueueAudio, the one cross-thread boundary the
// core's concurrency model allows.
type SDLSink struct {
	dev   sdl.AudioDeviceID
	ring  *RingSink
	quit  chan struct{}
	scratch [][2]int16
}

// OpenSDLSink initializes SDL audio (if not already initialized) and opens a
// device at the given sample rate, buffering bufferFrames stereo frames
// before backpressure kicks in.
func OpenSDLSink(sampleRate uint32, bufferFrames int) (*SDLSink, error) {
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("hostaudio: sdl.InitSubSystem: %w", err)
	}

	spec := sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   sdl.AUDIO_S16SYS,
		Channels: 2,
		Samples:  uint16(bufferFrames / 4),
	}
	dev, err := sdl.OpenAudioDevice("", false, &spec, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("hostaudio: sdl.OpenAudioDevice: %w", err)
	}
	sdl.PauseAudioDevice(dev, false)

	s := &SDLSink{
		dev:     dev,
		ring:    NewRingSink(bufferFrames),
		quit:    make(chan struct{}),
		scratch: make([][2]int16, 256),
	}
	go s.drain()
	return s, nil
}

func (s *SDLSink) drain() {
	for {
		select {
		case <-s.quit:
			return
		default:
		}
		n := s.ring.Read(s.scratch)
		if n == 0 {
			// only possible once the ring has been closed and drained.
			return
		}
		buf := make([]byte, 0, n*4)
		for i := 0; i < n; i++ {
			var frame [4]byte
			binary.LittleEndian.PutUint16(frame[0:2], uint16(s.scratch[i][0]))
			binary.LittleEndian.PutUint16(frame[2:4], uint16(s.scratch[i][1]))
			buf = append(buf, frame[:]...)
		}
		if len(buf) > 0 {
			_ = sdl.QueueAudio(s.dev, buf)
		}
	}
}

func (s *SDLSink) BeginWrite() int       { return s.ring.BeginWrite() }
func (s *SDLSink) Write(l, r int16)      { s.ring.Write(l, r) }
func (s *SDLSink) EndWrite()             { s.ring.EndWrite() }
func (s *SDLSink) BufferSizeFrames() int { return s.ring.BufferSizeFrames() }

// EmptyBuffers discards both the internal ring and whatever SDL has already
// queued on the device.
func (s *SDLSink) EmptyBuffers() {
	s.ring.EmptyBuffers()
	sdl.ClearQueuedAudio(s.dev)
}

// Close stops the drain goroutine and releases the SDL audio device. The
// ring must be closed (not just emptied) so a goroutine parked in
// ring.Read's notEmpty.Wait wakes up and observes shutdown instead of
// blocking forever once the ring has gone quiet.
func (s *SDLSink) Close() {
	close(s.quit)
	s.ring.Close()
	sdl.CloseAudioDevice(s.dev)
}
