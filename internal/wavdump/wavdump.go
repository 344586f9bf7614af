// Package wavdump writes a canonical PCM WAV file from a stream of stereo
// s16 frames, used as the optional debugging dump path named in §6. No
// WAV-encoding library appears anywhere in the retrieval pack's dependency
// surface, so this one component is built directly on encoding/binary + os
// (see DESIGN.md for the standard-library justification this process
// otherwise requires).
package wavdump

import (
	"encoding/binary"
	"fmt"
	"os"
)

const (
	headerSize  = 44
	bitsPerSamp = 16
)

// Writer emits a single-file PCM WAV stream. The RIFF/data chunk sizes in
// the header are placeholders until Close, when they are patched in place
// (the total frame count isn't known up front).
type Writer struct {
	f             *os.File
	sampleRate    uint32
	channels      uint16
	bytesWritten  uint32
}

// Open creates (truncating) the file at path and writes a placeholder
// 44-byte canonical header, ready for WriteFrames.
func (w *Writer) Open(path string, sampleRate uint32, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wavdump: open %s: %w", path, err)
	}
	w.f = f
	w.sampleRate = sampleRate
	w.channels = uint16(channels)
	if err := w.writeHeader(0); err != nil {
		f.Close()
		return err
	}
	return nil
}

func (w *Writer) writeHeader(dataBytes uint32) error {
	byteRate := w.sampleRate * uint32(w.channels) * (bitsPerSamp / 8)
	blockAlign := w.channels * (bitsPerSamp / 8)

	var h [headerSize]byte
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], 36+dataBytes)
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(h[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(h[22:24], w.channels)
	binary.LittleEndian.PutUint32(h[24:28], w.sampleRate)
	binary.LittleEndian.PutUint32(h[28:32], byteRate)
	binary.LittleEndian.PutUint16(h[32:34], blockAlign)
	binary.LittleEndian.PutUint16(h[34:36], bitsPerSamp)
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], dataBytes)

	if _, err := w.f.WriteAt(h[:], 0); err != nil {
		return fmt.Errorf("wavdump: write header: %w", err)
	}
	return nil
}

// WriteFrames appends interleaved s16 samples (frame-major, channels
// per frame) to the stream.
func (w *Writer) WriteFrames(samples []int16) error {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:i*2+2], uint16(s))
	}
	n, err := w.f.WriteAt(buf, int64(headerSize+w.bytesWritten))
	w.bytesWritten += uint32(n)
	if err != nil {
		return fmt.Errorf("wavdump: write frames: %w", err)
	}
	return nil
}

// Close patches the RIFF/data chunk sizes with the final byte count and
// closes the file.
func (w *Writer) Close() error {
	if err := w.writeHeader(w.bytesWritten); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
