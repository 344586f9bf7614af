// Package spuram implements the SPU's private 512 KiB working memory.
//
// It mirrors the addressing discipline of the teacher's internal/memory.Bus
// (bank + offset decomposition, wrap-on-overflow) but collapses it to the
// single flat, word-addressable region the SPU owns, with an IRQ hook for
// the console's RAM-address-match interrupt, run by CheckIRQ and the
// Checked accessors (plain byte/word accesses do not run it).
package spuram

const (
	// Size is the SPU's private RAM in bytes (512 KiB).
	Size = 512 * 1024
	// Mask wraps any byte address into the RAM.
	Mask = Size - 1
)

// IRQChecker is invoked by CheckIRQ (and so by ReadWordChecked and
// WriteWordChecked) with the (already wrapped) byte address that was touched.
type IRQChecker func(address uint32)

// RAM is the SPU's 512 KiB private memory.
type RAM struct {
	data      [Size]byte
	irqCheck  IRQChecker
}

// New creates a zeroed RAM with no IRQ checker installed.
func New() *RAM {
	return &RAM{}
}

// SetIRQChecker installs the callback that CheckIRQ invokes. A nil checker
// disables IRQ raising entirely.
func (r *RAM) SetIRQChecker(fn IRQChecker) {
	r.irqCheck = fn
}

// Reset zeroes the RAM contents. The IRQ checker is left installed.
func (r *RAM) Reset() {
	for i := range r.data {
		r.data[i] = 0
	}
}

// Bytes returns the RAM contents for save-state export; callers must not
// retain the slice across a subsequent write, since it aliases the live
// backing array.
func (r *RAM) Bytes() []byte {
	return r.data[:]
}

// RestoreBytes overwrites the RAM contents from a previously captured
// snapshot (as returned by Bytes). It copies min(len(data), Size) bytes and
// does not panic; a shorter slice leaves the remaining bytes unchanged.
func (r *RAM) RestoreBytes(data []byte) {
	copy(r.data[:], data)
}

// Wrap folds an arbitrary address into the RAM's address space.
func Wrap(address uint32) uint32 {
	return address & Mask
}

// ReadByte reads a single byte at the wrapped address. Reads never raise IRQs
// on their own; callers that need the IRQ check (transfer reads, reverb
// reads do not) call CheckIRQ explicitly.
func (r *RAM) ReadByte(address uint32) byte {
	return r.data[Wrap(address)]
}

// WriteByte writes a single byte at the wrapped address.
func (r *RAM) WriteByte(address uint32, value byte) {
	r.data[Wrap(address)] = value
}

// ReadWord reads a little-endian 16-bit value at the wrapped address.
func (r *RAM) ReadWord(address uint32) uint16 {
	a := Wrap(address)
	lo := uint16(r.data[a])
	hi := uint16(r.data[Wrap(a+1)])
	return lo | hi<<8
}

// WriteWord writes a little-endian 16-bit value at the wrapped address.
func (r *RAM) WriteWord(address uint32, value uint16) {
	a := Wrap(address)
	r.data[a] = byte(value)
	r.data[Wrap(a+1)] = byte(value >> 8)
}

// CheckIRQ evaluates the IRQ condition against the post-wrap address. Every
// code path that advances the transfer cursor or the reverb cursor must call
// this with the address it just touched.
func (r *RAM) CheckIRQ(address uint32) {
	if r.irqCheck != nil {
		r.irqCheck(Wrap(address))
	}
}

// ReadWordChecked reads a word and runs the IRQ check against its address,
// matching the console's transfer-read path.
func (r *RAM) ReadWordChecked(address uint32) uint16 {
	r.CheckIRQ(address)
	return r.ReadWord(address)
}

// WriteWordChecked writes a word and runs the IRQ check against its address.
func (r *RAM) WriteWordChecked(address uint32, value uint16) {
	r.WriteWord(address, value)
	r.CheckIRQ(address)
}

// Block16 reads a contiguous 16-byte block, wrapping around the end of RAM
// if necessary. Used for ADPCM block fetches.
func (r *RAM) Block16(address uint32) [16]byte {
	var block [16]byte
	start := Wrap(address)
	if start+16 <= Size {
		copy(block[:], r.data[start:start+16])
	} else {
		for i := 0; i < 16; i++ {
			block[i] = r.data[Wrap(start+uint32(i))]
		}
	}
	return block
}
