// Package irq defines the narrow interrupt-line contract the SPU core uses
// to signal its host system, keeping internal/spu decoupled from any
// specific interrupt controller implementation.
package irq

// Line is a single edge-triggered interrupt request line. Pulse is called
// once each time the SPU's RAM-address IRQ condition newly latches (the
// SPU itself only ever raises, never clears, its own status flag; clearing
// happens via a control-register write handled in internal/regs).
type Line interface {
	Pulse()
}

// NullLine discards every pulse; useful for headless unit tests that do not
// care about interrupt delivery.
type NullLine struct{}

// Pulse implements Line.
func (NullLine) Pulse() {}

// CountingLine records how many pulses it has received, for tests that do
// care.
type CountingLine struct {
	Count int
}

// Pulse implements Line.
func (c *CountingLine) Pulse() {
	c.Count++
}
