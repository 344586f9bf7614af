package capture

import "testing"

type fakeRAM struct {
	writes []struct {
		address uint32
		value   uint16
	}
}

func (r *fakeRAM) WriteWordChecked(address uint32, value uint16) {
	r.writes = append(r.writes, struct {
		address uint32
		value   uint16
	}{address, value})
}

func TestWriterStartsAtFirstHalf(t *testing.T) {
	var w Writer
	if w.SecondHalf() {
		t.Error("SecondHalf() = true for a freshly reset writer")
	}
}

func TestAdvanceCrossesIntoSecondHalf(t *testing.T) {
	var w Writer
	for i := 0; i < SizePerChannel/2/2; i++ {
		w.Advance()
	}
	if !w.SecondHalf() {
		t.Errorf("SecondHalf() = false at position %d, want true (>= %d)", w.Position(), SizePerChannel/2)
	}
}

func TestAdvanceWrapsAtBufferEnd(t *testing.T) {
	var w Writer
	for i := 0; i < SizePerChannel/2; i++ {
		w.Advance()
	}
	if w.Position() != 0 {
		t.Errorf("Position() = %d after a full buffer of advances, want wrap to 0", w.Position())
	}
}

func TestWriteAddressesEachChannelsOwnWindow(t *testing.T) {
	ram := &fakeRAM{}
	var w Writer
	w.Write(ram, 2, -0x5433) // bit pattern 0xABCD
	want := uint32(2) * SizePerChannel
	if ram.writes[0].address != want {
		t.Errorf("Write to channel 2 used address %#x, want %#x", ram.writes[0].address, want)
	}
	if ram.writes[0].value != 0xABCD {
		t.Errorf("Write value = %#x, want %#x", ram.writes[0].value, 0xABCD)
	}
}

func TestResetReturnsToStart(t *testing.T) {
	var w Writer
	for i := 0; i < 50; i++ {
		w.Advance()
	}
	w.Reset()
	if w.Position() != 0 {
		t.Errorf("Position() = %d after Reset, want 0", w.Position())
	}
}

func TestSnapshotRestoreRoundTrips(t *testing.T) {
	var w Writer
	for i := 0; i < 10; i++ {
		w.Advance()
	}
	snap := w.Snapshot()

	var restored Writer
	restored.Restore(snap)
	if restored.Position() != w.Position() {
		t.Errorf("Position() = %d, want %d", restored.Position(), w.Position())
	}
}
