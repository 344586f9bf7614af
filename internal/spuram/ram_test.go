package spuram

import "testing"

func TestWrapFoldsAddressIntoRange(t *testing.T) {
	if got := Wrap(Size); got != 0 {
		t.Errorf("Wrap(Size) = %d, want 0", got)
	}
	if got := Wrap(Size + 5); got != 5 {
		t.Errorf("Wrap(Size+5) = %d, want 5", got)
	}
	if got := Wrap(10); got != 10 {
		t.Errorf("Wrap(10) = %d, want 10", got)
	}
}

func TestReadByteWriteByteRoundTrips(t *testing.T) {
	r := New()
	r.WriteByte(0x100, 0xAB)
	if got := r.ReadByte(0x100); got != 0xAB {
		t.Errorf("ReadByte(0x100) = %#x, want 0xab", got)
	}
}

func TestWriteByteWrapsAtBoundary(t *testing.T) {
	r := New()
	r.WriteByte(Size, 0x42)
	if got := r.ReadByte(0); got != 0x42 {
		t.Errorf("ReadByte(0) = %#x, want 0x42 (write at Size should wrap to 0)", got)
	}
}

func TestReadWordWriteWordLittleEndianRoundTrips(t *testing.T) {
	r := New()
	r.WriteWord(0x200, 0xBEEF)
	if got := r.ReadWord(0x200); got != 0xBEEF {
		t.Errorf("ReadWord(0x200) = %#x, want 0xbeef", got)
	}
	if got := r.ReadByte(0x200); got != 0xEF {
		t.Errorf("low byte = %#x, want 0xef", got)
	}
	if got := r.ReadByte(0x201); got != 0xBE {
		t.Errorf("high byte = %#x, want 0xbe", got)
	}
}

func TestWriteWordSpansWrapBoundary(t *testing.T) {
	r := New()
	r.WriteWord(Size-1, 0x1234)
	if got := r.ReadByte(Size - 1); got != 0x34 {
		t.Errorf("low byte at Size-1 = %#x, want 0x34", got)
	}
	if got := r.ReadByte(0); got != 0x12 {
		t.Errorf("high byte wrapped to 0 = %#x, want 0x12", got)
	}
	if got := r.ReadWord(Size - 1); got != 0x1234 {
		t.Errorf("ReadWord(Size-1) = %#x, want 0x1234 (spanning the wrap)", got)
	}
}

func TestResetZeroesContents(t *testing.T) {
	r := New()
	r.WriteByte(0x10, 0xFF)
	r.WriteByte(Size-1, 0xFF)
	r.Reset()
	if got := r.ReadByte(0x10); got != 0 {
		t.Errorf("ReadByte(0x10) after Reset = %#x, want 0", got)
	}
	if got := r.ReadByte(Size - 1); got != 0 {
		t.Errorf("ReadByte(Size-1) after Reset = %#x, want 0", got)
	}
}

func TestResetLeavesIRQCheckerInstalled(t *testing.T) {
	r := New()
	fired := false
	r.SetIRQChecker(func(address uint32) { fired = true })
	r.Reset()
	r.CheckIRQ(0)
	if !fired {
		t.Error("CheckIRQ did not fire after Reset, want the installed checker to survive Reset")
	}
}

func TestCheckIRQNilCheckerIsNoOp(t *testing.T) {
	r := New()
	r.CheckIRQ(0x123) // must not panic
}

func TestCheckIRQPassesWrappedAddress(t *testing.T) {
	r := New()
	var got uint32
	r.SetIRQChecker(func(address uint32) { got = address })
	r.CheckIRQ(Size + 7)
	if got != 7 {
		t.Errorf("CheckIRQ passed address %#x, want 7 (wrapped)", got)
	}
}

func TestReadWordCheckedFiresIRQCheckBeforeReturning(t *testing.T) {
	r := New()
	r.WriteWord(0x50, 0xCAFE)
	var gotAddr uint32
	calls := 0
	r.SetIRQChecker(func(address uint32) {
		calls++
		gotAddr = address
	})
	if got := r.ReadWordChecked(0x50); got != 0xCAFE {
		t.Errorf("ReadWordChecked(0x50) = %#x, want 0xcafe", got)
	}
	if calls != 1 {
		t.Errorf("IRQChecker called %d times, want 1", calls)
	}
	if gotAddr != 0x50 {
		t.Errorf("IRQChecker address = %#x, want 0x50", gotAddr)
	}
}

func TestWriteWordCheckedWritesThenFiresIRQCheck(t *testing.T) {
	r := New()
	var seenDuringCheck uint16
	r.SetIRQChecker(func(address uint32) {
		seenDuringCheck = r.ReadWord(address)
	})
	r.WriteWordChecked(0x60, 0x9988)
	if seenDuringCheck != 0x9988 {
		t.Errorf("value visible during IRQ check = %#x, want 0x9988 (write must land before the check fires)", seenDuringCheck)
	}
}

func TestBlock16ContiguousRead(t *testing.T) {
	r := New()
	for i := 0; i < 16; i++ {
		r.WriteByte(uint32(0x300+i), byte(i+1))
	}
	block := r.Block16(0x300)
	for i := 0; i < 16; i++ {
		if block[i] != byte(i+1) {
			t.Errorf("block[%d] = %d, want %d", i, block[i], i+1)
		}
	}
}

func TestBlock16WrapsAcrossEndOfRAM(t *testing.T) {
	r := New()
	start := uint32(Size - 4)
	for i := 0; i < 16; i++ {
		r.WriteByte(Wrap(start+uint32(i)), byte(i+1))
	}
	block := r.Block16(start)
	for i := 0; i < 16; i++ {
		if block[i] != byte(i+1) {
			t.Errorf("block[%d] = %d, want %d (wrap-spanning read)", i, block[i], i+1)
		}
	}
}

func TestBytesAndRestoreBytesRoundTrip(t *testing.T) {
	r := New()
	r.WriteByte(0x10, 0xAA)
	r.WriteByte(Size-1, 0x55)

	saved := make([]byte, Size)
	copy(saved, r.Bytes())

	r2 := New()
	r2.RestoreBytes(saved)

	if got := r2.ReadByte(0x10); got != 0xAA {
		t.Errorf("restored ReadByte(0x10) = %#x, want 0xaa", got)
	}
	if got := r2.ReadByte(Size - 1); got != 0x55 {
		t.Errorf("restored ReadByte(Size-1) = %#x, want 0x55", got)
	}
}

func TestBytesAliasesLiveBackingArray(t *testing.T) {
	r := New()
	b := r.Bytes()
	r.WriteByte(5, 0x7E)
	if b[5] != 0x7E {
		t.Error("Bytes() slice did not observe a subsequent write, want it to alias the live backing array")
	}
}
