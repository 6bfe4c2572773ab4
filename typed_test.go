package df1

import "testing"

func TestEncodeElementFieldPlain(t *testing.T) {
	got := encodeElementField(7)
	want := []byte{0x07}
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestEncodeElementFieldExtended(t *testing.T) {
	got := encodeElementField(300)
	if len(got) != 3 || got[0] != extendedAddrSentinel {
		t.Fatalf("expected sentinel-prefixed 3-byte field, got %v", got)
	}
	if v := bytesToLE16(got[1:3]); v != 300 {
		t.Errorf("expected 300, got %d", v)
	}
}

func bytesToLE16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func TestBuildReadRequestDataNoSub(t *testing.T) {
	addr := ParseAddress("N7:0")
	data, fn := buildReadRequestData(addr, 2)
	if fn != fnTypedReadNoSub {
		t.Errorf("expected function 0xa1, got 0x%02x", fn)
	}
	if len(data) != 4 {
		t.Fatalf("expected 4-byte request (file#, type, element, size), got %v", data)
	}
}

func TestBuildReadRequestDataWithSub(t *testing.T) {
	addr := ParseAddress("T4:5.ACC")
	data, fn := buildReadRequestData(addr, 2)
	if fn != fnTypedReadSub {
		t.Errorf("expected function 0xa2, got 0x%02x", fn)
	}
	if len(data) != 5 {
		t.Fatalf("expected 5-byte request (file#, type, element, subelement, size), got %v", data)
	}
}

func TestReadChunkCapVariants(t *testing.T) {
	st := ParseAddress("ST9:0")
	if got := readChunkCap(st, 0); got != 168 {
		t.Errorf("ST: expected 168, got %d", got)
	}

	tm := ParseAddress("T4:5.ACC")
	if got := readChunkCap(tm, 0); got != 234 {
		t.Errorf("timer: expected 234, got %d", got)
	}

	n := ParseAddress("N7:0")
	if got := readChunkCap(n, 0); got != 236 {
		t.Errorf("N default: expected 236, got %d", got)
	}

	if got := readChunkCap(n, sl502ProcessorCode); got != 80 {
		t.Errorf("SLC5/02 cap: expected 80, got %d", got)
	}
}

func TestPlanReadChunksAdvancesSubElement(t *testing.T) {
	addr := ParseAddress("N7:0")
	plans := planReadChunks(addr, 400, 236)

	if len(plans) < 2 {
		t.Fatalf("expected multiple chunks for 400 elements at cap 236, got %d", len(plans))
	}

	total := 0
	for _, p := range plans {
		total += p.byteLen
	}
	if total != 800 {
		t.Errorf("expected total byte coverage 800, got %d", total)
	}

	if plans[1].addr.SubElement <= plans[0].addr.SubElement {
		t.Errorf("expected sub-element to advance between chunks, got %+v then %+v", plans[0].addr, plans[1].addr)
	}
}

func TestIntRoundTrip(t *testing.T) {
	values := []int16{-1, 0, 1, 32000, -32000}
	raw := encodeInts(values)
	got := decodeInts(raw)

	if len(got) != len(values) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(values))
	}
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("index %d: got %d, want %d", i, got[i], values[i])
		}
	}
}

func TestFloatRoundTrip(t *testing.T) {
	values := []float32{0, 1.5, -273.15, 3.14159}
	raw := encodeFloats(values)
	got := decodeFloats(raw)

	for i := range values {
		if got[i] != values[i] {
			t.Errorf("index %d: got %v, want %v", i, got[i], values[i])
		}
	}
}

func TestLongRoundTrip(t *testing.T) {
	values := []int32{-1, 0, 1, 2147483647, -2147483648}
	raw := encodeLongs(values)
	got := decodeLongs(raw)

	for i := range values {
		if got[i] != values[i] {
			t.Errorf("index %d: got %d, want %d", i, got[i], values[i])
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	raw := encodeString("HELLO")
	if len(raw) != 84 {
		t.Fatalf("expected 84-byte ST element, got %d bytes", len(raw))
	}

	got := decodeString(raw)
	if got != "HELLO" {
		t.Errorf("got %q, want %q", got, "HELLO")
	}
}

func TestStringRoundTripEmpty(t *testing.T) {
	raw := encodeString("")
	got := decodeString(raw)
	if got != "" {
		t.Errorf("got %q, want empty string", got)
	}
}

func TestDecodeBitsAcrossWords(t *testing.T) {
	words := []int16{0x0001, 0x0001}
	bits := decodeBits(words, 0, 17)

	if len(bits) != 17 {
		t.Fatalf("expected 17 bits, got %d", len(bits))
	}
	if !bits[0] {
		t.Errorf("expected bit 0 of word 0 to be set")
	}
	for i := 1; i < 16; i++ {
		if bits[i] {
			t.Errorf("bit %d unexpectedly set", i)
		}
	}
	if !bits[16] {
		t.Errorf("expected bit 0 of word 1 (the 17th overall bit) to be set")
	}
}

func TestBitWriteMasks(t *testing.T) {
	setMask, valueMask := bitWriteMasks(3, true)
	if bytesToLE16(setMask) != 0x0008 {
		t.Errorf("set mask: got 0x%04x, want 0x0008", bytesToLE16(setMask))
	}
	if bytesToLE16(valueMask) != 0x0008 {
		t.Errorf("value mask (true): got 0x%04x, want 0x0008", bytesToLE16(valueMask))
	}

	_, valueMaskOff := bitWriteMasks(3, false)
	if bytesToLE16(valueMaskOff) != 0x0000 {
		t.Errorf("value mask (false): got 0x%04x, want 0x0000", bytesToLE16(valueMaskOff))
	}
}

func TestWriteChunkCapByFileType(t *testing.T) {
	n := ParseAddress("N7:0")
	if got := writeChunkCap(n); got != 164 {
		t.Errorf("N: expected 164, got %d", got)
	}
}
