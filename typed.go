package df1

import (
	"math"

	"github.com/ab-df1/df1/internal/bytesx"
)

// PCCC function codes used by the typed read/write engine.
const (
	fnTypedReadNoSub  uint8 = 0xa1
	fnTypedReadSub    uint8 = 0xa2
	fnTypedWriteWord  uint8 = 0xaa
	fnTypedWriteMask  uint8 = 0xab
)

// extendedAddrSentinel marks an extended (>= 255) element or sub-element
// value in a PCCC request block.
const extendedAddrSentinel = 0xff

// dataMonitorFileType is the PCCC file type code (0xA4) whose read chunk
// cap and element-advance stride differ from the rest.
const dataMonitorFileType FileType = 0xa4

// sl502ProcessorCode is the processor family byte that caps read
// chunks at 80 bytes.
const sl502ProcessorCode uint8 = 0x25

// readChunkCap returns the maximum payload bytes a single PCCC read may
// request for addr's file type under the given processor family.
func readChunkCap(addr Address, processorCode uint8) int {
	switch {
	case addr.FileType == ftST:
		return 168 // 2 string elements
	case addr.FileType == ftT || addr.FileType == ftC:
		return 234 // must be a multiple of 6
	case addr.FileType == dataMonitorFileType:
		return 120
	case processorCode == sl502ProcessorCode:
		return 80
	default:
		return 236
	}
}

// writeChunkCap returns the maximum payload bytes a single PCCC write may
// carry for addr's file type.
func writeChunkCap(addr Address) int {
	if addr.FileType >= 0xa1 {
		return 120
	}
	return 164
}

// encodeElementField appends the element (or sub-element) field of a PCCC
// request block: a plain 1-byte value, or, when the value is extended
// (>= 255), the sentinel 0xff followed by a 2-byte little-endian absolute
// value.
func encodeElementField(v int) []byte {
	if v >= 255 {
		return append([]byte{extendedAddrSentinel}, bytesx.LE16(uint16(v))...)
	}
	return []byte{byte(v)}
}

// buildReadRequestData composes the data portion of a typed read PCCC
// request (everything after the function byte): file number, file type,
// element, [sub-element], size. Returns the request bytes and
// the function code to use (0xa1 when sub-element is 0, 0xa2 otherwise).
func buildReadRequestData(addr Address, sizeBytes int) (data []byte, function uint8) {
	data = append(data, byte(addr.FileNumber), byte(addr.FileType))
	data = append(data, encodeElementField(addr.Element)...)

	if addr.SubElement == 0 {
		function = fnTypedReadNoSub
	} else {
		data = append(data, encodeElementField(addr.SubElement)...)
		function = fnTypedReadSub
	}

	data = append(data, byte(sizeBytes))

	return data, function
}

// chunkPlan describes one bounded transfer within a larger typed read or
// write.
type chunkPlan struct {
	addr       Address
	byteOffset int // offset into the overall byte stream this chunk covers
	byteLen    int
}

// planReadChunks splits a read of elementCount elements of addr's type
// into chunks no larger than capBytes, advancing element (for data-monitor
// files, stride capBytes/40) or sub-element (stride capBytes/2) between
// chunks.
func planReadChunks(addr Address, elementCount int, capBytes int) []chunkPlan {
	totalBytes := elementCount * addr.BytesPerElem
	if addr.BitNumber != NoBit {
		// bit reads still pull whole words; byte accounting is identical
	}

	var plans []chunkPlan
	offset := 0

	for offset < totalBytes {
		remain := totalBytes - offset
		n := capBytes
		if n > remain {
			n = remain
		}
		if addr.FileType == ftT || addr.FileType == ftC {
			n -= n % 6
			if n == 0 {
				n = remain
			}
		}

		cur := addr
		if addr.FileType == dataMonitorFileType {
			cur.Element = addr.Element + offset/40
		} else {
			cur.SubElement = addr.SubElement + offset/2
		}

		plans = append(plans, chunkPlan{addr: cur, byteOffset: offset, byteLen: n})
		offset += n
	}

	if len(plans) == 0 {
		plans = append(plans, chunkPlan{addr: addr, byteOffset: 0, byteLen: 0})
	}

	return plans
}

// planWriteChunks mirrors planReadChunks using the write chunk cap.
func planWriteChunks(addr Address, totalBytes int) []chunkPlan {
	capBytes := writeChunkCap(addr)

	var plans []chunkPlan
	offset := 0

	for offset < totalBytes {
		remain := totalBytes - offset
		n := capBytes
		if n > remain {
			n = remain
		}

		cur := addr
		cur.SubElement = addr.SubElement + offset/2

		plans = append(plans, chunkPlan{addr: cur, byteOffset: offset, byteLen: n})
		offset += n
	}

	if len(plans) == 0 {
		plans = append(plans, chunkPlan{addr: addr, byteOffset: 0, byteLen: totalBytes})
	}

	return plans
}

/*** decoding ***/

// decodeInts decodes raw bytes as 16-bit little-endian signed integers
// (file types N, B, S, A, I, O).
func decodeInts(raw []byte) []int16 {
	out := make([]int16, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		out = append(out, int16(bytesx.ToLE16(raw[i:i+2])))
	}
	return out
}

// decodeFloats decodes raw bytes as IEEE-754 32-bit little-endian floats
// (file type F).
func decodeFloats(raw []byte) []float32 {
	out := make([]float32, 0, len(raw)/4)
	for i := 0; i+3 < len(raw); i += 4 {
		out = append(out, math.Float32frombits(bytesx.ToLE32(raw[i:i+4])))
	}
	return out
}

// decodeLongs decodes raw bytes as 32-bit little-endian signed integers
// (file type L).
func decodeLongs(raw []byte) []int32 {
	out := make([]int32, 0, len(raw)/4)
	for i := 0; i+3 < len(raw); i += 4 {
		out = append(out, int32(bytesx.ToLE32(raw[i:i+4])))
	}
	return out
}

// decodeString decodes an 84-byte ST element: a 16-bit length (clamped to
// 82) followed by byte-pair-swapped text, NUL-terminated early.
func decodeString(raw []byte) string {
	if len(raw) < 2 {
		return ""
	}

	length := int(bytesx.ToLE16(raw[0:2]))
	if length > 82 {
		length = 82
	}

	swapped := bytesx.SwapPairs(raw[2:])
	if len(swapped) > length {
		swapped = swapped[:length]
	}

	for i, b := range swapped {
		if b == 0x00 {
			swapped = swapped[:i]
			break
		}
	}

	return string(swapped)
}

// decodeMessages splits raw bytes into opaque 50-byte MG blocks.
func decodeMessages(raw []byte) [][]byte {
	var out [][]byte
	for i := 0; i+50 <= len(raw); i += 50 {
		out = append(out, append([]byte(nil), raw[i:i+50]...))
	}
	return out
}

// decodeBits repackages a slice of 16-bit words as a Boolean sequence of
// numberOfElements bits, starting at startBit of the first word and
// advancing bit-by-bit across words.
func decodeBits(words []int16, startBit int, numberOfElements int) []bool {
	out := make([]bool, 0, numberOfElements)
	bit := startBit
	wordIdx := 0

	for len(out) < numberOfElements && wordIdx < len(words) {
		out = append(out, (uint16(words[wordIdx])>>uint(bit))&1 == 1)
		bit++
		if bit == 16 {
			bit = 0
			wordIdx++
		}
	}

	return out
}

/*** encoding ***/

// encodeInts encodes int16 values as 16-bit little-endian bytes.
func encodeInts(values []int16) []byte {
	out := make([]byte, 0, len(values)*2)
	for _, v := range values {
		out = append(out, bytesx.LE16(uint16(v))...)
	}
	return out
}

// encodeFloats encodes float32 values as IEEE-754 32-bit little-endian
// bytes.
func encodeFloats(values []float32) []byte {
	out := make([]byte, 0, len(values)*4)
	for _, v := range values {
		out = append(out, bytesx.LE32(math.Float32bits(v))...)
	}
	return out
}

// encodeLongs encodes int32 values as 32-bit little-endian bytes.
func encodeLongs(values []int32) []byte {
	out := make([]byte, 0, len(values)*4)
	for _, v := range values {
		out = append(out, bytesx.LE32(uint32(v))...)
	}
	return out
}

// encodeString encodes s as an 84-byte ST element: 2-byte length, then a
// NUL-padded, byte-pair-swapped payload.
func encodeString(s string) []byte {
	body := []byte(s)
	body = append(body, 0x00) // trailing NUL

	out := make([]byte, 0, 84)
	out = append(out, bytesx.LE16(uint16(len(s)))...)
	out = append(out, bytesx.SwapPairs(body)...)

	for len(out) < 84 {
		out = append(out, 0x00)
	}

	return out[:84]
}

// bitWriteMasks returns the set-mask/value-mask pair for a masked write of
// a single bit: set mask has only bitNumber
// set; value mask has the same bit set when value is true, clear when
// false.
func bitWriteMasks(bitNumber int, value bool) (setMask []byte, valueMask []byte) {
	set := uint16(1) << uint(bitNumber)
	setMask = bytesx.LE16(set)

	if value {
		valueMask = bytesx.LE16(set)
	} else {
		valueMask = bytesx.LE16(0)
	}

	return setMask, valueMask
}
