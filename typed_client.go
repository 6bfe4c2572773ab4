package df1

import "fmt"

// fnTypedCommand is the PCCC command byte under which every typed
// read/write function (0xa1/0xa2/0xaa/0xab) is issued.
const fnTypedCommand uint8 = 0x0f

// ReadResult holds the decoded values of a typed read, with exactly one
// field populated depending on the addressed file's type.
type ReadResult struct {
	Ints     []int16
	Floats   []float32
	Longs    []int32
	Strings  []string
	Messages [][]byte
	Bits     []bool
}

// Read performs a typed read of count elements starting at addrStr,
// chunking the transfer to the processor's size cap and decoding the
// reply according to the addressed file type. The processor family is
// probed via GetProcessorType if not already known.
func (c *Client) Read(addrStr string, count int) (ReadResult, error) {
	addr := ParseAddress(addrStr)
	if !addr.Valid() {
		return ReadResult{}, ErrInvalidAddress
	}

	family, err := c.processorFamily()
	if err != nil {
		return ReadResult{}, err
	}

	chunkCap := readChunkCap(addr, uint8(family))
	plans := planReadChunks(addr, count, chunkCap)

	raw := make([]byte, 0, count*addr.BytesPerElem)
	for _, plan := range plans {
		sizeBytes := plan.byteLen
		if sizeBytes == 0 {
			continue
		}

		data, function := buildReadRequestData(plan.addr, sizeBytes)
		p, err := c.execute(fnTypedCommand, function, data)
		if err != nil {
			return ReadResult{}, err
		}
		if len(p.data) == 0 {
			return ReadResult{}, ErrNoDataReturned
		}

		raw = append(raw, p.data...)
	}

	return decodeReadResult(addr, raw, count)
}

// decodeReadResult turns the assembled raw byte stream of a typed read
// into the appropriate ReadResult field, applying the bit-repackaging
// when addr.BitNumber is not the "no bit" sentinel.
func decodeReadResult(addr Address, raw []byte, count int) (ReadResult, error) {
	switch addr.FileType {
	case ftF:
		return ReadResult{Floats: decodeFloats(raw)}, nil

	case ftL:
		return ReadResult{Longs: decodeLongs(raw)}, nil

	case ftST:
		strs := make([]string, 0, count)
		for off := 0; off+84 <= len(raw); off += 84 {
			strs = append(strs, decodeString(raw[off:off+84]))
		}
		return ReadResult{Strings: strs}, nil

	case ftMG:
		return ReadResult{Messages: decodeMessages(raw)}, nil

	default:
		words := decodeInts(raw)
		if addr.BitNumber != NoBit {
			return ReadResult{Bits: decodeBits(words, addr.BitNumber, count)}, nil
		}
		return ReadResult{Ints: words}, nil
	}
}

// WriteInts writes 16-bit signed values starting at addrStr, chunking to
// the write cap; each value fits the 16-bit signed range by construction
// (int16 input).
func (c *Client) WriteInts(addrStr string, values []int16) error {
	addr := ParseAddress(addrStr)
	if !addr.Valid() {
		return ErrInvalidAddress
	}
	if len(values) == 0 {
		return ErrEmptyData
	}

	return c.writeChunked(addr, encodeInts(values))
}

// WriteFloats writes IEEE-754 32-bit float values (file type F).
func (c *Client) WriteFloats(addrStr string, values []float32) error {
	addr := ParseAddress(addrStr)
	if !addr.Valid() {
		return ErrInvalidAddress
	}
	if len(values) == 0 {
		return ErrEmptyData
	}

	return c.writeChunked(addr, encodeFloats(values))
}

// WriteLongs writes 32-bit signed integer values (file type L), validating
// each fits in the 32-bit signed range by construction (int32 input).
func (c *Client) WriteLongs(addrStr string, values []int32) error {
	addr := ParseAddress(addrStr)
	if !addr.Valid() {
		return ErrInvalidAddress
	}
	if len(values) == 0 {
		return ErrEmptyData
	}

	return c.writeChunked(addr, encodeLongs(values))
}

// WriteString writes s to an ST element, validating its length fits the
// 82-byte payload budget.
func (c *Client) WriteString(addrStr string, s string) error {
	addr := ParseAddress(addrStr)
	if !addr.Valid() {
		return ErrInvalidAddress
	}
	if len(s) > 82 {
		return fmt.Errorf("string too long: %d bytes (max 82)", len(s))
	}

	return c.writeChunked(addr, encodeString(s))
}

// WriteBit performs a masked bit write (PCCC function 0xab) of value to
// the bit addressed by addrStr.
func (c *Client) WriteBit(addrStr string, value bool) error {
	addr := ParseAddress(addrStr)
	if !addr.Valid() {
		return ErrInvalidAddress
	}
	if addr.BitNumber == NoBit {
		return ErrInvalidAddress
	}

	setMask, valueMask := bitWriteMasks(addr.BitNumber, value)

	data := append([]byte{byte(addr.FileNumber), byte(addr.FileType)}, encodeElementField(addr.Element)...)
	data = append(data, setMask...)
	data = append(data, valueMask...)

	_, err := c.execute(fnTypedCommand, fnTypedWriteMask, data)
	return err
}

// writeChunked splits payload across the write chunk cap for addr's file
// type and issues one whole-word write (function 0xaa) per chunk.
func (c *Client) writeChunked(addr Address, payload []byte) error {
	plans := planWriteChunks(addr, len(payload))

	for _, plan := range plans {
		chunk := payload[plan.byteOffset : plan.byteOffset+plan.byteLen]

		data := append([]byte{byte(plan.addr.FileNumber), byte(plan.addr.FileType)}, encodeElementField(plan.addr.Element)...)
		if plan.addr.SubElement != 0 {
			data = append(data, encodeElementField(plan.addr.SubElement)...)
		}
		data = append(data, chunk...)

		if _, err := c.execute(fnTypedCommand, fnTypedWriteWord, data); err != nil {
			return err
		}
	}

	return nil
}
