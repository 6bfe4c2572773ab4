package df1

// pccc is the decoded form of a PCCC command/reply packet, the unit of
// exchange between the application layer (F, H, I, J) and the link layer
// (D).
type pccc struct {
	dst, src     uint8
	command      uint8
	status       uint8
	tns          uint16
	function     uint8
	data         []byte
	extStatus    uint8
	hasExtStatus bool
}

// buildDF1Packet composes the DF1 application header:
// [dst][src][cmd][sts=0][tns_lo][tns_hi][func][data...]. The caller
// supplies only command, function and data; tns is allocated by the link.
func buildDF1Packet(dst, src uint8, command uint8, tns uint16, function uint8, data []byte) []byte {
	out := make([]byte, 0, 7+len(data))

	out = append(out, dst, src, command, 0x00)
	out = append(out, byte(tns), byte(tns>>8))
	out = append(out, function)
	out = append(out, data...)

	return out
}

// buildDH485Packet composes the DH485 header: target|0x80, control,
// source|0x80, then a 3-byte sub-header ([0x88][source|0x80][payload_len])
// before a command/status/tns/function/data body. Unlike DF1, the DH485
// body omits its own dst/src (the 3-byte outer header already carries
// addressing), which lays the command byte at offset 6 so that
// statusOffset(7) and tnsOffset(8) for DH485 line up.
func buildDH485Packet(dst, src uint8, control uint8, command uint8, tns uint16, function uint8, data []byte) []byte {
	body := make([]byte, 0, 6+len(data))
	body = append(body, command, 0x00, byte(tns), byte(tns>>8), function)
	body = append(body, data...)

	out := make([]byte, 0, 6+len(body))
	out = append(out, dst|0x80, control, src|0x80)
	out = append(out, 0x88, src|0x80, byte(len(body)))
	out = append(out, body...)

	return out
}

// tnsOffset returns the byte offset of the TNS low byte within a decoded
// PCCC payload: index 4 for DF1, index 8 for DH485. Short
// commands (no embedded command/reply distinction available) use TNS 0.
func tnsOffset(protocol Protocol) int {
	if protocol == ProtocolDH485 {
		return 8
	}
	return 4
}

// statusOffset returns the byte offset of the PCCC STS field within a
// decoded payload: 3 for DF1, 7 for DH485.
func statusOffset(protocol Protocol) int {
	if protocol == ProtocolDH485 {
		return 7
	}
	return 3
}

// functionOffset returns the byte offset of the PCCC function field: two
// bytes past the TNS low byte (tns_lo, tns_hi, func).
func functionOffset(protocol Protocol) int {
	return tnsOffset(protocol) + 2
}

// parsePCCCReply decodes a raw frame body (as stored in a transaction slot)
// into a pccc struct, extracting status, data, and, when status is 0xF0,
// the extended status byte from the last byte of the buffer.
func parsePCCCReply(protocol Protocol, buf []byte) (p pccc, ok bool) {
	so := statusOffset(protocol)
	if len(buf) <= so {
		return p, false
	}

	p.status = buf[so]

	fo := functionOffset(protocol)
	dataEnd := len(buf)

	if p.status == 0xf0 {
		p.hasExtStatus = true
		p.extStatus = buf[len(buf)-1]
		dataEnd = len(buf) - 1
	}

	if fo+1 <= dataEnd && fo+1 <= len(buf) {
		p.function = buf[fo]
		p.data = append([]byte(nil), buf[fo+1:dataEnd]...)
	}

	return p, true
}
