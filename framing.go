package df1

// encodeFrame escapes every literal DLE in payload by doubling it, then
// wraps the result in DLE/STX ... DLE/ETX and appends the checksum trailer
// in wire order.
func encodeFrame(kind ChecksumKind, payload []byte) []byte {
	out := make([]byte, 0, len(payload)+8)

	out = append(out, dleDLE, dleSTX)

	for _, b := range payload {
		if b == dleDLE {
			out = append(out, dleDLE, dleDLE)
		} else {
			out = append(out, b)
		}
	}

	out = append(out, dleDLE, dleETX)
	out = append(out, checksum(kind, payload)...)

	return out
}

// controlEvent identifies a bare DLE/<ctrl> byte pair observed outside (or
// interrupting) a frame.
type controlEvent uint

const (
	controlNone  controlEvent = 0
	controlACK   controlEvent = 1
	controlNAK   controlEvent = 2
	controlENQ   controlEvent = 3
	controlOther controlEvent = 4 // DH485 token-pass/peer-ack control bytes
)

// frameReceiver is the inbound byte-fed link-layer receiver state machine.
type frameReceiver struct {
	started     bool
	ended       bool
	nodeChecked bool
	etxPosition int
	buf         []byte
	checksumTail []byte
	pendingDLE  bool
}

// reset clears all per-frame receiver state. Called on every completed
// frame and whenever a nested DLE/STX restarts a frame.
func (fr *frameReceiver) reset() {
	fr.started = false
	fr.ended = false
	fr.nodeChecked = false
	fr.etxPosition = 0
	fr.buf = nil
	fr.checksumTail = nil
	fr.pendingDLE = false
}

// frameResult is returned by feed() when a control event or a complete
// frame has been assembled.
type frameResult struct {
	control      controlEvent
	otherControl byte // raw control byte when control == controlOther
	frameDone    bool
	buf          []byte
	checksumTail []byte
}

// feed processes a single incoming byte and reports at most one event.
// Callers loop feed() over every byte of a received burst. protocol is
// only consulted to recognize DH485's extra token-pass/peer-ack control
// bytes (0x00, 0x18); DF1 links can pass ProtocolDF1 unconditionally.
func (fr *frameReceiver) feed(b byte, kind ChecksumKind, protocol Protocol) (res frameResult, have bool) {
	if fr.ended {
		fr.checksumTail = append(fr.checksumTail, b)
		if len(fr.checksumTail) >= checksumLen(kind) {
			res = frameResult{
				frameDone:    true,
				buf:          fr.buf,
				checksumTail: fr.checksumTail,
			}
			fr.reset()
			return res, true
		}
		return res, false
	}

	if fr.pendingDLE {
		fr.pendingDLE = false

		switch b {
		case dleSTX:
			fr.reset()
			fr.started = true
			return res, false

		case dleETX:
			if fr.started {
				fr.ended = true
				fr.etxPosition = len(fr.buf)
			}
			return res, false

		case dleACK:
			return frameResult{control: controlACK}, true

		case dleNAK:
			return frameResult{control: controlNAK}, true

		case dleENQ:
			return frameResult{control: controlENQ}, true

		case dleDLE:
			// doubled DLE collapses to one literal 0x10 in the payload
			if fr.started {
				fr.buf = append(fr.buf, dleDLE)
			}
			return res, false

		default:
			if protocol == ProtocolDH485 && (b == dh485ControlTokenPass || b == dh485ControlPeerACK || isDataReply(b)) {
				return frameResult{control: controlOther, otherControl: b}, true
			}
			// a bare DLE followed by an unexpected byte: drop the DLE and
			// treat b as ordinary payload
			if fr.started {
				fr.buf = append(fr.buf, b)
			}
			return res, false
		}
	}

	if b == dleDLE {
		fr.pendingDLE = true
		return res, false
	}

	if fr.started {
		fr.buf = append(fr.buf, b)
	}

	return res, false
}

// nodeOK implements the addressing filter: drop a frame unless its first
// payload byte addresses this node. DF1 accepts everything; DH485 requires
// byte == myNode + 0x80.
func nodeOK(buf []byte, myNode uint8, protocol Protocol) bool {
	if protocol != ProtocolDH485 {
		return true
	}
	if len(buf) == 0 {
		return true
	}
	return buf[0] == myNode+0x80
}
