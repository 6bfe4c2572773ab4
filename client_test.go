package df1

import (
	"testing"
	"time"

	"github.com/ab-df1/df1/internal/bytesx"
)

// decodeOutboundFrame reuses the inbound frame-receiver state machine to
// decode a wire-framed request the Client has just written, letting test
// "devices" below reply without re-implementing the escaping logic.
func decodeOutboundFrame(checksum ChecksumKind, raw []byte) (payload []byte, ok bool) {
	var fr frameReceiver
	for _, b := range raw {
		res, have := fr.feed(b, checksum, ProtocolDF1)
		if have && res.frameDone {
			return res.buf, true
		}
	}
	return nil, false
}

// buildReplyPacket builds a DF1 PCCC reply payload echoing reqPayload's
// addressing and TNS, with the given status/data (and, when hasExt, a
// trailing extended-status byte).
func buildReplyPacket(reqPayload []byte, data []byte, status byte, hasExt bool, ext byte) []byte {
	dst := reqPayload[0]
	src := reqPayload[1]
	cmd := reqPayload[2]
	tnsLo := reqPayload[4]
	tnsHi := reqPayload[5]

	out := []byte{src, dst, cmd | 0x40, status, tnsLo, tnsHi, 0x00}
	out = append(out, data...)
	if hasExt {
		out = append(out, ext)
	}
	return out
}

// deviceHandler decides how a fake remote device answers one decoded PCCC
// request payload.
type deviceHandler func(reqPayload []byte) (data []byte, status byte, hasExt bool, ext byte)

// runFakeDevice starts a goroutine that watches ft for newly written
// request frames (prefixed DLE/STX) and answers each with a link-level ACK
// followed by a PCCC reply built by handler. Returns a stop function.
func runFakeDevice(t *testing.T, ft *fakeTransport, checksum ChecksumKind, handler deviceHandler) func() {
	t.Helper()

	stop := make(chan struct{})
	go func() {
		seen := 0
		for {
			select {
			case <-stop:
				return
			default:
			}

			ft.mu.Lock()
			n := len(ft.writes)
			var w []byte
			if seen < n {
				w = ft.writes[seen]
				seen++
			}
			ft.mu.Unlock()

			if w == nil {
				time.Sleep(time.Millisecond)
				continue
			}

			if len(w) < 2 || w[0] != dleDLE || w[1] != dleSTX {
				continue
			}

			payload, ok := decodeOutboundFrame(checksum, w)
			if !ok {
				continue
			}

			ft.queueRX([]byte{dleDLE, dleACK})

			data, status, hasExt, ext := handler(payload)
			reply := buildReplyPacket(payload, data, status, hasExt, ext)
			ft.queueRX(encodeFrame(checksum, reply))
		}
	}()

	return func() { close(stop) }
}

func newTestClient(t *testing.T) (*Client, *fakeTransport) {
	t.Helper()

	ft := newFakeTransport()
	cfg := &Config{
		Baud:       9600,
		Checksum:   ChecksumBCC,
		Protocol:   ProtocolDF1,
		MyNode:     0,
		TargetNode: 1,
	}
	cfg.applyDefaults()

	c, err := newClientWithTransport(cfg, nil, ft)
	if err != nil {
		t.Fatalf("newClientWithTransport: %v", err)
	}
	c.link.SetMaxTicks(20)

	return c, ft
}

func TestClientReadInts(t *testing.T) {
	c, ft := newTestClient(t)
	defer c.Close()

	stop := runFakeDevice(t, ft, ChecksumBCC, func(reqPayload []byte) ([]byte, byte, bool, byte) {
		return encodeInts([]int16{10, 20, 30}), 0, false, 0
	})
	defer stop()

	res, err := c.Read("N7:0", 3)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(res.Ints) != 3 || res.Ints[0] != 10 || res.Ints[1] != 20 || res.Ints[2] != 30 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestClientReadFloats(t *testing.T) {
	c, ft := newTestClient(t)
	defer c.Close()

	stop := runFakeDevice(t, ft, ChecksumBCC, func(reqPayload []byte) ([]byte, byte, bool, byte) {
		return encodeFloats([]float32{1.5, -2.25}), 0, false, 0
	})
	defer stop()

	res, err := c.Read("F8:0", 2)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(res.Floats) != 2 || res.Floats[0] != 1.5 || res.Floats[1] != -2.25 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestClientWriteBitMask(t *testing.T) {
	c, ft := newTestClient(t)
	defer c.Close()

	var gotFunction uint8
	var gotData []byte

	stop := runFakeDevice(t, ft, ChecksumBCC, func(reqPayload []byte) ([]byte, byte, bool, byte) {
		gotFunction = reqPayload[6]
		gotData = append([]byte(nil), reqPayload[7:]...)
		return nil, 0, false, 0
	})
	defer stop()

	if err := c.WriteBit("B3:5/4", true); err != nil {
		t.Fatalf("WriteBit: %v", err)
	}

	if gotFunction != fnTypedWriteMask {
		t.Errorf("expected function 0xab, got 0x%02x", gotFunction)
	}
	// data: file#, type, element(1 byte), set-mask(2), value-mask(2)
	if len(gotData) != 7 {
		t.Fatalf("expected 7-byte write-mask request, got %v", gotData)
	}
	setMask := bytesx.ToLE16(gotData[3:5])
	valueMask := bytesx.ToLE16(gotData[5:7])
	if setMask != 0x0010 || valueMask != 0x0010 {
		t.Errorf("expected set/value mask 0x0010, got set=0x%04x value=0x%04x", setMask, valueMask)
	}
}

func TestClientGetProcessorType(t *testing.T) {
	c, ft := newTestClient(t)
	defer c.Close()

	stop := runFakeDevice(t, ft, ChecksumBCC, func(reqPayload []byte) ([]byte, byte, bool, byte) {
		return []byte{0x00, 0x00, byte(FamilySLC502)}, 0, false, 0
	})
	defer stop()

	family, err := c.GetProcessorType()
	if err != nil {
		t.Fatalf("GetProcessorType: %v", err)
	}
	if family != FamilySLC502 {
		t.Errorf("expected FamilySLC502, got 0x%02x", family)
	}
}

func TestClientReadStatusErrorPropagates(t *testing.T) {
	c, ft := newTestClient(t)
	defer c.Close()

	stop := runFakeDevice(t, ft, ChecksumBCC, func(reqPayload []byte) ([]byte, byte, bool, byte) {
		return nil, 16, false, 0 // "illegal command or format"
	})
	defer stop()

	_, err := c.Read("N7:0", 1)
	if err == nil {
		t.Fatal("expected an error from a nonzero PCCC status")
	}
}

func TestClientReadInvalidAddress(t *testing.T) {
	c, _ := newTestClient(t)
	defer c.Close()

	_, err := c.Read("garbage", 1)
	if err != ErrInvalidAddress {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
}
