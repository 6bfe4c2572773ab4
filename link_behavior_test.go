package df1

import (
	"sync"
	"testing"
	"time"
)

func newTestLink(ft *fakeTransport) *Link {
	cfg := &Config{
		Baud:     9600,
		Checksum: ChecksumBCC,
		Protocol: ProtocolDF1,
		MyNode:   0,
	}
	l := NewLink(ft, cfg, nil, nil)
	l.SetMaxTicks(5)
	return l
}

// driveReplies watches the fake transport's write count and queues a
// scripted bare ACK/NAK reply after each write, feeding the link's reader
// loop.
func driveReplies(t *testing.T, l *Link, ft *fakeTransport, replies []byte) {
	t.Helper()

	go func() {
		seen := 0
		for seen < len(replies) {
			if ft.writeCount() > seen {
				r := replies[seen]
				ft.queueRX([]byte{dleDLE, r})
				seen++
			}
			time.Sleep(time.Millisecond)
		}
	}()
}

func TestSendDataRetriesThenSucceeds(t *testing.T) {
	ft := newFakeTransport()
	l := newTestLink(ft)

	if err := l.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	driveReplies(t, l, ft, []byte{dleNAK, dleNAK, dleACK})

	err := l.SendData(0, []byte{0x01, 0x02})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if ft.writeCount() != 3 {
		t.Errorf("expected exactly 3 writes, got %d", ft.writeCount())
	}
}

func TestSendDataAllNAKFails(t *testing.T) {
	ft := newFakeTransport()
	l := newTestLink(ft)

	if err := l.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	driveReplies(t, l, ft, []byte{dleNAK, dleNAK, dleNAK})

	err := l.SendData(0, []byte{0x01})
	if err != ErrNAK {
		t.Errorf("expected ErrNAK, got %v", err)
	}
}

func TestSendDataTimeoutFails(t *testing.T) {
	ft := newFakeTransport()
	l := newTestLink(ft)
	l.SetMaxTicks(2)

	if err := l.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	err := l.SendData(0, []byte{0x01})
	if err != ErrNoResponse {
		t.Errorf("expected ErrNoResponse, got %v", err)
	}
}

func TestUnsolicitedMessageHandling(t *testing.T) {
	ft := newFakeTransport()
	l := newTestLink(ft)

	var events countingEvents
	l.events = &events

	if err := l.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	// an unsolicited Logical Write: command 0x0f, function 0xaa, tns 0x0102
	body := buildDF1Packet(0x00, 0x01, 0x0f, 0x0102, 0xaa, []byte{0x00})
	frame := encodeFrame(ChecksumBCC, body)
	ft.queueRX(frame)

	deadline := time.Now().Add(200 * time.Millisecond)
	for events.unsolicited() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if events.unsolicited() != 1 {
		t.Fatalf("expected exactly one unsolicited event, got %d", events.unsolicited())
	}

	// the link must have ACKed the frame and echoed the TNS with cmd|0x40
	found := false
	echoed := false
	for _, w := range ft.writes {
		if len(w) >= 2 && w[0] == dleDLE && w[1] == dleACK {
			found = true
		}
		if len(w) >= 2 && w[0] == dleDLE && w[1] == dleSTX {
			reply, ok := decodeOutboundFrame(ChecksumBCC, w)
			if ok && len(reply) >= 6 && reply[2] == 0x4f && reply[4] == 0x02 && reply[5] == 0x01 {
				echoed = true
			}
		}
	}
	if !found {
		t.Errorf("expected the link to ACK the unsolicited frame, writes=%v", ft.writes)
	}
	if !echoed {
		t.Errorf("expected a reply frame with command 0x4f echoing TNS 0x0102, writes=%v", ft.writes)
	}
}

func TestReceivedChecksumFailureYieldsWaitNAK(t *testing.T) {
	ft := newFakeTransport()
	l := newTestLink(ft)

	if err := l.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	l.ResetSlot(0x02)

	// a well-formed reply for TNS low-byte 0x02, with its checksum
	// trailer corrupted so it fails validation on arrival.
	body := buildDF1Packet(0x00, 0x01, 0x4f, 0x0002, 0xaa, []byte{0x00})
	frame := encodeFrame(ChecksumBCC, body)
	frame[len(frame)-1] ^= 0xff
	ft.queueRX(frame)

	_, result := l.Wait(0x02)
	if result != waitNAK {
		t.Fatalf("expected waitNAK, got %v", result)
	}

	if err := errorForWaitResult(result); err != ErrNAKOnChecksum {
		t.Errorf("expected ErrNAKOnChecksum, got %v", err)
	}

	// the link must have replied with a bare NAK rather than ACKing the
	// corrupted frame.
	found := false
	for _, w := range ft.writes {
		if len(w) >= 2 && w[0] == dleDLE && w[1] == dleNAK {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the link to NAK the corrupted frame, writes=%v", ft.writes)
	}
}

type countingEvents struct {
	mu  sync.Mutex
	cnt int
}

func (*countingEvents) DataReceived(tns uint16) {}

func (c *countingEvents) UnsolicitedMessageReceived(tns uint16, command uint8) {
	c.mu.Lock()
	c.cnt++
	c.mu.Unlock()
}

func (*countingEvents) AutoDetectTry(baud uint, parity Parity, checksum ChecksumKind) {}
func (*countingEvents) UploadProgress(fileIndex, totalFiles int)                      {}
func (*countingEvents) DownloadProgress(fileIndex, totalFiles int)                    {}

func (c *countingEvents) unsolicited() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cnt
}
