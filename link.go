package df1

import (
	"log"
	"sync"
	"time"
)

// maxSleepCompensation is the ceiling placed on the inter-byte sleep
// compensation absorbing a flaky USB-to-serial adapter.
const maxSleepCompensation = 400 * time.Millisecond

// Link is the data-link-layer state machine: it drives the ACK/NAK/ENQ
// handshake, retries, per-TNS response slots, and dispatch to either a
// waiting application-layer caller or the unsolicited-message path.
type Link struct {
	mu   sync.Mutex
	cond *sync.Cond

	cfg       *Config
	transport Transport
	events    Events
	logger    *logger

	opened bool
	stopCh chan struct{}
	done   chan struct{}

	recv frameReceiver
	tt   *transactionTable
	tns  *tnsAllocator

	acknowledged       bool
	notAcknowledged    bool
	lastResponseWasNAK bool
	sleepDelay         time.Duration
	maxTicks           int

	pendingValid bool
	pendingIdx   uint8

	dh485 *dh485State
}

// NewLink constructs a Link over transport, using cfg's node id, protocol
// and checksum settings. events may be nil (NoopEvents is used).
func NewLink(transport Transport, cfg *Config, events Events, customLogger *log.Logger) *Link {
	if events == nil {
		events = NoopEvents{}
	}

	l := &Link{
		cfg:       cfg,
		transport: transport,
		events:    events,
		logger:    newLogger("df1-link", customLogger),
		maxTicks:  DefaultMaxTicks,
		tns:       newTNSAllocator(nil),
	}
	l.cond = sync.NewCond(&l.mu)
	l.tt = newTransactionTable(&l.mu)

	if cfg.Protocol == ProtocolDH485 {
		l.dh485 = newDH485State()
	}

	return l
}

// Open opens the underlying transport and starts the background reader.
// Opening is lazy: the first SendData call opens the port if it isn't
// already open.
func (l *Link) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.opened {
		return nil
	}

	if err := l.transport.Open(); err != nil {
		return Error(ErrOpenFailed.Error() + ": " + err.Error())
	}

	l.opened = true
	l.stopCh = make(chan struct{})
	l.done = make(chan struct{})

	go l.readLoop(l.stopCh, l.done)

	return nil
}

// Close stops the reader and releases the transport.
func (l *Link) Close() error {
	l.mu.Lock()
	if !l.opened {
		l.mu.Unlock()
		return nil
	}
	close(l.stopCh)
	l.opened = false
	done := l.done
	l.mu.Unlock()

	<-done

	return l.transport.Close()
}

// readLoop is the single background reader task per open port.
func (l *Link) readLoop(stop chan struct{}, done chan struct{}) {
	defer close(done)

	buf := make([]byte, 256)
	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := l.transport.Read(buf)
		if err != nil {
			l.logger.Warningf("transport read error: %v", err)
			return
		}
		if n > 0 {
			l.onBytes(buf[:n])
		}
	}
}

// onBytes feeds a burst of inbound bytes through the framing codec and
// dispatches any control events or completed frames.
func (l *Link) onBytes(data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, b := range data {
		res, have := l.recv.feed(b, l.cfg.Checksum, l.cfg.Protocol)
		if !have {
			continue
		}

		if res.control != controlNone {
			l.handleControlLocked(res.control, res.otherControl)
			continue
		}

		if res.frameDone {
			l.handleFrameLocked(res.buf, res.checksumTail)
		}
	}
}

// handleControlLocked processes a bare DLE/ACK, DLE/NAK or DLE/ENQ
// observed outside (or interrupting) a frame. Caller must hold l.mu.
func (l *Link) handleControlLocked(ev controlEvent, other byte) {
	switch ev {
	case controlACK:
		l.acknowledged = true
		if l.pendingValid {
			l.tt.ack(l.pendingIdx)
		}
		l.clearDH485QueueLocked()
		l.cond.Broadcast()

	case controlNAK:
		l.notAcknowledged = true
		l.cond.Broadcast()

	case controlENQ:
		// repeat the last outbound ACK or NAK
		if l.lastResponseWasNAK {
			l.writeLocked([]byte{dleDLE, dleNAK})
		} else {
			l.writeLocked([]byte{dleDLE, dleACK})
		}

	case controlOther:
		switch {
		case other == dh485ControlTokenPass:
			l.handleTokenLocked()
		case other == dh485ControlPeerACK:
			l.acknowledged = true
			l.clearDH485QueueLocked()
			l.cond.Broadcast()
		case isDataReply(other):
			// a data-bearing reply control byte precedes the frame itself;
			// nothing to do here beyond letting the subsequent frame bytes
			// flow through the normal frameDone path
		}
	}
}

// handleFrameLocked validates and dispatches a fully assembled frame.
// Caller must hold l.mu.
func (l *Link) handleFrameLocked(buf []byte, tail []byte) {
	if !nodeOK(buf, l.cfg.MyNode, l.cfg.Protocol) {
		return
	}

	if !checksumMatches(l.cfg.Checksum, buf, tail) {
		l.writeLocked([]byte{dleDLE, dleNAK})
		l.lastResponseWasNAK = true

		if l.sleepDelay < maxSleepCompensation {
			l.sleepDelay += 20 * time.Millisecond
			if l.sleepDelay > maxSleepCompensation {
				l.sleepDelay = maxSleepCompensation
			}
		}

		// the frame addressed a real slot but failed checksum: wake its
		// waiter with a NAK outcome (waitNAK / ErrNAKOnChecksum) rather
		// than a successful-but-empty frame
		idx := tnsIndexOf(l.cfg.Protocol, buf)
		l.tt.completeChecksumFailure(idx)

		return
	}

	idx := tnsIndexOf(l.cfg.Protocol, buf)
	l.tt.complete(idx, buf)

	cmd := commandByte(l.cfg.Protocol, buf)

	if cmd > 31 {
		l.events.DataReceived(uint16(idx))
	} else {
		// unsolicited command from the controller: echo TNS with the
		// command byte OR'd with 0x40, then notify
		l.sendUnsolicitedReplyLocked(buf, idx, cmd)
		l.events.UnsolicitedMessageReceived(uint16(idx), cmd)
	}

	l.writeLocked([]byte{dleDLE, dleACK})
	l.lastResponseWasNAK = false
}

// tnsIndexOf extracts the low byte of the embedded TNS from a decoded
// frame body, or 0 for a short command with no TNS field present.
func tnsIndexOf(protocol Protocol, buf []byte) uint8 {
	off := tnsOffset(protocol)
	if len(buf) <= off {
		return 0
	}
	return buf[off]
}

// commandByte returns the embedded PCCC command byte (index 2 for DF1,
// shifted by the DH485 sub-header for DH485).
func commandByte(protocol Protocol, buf []byte) uint8 {
	off := 2
	if protocol == ProtocolDH485 {
		off = 6
	}
	if len(buf) <= off {
		return 0
	}
	return buf[off]
}

// sendUnsolicitedReplyLocked answers an unsolicited command with a short
// reply echoing the received TNS and OR'ing the command byte with 0x40.
func (l *Link) sendUnsolicitedReplyLocked(buf []byte, tnsIdx uint8, cmd uint8) {
	if len(buf) < 2 {
		return
	}
	tns := uint16(tnsIdx)
	if off := tnsOffset(l.cfg.Protocol); len(buf) > off+1 {
		tns |= uint16(buf[off+1]) << 8
	}
	var reply []byte
	if l.cfg.Protocol == ProtocolDH485 {
		dst := buf[2] &^ 0x80
		src := buf[0] &^ 0x80
		reply = buildDH485Packet(dst, src, dh485ControlPeerACK, cmd|0x40, tns, 0, nil)
	} else {
		dst := buf[1]
		src := buf[0]
		reply = buildDF1Packet(dst, src, cmd|0x40, tns, 0, nil)
	}

	l.writeLocked(encodeFrame(l.cfg.Checksum, reply))
}

// writeLocked writes raw bytes to the transport. Caller must hold l.mu;
// the transport's own Write is assumed non-blocking-enough not to dead
// lock the link (true of both the serial and fake transports used here).
func (l *Link) writeLocked(p []byte) {
	if _, err := l.transport.Write(p); err != nil {
		l.logger.Warningf("write error: %v", err)
	}
}

// SendData escapes/frames the payload, makes up to MaxSendRetries+1
// attempts waiting for ACK/NAK, and reports the outcome.
func (l *Link) SendData(tnsIdx uint8, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.opened {
		l.mu.Unlock()
		err := l.Open()
		l.mu.Lock()
		if err != nil {
			return err
		}
	}

	frame := encodeFrame(l.cfg.Checksum, payload)

	for attempt := 0; attempt <= MaxSendRetries; attempt++ {
		l.acknowledged = false
		l.notAcknowledged = false
		l.pendingValid = true
		l.pendingIdx = tnsIdx

		l.writeLocked(frame)

		if l.waitAckOrNakLocked() {
			if l.acknowledged {
				return nil
			}
			// NAK: retry
			continue
		}
		// timeout: retry
	}

	if l.notAcknowledged {
		return ErrNAK
	}
	return ErrNoResponse
}

// waitAckOrNakLocked blocks until acknowledged or notAcknowledged is set,
// or maxTicks ticks elapse. Caller must hold l.mu.
func (l *Link) waitAckOrNakLocked() (resolved bool) {
	deadline := time.Now().Add(time.Duration(l.maxTicks) * tickInterval * time.Millisecond)

	for !l.acknowledged && !l.notAcknowledged {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}

		timer := time.AfterFunc(remaining, func() {
			l.mu.Lock()
			l.cond.Broadcast()
			l.mu.Unlock()
		})
		l.cond.Wait()
		timer.Stop()
	}

	return true
}

// SetMaxTicks overrides the ACK/NAK wait bound (used during auto-detect
// probes, which lower it for speed).
func (l *Link) SetMaxTicks(ticks int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxTicks = ticks
}

// Wait blocks for a response on the given TNS low byte.
func (l *Link) Wait(tnsIdx uint8) ([]byte, waitResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tt.wait(tnsIdx, l.maxTicks)
}

// ResetSlot clears a transaction slot immediately before sending a new
// request on it.
func (l *Link) ResetSlot(idx uint8) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tt.reset(idx)
}

// NextTNS allocates the next transaction number.
func (l *Link) NextTNS() uint16 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tns.next()
}

// SendENQ writes a bare DLE/ENQ and waits for any reply, used by
// auto-detect probes.
func (l *Link) SendENQ() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.acknowledged = false
	l.notAcknowledged = false

	l.writeLocked([]byte{dleDLE, dleENQ})

	if !l.waitAckOrNakLocked() {
		return ErrNoResponse
	}
	return nil
}
