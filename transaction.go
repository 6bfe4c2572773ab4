package df1

import (
	"sync"
	"time"
)

// transactionSlot is one entry of the 256-slot transaction table.
type transactionSlot struct {
	responded      bool
	acked          bool
	checksumFailed bool
	lastFrame      []byte
	cond           *sync.Cond
}

// transactionTable is the fixed-size ring indexed by the low byte of the
// TNS sequence.
type transactionTable struct {
	mu    *sync.Mutex
	slots [256]transactionSlot
}

func newTransactionTable(mu *sync.Mutex) *transactionTable {
	tt := &transactionTable{mu: mu}
	for i := range tt.slots {
		tt.slots[i].cond = sync.NewCond(mu)
	}
	return tt
}

// reset clears a slot immediately before a new request is transmitted on
// it. Caller must hold tt.mu.
func (tt *transactionTable) reset(idx uint8) {
	s := &tt.slots[idx]
	s.responded = false
	s.acked = false
	s.checksumFailed = false
	s.lastFrame = nil
}

// complete is called from the receive path once a matching frame has
// arrived for idx. Caller must hold tt.mu.
func (tt *transactionTable) complete(idx uint8, frame []byte) {
	s := &tt.slots[idx]
	s.lastFrame = frame
	s.responded = true
	s.cond.Broadcast()
}

// completeChecksumFailure is called from the receive path when a frame
// addressing idx's slot failed its checksum: the waiter unblocks with
// waitNAK rather than a successful (and empty) frame. Caller must hold
// tt.mu.
func (tt *transactionTable) completeChecksumFailure(idx uint8) {
	s := &tt.slots[idx]
	s.lastFrame = nil
	s.checksumFailed = true
	s.responded = true
	s.cond.Broadcast()
}

// ack marks idx as ACKed at the link level. Caller must hold tt.mu.
func (tt *transactionTable) ack(idx uint8) {
	tt.slots[idx].acked = true
	tt.slots[idx].cond.Broadcast()
}

// waitResult mirrors the numeric wait-loop outcomes.
type waitResult int

const (
	waitOK      waitResult = 0
	waitTimeout waitResult = -20
	waitNAK     waitResult = -21
)

// wait blocks the caller until idx's slot is marked responded or maxTicks
// ticks of tickInterval have elapsed, whichever comes first. Caller must
// hold tt.mu; wait releases and reacquires it.
func (tt *transactionTable) wait(idx uint8, maxTicks int) (frame []byte, result waitResult) {
	s := &tt.slots[idx]
	deadline := time.Now().Add(time.Duration(maxTicks) * tickInterval * time.Millisecond)

	for !s.responded {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, waitTimeout
		}

		timer := time.AfterFunc(remaining, func() {
			tt.mu.Lock()
			s.cond.Broadcast()
			tt.mu.Unlock()
		})
		s.cond.Wait()
		timer.Stop()
	}

	if s.checksumFailed {
		return nil, waitNAK
	}

	return s.lastFrame, waitOK
}
