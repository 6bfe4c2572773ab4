package df1

import (
	"math/rand"
	"sync"
	"testing"
	"time"
)

func TestTNSNeverZeroAfterWrap(t *testing.T) {
	tns := newTNSAllocator(rand.New(rand.NewSource(42)))
	tns.value = 65535

	first := tns.next()
	second := tns.next()

	if first != 1 || second != 2 {
		t.Errorf("expected 1 then 2 after wrap, got %d then %d", first, second)
	}
}

func TestTNSSeedRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		tns := newTNSAllocator(rand.New(rand.NewSource(int64(i))))
		if tns.value < 1 || tns.value > 128 {
			t.Fatalf("seed %d out of [1,128]: %d", i, tns.value)
		}
	}
}

func TestTransactionTableWaitSuccess(t *testing.T) {
	var mu sync.Mutex
	tt := newTransactionTable(&mu)

	mu.Lock()
	tt.reset(5)
	mu.Unlock()

	go func() {
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		tt.complete(5, []byte{0xaa, 0xbb})
		mu.Unlock()
	}()

	mu.Lock()
	frame, res := tt.wait(5, 50)
	mu.Unlock()

	if res != waitOK {
		t.Fatalf("expected waitOK, got %v", res)
	}
	if len(frame) != 2 || frame[0] != 0xaa {
		t.Errorf("unexpected frame: %v", frame)
	}
}

func TestTransactionTableWaitChecksumFailure(t *testing.T) {
	var mu sync.Mutex
	tt := newTransactionTable(&mu)

	mu.Lock()
	tt.reset(7)
	mu.Unlock()

	go func() {
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		tt.completeChecksumFailure(7)
		mu.Unlock()
	}()

	mu.Lock()
	frame, res := tt.wait(7, 50)
	mu.Unlock()

	if res != waitNAK {
		t.Fatalf("expected waitNAK, got %v", res)
	}
	if frame != nil {
		t.Errorf("expected nil frame on checksum failure, got %v", frame)
	}
}

func TestTransactionTableWaitTimeout(t *testing.T) {
	var mu sync.Mutex
	tt := newTransactionTable(&mu)

	mu.Lock()
	tt.reset(9)
	_, res := tt.wait(9, 2)
	mu.Unlock()

	if res != waitTimeout {
		t.Errorf("expected waitTimeout, got %v", res)
	}
}
