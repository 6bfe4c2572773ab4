package df1

import (
	"time"

	"go.bug.st/serial"
)

// serialTransport wraps a go.bug.st/serial port to satisfy the Transport
// interface. Read() never blocks longer than a short internal
// timeout so the Link's reader goroutine can keep servicing Close().
type serialTransport struct {
	conf *SerialConfig
	port serial.Port
}

// SerialConfig carries the subset of the configuration surface that
// concerns the physical port: device name, baud, parity, and frame shape
// (data bits fixed at 8, stop bits fixed at 1, no handshake).
type SerialConfig struct {
	Port   string
	Baud   uint
	Parity Parity
}

func newSerialTransport(conf *SerialConfig) *serialTransport {
	return &serialTransport{conf: conf}
}

func toLibParity(p Parity) serial.Parity {
	switch p {
	case ParityEven:
		return serial.EvenParity
	case ParityOdd:
		return serial.OddParity
	default:
		return serial.NoParity
	}
}

// Open configures baud/parity/8 data bits/1 stop bit/no handshake and opens
// the named port.
func (st *serialTransport) Open() error {
	port, err := serial.Open(st.conf.Port, &serial.Mode{
		BaudRate: int(st.conf.Baud),
		DataBits: 8,
		Parity:   toLibParity(st.conf.Parity),
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return err
	}

	// a short read timeout lets the reader goroutine poll for shutdown
	// without blocking indefinitely on an idle line
	_ = port.SetReadTimeout(20 * time.Millisecond)

	st.port = port
	return nil
}

// Close discards in-buffer data and releases the port.
func (st *serialTransport) Close() error {
	if st.port == nil {
		return nil
	}
	_ = st.port.ResetInputBuffer()
	return st.port.Close()
}

// Read returns whatever bytes are currently available. The library reports
// an idle line (its read timeout expiring) as (0, nil); any other error is
// passed on to the caller.
func (st *serialTransport) Read(p []byte) (int, error) {
	return st.port.Read(p)
}

// Write sends p over the wire.
func (st *serialTransport) Write(p []byte) (int, error) {
	return st.port.Write(p)
}

// Reconfigure closes and reopens the port with a new baud/parity, used by
// the auto-detect sweep.
func (st *serialTransport) Reconfigure(baud uint, parity Parity) error {
	st.conf.Baud = baud
	st.conf.Parity = parity
	_ = st.Close()
	return st.Open()
}

// reconfigurable is implemented by transports that support changing
// baud/parity in place, such as serialTransport. Transports used purely in
// tests need not implement it; auto-detect degrades to probing the current
// settings only when it's absent.
type reconfigurable interface {
	Reconfigure(baud uint, parity Parity) error
}
