package df1

import (
	"fmt"
	"sync"
)

// Client is the top-level handle an application holds: it owns the
// transport, the link-layer state machine, and the per-processor state
// (currently probed family) needed to drive the typed read/write engine
// and the directory/upload/download driver.
type Client struct {
	mu     sync.Mutex
	cfg    *Config
	link   *Link
	events Events

	transport Transport

	haveProcessorType bool
	processorType     ProcessorFamily
}

// NewClient builds a Client from cfg, constructing a serial transport
// (or, for protocol==ProtocolDH485, the same transport with the DH485
// overlay enabled inside the Link). events may be nil.
func NewClient(cfg *Config, events Events) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfiguration
	}
	cfg.applyDefaults()

	transport := newSerialTransport(&SerialConfig{
		Port:   cfg.Port,
		Baud:   cfg.Baud,
		Parity: cfg.Parity,
	})

	return newClientWithTransport(cfg, events, transport)
}

// newClientWithTransport builds a Client over an arbitrary Transport,
// bypassing the serial-specific construction in NewClient. Used by tests
// to substitute a fake transport.
func newClientWithTransport(cfg *Config, events Events, transport Transport) (*Client, error) {
	if events == nil {
		events = NoopEvents{}
	}

	link := NewLink(transport, cfg, events, nil)

	return &Client{
		cfg:       cfg,
		link:      link,
		events:    events,
		transport: transport,
	}, nil
}

// Open opens the underlying transport.
func (c *Client) Open() error {
	return c.link.Open()
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.link.Close()
}

// execute runs one PCCC command/function exchange to completion: allocate
// a TNS, build the wire packet for the configured protocol, hand it to the
// link layer, and wait for the reply, retrying the whole exchange up to
// two more times on any failure (link error, wait timeout or NAK, or a
// non-zero PCCC status).
func (c *Client) execute(command uint8, function uint8, data []byte) (pccc, error) {
	var lastErr error

	for attempt := 0; attempt <= 2; attempt++ {
		p, err := c.executeOnce(command, function, data)
		if err == nil {
			return p, nil
		}
		lastErr = err
	}

	return pccc{}, lastErr
}

// executeOnce runs a single (non-retried) PCCC exchange.
func (c *Client) executeOnce(command uint8, function uint8, data []byte) (pccc, error) {
	c.mu.Lock()
	tns := c.link.NextTNS()
	idx := lowByte(tns)
	c.link.ResetSlot(idx)
	c.mu.Unlock()

	var packet []byte
	if c.cfg.Protocol == ProtocolDH485 {
		packet = buildDH485Packet(c.cfg.TargetNode, c.cfg.MyNode, 0, command, tns, function, data)
	} else {
		packet = buildDF1Packet(c.cfg.TargetNode, c.cfg.MyNode, command, tns, function, data)
	}

	if err := c.link.SendData(idx, packet); err != nil {
		return pccc{}, err
	}

	if c.cfg.AsyncMode {
		return pccc{}, nil
	}

	frame, result := c.link.Wait(idx)
	if err := errorForWaitResult(result); err != nil {
		return pccc{}, err
	}

	p, ok := parsePCCCReply(c.cfg.Protocol, frame)
	if !ok {
		return pccc{}, ErrNoDataReturned
	}

	if p.status != 0 {
		msg := DecodeStatus(p.status, p.hasExtStatus, p.extStatus)
		return p, fmt.Errorf("%s", msg)
	}

	return p, nil
}

// GetProcessorType issues a PCCC diagnostic-status request (command 0x06,
// function 0x03) and extracts the processor-family byte from the reply's
// third data byte. The result is cached on the Client and used by
// ReadDirectory/Upload/Download to select the correct family-specific
// geometry, making the probe an explicit precondition rather than an
// ambient default populated incidentally by some earlier call.
func (c *Client) GetProcessorType() (ProcessorFamily, error) {
	p, err := c.execute(0x06, 0x03, nil)
	if err != nil {
		return 0, err
	}
	if len(p.data) < 3 {
		return 0, ErrNoDataReturned
	}

	c.mu.Lock()
	c.processorType = ProcessorFamily(p.data[2])
	c.haveProcessorType = true
	c.mu.Unlock()

	return c.processorType, nil
}

// processorFamily returns the cached processor family, probing it via
// GetProcessorType if it hasn't been established yet.
func (c *Client) processorFamily() (ProcessorFamily, error) {
	c.mu.Lock()
	have, family := c.haveProcessorType, c.processorType
	c.mu.Unlock()

	if have {
		return family, nil
	}
	return c.GetProcessorType()
}
