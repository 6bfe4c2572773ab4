package df1

// autoDetectBauds and autoDetectParities are the sweep orders: fastest-first
// baud, None before Even parity.
var (
	autoDetectBauds    = []uint{38400, 19200, 9600}
	autoDetectParities = []Parity{ParityNone, ParityEven}
	autoDetectChecksums = []ChecksumKind{ChecksumCRC, ChecksumBCC}
)

// autoDetectMaxTicks is the reduced wait bound used during probing.
const autoDetectMaxTicks = 3

// AutoDetect sweeps baud, parity and checksum combinations, emitting an
// AutoDetectTry event per attempt, until one combination gets any reply
// (ACK or NAK) to a bare ENQ probe. On success the winning settings are
// left in place on c.cfg and the link is reopened with them; on a
// transport open failure the sweep aborts immediately, returning
// ErrOpenFailed.
func (c *Client) AutoDetect() error {
	c.link.SetMaxTicks(autoDetectMaxTicks)
	defer c.link.SetMaxTicks(DefaultMaxTicks)

	rc, supportsReconfigure := c.transport.(reconfigurable)

	for _, baud := range autoDetectBauds {
		for _, parity := range autoDetectParities {
			for _, checksum := range autoDetectChecksums {
				c.events.AutoDetectTry(baud, parity, checksum)

				if err := c.link.Close(); err != nil {
					return err
				}

				if supportsReconfigure {
					if err := rc.Reconfigure(baud, parity); err != nil {
						return ErrOpenFailed
					}
				}

				c.cfg.Baud = baud
				c.cfg.Parity = parity
				c.cfg.Checksum = checksum

				if err := c.link.Open(); err != nil {
					return ErrOpenFailed
				}

				if err := c.link.SendENQ(); err == nil {
					return nil
				}
			}
		}
	}

	return ErrNoResponse
}

// modeControlFnML1000 and modeControlFnDefault are the mode-control
// function codes: ML1000 (processor code 0x58) uses function 0x3A with a
// mode byte; every other family uses function 0x80.
const (
	modeControlFnML1000  uint8 = 0x3a
	modeControlFnDefault uint8 = 0x80
)

// RunMode is the target controller mode for SetMode.
type RunMode int

const (
	ModeProgram RunMode = iota
	ModeRun
)

// SetMode switches the controller between program and run mode, selecting
// the function code and mode byte appropriate to family.
func (c *Client) SetMode(family ProcessorFamily, mode RunMode) error {
	function := modeControlFnDefault
	if family == FamilyML1000 {
		function = modeControlFnML1000
	}

	var data []byte
	if family == FamilyML1000 {
		if mode == ModeProgram {
			data = []byte{0x01}
		} else {
			data = []byte{0x06}
		}
	} else {
		if mode == ModeProgram {
			data = []byte{0x00}
		} else {
			data = []byte{0x02}
		}
	}

	_, err := c.execute(0x06, function, data)
	return err
}
