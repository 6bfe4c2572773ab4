package df1

// Transport is the byte-level link a *Link drives: open/close a named byte
// transport and read/write raw bytes.
type Transport interface {
	Open() error
	Close() error
	// Read blocks (up to an implementation-defined poll interval) and
	// returns any bytes currently available. Returning (0, nil) on a
	// read timeout is expected and is not treated as an error.
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}
