package df1

import (
	"fmt"
)

// Error is a simple string-backed error type.
type Error string

func (e Error) Error() string {
	return string(e)
}

// Link-level and application-level errors.
const (
	ErrNAK               Error = "NAK from peer"
	ErrNoResponse        Error = "no response"
	ErrInvalidAddress    Error = "invalid address"
	ErrOpenFailed        Error = "could not open transport"
	ErrEmptyData         Error = "empty data supplied"
	ErrNoDataReturned    Error = "no data returned from peer"
	ErrResponseTimeout   Error = "response timeout"
	ErrNAKOnChecksum     Error = "peer NAK'd due to our checksum failure on received data"
	ErrProtocolViolation Error = "protocol violation"
	ErrConfiguration     Error = "configuration error"
	ErrUnexpectedParams  Error = "unexpected parameters"
)

// errorForWaitResult converts a transaction-table wait outcome into an
// error.
func errorForWaitResult(r waitResult) error {
	switch r {
	case waitOK:
		return nil
	case waitTimeout:
		return ErrResponseTimeout
	case waitNAK:
		return ErrNAKOnChecksum
	default:
		return ErrProtocolViolation
	}
}

// statusMessages maps the PCCC STS byte values to human-readable text.
var statusMessages = map[uint8]string{
	16:  "illegal command or format",
	32:  "controller has a problem and cannot respond",
	48:  "remote node host is missing, disconnected, or shut down",
	64:  "host could not complete function due to hardware fault",
	80:  "addressing problem or memory protect rungs",
	96:  "function not allowed due to command protection selection",
	112: "processor is in program mode",
	128: "compatibility mode file missing or communication zone problem",
	144: "remote node cannot buffer command",
}

// extendedStatusMessages maps EXT STS mnemonics to text.
var extendedStatusMessages = map[int]string{
	257: "a field has an illegal value",
	258: "less levels specified in address than minimum for any address",
	259: "more levels specified in address than system supports",
	260: "symbol not found",
	261: "symbol is of improper format",
	262: "address doesn't point to something usable",
	263: "file is wrong size",
	264: "cannot complete request, situation has changed since the start of the command",
	265: "data or file is too large",
	266: "transaction size plus word address is too large",
	267: "access denied, improper privilege",
	268: "condition cannot be generated - resource is not available",
	269: "condition already exists - resource is already available",
	270: "command cannot be executed",
}

// DecodeStatus turns a PCCC STS byte (and, when STS==0xf0, the trailing EXT
// STS byte) into a human-readable diagnostic. Unknown codes stringify as
// "Unknown Message - <n>".
func DecodeStatus(status uint8, hasExt bool, ext uint8) string {
	if status == 0 {
		return "success"
	}

	if status == 0xf0 {
		code := 0x100 + int(ext)
		if !hasExt {
			return "Unknown Message - 240"
		}
		if msg, ok := extendedStatusMessages[code]; ok {
			return msg
		}
		return fmt.Sprintf("Unknown Message - %d", code)
	}

	if msg, ok := statusMessages[status]; ok {
		return msg
	}

	return fmt.Sprintf("Unknown Message - %d", status)
}

// StatusCode returns the numeric error code for a PCCC reply: 0 on success,
// 240 when STS==0xf0 (extended status present, folded into 0x100+EXT by the
// caller via DecodeStatus), or the raw STS byte otherwise.
func StatusCode(status uint8) int {
	if status == 0xf0 {
		return 240
	}
	return int(status)
}
