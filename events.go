package df1

// Events is the observer interface a caller implements to receive the
// asynchronous notifications raised by the link and application layers.
// All methods are called from whatever goroutine observed the event (the
// reader goroutine for DataReceived/UnsolicitedMessageReceived, the calling
// goroutine for the rest) and must not block for long.
type Events interface {
	DataReceived(tns uint16)
	UnsolicitedMessageReceived(tns uint16, command uint8)
	AutoDetectTry(baud uint, parity Parity, checksum ChecksumKind)
	UploadProgress(fileIndex, totalFiles int)
	DownloadProgress(fileIndex, totalFiles int)
}

// NoopEvents implements Events with no-op methods, for callers that don't
// need notifications.
type NoopEvents struct{}

func (NoopEvents) DataReceived(tns uint16)                                  {}
func (NoopEvents) UnsolicitedMessageReceived(tns uint16, command uint8)     {}
func (NoopEvents) AutoDetectTry(baud uint, parity Parity, checksum ChecksumKind) {}
func (NoopEvents) UploadProgress(fileIndex, totalFiles int)                 {}
func (NoopEvents) DownloadProgress(fileIndex, totalFiles int)               {}
