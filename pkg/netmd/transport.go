// Package netmd implements the host side of the NetMD protocol spoken by
// MiniDisc recorders over USB: the device link, the command set, the secure
// session used to download tracks and the track encryption pipeline.
package netmd

// Transport is the byte pipe to a device. Control transfers are vendor class
// requests addressed to the interface; bulk transfers use the fixed endpoints
// below.
type Transport interface {
	ControlIn(request uint8, length int) ([]byte, error)
	ControlOut(request uint8, data []byte) error
	BulkIn(length int) ([]byte, error)
	BulkOut(data []byte) (int, error)
	Close() error
}

// Vendor control request codes
const (
	RequestReplyLength  uint8 = 0x01
	RequestSendCommand  uint8 = 0x80
	RequestReadReply    uint8 = 0x81
	RequestFactoryQuery uint8 = 0xff
)

// Bulk endpoints
const (
	BulkWriteEndpoint = 0x02
	BulkReadEndpoint  = 0x81
)

// Status codes. The first group prefixes requests, the second is the first
// byte of a reply.
const (
	StatusControl         byte = 0x00
	StatusStatus          byte = 0x01
	StatusSpecificInquiry byte = 0x02
	StatusNotify          byte = 0x03
	StatusGeneralInquiry  byte = 0x04

	StatusNotImplemented byte = 0x08
	StatusAccepted       byte = 0x09
	StatusRejected       byte = 0x0a
	StatusInTransition   byte = 0x0b
	StatusImplemented    byte = 0x0c
	StatusChanged        byte = 0x0d
	StatusInterim        byte = 0x0f
)
