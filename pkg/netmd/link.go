package netmd

import (
	"fmt"
	"time"

	"github.com/hansbonini/mdtools/pkg/common"
)

// DefaultBulkChunkSize is the read size used by ReadBulk when none is given
const DefaultBulkChunkSize = 0x10000

// maxBackoffShift bounds the poll backoff exponent so the sleep never overflows
const maxBackoffShift = 16

// Link moves raw frames between the host and one device. It polls the reply
// length register before reading replies and does not interpret status bytes.
type Link struct {
	transport Transport

	Vendor  uint16
	Product uint16
	Name    string

	// PollInterval is the base sleep between reply length polls. The sleep
	// doubles every ten unsuccessful polls.
	PollInterval time.Duration
	// MaxPollAttempts bounds the poll loop; zero polls forever.
	MaxPollAttempts int

	sleep func(time.Duration)
}

// NewLink wraps a transport opened on the device identified by vendor and product
func NewLink(transport Transport, vendor, product uint16, name string) *Link {
	return &Link{
		transport:    transport,
		Vendor:       vendor,
		Product:      product,
		Name:         name,
		PollInterval: time.Duration(common.DefaultPollIntervalMs) * time.Millisecond,
		sleep:        time.Sleep,
	}
}

// Configure applies the poll settings of cfg
func (l *Link) Configure(cfg common.Config) {
	l.PollInterval = cfg.PollInterval()
	l.MaxPollAttempts = cfg.MaxPollAttempts
}

// Init drains a reply left pending by an earlier session
func (l *Link) Init() error {
	length, err := l.ReplyLength()
	if err != nil {
		return err
	}
	if length > 0 {
		common.LogDebug("Draining stale reply of %d bytes", length)
		if _, err := l.transport.ControlIn(RequestReadReply, length); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the transport
func (l *Link) Close() error {
	return l.transport.Close()
}

// ReplyLength reads the reply length register
func (l *Link) ReplyLength() (int, error) {
	data, err := l.transport.ControlIn(RequestReplyLength, 4)
	if err != nil {
		return 0, err
	}
	if len(data) < 3 {
		return 0, nil
	}
	return int(data[2]), nil
}

// SendCommand sends a NetMD command frame
func (l *Link) SendCommand(command []byte) error {
	common.LogDebug(common.DebugSendCommand, command)
	return l.transport.ControlOut(RequestSendCommand, command)
}

// ReadReply waits for a reply and reads it, status byte included
func (l *Link) ReadReply() ([]byte, error) {
	return l.readWith(RequestReadReply)
}

// SendFactoryCommand sends a factory mode command frame
func (l *Link) SendFactoryCommand(command []byte) error {
	common.LogDebug(common.DebugSendCommand, command)
	return l.transport.ControlOut(RequestFactoryQuery, command)
}

// ReadFactoryReply waits for a factory mode reply and reads it
func (l *Link) ReadFactoryReply() ([]byte, error) {
	return l.readWith(RequestFactoryQuery)
}

func (l *Link) readWith(request uint8) ([]byte, error) {
	length, err := l.waitForReply()
	if err != nil {
		return nil, err
	}
	reply, err := l.transport.ControlIn(request, length)
	if err != nil {
		return nil, err
	}
	common.LogDebug(common.DebugReadReply, reply)
	return reply, nil
}

func (l *Link) waitForReply() (int, error) {
	for attempt := 0; ; attempt++ {
		length, err := l.ReplyLength()
		if err != nil {
			return 0, err
		}
		if length > 0 {
			return length, nil
		}
		common.LogDebug(common.DebugReplyLength, length, attempt+1)
		if l.MaxPollAttempts > 0 && attempt+1 >= l.MaxPollAttempts {
			return 0, fmt.Errorf("%w after %d polls", ErrPollTimeout, attempt+1)
		}
		l.pause(l.pollBackoff(attempt))
	}
}

func (l *Link) pollBackoff(attempt int) time.Duration {
	shift := attempt / 10
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	return l.PollInterval * time.Duration(1<<shift)
}

// ReadBulk reads length bytes from the bulk IN endpoint in chunks of at most
// chunkSize bytes, reporting progress after each chunk.
func (l *Link) ReadBulk(length, chunkSize int, progress func(total, read int)) ([]byte, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultBulkChunkSize
	}
	data := make([]byte, 0, length)
	for len(data) < length {
		want := length - len(data)
		if want > chunkSize {
			want = chunkSize
		}
		chunk, err := l.transport.BulkIn(want)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			return nil, fmt.Errorf("bulk read returned no data at %d of %d bytes", len(data), length)
		}
		data = append(data, chunk...)
		common.LogDebug(common.DebugBulkRead, len(data), length)
		if progress != nil {
			progress(length, len(data))
		}
	}
	return data[:length], nil
}

// WriteBulk writes data to the bulk OUT endpoint
func (l *Link) WriteBulk(data []byte) error {
	for written := 0; written < len(data); {
		n, err := l.transport.BulkOut(data[written:])
		if err != nil {
			return err
		}
		if n <= 0 {
			return fmt.Errorf("bulk write stalled at %d of %d bytes", written, len(data))
		}
		written += n
	}
	return nil
}

// pause sleeps for d using the link's clock
func (l *Link) pause(d time.Duration) {
	if l.sleep == nil {
		time.Sleep(d)
		return
	}
	l.sleep(d)
}
