package netmd

import "fmt"

// DefaultChunkSize is the encryption chunk size used when a track sets none
const DefaultChunkSize = 0x100000

var (
	trackContentID = []byte{
		0x01, 0x0f, 0x50, 0x00, 0x00, 0x04, 0x00, 0x00, 0x00, 0x48,
		0xa2, 0x8d, 0x3e, 0x1a, 0x3b, 0x0c, 0x44, 0xaf, 0x2f, 0xa0,
	}
	trackKEK = []byte{0x14, 0xe3, 0x83, 0x4e, 0xe2, 0xd3, 0xcc, 0xa5}
)

// Track is audio waiting to be downloaded to the device
type Track struct {
	Title          string
	FullWidthTitle string
	Format         Wireformat
	Data           []byte
	ChunkSize      int
}

// NewTrack validates format and returns a track using the default chunk size
func NewTrack(title string, format Wireformat, data []byte) (*Track, error) {
	if _, ok := FrameSize[format]; !ok {
		return nil, fmt.Errorf("%w: wireformat 0x%02x", ErrValidation, byte(format))
	}
	return &Track{Title: title, Format: format, Data: data, ChunkSize: DefaultChunkSize}, nil
}

// FrameSize returns the frame length of the track's wireformat
func (t *Track) FrameSize() int {
	return FrameSize[t.Format]
}

// TotalSize returns the data length padded to whole frames
func (t *Track) TotalSize() int {
	frame := t.FrameSize()
	n := len(t.Data)
	if frame > 0 && n%frame != 0 {
		n += frame - n%frame
	}
	return n
}

// FrameCount returns the number of frames in the padded data
func (t *Track) FrameCount() int {
	if t.FrameSize() == 0 {
		return 0
	}
	return t.TotalSize() / t.FrameSize()
}

// ContentID returns the fixed content ID sent with every download
func (t *Track) ContentID() []byte {
	return append([]byte(nil), trackContentID...)
}

// KEK returns the fixed key encryption key
func (t *Track) KEK() []byte {
	return append([]byte(nil), trackKEK...)
}

// DiscFormat returns the on-disc format the wireformat is recorded as
func (t *Track) DiscFormat() DiscFormat {
	return discFormatForWire[t.Format]
}
