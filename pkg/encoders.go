// This file contains the encoders for the container headers written in
// front of audio read back from a disc.
package pkg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hansbonini/mdtools/pkg/common"
	"github.com/hansbonini/mdtools/pkg/netmd"
)

// Container constants
const (
	AEAHeaderSize   = 2048
	aeaTitleSize    = 256
	WAVHeaderSize   = 60
	WAVFormatPCM    = 0x0001
	WAVFormatATRAC3 = 0x0270
	SampleRate      = 44100
	// atrac3SamplesPerFrame is the sample count of one stereo ATRAC3 frame
	atrac3SamplesPerFrame = 2048
)

// AEAHeader is the fixed header of an ATRAC1 AEA file
type AEAHeader struct {
	Magic       uint32 // header size, 2048
	Title       [aeaTitleSize]byte
	SoundGroups uint32 // number of 212 byte sound groups
	Channels    uint8
	_           uint8
	Flags       [8]uint32
	_           uint32
	Encrypted   uint32
	GroupStart  uint32
	_           [AEAHeaderSize - 310]byte
}

// ATRACWAVHeader is the RIFF header of an ATRAC3 stream. The fmt chunk
// carries the 14 byte ATRAC3 extension.
type ATRACWAVHeader struct {
	RIFF          [4]byte
	RIFFSize      uint32
	WAVE          [4]byte
	FmtID         [4]byte
	FmtSize       uint32
	FormatTag     uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	ExtraSize     uint16
	Unknown       uint16
	SamplesPerCh  uint32
	CodingMode    uint16
	CodingMode2   uint16
	FrameFactor   uint16
	Reserved      uint16
	DataID        [4]byte
	DataSize      uint32
}

// HeaderEncoder builds AEA and WAV container headers
type HeaderEncoder struct{}

// NewHeaderEncoder creates a new header encoder instance
func NewHeaderEncoder() *HeaderEncoder {
	return &HeaderEncoder{}
}

// AEAHeader returns the 2048 byte AEA header for an SP track of frames
// sound groups. The title is truncated to keep its NUL terminator.
func (e *HeaderEncoder) AEAHeader(title string, channels, frames int) ([]byte, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: AEA files hold 1 or 2 channels, got %d", netmd.ErrValidation, channels)
	}
	soundGroups, err := common.SafeIntToUint32(frames)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", netmd.ErrValidation, err)
	}
	h := AEAHeader{
		Magic:       AEAHeaderSize,
		SoundGroups: soundGroups,
		Channels:    uint8(channels),
	}
	copy(h.Title[:aeaTitleSize-1], title)

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("failed to encode AEA header: %w", err)
	}
	return buf.Bytes(), nil
}

// atracBlockAlign returns the stereo frame size and joint stereo flag of an
// LP disc format.
func atracBlockAlign(format netmd.DiscFormat) (int, bool, error) {
	switch format {
	case netmd.DiscFormatLP2:
		return netmd.FrameSize[netmd.WireformatLP2] * 2, false, nil
	case netmd.DiscFormatLP4:
		return netmd.FrameSize[netmd.WireformatLP4] * 2, true, nil
	}
	return 0, false, fmt.Errorf("%w: no ATRAC3 container for disc format %d", netmd.ErrValidation, format)
}

// WAVHeader returns the 60 byte ATRAC3 WAV header for dataSize bytes of an
// LP2 or LP4 track.
func (e *HeaderEncoder) WAVHeader(format netmd.DiscFormat, dataSize int) ([]byte, error) {
	blockAlign, jointStereo, err := atracBlockAlign(format)
	if err != nil {
		return nil, err
	}
	size, err := common.SafeIntToUint32(dataSize)
	if err != nil || size > math.MaxUint32-WAVHeaderSize {
		return nil, fmt.Errorf("%w: data size %d does not fit a WAV file", netmd.ErrValidation, dataSize)
	}
	var coding uint16
	if jointStereo {
		coding = 1
	}
	h := ATRACWAVHeader{
		RIFF:          [4]byte{'R', 'I', 'F', 'F'},
		RIFFSize:      WAVHeaderSize - 8 + size,
		WAVE:          [4]byte{'W', 'A', 'V', 'E'},
		FmtID:         [4]byte{'f', 'm', 't', ' '},
		FmtSize:       32,
		FormatTag:     WAVFormatATRAC3,
		Channels:      2,
		SampleRate:    SampleRate,
		ByteRate:      uint32(blockAlign * SampleRate / 1024),
		BlockAlign:    uint16(blockAlign),
		ExtraSize:     14,
		Unknown:       1,
		SamplesPerCh:  atrac3SamplesPerFrame,
		CodingMode:    coding,
		CodingMode2:   coding,
		FrameFactor:   1,
		DataID:        [4]byte{'d', 'a', 't', 'a'},
		DataSize:      size,
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("failed to encode WAV header: %w", err)
	}
	return buf.Bytes(), nil
}
