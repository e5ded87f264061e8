package pkg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hansbonini/mdtools/pkg/common"
	"github.com/hansbonini/mdtools/pkg/netmd"
)

// AudioFile is audio ready to be sent to a device
type AudioFile struct {
	Format netmd.Wireformat
	Data   []byte
}

// wavFormat is the common part of a WAV fmt chunk
type wavFormat struct {
	FormatTag     uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// AudioDecoder reads the audio files accepted by the send command
type AudioDecoder struct{}

// NewAudioDecoder creates a new audio decoder instance
func NewAudioDecoder() *AudioDecoder {
	return &AudioDecoder{}
}

// wireformatForBlockAlign maps ATRAC3 stereo frame sizes to wire formats
var wireformatForBlockAlign = map[uint16]netmd.Wireformat{
	uint16(netmd.FrameSize[netmd.WireformatLP2] * 2):      netmd.WireformatLP2,
	uint16(netmd.FrameSize[netmd.WireformatL105kbps] * 2): netmd.WireformatL105kbps,
	uint16(netmd.FrameSize[netmd.WireformatLP4] * 2):      netmd.WireformatLP4,
}

// DecodeWAV reads a RIFF WAV file. 16 bit stereo 44.1kHz PCM is converted
// to the big-endian samples the device expects; ATRAC3 data is passed
// through with the wire format its frame size implies.
func (d *AudioDecoder) DecodeWAV(reader io.Reader) (*AudioFile, error) {
	var riff struct {
		RIFF [4]byte
		Size uint32
		WAVE [4]byte
	}
	if err := binary.Read(reader, binary.LittleEndian, &riff); err != nil {
		return nil, fmt.Errorf("failed to read RIFF header: %w", err)
	}
	if err := common.ValidateRIFFHeader(riff.RIFF, riff.WAVE); err != nil {
		return nil, err
	}

	var format *wavFormat
	for {
		id, err := common.ReadBytes(reader, 4)
		if err != nil {
			return nil, fmt.Errorf("failed to read chunk header: %w", err)
		}
		size, err := common.ReadUint32LE(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read chunk size: %w", err)
		}
		body, err := common.ReadBytes(reader, int(size))
		if err != nil {
			return nil, fmt.Errorf("failed to read %q chunk: %w", id, err)
		}

		switch string(id) {
		case "fmt ":
			format = &wavFormat{}
			if err := binary.Read(bytes.NewReader(body), binary.LittleEndian, format); err != nil {
				return nil, fmt.Errorf("failed to read fmt chunk: %w", err)
			}
		case "data":
			if format == nil {
				return nil, fmt.Errorf("data chunk before fmt chunk")
			}
			return d.audioFromWAV(format, body)
		}
		if size%2 == 1 {
			if err := common.SkipBytes(reader, 1); err != nil {
				return nil, fmt.Errorf("failed to read chunk padding: %w", err)
			}
		}
	}
}

func (d *AudioDecoder) audioFromWAV(format *wavFormat, data []byte) (*AudioFile, error) {
	switch format.FormatTag {
	case WAVFormatPCM:
		if format.Channels != 2 || format.SampleRate != SampleRate || format.BitsPerSample != 16 {
			return nil, fmt.Errorf("unsupported PCM format: %d channels, %d Hz, %d bits",
				format.Channels, format.SampleRate, format.BitsPerSample)
		}
		samples := data[:len(data)&^1]
		common.SwapBytes16(samples)
		return &AudioFile{Format: netmd.WireformatPCM, Data: samples}, nil
	case WAVFormatATRAC3:
		wire, ok := wireformatForBlockAlign[format.BlockAlign]
		if !ok {
			return nil, fmt.Errorf("unsupported ATRAC3 frame size %d", format.BlockAlign)
		}
		return &AudioFile{Format: wire, Data: data}, nil
	}
	return nil, fmt.Errorf("unsupported WAV format tag 0x%04x", format.FormatTag)
}

// ReadAudioFile loads path for sending. WAV files describe their own
// format; anything else is raw data in the named format.
func ReadAudioFile(path, formatName string) (*AudioFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToReadAudio, err)
	}
	if len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE" {
		audio, err := NewAudioDecoder().DecodeWAV(bytes.NewReader(data))
		if err != nil {
			return nil, common.FormatError(common.ErrFailedToReadAudio, err)
		}
		common.LogDebug("%s: WAV with wire format 0x%02x, %d bytes", path, audio.Format, len(audio.Data))
		return audio, nil
	}

	wire, ok := WireformatByName[formatName]
	if !ok {
		return nil, common.FormatErrorString(common.ErrUnknownWireformat, "%q", formatName)
	}
	return &AudioFile{Format: wire, Data: data}, nil
}
