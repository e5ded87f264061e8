package netmd

import "github.com/hansbonini/mdtools/pkg/common"

// DiscFormat is the on-disc sound format of a track
type DiscFormat byte

const (
	DiscFormatLP4      DiscFormat = 0
	DiscFormatLP2      DiscFormat = 2
	DiscFormatSPMono   DiscFormat = 4
	DiscFormatSPStereo DiscFormat = 6
)

// Wireformat is the format of audio data sent to the device
type Wireformat byte

const (
	WireformatPCM      Wireformat = 0x00
	WireformatL105kbps Wireformat = 0x90
	WireformatLP2      Wireformat = 0x94
	WireformatLP4      Wireformat = 0xa8
)

// FrameSize maps each wireformat to its frame length in bytes
var FrameSize = map[Wireformat]int{
	WireformatPCM:      2048,
	WireformatLP2:      192,
	WireformatL105kbps: 152,
	WireformatLP4:      96,
}

var discFormatForWire = map[Wireformat]DiscFormat{
	WireformatPCM:      DiscFormatSPStereo,
	WireformatLP2:      DiscFormatLP2,
	WireformatL105kbps: DiscFormatLP2,
	WireformatLP4:      DiscFormatLP4,
}

// Encoding is the track encoding reported by the device
type Encoding byte

const (
	EncodingSP  Encoding = 0x90
	EncodingLP2 Encoding = 0x92
	EncodingLP4 Encoding = 0x93
)

func (e Encoding) String() string {
	switch e {
	case EncodingSP:
		return "sp"
	case EncodingLP2:
		return "lp2"
	case EncodingLP4:
		return "lp4"
	}
	return "unknown"
}

// MarshalYAML writes the encoding by name
func (e Encoding) MarshalYAML() (interface{}, error) { return e.String(), nil }

// Channels is the channel mode of a track
type Channels byte

const (
	ChannelsStereo Channels = 0x00
	ChannelsMono   Channels = 0x01
)

func (c Channels) String() string {
	switch c {
	case ChannelsStereo:
		return "stereo"
	case ChannelsMono:
		return "mono"
	}
	return "unknown"
}

// MarshalYAML writes the channel mode by name
func (c Channels) MarshalYAML() (interface{}, error) { return c.String(), nil }

// TrackFlag is the protection flag of a track
type TrackFlag byte

const (
	TrackUnprotected TrackFlag = 0x00
	TrackProtected   TrackFlag = 0x03
)

func (f TrackFlag) String() string {
	switch f {
	case TrackProtected:
		return "protected"
	case TrackUnprotected:
		return "unprotected"
	}
	return "unknown"
}

// MarshalYAML writes the flag by name
func (f TrackFlag) MarshalYAML() (interface{}, error) { return f.String(), nil }

// Disc flag bits
const (
	DiscFlagWritable       byte = 0x10
	DiscFlagWriteProtected byte = 0x40
)

// NetMDLevel is the implementation profile of the MiniDisc media type
type NetMDLevel byte

const (
	NetMDLevel1 NetMDLevel = 0x20
	NetMDLevel2 NetMDLevel = 0x50
	NetMDLevel3 NetMDLevel = 0x70
)

// Time is a disc position or duration as stored by the device
type Time struct {
	Hour   int `yaml:"hour"`
	Minute int `yaml:"minute"`
	Second int `yaml:"second"`
	Frame  int `yaml:"frame"`
}

// Frames converts t to a frame count
func (t Time) Frames() int {
	return common.TimeToFrames(t.Hour, t.Minute, t.Second, t.Frame)
}

func (t Time) String() string {
	return common.FormatTimeFromFrames(t.Frames())
}
