package netmd

import (
	"errors"
	"fmt"

	"github.com/hansbonini/mdtools/pkg/common"
	"github.com/hansbonini/mdtools/pkg/query"
)

// Descriptor names a device sub-resource that must be opened before use
type Descriptor string

const (
	DescriptorDiscTitleTD           Descriptor = "10 1801"
	DescriptorAudioUTOC1TD          Descriptor = "10 1802"
	DescriptorAudioUTOC4TD          Descriptor = "10 1803"
	DescriptorDSITD                 Descriptor = "10 1804"
	DescriptorAudioContentsTD       Descriptor = "10 1001"
	DescriptorRootTD                Descriptor = "10 1000"
	DescriptorDiscSubunitIdentifier Descriptor = "00"
	DescriptorOperatingStatusBlock  Descriptor = "80 00"
)

var descriptorNames = map[Descriptor]string{
	DescriptorDiscTitleTD:           "discTitleTD",
	DescriptorAudioUTOC1TD:          "audioUTOC1TD",
	DescriptorAudioUTOC4TD:          "audioUTOC4TD",
	DescriptorDSITD:                 "DSITD",
	DescriptorAudioContentsTD:       "audioContentsTD",
	DescriptorRootTD:                "rootTD",
	DescriptorDiscSubunitIdentifier: "discSubunitIdentifier",
	DescriptorOperatingStatusBlock:  "operatingStatusBlock",
}

func (d Descriptor) String() string {
	if name, ok := descriptorNames[d]; ok {
		return name
	}
	return string(d)
}

// DescriptorAction is a descriptor state transition
type DescriptorAction string

const (
	ActionOpenRead  DescriptorAction = "01"
	ActionOpenWrite DescriptorAction = "03"
	ActionClose     DescriptorAction = "00"
)

func (a DescriptorAction) String() string {
	switch a {
	case ActionOpenRead:
		return "openRead"
	case ActionOpenWrite:
		return "openWrite"
	case ActionClose:
		return "close"
	}
	return string(a)
}

// Interface implements the NetMD command set on top of a Link. Commands are
// strictly sequential; an Interface must not be used from several goroutines.
type Interface struct {
	link  *Link
	Retry StatusReader
}

// NewInterface returns an Interface with the default interim retry policy
func NewInterface(link *Link) *Interface {
	return &Interface{link: link, Retry: NewStatusReader()}
}

// Configure applies the retry and poll settings of cfg
func (md *Interface) Configure(cfg common.Config) {
	md.link.Configure(cfg)
	md.Retry.Interval = cfg.InterimInterval()
	md.Retry.MaxAttempts = cfg.MaxInterimAttempts
}

// Link returns the underlying device link
func (md *Interface) Link() *Link {
	return md.link
}

// SendCommand prefixes q with the control status byte, or the specific
// inquiry byte when test is set, and sends it.
func (md *Interface) SendCommand(q []byte, test bool) error {
	status := StatusControl
	if test {
		status = StatusSpecificInquiry
	}
	return md.link.SendCommand(append([]byte{status}, q...))
}

// ReadReply reads the next reply and strips its status byte
func (md *Interface) ReadReply(acceptInterim bool) ([]byte, error) {
	return md.Retry.Read(md.link.ReadReply, acceptInterim)
}

// SendQuery sends q and returns the reply payload
func (md *Interface) SendQuery(q []byte, test, acceptInterim bool) ([]byte, error) {
	if err := md.SendCommand(q, test); err != nil {
		return nil, err
	}
	return md.ReadReply(acceptInterim)
}

// transact formats a query, sends it and scans the reply against expect
func (md *Interface) transact(expect, template string, args ...interface{}) (query.Values, error) {
	q, err := query.Format(template, args...)
	if err != nil {
		return nil, err
	}
	reply, err := md.SendQuery(q, false, false)
	if err != nil {
		return nil, err
	}
	return query.Scan(reply, expect)
}

// ChangeDescriptorState opens or closes a descriptor. Failures are logged
// and otherwise ignored.
func (md *Interface) ChangeDescriptorState(d Descriptor, action DescriptorAction) {
	common.LogDebug(common.DebugDescriptorState, d, action)
	q, err := query.Format("1808 " + string(d) + " " + string(action) + " 00")
	if err == nil {
		_, err = md.SendQuery(q, false, false)
	}
	if err != nil {
		common.LogWarn(common.WarnDescriptorClose, d, action, err)
	}
}

// withDescriptor runs fn with d opened for reading
func (md *Interface) withDescriptor(d Descriptor, fn func() error) error {
	md.ChangeDescriptorState(d, ActionOpenRead)
	defer md.ChangeDescriptorState(d, ActionClose)
	return fn()
}

// MediaType describes one media type supported by the disc subunit
type MediaType struct {
	Type           uint16
	ProfileID      byte
	Attributes     byte
	AudioVersion   byte
	SupportsMDClip byte
}

// SubunitInfo is the decoded disc subunit identifier descriptor
type SubunitInfo struct {
	GenerationID   byte
	RootObjects    []int
	Attributes     byte
	Version        byte
	MediaTypes     []MediaType
	ManufacturerID []byte
}

// mediaTypeMiniDisc is the media type code of MiniDisc audio
const mediaTypeMiniDisc = 0x301

// NetMDLevel returns the implementation profile of the MiniDisc media type
func (s *SubunitInfo) NetMDLevel() (NetMDLevel, bool) {
	for _, mt := range s.MediaTypes {
		if mt.Type == mediaTypeMiniDisc {
			return NetMDLevel(mt.ProfileID), true
		}
	}
	return 0, false
}

type byteCursor struct {
	data []byte
	pos  int
	err  error
}

func (c *byteCursor) next(n int) int {
	if c.err != nil {
		return 0
	}
	if c.pos+n > len(c.data) {
		c.err = fmt.Errorf("subunit identifier truncated at %d", c.pos)
		return 0
	}
	v := 0
	for i := 0; i < n; i++ {
		v = v<<8 | int(c.data[c.pos])
		c.pos++
	}
	return v
}

// DiscSubunitIdentifier reads and decodes the disc subunit identifier
func (md *Interface) DiscSubunitIdentifier() (*SubunitInfo, error) {
	var info *SubunitInfo
	err := md.withDescriptor(DescriptorDiscSubunitIdentifier, func() error {
		res, err := md.transact("1809 00 1000 %?%? %?%? %w %b %b %b %b %w %*", "1809 00 ff00 0000 0000")
		if err != nil {
			return err
		}
		sizeOfListID := res.Int(2)
		rootLists := res.Int(5)
		c := &byteCursor{data: res.Bytes(6)}

		info = &SubunitInfo{GenerationID: byte(res.Uint(1))}
		for i := 0; i < rootLists; i++ {
			info.RootObjects = append(info.RootObjects, c.next(sizeOfListID))
		}
		c.next(2) // subunit dependent length
		c.next(2) // subunit fields length
		info.Attributes = byte(c.next(1))
		info.Version = byte(c.next(1))
		count := c.next(1)
		for i := 0; i < count; i++ {
			mt := MediaType{Type: uint16(c.next(2))}
			mt.ProfileID = byte(c.next(1))
			mt.Attributes = byte(c.next(1))
			c.next(2) // type dependent length
			mt.AudioVersion = byte(c.next(1))
			mt.SupportsMDClip = byte(c.next(1))
			info.MediaTypes = append(info.MediaTypes, mt)
		}
		if c.err != nil {
			return c.err
		}
		if len(c.data)-c.pos >= 2 {
			length := c.next(2)
			end := min(c.pos+length, len(c.data))
			info.ManufacturerID = append([]byte(nil), c.data[c.pos:end]...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// NetMDLevel returns the device's NetMD level
func (md *Interface) NetMDLevel() (NetMDLevel, error) {
	info, err := md.DiscSubunitIdentifier()
	if err != nil {
		return 0, err
	}
	level, ok := info.NetMDLevel()
	if !ok {
		return 0, fmt.Errorf("%w: this recorder doesn't support MiniDiscs", ErrNotSupported)
	}
	return level, nil
}

// Acquire takes exclusive control of the device
func (md *Interface) Acquire() error {
	_, err := md.transact("ff 010c ffff ffff ffff ffff ffff ffff", "ff 010c ffff ffff ffff ffff ffff ffff")
	return err
}

// Release gives up exclusive control of the device
func (md *Interface) Release() error {
	_, err := md.transact("ff 0100 ffff ffff ffff ffff ffff ffff", "ff 0100 ffff ffff ffff ffff ffff ffff")
	return err
}

// isRejected reports whether err is a device rejection
func isRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}
