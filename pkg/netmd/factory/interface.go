// Package factory implements the factory mode memory protocol of NetMD and
// Hi-MD recorders, used to dump and patch device memory and UTOC sectors.
package factory

import (
	"fmt"
	"strings"

	"github.com/hansbonini/mdtools/pkg/common"
	"github.com/hansbonini/mdtools/pkg/netmd"
	"github.com/hansbonini/mdtools/pkg/query"
)

// MemoryType selects the address space of a memory transfer
type MemoryType byte

const (
	MemoryMapped  MemoryType = 0x0
	MemoryEEPROM2 MemoryType = 0x2
	MemoryEEPROM3 MemoryType = 0x3
)

// MemoryOpenType is the state of a memory window
type MemoryOpenType byte

const (
	MemoryClose     MemoryOpenType = 0x0
	MemoryRead      MemoryOpenType = 0x1
	MemoryWrite     MemoryOpenType = 0x2
	MemoryReadWrite MemoryOpenType = 0x3
)

// DisplayMode selects what the device display shows
type DisplayMode byte

const (
	DisplayDefault  DisplayMode = 0x0
	DisplayOverride DisplayMode = 0x1
)

// eepromWindow is the highest address+8 readable outside mapped memory
const eepromWindow = 0x400

// DeviceCode identifies the chip and firmware of a device
type DeviceCode struct {
	ChipType byte
	HWID     byte
	Version  int
}

// SwitchStatus holds the raw state of the device switches
type SwitchStatus struct {
	InternalMicroswitch int
	Button              int
	XY                  int
	Unlabeled           int
}

// Interface speaks the factory protocol over a device link. Hi-MD devices
// use different authentication and memory commands.
type Interface struct {
	link  *netmd.Link
	Retry netmd.StatusReader
	HiMD  bool
}

// New returns a factory interface on link
func New(link *netmd.Link, himd bool) *Interface {
	return &Interface{link: link, Retry: netmd.NewStatusReader(), HiMD: himd}
}

var himdNames = []string{"MZ-RH", "MZ-NH", "DS-HMD1"}

// IsHiMD reports whether a device name belongs to a Hi-MD recorder
func IsHiMD(name string) bool {
	for _, n := range himdNames {
		if strings.Contains(name, n) {
			return true
		}
	}
	return false
}

// Open checks the device supports MiniDiscs and enters factory mode
func Open(md *netmd.Interface) (*Interface, error) {
	if _, err := md.DiscSubunitIdentifier(); err != nil {
		return nil, common.FormatError(common.ErrFailedToEnterFactory, err)
	}
	link := md.Link()
	f := New(link, IsHiMD(link.Name))
	f.Retry = md.Retry
	if err := f.Auth(); err != nil {
		return nil, common.FormatError(common.ErrFailedToEnterFactory, err)
	}
	variant := "NetMD"
	if f.HiMD {
		variant = "Hi-MD"
	}
	common.LogInfo(common.InfoFactoryModeEntered, variant)
	return f, nil
}

// SendQuery sends a factory command and returns the reply payload
func (f *Interface) SendQuery(q []byte, test, acceptInterim bool) ([]byte, error) {
	status := netmd.StatusControl
	if test {
		status = netmd.StatusSpecificInquiry
	}
	if err := f.link.SendFactoryCommand(append([]byte{status}, q...)); err != nil {
		return nil, err
	}
	return f.Retry.Read(f.link.ReadFactoryReply, acceptInterim)
}

func (f *Interface) exec(template string, args ...interface{}) ([]byte, error) {
	q, err := query.Format(template, args...)
	if err != nil {
		return nil, err
	}
	return f.SendQuery(q, false, false)
}

func boolByte(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Auth unlocks factory mode
func (f *Interface) Auth() error {
	var err error
	if f.HiMD {
		_, err = f.exec("1802 ff04 4d44574d")
	} else {
		_, err = f.exec("1801 ff0e 4e6574204d442057616c6b6d616e")
	}
	return err
}

// ChangeMemoryState opens or closes a memory window
func (f *Interface) ChangeMemoryState(address uint32, length int, typ MemoryType, state MemoryOpenType, encrypted bool) error {
	var err error
	if f.HiMD {
		_, err = f.exec("182b ff %b %<d %b %b", typ, address, length, state)
	} else {
		_, err = f.exec("1820 ff %b %<d %b %b %b", typ, address, length, state, boolByte(encrypted))
	}
	return err
}

func checkWindow(address uint32, typ MemoryType) error {
	if typ != MemoryMapped && address+8 > eepromWindow {
		return fmt.Errorf("%w: address 0x%x outside the EEPROM window", netmd.ErrValidation, address)
	}
	return nil
}

// Read reads length bytes at address. The trailing checksum is dropped.
func (f *Interface) Read(address uint32, length int, typ MemoryType) ([]byte, error) {
	var reply []byte
	var err error
	if f.HiMD {
		reply, err = f.exec("182c ff %b %<d", length, address)
	} else {
		if err := checkWindow(address, typ); err != nil {
			return nil, err
		}
		reply, err = f.exec("1821 ff %b %<d %b", typ, address, length)
	}
	if err != nil {
		return nil, err
	}

	template := "1821 00 %? %?%?%?%? %? %?%? %*"
	if f.HiMD {
		template = "182c 00 %? %?%?%?%? %? %?%? %*"
	}
	res, err := query.Scan(reply, template)
	if err != nil {
		return nil, err
	}
	data := res.Bytes(0)
	if len(data) < 2 {
		return nil, fmt.Errorf("memory read reply too short (%d bytes)", len(data))
	}
	return data[:len(data)-2], nil
}

// Write writes data at address with its checksum
func (f *Interface) Write(address uint32, data []byte, typ MemoryType) error {
	if err := checkWindow(address, typ); err != nil {
		return err
	}
	_, err := f.exec("1822 ff %b %<d %b 0000 %* %<w", typ, address, len(data), data, Checksum(data))
	return err
}

// ReadMetadataPeripheral reads length bytes of a metadata sector
func (f *Interface) ReadMetadataPeripheral(sector, offset, length int) ([]byte, error) {
	reply, err := f.exec("1824 ff %<w %<w %b 00", sector, offset, length)
	if err != nil {
		return nil, err
	}
	res, err := query.Scan(reply, "1824 00 %?%?%?%? %z")
	if err != nil {
		return nil, err
	}
	return res.Bytes(0), nil
}

// WriteMetadataPeripheral writes data into a metadata sector
func (f *Interface) WriteMetadataPeripheral(sector, offset int, data []byte) error {
	_, err := f.exec("1825 ff %<w %<w %z", sector, offset, data)
	return err
}

// SetDisplayMode switches the display between normal and override text
func (f *Interface) SetDisplayMode(mode DisplayMode) error {
	_, err := f.exec("1851 ff %b", mode)
	return err
}

// SetDisplayOverride shows raw display bytes. At most 9 bytes fit so the
// text stays NUL terminated.
func (f *Interface) SetDisplayOverride(text []byte, blink bool) error {
	if len(text) > 9 {
		return fmt.Errorf("%w: display text of %d bytes, at most 9", netmd.ErrValidation, len(text))
	}
	buf := make([]byte, 10)
	copy(buf, text)
	_, err := f.exec("1852 ff %b %b 00 %*", 0, boolByte(blink), buf)
	return err
}

// DeviceVersion returns the firmware version number
func (f *Interface) DeviceVersion() (int, error) {
	reply, err := f.exec("1813 ff")
	if err != nil {
		return 0, err
	}
	res, err := query.Scan(reply, "1813 00 00 %B")
	if err != nil {
		return 0, err
	}
	return res.Int(0), nil
}

// DeviceCode returns the chip type, hardware ID and firmware version
func (f *Interface) DeviceCode() (DeviceCode, error) {
	reply, err := f.exec("1812 ff")
	if err != nil {
		return DeviceCode{}, err
	}
	res, err := query.Scan(reply, "1812 00 %b %b 00 %B")
	if err != nil {
		return DeviceCode{}, err
	}
	return DeviceCode{ChipType: byte(res.Uint(0)), HWID: byte(res.Uint(1)), Version: res.Int(2)}, nil
}

// SwitchStatus returns the state of the device switches
func (f *Interface) SwitchStatus() (SwitchStatus, error) {
	reply, err := f.exec("1853 ff")
	if err != nil {
		return SwitchStatus{}, err
	}
	res, err := query.Scan(reply, "1853 ff %w %b %b %w")
	if err != nil {
		return SwitchStatus{}, err
	}
	return SwitchStatus{
		InternalMicroswitch: res.Int(0),
		Button:              res.Int(1),
		XY:                  res.Int(2),
		Unlabeled:           res.Int(3),
	}, nil
}

// Checksum is the CRC-16 (polynomial 0x1021, MSB first) of a write payload
func Checksum(data []byte) uint16 {
	words := make([]uint16, len(data))
	for i, b := range data {
		words[i] = uint16(b)
	}
	return crc16(words)
}

// EEPROMChecksum is the same CRC taken over little-endian 16-bit words
func EEPROMChecksum(data []byte) uint16 {
	words := make([]uint16, len(data)/2)
	for i := range words {
		words[i] = uint16(data[2*i+1])<<8 | uint16(data[2*i])
	}
	return crc16(words)
}

func crc16(words []uint16) uint16 {
	var crc uint16
	for _, w := range words {
		crc ^= w
		for i := 0; i < 16; i++ {
			carry := crc&0x8000 != 0
			crc <<= 1
			if carry {
				crc ^= 0x1021
			}
		}
	}
	return crc
}
