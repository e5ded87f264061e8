package factory

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/hansbonini/mdtools/pkg/common"
	"github.com/hansbonini/mdtools/pkg/netmd"
	"github.com/hansbonini/mdtools/pkg/sjis"
)

const (
	// transferSize is the largest payload of one memory or sector transfer
	transferSize = 0x10
	// UTOCSectorSize is the length of one UTOC sector
	UTOCSectorSize = 2352
	utocParts      = UTOCSectorSize / transferSize

	patchBase = 0x03802000
)

// Display shows text on the device display
func Display(f *Interface, text string, blink bool) error {
	if n := utf8.RuneCountInString(text); n > 8 {
		return fmt.Errorf("%w: display text has %d characters, at most 8", netmd.ErrValidation, n)
	}
	encoded, err := sjis.Encode(text)
	if err != nil {
		return err
	}
	if err := f.SetDisplayMode(DisplayOverride); err != nil {
		return err
	}
	return f.SetDisplayOverride(encoded, blink)
}

// CleanRead opens a read window, reads and closes it again
func CleanRead(f *Interface, address uint32, length int, typ MemoryType, encrypted bool) ([]byte, error) {
	if err := f.ChangeMemoryState(address, length, typ, MemoryRead, encrypted); err != nil {
		return nil, err
	}
	data, err := f.Read(address, length, typ)
	if err != nil {
		return nil, err
	}
	if err := f.ChangeMemoryState(address, length, typ, MemoryClose, encrypted); err != nil {
		return nil, err
	}
	return data, nil
}

// CleanWrite opens a write window, writes and closes it again
func CleanWrite(f *Interface, address uint32, data []byte, typ MemoryType, encrypted bool) error {
	if err := f.ChangeMemoryState(address, len(data), typ, MemoryWrite, encrypted); err != nil {
		return err
	}
	if err := f.Write(address, data, typ); err != nil {
		return err
	}
	return f.ChangeMemoryState(address, len(data), typ, MemoryClose, encrypted)
}

// WriteOfAnyLength splits data into 16 byte clean writes
func WriteOfAnyLength(f *Interface, address uint32, data []byte, typ MemoryType, encrypted bool) error {
	offset := 0
	for {
		end := min(offset+transferSize, len(data))
		if err := CleanWrite(f, address+uint32(offset), data[offset:end], typ, encrypted); err != nil {
			return err
		}
		offset = end
		if offset >= len(data) {
			return nil
		}
	}
}

func patchAddresses(patchNumber, totalPatches int) (base, control uint32) {
	return patchBase + uint32(patchNumber)*0x10, patchBase + uint32(totalPatches)*0x10
}

func writeControl(f *Interface, control uint32, values ...byte) error {
	for _, v := range values {
		if err := CleanWrite(f, control, []byte{v}, MemoryMapped, false); err != nil {
			return err
		}
	}
	return nil
}

// updatePatchControl reads the patch control word and rewrites its first
// byte through op.
func updatePatchControl(f *Interface, base uint32, op func(byte) byte) error {
	ctrl, err := CleanRead(f, base, 4, MemoryMapped, false)
	if err != nil {
		return err
	}
	if len(ctrl) == 0 {
		return fmt.Errorf("empty patch control read at 0x%08x", base)
	}
	ctrl[0] = op(ctrl[0])
	return CleanWrite(f, base, ctrl, MemoryMapped, false)
}

// Patch installs a 4 byte firmware patch at address in slot patchNumber.
// The control register sequence is the one the firmware expects and must
// not be reordered.
func Patch(f *Interface, address uint32, value []byte, patchNumber, totalPatches int) error {
	if len(value) != 4 {
		return common.FormatErrorString(common.ErrInvalidPatchValue, "got %d bytes", len(value))
	}
	base, control := patchAddresses(patchNumber, totalPatches)

	if err := writeControl(f, control, 5, 12); err != nil {
		return err
	}
	if err := updatePatchControl(f, base, func(b byte) byte { return b & 0xfe }); err != nil {
		return err
	}
	if err := updatePatchControl(f, base, func(b byte) byte { return b & 0xfd }); err != nil {
		return err
	}
	addr := make([]byte, 4)
	binary.LittleEndian.PutUint32(addr, address)
	if err := CleanWrite(f, base+4, addr, MemoryMapped, false); err != nil {
		return err
	}
	if err := CleanWrite(f, base+8, value, MemoryMapped, false); err != nil {
		return err
	}
	if err := updatePatchControl(f, base, func(b byte) byte { return b | 1 }); err != nil {
		return err
	}
	return writeControl(f, control, 5, 9)
}

// Unpatch disables the patch in slot patchNumber
func Unpatch(f *Interface, patchNumber, totalPatches int) error {
	base, control := patchAddresses(patchNumber, totalPatches)
	if err := writeControl(f, control, 5, 12); err != nil {
		return err
	}
	if err := updatePatchControl(f, base, func(b byte) byte { return b & 0xfe }); err != nil {
		return err
	}
	return writeControl(f, control, 5, 9)
}

// ReadUTOCSector reads a whole UTOC sector in 16 byte parts
func ReadUTOCSector(f *Interface, sector int) ([]byte, error) {
	data := make([]byte, 0, UTOCSectorSize)
	for i := 0; i < utocParts; i++ {
		part, err := f.ReadMetadataPeripheral(sector, i*transferSize, transferSize)
		if err != nil {
			return nil, common.FormatError(common.ErrFailedToReadUTOC, err)
		}
		data = append(data, part...)
	}
	common.LogInfo(common.InfoUTOCSectorRead, sector, len(data))
	return data, nil
}

// WriteUTOCSector writes a whole UTOC sector in 16 byte parts
func WriteUTOCSector(f *Interface, sector int, data []byte) error {
	if len(data) != UTOCSectorSize {
		return common.FormatErrorString(common.ErrInvalidSectorSize, "got %d bytes", len(data))
	}
	for i := 0; i < utocParts; i++ {
		part := data[i*transferSize : (i+1)*transferSize]
		if err := f.WriteMetadataPeripheral(sector, i*transferSize, part); err != nil {
			return common.FormatError(common.ErrFailedToWriteUTOC, err)
		}
	}
	common.LogInfo(common.InfoUTOCSectorWritten, sector)
	return nil
}

// DescriptiveDeviceCode formats the device code the way service manuals
// name firmware, for example R1.400.
func DescriptiveDeviceCode(f *Interface) (string, error) {
	code, err := f.DeviceCode()
	if err != nil {
		return "", err
	}
	var prefix string
	switch code.ChipType {
	case 0x20:
		prefix = "R"
	case 0x21:
		prefix = "S"
	default:
		prefix = fmt.Sprintf("%d?", code.ChipType)
	}
	digits := fmt.Sprintf("%02d", code.Version)
	return fmt.Sprintf("%s%c.%s00", prefix, digits[0], digits[1:]), nil
}
