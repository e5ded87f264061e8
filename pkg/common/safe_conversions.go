package common

import (
	"fmt"
	"math"
)

// SafeIntToUint16 safely converts int to uint16 with bounds checking
func SafeIntToUint16(value int) (uint16, error) {
	if value < 0 || value > math.MaxUint16 {
		return 0, fmt.Errorf("value %d out of range for uint16 (0-%d)", value, math.MaxUint16)
	}
	return uint16(value), nil
}

// SafeIntToUint32 safely converts int to uint32 with bounds checking
func SafeIntToUint32(value int) (uint32, error) {
	if value < 0 {
		return 0, fmt.Errorf("value %d is negative, cannot convert to uint32", value)
	}
	if uint64(value) > math.MaxUint32 {
		return 0, fmt.Errorf("value %d out of range for uint32 (0-%d)", value, uint64(math.MaxUint32))
	}
	return uint32(value), nil
}

// SafeTrackNumber converts a 0-based track index into the 16-bit wire value,
// rejecting indices beyond the current track count when count is positive.
func SafeTrackNumber(track, count int) (uint16, error) {
	if count > 0 && track >= count {
		return 0, FormatErrorString(ErrInvalidTrackNumber, "track %d of %d", track, count)
	}
	value, err := SafeIntToUint16(track)
	if err != nil {
		return 0, FormatError(ErrInvalidTrackNumber, err)
	}
	return value, nil
}
