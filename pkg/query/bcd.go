package query

import "fmt"

// IntToBCD encodes value as packed BCD occupying length bytes (1 to 4).
func IntToBCD(value, length int) (uint32, error) {
	if length < 1 || length > 4 {
		return 0, fmt.Errorf("%w: unsupported BCD length %d, max allowed is 4", ErrFormat, length)
	}
	if value < 0 {
		return 0, fmt.Errorf("%w: negative value %d cannot be BCD encoded", ErrFormat, value)
	}
	limit := 1
	for i := 0; i < length*2; i++ {
		limit *= 10
	}
	if value >= limit {
		return 0, fmt.Errorf("%w: value %d cannot fit in %d bytes in BCD", ErrFormat, value, length)
	}

	var bcd uint32
	for nibble := 0; value > 0; nibble++ {
		bcd |= uint32(value%10) << (4 * nibble)
		value /= 10
	}
	return bcd, nil
}

// BCDToInt decodes a packed BCD value.
func BCDToInt(bcd uint32) int {
	value := 0
	scale := 1
	for bcd != 0 {
		value += int(bcd&0xf) * scale
		bcd >>= 4
		scale *= 10
	}
	return value
}
