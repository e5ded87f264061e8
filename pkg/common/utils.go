package common

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ValidateRIFFHeader checks if the given bytes represent a RIFF/WAVE container
func ValidateRIFFHeader(riff, wave [4]byte) error {
	if string(riff[:]) != "RIFF" || string(wave[:]) != "WAVE" {
		return fmt.Errorf("invalid RIFF header: expected 'RIFF....WAVE', got '%s....%s'", string(riff[:]), string(wave[:]))
	}
	return nil
}

// ReadUint32LE reads a uint32 in little-endian format
func ReadUint32LE(reader io.Reader) (uint32, error) {
	var value uint32
	err := binary.Read(reader, binary.LittleEndian, &value)
	return value, err
}

// ReadBytes reads a specified number of bytes
func ReadBytes(reader io.Reader, count int) ([]byte, error) {
	buffer := make([]byte, count)
	n, err := io.ReadFull(reader, buffer)
	if err != nil {
		return nil, err
	}
	if n != count {
		return nil, fmt.Errorf("expected to read %d bytes, got %d", count, n)
	}
	return buffer, nil
}

// SkipBytes skips a specified number of bytes in the reader
func SkipBytes(reader io.Reader, count int) error {
	_, err := io.CopyN(io.Discard, reader, int64(count))
	return err
}

// PadBytes returns data zero-padded to a multiple of size
func PadBytes(data []byte, size int) []byte {
	if size <= 0 || len(data)%size == 0 {
		return data
	}
	padded := make([]byte, len(data)+size-len(data)%size)
	copy(padded, data)
	return padded
}

// SwapBytes16 swaps the byte order of every 16-bit sample in place
func SwapBytes16(data []byte) {
	for i := 0; i+1 < len(data); i += 2 {
		data[i], data[i+1] = data[i+1], data[i]
	}
}
