package netmd

import (
	"context"
	"crypto/rand"
	"crypto/des"
	"io"

	"github.com/hansbonini/mdtools/pkg/common"
)

// Packet is one encrypted chunk of track data
type Packet struct {
	Key  []byte
	IV   []byte
	Data []byte
	// Err is set on the last packet of a stream that failed
	Err error
}

// Encryptor produces the encrypted packets of a track in order. It is single
// pass: every packet's IV is the ciphertext tail of the previous packet.
type Encryptor struct {
	rawKey    []byte
	key       []byte
	iv        []byte
	data      []byte
	chunkSize int
	offset    int
	count     int
}

// NewEncryptor pads the track data to whole frames and draws a random content key
func NewEncryptor(t *Track) (*Encryptor, error) {
	rawKey := make([]byte, des.BlockSize)
	if _, err := rand.Read(rawKey); err != nil {
		return nil, err
	}
	return newEncryptorWithKey(t, rawKey)
}

func newEncryptorWithKey(t *Track, rawKey []byte) (*Encryptor, error) {
	if t.FrameSize() == 0 {
		return nil, validationError("unknown wireformat 0x%02x", byte(t.Format))
	}
	chunkSize := t.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkSize <= PacketHeaderSize || chunkSize%des.BlockSize != 0 {
		return nil, validationError("chunk size %d must be a multiple of 8 above %d", chunkSize, PacketHeaderSize)
	}
	// The device encrypts the exposed key under the KEK to recover rawKey.
	key, err := desECB(trackKEK, rawKey, true)
	if err != nil {
		return nil, err
	}
	return &Encryptor{
		rawKey:    rawKey,
		key:       key,
		iv:        make([]byte, des.BlockSize),
		data:      common.PadBytes(t.Data, t.FrameSize()),
		chunkSize: chunkSize,
	}, nil
}

// Next returns the next packet, or io.EOF after the last one
func (e *Encryptor) Next() (*Packet, error) {
	if e.offset >= len(e.data) {
		return nil, io.EOF
	}
	size := e.chunkSize
	if e.count == 0 {
		size -= PacketHeaderSize
	}
	if size > len(e.data)-e.offset {
		size = len(e.data) - e.offset
	}
	chunk := e.data[e.offset : e.offset+size]

	encrypted, err := desCBCEncrypt(e.rawKey, e.iv, pkcs7Pad(chunk, des.BlockSize))
	if err != nil {
		return nil, err
	}
	encrypted = encrypted[:size]

	pkt := &Packet{
		Key:  append([]byte(nil), e.key...),
		IV:   e.iv,
		Data: encrypted,
	}
	e.iv = append([]byte(nil), encrypted[len(encrypted)-des.BlockSize:]...)
	e.offset += size
	e.count++
	common.LogDebug(common.DebugPacketEncrypted, e.count, size)
	return pkt, nil
}

// Stream sends every packet on out and closes it. It stops early when ctx
// is cancelled. An encryption failure is sent as a packet carrying Err, so a
// closed channel always means the track is complete.
func (e *Encryptor) Stream(ctx context.Context, out chan<- Packet) error {
	defer close(out)
	for {
		pkt, err := e.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			select {
			case out <- Packet{Err: err}:
			case <-ctx.Done():
			}
			return err
		}
		select {
		case out <- *pkt:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
