package netmd

import (
	"bytes"
	"context"
	"crypto/des"
	"errors"
	"io"
	"testing"
)

var testRawKey = []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}

func testTrack(size int) *Track {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i * 7)
	}
	return &Track{Title: "test", Format: WireformatLP2, Data: data, ChunkSize: 0x100}
}

func collectPackets(t *testing.T, e *Encryptor) []*Packet {
	t.Helper()
	var packets []*Packet
	for {
		pkt, err := e.Next()
		if err == io.EOF {
			return packets
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		packets = append(packets, pkt)
	}
}

func TestEncryptor_ChunkSizes(t *testing.T) {
	// 3 LP2 frames: 576 bytes split as 256-24, 256, remainder
	e, err := newEncryptorWithKey(testTrack(3*192), testRawKey)
	if err != nil {
		t.Fatalf("newEncryptorWithKey() error = %v", err)
	}
	packets := collectPackets(t, e)

	want := []int{232, 256, 88}
	if len(packets) != len(want) {
		t.Fatalf("got %d packets, want %d", len(packets), len(want))
	}
	for i, n := range want {
		if len(packets[i].Data) != n {
			t.Errorf("packet %d has %d bytes, want %d", i, len(packets[i].Data), n)
		}
	}
}

func TestEncryptor_IVChaining(t *testing.T) {
	e, err := newEncryptorWithKey(testTrack(3*192), testRawKey)
	if err != nil {
		t.Fatalf("newEncryptorWithKey() error = %v", err)
	}
	packets := collectPackets(t, e)

	if !bytes.Equal(packets[0].IV, make([]byte, 8)) {
		t.Errorf("packet 0 IV = %x, want zero", packets[0].IV)
	}
	for i := 1; i < len(packets); i++ {
		prev := packets[i-1].Data
		if !bytes.Equal(packets[i].IV, prev[len(prev)-8:]) {
			t.Errorf("packet %d IV = %x, want %x", i, packets[i].IV, prev[len(prev)-8:])
		}
	}
}

func TestEncryptor_Decrypts(t *testing.T) {
	track := testTrack(3 * 192)
	e, err := newEncryptorWithKey(track, testRawKey)
	if err != nil {
		t.Fatalf("newEncryptorWithKey() error = %v", err)
	}

	var plain []byte
	for _, pkt := range collectPackets(t, e) {
		out, err := desCBCDecrypt(testRawKey, pkt.IV, pkt.Data)
		if err != nil {
			t.Fatalf("desCBCDecrypt() error = %v", err)
		}
		plain = append(plain, out...)
	}
	if !bytes.Equal(plain, track.Data) {
		t.Error("decrypted packets do not match the track data")
	}
}

func TestEncryptor_ExposedKey(t *testing.T) {
	e, err := newEncryptorWithKey(testTrack(192), testRawKey)
	if err != nil {
		t.Fatalf("newEncryptorWithKey() error = %v", err)
	}
	pkt, err := e.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	block, _ := des.NewCipher(trackKEK)
	back := make([]byte, 8)
	block.Encrypt(back, pkt.Key)
	if !bytes.Equal(back, testRawKey) {
		t.Errorf("KEK(key) = %x, want raw key %x", back, testRawKey)
	}
}

func TestEncryptor_PadsToFrames(t *testing.T) {
	e, err := newEncryptorWithKey(testTrack(100), testRawKey)
	if err != nil {
		t.Fatalf("newEncryptorWithKey() error = %v", err)
	}
	packets := collectPackets(t, e)
	if len(packets) != 1 || len(packets[0].Data) != 192 {
		t.Errorf("got %d packets, want one 192 byte packet", len(packets))
	}
}

func TestEncryptor_InvalidChunkSize(t *testing.T) {
	for _, size := range []int{24, 20, 100} {
		track := testTrack(192)
		track.ChunkSize = size
		if _, err := newEncryptorWithKey(track, testRawKey); !errors.Is(err, ErrValidation) {
			t.Errorf("chunk size %d: error = %v, want ErrValidation", size, err)
		}
	}
}

func TestEncryptor_Stream(t *testing.T) {
	e, err := newEncryptorWithKey(testTrack(3*192), testRawKey)
	if err != nil {
		t.Fatalf("newEncryptorWithKey() error = %v", err)
	}
	out := make(chan Packet, 1)
	errc := make(chan error, 1)
	go func() { errc <- e.Stream(context.Background(), out) }()

	count := 0
	for range out {
		count++
	}
	if err := <-errc; err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if count != 3 {
		t.Errorf("streamed %d packets, want 3", count)
	}
}

func TestEncryptor_StreamCancelled(t *testing.T) {
	e, err := newEncryptorWithKey(testTrack(3*192), testRawKey)
	if err != nil {
		t.Fatalf("newEncryptorWithKey() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := make(chan Packet)
	if err := e.Stream(ctx, out); !errors.Is(err, context.Canceled) {
		t.Errorf("Stream() error = %v, want context.Canceled", err)
	}
	if _, ok := <-out; ok {
		t.Error("channel not closed after Stream returned")
	}
}

func TestEncryptor_StreamFailure(t *testing.T) {
	e, err := newEncryptorWithKey(testTrack(3*192), testRawKey)
	if err != nil {
		t.Fatalf("newEncryptorWithKey() error = %v", err)
	}
	e.rawKey = []byte{1, 2, 3}
	out := make(chan Packet, 1)
	err = e.Stream(context.Background(), out)
	if err == nil {
		t.Fatal("Stream() error = nil with an invalid key")
	}
	pkt, ok := <-out
	if !ok || pkt.Err == nil {
		t.Fatalf("Stream() sent %+v, want a packet carrying the error", pkt)
	}
	if _, ok := <-out; ok {
		t.Error("channel not closed after the failed packet")
	}
}

func TestTrack_Sizes(t *testing.T) {
	tests := []struct {
		format     Wireformat
		size       int
		wantTotal  int
		wantFrames int
		wantDisc   DiscFormat
	}{
		{WireformatPCM, 4096, 4096, 2, DiscFormatSPStereo},
		{WireformatPCM, 4097, 6144, 3, DiscFormatSPStereo},
		{WireformatLP2, 200, 384, 2, DiscFormatLP2},
		{WireformatL105kbps, 152, 152, 1, DiscFormatLP2},
		{WireformatLP4, 1, 96, 1, DiscFormatLP4},
	}
	for _, tt := range tests {
		track := &Track{Format: tt.format, Data: make([]byte, tt.size)}
		if got := track.TotalSize(); got != tt.wantTotal {
			t.Errorf("TotalSize(%x, %d) = %d, want %d", tt.format, tt.size, got, tt.wantTotal)
		}
		if got := track.FrameCount(); got != tt.wantFrames {
			t.Errorf("FrameCount(%x, %d) = %d, want %d", tt.format, tt.size, got, tt.wantFrames)
		}
		if got := track.DiscFormat(); got != tt.wantDisc {
			t.Errorf("DiscFormat(%x) = %d, want %d", tt.format, got, tt.wantDisc)
		}
	}
}

func TestNewTrack_UnknownFormat(t *testing.T) {
	if _, err := NewTrack("x", Wireformat(0x42), nil); !errors.Is(err, ErrValidation) {
		t.Errorf("NewTrack() error = %v, want ErrValidation", err)
	}
}
