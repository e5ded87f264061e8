package pkg

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/hansbonini/mdtools/pkg/netmd"
)

// buildWAV assembles a RIFF file from raw chunks
func buildWAV(chunks ...[]byte) []byte {
	var body bytes.Buffer
	body.WriteString("WAVE")
	for _, c := range chunks {
		body.Write(c)
	}
	var out bytes.Buffer
	out.WriteString("RIFF")
	_ = binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func chunk(id string, data []byte) []byte {
	var out bytes.Buffer
	out.WriteString(id)
	_ = binary.Write(&out, binary.LittleEndian, uint32(len(data)))
	out.Write(data)
	if len(data)%2 == 1 {
		out.WriteByte(0)
	}
	return out.Bytes()
}

func fmtChunk(tag, channels uint16, rate uint32, blockAlign, bits uint16) []byte {
	var out bytes.Buffer
	_ = binary.Write(&out, binary.LittleEndian, wavFormat{
		FormatTag:     tag,
		Channels:      channels,
		SampleRate:    rate,
		ByteRate:      rate * uint32(blockAlign),
		BlockAlign:    blockAlign,
		BitsPerSample: bits,
	})
	return chunk("fmt ", out.Bytes())
}

func TestAudioDecoder_DecodeWAV_PCM(t *testing.T) {
	wav := buildWAV(
		fmtChunk(WAVFormatPCM, 2, SampleRate, 4, 16),
		chunk("LIST", []byte{1, 2, 3}),
		chunk("data", []byte{0x01, 0x02, 0x03, 0x04}),
	)
	audio, err := NewAudioDecoder().DecodeWAV(bytes.NewReader(wav))
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if audio.Format != netmd.WireformatPCM {
		t.Errorf("Format = 0x%02x, want PCM", audio.Format)
	}
	if !bytes.Equal(audio.Data, []byte{0x02, 0x01, 0x04, 0x03}) {
		t.Errorf("Data = %x, want byte swapped samples", audio.Data)
	}
}

func TestAudioDecoder_DecodeWAV_ATRAC(t *testing.T) {
	data := bytes.Repeat([]byte{0xaa}, 384)
	header, err := NewHeaderEncoder().WAVHeader(netmd.DiscFormatLP2, len(data))
	if err != nil {
		t.Fatalf("WAVHeader() error = %v", err)
	}
	audio, err := NewAudioDecoder().DecodeWAV(bytes.NewReader(append(header, data...)))
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if audio.Format != netmd.WireformatLP2 || !bytes.Equal(audio.Data, data) {
		t.Errorf("DecodeWAV() = 0x%02x, %d bytes", audio.Format, len(audio.Data))
	}
}

func TestAudioDecoder_DecodeWAV_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"bad magic", []byte("RIFX\x00\x00\x00\x00WAVE")},
		{"mono PCM", buildWAV(fmtChunk(WAVFormatPCM, 1, SampleRate, 2, 16), chunk("data", []byte{1, 2}))},
		{"8 bit PCM", buildWAV(fmtChunk(WAVFormatPCM, 2, SampleRate, 2, 8), chunk("data", []byte{1, 2}))},
		{"unknown tag", buildWAV(fmtChunk(0x0055, 2, SampleRate, 4, 16), chunk("data", []byte{1, 2}))},
		{"odd ATRAC frame", buildWAV(fmtChunk(WAVFormatATRAC3, 2, SampleRate, 100, 0), chunk("data", []byte{1, 2}))},
		{"data before fmt", buildWAV(chunk("data", []byte{1, 2}))},
		{"no data", buildWAV(fmtChunk(WAVFormatPCM, 2, SampleRate, 4, 16))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAudioDecoder().DecodeWAV(bytes.NewReader(tt.data)); err == nil {
				t.Error("DecodeWAV() succeeded, want error")
			}
		})
	}
}

func TestReadAudioFile(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "track.raw")
	if err := os.WriteFile(raw, []byte{1, 2, 3, 4}, 0o600); err != nil {
		t.Fatal(err)
	}

	audio, err := ReadAudioFile(raw, "lp4")
	if err != nil {
		t.Fatalf("ReadAudioFile() error = %v", err)
	}
	if audio.Format != netmd.WireformatLP4 || len(audio.Data) != 4 {
		t.Errorf("ReadAudioFile() = 0x%02x, %d bytes", audio.Format, len(audio.Data))
	}
	if _, err := ReadAudioFile(raw, "mp3"); err == nil {
		t.Error("ReadAudioFile() accepted an unknown format")
	}

	wav := filepath.Join(dir, "track.wav")
	content := buildWAV(fmtChunk(WAVFormatPCM, 2, SampleRate, 4, 16), chunk("data", []byte{1, 2}))
	if err := os.WriteFile(wav, content, 0o600); err != nil {
		t.Fatal(err)
	}
	audio, err = ReadAudioFile(wav, "lp4")
	if err != nil {
		t.Fatalf("ReadAudioFile() error = %v", err)
	}
	if audio.Format != netmd.WireformatPCM {
		t.Errorf("WAV format overridden by flag: 0x%02x", audio.Format)
	}
}
