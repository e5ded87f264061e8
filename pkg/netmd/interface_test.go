package netmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/hansbonini/mdtools/pkg/query"
)

func TestAcquireRelease(t *testing.T) {
	md, ft := newTestInterface(t, VendorSony,
		"09 ff010c ffff ffff ffff ffff ffff ffff",
		"09 ff0100 ffff ffff ffff ffff ffff ffff")

	if err := md.Acquire(); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := md.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if got := sentHex(ft, 0); got != "00ff010cffffffffffffffffffffffff" {
		t.Errorf("acquire sent %s", got)
	}
	if got := sentHex(ft, 1); got != "00ff0100ffffffffffffffffffffffff" {
		t.Errorf("release sent %s", got)
	}
}

func TestSendQuery_TestFlag(t *testing.T) {
	md, ft := newTestInterface(t, VendorSony, "09 18c1 ff 6000")
	if !md.CanEjectDisc() {
		t.Error("CanEjectDisc() = false, want true")
	}
	if got := sentHex(ft, 0); got != "0218c1ff6000" {
		t.Errorf("sent %s, want specific inquiry prefix", got)
	}
}

func TestTrackCount(t *testing.T) {
	md, ft := newTestInterface(t, VendorSony,
		descOK,
		"09 1806 02101001 3000 1000 1000 00010000 0006 0010000200 07",
		descOK)

	count, err := md.TrackCount()
	if err != nil {
		t.Fatalf("TrackCount() error = %v", err)
	}
	if count != 7 {
		t.Errorf("TrackCount() = %d, want 7", count)
	}
	if len(ft.sent) != 3 {
		t.Fatalf("sent %d commands, want 3", len(ft.sent))
	}
	if got := sentHex(ft, 0); got != "0018081010010100" {
		t.Errorf("descriptor open sent %s", got)
	}
	if got := sentHex(ft, 2); got != "0018081010010000" {
		t.Errorf("descriptor close sent %s", got)
	}
}

func TestDescriptorFailuresSwallowed(t *testing.T) {
	md, _ := newTestInterface(t, VendorSony,
		"0a 1808 10 1000 01 00",
		"09 1806 01101000 1000 0001000b 10",
		"0a 1808 10 1000 00 00")

	flags, err := md.DiscFlags()
	if err != nil {
		t.Fatalf("DiscFlags() error = %v", err)
	}
	if flags != DiscFlagWritable {
		t.Errorf("DiscFlags() = %02x, want %02x", flags, DiscFlagWritable)
	}
}

func TestReplyMismatch(t *testing.T) {
	md, _ := newTestInterface(t, VendorSony, "09 ff0100 ffff ffff ffff ffff ffff ffff")
	err := md.Acquire()
	var mismatch *query.MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Acquire() error = %v, want MismatchError", err)
	}
	if mismatch.Offset != 2 || mismatch.Expected != 0x0c || mismatch.Actual != 0x00 {
		t.Errorf("mismatch = %+v, want offset 2 expected 0c actual 00", mismatch)
	}
}

func TestOperatingStatus(t *testing.T) {
	md, _ := newTestInterface(t, VendorSony,
		descOK,
		"09 1809 8001 0330 8802 0030 8805 0030 8806 00 1000 00090000 0003 8806 0002 c375",
		descOK)

	mode, word, err := md.FullOperatingStatus()
	if err != nil {
		t.Fatalf("FullOperatingStatus() error = %v", err)
	}
	if mode != 0x03 || word != 50037 {
		t.Errorf("FullOperatingStatus() = %d, %d, want 3, 50037", mode, word)
	}
}

func TestPosition_Rejected(t *testing.T) {
	md, _ := newTestInterface(t, VendorSony, descOK, "0a 1809", descOK)
	pos, err := md.Position()
	if err != nil {
		t.Fatalf("Position() error = %v", err)
	}
	if pos != nil {
		t.Errorf("Position() = %+v, want nil", pos)
	}
}

func TestPosition(t *testing.T) {
	md, _ := newTestInterface(t, VendorSony,
		descOK,
		"09 1809 8001 0430 8802 0030 8805 0030 0003 0030 0002 00 1000 000b0000 000b 0002 0007 00 0004 00 02 15 10",
		descOK)

	pos, err := md.Position()
	if err != nil {
		t.Fatalf("Position() error = %v", err)
	}
	want := Position{Track: 4, Time: Time{Hour: 0, Minute: 2, Second: 15, Frame: 10}}
	if pos == nil || *pos != want {
		t.Errorf("Position() = %+v, want %+v", pos, want)
	}
}

func TestRawDiscTitle_Chunked(t *testing.T) {
	md, ft := newTestInterface(t, VendorSony,
		descOK, descOK,
		"09 1806 02201801 0000 3000 0a00 1000 0009 0000 0006 000a 0006 303b48",
		"09 1806 02201801 0000 3000 0a00 1000 0003 0000 692f2f",
		descOK, descOK)

	raw, err := md.RawDiscTitle(false)
	if err != nil {
		t.Fatalf("RawDiscTitle() error = %v", err)
	}
	if raw != "0;Hi//" {
		t.Errorf("RawDiscTitle() = %q, want %q", raw, "0;Hi//")
	}
	if got := sentHex(ft, 3); got != "00180602201801000030000a00ff0000030003" {
		t.Errorf("second chunk query = %s", got)
	}
	if title := DiscTitleFromRaw(raw, false); title != "Hi" {
		t.Errorf("DiscTitleFromRaw() = %q, want Hi", title)
	}
}

func TestSetTrackTitle_RejectedCurrentTitle(t *testing.T) {
	md, ft := newTestInterface(t, VendorSony,
		descOK, "0a 1806", descOK,
		descOK,
		"09 1807 02201802 0001 3000 0a00 5000 0003 0000 0000",
		descOK)

	if err := md.SetTrackTitle(1, "ABC", false); err != nil {
		t.Fatalf("SetTrackTitle() error = %v", err)
	}
	if got := sentHex(ft, 3); got != "0018081018020300" {
		t.Errorf("descriptor open for write sent %s", got)
	}
	want := "00" + "1807" + "02201802" + "0001" + "3000" + "0a00" + "5000" + "0003" + "0000" + "0000" + "414243"
	if got := sentHex(ft, 4); got != want {
		t.Errorf("title write sent %s, want %s", got, want)
	}
}

func TestSetTrackTitle_Unchanged(t *testing.T) {
	md, ft := newTestInterface(t, VendorSony,
		descOK,
		"09 1806 02201802 0001 3000 0a00 1000 00010000 0001000a 0003 414243",
		descOK)

	if err := md.SetTrackTitle(1, "ABC", false); err != nil {
		t.Fatalf("SetTrackTitle() error = %v", err)
	}
	if len(ft.sent) != 3 {
		t.Errorf("sent %d commands, want only the title read", len(ft.sent))
	}
}

func TestSetDiscTitle_SharpQuirk(t *testing.T) {
	md, ft := newTestInterface(t, VendorSharp,
		descOK, descOK,
		"09 1806 02201801 0000 3000 0a00 1000 0006 0000 0000 000a 0000",
		descOK, descOK,
		descOK,
		"09 1807 02201801 0000 3000 0a00 5000 0002 0000 0000",
		descOK)

	if err := md.SetDiscTitle("Hi", false); err != nil {
		t.Fatalf("SetDiscTitle() error = %v", err)
	}
	if got := sentHex(ft, 5); got != "0018081018020300" {
		t.Errorf("sharp rename opened %s, want audioUTOC1TD for write", got)
	}
	if got := sentHex(ft, 7); got != "0018081018020000" {
		t.Errorf("sharp rename closed %s", got)
	}
}

func TestTrackEncoding(t *testing.T) {
	md, _ := newTestInterface(t, VendorSony,
		descOK,
		"09 1806 02201001 0000 3080 0700 1000 00010000 0008 8007 0004 0110 92 01",
		descOK)

	enc, ch, err := md.TrackEncoding(0)
	if err != nil {
		t.Fatalf("TrackEncoding() error = %v", err)
	}
	if enc != EncodingLP2 || ch != ChannelsMono {
		t.Errorf("TrackEncoding() = %s %s, want lp2 mono", enc, ch)
	}
}

func TestDiscCapacity(t *testing.T) {
	md, _ := newTestInterface(t, VendorPanasonic,
		descOK,
		"09 1806 02101000 3080 0300 1000 001d0000 001b 0803 0017 8000 "+
			"0005 0000 10 20 05 0005 0001 20 00 00 0005 0001 09 39 10",
		descOK)

	used, total, left, err := md.DiscCapacity()
	if err != nil {
		t.Fatalf("DiscCapacity() error = %v", err)
	}
	if used != (Time{0, 10, 20, 5}) || total != (Time{1, 20, 0, 0}) || left != (Time{1, 9, 39, 10}) {
		t.Errorf("DiscCapacity() = %v %v %v", used, total, left)
	}
}

func TestSendKeyData_Validation(t *testing.T) {
	sig := make([]byte, EKBSignatureSize)
	key := make([]byte, EKBKeySize)
	tests := []struct {
		name  string
		chain [][]byte
		depth int
		sig   []byte
	}{
		{"short key", [][]byte{make([]byte, 15)}, 9, sig},
		{"depth zero", [][]byte{key}, 0, sig},
		{"depth 64", [][]byte{key}, 64, sig},
		{"short signature", [][]byte{key}, 9, make([]byte, 23)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, ft := newTestInterface(t, VendorSony)
			err := md.SendKeyData(1, tt.chain, tt.depth, tt.sig)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("SendKeyData() error = %v, want ErrValidation", err)
			}
			if len(ft.sent) != 0 {
				t.Error("SendKeyData() sent a command before validating")
			}
		})
	}
}

func TestSendKeyData_Frame(t *testing.T) {
	md, ft := newTestInterface(t, VendorSony, "09 1800 080046 f0030103 12 01 0000 00000000")
	ekb := OpenSourceEKB
	if err := md.SendKeyData(ekb.ID, ekb.Chain, ekb.Depth, ekb.Signature); err != nil {
		t.Fatalf("SendKeyData() error = %v", err)
	}
	got := sentHex(ft, 0)
	prefix := "001800080046f003010312ff0048000000480000000200000009264226420000000025"
	if !strings.HasPrefix(got, prefix) {
		t.Errorf("SendKeyData() sent %s, want prefix %s", got, prefix)
	}
	if len(ft.sent[0]) != 1+9+2+2+2+2+4+4+4+4+32+24 {
		t.Errorf("SendKeyData() frame is %d bytes", len(ft.sent[0]))
	}
}

func TestGotoTime(t *testing.T) {
	md, ft := newTestInterface(t, VendorSony, "09 1850 00000000 0000 0003 00 01 25 10")

	pos, err := md.GotoTime(3, Time{Minute: 1, Second: 25, Frame: 10})
	if err != nil {
		t.Fatalf("GotoTime() error = %v", err)
	}
	want := Position{Track: 3, Time: Time{Minute: 1, Second: 25, Frame: 10}}
	if *pos != want {
		t.Errorf("GotoTime() = %+v, want %+v", *pos, want)
	}
	if got, wantSent := sentHex(ft, 0), "00"+"1850ff000000"+"0000"+"0003"+"00012510"; got != wantSent {
		t.Errorf("sent %s, want %s", got, wantSent)
	}
}

func TestEraseDisc(t *testing.T) {
	md, ft := newTestInterface(t, VendorSony, "09 1840 00 0000")
	if err := md.EraseDisc(); err != nil {
		t.Fatalf("EraseDisc() error = %v", err)
	}
	if got := sentHex(ft, 0); got != "001840ff0000" {
		t.Errorf("sent %s", got)
	}
}

func TestRecordingParameters(t *testing.T) {
	md, _ := newTestInterface(t, VendorSony,
		descOK,
		"09 1809 8001 0330 8801 0030 8805 0030 8807 00 1000 000e0000 000c 8805 0008 80e0 0110 92 01 4000",
		descOK)

	enc, ch, err := md.RecordingParameters()
	if err != nil {
		t.Fatalf("RecordingParameters() error = %v", err)
	}
	if enc != EncodingLP2 || ch != ChannelsMono {
		t.Errorf("RecordingParameters() = %s %s, want lp2 mono", enc, ch)
	}
}

func TestTrackUUIDAndTerminate(t *testing.T) {
	md, ft := newTestInterface(t, VendorSony,
		"09 1800 080046 f0030103 23 00 1001 0002 55554944",
		"09 1800 080046 f0030103 2a 00 00")

	uuid, err := md.TrackUUID(2)
	if err != nil {
		t.Fatalf("TrackUUID() error = %v", err)
	}
	if string(uuid) != "UUID" {
		t.Errorf("TrackUUID() = %q, want %q", uuid, "UUID")
	}
	if err := md.Terminate(); err != nil {
		t.Fatalf("Terminate() error = %v", err)
	}
	if got := sentHex(ft, 0); got != "001800080046f003010323ff10010002" {
		t.Errorf("uuid query sent %s", got)
	}
	if got := sentHex(ft, 1); got != "001800080046f00301032aff00" {
		t.Errorf("terminate sent %s", got)
	}
}

func TestIsDiscPresent(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   bool
	}{
		{"disc", "8801 0000 40 00", true},
		{"no disc", "8801 0000 80 00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md, _ := newTestInterface(t, VendorSony,
				descOK,
				"09 1809 8001 0230 8800 0030 8804 00 1000 00090000 0006 "+tt.status,
				descOK)
			got, err := md.IsDiscPresent()
			if err != nil {
				t.Fatalf("IsDiscPresent() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsDiscPresent() = %v, want %v", got, tt.want)
			}
		})
	}
}
