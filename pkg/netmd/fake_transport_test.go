package netmd

import (
	"encoding/hex"
	"strings"
	"testing"
	"time"
)

// fakeTransport replays scripted replies and records everything sent
type fakeTransport struct {
	replies [][]byte
	sent    [][]byte
	bulkIn  [][]byte
	bulkOut [][]byte
	reads   int
}

func (f *fakeTransport) ControlIn(request uint8, length int) ([]byte, error) {
	if request == RequestReplyLength {
		if len(f.replies) == 0 {
			return []byte{0, 0, 0, 0}, nil
		}
		return []byte{0, 0, byte(len(f.replies[0])), 0}, nil
	}
	f.reads++
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeTransport) ControlOut(request uint8, data []byte) error {
	f.sent = append(f.sent, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) BulkIn(length int) ([]byte, error) {
	chunk := f.bulkIn[0]
	f.bulkIn = f.bulkIn[1:]
	return chunk, nil
}

func (f *fakeTransport) BulkOut(data []byte) (int, error) {
	f.bulkOut = append(f.bulkOut, append([]byte(nil), data...))
	return len(data), nil
}

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) push(replies ...string) {
	for _, r := range replies {
		f.replies = append(f.replies, mustHex(r))
	}
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		panic(err)
	}
	return b
}

func noSleep(time.Duration) {}

// descOK is an accepted reply to a descriptor state change
const descOK = "09 1808 00"

func newTestInterface(t *testing.T, vendor uint16, replies ...string) (*Interface, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{}
	ft.push(replies...)
	link := NewLink(ft, vendor, 0x0075, "test device")
	link.sleep = noSleep
	link.MaxPollAttempts = 2
	md := NewInterface(link)
	md.Retry.sleep = noSleep
	return md, ft
}

// sentHex returns the i-th command sent to the device as a hex string
func sentHex(ft *fakeTransport, i int) string {
	if i >= len(ft.sent) {
		return ""
	}
	return hex.EncodeToString(ft.sent[i])
}
