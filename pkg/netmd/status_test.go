package netmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestStatusReader_InterimRetryCap(t *testing.T) {
	r := NewStatusReader()
	r.sleep = noSleep

	calls := 0
	_, err := r.Read(func() ([]byte, error) {
		calls++
		return []byte{StatusInterim, 0x18}, nil
	}, false)

	if calls != 4 {
		t.Errorf("read called %d times, want 4", calls)
	}
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("Read() error = %v, want ErrRejected", err)
	}
	var rejected *RejectedError
	if !errors.As(err, &rejected) || !strings.Contains(rejected.Reason, "max attempts") {
		t.Errorf("Read() error = %v, want max attempts reason", err)
	}
}

func TestStatusReader_InterimBackoff(t *testing.T) {
	r := NewStatusReader()
	var waits []int64
	r.sleep = func(d time.Duration) { waits = append(waits, int64(d/r.Interval)) }

	_, _ = r.Read(func() ([]byte, error) { return []byte{StatusInterim}, nil }, false)

	want := []int64{0, 1, 3, 7}
	if len(waits) != len(want) {
		t.Fatalf("slept %d times, want %d", len(waits), len(want))
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("sleep %d = %d intervals, want %d", i, waits[i], want[i])
		}
	}
}

func TestStatusReader_Read(t *testing.T) {
	tests := []struct {
		name          string
		reply         []byte
		acceptInterim bool
		want          []byte
		wantErr       error
	}{
		{"accepted", []byte{StatusAccepted, 0x18, 0x08}, false, []byte{0x18, 0x08}, nil},
		{"implemented", []byte{StatusImplemented, 0xaa}, false, []byte{0xaa}, nil},
		{"interim accepted", []byte{StatusInterim, 0x01}, true, []byte{0x01}, nil},
		{"not implemented", []byte{StatusNotImplemented, 0x18}, false, nil, ErrNotImplemented},
		{"rejected", []byte{StatusRejected, 0x18}, false, nil, ErrRejected},
		{"empty", []byte{}, false, nil, ErrEmptyReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewStatusReader()
			r.sleep = noSleep
			got, err := r.Read(func() ([]byte, error) { return tt.reply, nil }, tt.acceptInterim)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Read() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Read() = %x, want %x", got, tt.want)
			}
		})
	}
}

func TestRejectedError_CarriesReply(t *testing.T) {
	r := NewStatusReader()
	_, err := r.Read(func() ([]byte, error) { return []byte{StatusRejected, 0x18, 0x06}, nil }, false)
	if err == nil || !strings.Contains(err.Error(), "0a1806") {
		t.Errorf("Read() error = %v, want reply hex in message", err)
	}
}

func TestLink_PollBackoff(t *testing.T) {
	l := NewLink(&fakeTransport{}, 0, 0, "")
	tests := []struct {
		attempt int
		want    int64
	}{
		{0, 1}, {9, 1}, {10, 2}, {19, 2}, {20, 4}, {35, 8}, {1000, 1 << maxBackoffShift},
	}
	for _, tt := range tests {
		if got := int64(l.pollBackoff(tt.attempt) / l.PollInterval); got != tt.want {
			t.Errorf("pollBackoff(%d) = %d intervals, want %d", tt.attempt, got, tt.want)
		}
	}
}

func TestLink_PollTimeout(t *testing.T) {
	md, _ := newTestInterface(t, VendorSony)
	if _, err := md.Link().ReadReply(); !errors.Is(err, ErrPollTimeout) {
		t.Errorf("ReadReply() error = %v, want ErrPollTimeout", err)
	}
}

func TestLink_ReadBulk(t *testing.T) {
	ft := &fakeTransport{bulkIn: [][]byte{{1, 2, 3}, {4, 5}}}
	l := NewLink(ft, 0, 0, "")
	var reports []int
	data, err := l.ReadBulk(5, 3, func(total, read int) { reports = append(reports, read) })
	if err != nil {
		t.Fatalf("ReadBulk() error = %v", err)
	}
	if !bytes.Equal(data, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("ReadBulk() = %v", data)
	}
	if len(reports) != 2 || reports[1] != 5 {
		t.Errorf("progress reports = %v, want [3 5]", reports)
	}
}
