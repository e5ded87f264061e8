package netmd

import (
	"time"

	"github.com/hansbonini/mdtools/pkg/common"
)

// StatusReader turns raw replies into payloads according to their status
// byte. It is shared by the NetMD and factory command sets.
type StatusReader struct {
	// Interval is the base of the interim retry schedule interval*(2^attempt-1)
	Interval time.Duration
	// MaxAttempts is the number of reads before giving up on interim replies
	MaxAttempts int

	sleep func(time.Duration)
}

// NewStatusReader returns a reader with the default retry policy
func NewStatusReader() StatusReader {
	return StatusReader{
		Interval:    time.Duration(common.DefaultInterimIntervalMs) * time.Millisecond,
		MaxAttempts: common.DefaultMaxInterimAttempts,
		sleep:       time.Sleep,
	}
}

// Read calls read until it yields a final reply and returns the payload
// without its status byte. Interim replies are retried unless acceptInterim
// is set.
func (r StatusReader) Read(read func() ([]byte, error), acceptInterim bool) ([]byte, error) {
	sleep := r.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var data []byte
	attempt := 0
	for attempt < r.MaxAttempts {
		var err error
		data, err = read()
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, ErrEmptyReply
		}

		status := data[0]
		if status == StatusNotImplemented {
			return nil, ErrNotImplemented
		}
		if status == StatusRejected {
			return nil, &RejectedError{Reply: data}
		}
		if status == StatusInterim && !acceptInterim {
			wait := r.Interval * time.Duration((1<<attempt)-1)
			common.LogDebug(common.DebugInterimRetry, attempt+1, wait)
			sleep(wait)
			attempt++
			continue
		}
		break
	}
	if attempt >= r.MaxAttempts {
		return nil, &RejectedError{Reason: "max attempts reached while device reported interim status"}
	}
	return data[1:], nil
}
