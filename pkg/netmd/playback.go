package netmd

import (
	"fmt"

	"github.com/hansbonini/mdtools/pkg/common"
)

// Playback actions
const (
	actionPlay        = 0x75
	actionPause       = 0x7d
	actionFastForward = 0x39
	actionRewind      = 0x49
)

// Track change directions
const (
	trackPrevious = 0x0002
	trackNext     = 0x8001
	trackRestart  = 0x0001
)

// Position is the current playback position
type Position struct {
	Track int  `yaml:"track"`
	Time  Time `yaml:"time"`
}

// Status returns the raw status block of the operating status descriptor
func (md *Interface) Status() ([]byte, error) {
	var status []byte
	err := md.withDescriptor(DescriptorOperatingStatusBlock, func() error {
		res, err := md.transact(
			"1809 8001 0230 8800 0030 8804 00 1000 00090000 %x",
			"1809 8001 0230 8800 0030 8804 00 ff00 00000000")
		if err != nil {
			return err
		}
		status = res.Bytes(0)
		return nil
	})
	return status, err
}

// IsDiscPresent reports whether a disc is inserted
func (md *Interface) IsDiscPresent() (bool, error) {
	status, err := md.Status()
	if err != nil {
		return false, err
	}
	return len(status) > 4 && status[4] == 0x40, nil
}

// FullOperatingStatus returns the status mode byte and the raw operating
// status word.
func (md *Interface) FullOperatingStatus() (byte, uint16, error) {
	var mode byte
	var word uint16
	err := md.withDescriptor(DescriptorOperatingStatusBlock, func() error {
		res, err := md.transact(
			"1809 8001 0330 8802 0030 8805 0030 8806 00 1000 00%?0000 00%b 8806 %x",
			"1809 8001 0330 8802 0030 8805 0030 8806 00 ff00 00000000")
		if err != nil {
			return err
		}
		op := res.Bytes(1)
		if len(op) < 2 {
			return fmt.Errorf("%w: operating status too short (%d bytes)", ErrEmptyReply, len(op))
		}
		mode = byte(res.Uint(0))
		word = uint16(op[0])<<8 | uint16(op[1])
		return nil
	})
	return mode, word, err
}

// OperatingStatus returns the raw operating status word
func (md *Interface) OperatingStatus() (uint16, error) {
	_, word, err := md.FullOperatingStatus()
	return word, err
}

func (md *Interface) playbackStatus(p1, p2 int) ([]byte, error) {
	var status []byte
	err := md.withDescriptor(DescriptorOperatingStatusBlock, func() error {
		res, err := md.transact(
			"1809 8001 0330 %?%? %?%? %?%? %?%? %?%? %? 1000 00%?0000 %x %?",
			"1809 8001 0330 %w 0030 8805 0030 %w 00 ff00 00000000", p1, p2)
		if err != nil {
			return err
		}
		status = res.Bytes(0)
		return nil
	})
	return status, err
}

// PlaybackStatus1 returns the first playback status block
func (md *Interface) PlaybackStatus1() ([]byte, error) {
	return md.playbackStatus(0x8801, 0x8807)
}

// PlaybackStatus2 returns the second playback status block
func (md *Interface) PlaybackStatus2() ([]byte, error) {
	return md.playbackStatus(0x8802, 0x8806)
}

// Position returns the playback position, or nil when the device has none
func (md *Interface) Position() (*Position, error) {
	var pos *Position
	err := md.withDescriptor(DescriptorOperatingStatusBlock, func() error {
		res, err := md.transact(
			"1809 8001 0430 %?%? %?%? %?%? %?%? %?%? %?%? %?%? %? %?00 00%?0000 000b 0002 0007 00 %w %B %B %B %B",
			"1809 8001 0430 8802 0030 8805 0030 0003 0030 0002 00 ff00 00000000")
		if err != nil {
			if isRejected(err) {
				return nil
			}
			return err
		}
		pos = &Position{
			Track: res.Int(0),
			Time:  Time{Hour: res.Int(1), Minute: res.Int(2), Second: res.Int(3), Frame: res.Int(4)},
		}
		return nil
	})
	return pos, err
}

// EjectDisc ejects the disc
func (md *Interface) EjectDisc() error {
	_, err := md.transact("18c1 ff 6000", "18c1 ff 6000")
	return err
}

// CanEjectDisc asks the device whether an eject would be accepted
func (md *Interface) CanEjectDisc() bool {
	_, err := md.SendQuery([]byte{0x18, 0xc1, 0xff, 0x60, 0x00}, true, false)
	return err == nil
}

func (md *Interface) playbackControl(action int) error {
	_, err := md.transact("18c3 00 %b 000000", "18c3 ff %b 000000", action)
	return err
}

// Play starts playback
func (md *Interface) Play() error { return md.playbackControl(actionPlay) }

// Pause pauses playback
func (md *Interface) Pause() error { return md.playbackControl(actionPause) }

// FastForward starts fast forward
func (md *Interface) FastForward() error { return md.playbackControl(actionFastForward) }

// Rewind starts rewind
func (md *Interface) Rewind() error { return md.playbackControl(actionRewind) }

// Stop stops playback. Errors are ignored since some devices reject stop
// when already stopped.
func (md *Interface) Stop() {
	if _, err := md.transact("18c5 00 00000000", "18c5 ff 00000000"); err != nil {
		common.LogDebug("Stop ignored: %v", err)
	}
}

// GotoTrack moves the head to the start of track and returns the track the
// device reports.
func (md *Interface) GotoTrack(track int) (int, error) {
	res, err := md.transact("1850 00010000 0000 %w", "1850 ff010000 0000 %w", track)
	if err != nil {
		return 0, err
	}
	return res.Int(0), nil
}

// GotoTime moves the head to t within track
func (md *Interface) GotoTime(track int, t Time) (*Position, error) {
	res, err := md.transact(
		"1850 00000000 %?%? %w %B%B%B%B",
		"1850 ff000000 0000 %w %B%B%B%B", track, t.Hour, t.Minute, t.Second, t.Frame)
	if err != nil {
		return nil, err
	}
	return &Position{
		Track: res.Int(0),
		Time:  Time{Hour: res.Int(1), Minute: res.Int(2), Second: res.Int(3), Frame: res.Int(4)},
	}, nil
}

func (md *Interface) trackChange(direction int) error {
	_, err := md.transact("1850 0010 00000000 %?%?", "1850 ff10 00000000 %w", direction)
	return err
}

// NextTrack skips to the next track
func (md *Interface) NextTrack() error { return md.trackChange(trackNext) }

// PreviousTrack skips to the previous track
func (md *Interface) PreviousTrack() error { return md.trackChange(trackPrevious) }

// RestartTrack restarts the current track
func (md *Interface) RestartTrack() error { return md.trackChange(trackRestart) }

// EraseDisc erases every track and title on the disc
func (md *Interface) EraseDisc() error {
	_, err := md.transact("1840 00 0000", "1840 ff 0000")
	return err
}
