package netmd

import (
	"strings"
	"time"

	"github.com/hansbonini/mdtools/pkg/common"
	"github.com/hansbonini/mdtools/pkg/query"
	"github.com/hansbonini/mdtools/pkg/sjis"
)

// Disc title delimiters and disc title markers
const (
	GroupDelimiter          = "//"
	GroupDelimiterFullWidth = "／／"
	TitleMarker             = "0;"
	TitleMarkerFullWidth    = "０；"
)

// Sharp devices need the UTOC descriptor opened to rename a disc
const sharpRenameVendor = VendorSharp

// DiscFlags returns the disc flag byte
func (md *Interface) DiscFlags() (byte, error) {
	var flags byte
	err := md.withDescriptor(DescriptorRootTD, func() error {
		res, err := md.transact("1806 01101000 1000 0001000b %b", "1806 01101000 ff00 0001000b")
		if err != nil {
			return err
		}
		flags = byte(res.Uint(0))
		return nil
	})
	return flags, err
}

// TrackCount returns the number of tracks on the disc
func (md *Interface) TrackCount() (int, error) {
	var count int
	err := md.withDescriptor(DescriptorAudioContentsTD, func() error {
		res, err := md.transact(
			"1806 02101001 %?%? %?%? 1000 00%?0000 0006 0010000200%b",
			"1806 02101001 3000 1000 ff00 00000000")
		if err != nil {
			return err
		}
		count = res.Int(0)
		return nil
	})
	return count, err
}

func wcharFlag(fullWidth bool, half, full int) int {
	if fullWidth {
		return full
	}
	return half
}

// RawDiscTitle returns the whole disc title field including group headers.
// The field is read in chunks until the reported total is reached.
func (md *Interface) RawDiscTitle(fullWidth bool) (string, error) {
	md.ChangeDescriptorState(DescriptorAudioContentsTD, ActionOpenRead)
	defer md.ChangeDescriptorState(DescriptorAudioContentsTD, ActionClose)
	md.ChangeDescriptorState(DescriptorDiscTitleTD, ActionOpenRead)
	defer md.ChangeDescriptorState(DescriptorDiscTitleTD, ActionClose)

	wchar := wcharFlag(fullWidth, 0, 1)
	var raw []byte
	done, remaining, total := 0, 0, 1
	for done < total {
		var chunkSize int
		if remaining == 0 {
			res, err := md.transact(
				"1806 02201801 00%? 3000 0a00 1000 %w0000 %?%?000a %w %*",
				"1806 02201801 00%b 3000 0a00 ff00 %w%w", wchar, remaining, done)
			if err != nil {
				return "", err
			}
			chunkSize = res.Int(0) - 6
			total = res.Int(1)
			raw = append(raw, res.Bytes(2)...)
		} else {
			res, err := md.transact(
				"1806 02201801 00%? 3000 0a00 1000 %w%?%? %*",
				"1806 02201801 00%b 3000 0a00 ff00 %w%w", wchar, remaining, done)
			if err != nil {
				return "", err
			}
			chunkSize = res.Int(0)
			raw = append(raw, res.Bytes(1)...)
		}
		if chunkSize <= 0 {
			break
		}
		done += chunkSize
		remaining = total - done
	}
	return sjis.Decode(raw)
}

// DiscTitleFromRaw extracts the disc title from a raw title field
func DiscTitleFromRaw(raw string, fullWidth bool) string {
	delim, marker := GroupDelimiter, TitleMarker
	if fullWidth {
		delim, marker = GroupDelimiterFullWidth, TitleMarkerFullWidth
	}
	if !strings.HasSuffix(raw, delim) {
		return raw
	}
	first := strings.SplitN(raw, delim, 2)[0]
	if strings.HasPrefix(first, marker) {
		return first[len(marker):]
	}
	return ""
}

// DiscTitle returns the disc title without group headers
func (md *Interface) DiscTitle(fullWidth bool) (string, error) {
	raw, err := md.RawDiscTitle(fullWidth)
	if err != nil {
		return "", err
	}
	return DiscTitleFromRaw(raw, fullWidth), nil
}

// TrackGroupList reads both raw titles and the track count and returns the
// decoded groups.
func (md *Interface) TrackGroupList() ([]TrackGroup, error) {
	raw, err := md.RawDiscTitle(false)
	if err != nil {
		return nil, err
	}
	count, err := md.TrackCount()
	if err != nil {
		return nil, err
	}
	rawFullWidth, err := md.RawDiscTitle(true)
	if err != nil {
		return nil, err
	}
	return ParseTrackGroups(raw, rawFullWidth, count)
}

func titleDescriptor(fullWidth bool) Descriptor {
	if fullWidth {
		return DescriptorAudioUTOC4TD
	}
	return DescriptorAudioUTOC1TD
}

// TrackTitle returns the title of track
func (md *Interface) TrackTitle(track int, fullWidth bool) (string, error) {
	var title string
	err := md.withDescriptor(titleDescriptor(fullWidth), func() error {
		res, err := md.transact(
			"1806 022018%? %?%? %?%? %?%? 1000 00%?0000 00%?000a %x",
			"1806 022018%b %w 3000 0a00 ff00 00000000", wcharFlag(fullWidth, 2, 3), track)
		if err != nil {
			return err
		}
		title, err = sjis.Decode(res.Bytes(0))
		return err
	})
	return title, err
}

// SetDiscTitle writes the raw disc title field. Writing an unchanged title
// is skipped.
func (md *Interface) SetDiscTitle(title string, fullWidth bool) error {
	current, err := md.RawDiscTitle(fullWidth)
	if err != nil {
		return err
	}
	if current == title {
		return nil
	}

	oldLen := sjis.Length(current)
	newLen := sjis.Length(title)
	if fullWidth {
		title = sjis.SanitizeFullWidth(title)
	} else {
		title = sjis.SanitizeHalfWidth(title)
	}
	encoded, err := sjis.Encode(title)
	if err != nil {
		return common.FormatError(common.ErrFailedToEncodeTitle, err)
	}

	sharp := md.link.Vendor == sharpRenameVendor
	if sharp {
		md.ChangeDescriptorState(DescriptorAudioUTOC1TD, ActionOpenWrite)
	} else {
		md.ChangeDescriptorState(DescriptorDiscTitleTD, ActionClose)
		md.ChangeDescriptorState(DescriptorDiscTitleTD, ActionOpenWrite)
	}
	_, err = md.transact(
		"1807 02201801 00%? 3000 0a00 5000 %?%? 0000 %?%?",
		"1807 02201801 00%b 3000 0a00 5000 %w 0000 %w %*",
		wcharFlag(fullWidth, 0, 1), newLen, oldLen, encoded)
	if sharp {
		md.ChangeDescriptorState(DescriptorAudioUTOC1TD, ActionClose)
	} else {
		md.ChangeDescriptorState(DescriptorDiscTitleTD, ActionClose)
		md.ChangeDescriptorState(DescriptorDiscTitleTD, ActionOpenRead)
		md.ChangeDescriptorState(DescriptorDiscTitleTD, ActionClose)
	}
	return err
}

// SetTrackTitle writes the title of track. A device that rejects reading
// the current title is treated as having none.
func (md *Interface) SetTrackTitle(track int, title string, fullWidth bool) error {
	if fullWidth {
		title = sjis.SanitizeFullWidth(title)
	} else {
		title = sjis.SanitizeHalfWidth(title)
	}
	newLen := sjis.Length(title)

	oldLen := 0
	current, err := md.TrackTitle(track, fullWidth)
	switch {
	case err == nil:
		if current == title {
			return nil
		}
		oldLen = sjis.Length(current)
	case !isRejected(err):
		return err
	}

	encoded, err := sjis.Encode(title)
	if err != nil {
		return common.FormatError(common.ErrFailedToEncodeTitle, err)
	}

	d := titleDescriptor(fullWidth)
	md.ChangeDescriptorState(d, ActionOpenWrite)
	defer md.ChangeDescriptorState(d, ActionClose)
	_, err = md.transact(
		"1807 022018%? %?%? 3000 0a00 5000 %?%? 0000 %?%?",
		"1807 022018%b %w 3000 0a00 5000 %w 0000 %w %*",
		wcharFlag(fullWidth, 2, 3), track, newLen, oldLen, encoded)
	return err
}

// EraseTrack removes track from the disc
func (md *Interface) EraseTrack(track int) error {
	q, err := query.Format("1840 ff01 00 201001 %w", track)
	if err != nil {
		return err
	}
	_, err = md.SendQuery(q, false, false)
	return err
}

// MoveTrack moves track source to position dest
func (md *Interface) MoveTrack(source, dest int) error {
	q, err := query.Format("1843 ff00 00 201001 %w 201001 %w", source, dest)
	if err != nil {
		return err
	}
	_, err = md.SendQuery(q, false, false)
	return err
}

func (md *Interface) trackInfo(track, p1, p2 int) ([]byte, error) {
	var info []byte
	err := md.withDescriptor(DescriptorAudioContentsTD, func() error {
		res, err := md.transact(
			"1806 02201001 %?%? %?%? %?%? 1000 00%?0000 %x",
			"1806 02201001 %w %w %w ff00 00000000", track, p1, p2)
		if err != nil {
			return err
		}
		info = res.Bytes(0)
		return nil
	})
	return info, err
}

// TrackLength returns the duration of track
func (md *Interface) TrackLength(track int) (Time, error) {
	info, err := md.trackInfo(track, 0x3000, 0x0100)
	if err != nil {
		return Time{}, err
	}
	res, err := query.Scan(info, "0001 0006 0000 %B %B %B %B")
	if err != nil {
		return Time{}, err
	}
	return Time{Hour: res.Int(0), Minute: res.Int(1), Second: res.Int(2), Frame: res.Int(3)}, nil
}

// TrackEncoding returns the encoding and channel mode of track
func (md *Interface) TrackEncoding(track int) (Encoding, Channels, error) {
	info, err := md.trackInfo(track, 0x3080, 0x0700)
	if err != nil {
		return 0, 0, err
	}
	res, err := query.Scan(info, "8007 0004 0110 %b %b")
	if err != nil {
		return 0, 0, err
	}
	return Encoding(res.Uint(0)), Channels(res.Uint(1)), nil
}

// TrackFlags returns the protection flag of track
func (md *Interface) TrackFlags(track int) (TrackFlag, error) {
	var flag TrackFlag
	err := md.withDescriptor(DescriptorAudioContentsTD, func() error {
		res, err := md.transact("1806 01201001 %?%? 10 00 00010008 %b", "1806 01201001 %w ff00 00010008", track)
		if err != nil {
			return err
		}
		flag = TrackFlag(res.Uint(0))
		return nil
	})
	return flag, err
}

// DiscCapacity returns the used, total and remaining recording time. The
// byte before 03 differs between vendors and is not checked.
func (md *Interface) DiscCapacity() (used, total, left Time, err error) {
	err = md.withDescriptor(DescriptorRootTD, func() error {
		res, err := md.transact(
			"1806 02101000 3080 0300 1000 001d0000 001b %?03 0017 8000 "+
				"0005 %W %B %B %B 0005 %W %B %B %B 0005 %W %B %B %B",
			"1806 02101000 3080 0300 ff00 00000000")
		if err != nil {
			return err
		}
		at := func(i int) Time {
			return Time{Hour: res.Int(i), Minute: res.Int(i + 1), Second: res.Int(i + 2), Frame: res.Int(i + 3)}
		}
		used, total, left = at(0), at(4), at(8)
		return nil
	})
	return used, total, left, err
}

// RecordingParameters returns the current recording encoding and channel mode
func (md *Interface) RecordingParameters() (Encoding, Channels, error) {
	var enc Encoding
	var ch Channels
	err := md.withDescriptor(DescriptorOperatingStatusBlock, func() error {
		res, err := md.transact(
			"1809 8001 0330 8801 0030 8805 0030 8807 00 1000 000e0000 000c 8805 0008 80e0 0110 %b %b 4000",
			"1809 8001 0330 8801 0030 8805 0030 8807 00 ff00 00000000")
		if err != nil {
			return err
		}
		enc, ch = Encoding(res.Uint(0)), Channels(res.Uint(1))
		return nil
	})
	return enc, ch, err
}

// uploadSettle is the pause the device needs after a bulk upload
const uploadSettle = 500 * time.Millisecond

// SaveTrackToArray reads the audio of track from the device. Only devices
// that support upload (MZ-RH1, MZ-M200) accept this command.
func (md *Interface) SaveTrackToArray(track int, progress func(total, read int)) (DiscFormat, int, []byte, error) {
	q, err := query.Format("1800 080046 f003010330 ff00 1001 %w", track+1)
	if err != nil {
		return 0, 0, nil, err
	}
	reply, err := md.SendQuery(q, false, true)
	if err != nil {
		return 0, 0, nil, err
	}
	res, err := query.Scan(reply, "1800 080046 f0030103 300000 1001 %w %b %d")
	if err != nil {
		return 0, 0, nil, err
	}
	frames, codec, length := res.Int(0), byte(res.Uint(1)), res.Int(2)

	data, err := md.link.ReadBulk(length, DefaultBulkChunkSize, progress)
	if err != nil {
		return 0, 0, nil, err
	}
	reply, err = md.ReadReply(false)
	if err != nil {
		return 0, 0, nil, err
	}
	if _, err := query.Scan(reply, "1800 080046 f003010330 0000 1001 %?%? %?%?"); err != nil {
		return 0, 0, nil, err
	}
	md.link.pause(uploadSettle)

	return DiscFormat(codec & 0x06), frames, data, nil
}

// DisableNewTrackProtection sets the protection applied to new tracks
func (md *Interface) DisableNewTrackProtection(val int) error {
	_, err := md.transact("1800 080046 f0030103 2b 00 %?%?", "1800 080046 f0030103 2b ff %w", val)
	return err
}
