package pkg

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/hansbonini/mdtools/pkg/common"
	"github.com/hansbonini/mdtools/pkg/netmd"
	"github.com/hansbonini/mdtools/pkg/sjis"
)

// readyPollInterval is how often Download checks whether the device can
// accept a new track.
var readyPollInterval = 200 * time.Millisecond

var (
	discTitlePrefix          = regexp.MustCompile(`^0;.*?//`)
	discTitlePrefixFullWidth = regexp.MustCompile(`^０；.*?／／`)
)

// GetDeviceStatus reads the transport state, playback position and disc
// presence.
func GetDeviceStatus(md *netmd.Interface) (*DeviceStatus, error) {
	status, err := md.Status()
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToReadStatus, err)
	}
	playback, err := md.PlaybackStatus2()
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToReadStatus, err)
	}
	if len(playback) < 6 {
		return nil, common.FormatErrorString(common.ErrFailedToReadStatus, "playback status of %d bytes", len(playback))
	}
	position, err := md.Position()
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToReadStatus, err)
	}

	word := uint16(playback[4])<<8 | uint16(playback[5])
	discPresent := len(status) > 4 && status[4] != 0x80
	state := netmd.DecodeOperatingStatus(word, discPresent)

	ds := &DeviceStatus{
		DiscPresent: netmd.DiscPresentInStatus(status, state),
		State:       state,
	}
	if position != nil {
		track, t := position.Track, position.Time
		ds.Track, ds.Time = &track, &t
	}
	return ds, nil
}

// ListContent reads the disc titles, capacity, groups and every track
func ListContent(md *netmd.Interface) (*Disc, error) {
	disc, err := listContent(md)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToListContent, err)
	}
	common.LogInfo(common.InfoDiscListed, disc.TrackCount, len(disc.Groups))
	return disc, nil
}

func listContent(md *netmd.Interface) (*Disc, error) {
	flags, err := md.DiscFlags()
	if err != nil {
		return nil, err
	}
	title, err := md.DiscTitle(false)
	if err != nil {
		return nil, err
	}
	fullWidthTitle, err := md.DiscTitle(true)
	if err != nil {
		return nil, err
	}
	used, total, left, err := md.DiscCapacity()
	if err != nil {
		return nil, err
	}
	trackCount, err := md.TrackCount()
	if err != nil {
		return nil, err
	}

	disc := &Disc{
		Title:          title,
		FullWidthTitle: fullWidthTitle,
		Writable:       flags&netmd.DiscFlagWritable != 0,
		WriteProtected: flags&netmd.DiscFlagWriteProtected != 0,
		Used:           used.Frames(),
		Left:           left.Frames(),
		Total:          total.Frames(),
		TrackCount:     trackCount,
	}

	groups, err := md.TrackGroupList()
	if err != nil {
		return nil, err
	}
	for i, tg := range groups {
		g := Group{Index: i, Title: tg.Title, FullWidthTitle: tg.FullWidthTitle}
		for _, index := range tg.Tracks {
			t, err := readTrack(md, index)
			if err != nil {
				return nil, err
			}
			g.Tracks = append(g.Tracks, t)
		}
		disc.Groups = append(disc.Groups, g)
	}
	return disc, nil
}

func readTrack(md *netmd.Interface, index int) (Track, error) {
	title, err := md.TrackTitle(index, false)
	if err != nil {
		return Track{}, err
	}
	fullWidthTitle, err := md.TrackTitle(index, true)
	if err != nil {
		return Track{}, err
	}
	encoding, channels, err := md.TrackEncoding(index)
	if err != nil {
		return Track{}, err
	}
	length, err := md.TrackLength(index)
	if err != nil {
		return Track{}, err
	}
	flag, err := md.TrackFlags(index)
	if err != nil {
		return Track{}, err
	}
	return Track{
		Index:          index,
		Title:          &title,
		FullWidthTitle: &fullWidthTitle,
		Duration:       length.Frames(),
		Channel:        channels,
		Encoding:       encoding,
		Protected:      flag,
	}, nil
}

// replaceDiscTitle returns the raw disc title with its disc title segment
// replaced by name. Raw titles without group headers are replaced whole. An
// empty name removes the segment.
func replaceDiscTitle(raw, name string, fullWidth bool) string {
	marker, delim, prefix := netmd.TitleMarker, netmd.GroupDelimiter, discTitlePrefix
	if fullWidth {
		marker, delim, prefix = netmd.TitleMarkerFullWidth, netmd.GroupDelimiterFullWidth, discTitlePrefixFullWidth
	}
	if !strings.Contains(raw, delim) {
		return name
	}
	if !strings.HasPrefix(raw, marker) {
		return marker + name + delim + raw
	}
	replacement := ""
	if name != "" {
		replacement = marker + name + delim
	}
	return prefix.ReplaceAllLiteralString(raw, replacement)
}

// RenameDisc sets the disc title while keeping the group headers stored in
// the same field. A nil fullWidthName leaves the full-width title alone.
func RenameDisc(md *netmd.Interface, name string, fullWidthName *string) error {
	name = sjis.SanitizeHalfWidth(name)

	if fullWidthName != nil {
		sanitized := sjis.SanitizeFullWidth(*fullWidthName)
		oldRaw, err := md.RawDiscTitle(true)
		if err != nil {
			return common.FormatError(common.ErrFailedToRenameDisc, err)
		}
		if sanitized != netmd.DiscTitleFromRaw(oldRaw, true) {
			if err := md.SetDiscTitle(replaceDiscTitle(oldRaw, sanitized, true), true); err != nil {
				return common.FormatError(common.ErrFailedToRenameDisc, err)
			}
		}
	}

	oldRaw, err := md.RawDiscTitle(false)
	if err != nil {
		return common.FormatError(common.ErrFailedToRenameDisc, err)
	}
	if name == netmd.DiscTitleFromRaw(oldRaw, false) {
		return nil
	}
	if err := md.SetDiscTitle(replaceDiscTitle(oldRaw, name, false), false); err != nil {
		return common.FormatError(common.ErrFailedToRenameDisc, err)
	}
	common.LogInfo(common.InfoDiscRenamed, name)
	return nil
}

// RewriteDiscGroups compiles the disc title and groups of disc and writes
// both raw titles. Groups that do not fit are dropped with a warning.
func RewriteDiscGroups(md *netmd.Interface, disc *Disc) error {
	compiled := CompileDiscTitles(disc)
	if compiled.Err() != nil {
		common.LogWarn(common.WarnTitleBudgetExceeded, len(compiled.DroppedHalfWidth), len(compiled.DroppedFullWidth))
	}
	if err := md.SetDiscTitle(compiled.Title, false); err != nil {
		return common.FormatError(common.ErrFailedToRewriteGroups, err)
	}
	if err := md.SetDiscTitle(compiled.FullWidthTitle, true); err != nil {
		return common.FormatError(common.ErrFailedToRewriteGroups, err)
	}
	common.LogInfo(common.InfoGroupsRewritten, strings.Count(compiled.Title, netmd.GroupDelimiter))
	return nil
}

// waitUntilReady polls the device until it is ready or holds a blank disc
func waitUntilReady(ctx context.Context, md *netmd.Interface) error {
	for {
		status, err := GetDeviceStatus(md)
		if err != nil {
			return err
		}
		if status.State == netmd.StateReady || status.State == netmd.StateDiscBlank {
			return nil
		}
		common.LogDebug(common.InfoWaitingForDevice, status.State)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readyPollInterval):
		}
	}
}

// Download writes track to the disc. A secure session left open by an
// earlier failed transfer is closed first.
func Download(ctx context.Context, md *netmd.Interface, track *netmd.Track, progress netmd.TransferProgress) (*netmd.DownloadResult, error) {
	if err := waitUntilReady(ctx, md); err != nil {
		return nil, common.FormatError(common.ErrFailedToDownloadTrack, err)
	}

	if err := md.SessionKeyForget(); err != nil {
		common.LogDebug(common.WarnStaleSession, err)
	}
	if err := md.LeaveSecureSession(); err != nil {
		common.LogDebug(common.WarnStaleSession, err)
	}

	if err := md.Acquire(); err != nil {
		return nil, common.FormatError(common.ErrFailedToDownloadTrack, err)
	}
	if err := md.DisableNewTrackProtection(1); err != nil {
		common.LogWarn(common.WarnTrackProtection, err)
	}

	session := netmd.NewSession(md)
	if err := session.Init(); err != nil {
		return nil, common.FormatError(common.ErrFailedToEnterSession, err)
	}
	result, err := session.DownloadTrack(ctx, track, progress)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToDownloadTrack, err)
	}
	if err := session.Close(); err != nil {
		return nil, common.FormatError(common.ErrFailedToDownloadTrack, err)
	}
	if err := md.Release(); err != nil {
		return nil, common.FormatError(common.ErrFailedToDownloadTrack, err)
	}

	common.LogInfo(common.InfoTrackDownloaded, result.Track)
	return result, nil
}

// Upload reads track back from the disc and wraps it in a container: AEA
// for SP tracks and an ATRAC3 WAV for LP tracks.
func Upload(md *netmd.Interface, track int, progress func(total, read int)) (netmd.DiscFormat, []byte, error) {
	format, frames, data, err := md.SaveTrackToArray(track, progress)
	if err != nil {
		return 0, nil, common.FormatError(common.ErrFailedToUploadTrack, err)
	}

	encoder := NewHeaderEncoder()
	var header []byte
	switch format {
	case netmd.DiscFormatSPStereo, netmd.DiscFormatSPMono:
		title, err := md.TrackTitle(track, false)
		if err != nil {
			return 0, nil, common.FormatError(common.ErrFailedToUploadTrack, err)
		}
		channels := 2
		if format == netmd.DiscFormatSPMono {
			channels = 1
		}
		header, err = encoder.AEAHeader(title, channels, frames)
		if err != nil {
			return 0, nil, common.FormatError(common.ErrFailedToUploadTrack, err)
		}
	default:
		header, err = encoder.WAVHeader(format, len(data))
		if err != nil {
			return 0, nil, common.FormatError(common.ErrFailedToUploadTrack, err)
		}
	}

	common.LogInfo(common.InfoTrackUploaded, track, len(data))
	return format, append(header, data...), nil
}
