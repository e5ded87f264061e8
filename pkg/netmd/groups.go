package netmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hansbonini/mdtools/pkg/sjis"
)

// TrackGroup is one group decoded from the disc title. A nil Title marks the
// bucket of ungrouped tracks.
type TrackGroup struct {
	Title          *string
	FullWidthTitle *string
	Tracks         []int
}

// ParseTrackGroups decodes the group headers stored in the raw disc titles.
// Range upper bounds are clamped to trackCount since group headers are not
// rewritten when tracks are erased.
func ParseTrackGroups(raw, rawFullWidth string, trackCount int) ([]TrackGroup, error) {
	owner := make(map[int]string)
	fullWidthGroups := strings.Split(rawFullWidth, GroupDelimiterFullWidth)
	var result []TrackGroup

	if !strings.Contains(raw, GroupDelimiter) {
		return withUngrouped(result, owner, trackCount), nil
	}

	for _, group := range strings.Split(raw, GroupDelimiter) {
		if group == "" || strings.HasPrefix(group, TitleMarker) || !strings.Contains(group, ";") {
			continue
		}
		trackRange := group[:strings.Index(group, ";")]
		if trackRange == "" {
			continue
		}
		name := group[len(trackRange)+1:]

		var fullWidthName *string
		fullWidthPrefix := sjis.HalfWidthToFullWidthRange(trackRange) + "；"
		for _, candidate := range fullWidthGroups {
			if strings.HasPrefix(candidate, fullWidthPrefix) {
				fw := candidate[len(fullWidthPrefix):]
				fullWidthName = &fw
				break
			}
		}

		trackMin, trackMax, err := parseTrackRange(trackRange)
		if err != nil {
			return nil, err
		}
		if trackMax > trackCount {
			trackMax = trackCount
		}
		// Ranges are 1-based; a range starting at 0 would claim track index -1.
		if trackMin < 1 || trackMin > trackMax {
			return nil, fmt.Errorf("%w: invalid range %q in group %q", ErrGroupCorrupted, trackRange, name)
		}

		var tracks []int
		for track := trackMin - 1; track < trackMax; track++ {
			if other, ok := owner[track]; ok {
				return nil, fmt.Errorf("%w: track %d is in 2 groups: %q and %q", ErrGroupCorrupted, track, other, name)
			}
			owner[track] = name
			tracks = append(tracks, track)
		}
		title := name
		result = append(result, TrackGroup{Title: &title, FullWidthTitle: fullWidthName, Tracks: tracks})
	}
	return withUngrouped(result, owner, trackCount), nil
}

func parseTrackRange(trackRange string) (int, int, error) {
	lo, hi := trackRange, trackRange
	if i := strings.Index(trackRange, "-"); i >= 0 {
		lo, hi = trackRange[:i], trackRange[i+1:]
	}
	trackMin, err := strconv.Atoi(lo)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid range %q", ErrGroupCorrupted, trackRange)
	}
	trackMax, err := strconv.Atoi(hi)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid range %q", ErrGroupCorrupted, trackRange)
	}
	return trackMin, trackMax, nil
}

func withUngrouped(groups []TrackGroup, owner map[int]string, trackCount int) []TrackGroup {
	var ungrouped []int
	for track := 0; track < trackCount; track++ {
		if _, ok := owner[track]; !ok {
			ungrouped = append(ungrouped, track)
		}
	}
	if len(ungrouped) == 0 {
		return groups
	}
	return append([]TrackGroup{{Tracks: ungrouped}}, groups...)
}
