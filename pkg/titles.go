package pkg

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/hansbonini/mdtools/pkg/common"
	"github.com/hansbonini/mdtools/pkg/netmd"
	"github.com/hansbonini/mdtools/pkg/sjis"
)

// The table of contents stores titles in 255 cells of 7 half-width
// characters. A full-width character takes the room of two.
const (
	TitleCellLimit = 255
	CellCharacters = 7
)

// ErrTitleBudgetExceeded reports that groups or titles were dropped to fit
// the table of contents.
var ErrTitleBudgetExceeded = errors.New("title budget exceeded")

// CompiledTitles is the raw disc title pair produced by CompileDiscTitles
type CompiledTitles struct {
	Title          string
	FullWidthTitle string
	// Indexes of the groups left out of each title variant
	DroppedHalfWidth []int
	DroppedFullWidth []int
	// Set when the disc title itself did not fit
	ClearedHalfWidth bool
	ClearedFullWidth bool
}

// Err returns ErrTitleBudgetExceeded wrapped with what was dropped, or nil
// when everything fit.
func (c *CompiledTitles) Err() error {
	if len(c.DroppedHalfWidth) == 0 && len(c.DroppedFullWidth) == 0 && !c.ClearedHalfWidth && !c.ClearedFullWidth {
		return nil
	}
	return fmt.Errorf("%w: %d half-width and %d full-width groups dropped",
		ErrTitleBudgetExceeded, len(c.DroppedHalfWidth), len(c.DroppedFullWidth))
}

func cells(length int) int {
	return (length + CellCharacters - 1) / CellCharacters
}

func halfWidthCells(s string) int {
	return cells(sjis.HalfWidthLength(s))
}

func fullWidthCells(s string) int {
	return cells(utf8.RuneCountInString(s) * 2)
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// TrackTitleCells returns the cells used by the titles of one track. Non-SP
// tracks always take at least one cell per variant since the device
// prepends an LP marker.
func TrackTitleCells(t Track) int {
	correction := 0
	if t.Encoding != netmd.EncodingSP {
		correction = 1
	}
	return max(correction, halfWidthCells(stringOrEmpty(t.Title))) +
		max(correction, fullWidthCells(stringOrEmpty(t.FullWidthTitle)))
}

func trackTitlesCells(disc *Disc) int {
	used := 0
	for _, t := range disc.Tracks() {
		used += TrackTitleCells(t)
	}
	return used
}

// groupRange returns the one-based track range of g, "3" or "3-5"
func groupRange(g Group) string {
	first := g.Tracks[0].Index + 1
	last := g.Tracks[len(g.Tracks)-1].Index + 1
	if first == last {
		return strconv.Itoa(first)
	}
	return fmt.Sprintf("%d-%d", first, last)
}

// RemainingCharactersForTitles returns how many half-width characters are
// left for new titles, assuming the worst case framing of the disc title
// and, with includeGroups, the group headers of disc.
func RemainingCharactersForTitles(disc *Disc, includeGroups bool) int {
	fwTitle := disc.FullWidthTitle + "0;//"
	hwTitle := disc.Title + "0;//"
	if includeGroups {
		for _, g := range disc.Groups {
			if g.Title == nil || len(g.Tracks) == 0 {
				continue
			}
			r := groupRange(g) + "//"
			fwTitle += stringOrEmpty(g.FullWidthTitle) + r
			hwTitle += *g.Title + r
		}
	}

	used := fullWidthCells(fwTitle) + halfWidthCells(hwTitle) + trackTitlesCells(disc)
	return max(TitleCellLimit-used, 0) * CellCharacters
}

func usesFullWidth(disc *Disc) bool {
	if disc.FullWidthTitle != "" {
		return true
	}
	for _, g := range disc.Groups {
		if stringOrEmpty(g.FullWidthTitle) != "" {
			return true
		}
		for _, t := range g.Tracks {
			if stringOrEmpty(t.FullWidthTitle) != "" {
				return true
			}
		}
	}
	return false
}

// CompileDiscTitles packs the disc title and the group headers of disc into
// raw disc titles that fit the table of contents. Groups are appended in
// order. A group header that does not fit one variant is left out of that
// variant only and later groups are still tried. When the disc title alone
// does not fit a variant, that variant is cleared.
func CompileDiscTitles(disc *Disc) *CompiledTitles {
	available := RemainingCharactersForTitles(&Disc{Groups: disc.Groups}, false)
	useFullWidth := usesFullWidth(disc)
	common.LogDebug(common.DebugTitleBudget, trackTitlesCells(disc), available/CellCharacters)

	out := &CompiledTitles{}
	var hw, fw string
	if disc.Title != "" {
		hw = netmd.TitleMarker + disc.Title + netmd.GroupDelimiter
	}
	if useFullWidth {
		fw = netmd.TitleMarkerFullWidth + disc.FullWidthTitle + netmd.GroupDelimiterFullWidth
	}

	cost := func(hw, fw string) int {
		n := halfWidthCells(hw)
		if useFullWidth {
			n += fullWidthCells(fw)
		}
		return n * CellCharacters
	}
	hwEnabled, fwEnabled := true, useFullWidth
	if cost(hw, "") > available {
		hw, hwEnabled = "", false
		out.ClearedHalfWidth = true
		common.LogWarn(common.WarnTitlesCleared, "half-width")
	}
	if useFullWidth && cost(hw, fw) > available {
		fw, fwEnabled = "", false
		out.ClearedFullWidth = true
		common.LogWarn(common.WarnTitlesCleared, "full-width")
	}

	for i, g := range disc.Groups {
		if g.Title == nil || len(g.Tracks) == 0 {
			continue
		}
		r := groupRange(g)

		if candidate := hw + r + ";" + *g.Title + netmd.GroupDelimiter; hwEnabled && cost(candidate, fw) <= available {
			hw = candidate
		} else {
			out.DroppedHalfWidth = append(out.DroppedHalfWidth, i)
			common.LogDebug(common.DebugGroupSkipped, i, *g.Title, "half-width")
		}

		if !useFullWidth {
			continue
		}
		candidate := fw + sjis.HalfWidthToFullWidthRange(r) + "；" + stringOrEmpty(g.FullWidthTitle) + netmd.GroupDelimiterFullWidth
		if fwEnabled && cost(hw, candidate) <= available {
			fw = candidate
		} else {
			out.DroppedFullWidth = append(out.DroppedFullWidth, i)
			common.LogDebug(common.DebugGroupSkipped, i, *g.Title, "full-width")
		}
	}

	out.Title, out.FullWidthTitle = hw, fw
	return out
}
