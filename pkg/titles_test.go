package pkg

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/hansbonini/mdtools/pkg/netmd"
)

func strPtr(s string) *string { return &s }

func spTrack(index int, title string) Track {
	return Track{Index: index, Title: strPtr(title), Encoding: netmd.EncodingSP}
}

// budgetDisc returns a disc whose ungrouped first track uses titleCells
// cells, followed by the given groups of one empty SP track each.
func budgetDisc(titleCells int, groups ...Group) *Disc {
	disc := &Disc{Groups: []Group{{Tracks: []Track{spTrack(0, strings.Repeat("x", titleCells*CellCharacters))}}}}
	for i, g := range groups {
		g.Index = i + 1
		g.Tracks = []Track{spTrack(i+1, "")}
		disc.Groups = append(disc.Groups, g)
	}
	return disc
}

func TestTrackTitleCells(t *testing.T) {
	tests := []struct {
		name  string
		track Track
		want  int
	}{
		{"empty SP", spTrack(0, ""), 0},
		{"empty LP2", Track{Encoding: netmd.EncodingLP2}, 2},
		{"SP eight characters", spTrack(0, "abcdefgh"), 2},
		{"LP4 short title", Track{Title: strPtr("ab"), Encoding: netmd.EncodingLP4}, 2},
		{"SP full-width", Track{Title: strPtr("a"), FullWidthTitle: strPtr("ＡＢＣＤ"), Encoding: netmd.EncodingSP}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrackTitleCells(tt.track); got != tt.want {
				t.Errorf("TrackTitleCells() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRemainingCharactersForTitles(t *testing.T) {
	if got := RemainingCharactersForTitles(&Disc{}, true); got != 252*CellCharacters {
		t.Errorf("empty disc = %d, want %d", got, 252*CellCharacters)
	}

	disc := &Disc{
		Title: "Mix",
		Groups: []Group{
			{Title: nil, Tracks: []Track{spTrack(0, "")}},
			{Title: strPtr("Rock"), Tracks: []Track{spTrack(1, ""), spTrack(2, "")}},
		},
	}
	if got := RemainingCharactersForTitles(disc, true); got != 249*CellCharacters {
		t.Errorf("with groups = %d, want %d", got, 249*CellCharacters)
	}
	if got := RemainingCharactersForTitles(disc, false); got != 252*CellCharacters {
		t.Errorf("without groups = %d, want %d", got, 252*CellCharacters)
	}
	if got := RemainingCharactersForTitles(budgetDisc(260), true); got != 0 {
		t.Errorf("full disc = %d, want 0", got)
	}
}

func TestCompileDiscTitles_AllFit(t *testing.T) {
	disc := &Disc{
		Title: "Mix",
		Groups: []Group{
			{Tracks: []Track{spTrack(0, "a")}},
			{Index: 1, Title: strPtr("Rock"), Tracks: []Track{spTrack(1, "b"), spTrack(2, "c")}},
			{Index: 2, Title: strPtr("Jazz"), Tracks: []Track{spTrack(3, "d")}},
			{Index: 3, Title: strPtr("Empty")},
		},
	}
	got := CompileDiscTitles(disc)
	if got.Title != "0;Mix//2-3;Rock//4;Jazz//" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.FullWidthTitle != "" {
		t.Errorf("FullWidthTitle = %q, want empty", got.FullWidthTitle)
	}
	if err := got.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestCompileDiscTitles_SkipsOverflowingGroup(t *testing.T) {
	disc := budgetDisc(248,
		Group{Title: strPtr("A")},
		Group{Title: strPtr(strings.Repeat("x", 30))},
		Group{Title: strPtr("C")},
	)
	got := CompileDiscTitles(disc)
	if got.Title != "2;A//4;C//" {
		t.Errorf("Title = %q, want %q", got.Title, "2;A//4;C//")
	}
	if !reflect.DeepEqual(got.DroppedHalfWidth, []int{2}) {
		t.Errorf("DroppedHalfWidth = %v, want [2]", got.DroppedHalfWidth)
	}
	if err := got.Err(); !errors.Is(err, ErrTitleBudgetExceeded) {
		t.Errorf("Err() = %v, want ErrTitleBudgetExceeded", err)
	}
}

func TestCompileDiscTitles_WidthsIndependent(t *testing.T) {
	disc := budgetDisc(240,
		Group{Title: strPtr("A"), FullWidthTitle: strPtr("Ａ")},
		Group{Title: strPtr("B"), FullWidthTitle: strPtr(strings.Repeat("Ｂ", 40))},
		Group{Title: strPtr("C"), FullWidthTitle: strPtr("Ｃ")},
	)
	got := CompileDiscTitles(disc)
	if got.Title != "2;A//3;B//4;C//" {
		t.Errorf("Title = %q", got.Title)
	}
	if want := "０；／／２；Ａ／／４；Ｃ／／"; got.FullWidthTitle != want {
		t.Errorf("FullWidthTitle = %q, want %q", got.FullWidthTitle, want)
	}
	if len(got.DroppedHalfWidth) != 0 {
		t.Errorf("DroppedHalfWidth = %v, want none", got.DroppedHalfWidth)
	}
	if !reflect.DeepEqual(got.DroppedFullWidth, []int{2}) {
		t.Errorf("DroppedFullWidth = %v, want [2]", got.DroppedFullWidth)
	}
}

func TestCompileDiscTitles_ClearsDiscTitle(t *testing.T) {
	disc := budgetDisc(254, Group{Title: strPtr("A")})
	disc.Title = "Mix"
	got := CompileDiscTitles(disc)
	if got.Title != "" || !got.ClearedHalfWidth {
		t.Errorf("Title = %q, cleared = %v", got.Title, got.ClearedHalfWidth)
	}
	if !reflect.DeepEqual(got.DroppedHalfWidth, []int{1}) {
		t.Errorf("DroppedHalfWidth = %v, want [1]", got.DroppedHalfWidth)
	}
	if err := got.Err(); !errors.Is(err, ErrTitleBudgetExceeded) {
		t.Errorf("Err() = %v, want ErrTitleBudgetExceeded", err)
	}
}

func TestCompileDiscTitles_RoundTrip(t *testing.T) {
	disc := &Disc{
		Title:          "Mix",
		FullWidthTitle: "ミックス",
		Groups: []Group{
			{Tracks: []Track{spTrack(0, "")}},
			{Index: 1, Title: strPtr("Rock"), FullWidthTitle: strPtr("ロック"), Tracks: []Track{spTrack(1, ""), spTrack(2, "")}},
		},
	}
	got := CompileDiscTitles(disc)
	groups, err := netmd.ParseTrackGroups(got.Title, got.FullWidthTitle, 3)
	if err != nil {
		t.Fatalf("ParseTrackGroups() error = %v", err)
	}
	if len(groups) != 2 || groups[1].Title == nil || *groups[1].Title != "Rock" {
		t.Fatalf("ParseTrackGroups() = %+v", groups)
	}
	if groups[1].FullWidthTitle == nil || *groups[1].FullWidthTitle != "ロック" {
		t.Errorf("full-width group title = %v", groups[1].FullWidthTitle)
	}
	if !reflect.DeepEqual(groups[1].Tracks, []int{1, 2}) {
		t.Errorf("group tracks = %v, want [1 2]", groups[1].Tracks)
	}
	if title := netmd.DiscTitleFromRaw(got.FullWidthTitle, true); title != "ミックス" {
		t.Errorf("full-width disc title = %q", title)
	}
}
