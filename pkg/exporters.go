// This file contains the exporters for disc listings and the importer for
// user edited group layouts.
package pkg

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/hansbonini/mdtools/pkg/common"
	"gopkg.in/yaml.v3"
)

// DiscExporter writes disc listings and reads group layouts
type DiscExporter struct{}

// NewDiscExporter creates a new disc exporter instance
func NewDiscExporter() *DiscExporter {
	return &DiscExporter{}
}

// ExportYAML writes disc as YAML
func (e *DiscExporter) ExportYAML(disc *Disc, writer io.Writer) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(disc); err != nil {
		return common.FormatError(common.ErrFailedToExportDisc, err)
	}
	return encoder.Close()
}

// ExportText writes the human readable listing printed by the ls command
func (e *DiscExporter) ExportText(disc *Disc, writer io.Writer) error {
	header := "Disc"
	if disc.Writable {
		header += " (writable media)"
	}
	if disc.WriteProtected {
		header += " (write protected)"
	}
	if disc.Title != "" {
		header += fmt.Sprintf(" %q", disc.Title)
	}
	lines := []string{
		header,
		"Time used " + common.FormatTimeFromFrames(disc.Used),
		"Time left " + common.FormatTimeFromFrames(disc.Left),
		fmt.Sprintf("%d tracks", disc.CountTracks()),
	}
	for _, g := range disc.Groups {
		indent := ""
		if g.Title != nil {
			lines = append(lines, fmt.Sprintf("Group '%s'", *g.Title))
			indent = "  "
		}
		for _, t := range g.Tracks {
			lines = append(lines, fmt.Sprintf("%s%03d: %s - %s %s",
				indent, t.Index, common.FormatTimeFromFrames(t.Duration), t.Encoding, stringOrEmpty(t.Title)))
		}
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(writer, line); err != nil {
			return common.FormatError(common.ErrFailedToExportDisc, err)
		}
	}
	return nil
}

// LoadGroupLayout reads a YAML group layout file
func (e *DiscExporter) LoadGroupLayout(path string) (*GroupLayout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToReadLayout, err)
	}
	var layout GroupLayout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, common.FormatError(common.ErrFailedToParseLayout, err)
	}
	return &layout, nil
}

// ApplyGroupLayout returns a copy of disc with its title and groups taken
// from layout. Tracks no layout group names end up ungrouped. Ranges must
// not overlap and must lie within the disc.
func (e *DiscExporter) ApplyGroupLayout(disc *Disc, layout *GroupLayout) (*Disc, error) {
	tracks := disc.Tracks()
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Index < tracks[j].Index })
	byIndex := make(map[int]Track, len(tracks))
	for _, t := range tracks {
		byIndex[t.Index] = t
	}

	out := *disc
	out.Title = layout.Title
	out.FullWidthTitle = layout.FullWidthTitle
	out.Groups = []Group{{Title: nil}}

	used := make(map[int]bool)
	for _, lg := range layout.Groups {
		if lg.First < 1 || lg.Last < lg.First || lg.Last > len(tracks) {
			return nil, common.FormatErrorString(common.ErrFailedToParseLayout,
				"group %q has range %d-%d outside 1-%d", lg.Title, lg.First, lg.Last, len(tracks))
		}
		title := lg.Title
		g := Group{Index: len(out.Groups), Title: &title}
		if lg.FullWidthTitle != "" {
			fw := lg.FullWidthTitle
			g.FullWidthTitle = &fw
		}
		for n := lg.First; n <= lg.Last; n++ {
			if used[n-1] {
				return nil, common.FormatErrorString(common.ErrFailedToParseLayout, "track %d is in more than one group", n)
			}
			used[n-1] = true
			g.Tracks = append(g.Tracks, byIndex[n-1])
		}
		out.Groups = append(out.Groups, g)
	}

	for _, t := range tracks {
		if !used[t.Index] {
			out.Groups[0].Tracks = append(out.Groups[0].Tracks, t)
		}
	}
	if len(out.Groups[0].Tracks) == 0 {
		out.Groups = out.Groups[1:]
		for i := range out.Groups {
			out.Groups[i].Index = i
		}
	}
	return &out, nil
}
