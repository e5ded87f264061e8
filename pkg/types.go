// Package pkg provides the high-level MiniDisc operations built on the NetMD
// protocol: disc listing, renaming, group layout, track transfer and the
// audio container headers used for files read back from a disc.
package pkg

import (
	"github.com/hansbonini/mdtools/pkg/netmd"
)

// Track is one track of a disc listing. Index is zero-based.
type Track struct {
	Index          int             `yaml:"index"`
	Title          *string         `yaml:"title"`
	FullWidthTitle *string         `yaml:"full_width_title,omitempty"`
	Duration       int             `yaml:"duration"`
	Channel        netmd.Channels  `yaml:"channel"`
	Encoding       netmd.Encoding  `yaml:"encoding"`
	Protected      netmd.TrackFlag `yaml:"protected"`
}

// Group is a named track range. The ungrouped tracks form a group with a
// nil Title.
type Group struct {
	Index          int     `yaml:"index"`
	Title          *string `yaml:"title"`
	FullWidthTitle *string `yaml:"full_width_title,omitempty"`
	Tracks         []Track `yaml:"tracks"`
}

// Disc is the full content listing of a disc. Times are in frames.
type Disc struct {
	Title          string  `yaml:"title"`
	FullWidthTitle string  `yaml:"full_width_title"`
	Writable       bool    `yaml:"writable"`
	WriteProtected bool    `yaml:"write_protected"`
	Used           int     `yaml:"used"`
	Left           int     `yaml:"left"`
	Total          int     `yaml:"total"`
	TrackCount     int     `yaml:"track_count"`
	Groups         []Group `yaml:"groups"`
}

// DeviceStatus is a snapshot of the transport state
type DeviceStatus struct {
	DiscPresent bool                 `yaml:"disc_present"`
	State       netmd.OperatingState `yaml:"state"`
	Track       *int                 `yaml:"track"`
	Time        *netmd.Time          `yaml:"time"`
}

// Tracks returns the tracks of all groups in group order
func (d *Disc) Tracks() []Track {
	var tracks []Track
	for _, g := range d.Groups {
		tracks = append(tracks, g.Tracks...)
	}
	return tracks
}

// CountTracks returns the number of tracks held by the groups
func (d *Disc) CountTracks() int {
	n := 0
	for _, g := range d.Groups {
		n += len(g.Tracks)
	}
	return n
}

// EncodingName maps the yaml and CLI names to track encodings
var EncodingName = map[netmd.Encoding]string{
	netmd.EncodingSP:  "sp",
	netmd.EncodingLP2: "lp2",
	netmd.EncodingLP4: "lp4",
}

// ChannelName maps channel modes to their names
var ChannelName = map[netmd.Channels]string{
	netmd.ChannelsMono:   "mono",
	netmd.ChannelsStereo: "stereo",
}

// FlagName maps track protection flags to their names
var FlagName = map[netmd.TrackFlag]string{
	netmd.TrackProtected:   "protected",
	netmd.TrackUnprotected: "unprotected",
}

// WireformatByName maps the send command format names to wire formats.
// s16be is raw big-endian 16 bit PCM.
var WireformatByName = map[string]netmd.Wireformat{
	"s16be": netmd.WireformatPCM,
	"lp2":   netmd.WireformatLP2,
	"lp105": netmd.WireformatL105kbps,
	"lp4":   netmd.WireformatLP4,
}

// GroupLayout is the user editable description of a disc title and its
// groups, read by the groups apply command.
type GroupLayout struct {
	Title          string        `yaml:"title"`
	FullWidthTitle string        `yaml:"full_width_title,omitempty"`
	Groups         []LayoutGroup `yaml:"groups"`
}

// LayoutGroup names a range of one-based track numbers
type LayoutGroup struct {
	Title          string `yaml:"title"`
	FullWidthTitle string `yaml:"full_width_title,omitempty"`
	First          int    `yaml:"first"`
	Last           int    `yaml:"last"`
}
