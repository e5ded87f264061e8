// This file contains the status and playback control commands.
package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hansbonini/mdtools/pkg"
	"github.com/hansbonini/mdtools/pkg/common"
	"github.com/hansbonini/mdtools/pkg/netmd"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// statusCmd prints the transport state.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the device state and playback position",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		md, closeDevice, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDevice()

		status, err := pkg.GetDeviceStatus(md)
		if err != nil {
			return err
		}
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		if err := encoder.Encode(status); err != nil {
			return err
		}
		return encoder.Close()
	},
}

// controlCmd is the parent of the playback commands.
var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Control playback",
	Long: `Control playback on the device.

Commands:
  play, pause, stop, forward, rewind
  next, previous, restart
  goto [track] [time]
  eject

Examples:
  mdtools control play
  mdtools control goto 3`,
}

// playbackAction builds a control subcommand running action on the device
func playbackAction(use, short string, action func(md *netmd.Interface) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			md, closeDevice, err := openDevice()
			if err != nil {
				return err
			}
			defer closeDevice()
			return action(md)
		},
	}
}

// gotoCmd jumps to a track, optionally to a time within it.
var gotoCmd = &cobra.Command{
	Use:   "goto [track] [time]",
	Short: "Go to a track or a time within it",
	Long: `Go to a track, numbered from 1. An optional time in [[h:]m:]s[.frame]
form seeks within the track.

Examples:
  mdtools control goto 3
  mdtools control goto 3 1:25`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		track, err := parseTrackNumber(args[0])
		if err != nil {
			return err
		}
		var at *netmd.Time
		if len(args) == 2 {
			t, err := parseTime(args[1])
			if err != nil {
				return err
			}
			at = &t
		}
		md, closeDevice, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDevice()

		if at == nil {
			current, err := md.GotoTrack(track)
			if err != nil {
				return err
			}
			fmt.Printf("At track %d\n", current+1)
			return nil
		}
		pos, err := md.GotoTime(track, *at)
		if err != nil {
			return err
		}
		fmt.Printf("At track %d, %s\n", pos.Track+1, pos.Time)
		return nil
	},
}

// parseTime reads [[h:]m:]s[.frame]
func parseTime(s string) (netmd.Time, error) {
	var t netmd.Time
	rest, frame, hasFrame := strings.Cut(s, ".")
	if hasFrame {
		f, err := strconv.Atoi(frame)
		if err != nil || f < 0 || f >= common.FramesPerSecond {
			return t, fmt.Errorf("%w: invalid frame in %q", netmd.ErrValidation, s)
		}
		t.Frame = f
	}
	parts := strings.Split(rest, ":")
	if len(parts) > 3 {
		return t, fmt.Errorf("%w: invalid time %q", netmd.ErrValidation, s)
	}
	fields := []*int{&t.Second, &t.Minute, &t.Hour}
	for i := range parts {
		v, err := strconv.Atoi(parts[len(parts)-1-i])
		if err != nil || v < 0 || (i < 2 && v > 59) {
			return t, fmt.Errorf("%w: invalid time %q", netmd.ErrValidation, s)
		}
		*fields[i] = v
	}
	return t, nil
}

func init() {
	controlCmd.AddCommand(
		playbackAction("play", "Start playback", (*netmd.Interface).Play),
		playbackAction("pause", "Pause playback", (*netmd.Interface).Pause),
		playbackAction("stop", "Stop playback", func(md *netmd.Interface) error {
			md.Stop()
			return nil
		}),
		playbackAction("forward", "Fast forward", (*netmd.Interface).FastForward),
		playbackAction("rewind", "Rewind", (*netmd.Interface).Rewind),
		playbackAction("next", "Go to the next track", (*netmd.Interface).NextTrack),
		playbackAction("previous", "Go to the previous track", (*netmd.Interface).PreviousTrack),
		playbackAction("restart", "Restart the current track", (*netmd.Interface).RestartTrack),
		playbackAction("eject", "Eject the disc", func(md *netmd.Interface) error {
			if !md.CanEjectDisc() {
				return fmt.Errorf("device cannot eject the disc")
			}
			return md.EjectDisc()
		}),
		gotoCmd,
	)
	rootCmd.AddCommand(statusCmd, controlCmd)
}
