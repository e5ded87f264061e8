// This file contains the commands that read and edit the disc table of
// contents: listing, titles, groups and track order.
package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hansbonini/mdtools/pkg"
	"github.com/hansbonini/mdtools/pkg/common"
	"github.com/spf13/cobra"
)

// lsCmd lists the disc content.
var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List disc content",
	Long: `List the disc title, capacity, groups and tracks.

With --yaml the listing is written as YAML, suitable as a starting point
for 'mdtools groups apply'.

Examples:
  mdtools ls
  mdtools ls --yaml > disc.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asYAML, err := cmd.Flags().GetBool("yaml")
		if err != nil {
			return fmt.Errorf("error getting yaml flag: %w", err)
		}

		md, closeDevice, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDevice()

		disc, err := pkg.ListContent(md)
		if err != nil {
			return err
		}
		exporter := pkg.NewDiscExporter()
		if asYAML {
			return exporter.ExportYAML(disc, os.Stdout)
		}
		return exporter.ExportText(disc, os.Stdout)
	},
}

// renameCmd sets the disc title.
var renameCmd = &cobra.Command{
	Use:   "rename [title]",
	Short: "Rename the disc",
	Long: `Set the disc title. Group headers stored with the title are kept.

Example:
  mdtools rename "Summer Mix"
  mdtools rename "Summer Mix" --full-width "サマーミックス"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var fullWidth *string
		if cmd.Flags().Changed("full-width") {
			fw, err := cmd.Flags().GetString("full-width")
			if err != nil {
				return fmt.Errorf("error getting full-width flag: %w", err)
			}
			fullWidth = &fw
		}

		md, closeDevice, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDevice()

		return pkg.RenameDisc(md, args[0], fullWidth)
	},
}

// titleCmd sets a track title.
var titleCmd = &cobra.Command{
	Use:   "title [track] [title]",
	Short: "Set a track title",
	Long: `Set the title of a track. Tracks are numbered from 1.

Example:
  mdtools title 3 "Intro"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		track, err := parseTrackNumber(args[0])
		if err != nil {
			return err
		}
		fullWidth, err := cmd.Flags().GetBool("full-width")
		if err != nil {
			return fmt.Errorf("error getting full-width flag: %w", err)
		}

		md, closeDevice, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDevice()

		return md.SetTrackTitle(track, args[1], fullWidth)
	},
}

// eraseCmd erases a track.
var eraseCmd = &cobra.Command{
	Use:   "erase [track]",
	Short: "Erase a track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		track, err := parseTrackNumber(args[0])
		if err != nil {
			return err
		}
		md, closeDevice, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDevice()

		return md.EraseTrack(track)
	},
}

// moveCmd moves a track to a new position.
var moveCmd = &cobra.Command{
	Use:   "move [track] [position]",
	Short: "Move a track to a new position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := parseTrackNumber(args[0])
		if err != nil {
			return err
		}
		dest, err := parseTrackNumber(args[1])
		if err != nil {
			return err
		}
		md, closeDevice, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDevice()

		return md.MoveTrack(source, dest)
	},
}

// wipeCmd erases every track on the disc.
var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Erase the whole disc",
	Long: `Erase every track and title on the disc. Requires --yes.

Example:
  mdtools wipe --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, err := cmd.Flags().GetBool("yes")
		if err != nil {
			return fmt.Errorf("error getting yes flag: %w", err)
		}
		if !yes {
			return fmt.Errorf("refusing to erase the disc without --yes")
		}
		md, closeDevice, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDevice()

		return md.EraseDisc()
	},
}

// uuidCmd prints the UUID the device assigned to a downloaded track.
var uuidCmd = &cobra.Command{
	Use:   "uuid [track]",
	Short: "Show the UUID of a downloaded track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		track, err := parseTrackNumber(args[0])
		if err != nil {
			return err
		}
		md, closeDevice, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDevice()

		if err := md.EnterSecureSession(); err != nil {
			return err
		}
		defer func() {
			if err := md.Terminate(); err != nil {
				common.LogDebug("Terminate: %v", err)
			}
			if err := md.LeaveSecureSession(); err != nil {
				common.LogWarn("Leaving secure session: %v", err)
			}
		}()
		uuid, err := md.TrackUUID(track)
		if err != nil {
			return err
		}
		fmt.Printf("%x\n", uuid)
		return nil
	},
}

// groupsCmd is the parent of the group layout commands.
var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Edit track groups",
	Long: `Edit the track groups stored in the disc title.

Commands:
  apply     Rewrite the disc title and groups from a YAML layout

Examples:
  mdtools groups apply layout.yaml`,
}

// groupsApplyCmd rewrites the groups from a layout file.
var groupsApplyCmd = &cobra.Command{
	Use:   "apply [layout.yaml]",
	Short: "Rewrite the disc title and groups from a YAML layout",
	Long: `Rewrite the disc title and groups from a YAML layout:

  title: Summer Mix
  groups:
    - title: Side A
      first: 1
      last: 6

Groups that do not fit the table of contents are dropped with a warning.
With --dry-run the compiled titles are printed and nothing is written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, err := cmd.Flags().GetBool("dry-run")
		if err != nil {
			return fmt.Errorf("error getting dry-run flag: %w", err)
		}
		exporter := pkg.NewDiscExporter()
		layout, err := exporter.LoadGroupLayout(args[0])
		if err != nil {
			return err
		}

		md, closeDevice, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDevice()

		disc, err := pkg.ListContent(md)
		if err != nil {
			return err
		}
		updated, err := exporter.ApplyGroupLayout(disc, layout)
		if err != nil {
			return err
		}
		if dryRun {
			compiled := pkg.CompileDiscTitles(updated)
			fmt.Printf("Title: %q\nFull-width title: %q\n", compiled.Title, compiled.FullWidthTitle)
			if err := compiled.Err(); err != nil {
				common.LogWarn("%v", err)
			}
			return nil
		}
		return pkg.RewriteDiscGroups(md, updated)
	},
}

// parseTrackNumber converts a one-based track number to a track index
func parseTrackNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, common.FormatErrorString(common.ErrInvalidTrackNumber, "%q", s)
	}
	if _, err := common.SafeTrackNumber(n-1, 0); err != nil {
		return 0, err
	}
	return n - 1, nil
}

func init() {
	lsCmd.Flags().Bool("yaml", false, "Write the listing as YAML")
	renameCmd.Flags().String("full-width", "", "Full-width disc title")
	titleCmd.Flags().Bool("full-width", false, "Set the full-width title")
	groupsApplyCmd.Flags().Bool("dry-run", false, "Print the compiled titles without writing")
	wipeCmd.Flags().Bool("yes", false, "Confirm erasing the disc")

	groupsCmd.AddCommand(groupsApplyCmd)
	rootCmd.AddCommand(lsCmd, renameCmd, titleCmd, eraseCmd, moveCmd, wipeCmd, uuidCmd, groupsCmd)
}
