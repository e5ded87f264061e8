// This file contains the commands that move audio between the host and the
// disc.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/hansbonini/mdtools/pkg"
	"github.com/hansbonini/mdtools/pkg/common"
	"github.com/hansbonini/mdtools/pkg/netmd"
	"github.com/spf13/cobra"
)

// sendCmd downloads an audio file to the disc.
var sendCmd = &cobra.Command{
	Use:   "send [input_file]",
	Short: "Send a track to the disc",
	Long: `Send an audio file to the disc as a new track.

WAV files are sent in the format they hold: 16 bit stereo 44.1kHz PCM or
ATRAC3 (LP2, LP4). Other files are sent raw in the format given by --format:
  s16be   big-endian 16 bit stereo PCM (recorded as SP)
  lp2     ATRAC3 132kbps
  lp105   ATRAC3 105kbps
  lp4     ATRAC3 66kbps

Examples:
  mdtools send track.wav
  mdtools send --format lp2 --title "Intro" track.at3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile := args[0]
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("error getting format flag: %w", err)
		}
		title, err := cmd.Flags().GetString("title")
		if err != nil {
			return fmt.Errorf("error getting title flag: %w", err)
		}
		fullWidthTitle, err := cmd.Flags().GetString("full-width-title")
		if err != nil {
			return fmt.Errorf("error getting full-width-title flag: %w", err)
		}
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(inputFile), filepath.Ext(inputFile))
		}

		audio, err := pkg.ReadAudioFile(inputFile, format)
		if err != nil {
			return err
		}
		track, err := netmd.NewTrack(title, audio.Format, audio.Data)
		if err != nil {
			return err
		}
		track.FullWidthTitle = fullWidthTitle
		track.ChunkSize = config.ChunkSize

		md, closeDevice, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDevice()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		start := time.Now()
		result, err := pkg.Download(ctx, md, track, func(written, total int) {
			fmt.Printf("\rTransferred %d of %d bytes (%d%%)", written, total, written*100/max(total, 1))
		})
		fmt.Println()
		if err != nil {
			return err
		}
		fmt.Printf("Track %d written in %s (UUID %x)\n", result.Track+1, time.Since(start).Round(time.Millisecond), result.UUID)
		return nil
	},
}

// recvCmd uploads a track from the disc.
var recvCmd = &cobra.Command{
	Use:   "recv [track] [output_file]",
	Short: "Read a track back from the disc",
	Long: `Read a track from the disc into a file. SP tracks are written as AEA,
LP tracks as ATRAC3 WAV. Only devices with upload support (MZ-RH1) accept
this command. Tracks are numbered from 1.

Example:
  mdtools recv 1 track01.aea`,
	Args: cobra.ExactArgs(2),
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

		_, data, err := pkg.Upload(md, track, func(total, read int) {
			fmt.Printf("\rRead %d of %d bytes", read, total)
		})
		fmt.Println()
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[1], data, 0o644); err != nil {
			return common.FormatError(common.ErrFailedToWriteAudio, err)
		}
		fmt.Printf("Track written to: %s\n", args[1])
		return nil
	},
}

func init() {
	sendCmd.Flags().StringP("format", "f", "s16be", "Format of raw input files (s16be, lp2, lp105, lp4)")
	sendCmd.Flags().StringP("title", "t", "", "Track title (default: file name)")
	sendCmd.Flags().String("full-width-title", "", "Full-width track title")
	rootCmd.AddCommand(sendCmd, recvCmd)
}
