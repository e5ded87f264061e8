// Package cmd provides the command-line interface of mdtools.
// mdtools talks to NetMD MiniDisc recorders over USB to list, title,
// group and transfer tracks.
package cmd

import (
	"fmt"
	"os"

	"github.com/hansbonini/mdtools/pkg/common"
	"github.com/hansbonini/mdtools/pkg/netmd"
	"github.com/spf13/cobra"
)

// config is loaded before any subcommand runs
var config = common.DefaultConfig()

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mdtools",
	Short: "Tools for NetMD MiniDisc recorders",
	Long: `mdtools - talk to NetMD MiniDisc recorders over USB.

Currently supports:
  - listing devices and disc content
  - renaming discs and rewriting track groups
  - sending tracks to the disc and reading them back (MZ-RH1)
  - playback control
  - factory mode UTOC access

Examples:
  mdtools devices
  mdtools ls --yaml
  mdtools rename "Summer Mix"
  mdtools send --format lp2 track.wav
  mdtools groups apply layout.yaml
  mdtools factory utoc read 0 utoc0.bin

Use 'mdtools [command] --help' for more information about a command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			return fmt.Errorf("error getting config flag: %w", err)
		}
		cfg, err := common.LoadConfig(path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("device") {
			if cfg.Device, err = cmd.Flags().GetInt("device"); err != nil {
				return fmt.Errorf("error getting device flag: %w", err)
			}
		}
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("error getting verbose flag: %w", err)
		}
		common.SetVerboseMode(verbose || cfg.Verbose)
		config = cfg
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main() and serves as the entry point for command execution.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// openDevice opens the configured device and returns its interface and a
// function closing it.
func openDevice() (*netmd.Interface, func(), error) {
	link, err := netmd.OpenUSB(config.Device)
	if err != nil {
		return nil, nil, err
	}
	md := netmd.NewInterface(link)
	md.Configure(config)
	return md, func() {
		if err := link.Close(); err != nil {
			common.LogWarn("Closing device: %v", err)
		}
	}, nil
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
	rootCmd.PersistentFlags().IntP("device", "d", 0, "Index of the device to open")
}
