package cmd

import (
	"fmt"

	"github.com/hansbonini/mdtools/pkg/common"
	"github.com/hansbonini/mdtools/pkg/netmd"
	"github.com/spf13/cobra"
)

// devicesCmd lists the attached recorders found in the device table.
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List attached NetMD devices",
	Long: `List the attached USB devices that match the known NetMD device table.

The index shown is the value to pass to --device.

Example:
  mdtools devices`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := netmd.ListDevices()
		if err != nil {
			return common.FormatError(common.ErrFailedToOpenDevice, err)
		}
		if len(devices) == 0 {
			return fmt.Errorf("%s", common.ErrNoDeviceFound)
		}
		for i, d := range devices {
			fmt.Printf("%d: %s (%04x:%04x) bus %d address %d - %s %s\n",
				i, d.Name, d.Vendor, d.Product, d.Bus, d.Address, d.Manufacturer, d.ProductName)
		}
		return nil
	},
}

// infoCmd prints what the opened device reports about itself.
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show device capabilities and recording settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		md, closeDevice, err := openDevice()
		if err != nil {
			return err
		}
		defer closeDevice()

		link := md.Link()
		fmt.Printf("Device: %s (%04x:%04x)\n", link.Name, link.Vendor, link.Product)
		level, err := md.NetMDLevel()
		if err != nil {
			return err
		}
		fmt.Printf("NetMD level: 0x%02x\n", byte(level))

		present, err := md.IsDiscPresent()
		if err != nil {
			return err
		}
		fmt.Printf("Disc present: %v\n", present)
		word, err := md.OperatingStatus()
		if err != nil {
			return err
		}
		fmt.Printf("Operating status: %s (0x%04x)\n", netmd.DecodeOperatingStatus(word, present), word)
		playback, err := md.PlaybackStatus1()
		if err != nil {
			return err
		}
		common.LogDebug("Playback status 1: %x", playback)

		encoding, channels, err := md.RecordingParameters()
		if err != nil {
			return err
		}
		fmt.Printf("Recording: %s %s\n", encoding, channels)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd, infoCmd)
}
