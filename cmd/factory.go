// This file contains the factory mode commands. Factory mode gives raw
// access to device memory and the UTOC; writing the wrong data can leave
// a disc or device unusable.
package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hansbonini/mdtools/pkg/common"
	"github.com/hansbonini/mdtools/pkg/netmd"
	"github.com/hansbonini/mdtools/pkg/netmd/factory"
	"github.com/spf13/cobra"
)

// factoryCmd is the parent of the factory mode commands.
var factoryCmd = &cobra.Command{
	Use:   "factory",
	Short: "Factory mode memory and UTOC access",
	Long: `Enter factory mode to read device information and UTOC sectors.

Commands:
  info        Show the firmware version, device code and switch state
  display     Show text on the device display
  write       Write a file to mapped memory
  utoc read   Dump a UTOC sector to a file
  utoc write  Write a UTOC sector from a file

Examples:
  mdtools factory info
  mdtools factory utoc read 0 utoc0.bin`,
}

// openFactory opens the device and enters factory mode
func openFactory() (*factory.Interface, func(), error) {
	md, closeDevice, err := openDevice()
	if err != nil {
		return nil, nil, err
	}
	f, err := factory.Open(md)
	if err != nil {
		closeDevice()
		return nil, nil, err
	}
	return f, closeDevice, nil
}

var factoryInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the firmware version, device code and switch state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, closeDevice, err := openFactory()
		if err != nil {
			return err
		}
		defer closeDevice()

		code, err := factory.DescriptiveDeviceCode(f)
		if err != nil {
			return err
		}
		version, err := f.DeviceVersion()
		if err != nil {
			return err
		}
		fmt.Printf("Device code: %s\nFirmware version: %d\nHi-MD: %v\n", code, version, f.HiMD)
		if f.HiMD {
			return nil
		}
		switches, err := f.SwitchStatus()
		if err != nil {
			return err
		}
		fmt.Printf("Switches: microswitch %d, button %d, xy %d, unlabeled %d\n",
			switches.InternalMicroswitch, switches.Button, switches.XY, switches.Unlabeled)
		return nil
	},
}

var factoryDisplayCmd = &cobra.Command{
	Use:   "display [text]",
	Short: "Show up to 8 characters on the device display",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		blink, err := cmd.Flags().GetBool("blink")
		if err != nil {
			return fmt.Errorf("error getting blink flag: %w", err)
		}
		f, closeDevice, err := openFactory()
		if err != nil {
			return err
		}
		defer closeDevice()

		return factory.Display(f, args[0], blink)
	},
}

// factoryWriteCmd writes a file into mapped device memory.
var factoryWriteCmd = &cobra.Command{
	Use:   "write [address] [input_file]",
	Short: "Write a file to mapped memory at a hex address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		address, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[1], err)
		}
		f, closeDevice, err := openFactory()
		if err != nil {
			return err
		}
		defer closeDevice()

		if err := factory.WriteOfAnyLength(f, address, data, factory.MemoryMapped, false); err != nil {
			return err
		}
		fmt.Printf("Wrote %d bytes at 0x%08x\n", len(data), address)
		return nil
	},
}

func parseAddress(s string) (uint32, error) {
	address, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid address %q", netmd.ErrValidation, s)
	}
	return uint32(address), nil
}

var utocCmd = &cobra.Command{
	Use:   "utoc",
	Short: "Read or write UTOC sectors",
}

func parseSector(s string) (int, error) {
	sector, err := strconv.Atoi(s)
	if err != nil || sector < 0 {
		return 0, fmt.Errorf("%w: invalid sector %q", netmd.ErrValidation, s)
	}
	return sector, nil
}

var utocReadCmd = &cobra.Command{
	Use:   "read [sector] [output_file]",
	Short: "Dump a UTOC sector to a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sector, err := parseSector(args[0])
		if err != nil {
			return err
		}
		f, closeDevice, err := openFactory()
		if err != nil {
			return err
		}
		defer closeDevice()

		data, err := factory.ReadUTOCSector(f, sector)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[1], data, 0o644); err != nil {
			return common.FormatError(common.ErrFailedToReadUTOC, err)
		}
		fmt.Printf("UTOC sector %d written to: %s\n", sector, args[1])
		return nil
	},
}

var utocWriteCmd = &cobra.Command{
	Use:   "write [sector] [input_file]",
	Short: "Write a UTOC sector from a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sector, err := parseSector(args[0])
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return common.FormatError(common.ErrFailedToWriteUTOC, err)
		}
		f, closeDevice, err := openFactory()
		if err != nil {
			return err
		}
		defer closeDevice()

		return factory.WriteUTOCSector(f, sector, data)
	},
}

func init() {
	factoryDisplayCmd.Flags().Bool("blink", false, "Blink the text")

	utocCmd.AddCommand(utocReadCmd, utocWriteCmd)
	factoryCmd.AddCommand(factoryInfoCmd, factoryDisplayCmd, factoryWriteCmd, utocCmd)
	rootCmd.AddCommand(factoryCmd)
}
