// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/turtlelink/pkg/link"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List attached Kobuki bases",
	Long: `List USB serial ports whose serial number identifies a Kobuki base.

The first port listed is the one used when neither --port nor --url is given.

Exit codes:
  0 - At least one base found
  1 - No base found
  2 - Port enumeration failed`,
	RunE: runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	devices, err := link.ListDeviceDetails()
	if err != nil && !errors.Is(err, link.ErrNoPorts) {
		fmt.Fprintf(os.Stderr, "Enumeration error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("Turtlelink - Device List\n\n")

	if len(devices) == 0 {
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		fmt.Fprintf(os.Stderr, "No Kobuki base found\n")
		os.Exit(1)
	}

	for _, d := range devices {
		fmt.Printf("%-20s %-24s [%s:%s] %s\n", d.Name, d.SerialNumber, d.VID, d.PID, d.Product)
	}
	fmt.Printf("\n%d base(s) found\n", len(devices))
	return nil
}
