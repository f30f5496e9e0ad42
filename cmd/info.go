// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
)

var (
	infoHardware bool
	infoFirmware bool
	infoUDID     bool
	infoTimeout  time.Duration
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Query hardware and firmware versions and the unique device ID",
	Long: `Send REQUEST_EXTRA and print the version and identifier records the base
answers with. All three are requested unless a subset is selected.

Exit codes:
  0 - Every requested record received
  1 - Timeout before every requested record arrived
  2 - Connection error`,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVar(&infoHardware, "hw", false, "Request the hardware version")
	infoCmd.Flags().BoolVar(&infoFirmware, "fw", false, "Request the firmware version")
	infoCmd.Flags().BoolVar(&infoUDID, "udid", false, "Request the unique device ID")
	infoCmd.Flags().DurationVar(&infoTimeout, "timeout", 3*time.Second, "How long to wait for the answer")
}

// extraInfo collects the records answering one REQUEST_EXTRA. They may
// arrive in separate frames.
type extraInfo struct {
	wantHW, wantFW, wantUDID bool

	hardware *kobuki.HardwareVersion
	firmware *kobuki.FirmwareVersion
	udid     *kobuki.UniqueDeviceID
}

// add records any requested sub-records in f and reports completion
func (e *extraInfo) add(f *kobuki.Feedback) bool {
	if f.HardwareVersion != nil {
		e.hardware = f.HardwareVersion
	}
	if f.FirmwareVersion != nil {
		e.firmware = f.FirmwareVersion
	}
	if f.UniqueDeviceID != nil {
		e.udid = f.UniqueDeviceID
	}
	return e.complete()
}

func (e *extraInfo) complete() bool {
	return (!e.wantHW || e.hardware != nil) &&
		(!e.wantFW || e.firmware != nil) &&
		(!e.wantUDID || e.udid != nil)
}

func runInfo(cmd *cobra.Command, args []string) error {
	info := &extraInfo{wantHW: infoHardware, wantFW: infoFirmware, wantUDID: infoUDID}
	if !info.wantHW && !info.wantFW && !info.wantUDID {
		info.wantHW, info.wantFW, info.wantUDID = true, true, true
	}

	err := runSession(func(ctx context.Context, s *session) error {
		fmt.Printf("Turtlelink - Device Info\n")
		fmt.Printf("Connection: %s\n\n", s.info)

		if err := s.rt.RequestExtra(info.wantHW, info.wantFW, info.wantUDID); err != nil {
			return err
		}
		_, err := s.await(ctx, infoTimeout, info.add)
		return err
	})

	if info.hardware != nil {
		fmt.Printf("Hardware: %s\n", info.hardware.Version)
	}
	if info.firmware != nil {
		fmt.Printf("Firmware: %s\n", info.firmware.Version)
	}
	if info.udid != nil {
		fmt.Printf("UDID:     %s\n", info.udid)
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(os.Stderr, "TIMEOUT: base did not answer within %s\n", infoTimeout)
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	return nil
}
