// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
)

var (
	packetTestTimeout int
)

var packetTestCmd = &cobra.Command{
	Use:   "packet_test",
	Short: "Test connection by waiting for a valid feedback frame",
	Long: `Wait for a valid Kobuki feedback frame on the connection until timeout.

This command opens a serial port or WebSocket through the link runtime and
waits for any feedback frame that passes its checksum. Reads without a
complete frame are ignored.

Exit codes:
  0 - Feedback received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error

Useful for testing connectivity to a base or a WebSocket serial bridge.`,
	RunE: runPacketTest,
}

func init() {
	rootCmd.AddCommand(packetTestCmd)
	packetTestCmd.Flags().IntVar(&packetTestTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runPacketTest(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("Turtlelink - Packet Test\n")
	fmt.Printf("Connection: %s\n", s.info)
	fmt.Printf("Timeout: %d seconds\n", packetTestTimeout)
	fmt.Printf("Waiting for valid feedback...\n\n")

	timeout := time.Duration(packetTestTimeout) * time.Second
	f, err := s.await(ctx, timeout, func(*kobuki.Feedback) bool { return true })
	snap := s.stats.Snapshot()
	s.Close()

	switch {
	case err == nil:
		if skipped := snap.NoHeaderReads + snap.ShortReads; skipped > 0 {
			fmt.Printf("(skipped %d reads before sync)\n", skipped)
		}
		var names []string
		for _, id := range f.Present() {
			names = append(names, id.String())
		}
		fmt.Printf("SUCCESS: Received valid feedback\n")
		fmt.Printf("  Sub-records: %s\n", strings.Join(names, " "))
		if f.BasicSensor != nil {
			fmt.Printf("  Sensor Time: %d ms\n", f.BasicSensor.Timestamp)
			fmt.Printf("  Battery: %.1fV\n", f.BasicSensor.BatteryVolts())
		}
		fmt.Printf("  Checksum Errors: %d\n", snap.ChecksumErrors)
		os.Exit(0)

	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid feedback received within %d seconds\n", packetTestTimeout)
		os.Exit(1)

	default:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)
	}

	return nil
}
