// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var stabilityDuration int

var stabilityCmd = &cobra.Command{
	Use:   "stability",
	Short: "Test raw connection stability",
	Long: `Test the connection to a base or WebSocket bridge without decoding.

This command opens the port directly and just listens, logging the size of
every read and any error encountered. Useful for debugging cabling, USB power
and bridge stability issues.

Exit codes:
  0 - Test completed normally
  1 - Test failed
  2 - Connection error`,
	RunE: runStability,
}

func init() {
	rootCmd.AddCommand(stabilityCmd)
	stabilityCmd.Flags().IntVar(&stabilityDuration, "duration", 30, "Test duration in seconds")
}

func runStability(cmd *cobra.Command, args []string) error {
	target, err := resolveTarget()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	conn, err := openRaw(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Connection Stability Test\n")
	fmt.Printf("Connection: %s\n", connectionInfo(target))
	fmt.Printf("Duration: %d seconds\n\n", stabilityDuration)

	readChan := make(chan int, 100)
	errChan := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		buf := make([]byte, 512)
		for {
			select {
			case <-stop:
				return
			default:
			}
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}
			if n > 0 {
				readChan <- n
			}
		}
	}()

	start := time.Now()
	endTime := start.Add(time.Duration(stabilityDuration) * time.Second)
	bytesReceived := 0
	readsReceived := 0
	heartbeat := time.NewTicker(time.Second)
	defer heartbeat.Stop()

	fmt.Printf("Listening for data...\n\n")

	for time.Now().Before(endTime) {
		select {
		case n := <-readChan:
			bytesReceived += n
			readsReceived++

		case err := <-errChan:
			fmt.Printf("\n[%s] Connection error: %v\n", time.Now().Format("15:04:05.000"), err)
			fmt.Printf("\n--- Test Results ---\n")
			fmt.Printf("Duration: %v\n", time.Since(start).Truncate(time.Millisecond))
			fmt.Printf("Reads: %d\n", readsReceived)
			fmt.Printf("Bytes received: %d\n", bytesReceived)
			fmt.Printf("Result: FAILED (connection error)\n")
			os.Exit(1)

		case <-heartbeat.C:
			elapsed := time.Since(start).Seconds()
			fmt.Printf("[%s] %d bytes in %d reads (%.0f B/s, %.0fs remaining)\n",
				time.Now().Format("15:04:05.000"), bytesReceived, readsReceived,
				float64(bytesReceived)/elapsed, time.Until(endTime).Seconds())
		}
	}

	fmt.Printf("\n--- Test Results ---\n")
	fmt.Printf("Duration: %d seconds\n", stabilityDuration)
	fmt.Printf("Reads: %d\n", readsReceived)
	fmt.Printf("Bytes received: %d\n", bytesReceived)
	if bytesReceived == 0 {
		fmt.Printf("Result: FAILED (no data)\n")
		os.Exit(1)
	}
	fmt.Printf("Result: PASSED (connection stable)\n")

	return nil
}
