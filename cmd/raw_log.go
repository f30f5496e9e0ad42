// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
	"github.com/Thermoquad/turtlelink/pkg/link"
)

var rawLogHex bool

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display raw feedback log in human-readable format",
	Long: `Continuously decode and display Kobuki feedback frames as they arrive.

Reads the port directly, without the link runtime, and prints every decoded
feedback with its timestamp and sub-records. Reads that carry no complete
frame are reported so framing problems are visible.

Supports both serial and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().BoolVar(&rawLogHex, "hex", false, "Also dump each read in hex")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	target, err := resolveTarget()
	if err != nil {
		return err
	}
	conn, err := openRaw(target)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("Turtlelink - Raw Feedback Log\n")
	fmt.Printf("Connection: %s\n", connectionInfo(target))
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := kobuki.NewDecoder()
	buf := make([]byte, kobuki.ReadBufferSize)
	var pending []byte

	for ctx.Err() == nil {
		n, err := conn.Read(buf)
		if err != nil {
			if errors.Is(err, link.ErrConnectionClosed) {
				logger.Info().Msg("connection closed")
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if n == 0 {
			continue
		}

		pending = append(pending, buf[:n]...)
		if rawLogHex {
			fmt.Printf("[%s] READ %d bytes: % X\n", time.Now().Format("15:04:05.000"), n, buf[:n])
		}

		feedbacks, err := decoder.Feed(pending)
		if errors.Is(err, kobuki.ErrInsufficientData) {
			continue
		}
		pending = pending[:0]
		if err != nil {
			fmt.Printf("[ERROR] %v\n", err)
			continue
		}

		for _, f := range feedbacks {
			fmt.Print(kobuki.FormatFeedback(f))
		}
	}
	return nil
}
