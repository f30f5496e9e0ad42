// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
)

var (
	recordOut      string
	recordDuration time.Duration
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record decoded feedback to a CBOR file",
	Long: `Record every decoded feedback as a CBOR sequence for later inspection.

Recording runs until --duration elapses or Ctrl+C is pressed. Use
"turtlelink inspect FILE" to read a recording back.`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVarP(&recordOut, "out", "o", "", "Output file (default feedback-<time>.cbor)")
	recordCmd.Flags().DurationVar(&recordDuration, "duration", 0, "Stop after this long (0 records until Ctrl+C)")
}

func runRecord(cmd *cobra.Command, args []string) error {
	path := recordOut
	if path == "" {
		path = fmt.Sprintf("feedback-%s.cbor", time.Now().Format("20060102-150405"))
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	buf := bufio.NewWriter(file)
	w := kobuki.NewRecordWriter(buf)

	err = runSession(func(ctx context.Context, s *session) error {
		fmt.Printf("Turtlelink - Record\n")
		fmt.Printf("Connection: %s\n", s.info)
		fmt.Printf("Output: %s\n", path)
		fmt.Printf("Press Ctrl+C to stop\n\n")

		if recordDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, recordDuration)
			defer cancel()
		}

		progress := time.NewTicker(5 * time.Second)
		defer progress.Stop()

		for {
			feedbacks, err := s.next(ctx)
			if err != nil {
				return err
			}
			if err := w.Write(feedbacks...); err != nil {
				return err
			}

			select {
			case <-progress.C:
				logger.Info().Int("records", w.Count()).Msg("recording")
			default:
			}
		}
	})

	if ferr := buf.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	fmt.Printf("\n%d records written to %s\n", w.Count(), path)

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
