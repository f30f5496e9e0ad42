// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
)

var (
	inspectSummary  bool
	inspectValidate bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Print a recorded CBOR feedback file",
	Long: `Read a recording made by "turtlelink record" and print each feedback.

With --summary only the totals are printed. With --validate every feedback is
checked for anomalies, which are printed and counted.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectSummary, "summary", false, "Only print totals")
	inspectCmd.Flags().BoolVar(&inspectValidate, "validate", false, "Check each feedback for anomalies")
}

// recordingSummary accumulates totals over a recording
type recordingSummary struct {
	records    int
	first      int64
	last       int64
	subrecords map[kobuki.SubrecordID]int
	stats      *kobuki.Statistics
	prev       *kobuki.Feedback
}

func newRecordingSummary() *recordingSummary {
	return &recordingSummary{
		subrecords: make(map[kobuki.SubrecordID]int),
		stats:      kobuki.NewStatistics(),
	}
}

// add counts f and returns its anomalies
func (r *recordingSummary) add(f *kobuki.Feedback) []kobuki.ValidationError {
	if r.records == 0 {
		r.first = f.EpochMs
	}
	r.records++
	r.last = f.EpochMs
	for _, id := range f.Present() {
		r.subrecords[id]++
	}

	anomalies := kobuki.ValidateFeedback(f)
	anomalies = append(anomalies, kobuki.ValidateSequence(r.prev, f)...)
	if f.BasicSensor != nil {
		r.prev = f
	}
	r.stats.RecordAnomalies(anomalies)
	return anomalies
}

func (r *recordingSummary) print(out io.Writer) {
	span := time.Duration(r.last-r.first) * time.Millisecond
	fmt.Fprintf(out, "=== Recording ===\n")
	fmt.Fprintf(out, "Records:  %d\n", r.records)
	if r.records > 0 {
		fmt.Fprintf(out, "Start:    %s\n", time.UnixMilli(r.first).Format(time.DateTime))
		fmt.Fprintf(out, "Span:     %s\n", span)
		if span > 0 {
			fmt.Fprintf(out, "Rate:     %.1f records/sec\n", float64(r.records-1)/span.Seconds())
		}
	}
	for _, id := range kobuki.SubrecordIDs {
		if n := r.subrecords[id]; n > 0 {
			fmt.Fprintf(out, "  %-24s %6d\n", id.String()+":", n)
		}
	}

	snap := r.stats.Snapshot()
	if snap.Anomalies > 0 {
		fmt.Fprintf(out, "Anomalies: %d\n", snap.Anomalies)
		for t := kobuki.AnomalyBumper; t <= kobuki.AnomalyStaleTimestamp; t++ {
			if n := snap.AnomaliesByType[t]; n > 0 {
				fmt.Fprintf(out, "  %-24s %6d\n", t.String()+":", n)
			}
		}
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	file, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	r := kobuki.NewRecordReader(bufio.NewReader(file))
	summary := newRecordingSummary()

	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			summary.print(os.Stdout)
			return err
		}

		anomalies := summary.add(f)
		if inspectSummary {
			continue
		}
		fmt.Print(kobuki.FormatFeedback(f))
		if inspectValidate {
			for _, a := range anomalies {
				fmt.Printf("  \033[1;33m%s:\033[0m %s\n", a.Type, a.Message)
			}
		}
	}

	if !inspectSummary {
		fmt.Println()
	}
	summary.print(os.Stdout)
	return nil
}
