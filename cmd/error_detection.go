// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var errorDetectionCmd = &cobra.Command{
	Use:   "error_detection",
	Short: "Detect and analyze framing errors and sensor anomalies",
	Long: `Track framing errors, malformed sub-records and anomalous sensor values with statistics.

This command validates each feedback and detects:
  - Checksum failures and residues that could not be repaired
  - Unknown or malformed sub-records
  - Safety events (bumper, wheel drop, cliff, motor overcurrent)
  - Low battery while discharging and repeated sensor timestamps
  - Statistics and trends (frame rate, error rate, success rate)

By default, only anomalies are displayed. Use --show-all to display every
feedback too.

Feedback is validated in real-time, with anomalies highlighted immediately and
periodic statistics summaries displayed at configurable intervals.`,
	RunE: runErrorDetection,
}

func init() {
	rootCmd.AddCommand(errorDetectionCmd)
	errorDetectionCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all feedback (not just anomalies)")
	errorDetectionCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	errorDetectionCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runErrorDetection(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	if useTUI {
		quietLogger()
	}
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if useTUI {
		return runTUIMode(ctx, s)
	}
	return runTextMode(ctx, s)
}

// checked is one feedback with its anomalies
type checked struct {
	feedback  *kobuki.Feedback
	anomalies []kobuki.ValidationError
}

// checker validates feedback and tracks timestamp continuity between batches
type checker struct {
	stats *kobuki.Statistics
	prev  *kobuki.Feedback
}

// check validates a batch. Per-frame anomalies are already counted by the
// link worker; sequence anomalies are counted here.
func (c *checker) check(feedbacks []*kobuki.Feedback) []checked {
	out := make([]checked, 0, len(feedbacks))
	for _, f := range feedbacks {
		anomalies := kobuki.ValidateFeedback(f)
		if seq := kobuki.ValidateSequence(c.prev, f); len(seq) > 0 {
			c.stats.RecordAnomalies(seq)
			anomalies = append(anomalies, seq...)
		}
		if f.BasicSensor != nil {
			c.prev = f
		}
		out = append(out, checked{feedback: f, anomalies: anomalies})
	}
	return out
}

// printAnomalies prints the anomalies of one feedback
func printAnomalies(c checked) {
	timestamp := time.UnixMilli(c.feedback.EpochMs).Format("15:04:05.000")

	fmt.Printf("[%s] \033[1;33mANOMALY:\033[0m %d issue(s)\n", timestamp, len(c.anomalies))
	fmt.Printf("  Checksum: \033[1;32mOK\033[0m\n")

	for i, err := range c.anomalies {
		switch err.Type {
		case kobuki.AnomalyBumper, kobuki.AnomalyWheelDrop, kobuki.AnomalyCliff, kobuki.AnomalyOvercurrent:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, err.Message)

		case kobuki.AnomalyLowBattery:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)

		case kobuki.AnomalyGyroLength:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, err.Message)
			if length, ok := err.Details["length"].(uint8); ok {
				if samples, ok := err.Details["samples"].(int); ok {
					fmt.Printf("    length=%d, samples=%d (3 values per sample)\n", length, samples)
				}
			}

		default:
			fmt.Printf("  Issue %d: %s\n", i+1, err.Message)
		}
	}

	if b := c.feedback.BasicSensor; b != nil {
		fmt.Printf("  Sensor Time: %d ms, Battery: %.1fV\n", b.Timestamp, b.BatteryVolts())
	}
	fmt.Println()
}

// runTUIMode runs error detection in TUI mode
func runTUIMode(ctx context.Context, s *session) error {
	m := initialModel(s.info, statsInterval, showAll, s.stats)
	p := tea.NewProgram(m, tea.WithContext(ctx))

	// Feedback reader goroutine
	go func() {
		c := &checker{stats: s.stats}
		synchronized := false
		for {
			feedbacks, err := s.next(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					p.Send(linkErrorMsg{err: err})
				}
				return
			}
			if !synchronized {
				synchronized = true
				snap := s.stats.Snapshot()
				p.Send(syncMsg{skippedReads: snap.NoHeaderReads + snap.ShortReads})
			}
			p.Send(feedbackMsg{batch: c.check(feedbacks)})
		}
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// runTextMode runs error detection in text mode
func runTextMode(ctx context.Context, s *session) error {
	fmt.Printf("Turtlelink - Error Detection Mode\n")
	fmt.Printf("Connection: %s\n", s.info)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All feedback\n")
	} else {
		fmt.Printf("Mode: Anomalies only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	// Feedback batches from the link runtime
	batches := make(chan []*kobuki.Feedback, 10)
	linkErr := make(chan error, 1)
	go func() {
		for {
			feedbacks, err := s.next(ctx)
			if err != nil {
				linkErr <- err
				return
			}
			batches <- feedbacks
		}
	}()

	c := &checker{stats: s.stats}
	synchronized := false

	for {
		select {
		case feedbacks := <-batches:
			if !synchronized {
				synchronized = true
				snap := s.stats.Snapshot()
				if skipped := snap.NoHeaderReads + snap.ShortReads; skipped > 0 {
					fmt.Printf("[SYNC] Synchronized after skipping %d reads\n\n", skipped)
				} else {
					fmt.Printf("[SYNC] Synchronized\n\n")
				}
			}

			for _, r := range c.check(feedbacks) {
				if len(r.anomalies) > 0 {
					printAnomalies(r)
				} else if showAll {
					fmt.Print(kobuki.FormatFeedback(r.feedback))
				}
			}

		case err := <-linkErr:
			fmt.Println()
			fmt.Print(s.stats.String())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(s.stats.String())
			fmt.Println()
		}
	}
}
