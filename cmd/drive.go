// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
)

var (
	driveSpeed    int
	driveRadius   int
	driveDuration time.Duration
)

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Drive the base for a fixed time, then stop",
	Long: `Send base control commands for --duration, then stop the base.

Speed is in mm/s (negative drives backwards). Radius is in mm: 0 drives
straight and 1 rotates in place, with the sign of the speed picking the
direction. The command is repeated every 100ms while driving.

Examples:
  turtlelink drive --speed 200 --duration 2s
  turtlelink drive --speed 100 --radius 1 --duration 1500ms`,
	RunE: runDrive,
}

func init() {
	rootCmd.AddCommand(driveCmd)
	driveCmd.Flags().IntVar(&driveSpeed, "speed", 100, "Wheel speed in mm/s")
	driveCmd.Flags().IntVar(&driveRadius, "radius", 0, "Turn radius in mm (0 straight, 1 rotate in place)")
	driveCmd.Flags().DurationVar(&driveDuration, "duration", time.Second, "How long to drive")
}

// int16Arg checks that a signed flag fits the wire's 16-bit field
func int16Arg(name string, v int) (uint16, error) {
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, fmt.Errorf("%w: --%s %d out of range", kobuki.ErrInvalidArgument, name, v)
	}
	return uint16(int16(v)), nil
}

// encoderDelta returns the wrapped difference of two 16-bit encoder counts
func encoderDelta(from, to uint16) int16 {
	return int16(to - from)
}

func runDrive(cmd *cobra.Command, args []string) error {
	speed, err := int16Arg("speed", driveSpeed)
	if err != nil {
		return err
	}
	radius, err := int16Arg("radius", driveRadius)
	if err != nil {
		return err
	}
	if driveDuration <= 0 {
		return fmt.Errorf("%w: --duration must be positive", kobuki.ErrInvalidArgument)
	}

	return runSession(func(ctx context.Context, s *session) error {
		fmt.Printf("Turtlelink - Drive\n")
		fmt.Printf("Connection: %s\n", s.info)
		fmt.Printf("Speed: %d mm/s, Radius: %d mm, Duration: %s\n\n", driveSpeed, driveRadius, driveDuration)

		hasSensor := func(f *kobuki.Feedback) bool { return f.BasicSensor != nil }
		before, err := s.await(ctx, 2*time.Second, hasSensor)
		if err != nil {
			return fmt.Errorf("waiting for sensor data: %w", err)
		}

		ticker := time.NewTicker(driveInterval)
		defer ticker.Stop()
		deadline := time.NewTimer(driveDuration)
		defer deadline.Stop()

		if err := s.rt.BaseControl(speed, radius); err != nil {
			return err
		}

	drive:
		for {
			select {
			case <-ticker.C:
				if err := s.rt.BaseControl(speed, radius); err != nil {
					return err
				}
			case tok := <-s.tokens:
				if err := tokenError(tok, s.target); err != nil {
					return err
				}
			case <-deadline.C:
				break drive
			case <-ctx.Done():
				break drive
			}
		}

		if err := s.rt.BaseControl(0, 0); err != nil {
			return err
		}
		fmt.Printf("Stopped\n")

		// Drop feedback queued while driving
		_, _ = s.rt.DrainFeedbacks()
		after, err := s.await(context.Background(), 2*time.Second, hasSensor)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		fmt.Printf("Encoders: L=%+d R=%+d ticks\n",
			encoderDelta(before.BasicSensor.LeftEncoder, after.BasicSensor.LeftEncoder),
			encoderDelta(before.BasicSensor.RightEncoder, after.BasicSensor.RightEncoder))
		return nil
	})
}
