// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
)

var (
	gpoOutputs []int
	gpoPower   []string
	gpoLED1    string
	gpoLED2    string
	gpoFlags   string
)

var gpoCmd = &cobra.Command{
	Use:   "gpo",
	Short: "Set expansion port outputs, power rails and LEDs",
	Long: `Send GENERAL_PURPOSE_OUTPUT with the selected outputs switched on.
Anything not named is switched off.

Power rails: 3v3, 5v, 12v5a, 12v1a5
LED colors:  off, red, green, orange

Examples:
  turtlelink gpo --led1 green --led2 red
  turtlelink gpo --out 0,2 --power 5v
  turtlelink gpo --flags 0x0300`,
	RunE: runGPO,
}

func init() {
	rootCmd.AddCommand(gpoCmd)
	gpoCmd.Flags().IntSliceVar(&gpoOutputs, "out", nil, "Digital outputs to switch on (0-3)")
	gpoCmd.Flags().StringSliceVar(&gpoPower, "power", nil, "Power rails to switch on")
	gpoCmd.Flags().StringVar(&gpoLED1, "led1", "off", "LED 1 color")
	gpoCmd.Flags().StringVar(&gpoLED2, "led2", "off", "LED 2 color")
	gpoCmd.Flags().StringVar(&gpoFlags, "flags", "", "Raw 12-bit output word (overrides the other flags)")
}

// parseLED returns the red and green states for a color name
func parseLED(color string) (red, green bool, err error) {
	switch strings.ToLower(strings.TrimSpace(color)) {
	case "", "off":
		return false, false, nil
	case "red":
		return true, false, nil
	case "green":
		return false, true, nil
	case "orange", "yellow":
		return true, true, nil
	}
	return false, false, fmt.Errorf("%w: LED color %q", kobuki.ErrInvalidArgument, color)
}

// buildGPO assembles the output word from the command flags
func buildGPO(outputs []int, power []string, led1, led2, flags string) (kobuki.GPO, error) {
	if flags != "" {
		v, err := strconv.ParseUint(flags, 0, 16)
		if err != nil || v > 0x0FFF {
			return kobuki.GPO{}, fmt.Errorf("%w: --flags %q (must be 0-0x0FFF)", kobuki.ErrInvalidArgument, flags)
		}
		return kobuki.GPOFromFlags(uint16(v)), nil
	}

	var g kobuki.GPO
	for _, o := range outputs {
		if o < 0 || o >= len(g.DigitalOut) {
			return kobuki.GPO{}, fmt.Errorf("%w: output %d (must be 0-3)", kobuki.ErrInvalidArgument, o)
		}
		g.DigitalOut[o] = true
	}

	for _, p := range power {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "3v3":
			g.Power3V3 = true
		case "5v":
			g.Power5V = true
		case "12v5a":
			g.Power12V5A = true
		case "12v1a5":
			g.Power12V1A5 = true
		default:
			return kobuki.GPO{}, fmt.Errorf("%w: power rail %q", kobuki.ErrInvalidArgument, p)
		}
	}

	var err error
	if g.LED1Red, g.LED1Green, err = parseLED(led1); err != nil {
		return kobuki.GPO{}, err
	}
	if g.LED2Red, g.LED2Green, err = parseLED(led2); err != nil {
		return kobuki.GPO{}, err
	}
	return g, nil
}

func runGPO(cmd *cobra.Command, args []string) error {
	g, err := buildGPO(gpoOutputs, gpoPower, gpoLED1, gpoLED2, gpoFlags)
	if err != nil {
		return err
	}
	return runSession(func(ctx context.Context, s *session) error {
		if err := s.rt.GPO(g); err != nil {
			return err
		}
		fmt.Print(kobuki.FormatCommand(kobuki.NewGeneralPurposeOutput(g)))
		return nil
	})
}
