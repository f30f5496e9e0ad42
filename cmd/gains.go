// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
)

var (
	gainsP       uint32
	gainsI       float64
	gainsD       uint32
	gainsUser    bool
	gainsVerify  bool
	gainsTimeout time.Duration
)

var gainsCmd = &cobra.Command{
	Use:   "gains",
	Short: "Read or set the wheel velocity PID gains",
}

var gainsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the base's current PID gains",
	Args:  cobra.NoArgs,
	RunE:  runGainsGet,
}

var gainsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the PID gains",
	Long: `Send SET_CONTROLLER_GAIN. Values not given on the command line come from
the [gains] section of the config file.

P and D are whole numbers scaled by 1000 on the wire; 0 selects the factory
defaults (P=1, D=2). I is clamped to 0.1-32000.`,
	Args: cobra.NoArgs,
	RunE: runGainsSet,
}

func init() {
	rootCmd.AddCommand(gainsCmd)
	gainsCmd.AddCommand(gainsGetCmd, gainsSetCmd)
	gainsCmd.PersistentFlags().DurationVar(&gainsTimeout, "timeout", 3*time.Second, "How long to wait for the base to answer")

	gainsSetCmd.Flags().Uint32Var(&gainsP, "p", 0, "Proportional gain")
	gainsSetCmd.Flags().Float64Var(&gainsI, "i", 0, "Integral gain")
	gainsSetCmd.Flags().Uint32Var(&gainsD, "d", 0, "Derivative gain")
	gainsSetCmd.Flags().BoolVar(&gainsUser, "user", true, "Mark the gains as user configured (default: true when gains are given)")
	gainsSetCmd.Flags().BoolVar(&gainsVerify, "verify", true, "Read the gains back after setting them")
}

func hasController(f *kobuki.Feedback) bool { return f.ControllerInfo != nil }

func printGains(c *kobuki.ControllerInfo) {
	p, i, d := c.Gains()
	kind := "factory"
	if c.UserConfigured != 0 {
		kind = "user"
	}
	fmt.Printf("Type: %s\n", kind)
	fmt.Printf("P:    %.3f\n", p)
	fmt.Printf("I:    %.3f\n", i)
	fmt.Printf("D:    %.3f\n", d)
}

// readGains polls the base and waits for its answer
func readGains(ctx context.Context, s *session) (*kobuki.ControllerInfo, error) {
	if err := s.rt.GetControllerGain(); err != nil {
		return nil, err
	}
	f, err := s.await(ctx, gainsTimeout, hasController)
	if err != nil {
		return nil, fmt.Errorf("waiting for controller info: %w", err)
	}
	return f.ControllerInfo, nil
}

func runGainsGet(cmd *cobra.Command, args []string) error {
	return runSession(func(ctx context.Context, s *session) error {
		c, err := readGains(ctx, s)
		if err != nil {
			return err
		}
		printGains(c)
		return nil
	})
}

func runGainsSet(cmd *cobra.Command, args []string) error {
	g := cfg.Gains
	flags := cmd.Flags()
	if flags.Changed("p") {
		g.P = gainsP
	}
	if flags.Changed("i") {
		g.I = gainsI
	}
	if flags.Changed("d") {
		g.D = gainsD
	}
	switch {
	case flags.Changed("user"):
		g.UserConfigured = gainsUser
	case flags.Changed("p") || flags.Changed("i") || flags.Changed("d"):
		g.UserConfigured = true
	}

	frame, err := kobuki.NewSetControllerGain(g.UserConfigured, g.P, g.I, g.D)
	if err != nil {
		return err
	}

	return runSession(func(ctx context.Context, s *session) error {
		if err := s.rt.SetControllerGain(g.UserConfigured, g.P, g.I, g.D); err != nil {
			return err
		}
		fmt.Print(kobuki.FormatCommand(frame))

		if !gainsVerify {
			return nil
		}
		c, err := readGains(ctx, s)
		if err != nil {
			return err
		}
		fmt.Println()
		printGains(c)
		return nil
	})
}
