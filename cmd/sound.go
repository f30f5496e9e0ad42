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
	soundHz       float64
	soundFreq     uint16
	soundAmp      uint16
	soundDuration int
)

var soundCmd = &cobra.Command{
	Use:   "sound",
	Short: "Play tones and built-in sound sequences",
	Long: `Play a tone or one of the base's built-in sound sequences.

Examples:
  turtlelink sound note --hz 440 --ms 200
  turtlelink sound sequence button
  turtlelink sound raw --freq 1 --amp 1 --ms 100`,
}

var soundNoteCmd = &cobra.Command{
	Use:   "note",
	Short: "Play a frequency in Hz",
	Args:  cobra.NoArgs,
	RunE:  runSoundNote,
}

var soundRawCmd = &cobra.Command{
	Use:   "raw",
	Short: "Play a tone from raw frequency and amplitude words",
	Long: `Play a tone whose period is computed as 1/(freq*amp) in integer arithmetic.

This mirrors the raw SOUND command of the deployed host software; the period
is zero unless both words are 1. Use "sound note" for audible frequencies.`,
	Args: cobra.NoArgs,
	RunE: runSoundRaw,
}

var soundSequenceCmd = &cobra.Command{
	Use:   "sequence NAME",
	Short: "Play a built-in sequence",
	Long: `Play a built-in sequence by name or number.

Sequences: on, off, recharge, button, error, cleaning_start, cleaning_end`,
	Args: cobra.ExactArgs(1),
	RunE: runSoundSequence,
}

func init() {
	rootCmd.AddCommand(soundCmd)
	soundCmd.AddCommand(soundNoteCmd, soundRawCmd, soundSequenceCmd)

	soundNoteCmd.Flags().Float64Var(&soundHz, "hz", 440, "Frequency in Hz")
	soundRawCmd.Flags().Uint16Var(&soundFreq, "freq", 1, "Raw frequency word")
	soundRawCmd.Flags().Uint16Var(&soundAmp, "amp", 1, "Raw amplitude word")
	for _, c := range []*cobra.Command{soundNoteCmd, soundRawCmd} {
		c.Flags().IntVar(&soundDuration, "ms", 200, "Duration in milliseconds (1-255)")
	}
}

// durationArg checks a sound duration against the wire's 8-bit field
func durationArg(ms int) (uint8, error) {
	if ms < 1 || ms > 255 {
		return 0, fmt.Errorf("%w: --ms %d (must be 1-255)", kobuki.ErrInvalidArgument, ms)
	}
	return uint8(ms), nil
}

// parseSequence accepts a sequence name or number
func parseSequence(arg string) (kobuki.SoundSequence, error) {
	if n, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 8); err == nil {
		seq := kobuki.SoundSequence(n)
		if seq > kobuki.SequenceCleaningEnd {
			return 0, fmt.Errorf("%w: sound sequence %d", kobuki.ErrInvalidArgument, n)
		}
		return seq, nil
	}
	return kobuki.ParseSoundSequence(arg)
}

func runSoundNote(cmd *cobra.Command, args []string) error {
	ms, err := durationArg(soundDuration)
	if err != nil {
		return err
	}
	if _, err := kobuki.NewSoundNote(soundHz, ms); err != nil {
		return err
	}
	return runSession(func(ctx context.Context, s *session) error {
		if err := s.rt.SoundNote(soundHz, ms); err != nil {
			return err
		}
		fmt.Printf("Playing %.1f Hz for %d ms\n", soundHz, ms)
		return nil
	})
}

func runSoundRaw(cmd *cobra.Command, args []string) error {
	ms, err := durationArg(soundDuration)
	if err != nil {
		return err
	}
	if _, err := kobuki.NewSound(soundFreq, soundAmp, ms); err != nil {
		return err
	}
	return runSession(func(ctx context.Context, s *session) error {
		if err := s.rt.Sound(soundFreq, soundAmp, ms); err != nil {
			return err
		}
		fmt.Printf("Playing raw tone freq=%d amp=%d for %d ms\n", soundFreq, soundAmp, ms)
		return nil
	})
}

func runSoundSequence(cmd *cobra.Command, args []string) error {
	seq, err := parseSequence(args[0])
	if err != nil {
		return err
	}
	return runSession(func(ctx context.Context, s *session) error {
		if err := s.rt.SoundSequence(seq); err != nil {
			return err
		}
		fmt.Printf("Playing sequence %s\n", seq)
		return nil
	})
}
