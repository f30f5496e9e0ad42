// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/turtlelink/pkg/config"
	"github.com/Thermoquad/turtlelink/pkg/kobuki"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Settings flags
	configPath string
	logLevel   string
)

var (
	cfg    = config.Default()
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "turtlelink",
	Short: "Kobuki base link and diagnostics",
	Long: `Turtlelink - A CLI tool for driving and monitoring a Kobuki (TurtleBot 2) base.

Decodes the base's feedback stream, sends motion, sound, output and gain
commands, and records feedback for later inspection.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

Without --port or --url the port is taken from the config file, and failing
that the first attached Kobuki base is used.

For WebSocket authentication, the password is read from the TURTLELINK_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:           "0.3.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", kobuki.BaudRate, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFileName, "Config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// loadSettings reads the config file and applies flag overrides
func loadSettings(cmd *cobra.Command, args []string) error {
	loaded, exists, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Serial.Port = portName
		if !flags.Changed("url") {
			cfg.WebSocket.URL = ""
		}
	}
	if flags.Changed("baud") {
		cfg.Serial.Baud = baudRate
	}
	if flags.Changed("url") {
		cfg.WebSocket.URL = wsURL
	}
	if flags.Changed("username") {
		cfg.WebSocket.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		cfg.WebSocket.NoSSLVerify = wsNoSSLVerify
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	logger = newLogger(cfg.LogLevel())
	if !exists && flags.Changed("config") {
		logger.Warn().Str("path", configPath).Msg("config file not found, using defaults")
	}
	return nil
}

func newLogger(level zerolog.Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// quietLogger keeps runtime logs off the terminal while a TUI owns it.
// Debug logging is left on for troubleshooting.
func quietLogger() {
	if cfg.LogLevel() > zerolog.DebugLevel {
		logger = zerolog.Nop()
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
