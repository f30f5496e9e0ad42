// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads and saves the turtlelink TOML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
	"github.com/Thermoquad/turtlelink/pkg/link"
)

// DefaultFileName is looked up in the working directory when no path is given
const DefaultFileName = "turtlelink.toml"

type Config struct {
	Serial    SerialConfig    `toml:"serial"`
	Log       LogConfig       `toml:"log"`
	WebSocket WebSocketConfig `toml:"websocket"`
	Gains     GainsConfig     `toml:"gains"`
}

type SerialConfig struct {
	Port        string `toml:"port"`
	Baud        int    `toml:"baud"`
	ReadTimeout string `toml:"read_timeout"`
	Tick        string `toml:"tick"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type WebSocketConfig struct {
	URL         string `toml:"url"`
	Username    string `toml:"username"`
	NoSSLVerify bool   `toml:"no_ssl_verify"`
}

// GainsConfig holds the PID gains sent by "gains set" when no flags are given
type GainsConfig struct {
	UserConfigured bool    `toml:"user_configured"`
	P              uint32  `toml:"p"`
	I              float64 `toml:"i"`
	D              uint32  `toml:"d"`
}

func Default() Config {
	return Config{
		Serial: SerialConfig{
			Baud:        kobuki.BaudRate,
			ReadTimeout: link.DefaultReadTimeout.String(),
			Tick:        link.DefaultTick.String(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Gains: GainsConfig{
			P: kobuki.DefaultPGain,
			I: kobuki.MinIntegralGain,
			D: kobuki.DefaultDGain,
		},
	}
}

// Load reads path. A missing file yields the defaults and exists=false.
func Load(path string) (Config, bool, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, false, nil
		}
		return Config{}, false, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, true, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, true, err
	}
	return cfg, true, nil
}

func (cfg *Config) Save(path string) error {
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (cfg *Config) Validate() error {
	if cfg.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be positive: %d", cfg.Serial.Baud)
	}
	if _, err := cfg.ReadTimeout(); err != nil {
		return err
	}
	if _, err := cfg.Tick(); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if cfg.Gains.I < 0 {
		return fmt.Errorf("gains.i must not be negative: %g", cfg.Gains.I)
	}
	return nil
}

// ReadTimeout parses serial.read_timeout
func (cfg *Config) ReadTimeout() (time.Duration, error) {
	return parsePositiveDuration("serial.read_timeout", cfg.Serial.ReadTimeout)
}

// Tick parses serial.tick
func (cfg *Config) Tick() (time.Duration, error) {
	return parsePositiveDuration("serial.tick", cfg.Serial.Tick)
}

// LogLevel parses log.level, falling back to info
func (cfg *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// Transport returns the port settings for the link runtime.
// password is only used for WebSocket bridges.
func (cfg *Config) Transport(password string) link.TransportConfig {
	t := link.DefaultTransportConfig()
	t.BaudRate = cfg.Serial.Baud
	if d, err := cfg.ReadTimeout(); err == nil {
		t.ReadTimeout = d
	}
	t.Username = cfg.WebSocket.Username
	t.Password = password
	t.SkipSSLVerify = cfg.WebSocket.NoSSLVerify
	return t
}

func (cfg *Config) normalize() {
	def := Default()

	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = def.Serial.Baud
	}
	if cfg.Serial.ReadTimeout == "" {
		cfg.Serial.ReadTimeout = def.Serial.ReadTimeout
	}
	if cfg.Serial.Tick == "" {
		cfg.Serial.Tick = def.Serial.Tick
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
}

func parsePositiveDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive: %s", key, value)
	}
	return d, nil
}
