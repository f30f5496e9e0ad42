// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
	"github.com/Thermoquad/turtlelink/pkg/link"
)

// PasswordEnv holds the WebSocket password when set
const PasswordEnv = "TURTLELINK_PASSWORD"

// openTimeout bounds how long a command waits for the port to open
const openTimeout = 5 * time.Second

// ErrPortFailed is returned when the link reports an error token
var ErrPortFailed = errors.New("port failed")

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	// First check environment variable
	if pw := os.Getenv(PasswordEnv); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// resolveTarget picks the port to open: the WebSocket URL, then the serial
// port, then the first attached Kobuki base
func resolveTarget() (string, error) {
	if cfg.WebSocket.URL != "" {
		return cfg.WebSocket.URL, nil
	}
	if cfg.Serial.Port != "" {
		return cfg.Serial.Port, nil
	}

	devices, err := link.ListDevices()
	if err != nil {
		return "", fmt.Errorf("no --port given and auto-detection failed: %w", err)
	}
	if len(devices) == 0 {
		return "", errors.New("no Kobuki base found, use --port or --url")
	}
	logger.Info().Str("port", devices[0]).Msg("auto-detected Kobuki base")
	return devices[0], nil
}

// connectionInfo describes target for command banners
func connectionInfo(target string) string {
	if link.IsWebSocketURL(target) {
		return fmt.Sprintf("WebSocket: %s", target)
	}
	return fmt.Sprintf("Serial: %s @ %d baud", target, cfg.Serial.Baud)
}

// transportConfig builds the port settings, prompting for a password only
// when a WebSocket bridge asks for Basic auth
func transportConfig(target string) (link.TransportConfig, error) {
	password := ""
	if link.IsWebSocketURL(target) && cfg.WebSocket.Username != "" {
		var err error
		password, err = GetPassword()
		if err != nil {
			return link.TransportConfig{}, err
		}
	}
	return cfg.Transport(password), nil
}

// openRaw opens target directly, without a link runtime
func openRaw(target string) (link.Port, error) {
	tc, err := transportConfig(target)
	if err != nil {
		return nil, err
	}
	return link.NewPortOpener(tc)(target)
}

// session is one started runtime with an open port
type session struct {
	rt     *link.Runtime
	tokens link.ChanSink
	stats  *kobuki.Statistics
	target string
	info   string
}

// openSession starts a runtime, opens the resolved target and waits for the
// worker to confirm it
func openSession(ctx context.Context) (*session, error) {
	target, err := resolveTarget()
	if err != nil {
		return nil, err
	}
	tc, err := transportConfig(target)
	if err != nil {
		return nil, err
	}
	tick, err := cfg.Tick()
	if err != nil {
		return nil, err
	}

	s := &session{
		tokens: link.NewChanSink(64),
		stats:  kobuki.NewStatistics(),
		target: target,
		info:   connectionInfo(target),
	}
	s.rt = link.New(
		link.WithLogger(logger),
		link.WithTransport(tc),
		link.WithStatistics(s.stats),
		link.WithTick(tick),
	)

	// The runtime outlives ctx so Close can still stop the base
	if err := s.rt.Start(s.tokens); err != nil {
		return nil, err
	}
	if err := s.open(ctx); err != nil {
		s.rt.Stop()
		return nil, err
	}
	return s, nil
}

// open asks for the port and waits for the opened token
func (s *session) open(ctx context.Context) error {
	if err := s.rt.OpenPort(s.target); err != nil {
		return err
	}

	timer := time.NewTimer(openTimeout)
	defer timer.Stop()

	for {
		select {
		case tok := <-s.tokens:
			switch tok {
			case link.TokenOpened:
				return nil
			case link.TokenError, link.TokenClosed:
				return fmt.Errorf("%w: could not open %s", ErrPortFailed, s.target)
			}
		case <-timer.C:
			return fmt.Errorf("timed out opening %s", s.target)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close closes the port, waits briefly for the worker to confirm and stops
// the runtime
func (s *session) Close() {
	if s.rt.PortOpen() && s.rt.ClosePort() == nil {
		timer := time.NewTimer(time.Second)
		defer timer.Stop()
	wait:
		for {
			select {
			case tok := <-s.tokens:
				if tok == link.TokenClosed || tok == link.TokenError {
					break wait
				}
			case <-timer.C:
				break wait
			}
		}
	}
	s.rt.Stop()
}

// next waits for feedback, returning the drained batch. A closed or failed
// port ends the wait with an error.
func (s *session) next(ctx context.Context) ([]*kobuki.Feedback, error) {
	for {
		select {
		case tok := <-s.tokens:
			if err := tokenError(tok, s.target); err != nil {
				return nil, err
			}
			if tok != link.TokenReady {
				continue
			}
			feedbacks, err := s.rt.DrainFeedbacks()
			if errors.Is(err, link.ErrNoFeedback) {
				continue
			}
			return feedbacks, err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// tokenError maps a closed or error token to an error
func tokenError(tok, target string) error {
	switch tok {
	case link.TokenError:
		return fmt.Errorf("%w: %s", ErrPortFailed, target)
	case link.TokenClosed:
		return fmt.Errorf("%w: %s", link.ErrConnectionClosed, target)
	}
	return nil
}

// await returns the first feedback matching want, or an error on timeout
func (s *session) await(ctx context.Context, timeout time.Duration, want func(*kobuki.Feedback) bool) (*kobuki.Feedback, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		feedbacks, err := s.next(ctx)
		if err != nil {
			return nil, err
		}
		for _, f := range feedbacks {
			if want(f) {
				return f, nil
			}
		}
	}
}

// signalContext returns a context cancelled by Ctrl+C or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runSession opens a session for the duration of fn
func runSession(fn func(ctx context.Context, s *session) error) error {
	ctx, cancel := signalContext()
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	return fn(ctx, s)
}
