// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/turtlelink/pkg/link"
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for driving a Kobuki base",
	Long: `Drive and monitor a Kobuki base via an interactive terminal UI.

This command provides a TUI for teleoperating a base connected via a
WebSocket serial bridge or directly over USB.

Features:
  - Keyboard driving (arrow keys or WASD, space to stop)
  - Speed entry and built-in sound sequences
  - LED toggling, version and gain queries
  - Real-time sensor display and statistics
  - Event logging
  - Automatic reconnection on connection loss

Tab switches between the drive panel, the speed input and the sound list.

Supports both serial and WebSocket connections.`,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
}

// connectionManager reopens the port when the link reports it lost and
// forwards feedback to the TUI
type connectionManager struct {
	s    *session
	p    *tea.Program
	done chan struct{}
}

func runControl(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	quietLogger()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}

	cm := &connectionManager{
		s:    s,
		done: make(chan struct{}),
	}

	m := initialControlModel(s.rt, s.stats, s.info)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	cm.p = p

	go cm.readerLoop(ctx)

	_, runErr := p.Run()

	close(cm.done)
	// Leave the base stopped
	_ = s.rt.BaseControl(0, 0)
	s.Close()

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %v", runErr)
	}
	return nil
}

// readerLoop forwards feedback until shutdown, reconnecting on loss
func (cm *connectionManager) readerLoop(ctx context.Context) {
	for {
		feedbacks, err := cm.s.next(ctx)
		if err == nil {
			cm.p.Send(controlBatchMsg{feedbacks: feedbacks})
			continue
		}

		select {
		case <-cm.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		cm.p.Send(connectionLostMsg{err: err})
		if !cm.reconnect(ctx) {
			return
		}
	}
}

// reconnect attempts to reopen the port with exponential backoff.
// Returns false if shutdown was requested during reconnection.
func (cm *connectionManager) reconnect(ctx context.Context) bool {
	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-cm.done:
			return false
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}

		err := cm.s.open(ctx)
		if err == nil {
			cm.p.Send(reconnectedMsg{connInfo: cm.s.info})
			return true
		}
		if errors.Is(err, link.ErrStopped) {
			return false
		}
		logger.Debug().Err(err).Dur("backoff", backoff).Msg("reconnect failed")

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
