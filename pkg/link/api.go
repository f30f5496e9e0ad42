// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"sync"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
)

// The functions below drive a process-wide Runtime created on first use.
// It is never torn down.

var (
	defaultOnce    sync.Once
	defaultRuntime *Runtime
	defaultOptions []Option
)

// Configure sets the options of the default runtime. It has no effect once
// the default runtime exists.
func Configure(opts ...Option) {
	defaultOptions = opts
}

// Default returns the process-wide runtime
func Default() *Runtime {
	defaultOnce.Do(func() {
		defaultRuntime = New(defaultOptions...)
	})
	return defaultRuntime
}

// Start starts the default runtime
func Start(sink Sink) error { return Default().Start(sink) }

// DrainFeedbacks drains the default runtime's feedback queue
func DrainFeedbacks() ([]*kobuki.Feedback, error) { return Default().DrainFeedbacks() }

// OpenPort opens a port on the default runtime
func OpenPort(name string) error { return Default().OpenPort(name) }

// ClosePort closes the default runtime's port
func ClosePort() error { return Default().ClosePort() }

// PortOpen reports whether the default runtime has an open port
func PortOpen() bool { return Default().PortOpen() }

// BaseControl sends BASE_CONTROL on the default runtime
func BaseControl(speed, radius uint16) error { return Default().BaseControl(speed, radius) }

// Sound sends SOUND on the default runtime
func Sound(freq, amp uint16, durationMs uint8) error { return Default().Sound(freq, amp, durationMs) }

// SoundNote sends a SOUND note on the default runtime
func SoundNote(freqHz float64, durationMs uint8) error {
	return Default().SoundNote(freqHz, durationMs)
}

// SoundSequence sends SOUND_SEQUENCE on the default runtime
func SoundSequence(seq kobuki.SoundSequence) error { return Default().SoundSequence(seq) }

// RequestExtra sends REQUEST_EXTRA on the default runtime
func RequestExtra(hw, fw, udid bool) error { return Default().RequestExtra(hw, fw, udid) }

// GPO sends GENERAL_PURPOSE_OUTPUT on the default runtime
func GPO(g kobuki.GPO) error { return Default().GPO(g) }

// SetControllerGain sends SET_CONTROLLER_GAIN on the default runtime
func SetControllerGain(userConfigured bool, p uint32, i float64, d uint32) error {
	return Default().SetControllerGain(userConfigured, p, i, d)
}

// GetControllerGain sends GET_CONTROLLER_GAIN on the default runtime
func GetControllerGain() error { return Default().GetControllerGain() }
