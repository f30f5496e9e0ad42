// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package link runs the host side of a Kobuki serial link.
//
// A Runtime owns three pieces of shared state: a command mailbox filled by the
// host API, a feedback queue drained by the host, and a coordinator goroutine
// that tracks the port lifecycle. The coordinator spawns one serial worker per
// open port. The worker owns the port, writes outbound command frames, polls
// the port on a fixed tick and pushes decoded feedbacks to the queue.
package link

import "fmt"

// CommandKind identifies the kind of a Command
type CommandKind int

const (
	KindSerialControl CommandKind = iota
	KindBaseControl
	KindSound
	KindSoundSequence
	KindRequestExtra
	KindGeneralPurposeOutput
	KindSetControllerGain
	KindGetControllerGain
)

// String returns the command kind name
func (k CommandKind) String() string {
	switch k {
	case KindSerialControl:
		return "SerialControl"
	case KindBaseControl:
		return "BaseControl"
	case KindSound:
		return "Sound"
	case KindSoundSequence:
		return "SoundSequence"
	case KindRequestExtra:
		return "RequestExtra"
	case KindGeneralPurposeOutput:
		return "GeneralPurposeOutput"
	case KindSetControllerGain:
		return "SetControllerGain"
	case KindGetControllerGain:
		return "GetControllerGain"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// SerialSubcommand is the lifecycle verb carried by a SerialControl command.
// Open and Close flow from the host to the worker; the rest are worker events.
type SerialSubcommand int

const (
	SerialOpen SerialSubcommand = iota
	SerialClose
	SerialOpened
	SerialClosed
	SerialError
	SerialReady
)

// String returns the subcommand name
func (s SerialSubcommand) String() string {
	switch s {
	case SerialOpen:
		return "open"
	case SerialClose:
		return "close"
	case SerialOpened:
		return "opened"
	case SerialClosed:
		return "closed"
	case SerialError:
		return "error"
	case SerialReady:
		return "ready"
	default:
		return fmt.Sprintf("serial(%d)", int(s))
	}
}

// Command is the unit carried by every mailbox.
// Payload holds a complete encoded frame for device commands.
type Command struct {
	Kind     CommandKind
	Serial   SerialSubcommand
	PortName string
	Payload  []byte
	Err      error
}

// serialControl builds a lifecycle command
func serialControl(sub SerialSubcommand, name string, err error) Command {
	return Command{Kind: KindSerialControl, Serial: sub, PortName: name, Err: err}
}

// String describes the command for logs
func (c Command) String() string {
	if c.Kind == KindSerialControl {
		if c.PortName != "" {
			return fmt.Sprintf("%s(%s %s)", c.Kind, c.Serial, c.PortName)
		}
		return fmt.Sprintf("%s(%s)", c.Kind, c.Serial)
	}
	return fmt.Sprintf("%s(% X)", c.Kind, c.Payload)
}
