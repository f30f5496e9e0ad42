// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package kobuki implements the framed binary protocol spoken by the Kobuki
// (TurtleBot2) mobile base over its USB-serial link.
//
// Frames start with the preamble 0xAA 0x55, followed by a length byte, the
// payload and an XOR checksum. Inbound payloads carry one or more
// self-describing sub-records (id, size, content); outbound payloads carry a
// single command. This package provides stream decoding with residue carry
// across reads, payload parsing, command encoding, formatting and anomaly
// detection.
package kobuki

// Protocol framing bytes
const (
	Preamble0 = 0xAA
	Preamble1 = 0x55
)

// Frame layout
const (
	HeaderSize     = 3 // preamble + length byte
	FrameOverhead  = 4 // header + checksum
	MaxPayloadSize = 255

	// MinReadSize is the smallest read the decoder will accept. Shorter reads
	// are stream underflow and are handed back to the caller.
	MinReadSize = 81

	// ReadBufferSize is the size of a single serial read.
	ReadBufferSize = 4096
)

// Serial link parameters
const (
	BaudRate = 115200
)

// SubrecordID identifies a feedback sub-record inside an inbound payload
type SubrecordID uint8

// Feedback sub-record ids
const (
	IDBasicSensor         SubrecordID = 1
	IDDockingIR           SubrecordID = 3
	IDInertialSensor      SubrecordID = 4
	IDCliff               SubrecordID = 5
	IDCurrent             SubrecordID = 6
	IDHardwareVersion     SubrecordID = 10
	IDFirmwareVersion     SubrecordID = 11
	IDGyro                SubrecordID = 13
	IDGeneralPurposeInput SubrecordID = 16
	IDUniqueDeviceID      SubrecordID = 19
	IDControllerInfo      SubrecordID = 21
)

// SubrecordIDs lists every known sub-record in id order
var SubrecordIDs = []SubrecordID{
	IDBasicSensor,
	IDDockingIR,
	IDInertialSensor,
	IDCliff,
	IDCurrent,
	IDHardwareVersion,
	IDFirmwareVersion,
	IDGyro,
	IDGeneralPurposeInput,
	IDUniqueDeviceID,
	IDControllerInfo,
}

// maxSubrecords bounds the payload scan to the number of sub-record variants
var maxSubrecords = len(SubrecordIDs)

// Sub-record content sizes
// Gyro carries either two or three samples.
const (
	SizeBasicSensor         = 15
	SizeDockingIR           = 3
	SizeInertialSensor      = 7
	SizeCliff               = 6
	SizeCurrent             = 2
	SizeHardwareVersion     = 4
	SizeFirmwareVersion     = 4
	SizeGyroShort           = 14
	SizeGyroLong            = 20
	SizeGeneralPurposeInput = 16
	SizeUniqueDeviceID      = 12
	SizeControllerInfo      = 13
)

// CommandID identifies an outbound command
type CommandID uint8

// Command ids
const (
	CmdBaseControl          CommandID = 1
	CmdSound                CommandID = 3
	CmdSoundSequence        CommandID = 4
	CmdRequestExtra         CommandID = 9
	CmdGeneralPurposeOutput CommandID = 12
	CmdSetControllerGain    CommandID = 13
	CmdGetControllerGain    CommandID = 14
)

// Command content sizes
const (
	CmdSizeBaseControl          = 4
	CmdSizeSound                = 3
	CmdSizeSoundSequence        = 1
	CmdSizeRequestExtra         = 2
	CmdSizeGeneralPurposeOutput = 2
	CmdSizeSetControllerGain    = 13
	CmdSizeGetControllerGain    = 1
)

// RequestExtra flag bits
const (
	ExtraHardwareVersion uint16 = 1 << 0
	ExtraFirmwareVersion uint16 = 1 << 1
	ExtraUniqueDeviceID  uint16 = 1 << 7
)

// SoundSequence represents the built-in sound sequences
type SoundSequence uint8

// Sound sequence values
const (
	SequenceOn SoundSequence = iota
	SequenceOff
	SequenceRecharge
	SequenceButton
	SequenceError
	SequenceCleaningStart
	SequenceCleaningEnd
)

// Controller gain limits
const (
	GainScale       = 1000
	MinIntegralGain = 0.1
	MaxIntegralGain = 32000.0
	DefaultPGain    = 1
	DefaultDGain    = 2

	getControllerGainPoll = 0xFF
)

// Bumper, wheel drop and cliff bit masks in BasicSensor
const (
	BumperRight  = 0x01
	BumperCenter = 0x02
	BumperLeft   = 0x04

	WheelDropRight = 0x01
	WheelDropLeft  = 0x02

	CliffRight  = 0x01
	CliffCenter = 0x02
	CliffLeft   = 0x04

	OvercurrentLeft  = 0x01
	OvercurrentRight = 0x02
)

// Charger states reported in BasicSensor
const (
	ChargerDischarging     = 0
	ChargerDockingCharged  = 2
	ChargerDockingCharging = 6
	ChargerAdapterCharged  = 18
	ChargerAdapterCharging = 22
)
