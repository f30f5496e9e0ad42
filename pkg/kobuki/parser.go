// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package kobuki

import (
	"encoding/binary"
	"fmt"
	"time"
)

// ParsePayload parses the sub-records of a checksum-validated frame into a
// Feedback stamped with the current wall clock.
//
// Scanning stops at the end of the payload, after one pass per sub-record
// variant, or at the first sub-record it cannot read. In the last case the
// partially populated Feedback is returned together with ErrUnknownSubrecord
// or ErrMalformedSubrecord.
func ParsePayload(packet []byte) (*Feedback, error) {
	return parsePayload(packet, time.Now().UnixMilli())
}

func parsePayload(packet []byte, epochMs int64) (*Feedback, error) {
	f := &Feedback{EpochMs: epochMs}
	if len(packet) < HeaderSize {
		return f, fmt.Errorf("%w: %d bytes", ErrInvalidFrame, len(packet))
	}

	end := int(packet[2]) + HeaderSize
	if end > len(packet) {
		end = len(packet)
	}

	p := HeaderSize
	for i := 0; i < maxSubrecords; i++ {
		if p >= end {
			break
		}

		id := SubrecordID(packet[p])
		if !id.Known() {
			return f, fmt.Errorf("%w: id %d at offset %d", ErrUnknownSubrecord, id, p)
		}
		if p+2 > end {
			return f, fmt.Errorf("%w: %s header truncated at offset %d", ErrMalformedSubrecord, id, p)
		}

		size := int(packet[p+1])
		start := p + 2
		if start+size > end {
			return f, fmt.Errorf("%w: %s size %d overruns payload at offset %d", ErrMalformedSubrecord, id, size, p)
		}

		if err := f.decodeSubrecord(id, packet[start:start+size]); err != nil {
			return f, err
		}
		p = start + size
	}

	return f, nil
}

// Known reports whether id is one of the sub-records this package decodes
func (id SubrecordID) Known() bool {
	for _, k := range SubrecordIDs {
		if k == id {
			return true
		}
	}
	return false
}

// expectedSize returns the minimum content size for a sub-record
func (id SubrecordID) expectedSize() int {
	switch id {
	case IDBasicSensor:
		return SizeBasicSensor
	case IDDockingIR:
		return SizeDockingIR
	case IDInertialSensor:
		return SizeInertialSensor
	case IDCliff:
		return SizeCliff
	case IDCurrent:
		return SizeCurrent
	case IDHardwareVersion:
		return SizeHardwareVersion
	case IDFirmwareVersion:
		return SizeFirmwareVersion
	case IDGyro:
		return SizeGyroShort
	case IDGeneralPurposeInput:
		return SizeGeneralPurposeInput
	case IDUniqueDeviceID:
		return SizeUniqueDeviceID
	case IDControllerInfo:
		return SizeControllerInfo
	}
	return 0
}

// decodeSubrecord fills the slot for id from its content bytes
func (f *Feedback) decodeSubrecord(id SubrecordID, c []byte) error {
	if len(c) < id.expectedSize() {
		return fmt.Errorf("%w: %s size %d (expected %d)", ErrMalformedSubrecord, id, len(c), id.expectedSize())
	}

	le := binary.LittleEndian

	switch id {
	case IDBasicSensor:
		f.BasicSensor = &BasicSensor{
			Timestamp:    le.Uint16(c[0:2]),
			Bumper:       c[2],
			WheelDrop:    c[3],
			Cliff:        c[4],
			LeftEncoder:  le.Uint16(c[5:7]),
			RightEncoder: le.Uint16(c[7:9]),
			LeftPWM:      c[9],
			RightPWM:     c[10],
			Button:       c[11],
			Charger:      c[12],
			Battery:      c[13],
			Overcurrent:  c[14],
		}

	case IDDockingIR:
		f.DockingIR = &DockingIR{Right: c[0], Central: c[1], Left: c[2]}

	case IDInertialSensor:
		f.InertialSensor = &InertialSensor{
			Angle:     le.Uint16(c[0:2]),
			AngleRate: le.Uint16(c[2:4]),
		}

	case IDCliff:
		f.Cliff = &Cliff{
			Right:   le.Uint16(c[0:2]),
			Central: le.Uint16(c[2:4]),
			Left:    le.Uint16(c[4:6]),
		}

	case IDCurrent:
		f.Current = &Current{LeftMotor: c[0], RightMotor: c[1]}

	case IDHardwareVersion:
		f.HardwareVersion = &HardwareVersion{Version{Patch: c[0], Minor: c[1], Major: c[2]}}

	case IDFirmwareVersion:
		f.FirmwareVersion = &FirmwareVersion{Version{Patch: c[0], Minor: c[1], Major: c[2]}}

	case IDGyro:
		// Arity comes from the size byte, not the id
		var n int
		switch len(c) {
		case SizeGyroShort:
			n = 2
		case SizeGyroLong:
			n = 3
		default:
			return fmt.Errorf("%w: gyro size %d (expected %d or %d)", ErrMalformedSubrecord, len(c), SizeGyroShort, SizeGyroLong)
		}
		g := &Gyro{FrameID: c[0], SampleCount: c[1], Samples: make([]GyroSample, n)}
		for i := 0; i < n; i++ {
			off := 2 + i*6
			g.Samples[i] = GyroSample{
				X: le.Uint16(c[off : off+2]),
				Y: le.Uint16(c[off+2 : off+4]),
				Z: le.Uint16(c[off+4 : off+6]),
			}
		}
		f.Gyro = g

	case IDGeneralPurposeInput:
		f.GeneralPurposeInput = &GeneralPurposeInput{
			Digital: le.Uint16(c[0:2]),
			Analog: [4]uint16{
				le.Uint16(c[2:4]),
				le.Uint16(c[4:6]),
				le.Uint16(c[6:8]),
				le.Uint16(c[8:10]),
			},
		}

	case IDUniqueDeviceID:
		f.UniqueDeviceID = &UniqueDeviceID{
			UDID0: le.Uint32(c[0:4]),
			UDID1: le.Uint32(c[4:8]),
			UDID2: le.Uint32(c[8:12]),
		}

	case IDControllerInfo:
		f.ControllerInfo = &ControllerInfo{
			UserConfigured: c[0],
			P:              le.Uint32(c[1:5]),
			I:              le.Uint32(c[5:9]),
			D:              le.Uint32(c[9:13]),
		}
	}

	return nil
}
