// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package kobuki

import (
	"fmt"
	"strings"
	"time"
)

// String returns the sub-record name
func (id SubrecordID) String() string {
	return FormatSubrecordID(id)
}

// FormatSubrecordID returns the human-readable name for a sub-record id
func FormatSubrecordID(id SubrecordID) string {
	switch id {
	case IDBasicSensor:
		return "BASIC_SENSOR"
	case IDDockingIR:
		return "DOCKING_IR"
	case IDInertialSensor:
		return "INERTIAL_SENSOR"
	case IDCliff:
		return "CLIFF"
	case IDCurrent:
		return "CURRENT"
	case IDHardwareVersion:
		return "HARDWARE_VERSION"
	case IDFirmwareVersion:
		return "FIRMWARE_VERSION"
	case IDGyro:
		return "RAW_GYRO"
	case IDGeneralPurposeInput:
		return "GENERAL_PURPOSE_INPUT"
	case IDUniqueDeviceID:
		return "UNIQUE_DEVICE_ID"
	case IDControllerInfo:
		return "CONTROLLER_INFO"
	default:
		return "UNKNOWN"
	}
}

// String returns the command name
func (id CommandID) String() string {
	switch id {
	case CmdBaseControl:
		return "BASE_CONTROL"
	case CmdSound:
		return "SOUND"
	case CmdSoundSequence:
		return "SOUND_SEQUENCE"
	case CmdRequestExtra:
		return "REQUEST_EXTRA"
	case CmdGeneralPurposeOutput:
		return "GENERAL_PURPOSE_OUTPUT"
	case CmdSetControllerGain:
		return "SET_CONTROLLER_GAIN"
	case CmdGetControllerGain:
		return "GET_CONTROLLER_GAIN"
	default:
		return "UNKNOWN"
	}
}

// String returns the sequence name
func (s SoundSequence) String() string {
	switch s {
	case SequenceOn:
		return "ON"
	case SequenceOff:
		return "OFF"
	case SequenceRecharge:
		return "RECHARGE"
	case SequenceButton:
		return "BUTTON"
	case SequenceError:
		return "ERROR"
	case SequenceCleaningStart:
		return "CLEANING_START"
	case SequenceCleaningEnd:
		return "CLEANING_END"
	default:
		return "UNKNOWN"
	}
}

// ParseSoundSequence accepts a sequence name (case-insensitive)
func ParseSoundSequence(name string) (SoundSequence, error) {
	want := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	for s := SequenceOn; s <= SequenceCleaningEnd; s++ {
		if s.String() == want {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown sound sequence %q", ErrInvalidArgument, name)
}

var bumperNames = []string{"right", "center", "left"}
var wheelDropNames = []string{"right", "left"}
var cliffNames = []string{"right", "center", "left"}
var overcurrentNames = []string{"left", "right"}
var buttonNames = []string{"B0", "B1", "B2"}

// formatBits lists the names of the set bits, lowest bit first
func formatBits(v uint8, names []string) string {
	var set []string
	for i, name := range names {
		if v&(1<<i) != 0 {
			set = append(set, name)
		}
	}
	if len(set) == 0 {
		return "none"
	}
	return strings.Join(set, ",")
}

// formatCharger returns the charger state name
func formatCharger(state uint8) string {
	switch state {
	case ChargerDischarging:
		return "DISCHARGING"
	case ChargerDockingCharged:
		return "DOCKING_CHARGED"
	case ChargerDockingCharging:
		return "DOCKING_CHARGING"
	case ChargerAdapterCharged:
		return "ADAPTER_CHARGED"
	case ChargerAdapterCharging:
		return "ADAPTER_CHARGING"
	default:
		return "UNKNOWN"
	}
}

// FormatFeedback formats a feedback into a human-readable string
func FormatFeedback(f *Feedback) string {
	timestamp := time.UnixMilli(f.EpochMs).Format("15:04:05.000")

	var names []string
	for _, id := range f.Present() {
		names = append(names, id.String())
	}
	result := fmt.Sprintf("[%s] FEEDBACK records=%d [%s]\n", timestamp, len(names), strings.Join(names, " "))

	for _, id := range f.Present() {
		result += FormatSubrecord(f, id)
	}

	return result
}

// FormatSubrecord formats one present sub-record of a feedback
func FormatSubrecord(f *Feedback, id SubrecordID) string {
	switch id {
	case IDBasicSensor:
		b := f.BasicSensor
		return fmt.Sprintf("  Sensor: t=%d ms, Encoders: L=%d R=%d, PWM: L=%d R=%d\n"+
			"  Bumper: %s, Wheel Drop: %s, Cliff: %s, Overcurrent: %s\n"+
			"  Button: %s, Charger: %s (%d), Battery: %.1fV\n",
			b.Timestamp, b.LeftEncoder, b.RightEncoder, int8(b.LeftPWM), int8(b.RightPWM),
			formatBits(b.Bumper, bumperNames), formatBits(b.WheelDrop, wheelDropNames),
			formatBits(b.Cliff, cliffNames), formatBits(b.Overcurrent, overcurrentNames),
			formatBits(b.Button, buttonNames), formatCharger(b.Charger), b.Charger, b.BatteryVolts())

	case IDDockingIR:
		d := f.DockingIR
		return fmt.Sprintf("  Docking IR: R=0x%02X C=0x%02X L=0x%02X\n", d.Right, d.Central, d.Left)

	case IDInertialSensor:
		s := f.InertialSensor
		return fmt.Sprintf("  Heading: %.2f°, Rate: %.2f°/s\n", s.Degrees(), s.RateDegreesPerSecond())

	case IDCliff:
		c := f.Cliff
		return fmt.Sprintf("  Cliff ADC: R=%d C=%d L=%d\n", c.Right, c.Central, c.Left)

	case IDCurrent:
		c := f.Current
		return fmt.Sprintf("  Motor Current: L=%d mA R=%d mA\n", c.LeftMilliamps(), c.RightMilliamps())

	case IDHardwareVersion:
		return fmt.Sprintf("  Hardware: %s\n", f.HardwareVersion.Version)

	case IDFirmwareVersion:
		return fmt.Sprintf("  Firmware: %s\n", f.FirmwareVersion.Version)

	case IDGyro:
		g := f.Gyro
		result := fmt.Sprintf("  Gyro: frame=%d, length=%d, samples=%d\n", g.FrameID, g.SampleCount, len(g.Samples))
		for i, s := range g.Samples {
			result += fmt.Sprintf("    [%d] x=%.2f y=%.2f z=%.2f °/s\n", i,
				float64(int16(s.X))*GyroDigitToDPS,
				float64(int16(s.Y))*GyroDigitToDPS,
				float64(int16(s.Z))*GyroDigitToDPS)
		}
		return result

	case IDGeneralPurposeInput:
		g := f.GeneralPurposeInput
		return fmt.Sprintf("  GPI: digital=0x%04X, analog=[%d %d %d %d]\n",
			g.Digital, g.Analog[0], g.Analog[1], g.Analog[2], g.Analog[3])

	case IDUniqueDeviceID:
		return fmt.Sprintf("  UDID: %s\n", f.UniqueDeviceID)

	case IDControllerInfo:
		c := f.ControllerInfo
		p, i, d := c.Gains()
		kind := "factory"
		if c.UserConfigured != 0 {
			kind = "user"
		}
		return fmt.Sprintf("  Controller: %s, P=%.3f I=%.3f D=%.3f\n", kind, p, i, d)
	}
	return ""
}

// FormatCommand formats an outbound command frame
func FormatCommand(frame []byte) string {
	id, content, err := SplitCommand(frame)
	if err != nil {
		return fmt.Sprintf("INVALID COMMAND (%v): % X\n", err, frame)
	}

	result := fmt.Sprintf("%s (0x%02X) size=%d\n", id, uint8(id), len(content))

	word := func(off int) uint16 {
		if off+2 > len(content) {
			return 0
		}
		return uint16(content[off]) | uint16(content[off+1])<<8
	}
	dword := func(off int) uint32 {
		if off+4 > len(content) {
			return 0
		}
		return uint32(word(off)) | uint32(word(off+2))<<16
	}

	switch id {
	case CmdBaseControl:
		result += fmt.Sprintf("  Speed: %d mm/s, Radius: %d mm\n", int16(word(0)), int16(word(2)))
	case CmdSound:
		var duration uint8
		if len(content) > 2 {
			duration = content[2]
		}
		result += fmt.Sprintf("  Period: %d, Duration: %d ms\n", word(0), duration)
	case CmdSoundSequence:
		if len(content) > 0 {
			result += fmt.Sprintf("  Sequence: %s (%d)\n", SoundSequence(content[0]), content[0])
		}
	case CmdRequestExtra:
		flags := word(0)
		result += fmt.Sprintf("  Hardware: %t, Firmware: %t, UDID: %t\n",
			flags&ExtraHardwareVersion != 0, flags&ExtraFirmwareVersion != 0, flags&ExtraUniqueDeviceID != 0)
	case CmdGeneralPurposeOutput:
		result += fmt.Sprintf("  Flags: 0x%04X\n", word(0))
	case CmdSetControllerGain:
		if len(content) > 0 {
			result += fmt.Sprintf("  User: %d, P=%.3f I=%.3f D=%.3f\n", content[0],
				float64(dword(1))/GainScale, float64(dword(5))/GainScale, float64(dword(9))/GainScale)
		}
	}

	return result
}
