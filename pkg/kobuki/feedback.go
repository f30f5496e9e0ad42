// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package kobuki

import "fmt"

// Feedback is the decoded form of one inbound frame. Each sub-record slot is
// non-nil only when that sub-record was present in the frame.
type Feedback struct {
	EpochMs int64 `cbor:"0,keyasint"`

	BasicSensor         *BasicSensor         `cbor:"1,keyasint,omitempty"`
	DockingIR           *DockingIR           `cbor:"3,keyasint,omitempty"`
	InertialSensor      *InertialSensor      `cbor:"4,keyasint,omitempty"`
	Cliff               *Cliff               `cbor:"5,keyasint,omitempty"`
	Current             *Current             `cbor:"6,keyasint,omitempty"`
	HardwareVersion     *HardwareVersion     `cbor:"10,keyasint,omitempty"`
	FirmwareVersion     *FirmwareVersion     `cbor:"11,keyasint,omitempty"`
	Gyro                *Gyro                `cbor:"13,keyasint,omitempty"`
	GeneralPurposeInput *GeneralPurposeInput `cbor:"16,keyasint,omitempty"`
	UniqueDeviceID      *UniqueDeviceID      `cbor:"19,keyasint,omitempty"`
	ControllerInfo      *ControllerInfo      `cbor:"21,keyasint,omitempty"`
}

// BasicSensor is the core sensor block streamed at 50 Hz
type BasicSensor struct {
	Timestamp    uint16
	Bumper       uint8
	WheelDrop    uint8
	Cliff        uint8
	LeftEncoder  uint16
	RightEncoder uint16
	LeftPWM      uint8
	RightPWM     uint8
	Button       uint8
	Charger      uint8
	Battery      uint8
	Overcurrent  uint8
}

// BatteryVolts converts the battery reading (0.1 V units)
func (b *BasicSensor) BatteryVolts() float64 {
	return float64(b.Battery) * 0.1
}

// DockingIR carries the docking station IR signals
type DockingIR struct {
	Right   uint8
	Central uint8
	Left    uint8
}

// InertialSensor carries the factory-calibrated heading
type InertialSensor struct {
	Angle     uint16
	AngleRate uint16
}

// Degrees returns the heading in degrees (signed hundredths on the wire)
func (s *InertialSensor) Degrees() float64 {
	return float64(int16(s.Angle)) / 100.0
}

// RateDegreesPerSecond returns the angular rate in deg/s
func (s *InertialSensor) RateDegreesPerSecond() float64 {
	return float64(int16(s.AngleRate)) / 100.0
}

// Cliff carries the raw cliff sensor ADC values
type Cliff struct {
	Right   uint16
	Central uint16
	Left    uint16
}

// Current carries motor currents in 10 mA units
type Current struct {
	LeftMotor  uint8
	RightMotor uint8
}

// LeftMilliamps returns the left motor current in mA
func (c *Current) LeftMilliamps() int {
	return int(c.LeftMotor) * 10
}

// RightMilliamps returns the right motor current in mA
func (c *Current) RightMilliamps() int {
	return int(c.RightMotor) * 10
}

// Version is a semantic version triple
type Version struct {
	Patch uint8
	Minor uint8
	Major uint8
}

// String returns "major.minor.patch"
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// HardwareVersion is sent in reply to RequestExtra
type HardwareVersion struct {
	Version
}

// FirmwareVersion is sent in reply to RequestExtra
type FirmwareVersion struct {
	Version
}

// GyroSample is one raw 3-axis gyro reading
type GyroSample struct {
	X uint16
	Y uint16
	Z uint16
}

// Gyro carries two or three raw gyro samples, depending on sub-record size
type Gyro struct {
	FrameID     uint8
	SampleCount uint8
	Samples     []GyroSample
}

// GyroDigitToDPS converts raw gyro digits to deg/s
const GyroDigitToDPS = 0.00875

// GeneralPurposeInput carries the expansion port inputs
type GeneralPurposeInput struct {
	Digital uint16
	Analog  [4]uint16
}

// UniqueDeviceID is sent in reply to RequestExtra
type UniqueDeviceID struct {
	UDID0 uint32
	UDID1 uint32
	UDID2 uint32
}

// String returns the identifier as three dash-separated hex words
func (u *UniqueDeviceID) String() string {
	return fmt.Sprintf("%08X-%08X-%08X", u.UDID0, u.UDID1, u.UDID2)
}

// ControllerInfo carries the wheel velocity PID gains (scaled by GainScale)
type ControllerInfo struct {
	UserConfigured uint8
	P              uint32
	I              uint32
	D              uint32
}

// Gains returns P, I and D in controller units
func (c *ControllerInfo) Gains() (p, i, d float64) {
	return float64(c.P) / GainScale, float64(c.I) / GainScale, float64(c.D) / GainScale
}

// Has reports whether the sub-record with the given id is present
func (f *Feedback) Has(id SubrecordID) bool {
	switch id {
	case IDBasicSensor:
		return f.BasicSensor != nil
	case IDDockingIR:
		return f.DockingIR != nil
	case IDInertialSensor:
		return f.InertialSensor != nil
	case IDCliff:
		return f.Cliff != nil
	case IDCurrent:
		return f.Current != nil
	case IDHardwareVersion:
		return f.HardwareVersion != nil
	case IDFirmwareVersion:
		return f.FirmwareVersion != nil
	case IDGyro:
		return f.Gyro != nil
	case IDGeneralPurposeInput:
		return f.GeneralPurposeInput != nil
	case IDUniqueDeviceID:
		return f.UniqueDeviceID != nil
	case IDControllerInfo:
		return f.ControllerInfo != nil
	}
	return false
}

// Present returns the ids of all present sub-records in id order
func (f *Feedback) Present() []SubrecordID {
	ids := make([]SubrecordID, 0, len(SubrecordIDs))
	for _, id := range SubrecordIDs {
		if f.Has(id) {
			ids = append(ids, id)
		}
	}
	return ids
}
