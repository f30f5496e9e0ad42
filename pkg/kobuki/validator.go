// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package kobuki

import "fmt"

// AnomalyType represents different types of feedback anomalies
type AnomalyType int

const (
	AnomalyBumper AnomalyType = iota
	AnomalyWheelDrop
	AnomalyCliff
	AnomalyOvercurrent
	AnomalyLowBattery
	AnomalyGyroLength
	AnomalyStaleTimestamp
)

var anomalyTypes = []AnomalyType{
	AnomalyBumper,
	AnomalyWheelDrop,
	AnomalyCliff,
	AnomalyOvercurrent,
	AnomalyLowBattery,
	AnomalyGyroLength,
	AnomalyStaleTimestamp,
}

// String returns a short name for the anomaly type
func (a AnomalyType) String() string {
	switch a {
	case AnomalyBumper:
		return "Bumper"
	case AnomalyWheelDrop:
		return "Wheel Drop"
	case AnomalyCliff:
		return "Cliff"
	case AnomalyOvercurrent:
		return "Overcurrent"
	case AnomalyLowBattery:
		return "Low Battery"
	case AnomalyGyroLength:
		return "Gyro Length"
	case AnomalyStaleTimestamp:
		return "Stale Timestamp"
	default:
		return "Unknown"
	}
}

// LowBatteryVolts is the warning threshold for the 4S battery pack
const LowBatteryVolts = 13.2

// ValidationError represents a feedback anomaly
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateFeedback detects anomalies in a decoded feedback
// Returns a slice of validation errors (empty if nothing is wrong)
func ValidateFeedback(f *Feedback) []ValidationError {
	errors := []ValidationError{}

	if f.BasicSensor != nil {
		errors = append(errors, validateBasicSensor(f.BasicSensor)...)
	}
	if f.Gyro != nil {
		errors = append(errors, validateGyro(f.Gyro)...)
	}

	return errors
}

// ValidateSequence compares consecutive BasicSensor timestamps and flags a
// frame that repeats its predecessor's timestamp
func ValidateSequence(prev, next *Feedback) []ValidationError {
	if prev == nil || next == nil || prev.BasicSensor == nil || next.BasicSensor == nil {
		return nil
	}
	if prev.BasicSensor.Timestamp != next.BasicSensor.Timestamp {
		return nil
	}
	return []ValidationError{{
		Type:    AnomalyStaleTimestamp,
		Message: fmt.Sprintf("Repeated sensor timestamp %d ms", next.BasicSensor.Timestamp),
		Details: map[string]interface{}{"timestamp": next.BasicSensor.Timestamp},
	}}
}

// validateBasicSensor checks safety flags and battery level
func validateBasicSensor(b *BasicSensor) []ValidationError {
	errors := []ValidationError{}

	if b.Bumper != 0 {
		errors = append(errors, ValidationError{
			Type:    AnomalyBumper,
			Message: fmt.Sprintf("Bumper pressed (%s)", formatBits(b.Bumper, bumperNames)),
			Details: map[string]interface{}{"bumper": b.Bumper},
		})
	}

	if b.WheelDrop != 0 {
		errors = append(errors, ValidationError{
			Type:    AnomalyWheelDrop,
			Message: fmt.Sprintf("Wheel dropped (%s)", formatBits(b.WheelDrop, wheelDropNames)),
			Details: map[string]interface{}{"wheel_drop": b.WheelDrop},
		})
	}

	if b.Cliff != 0 {
		errors = append(errors, ValidationError{
			Type:    AnomalyCliff,
			Message: fmt.Sprintf("Cliff detected (%s)", formatBits(b.Cliff, cliffNames)),
			Details: map[string]interface{}{"cliff": b.Cliff},
		})
	}

	if b.Overcurrent != 0 {
		errors = append(errors, ValidationError{
			Type:    AnomalyOvercurrent,
			Message: fmt.Sprintf("Motor overcurrent (%s)", formatBits(b.Overcurrent, overcurrentNames)),
			Details: map[string]interface{}{"overcurrent": b.Overcurrent},
		})
	}

	// Docked and charging packs read high, only warn while discharging
	if b.Charger == ChargerDischarging && b.BatteryVolts() < LowBatteryVolts {
		errors = append(errors, ValidationError{
			Type:    AnomalyLowBattery,
			Message: fmt.Sprintf("Low battery (%.1fV, warn below %.1fV)", b.BatteryVolts(), LowBatteryVolts),
			Details: map[string]interface{}{"volts": b.BatteryVolts(), "min": LowBatteryVolts},
		})
	}

	return errors
}

// validateGyro checks the declared data length against the decoded arity.
// The device reports three values per sample.
func validateGyro(g *Gyro) []ValidationError {
	if int(g.SampleCount) == 3*len(g.Samples) {
		return nil
	}
	return []ValidationError{{
		Type:    AnomalyGyroLength,
		Message: fmt.Sprintf("Gyro data length %d does not match %d samples", g.SampleCount, len(g.Samples)),
		Details: map[string]interface{}{"length": g.SampleCount, "samples": len(g.Samples)},
	}}
}
