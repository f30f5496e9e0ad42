// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package kobuki

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Command builder functions return complete, checksummed frames ready to be
// written to the port. Multi-byte fields are little-endian.

// NewBaseControl creates a BASE_CONTROL frame (0x01).
// Speed is in mm/s and radius in mm; both are sent as raw 16-bit words, so
// negative values are passed as their two's complement.
// Radius 0 drives straight, speed 0 stops.
func NewBaseControl(speed, radius uint16) []byte {
	content := make([]byte, 0, CmdSizeBaseControl)
	content = binary.LittleEndian.AppendUint16(content, speed)
	content = binary.LittleEndian.AppendUint16(content, radius)
	return encodeCommand(CmdBaseControl, content)
}

// NewSound creates a SOUND frame (0x03) with period 1/(freq*amp) computed in
// integer arithmetic. This matches the deployed host software bit for bit,
// and the period collapses to zero unless freq and amp are both 1.
// Use NewSoundNote to play an audible frequency.
func NewSound(freq, amp uint16, durationMs uint8) ([]byte, error) {
	if freq == 0 || amp == 0 || durationMs == 0 {
		return nil, fmt.Errorf("%w: sound freq=%d amp=%d duration=%d must be non-zero", ErrInvalidArgument, freq, amp, durationMs)
	}
	period := uint32(1) / (uint32(freq) * uint32(amp))
	return soundFrame(uint16(period), durationMs), nil
}

// SoundAmplitude is the note scaling constant from the device manual
const SoundAmplitude = 0.00000275

// NewSoundNote creates a SOUND frame (0x03) playing freqHz for durationMs,
// using period = 1/(freqHz * SoundAmplitude) as the device manual specifies.
func NewSoundNote(freqHz float64, durationMs uint8) ([]byte, error) {
	if !(freqHz > 0) || math.IsInf(freqHz, 0) || durationMs == 0 {
		return nil, fmt.Errorf("%w: note %.1f Hz for %d ms", ErrInvalidArgument, freqHz, durationMs)
	}
	period := math.Round(1 / (freqHz * SoundAmplitude))
	switch {
	case period < 1:
		period = 1
	case period > math.MaxUint16:
		period = math.MaxUint16
	}
	return soundFrame(uint16(period), durationMs), nil
}

func soundFrame(period uint16, durationMs uint8) []byte {
	content := make([]byte, 0, CmdSizeSound)
	content = binary.LittleEndian.AppendUint16(content, period)
	content = append(content, durationMs)
	return encodeCommand(CmdSound, content)
}

// NewSoundSequence creates a SOUND_SEQUENCE frame (0x04) for one of the
// built-in sequences.
func NewSoundSequence(seq SoundSequence) ([]byte, error) {
	if seq > SequenceCleaningEnd {
		return nil, fmt.Errorf("%w: sound sequence %d (max %d)", ErrInvalidArgument, seq, SequenceCleaningEnd)
	}
	return encodeCommand(CmdSoundSequence, []byte{uint8(seq)}), nil
}

// NewRequestExtra creates a REQUEST_EXTRA frame (0x09).
// The device answers once with the requested version and identifier records.
func NewRequestExtra(hw, fw, udid bool) []byte {
	var flags uint16
	if hw {
		flags |= ExtraHardwareVersion
	}
	if fw {
		flags |= ExtraFirmwareVersion
	}
	if udid {
		flags |= ExtraUniqueDeviceID
	}
	return encodeCommand(CmdRequestExtra, binary.LittleEndian.AppendUint16(nil, flags))
}

// GPO describes the expansion port outputs, power rails and LEDs
type GPO struct {
	DigitalOut [4]bool

	Power3V3    bool
	Power5V     bool
	Power12V5A  bool
	Power12V1A5 bool

	LED1Red   bool
	LED1Green bool
	LED2Red   bool
	LED2Green bool
}

// Flags packs the outputs into the 16-bit wire word
func (g GPO) Flags() uint16 {
	bits := []bool{
		g.DigitalOut[0], g.DigitalOut[1], g.DigitalOut[2], g.DigitalOut[3],
		g.Power3V3, g.Power5V, g.Power12V5A, g.Power12V1A5,
		g.LED1Red, g.LED1Green, g.LED2Red, g.LED2Green,
	}
	var flags uint16
	for i, on := range bits {
		if on {
			flags |= 1 << i
		}
	}
	return flags
}

// GPOFromFlags unpacks a 16-bit wire word
func GPOFromFlags(flags uint16) GPO {
	bit := func(i int) bool { return flags&(1<<i) != 0 }
	return GPO{
		DigitalOut:  [4]bool{bit(0), bit(1), bit(2), bit(3)},
		Power3V3:    bit(4),
		Power5V:     bit(5),
		Power12V5A:  bit(6),
		Power12V1A5: bit(7),
		LED1Red:     bit(8),
		LED1Green:   bit(9),
		LED2Red:     bit(10),
		LED2Green:   bit(11),
	}
}

// NewGeneralPurposeOutput creates a GENERAL_PURPOSE_OUTPUT frame (0x0C)
func NewGeneralPurposeOutput(g GPO) []byte {
	return encodeCommand(CmdGeneralPurposeOutput, binary.LittleEndian.AppendUint16(nil, g.Flags()))
}

// NewSetControllerGain creates a SET_CONTROLLER_GAIN frame (0x0D).
// Gains are sent scaled by GainScale. A zero p or d selects the factory
// value (1 and 2); i is clamped to [MinIntegralGain, MaxIntegralGain].
func NewSetControllerGain(userConfigured bool, p uint32, i float64, d uint32) ([]byte, error) {
	if p == 0 {
		p = DefaultPGain
	}
	if d == 0 {
		d = DefaultDGain
	}
	const maxGain = math.MaxUint32 / GainScale
	if p > maxGain || d > maxGain {
		return nil, fmt.Errorf("%w: gain p=%d d=%d exceeds %d", ErrInvalidArgument, p, d, maxGain)
	}

	if math.IsNaN(i) || i < MinIntegralGain {
		i = MinIntegralGain
	}
	if i > MaxIntegralGain {
		i = MaxIntegralGain
	}

	var flag uint8
	if userConfigured {
		flag = 1
	}

	content := make([]byte, 0, CmdSizeSetControllerGain)
	content = append(content, flag)
	content = binary.LittleEndian.AppendUint32(content, p*GainScale)
	content = binary.LittleEndian.AppendUint32(content, uint32(math.Round(i*GainScale)))
	content = binary.LittleEndian.AppendUint32(content, d*GainScale)
	return encodeCommand(CmdSetControllerGain, content), nil
}

// NewGetControllerGain creates a GET_CONTROLLER_GAIN frame (0x0E).
// The device answers with a ControllerInfo record.
func NewGetControllerGain() []byte {
	return encodeCommand(CmdGetControllerGain, []byte{getControllerGainPoll})
}
