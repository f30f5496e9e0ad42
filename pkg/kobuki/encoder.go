// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package kobuki

import "fmt"

// EncodeFrame wraps a payload in preamble, length byte and checksum.
// Returns the frame bytes ready for transmission.
func EncodeFrame(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("payload too large: %d bytes (max %d)", len(payload), MaxPayloadSize)
	}

	frame := make([]byte, 0, len(payload)+FrameOverhead)
	frame = append(frame, Preamble0, Preamble1, uint8(len(payload)))
	frame = append(frame, payload...)

	// Checksum covers the length byte through the last payload byte
	frame = append(frame, Checksum(frame[2:]))

	return frame, nil
}

// MustEncodeFrame is like EncodeFrame but panics on error
func MustEncodeFrame(payload []byte) []byte {
	frame, err := EncodeFrame(payload)
	if err != nil {
		panic(fmt.Sprintf("kobuki: encode error: %v", err))
	}
	return frame
}

// encodeCommand builds the frame for one command: id, size, content
func encodeCommand(id CommandID, content []byte) []byte {
	payload := make([]byte, 0, len(content)+2)
	payload = append(payload, uint8(id), uint8(len(content)))
	payload = append(payload, content...)
	return MustEncodeFrame(payload)
}

// SplitCommand validates an outbound frame and returns its command id and
// content bytes
func SplitCommand(frame []byte) (CommandID, []byte, error) {
	if !CheckCRC(frame) {
		return 0, nil, fmt.Errorf("%w: checksum or length mismatch", ErrInvalidFrame)
	}
	payload := frame[HeaderSize : len(frame)-1]
	if len(payload) < 2 {
		return 0, nil, fmt.Errorf("%w: payload too short for a command", ErrInvalidFrame)
	}
	size := int(payload[1])
	if 2+size != len(payload) {
		return 0, nil, fmt.Errorf("%w: command size %d does not fill payload of %d", ErrInvalidFrame, size, len(payload))
	}
	return CommandID(payload[0]), payload[2:], nil
}
