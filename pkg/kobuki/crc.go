// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package kobuki

// Checksum computes the XOR accumulator over data
func Checksum(data []byte) byte {
	var acc byte
	for _, b := range data {
		acc ^= b
	}
	return acc
}

// CheckCRC reports whether packet is a complete frame whose checksum matches.
// The checksum covers the length byte through the last payload byte.
func CheckCRC(packet []byte) bool {
	if len(packet) < HeaderSize {
		return false
	}
	if len(packet) != int(packet[2])+FrameOverhead {
		return false
	}
	last := len(packet) - 1
	return Checksum(packet[2:last]) == packet[last]
}
