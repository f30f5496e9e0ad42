// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// KobukiSerialMarker is the substring every Kobuki USB serial number carries
const KobukiSerialMarker = "kobuki"

// ErrNoPorts is returned when the system reports no serial ports at all
var ErrNoPorts = errors.New("no serial ports found (check dialout group membership)")

// Device describes a serial port that looks like a Kobuki base
type Device struct {
	Name         string
	SerialNumber string
	VID          string
	PID          string
	Product      string
}

// detailedPorts is a variable so tests can replace the enumerator
var detailedPorts = enumerator.GetDetailedPortsList

// ListDeviceDetails returns every USB serial port whose serial number
// contains KobukiSerialMarker
func ListDeviceDetails() ([]Device, error) {
	ports, err := detailedPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	if len(ports) == 0 {
		return nil, ErrNoPorts
	}

	var devices []Device
	for _, p := range ports {
		if !p.IsUSB || !strings.Contains(p.SerialNumber, KobukiSerialMarker) {
			continue
		}
		devices = append(devices, Device{
			Name:         p.Name,
			SerialNumber: p.SerialNumber,
			VID:          p.VID,
			PID:          p.PID,
			Product:      p.Product,
		})
	}
	return devices, nil
}

// ListDevices returns the port names of every attached Kobuki base
func ListDevices() ([]string, error) {
	devices, err := ListDeviceDetails()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(devices))
	for _, d := range devices {
		names = append(names, d.Name)
	}
	return names, nil
}
