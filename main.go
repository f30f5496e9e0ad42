// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Turtlelink - Kobuki base link and diagnostics
//
// A CLI tool for driving a Kobuki (TurtleBot 2) base and decoding its
// feedback stream in human-readable format.

package main

import (
	"os"

	"github.com/Thermoquad/turtlelink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
