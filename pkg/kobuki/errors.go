// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package kobuki

import "errors"

var (
	// ErrInsufficientData is returned when a read is shorter than MinReadSize
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNoHeader is returned when a read contains no preamble
	ErrNoHeader = errors.New("no frame header")

	// ErrUnknownSubrecord stops a payload scan at an id this package does not know
	ErrUnknownSubrecord = errors.New("unknown sub-record")

	// ErrMalformedSubrecord stops a payload scan at a sub-record whose size
	// does not fit its id or the remaining payload
	ErrMalformedSubrecord = errors.New("malformed sub-record")

	// ErrInvalidArgument is returned by command builders for out-of-domain input
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidFrame is returned when a byte slice is not a well-formed frame
	ErrInvalidFrame = errors.New("invalid frame")
)
