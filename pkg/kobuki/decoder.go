// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package kobuki

import (
	"errors"
	"fmt"
	"time"
)

// Decoder turns successive serial reads into Feedback records. It carries the
// trailing unvalidated fragment of each read (the residue) into the next call.
type Decoder struct {
	residue []byte
	stats   *Statistics
	now     func() time.Time
}

// NewDecoder creates a new protocol decoder
func NewDecoder() *Decoder {
	return &Decoder{now: time.Now}
}

// SetStatistics attaches a statistics tracker updated on every read
func (d *Decoder) SetStatistics(s *Statistics) {
	d.stats = s
}

// Statistics returns the attached statistics tracker, or nil
func (d *Decoder) Statistics() *Statistics {
	return d.stats
}

// SetClock overrides the clock used to stamp feedbacks
func (d *Decoder) SetClock(now func() time.Time) {
	d.now = now
}

// Residue returns a copy of the fragment carried into the next read
func (d *Decoder) Residue() []byte {
	return append([]byte(nil), d.residue...)
}

// Reset drops any carried residue
func (d *Decoder) Reset() {
	d.residue = nil
}

// Feed decodes one read and updates the carried residue.
// ErrInsufficientData leaves the residue untouched; ErrNoHeader replaces it
// with the whole read.
func (d *Decoder) Feed(input []byte) ([]*Feedback, error) {
	feedbacks, residue, err := d.decode(input, d.residue)
	if errors.Is(err, ErrInsufficientData) {
		return nil, err
	}
	d.residue = residue
	return feedbacks, err
}

// Decode splits one read into frames, validates them and parses their
// payloads. residue is the fragment returned by the previous call on the
// same stream.
//
// A read shorter than MinReadSize fails with ErrInsufficientData and the
// residue is returned unchanged. A read without any preamble fails with
// ErrNoHeader and becomes the new residue. Otherwise, bytes before the first
// preamble are joined to the old residue to repair a frame split across
// reads; the old residue is consumed either way. Each preamble then starts a
// segment, and the last segment that fails its checksum becomes the new
// residue unless a later segment validates.
func Decode(input, residue []byte) ([]*Feedback, []byte, error) {
	d := Decoder{now: time.Now}
	return d.decode(input, residue)
}

func (d *Decoder) decode(input, residue []byte) ([]*Feedback, []byte, error) {
	d.stats.recordRead()

	if len(input) < MinReadSize {
		d.stats.recordShortRead()
		return nil, residue, fmt.Errorf("%w: %d bytes (need %d)", ErrInsufficientData, len(input), MinReadSize)
	}

	headers := searchHeaders(input)
	if len(headers) == 0 {
		d.stats.recordNoHeader()
		return nil, clone(input), ErrNoHeader
	}

	var feedbacks []*Feedback

	if headers[0] > 0 && len(residue) > 0 {
		merged := make([]byte, 0, len(residue)+headers[0])
		merged = append(merged, residue...)
		merged = append(merged, input[:headers[0]]...)
		if CheckCRC(merged) {
			d.stats.recordRepaired()
			feedbacks = append(feedbacks, d.parse(merged))
		} else {
			d.stats.recordDroppedResidue()
		}
	}

	var newResidue []byte
	for k, start := range headers {
		end := len(input)
		if k+1 < len(headers) {
			end = headers[k+1]
		}
		segment := input[start:end]

		if CheckCRC(segment) {
			feedbacks = append(feedbacks, d.parse(segment))
			newResidue = nil
			continue
		}

		if k+1 < len(headers) {
			d.stats.recordChecksumError()
		}
		newResidue = clone(segment)
	}
	if newResidue != nil {
		d.stats.recordCarried()
	}

	return feedbacks, newResidue, nil
}

// parse parses a validated frame, counting sub-record errors
func (d *Decoder) parse(frame []byte) *Feedback {
	now := time.Now
	if d.now != nil {
		now = d.now
	}
	f, err := parsePayload(frame, now().UnixMilli())
	d.stats.recordFrame(err)
	return f
}

// searchHeaders returns the offsets of every 0xAA 0x55 preamble in buf
func searchHeaders(buf []byte) []int {
	var headers []int
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == Preamble0 && buf[i+1] == Preamble1 {
			headers = append(headers, i)
		}
	}
	return headers
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
