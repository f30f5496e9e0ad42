// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package kobuki

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Statistics tracks read, frame and anomaly counters.
// All methods are safe for concurrent use, and the record methods are no-ops
// on a nil receiver so a Decoder works without one.
type Statistics struct {
	mu sync.Mutex

	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	Reads               uint64
	ShortReads          uint64
	NoHeaderReads       uint64
	ValidFrames         uint64
	ChecksumErrors      uint64
	RepairedFrames      uint64
	DroppedResidues     uint64
	CarriedResidues     uint64
	UnknownSubrecords   uint64
	MalformedSubrecords uint64
	Anomalies           uint64
	AnomaliesByType     map[AnomalyType]uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:       now,
		LastUpdateTime:  now,
		AnomaliesByType: make(map[AnomalyType]uint64),
	}
}

func (s *Statistics) update(fn func()) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
	s.LastUpdateTime = time.Now()
}

func (s *Statistics) recordRead()           { s.update(func() { s.Reads++ }) }
func (s *Statistics) recordShortRead()      { s.update(func() { s.ShortReads++ }) }
func (s *Statistics) recordNoHeader()       { s.update(func() { s.NoHeaderReads++ }) }
func (s *Statistics) recordChecksumError()  { s.update(func() { s.ChecksumErrors++ }) }
func (s *Statistics) recordRepaired()       { s.update(func() { s.RepairedFrames++ }) }
func (s *Statistics) recordDroppedResidue() { s.update(func() { s.DroppedResidues++ }) }
func (s *Statistics) recordCarried()        { s.update(func() { s.CarriedResidues++ }) }

// recordFrame counts a validated frame and the outcome of parsing it
func (s *Statistics) recordFrame(parseErr error) {
	s.update(func() {
		s.ValidFrames++
		switch {
		case errors.Is(parseErr, ErrUnknownSubrecord):
			s.UnknownSubrecords++
		case errors.Is(parseErr, ErrMalformedSubrecord):
			s.MalformedSubrecords++
		}
	})
}

// RecordAnomalies counts validation errors for one feedback
func (s *Statistics) RecordAnomalies(errs []ValidationError) {
	if len(errs) == 0 {
		return
	}
	s.update(func() {
		if s.AnomaliesByType == nil {
			s.AnomaliesByType = make(map[AnomalyType]uint64)
		}
		for _, e := range errs {
			s.Anomalies++
			s.AnomaliesByType[e.Type]++
		}
	})
}

// errorCount must be called with mu held
func (s *Statistics) errorCount() uint64 {
	return s.ChecksumErrors + s.DroppedResidues + s.UnknownSubrecords + s.MalformedSubrecords
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRates()
}

func (s *Statistics) calculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.ValidFrames) / elapsed
		s.ErrorRate = float64(s.errorCount()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRates()

	frames := s.ValidFrames + s.ChecksumErrors + s.DroppedResidues
	var validPercent, crcPercent float64
	if frames > 0 {
		validPercent = float64(s.ValidFrames) * 100.0 / float64(frames)
		crcPercent = float64(s.ChecksumErrors+s.DroppedResidues) * 100.0 / float64(frames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Reads:           %8d\n", s.Reads)
	if s.ShortReads > 0 {
		result += fmt.Sprintf("  Short Reads:      %5d\n", s.ShortReads)
	}
	if s.NoHeaderReads > 0 {
		result += fmt.Sprintf("  No Header:        %5d\n", s.NoHeaderReads)
	}
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, validPercent)
	if s.RepairedFrames > 0 {
		result += fmt.Sprintf("  Repaired:         %5d\n", s.RepairedFrames)
	}
	if s.ChecksumErrors+s.DroppedResidues > 0 {
		result += fmt.Sprintf("Checksum Errors: %8d (%.1f%%)\n", s.ChecksumErrors+s.DroppedResidues, crcPercent)
	}
	if s.UnknownSubrecords > 0 {
		result += fmt.Sprintf("Unknown Records: %8d\n", s.UnknownSubrecords)
	}
	if s.MalformedSubrecords > 0 {
		result += fmt.Sprintf("Malformed:       %8d\n", s.MalformedSubrecords)
	}
	if s.Anomalies > 0 {
		result += fmt.Sprintf("Anomalies:       %8d\n", s.Anomalies)
		for _, t := range anomalyTypes {
			if n := s.AnomaliesByType[t]; n > 0 {
				result += fmt.Sprintf("  %-16s %5d\n", t.String()+":", n)
			}
		}
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.Reads = 0
	s.ShortReads = 0
	s.NoHeaderReads = 0
	s.ValidFrames = 0
	s.ChecksumErrors = 0
	s.RepairedFrames = 0
	s.DroppedResidues = 0
	s.CarriedResidues = 0
	s.UnknownSubrecords = 0
	s.MalformedSubrecords = 0
	s.Anomalies = 0
	s.AnomaliesByType = make(map[AnomalyType]uint64)
	s.FrameRate = 0
	s.ErrorRate = 0
}

// Snapshot returns a copy of the counters safe to read without locking
func (s *Statistics) Snapshot() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculateRates()
	byType := make(map[AnomalyType]uint64, len(s.AnomaliesByType))
	for k, v := range s.AnomaliesByType {
		byType[k] = v
	}
	return Statistics{
		StartTime:           s.StartTime,
		LastUpdateTime:      s.LastUpdateTime,
		Reads:               s.Reads,
		ShortReads:          s.ShortReads,
		NoHeaderReads:       s.NoHeaderReads,
		ValidFrames:         s.ValidFrames,
		ChecksumErrors:      s.ChecksumErrors,
		RepairedFrames:      s.RepairedFrames,
		DroppedResidues:     s.DroppedResidues,
		CarriedResidues:     s.CarriedResidues,
		UnknownSubrecords:   s.UnknownSubrecords,
		MalformedSubrecords: s.MalformedSubrecords,
		Anomalies:           s.Anomalies,
		AnomaliesByType:     byType,
		FrameRate:           s.FrameRate,
		ErrorRate:           s.ErrorRate,
	}
}
