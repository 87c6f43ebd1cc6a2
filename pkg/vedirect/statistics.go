// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Felixrising

package vedirect

import (
	"fmt"
	"time"
)

// Statistics tracks stream health for the analyzer commands.
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalRecords     uint64
	ValidRecords     uint64
	ChecksumErrors   uint64
	MalformedRecords uint64
	AnomalousValues  uint64
	HexReplies       uint64
	HexErrors        uint64

	// Rates (calculated)
	RecordRate float64 // records/sec
	ErrorRate  float64 // errors/sec
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// UpdateRecord folds one received Text record and its validation result in.
func (s *Statistics) UpdateRecord(record *TextRecord, validationErrors []ValidationError) {
	s.TotalRecords++
	s.LastUpdateTime = time.Now()

	if len(validationErrors) == 0 {
		s.ValidRecords++
		return
	}
	for _, err := range validationErrors {
		switch err.Type {
		case AnomalyChecksumError:
			s.ChecksumErrors++
		case AnomalyMissingField, AnomalyMalformedValue:
			s.MalformedRecords++
		case AnomalyValueRange:
			s.AnomalousValues++
		}
	}
}

// UpdateHex folds one Hex reply (or decode failure) in.
func (s *Statistics) UpdateHex(err error) {
	s.LastUpdateTime = time.Now()
	if err != nil {
		s.HexErrors++
		return
	}
	s.HexReplies++
}

// CalculateRates recalculates the record and error rates.
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.RecordRate = float64(s.TotalRecords) / elapsed
		errorCount := s.ChecksumErrors + s.MalformedRecords + s.AnomalousValues + s.HexErrors
		s.ErrorRate = float64(errorCount) / elapsed
	}
}

// String returns a formatted statistics summary.
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent float64
	if s.TotalRecords > 0 {
		validPercent = float64(s.ValidRecords) * 100.0 / float64(s.TotalRecords)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Text Records:    %8d\n", s.TotalRecords)
	result += fmt.Sprintf("Valid Records:   %8d (%.1f%%)\n", s.ValidRecords, validPercent)
	if s.ChecksumErrors > 0 {
		result += fmt.Sprintf("Checksum Errors: %8d\n", s.ChecksumErrors)
	}
	if s.MalformedRecords > 0 {
		result += fmt.Sprintf("Malformed:       %8d\n", s.MalformedRecords)
	}
	if s.AnomalousValues > 0 {
		result += fmt.Sprintf("Anomalous Values:%8d\n", s.AnomalousValues)
	}
	if s.HexReplies > 0 || s.HexErrors > 0 {
		result += fmt.Sprintf("Hex Replies:     %8d (%d errors)\n", s.HexReplies, s.HexErrors)
	}
	result += fmt.Sprintf("Record Rate:     %8.1f records/sec\n", s.RecordRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all counters.
func (s *Statistics) Reset() {
	now := time.Now()
	*s = Statistics{StartTime: now, LastUpdateTime: now}
}
