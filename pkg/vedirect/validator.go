// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Felixrising

package vedirect

import (
	"fmt"
	"strconv"
)

// AnomalyType classifies Text record validation failures.
type AnomalyType int

const (
	AnomalyChecksumError AnomalyType = iota
	AnomalyMissingField
	AnomalyMalformedValue
	AnomalyValueRange
)

// ValidationError describes one anomaly found in a received record.
type ValidationError struct {
	Type    AnomalyType
	Message string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return v.Message
}

// Plausibility bounds for a shunt on a 12/24/48 V system. Values outside
// these ranges indicate line corruption that slipped past the checksum or a
// misbehaving sender, not a real battery.
const (
	maxPlausibleVoltagemV = 70000
	maxPlausibleCurrentmA = 600000 // 500 A shunt + margin
)

// ValidateRecord checks a received Text record for anomalies.
// Returns an empty slice for a clean record.
func ValidateRecord(r *TextRecord) []ValidationError {
	errors := []ValidationError{}

	if !r.Valid {
		errors = append(errors, ValidationError{
			Type:    AnomalyChecksumError,
			Message: "block checksum does not sum to zero",
		})
	}
	if r.IsHistory() {
		return append(errors, validateHistory(r)...)
	}
	return append(errors, validateSmallBlock(r)...)
}

func validateSmallBlock(r *TextRecord) []ValidationError {
	errors := []ValidationError{}

	for _, label := range []string{"PID", "V", "I", "P", "SOC"} {
		if _, ok := r.Fields[label]; !ok {
			errors = append(errors, ValidationError{
				Type:    AnomalyMissingField,
				Message: fmt.Sprintf("required field %s missing", label),
			})
		}
	}

	if v, ok := intField(r, "V", &errors); ok {
		if v < 0 || v > maxPlausibleVoltagemV {
			errors = append(errors, ValidationError{
				Type:    AnomalyValueRange,
				Message: fmt.Sprintf("implausible voltage %d mV", v),
			})
		}
	}
	if i, ok := intField(r, "I", &errors); ok {
		if i < -maxPlausibleCurrentmA || i > maxPlausibleCurrentmA {
			errors = append(errors, ValidationError{
				Type:    AnomalyValueRange,
				Message: fmt.Sprintf("implausible current %d mA", i),
			})
		}
	}
	if soc, ok := intField(r, "SOC", &errors); ok {
		if soc < 0 || soc > 1000 {
			errors = append(errors, ValidationError{
				Type:    AnomalyValueRange,
				Message: fmt.Sprintf("SOC %d out of 0..1000 per-mille", soc),
			})
		}
	}
	return errors
}

func validateHistory(r *TextRecord) []ValidationError {
	errors := []ValidationError{}
	for i := 1; i <= 18; i++ {
		label := "H" + strconv.Itoa(i)
		if _, ok := r.Fields[label]; !ok {
			errors = append(errors, ValidationError{
				Type:    AnomalyMissingField,
				Message: fmt.Sprintf("history field %s missing", label),
			})
			continue
		}
		intField(r, label, &errors)
	}
	return errors
}

// intField parses an integer field, recording a malformed-value anomaly on
// parse failure.
func intField(r *TextRecord, label string, errors *[]ValidationError) (int64, bool) {
	value, ok := r.Fields[label]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		*errors = append(*errors, ValidationError{
			Type:    AnomalyMalformedValue,
			Message: fmt.Sprintf("field %s is not an integer: %q", label, value),
		})
		return 0, false
	}
	return n, true
}
