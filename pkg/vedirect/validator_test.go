// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Felixrising

package vedirect

import "testing"

func record(fields map[string]string, labels []string) *TextRecord {
	return &TextRecord{Fields: fields, Labels: labels, Valid: true}
}

func TestValidateRecord_CleanBlock(t *testing.T) {
	r := parseBlock(t, NewTextBuilder().SmallBlock(testState()))
	if errs := ValidateRecord(r); len(errs) != 0 {
		t.Errorf("clean block reported anomalies: %v", errs)
	}
}

func TestValidateRecord_CleanHistory(t *testing.T) {
	r := parseBlock(t, NewTextBuilder().HistoryBlock(testState()))
	if errs := ValidateRecord(r); len(errs) != 0 {
		t.Errorf("clean history reported anomalies: %v", errs)
	}
}

func TestValidateRecord_Anomalies(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   AnomalyType
	}{
		{
			name:   "missing required field",
			fields: map[string]string{"PID": "0xa389", "V": "12800", "I": "0", "P": "0"},
			want:   AnomalyMissingField,
		},
		{
			name:   "malformed value",
			fields: map[string]string{"PID": "0xa389", "V": "twelve", "I": "0", "P": "0", "SOC": "500"},
			want:   AnomalyMalformedValue,
		},
		{
			name:   "implausible voltage",
			fields: map[string]string{"PID": "0xa389", "V": "99999999", "I": "0", "P": "0", "SOC": "500"},
			want:   AnomalyValueRange,
		},
		{
			name:   "soc out of per mille range",
			fields: map[string]string{"PID": "0xa389", "V": "12800", "I": "0", "P": "0", "SOC": "1500"},
			want:   AnomalyValueRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateRecord(record(tt.fields, nil))
			found := false
			for _, e := range errs {
				if e.Type == tt.want {
					found = true
				}
			}
			if !found {
				t.Errorf("expected anomaly type %d in %v", tt.want, errs)
			}
		})
	}
}

func TestStatistics_Counts(t *testing.T) {
	s := NewStatistics()

	clean := parseBlock(t, NewTextBuilder().SmallBlock(testState()))
	s.UpdateRecord(clean, ValidateRecord(clean))

	dirty := record(map[string]string{"PID": "0xa389"}, nil)
	dirty.Valid = false
	s.UpdateRecord(dirty, ValidateRecord(dirty))

	s.UpdateHex(nil)

	if s.TotalRecords != 2 {
		t.Errorf("TotalRecords = %d, want 2", s.TotalRecords)
	}
	if s.ValidRecords != 1 {
		t.Errorf("ValidRecords = %d, want 1", s.ValidRecords)
	}
	if s.ChecksumErrors != 1 {
		t.Errorf("ChecksumErrors = %d, want 1", s.ChecksumErrors)
	}
	if s.HexReplies != 1 {
		t.Errorf("HexReplies = %d, want 1", s.HexReplies)
	}
}
