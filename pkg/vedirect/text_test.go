// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Felixrising

package vedirect

import (
	"math"
	"reflect"
	"testing"
)

// parseBlock runs one generated frame through the host-side reader.
func parseBlock(t *testing.T, frame []byte) *TextRecord {
	t.Helper()
	r := NewReader()
	for _, b := range frame {
		record, _, err := r.ReadByte(b)
		if err != nil {
			t.Fatalf("reader error: %v", err)
		}
		if record != nil {
			return record
		}
	}
	t.Fatal("no complete record in frame")
	return nil
}

// ============================================================
// Small block
// ============================================================

func TestSmallBlock_FieldOrder(t *testing.T) {
	b := NewTextBuilder()
	record := parseBlock(t, b.SmallBlock(testState()))

	want := []string{"PID", "V", "I", "P", "CE", "SOC", "TTG", "Alarm", "Relay", "AR", "AR", "BMV", "FW", "MON"}
	if !reflect.DeepEqual(record.Labels, want) {
		t.Errorf("field order = %v, want %v", record.Labels, want)
	}
}

func TestSmallBlock_ChecksumSumsToZero(t *testing.T) {
	b := NewTextBuilder()
	frame := b.SmallBlock(testState())

	var sum byte
	for _, c := range frame {
		sum += c
	}
	if sum != 0 {
		t.Errorf("frame bytes sum to %d, want 0", sum)
	}
}

func TestSmallBlock_Values(t *testing.T) {
	tests := []struct {
		name  string
		state TelemetryState
		label string
		want  string
	}{
		{
			name:  "voltage rounds to nearest not truncates",
			state: TelemetryState{Voltage: 12.346, SOCPercent: math.NaN()},
			label: "V",
			want:  "12346",
		},
		{
			name:  "voltage rounds up",
			state: TelemetryState{Voltage: 12.3456, SOCPercent: math.NaN()},
			label: "V",
			want:  "12346",
		},
		{
			name:  "negative current in mA",
			state: TelemetryState{Current: -1.4996, SOCPercent: math.NaN()},
			label: "I",
			want:  "-1500",
		},
		{
			name:  "consumed charge from energy and voltage",
			state: TelemetryState{Voltage: 12.0, EnergyWh: 120, SOCPercent: math.NaN()},
			label: "CE",
			want:  "10000",
		},
		{
			name:  "consumed charge zero below voltage threshold",
			state: TelemetryState{Voltage: 0.05, EnergyWh: 120, SOCPercent: math.NaN()},
			label: "CE",
			want:  "0",
		},
		{
			name:  "soc per mille",
			state: TelemetryState{SOCPercent: 84.2},
			label: "SOC",
			want:  "842",
		},
		{
			name:  "soc fallback full when connected",
			state: TelemetryState{Connected: true, SOCPercent: math.NaN()},
			label: "SOC",
			want:  "1000",
		},
		{
			name:  "soc fallback empty when disconnected",
			state: TelemetryState{Connected: false, SOCPercent: math.NaN()},
			label: "SOC",
			want:  "0",
		},
		{
			name:  "time to go unknown sentinel",
			state: testState(),
			label: "TTG",
			want:  "-1",
		},
		{
			name:  "product id in hex",
			state: testState(),
			label: "PID",
			want:  "0xa389",
		},
		{
			name:  "firmware id in hex",
			state: testState(),
			label: "FW",
			want:  "419",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := parseBlock(t, NewTextBuilder().SmallBlock(tt.state))
			got, ok := record.Get(tt.label)
			if !ok {
				t.Fatalf("field %s missing", tt.label)
			}
			if got != tt.want {
				t.Errorf("%s = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

// ============================================================
// History block
// ============================================================

func TestHistoryBlock_Fields(t *testing.T) {
	st := testState()
	st.ChargedAh = 123.4
	st.DischargedAh = 98.76
	st.EnergyWh = 2500.4
	st.MinVoltage = 11.712
	st.MaxVoltage = 14.4
	st.SecondsSinceFull = 3600

	record := parseBlock(t, NewTextBuilder().HistoryBlock(st))

	if !record.IsHistory() {
		t.Fatal("record should classify as history")
	}
	if len(record.Labels) != 18 {
		t.Fatalf("history has %d fields, want 18", len(record.Labels))
	}

	want := map[string]string{
		"H1":  "0",
		"H7":  "1234", // 0.1 Ah units
		"H8":  "988",
		"H9":  "2500",
		"H10": "11712",
		"H11": "14400",
		"H12": "3600",
		"H18": "0",
	}
	for label, value := range want {
		if got, _ := record.Get(label); got != value {
			t.Errorf("%s = %q, want %q", label, got, value)
		}
	}
}

func TestHistoryBlock_UnknownSentinels(t *testing.T) {
	record := parseBlock(t, NewTextBuilder().HistoryBlock(testState()))

	// NaN min/max voltage must not leak onto the wire.
	if got, _ := record.Get("H10"); got != "0" {
		t.Errorf("H10 = %q, want 0 for unknown minimum", got)
	}
	if got, _ := record.Get("H11"); got != "0" {
		t.Errorf("H11 = %q, want 0 for unknown maximum", got)
	}
	if got, _ := record.Get("H12"); got != "-1" {
		t.Errorf("H12 = %q, want -1 for never fully charged", got)
	}
}

func TestHistoryBlock_ChecksumSumsToZero(t *testing.T) {
	frame := NewTextBuilder().HistoryBlock(testState())
	var sum byte
	for _, c := range frame {
		sum += c
	}
	if sum != 0 {
		t.Errorf("frame bytes sum to %d, want 0", sum)
	}
}
