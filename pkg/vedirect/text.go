// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Felixrising

package vedirect

import (
	"math"
	"strconv"
)

// TextBuilder renders Text protocol frames for a device identity. Frames are
// returned as complete wire bytes including the trailing raw checksum byte.
type TextBuilder struct {
	ProductID   uint16
	AppID       uint16
	ModelTag    string
	MonitorType string
}

// NewTextBuilder creates a builder with the SmartShunt identity defaults.
func NewTextBuilder() *TextBuilder {
	return &TextBuilder{
		ProductID:   DefaultProductID,
		AppID:       DefaultAppID,
		ModelTag:    DefaultModelTag,
		MonitorType: DefaultMonitorType,
	}
}

// SmallBlock renders the periodic telemetry frame. Field order is fixed;
// hosts key on the labels but some reject reordered blocks.
func (b *TextBuilder) SmallBlock(st TelemetryState) []byte {
	frame := make([]byte, 0, 192)
	frame = appendField(frame, "PID", "0x"+strconv.FormatUint(uint64(b.ProductID), 16))
	frame = appendIntField(frame, "V", roundTo(st.Voltage, 1000)) // mV
	frame = appendIntField(frame, "I", roundTo(st.Current, 1000)) // mA
	frame = appendIntField(frame, "P", roundTo(st.Power, 1))      // W
	frame = appendIntField(frame, "CE", st.ConsumedmAh())         // mAh
	frame = appendIntField(frame, "SOC", st.SOCPermille())        // per-mille
	frame = appendIntField(frame, "TTG", -1)                      // minutes, unknown
	frame = appendField(frame, "Alarm", "OFF")
	frame = appendField(frame, "Relay", "OFF")
	frame = appendField(frame, "AR", "0")
	frame = appendField(frame, "AR", "0")
	frame = appendField(frame, "BMV", b.ModelTag)
	frame = appendField(frame, "FW", strconv.FormatUint(uint64(b.AppID), 16))
	frame = appendField(frame, "MON", b.MonitorType)
	return appendChecksumField(frame)
}

// HistoryBlock renders the H1..H18 history frame. Untracked fields are 0;
// H12 keeps the -1 "never fully charged" sentinel.
func (b *TextBuilder) HistoryBlock(st TelemetryState) []byte {
	h := [18]int{}
	h[6] = roundTo(st.ChargedAh, 10)    // H7, 0.1 Ah units
	h[7] = roundTo(st.DischargedAh, 10) // H8, 0.1 Ah units
	h[8] = roundTo(st.EnergyWh, 1)      // H9, Wh
	if !math.IsNaN(st.MinVoltage) {
		h[9] = roundTo(st.MinVoltage, 1000) // H10, mV
	}
	if !math.IsNaN(st.MaxVoltage) {
		h[10] = roundTo(st.MaxVoltage, 1000) // H11, mV
	}
	if st.SecondsSinceFull < 0 {
		h[11] = -1
	} else {
		h[11] = int(st.SecondsSinceFull)
	}

	frame := make([]byte, 0, 192)
	for i, v := range h {
		frame = appendIntField(frame, "H"+strconv.Itoa(i+1), v)
	}
	return appendChecksumField(frame)
}

// roundTo scales a physical value into the frame's integer unit, rounding to
// nearest rather than truncating to avoid systematic bias. NaN renders as 0.
func roundTo(v float64, scale float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(v * scale))
}

func appendField(frame []byte, label, value string) []byte {
	frame = append(frame, FrameEndCR, FrameEndLF)
	frame = append(frame, label...)
	frame = append(frame, FieldDelimiter)
	return append(frame, value...)
}

func appendIntField(frame []byte, label string, value int) []byte {
	return appendField(frame, label, strconv.Itoa(value))
}

// appendChecksumField terminates a frame with the Checksum field. The
// checksum is a single raw byte, not hex-encoded, computed over everything
// before it including the label.
func appendChecksumField(frame []byte) []byte {
	frame = appendField(frame, "Checksum", "")
	return append(frame, TextChecksum(frame))
}
