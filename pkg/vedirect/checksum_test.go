// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Felixrising

package vedirect

import "testing"

// ============================================================
// Text checksum
// ============================================================

func TestTextChecksum_SumsToZero(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{name: "empty", frame: ""},
		{name: "single field", frame: "\r\nV\t12800"},
		{name: "full block prefix", frame: "\r\nPID\t0xa389\r\nV\t12800\r\nI\t-1500\r\nChecksum\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := []byte(tt.frame)
			cs := TextChecksum(frame)
			var sum byte
			for _, b := range frame {
				sum += b
			}
			sum += cs
			if sum != 0 {
				t.Errorf("frame plus checksum sums to %d, want 0", sum)
			}
		})
	}
}

// ============================================================
// Hex checksum
// ============================================================

func TestHexChecksum_KnownValues(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected byte
	}{
		{name: "ping command", data: []byte{0x01}, expected: 0x54},
		{name: "app version command", data: []byte{0x03}, expected: 0x52},
		{name: "ping answer", data: []byte{0x05, 0x19, 0x04}, expected: 0x33},
		{name: "get custom name", data: []byte{0x07, 0x0C, 0x01, 0x00}, expected: 0x41},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := HexChecksum(tt.data)
			if cs != tt.expected {
				t.Errorf("HexChecksum = 0x%02X, want 0x%02X", cs, tt.expected)
			}
		})
	}
}

func TestValidHexSum(t *testing.T) {
	data := []byte{0x07, 0x0C, 0x01, 0x00}
	full := append(append([]byte{}, data...), HexChecksum(data))
	if !ValidHexSum(full) {
		t.Error("frame with appended checksum should sum to 0x55")
	}
	full[1]++
	if ValidHexSum(full) {
		t.Error("corrupted frame should not validate")
	}
}
