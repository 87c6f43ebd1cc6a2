// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Felixrising

package vedirect

import "time"

// HexFrame represents a decoded, checksum-valid Hex protocol request.
type HexFrame struct {
	command   Command
	address   uint16
	flags     byte
	payload   []byte
	timestamp time.Time
}

// NewHexFrame creates a frame with the given fields.
func NewHexFrame(command Command, address uint16, flags byte, payload []byte) *HexFrame {
	return &HexFrame{
		command:   command,
		address:   address,
		flags:     flags,
		payload:   payload,
		timestamp: time.Now(),
	}
}

// Command returns the frame's command nibble.
func (f *HexFrame) Command() Command {
	return f.command
}

// Address returns the 16-bit register address (little-endian on the wire).
// Only GET and SET frames carry one.
func (f *HexFrame) Address() uint16 {
	return f.address
}

// Flags returns the frame's flags byte.
func (f *HexFrame) Flags() byte {
	return f.flags
}

// Payload returns the decoded payload bytes (SET frames only).
func (f *HexFrame) Payload() []byte {
	return f.payload
}

// Timestamp returns the frame's decode timestamp.
func (f *HexFrame) Timestamp() time.Time {
	return f.timestamp
}
