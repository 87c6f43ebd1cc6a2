// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Felixrising

package vedirect

import (
	"fmt"
	"time"
)

// Decoder implements the Hex protocol receive state machine.
//
// It consumes one byte per call and never blocks: the caller feeds bytes as
// the transport makes them available and the decoder retains its partial
// frame between calls. Two ASCII hex characters form one decoded byte; a raw
// '\n' or '\r' is recognized verbatim as a terminator. Any framing error
// (bad hex digit, checksum mismatch, payload overflow) silently discards the
// partial frame, and a ':' in any state restarts a fresh frame. A partial
// frame is also abandoned when more than Timeout passes between bytes.
type Decoder struct {
	Timeout time.Duration

	state    int
	lastByte time.Time

	half     int16 // pending high nibble, -1 when none
	sum      byte
	command  Command
	address  uint16
	addrLow  byte
	addrSeen int
	flags    byte
	payload  []byte
}

// NewDecoder creates a decoder with the default silence timeout.
func NewDecoder() *Decoder {
	return &Decoder{
		Timeout: DefaultHexTimeout,
		state:   stateIdle,
		half:    -1,
	}
}

// Reset discards any partial frame and returns the decoder to idle.
func (d *Decoder) Reset() {
	d.state = stateIdle
	d.half = -1
	d.sum = 0
	d.command = 0
	d.address = 0
	d.addrLow = 0
	d.addrSeen = 0
	d.flags = 0
	d.payload = nil
}

// Idle reports whether the decoder is between frames.
func (d *Decoder) Idle() bool {
	return d.state == stateIdle
}

// DecodeByte processes one inbound byte at the given time.
// It returns a completed, checksum-valid frame, or nil while the frame is
// incomplete. Errors describe discarded frames; the decoder has already
// reset itself and the caller owes the host no reply for them.
func (d *Decoder) DecodeByte(b byte, now time.Time) (*HexFrame, error) {
	// Silence timeout: a stalled partial frame never corrupts the next one.
	if d.state != stateIdle && now.Sub(d.lastByte) > d.Timeout {
		d.Reset()
	}
	d.lastByte = now

	// ':' restarts a fresh frame from any state; the envelope has no other
	// resynchronization point.
	if b == HexStart {
		d.Reset()
		d.state = stateCommand
		return nil, nil
	}

	switch d.state {
	case stateIdle:
		// Text protocol bytes and line noise pass through here.
		return nil, nil

	case stateCommand:
		nibble, ok := hexNibble(b)
		if !ok {
			d.Reset()
			return nil, fmt.Errorf("invalid command digit 0x%02X", b)
		}
		d.command = Command(nibble)
		d.sum += nibble
		switch d.command {
		case CmdGet, CmdSet:
			d.state = stateRegister
		case CmdAsync:
			// Device-to-host marker; receiving one is a protocol violation
			// and the frame is dropped without a reply.
			d.Reset()
		default:
			// PING, APP_VERSION, PRODUCT_ID, RESTART and every unrecognized
			// command carry only the checksum. Unrecognized ids still reach
			// dispatch so the host gets an UNKNOWN answer instead of silence.
			d.state = stateChecksum
		}
		return nil, nil

	case stateRegister, stateFlags, stateData, stateChecksum:
		return d.decodeHexByte(b)

	case stateComplete:
		switch b {
		case FrameEndCR:
			return nil, nil
		case FrameEndLF:
			frame := NewHexFrame(d.command, d.address, d.flags, d.payload)
			d.Reset()
			return frame, nil
		default:
			d.Reset()
			return nil, fmt.Errorf("unexpected byte 0x%02X after checksum", b)
		}

	default:
		d.Reset()
		return nil, fmt.Errorf("invalid state: %d", d.state)
	}
}

// decodeHexByte pairs ASCII hex characters into decoded bytes for the states
// that consume whole bytes, and handles the raw terminator bytes.
func (d *Decoder) decodeHexByte(b byte) (*HexFrame, error) {
	if b == FrameEndLF || b == FrameEndCR {
		if d.state == stateData && d.half < 0 {
			return d.endData(b)
		}
		d.Reset()
		if b == FrameEndCR {
			return nil, nil
		}
		return nil, fmt.Errorf("frame truncated in state %d", d.state)
	}

	nibble, ok := hexNibble(b)
	if !ok {
		d.Reset()
		return nil, fmt.Errorf("invalid hex digit 0x%02X", b)
	}
	if d.half < 0 {
		d.half = int16(nibble)
		return nil, nil
	}
	value := byte(d.half)<<4 | nibble
	d.half = -1

	switch d.state {
	case stateRegister:
		d.sum += value
		// Address is little-endian on the wire: low byte first.
		if d.addrSeen == 0 {
			d.addrLow = value
			d.addrSeen = 1
		} else {
			d.address = uint16(value)<<8 | uint16(d.addrLow)
			d.addrSeen = 2
			d.state = stateFlags
		}
		return nil, nil

	case stateFlags:
		d.flags = value
		d.sum += value
		if d.command == CmdGet {
			d.state = stateChecksum
		} else {
			d.payload = make([]byte, 0, 16)
			d.state = stateData
		}
		return nil, nil

	case stateData:
		d.sum += value
		if len(d.payload) >= MaxPayloadSize {
			d.Reset()
			return nil, fmt.Errorf("payload overflow: exceeds %d bytes", MaxPayloadSize)
		}
		d.payload = append(d.payload, value)
		return nil, nil

	case stateChecksum:
		d.sum += value
		if d.sum != HexChecksumMagic {
			err := fmt.Errorf("checksum mismatch: frame sums to 0x%02X, want 0x%02X", d.sum, HexChecksumMagic)
			d.Reset()
			return nil, err
		}
		d.state = stateComplete
		return nil, nil
	}

	d.Reset()
	return nil, fmt.Errorf("invalid state: %d", d.state)
}

// endData terminates a SET frame. The last decoded payload byte is the
// checksum; the running sum already includes it.
func (d *Decoder) endData(b byte) (*HexFrame, error) {
	if b == FrameEndCR {
		return nil, nil
	}
	if len(d.payload) == 0 {
		d.Reset()
		return nil, fmt.Errorf("frame truncated: no checksum byte")
	}
	if d.sum != HexChecksumMagic {
		err := fmt.Errorf("checksum mismatch: frame sums to 0x%02X, want 0x%02X", d.sum, HexChecksumMagic)
		d.Reset()
		return nil, err
	}
	payload := d.payload[:len(d.payload)-1]
	frame := NewHexFrame(d.command, d.address, d.flags, payload)
	d.Reset()
	return frame, nil
}

// hexNibble decodes one ASCII hex character, upper or lower case.
func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
