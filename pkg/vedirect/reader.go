// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Felixrising

package vedirect

import (
	"fmt"
	"time"
)

// Reader states (internal)
const (
	readerWaitHeader = iota
	readerInKey
	readerInValue
	readerInChecksum
	readerInHex
)

// TextRecord is one decoded Text protocol block as seen by a host.
type TextRecord struct {
	Fields    map[string]string
	Labels    []string // wire order, duplicates kept (AR appears twice)
	Valid     bool     // checksum over the whole block summed to 0
	Timestamp time.Time
}

// Get returns the value of the first field with the given label.
func (r *TextRecord) Get(label string) (string, bool) {
	v, ok := r.Fields[label]
	return v, ok
}

// IsHistory reports whether the record is an H1..H18 history block.
func (r *TextRecord) IsHistory() bool {
	_, ok := r.Fields["H1"]
	return ok
}

// HexReply is a decoded Hex protocol response as seen by a host.
type HexReply struct {
	Answer    byte
	Data      []byte // decoded bytes after the answer nibble
	Timestamp time.Time
}

// Flags returns the reply flags byte for register answers
// (answer nibble, address, flags, value...).
func (r *HexReply) Flags() (byte, bool) {
	if len(r.Data) < 3 {
		return 0, false
	}
	return r.Data[2], true
}

// Value returns the register value bytes for register answers.
func (r *HexReply) Value() []byte {
	if len(r.Data) < 3 {
		return nil
	}
	return r.Data[3:]
}

// Reader decodes a VE.Direct stream from the host side: periodic Text
// records and interleaved Hex replies. Like the device-side decoder it is
// fed one byte at a time and never blocks. A Hex frame may interrupt a Text
// block mid-line; the reader suspends the block and resumes it afterwards,
// exactly as the vendor's host software does.
type Reader struct {
	state  int
	resume int

	sum    byte
	key    []byte
	value  []byte
	labels []string
	fields map[string]string

	hexChars []byte
}

// NewReader creates a stream reader.
func NewReader() *Reader {
	return &Reader{
		state:  readerWaitHeader,
		fields: map[string]string{},
	}
}

// Reset discards any partially read block and resynchronizes.
func (r *Reader) Reset() {
	r.state = readerWaitHeader
	r.sum = 0
	r.key = r.key[:0]
	r.value = r.value[:0]
	r.labels = nil
	r.fields = map[string]string{}
	r.hexChars = r.hexChars[:0]
}

// ReadByte processes one inbound byte. At most one of the returns is
// non-nil: a completed Text record, a completed Hex reply, or an error for
// a discarded Hex frame. Text blocks with bad checksums are still returned,
// flagged Valid=false, so monitors can count them.
func (r *Reader) ReadByte(b byte) (*TextRecord, *HexReply, error) {
	if b == HexStart && r.state != readerInChecksum {
		r.resume = r.state
		r.state = readerInHex
		r.hexChars = r.hexChars[:0]
		return nil, nil, nil
	}

	switch r.state {
	case readerInHex:
		if b == FrameEndCR {
			return nil, nil, nil
		}
		if b == FrameEndLF {
			r.state = r.resume
			reply, err := parseHexReply(r.hexChars)
			r.hexChars = r.hexChars[:0]
			return nil, reply, err
		}
		if len(r.hexChars) >= MaxPayloadSize*2 {
			r.state = r.resume
			r.hexChars = r.hexChars[:0]
			return nil, nil, fmt.Errorf("hex reply overflow")
		}
		r.hexChars = append(r.hexChars, b)
		return nil, nil, nil

	case readerWaitHeader:
		r.sum += b
		if b == FrameEndLF {
			r.state = readerInKey
			r.key = r.key[:0]
		}
		return nil, nil, nil

	case readerInKey:
		r.sum += b
		switch b {
		case FieldDelimiter:
			if string(r.key) == "Checksum" {
				r.state = readerInChecksum
			} else {
				r.state = readerInValue
				r.value = r.value[:0]
			}
		case FrameEndCR, FrameEndLF:
			// Malformed line; start over at the next header.
			r.state = readerWaitHeader
		default:
			r.key = append(r.key, b)
		}
		return nil, nil, nil

	case readerInValue:
		r.sum += b
		if b == FrameEndCR {
			r.labels = append(r.labels, string(r.key))
			if _, dup := r.fields[string(r.key)]; !dup {
				r.fields[string(r.key)] = string(r.value)
			}
			r.state = readerWaitHeader
			return nil, nil, nil
		}
		r.value = append(r.value, b)
		return nil, nil, nil

	case readerInChecksum:
		r.sum += b
		record := &TextRecord{
			Fields:    r.fields,
			Labels:    r.labels,
			Valid:     r.sum == 0,
			Timestamp: time.Now(),
		}
		r.sum = 0
		r.labels = nil
		r.fields = map[string]string{}
		r.state = readerWaitHeader
		return record, nil, nil
	}

	r.Reset()
	return nil, nil, fmt.Errorf("invalid reader state")
}

// parseHexReply decodes the ASCII hex characters between ':' and '\n'.
func parseHexReply(chars []byte) (*HexReply, error) {
	if len(chars) == 0 || len(chars)%2 == 0 {
		return nil, fmt.Errorf("hex reply has invalid length %d", len(chars))
	}
	decoded := make([]byte, 0, len(chars)/2+1)
	nibble, ok := hexNibble(chars[0])
	if !ok {
		return nil, fmt.Errorf("invalid answer digit 0x%02X", chars[0])
	}
	decoded = append(decoded, nibble)
	for i := 1; i < len(chars); i += 2 {
		hi, ok1 := hexNibble(chars[i])
		lo, ok2 := hexNibble(chars[i+1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("invalid hex digits %q", chars[i:i+2])
		}
		decoded = append(decoded, hi<<4|lo)
	}
	if !ValidHexSum(decoded) {
		return nil, fmt.Errorf("hex reply checksum mismatch")
	}
	return &HexReply{
		Answer:    decoded[0],
		Data:      decoded[1 : len(decoded)-1],
		Timestamp: time.Now(),
	}, nil
}
