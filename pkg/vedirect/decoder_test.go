// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Felixrising

package vedirect

import (
	"bytes"
	"testing"
	"time"
)

// feed runs a string of wire bytes through the decoder at a fixed time,
// collecting completed frames and errors.
func feed(t *testing.T, d *Decoder, input string, now time.Time) ([]*HexFrame, []error) {
	t.Helper()
	var frames []*HexFrame
	var errs []error
	for i := 0; i < len(input); i++ {
		frame, err := d.DecodeByte(input[i], now)
		if err != nil {
			errs = append(errs, err)
		}
		if frame != nil {
			frames = append(frames, frame)
		}
	}
	return frames, errs
}

// ============================================================
// Complete frames
// ============================================================

func TestDecodeByte_CompleteFrames(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		command Command
		address uint16
		payload []byte
	}{
		{name: "ping", input: ":154\n", command: CmdPing},
		{name: "app version", input: ":352\n", command: CmdAppVersion},
		{name: "product id", input: ":451\n", command: CmdProductID},
		{name: "get custom name", input: ":70C010041\n", command: CmdGet, address: RegCustomName},
		{name: "get lowercase hex", input: ":70c010041\n", command: CmdGet, address: RegCustomName},
		{name: "set custom name", input: ":80C0100466F6F1C\n", command: CmdSet, address: RegCustomName, payload: []byte("Foo")},
		{name: "crlf terminator", input: ":154\r\n", command: CmdPing},
		{name: "unrecognized command", input: ":253\n", command: Command(0x2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder()
			frames, errs := feed(t, d, tt.input, time.Now())
			if len(errs) != 0 {
				t.Fatalf("unexpected errors: %v", errs)
			}
			if len(frames) != 1 {
				t.Fatalf("got %d frames, want 1", len(frames))
			}
			f := frames[0]
			if f.Command() != tt.command {
				t.Errorf("command = 0x%X, want 0x%X", byte(f.Command()), byte(tt.command))
			}
			if f.Address() != tt.address {
				t.Errorf("address = 0x%04X, want 0x%04X", f.Address(), tt.address)
			}
			if !bytes.Equal(f.Payload(), tt.payload) {
				t.Errorf("payload = %q, want %q", f.Payload(), tt.payload)
			}
			if !d.Idle() {
				t.Error("decoder should be idle after a complete frame")
			}
		})
	}
}

// ============================================================
// Framing errors
// ============================================================

func TestDecodeByte_FramingErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "checksum mismatch short command", input: ":155\n"},
		{name: "checksum mismatch set", input: ":80C0100466F6FFF\n"},
		{name: "bad hex digit in command", input: ":Z54\n"},
		{name: "bad hex digit in address", input: ":7ZC010041\n"},
		{name: "terminator mid frame", input: ":70C\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder()
			frames, errs := feed(t, d, tt.input, time.Now())
			if len(frames) != 0 {
				t.Fatalf("got %d frames, want 0", len(frames))
			}
			if len(errs) == 0 {
				t.Fatal("expected a decode error")
			}
			if !d.Idle() {
				t.Error("decoder should reset to idle after a framing error")
			}
		})
	}
}

func TestDecodeByte_PayloadOverflow(t *testing.T) {
	d := NewDecoder()
	now := time.Now()

	// SET frame whose payload never ends.
	feed(t, d, ":80C0100", now)
	var gotErr error
	for i := 0; i <= MaxPayloadSize; i++ {
		for _, c := range []byte("41") {
			if _, err := d.DecodeByte(c, now); err != nil {
				gotErr = err
			}
		}
	}
	if gotErr == nil {
		t.Fatal("expected overflow error")
	}
	if !d.Idle() {
		t.Error("decoder should reset to idle after overflow")
	}
}

// ============================================================
// Recovery
// ============================================================

func TestDecodeByte_TimeoutRecovery(t *testing.T) {
	d := NewDecoder()
	start := time.Now()

	// Valid ping prefix, then silence past the timeout.
	feed(t, d, ":1", start)

	later := start.Add(DefaultHexTimeout + 100*time.Millisecond)
	frames, errs := feed(t, d, ":154\n", later)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(frames) != 1 || frames[0].Command() != CmdPing {
		t.Fatalf("stale partial frame corrupted the retry: frames=%v", frames)
	}
}

func TestDecodeByte_TimeoutDiscardsPartialFrame(t *testing.T) {
	d := NewDecoder()
	start := time.Now()

	feed(t, d, ":1", start)

	// The continuation arrives too late; its bytes land in idle and the
	// would-have-been ping must not complete.
	later := start.Add(DefaultHexTimeout + 100*time.Millisecond)
	frames, _ := feed(t, d, "54\n", later)
	if len(frames) != 0 {
		t.Fatalf("timed-out frame completed anyway: %v", frames)
	}
}

func TestDecodeByte_ColonRestartsFrame(t *testing.T) {
	d := NewDecoder()
	now := time.Now()

	// Truncated GET immediately followed by a fresh ping.
	frames, errs := feed(t, d, ":70C:154\n", now)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(frames) != 1 || frames[0].Command() != CmdPing {
		t.Fatalf("got frames %v, want exactly one ping", frames)
	}
}

func TestDecodeByte_AsyncDropped(t *testing.T) {
	d := NewDecoder()
	frames, errs := feed(t, d, ":A4B\n:154\n", time.Now())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(frames) != 1 || frames[0].Command() != CmdPing {
		t.Fatalf("async frame should be dropped silently, got %v", frames)
	}
}

func TestDecodeByte_IgnoresTextBytesWhileIdle(t *testing.T) {
	d := NewDecoder()
	frames, errs := feed(t, d, "\r\nV\t12800\r\nChecksum\tx:154\n", time.Now())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(frames) != 1 || frames[0].Command() != CmdPing {
		t.Fatalf("got %v, want one ping", frames)
	}
}

// ============================================================
// Round trip with the encoder
// ============================================================

func TestDecodeByte_EncoderRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		wire []byte
		want Command
	}{
		{name: "ping", wire: NewPingRequest(), want: CmdPing},
		{name: "app version", wire: NewAppVersionRequest(), want: CmdAppVersion},
		{name: "product id", wire: NewProductIDRequest(), want: CmdProductID},
		{name: "get", wire: NewGetRequest(RegSerialNumber), want: CmdGet},
		{name: "set", wire: NewSetRequest(RegCustomName, []byte("Bank 1")), want: CmdSet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder()
			frames, errs := feed(t, d, string(tt.wire), time.Now())
			if len(errs) != 0 {
				t.Fatalf("unexpected errors: %v", errs)
			}
			if len(frames) != 1 {
				t.Fatalf("got %d frames, want 1", len(frames))
			}
			if frames[0].Command() != tt.want {
				t.Errorf("command = 0x%X, want 0x%X", byte(frames[0].Command()), byte(tt.want))
			}
		})
	}
}

func TestEncodeFrame_SumsTo0x55(t *testing.T) {
	wire := EncodeFrame([]byte{byte(CmdGet), 0x0C, 0x01, 0x00})

	if wire[0] != ':' || wire[len(wire)-1] != '\n' {
		t.Fatalf("bad envelope: %q", wire)
	}
	chars := wire[1 : len(wire)-1]
	var sum byte
	n, ok := hexNibble(chars[0])
	if !ok {
		t.Fatalf("bad command digit %q", chars[0])
	}
	sum += n
	for i := 1; i < len(chars); i += 2 {
		hi, _ := hexNibble(chars[i])
		lo, _ := hexNibble(chars[i+1])
		sum += hi<<4 | lo
	}
	if sum != HexChecksumMagic {
		t.Errorf("decoded frame sums to 0x%02X, want 0x55", sum)
	}
}
