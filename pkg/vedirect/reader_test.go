// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Felixrising

package vedirect

import (
	"strings"
	"testing"
)

// ============================================================
// Text records
// ============================================================

func TestReader_SmallBlockRoundTrip(t *testing.T) {
	frame := NewTextBuilder().SmallBlock(testState())
	record := parseBlock(t, frame)

	if !record.Valid {
		t.Error("generated block should validate")
	}
	if got, _ := record.Get("V"); got != "12800" {
		t.Errorf("V = %q, want 12800", got)
	}
	if got, _ := record.Get("BMV"); got != DefaultModelTag {
		t.Errorf("BMV = %q, want %q", got, DefaultModelTag)
	}
}

func TestReader_DetectsCorruptChecksum(t *testing.T) {
	frame := NewTextBuilder().SmallBlock(testState())
	frame[10] ^= 0x01

	record := parseBlock(t, frame)
	if record.Valid {
		t.Error("corrupted block must be flagged invalid")
	}
	errs := ValidateRecord(record)
	if len(errs) == 0 || errs[0].Type != AnomalyChecksumError {
		t.Errorf("expected a checksum anomaly, got %v", errs)
	}
}

func TestReader_ConsecutiveBlocks(t *testing.T) {
	b := NewTextBuilder()
	stream := append(b.SmallBlock(testState()), b.HistoryBlock(testState())...)

	r := NewReader()
	var records []*TextRecord
	for _, c := range stream {
		record, _, err := r.ReadByte(c)
		if err != nil {
			t.Fatalf("reader error: %v", err)
		}
		if record != nil {
			records = append(records, record)
		}
	}

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].IsHistory() || !records[1].IsHistory() {
		t.Error("expected a small block followed by a history block")
	}
	for i, record := range records {
		if !record.Valid {
			t.Errorf("record %d failed checksum", i)
		}
	}
}

// ============================================================
// Hex replies
// ============================================================

func TestReader_HexReply(t *testing.T) {
	reply := decodeReply(t, ":5190433\n")
	if reply.Answer != AnswerPing {
		t.Errorf("answer = 0x%X, want ANSWER_PING", reply.Answer)
	}
	if len(reply.Data) != 2 || reply.Data[0] != 0x19 || reply.Data[1] != 0x04 {
		t.Errorf("data = % X, want 19 04", reply.Data)
	}
}

func TestReader_HexInterruptsTextBlock(t *testing.T) {
	frame := NewTextBuilder().SmallBlock(testState())

	// Splice a hex reply into the middle of the text block; the reader must
	// surface the reply and still deliver the surrounding block intact.
	cut := 20
	stream := string(frame[:cut]) + ":5190433\n" + string(frame[cut:])

	r := NewReader()
	var records []*TextRecord
	var replies []*HexReply
	for i := 0; i < len(stream); i++ {
		record, reply, err := r.ReadByte(stream[i])
		if err != nil {
			t.Fatalf("reader error: %v", err)
		}
		if record != nil {
			records = append(records, record)
		}
		if reply != nil {
			replies = append(replies, reply)
		}
	}

	if len(replies) != 1 || replies[0].Answer != AnswerPing {
		t.Fatalf("expected one ping reply, got %v", replies)
	}
	if len(records) != 1 || !records[0].Valid {
		t.Fatalf("text block should survive the interruption, got %v", records)
	}
}

func TestReader_BadHexReply(t *testing.T) {
	r := NewReader()
	var gotErr error
	for _, c := range []byte(":51904FF\n") {
		_, _, err := r.ReadByte(c)
		if err != nil {
			gotErr = err
		}
	}
	if gotErr == nil || !strings.Contains(gotErr.Error(), "checksum") {
		t.Errorf("expected checksum error, got %v", gotErr)
	}
}

// ============================================================
// Registers
// ============================================================

func TestRegisters_TruncatesLongName(t *testing.T) {
	r := NewRegisters(DefaultSerialNumber, DefaultDeviceName)
	long := strings.Repeat("n", MaxNameLength+20)
	r.SetName(long)
	if len(r.Name()) != MaxNameLength {
		t.Errorf("name length = %d, want %d", len(r.Name()), MaxNameLength)
	}
	if r.Name() != long[:MaxNameLength] {
		t.Error("truncation should keep the leading bytes")
	}
}

func TestRegisters_GetUnmapped(t *testing.T) {
	r := NewRegisters(DefaultSerialNumber, DefaultDeviceName)
	if _, ok := r.Get(0x0200); ok {
		t.Error("unmapped register should not resolve")
	}
}
