// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Felixrising

// Package vedirect implements the Victron VE.Direct serial protocol as spoken
// by a SmartShunt-class battery monitor.
//
// The protocol multiplexes two sub-protocols on one half-duplex UART: the
// Text protocol (unsolicited periodic key/value frames) and the Hex protocol
// (request/response register access, ASCII-hex encoded). This package provides
// the device-side engine (decoder, command dispatch, text frame generation,
// pacing) and the host-side stream reader used by the analyzer commands.
package vedirect

import "time"

// Protocol framing
const (
	HexStart       = ':'
	FrameEndLF     = '\n'
	FrameEndCR     = '\r'
	FieldDelimiter = '\t'
)

// Payload size limit for a single Hex frame (decoded bytes)
const MaxPayloadSize = 64

// Bound on the custom device name register (register 0x010C)
const MaxNameLength = 63

// Hex checksum: the sum of all decoded frame bytes, including the trailing
// checksum byte, equals this value modulo 256.
const HexChecksumMagic = 0x55

// Command is a Hex protocol command nibble (host to device).
type Command byte

// Hex commands
const (
	CmdPing       Command = 0x1
	CmdAppVersion Command = 0x3
	CmdProductID  Command = 0x4
	CmdRestart    Command = 0x6
	CmdGet        Command = 0x7
	CmdSet        Command = 0x8
	CmdAsync      Command = 0xA
)

// Hex answer codes (device to host)
const (
	AnswerDone    = 0x1
	AnswerUnknown = 0x3
	AnswerPing    = 0x5
	AnswerGet     = 0x7
	AnswerSet     = 0x8
)

// Hex reply flags
const (
	FlagOK             = 0x00
	FlagUnknownID      = 0x01
	FlagNotSupported   = 0x02
	FlagParameterError = 0x04
)

// Register addresses (subset implemented by a SmartShunt)
const (
	RegGroupID      = 0x0104 // read-only, one byte, always 0
	RegSerialNumber = 0x010A // read-only, ASCII
	RegCustomName   = 0x010C // read/write, ASCII, bounded
)

// Device identity defaults (SmartShunt 500A)
const (
	DefaultProductID    = 0xA389
	DefaultAppID        = 0x0419
	DefaultDeviceName   = "CYD Smart Shunt"
	DefaultSerialNumber = "C4D12A7B"
	DefaultModelTag     = "CYDSHNT"
	DefaultMonitorType  = "3" // MON field: generic DC monitor
)

// Pacing
const (
	DefaultTextInterval = 1000 * time.Millisecond
	DefaultHistoryEvery = 10 // history block every Nth text interval
	DefaultHexTimeout   = 900 * time.Millisecond
)

// Decoder states (internal)
const (
	stateIdle = iota
	stateCommand
	stateRegister
	stateFlags
	stateData
	stateChecksum
	stateComplete
)
