// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Felixrising

package vedirect

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCommand returns the human-readable name for a Hex command nibble.
func FormatCommand(c Command) string {
	switch c {
	case CmdPing:
		return "PING"
	case CmdAppVersion:
		return "APP_VERSION"
	case CmdProductID:
		return "PRODUCT_ID"
	case CmdRestart:
		return "RESTART"
	case CmdGet:
		return "GET"
	case CmdSet:
		return "SET"
	case CmdAsync:
		return "ASYNC"
	default:
		return fmt.Sprintf("UNKNOWN(0x%X)", byte(c))
	}
}

// FormatAnswer returns the human-readable name for a Hex answer code.
func FormatAnswer(a byte) string {
	switch a {
	case AnswerDone:
		return "DONE"
	case AnswerUnknown:
		return "UNKNOWN"
	case AnswerPing:
		return "PING"
	case AnswerGet:
		return "GET"
	case AnswerSet:
		return "SET"
	default:
		return fmt.Sprintf("ANSWER(0x%X)", a)
	}
}

// FormatRegister returns the name of a register address.
func FormatRegister(address uint16) string {
	switch address {
	case RegGroupID:
		return "GROUP_ID"
	case RegSerialNumber:
		return "SERIAL_NUMBER"
	case RegCustomName:
		return "CUSTOM_NAME"
	default:
		return fmt.Sprintf("REG_0x%04X", address)
	}
}

// FormatHexReply formats a decoded Hex reply into a one-line summary.
func FormatHexReply(r *HexReply) string {
	timestamp := r.Timestamp.Format("15:04:05.000")
	out := fmt.Sprintf("[%s] HEX %s", timestamp, FormatAnswer(r.Answer))
	if len(r.Data) >= 3 {
		address := uint16(r.Data[0]) | uint16(r.Data[1])<<8
		out += fmt.Sprintf(" %s flags=0x%02X", FormatRegister(address), r.Data[2])
		if value := r.Value(); len(value) > 0 {
			out += fmt.Sprintf(" value=%q", value)
		}
	} else if len(r.Data) > 0 {
		out += fmt.Sprintf(" data=% X", r.Data)
	}
	return out + "\n"
}

// textFieldInfo maps Text labels to descriptions and display units.
var textFieldInfo = map[string]struct {
	desc string
	unit string
}{
	"PID":   {"Product id", ""},
	"V":     {"Battery voltage", "mV"},
	"I":     {"Battery current", "mA"},
	"P":     {"Instantaneous power", "W"},
	"CE":    {"Consumed charge", "mAh"},
	"SOC":   {"State of charge", "‰"},
	"TTG":   {"Time to go", "min"},
	"Alarm": {"Alarm state", ""},
	"Relay": {"Relay state", ""},
	"AR":    {"Alarm reason", ""},
	"BMV":   {"Model", ""},
	"FW":    {"Firmware version", ""},
	"MON":   {"Monitor mode", ""},
}

// FormatRecord formats a Text record into an aligned multi-line summary.
func FormatRecord(r *TextRecord) string {
	timestamp := r.Timestamp.Format("15:04:05.000")
	kind := "TEXT"
	if r.IsHistory() {
		kind = "HISTORY"
	}
	status := "ok"
	if !r.Valid {
		status = "CHECKSUM ERROR"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s block, %d fields (%s)\n", timestamp, kind, len(r.Labels), status)
	for _, label := range r.Labels {
		value := r.Fields[label]
		if info, ok := textFieldInfo[label]; ok {
			fmt.Fprintf(&sb, "  %-6s %-20s %s%s\n", label, info.desc, value, info.unit)
		} else {
			fmt.Fprintf(&sb, "  %-6s %s\n", label, value)
		}
	}
	return sb.String()
}

// FormatRecordLine formats a small block as a compact single line, for
// scrolling logs.
func FormatRecordLine(r *TextRecord) string {
	get := func(label string) string {
		if v, ok := r.Fields[label]; ok {
			return v
		}
		return "?"
	}
	if r.IsHistory() {
		return fmt.Sprintf("H7=%s H8=%s H9=%s H10=%s H11=%s H12=%s",
			get("H7"), get("H8"), get("H9"), get("H10"), get("H11"), get("H12"))
	}
	return fmt.Sprintf("V=%smV I=%smA P=%sW CE=%smAh SOC=%s‰",
		get("V"), get("I"), get("P"), get("CE"), get("SOC"))
}

// ParseMilli converts a text field in milli-units to the base unit.
func ParseMilli(value string) (float64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return float64(n) / 1000, nil
}
