// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Felixrising

package vedirect

import "fmt"

// EncodeFrame encodes decoded Hex frame bytes to wire format. data[0] is the
// command or answer nibble and is emitted as a single hex digit; every other
// byte becomes two hex digits. The checksum is appended so the decoded total
// equals 0x55 modulo 256, followed by the '\n' terminator.
func EncodeFrame(data []byte) []byte {
	out := make([]byte, 0, len(data)*2+4)
	out = append(out, HexStart)
	out = appendHexNibble(out, data[0])
	for _, b := range data[1:] {
		out = appendHexByte(out, b)
	}
	out = appendHexByte(out, HexChecksum(data))
	out = append(out, FrameEndLF)
	return out
}

// Request builders create wire-ready Hex frames for the host side of the
// protocol. They are convenience wrappers around EncodeFrame that ensure
// correct field layout and byte order.

// NewPingRequest creates a PING request (0x1).
func NewPingRequest() []byte {
	return EncodeFrame([]byte{byte(CmdPing)})
}

// NewAppVersionRequest creates an APP_VERSION request (0x3).
func NewAppVersionRequest() []byte {
	return EncodeFrame([]byte{byte(CmdAppVersion)})
}

// NewProductIDRequest creates a PRODUCT_ID request (0x4).
func NewProductIDRequest() []byte {
	return EncodeFrame([]byte{byte(CmdProductID)})
}

// NewGetRequest creates a GET request (0x7) for the given register address.
func NewGetRequest(address uint16) []byte {
	return EncodeFrame([]byte{byte(CmdGet), byte(address), byte(address >> 8), FlagOK})
}

// NewSetRequest creates a SET request (0x8) writing value to the given
// register address.
func NewSetRequest(address uint16, value []byte) []byte {
	data := make([]byte, 0, 4+len(value))
	data = append(data, byte(CmdSet), byte(address), byte(address>>8), FlagOK)
	data = append(data, value...)
	return EncodeFrame(data)
}

func appendHexNibble(dst []byte, b byte) []byte {
	return fmt.Appendf(dst, "%X", b&0x0F)
}

func appendHexByte(dst []byte, b byte) []byte {
	return fmt.Appendf(dst, "%02X", b)
}
