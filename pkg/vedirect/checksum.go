// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Felixrising

package vedirect

// TextChecksum computes the checksum byte for a Text protocol frame.
// The byte is chosen so that the sum of every frame byte, including the
// checksum itself, is 0 modulo 256.
func TextChecksum(frame []byte) byte {
	var sum byte
	for _, b := range frame {
		sum += b
	}
	return 0 - sum
}

// HexChecksum computes the trailing checksum byte for decoded Hex frame
// bytes so that the total, including the checksum, equals 0x55 modulo 256.
func HexChecksum(data []byte) byte {
	sum := byte(HexChecksumMagic)
	for _, b := range data {
		sum -= b
	}
	return sum
}

// ValidHexSum reports whether a complete decoded Hex frame, checksum byte
// included, sums to 0x55 modulo 256.
func ValidHexSum(data []byte) bool {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum == HexChecksumMagic
}
