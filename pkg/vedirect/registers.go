// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Felixrising

package vedirect

// Registers holds the device identity registers reachable over the Hex
// protocol. Only the custom name is writable; writes that exceed the storage
// bound are truncated, never rejected.
type Registers struct {
	serial  string
	name    string
	groupID byte
}

// NewRegisters creates the register file with the given identity values.
func NewRegisters(serial, name string) *Registers {
	r := &Registers{serial: serial}
	r.SetName(name)
	return r
}

// Get returns the current value of a register serialized as raw answer
// bytes, or ok=false for an unmapped address.
func (r *Registers) Get(address uint16) ([]byte, bool) {
	switch address {
	case RegSerialNumber:
		return []byte(r.serial), true
	case RegCustomName:
		return []byte(r.name), true
	case RegGroupID:
		return []byte{r.groupID}, true
	}
	return nil, false
}

// Set writes a register. Only the custom name register is writable; any
// other address reports ok=false.
func (r *Registers) Set(address uint16, value []byte) bool {
	if address != RegCustomName {
		return false
	}
	r.SetName(string(value))
	return true
}

// Name returns the custom device name.
func (r *Registers) Name() string {
	return r.name
}

// SetName stores the custom device name, truncated to MaxNameLength bytes.
func (r *Registers) SetName(name string) {
	if len(name) > MaxNameLength {
		name = name[:MaxNameLength]
	}
	r.name = name
}

// Serial returns the read-only serial number string.
func (r *Registers) Serial() string {
	return r.serial
}
