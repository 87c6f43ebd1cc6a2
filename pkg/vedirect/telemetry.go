// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Felixrising

package vedirect

import "math"

// TelemetryState is the measurement snapshot the caller supplies on every
// pump. The engine never mutates it. Optional fields use NaN (floats) or -1
// (SecondsSinceFull) to mean "unknown"; unknown values are rendered as the
// documented wire sentinels, never as garbage numbers.
type TelemetryState struct {
	Voltage      float64 // V
	Current      float64 // A
	Power        float64 // W
	EnergyWh     float64 // accumulated, non-decreasing unless externally reset
	TemperatureC float64
	Connected    bool

	// Optional
	SOCPercent float64 // state of charge in %, NaN if unknown
	CapacityAh float64 // nominal capacity, NaN if unconfigured

	// History block inputs
	MinVoltage       float64 // V, NaN if untracked
	MaxVoltage       float64 // V, NaN if untracked
	ChargedAh        float64 // cumulative Ah charged
	DischargedAh     float64 // cumulative Ah discharged
	SecondsSinceFull int32   // -1 if unknown
}

// SOCPermille returns the state of charge in per-mille as sent on the wire.
// When no real SOC is known this falls back to a placeholder: 1000 while the
// sensor is connected, 0 otherwise. There is no coulomb counting behind the
// fallback; it exists only so hosts that require the SOC field keep working.
func (t TelemetryState) SOCPermille() int {
	soc := t.SOCPercent
	if math.IsNaN(soc) {
		if t.Connected {
			soc = 100
		} else {
			soc = 0
		}
	}
	return int(math.Round(soc * 10))
}

// ConsumedmAh estimates consumed charge in mAh from accumulated energy and
// the present bus voltage. Below a small voltage threshold the estimate is
// meaningless and 0 is reported.
func (t TelemetryState) ConsumedmAh() int {
	if t.Voltage <= 0.1 {
		return 0
	}
	return int(math.Round(t.EnergyWh / t.Voltage * 1000))
}
