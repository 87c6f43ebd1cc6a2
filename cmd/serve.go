// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Felixrising

package cmd

import (
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/Felixrising/CYD-SmartShunt/pkg/vedirect"
	"github.com/spf13/cobra"
)

var (
	serveName     string
	serveSerial   string
	serveCapacity float64
	serveDisabled bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Emulate a SmartShunt device on the connection",
	Long: `Run the VE.Direct protocol engine against a serial port or WebSocket bridge.

The emulator broadcasts Text telemetry frames once per second (plus a history
block every tenth frame) and answers Hex protocol requests: PING, APP_VERSION,
PRODUCT_ID, and GET/SET on the identity registers. Measurements come from a
built-in battery simulator; the protocol behavior on the wire matches the
real device closely enough for third-party monitoring software.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveName, "name", vedirect.DefaultDeviceName, "Initial custom device name")
	serveCmd.Flags().StringVar(&serveSerial, "serial", vedirect.DefaultSerialNumber, "Serial number register value")
	serveCmd.Flags().Float64Var(&serveCapacity, "capacity", 100, "Simulated battery capacity in Ah")
	serveCmd.Flags().BoolVar(&serveDisabled, "start-disabled", false, "Start with the protocol gate disabled")
}

func runServe(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("SmartShunt - VE.Direct Emulator\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Identity: PID=0x%04X FW=0x%04X name=%q serial=%s\n",
		uint16(vedirect.DefaultProductID), uint16(vedirect.DefaultAppID), serveName, serveSerial)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	tr := newPumpTransport(conn)
	engine := vedirect.New(tr, vedirect.Options{
		DeviceName:   serveName,
		SerialNumber: serveSerial,
	})
	engine.SetEnabled(!serveDisabled)

	sim := newBatterySimulator(serveCapacity)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	// The engine is polled, not event driven: pump it well below the text
	// pacing interval so inbound Hex commands get sub-tick answer latency.
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-interrupt:
			fmt.Println("\nShutting down")
			return nil
		case now := <-ticker.C:
			if err := engine.Pump(sim.sample(now), now); err != nil {
				log.Printf("Pump error: %v", err)
				return err
			}
			if err := tr.Err(); err != nil {
				if err == ErrConnectionClosed {
					log.Printf("Connection closed")
					return nil
				}
				return err
			}
		}
	}
}

// batterySimulator produces plausible TelemetryState snapshots: a 12 V bank
// under a slowly varying load, with voltage sag, energy integration and
// min/max tracking.
type batterySimulator struct {
	capacityAh   float64
	start        time.Time
	lastSample   time.Time
	energyWh     float64
	chargedAh    float64
	dischargedAh float64
	minVoltage   float64
	maxVoltage   float64
}

func newBatterySimulator(capacityAh float64) *batterySimulator {
	return &batterySimulator{
		capacityAh: capacityAh,
		minVoltage: math.NaN(),
		maxVoltage: math.NaN(),
	}
}

func (s *batterySimulator) sample(now time.Time) vedirect.TelemetryState {
	if s.start.IsZero() {
		s.start = now
		s.lastSample = now
	}
	elapsed := now.Sub(s.start).Seconds()
	dt := now.Sub(s.lastSample).Seconds()
	s.lastSample = now

	// Load swings between light charge and a ~40 A discharge on a slow cycle.
	current := -20 + 22*math.Sin(elapsed/60*2*math.Pi)
	voltage := 12.8 + 0.4*math.Sin(elapsed/300*2*math.Pi) + current*0.004 // IR sag
	power := voltage * current

	s.energyWh += math.Abs(power) * dt / 3600
	ah := math.Abs(current) * dt / 3600
	if current >= 0 {
		s.chargedAh += ah
	} else {
		s.dischargedAh += ah
	}
	if math.IsNaN(s.minVoltage) || voltage < s.minVoltage {
		s.minVoltage = voltage
	}
	if math.IsNaN(s.maxVoltage) || voltage > s.maxVoltage {
		s.maxVoltage = voltage
	}

	return vedirect.TelemetryState{
		Voltage:          voltage,
		Current:          current,
		Power:            power,
		EnergyWh:         s.energyWh,
		TemperatureC:     25 + 5*math.Sin(elapsed/600*2*math.Pi),
		Connected:        true,
		SOCPercent:       math.NaN(), // the emulator has no coulomb counter
		CapacityAh:       s.capacityAh,
		MinVoltage:       s.minVoltage,
		MaxVoltage:       s.maxVoltage,
		ChargedAh:        s.chargedAh,
		DischargedAh:     s.dischargedAh,
		SecondsSinceFull: -1,
	}
}
