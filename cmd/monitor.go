// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Felixrising

package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/Felixrising/CYD-SmartShunt/pkg/vedirect"
	"github.com/spf13/cobra"
)

var (
	monitorStatsInterval int
	monitorCompact       bool
	monitorAnomaliesOnly bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display the VE.Direct stream in human-readable format",
	Long: `Continuously decode and display VE.Direct frames as they arrive.

Each Text block is shown with its fields, units and checksum status, and
interleaved Hex replies are decoded too. Records are validated against the
protocol (checksum, required fields, plausible values) and a statistics
summary is printed periodically.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().IntVar(&monitorStatsInterval, "stats", 30, "Statistics summary interval in seconds (0 disables)")
	monitorCmd.Flags().BoolVar(&monitorCompact, "compact", false, "One line per record instead of full field dumps")
	monitorCmd.Flags().BoolVar(&monitorAnomaliesOnly, "anomalies-only", false, "Only print records with validation errors")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("SmartShunt - VE.Direct Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	reader := vedirect.NewReader()
	stats := vedirect.NewStatistics()
	buf := make([]byte, 256)

	lastStats := time.Now()

	for {
		n, err := conn.Read(buf)
		if err != nil {
			// For WebSocket connections, a read error usually means
			// the connection is permanently closed - exit gracefully
			if err == ErrConnectionClosed {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}

		for i := 0; i < n; i++ {
			record, reply, decodeErr := reader.ReadByte(buf[i])
			if decodeErr != nil {
				stats.UpdateHex(decodeErr)
				fmt.Printf("[ERROR] %v\n", decodeErr)
				continue
			}
			if reply != nil {
				stats.UpdateHex(nil)
				fmt.Print(vedirect.FormatHexReply(reply))
			}
			if record != nil {
				validationErrors := vedirect.ValidateRecord(record)
				stats.UpdateRecord(record, validationErrors)
				printRecord(record, validationErrors)
			}
		}

		if monitorStatsInterval > 0 && time.Since(lastStats) >= time.Duration(monitorStatsInterval)*time.Second {
			fmt.Print(stats.String())
			lastStats = time.Now()
		}
	}
}

func printRecord(record *vedirect.TextRecord, validationErrors []vedirect.ValidationError) {
	if monitorAnomaliesOnly && len(validationErrors) == 0 {
		return
	}
	if monitorCompact {
		fmt.Printf("[%s] %s\n", record.Timestamp.Format("15:04:05.000"), vedirect.FormatRecordLine(record))
	} else {
		fmt.Print(vedirect.FormatRecord(record))
	}
	for _, e := range validationErrors {
		fmt.Printf("  [ANOMALY] %s\n", e.Message)
	}
}
