// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Felixrising

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Felixrising/CYD-SmartShunt/pkg/vedirect"
	"github.com/spf13/cobra"
)

var (
	pingTimeout int
	pingCount   int
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Send Hex PING requests and wait for answers",
	Long: `Send VE.Direct Hex PING requests to the device and wait for the PING answer.

The device answers with its application/firmware id. While a Hex exchange is
in flight the device pauses its Text broadcasts, so this also verifies the
protocol arbitration on the shared line.

Exit codes:
  0 - All pings answered
  1 - One or more pings timed out
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 5, "Timeout in seconds for each ping")
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
}

func runPing(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("SmartShunt - VE.Direct Ping\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds per ping\n", pingTimeout)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	successCount := 0
	failCount := 0

	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		reply, rtt, err := exchange(conn, vedirect.NewPingRequest(), vedirect.AnswerPing,
			time.Duration(pingTimeout)*time.Second)
		switch {
		case err != nil:
			fmt.Printf("FAILED: %v\n", err)
			failCount++
		case reply == nil:
			fmt.Printf("TIMEOUT (no answer in %ds)\n", pingTimeout)
			failCount++
		default:
			appID := uint16(0)
			if len(reply.Data) >= 2 {
				appID = uint16(reply.Data[0]) | uint16(reply.Data[1])<<8
			}
			fmt.Printf("PONG fw=0x%04X, rtt=%v\n", appID, rtt.Round(time.Millisecond))
			successCount++
		}

		// Small delay between pings
		if i < pingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	// Summary
	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d answers received, %.0f%% loss\n",
		pingCount, successCount, float64(failCount)/float64(pingCount)*100)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}

// exchange sends one Hex request and waits for a reply with the wanted
// answer code, skipping Text broadcasts and unrelated replies. A nil reply
// with nil error means the timeout expired.
func exchange(conn Connection, request []byte, wantAnswer byte, timeout time.Duration) (*vedirect.HexReply, time.Duration, error) {
	start := time.Now()
	if _, err := conn.Write(request); err != nil {
		return nil, 0, err
	}

	replyChan := make(chan *vedirect.HexReply, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := vedirect.NewReader()
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}
			for i := 0; i < n; i++ {
				_, reply, decodeErr := reader.ReadByte(buf[i])
				if decodeErr != nil {
					// Ignore decode errors; the stream keeps flowing
					continue
				}
				if reply != nil && reply.Answer == wantAnswer {
					replyChan <- reply
					return
				}
			}
		}
	}()

	select {
	case reply := <-replyChan:
		return reply, time.Since(start), nil
	case err := <-errChan:
		return nil, 0, err
	case <-time.After(timeout):
		return nil, 0, nil
	}
}
