// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Felixrising

package cmd

import (
	"fmt"
	"time"

	"github.com/Felixrising/CYD-SmartShunt/pkg/vedirect"
	"github.com/spf13/cobra"
)

var nameTimeout int

var nameCmd = &cobra.Command{
	Use:   "name [new-name]",
	Short: "Read or write the device's custom name register",
	Long: `Read the custom device name (Hex GET on register 0x010C), or write it when
a new name is given (Hex SET). The device truncates names beyond its storage
bound rather than rejecting them; the reply echoes what was requested, so the
command reads the register back to show the stored value.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runName,
}

func init() {
	rootCmd.AddCommand(nameCmd)
	nameCmd.Flags().IntVar(&nameTimeout, "timeout", 5, "Timeout in seconds per request")
}

func runName(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Connection: %s\n", connInfo)
	timeout := time.Duration(nameTimeout) * time.Second

	if len(args) == 1 {
		reply, _, err := exchange(conn, vedirect.NewSetRequest(vedirect.RegCustomName, []byte(args[0])),
			vedirect.AnswerSet, timeout)
		if err != nil {
			return err
		}
		if reply == nil {
			return fmt.Errorf("no SET answer within %ds", nameTimeout)
		}
		if flags, ok := reply.Flags(); !ok || flags != vedirect.FlagOK {
			return fmt.Errorf("device rejected the write (flags=0x%02X)", mustFlags(reply))
		}
	}

	reply, _, err := exchange(conn, vedirect.NewGetRequest(vedirect.RegCustomName),
		vedirect.AnswerGet, timeout)
	if err != nil {
		return err
	}
	if reply == nil {
		return fmt.Errorf("no GET answer within %ds", nameTimeout)
	}
	if flags, ok := reply.Flags(); !ok || flags != vedirect.FlagOK {
		return fmt.Errorf("device rejected the read (flags=0x%02X)", mustFlags(reply))
	}

	fmt.Printf("Device name: %q\n", reply.Value())
	return nil
}

func mustFlags(r *vedirect.HexReply) byte {
	flags, _ := r.Flags()
	return flags
}
