// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Felixrising
//
// SmartShunt - VE.Direct battery monitor emulator and protocol analyzer.

package main

import (
	"os"

	"github.com/Felixrising/CYD-SmartShunt/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
