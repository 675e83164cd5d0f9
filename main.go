// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 HM Lab
//
// hubctl - control tool for the HM Lab Z-NEO 8K USB hub display.

package main

import (
	"os"

	"github.com/hmlab/hubctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
