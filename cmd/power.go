// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 HM Lab

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hmlab/hubctl/pkg/hubproto"
)

var powerWatch bool

var powerCmd = &cobra.Command{
	Use:   "power",
	Short: "Show USB power/current stats",
	RunE:  runPower,
}

func init() {
	powerCmd.Flags().BoolVarP(&powerWatch, "watch", "w", false, "Continuously monitor power stats")
	rootCmd.AddCommand(powerCmd)
}

func runPower(cmd *cobra.Command, args []string) error {
	s, err := OpenSession()
	if err != nil {
		return err
	}
	defer s.Close()

	for {
		stats, err := s.ReadPower()
		if err != nil {
			return err
		}

		if powerWatch {
			fmt.Fprintf(os.Stderr, "\r%s   ", hubproto.FormatPowerStats(stats))
			continue
		}

		fmt.Printf("Bus voltage:  %.2fV (%s)\n",
			float64(stats.BusVoltage)/1000.0, hubproto.PowerRating(stats.BusVoltage))
		fmt.Printf("Port 1:       %dmA\n", stats.CurrentPort1)
		fmt.Printf("Port 2:       %dmA\n", stats.CurrentPort2)
		fmt.Printf("Port 3:       %dmA\n", stats.CurrentPort3)
		return nil
	}
}
