// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 HM Lab

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hmlab/hubctl/pkg/flashimg"
	"github.com/hmlab/hubctl/pkg/hubproto"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show device info (hardware ID, firmware, flash size)",
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	s, err := OpenSession()
	if err != nil {
		return err
	}
	defer s.Close()

	info := s.Info()
	fmt.Println("HM Lab Z-NEO 8K USB Hub")
	fmt.Println(hubproto.FormatDeviceInfo(info))
	fmt.Printf("  Max frames:     %d\n", flashimg.MaxFrames(info.FlashSize))
	return nil
}
