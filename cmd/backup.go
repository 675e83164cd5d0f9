// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 HM Lab

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hmlab/hubctl/pkg/backup"
	"github.com/hmlab/hubctl/pkg/device"
)

var backupCmd = &cobra.Command{
	Use:   "backup FILE",
	Short: "Backup device config and flash to a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	file := args[0]

	renderer := newProgressRenderer()
	s, err := OpenSession(device.WithProgress(renderer.Callback))
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintln(os.Stderr, "Reading config...")
	config, err := s.ReadConfig()
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Reading flash...")
	flash, err := s.ReadFlash()
	if err != nil {
		return err
	}

	data := backup.Marshal(&backup.Snapshot{Config: config.Bytes(), Flash: flash})
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("Backup saved to %s (%.1f MB)\n", file, float64(len(data))/1048576.0)
	return nil
}
