// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 HM Lab

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hmlab/hubctl/pkg/backup"
	"github.com/hmlab/hubctl/pkg/device"
	"github.com/hmlab/hubctl/pkg/hubproto"
)

var restoreCmd = &cobra.Command{
	Use:   "restore FILE",
	Short: "Restore device config and flash from a backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	// Validate the whole file before touching the device.
	snapshot, err := backup.Unmarshal(data)
	if err != nil {
		return err
	}
	config, err := hubproto.ParseConfig(snapshot.Config)
	if err != nil {
		return err
	}

	renderer := newProgressRenderer()
	s, err := OpenSession(device.WithProgress(renderer.Callback))
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintln(os.Stderr, "Restoring config...")
	if err := s.WriteConfig(config); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "Restoring flash...")
	if err := s.UploadFlash(snapshot.Flash); err != nil {
		return err
	}

	fmt.Println("Restore complete.")
	return nil
}
