// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 HM Lab

package cmd

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hmlab/hubctl/pkg/hubproto"
)

var (
	rotateInterval int
	rotateNoCrop   bool
)

var rotateCmd = &cobra.Command{
	Use:   "rotate DIR",
	Short: "Watch a directory and re-upload when images change",
	Args:  cobra.ExactArgs(1),
	RunE:  runRotate,
}

func init() {
	rotateCmd.Flags().IntVar(&rotateInterval, "interval", 60, "Seconds between checks for changes")
	rotateCmd.Flags().BoolVar(&rotateNoCrop, "no-crop", false, "Letterbox instead of cropping to fill")
	rootCmd.AddCommand(rotateCmd)
}

func runRotate(cmd *cobra.Command, args []string) error {
	dir := args[0]
	stat, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !stat.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	fmt.Fprintf(os.Stderr, "Watching %s for changes every %ds (Ctrl+C to stop)...\n", dir, rotateInterval)

	var lastFingerprint uint32
	for {
		fingerprint, err := dirFingerprint(dir)
		if err != nil {
			return err
		}
		if fingerprint != lastFingerprint {
			if err := rotateUpload(dir); err != nil {
				return err
			}
			lastFingerprint = fingerprint
		}
		time.Sleep(time.Duration(rotateInterval) * time.Second)
	}
}

func rotateUpload(dir string) error {
	paths, err := collectImages(dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "No images found, waiting...")
		return nil
	}

	fmt.Fprintf(os.Stderr, "Change detected, uploading %d image(s)...\n", len(paths))
	albums, err := loadAlbums(paths, !rotateNoCrop)
	if err != nil {
		return err
	}
	if err := uploadAlbums(albums); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Upload complete, watching for changes...")
	return nil
}

// dirFingerprint hashes the directory's image paths, sizes, and
// modification times so a change in any of them triggers a re-upload.
func dirFingerprint(dir string) (uint32, error) {
	paths, err := collectImages(dir)
	if err != nil {
		return 0, err
	}

	var buf []byte
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return 0, err
		}
		buf = append(buf, path...)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(info.ModTime().Unix()))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(info.Size()))
	}
	return hubproto.Checksum(buf), nil
}
