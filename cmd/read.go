// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 HM Lab

package cmd

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hmlab/hubctl/pkg/device"
	"github.com/hmlab/hubctl/pkg/flashimg"
	"github.com/hmlab/hubctl/pkg/imaging"
)

var readOutput string

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read back stored images from device flash",
	RunE:  runRead,
}

func init() {
	readCmd.Flags().StringVarP(&readOutput, "output", "o", ".", "Output directory for saved images")
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	renderer := newProgressRenderer()
	s, err := OpenSession(device.WithProgress(renderer.Callback))
	if err != nil {
		return err
	}
	defer s.Close()

	flash, err := s.ReadFlash()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(readOutput, 0o755); err != nil {
		return err
	}

	entries, err := flashimg.Parse(flash)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No images found on device.")
		return nil
	}

	for i, entry := range entries {
		frames := entry.Frames()
		for f, frame := range frames {
			name := fmt.Sprintf("frame_%d.png", i)
			if len(frames) > 1 {
				name = fmt.Sprintf("frame_%d_%d.png", i, f)
			}
			path := filepath.Join(readOutput, name)
			if err := savePNG(path, frame, int(entry.Header.Width), int(entry.Header.Height)); err != nil {
				return err
			}
			fmt.Printf("Saved %s\n", path)
		}
	}
	return nil
}

func savePNG(path string, rgb565 []byte, width, height int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, imaging.FromRGB565(rgb565, width, height))
}
