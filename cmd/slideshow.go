// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 HM Lab

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var slideshowNoCrop bool

var slideshowCmd = &cobra.Command{
	Use:   "slideshow DIR",
	Short: "Upload all images from a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runSlideshow,
}

func init() {
	slideshowCmd.Flags().BoolVar(&slideshowNoCrop, "no-crop", false, "Letterbox instead of cropping to fill")
	rootCmd.AddCommand(slideshowCmd)
}

func runSlideshow(cmd *cobra.Command, args []string) error {
	dir := args[0]
	stat, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !stat.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	paths, err := collectImages(dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no images found in %s", dir)
	}
	fmt.Fprintf(os.Stderr, "Found %d image(s) in %s\n", len(paths), dir)

	albums, err := loadAlbums(paths, !slideshowNoCrop)
	if err != nil {
		return err
	}
	return uploadAlbums(albums)
}
