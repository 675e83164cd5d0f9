// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 HM Lab

package cmd

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hmlab/hubctl/pkg/device"
	"github.com/hmlab/hubctl/pkg/flashimg"
	"github.com/hmlab/hubctl/pkg/imaging"
)

var (
	uploadNoCrop  bool
	uploadPreview string
)

var uploadCmd = &cobra.Command{
	Use:   "upload IMAGE...",
	Short: "Upload images/GIFs to the device LCD",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadNoCrop, "no-crop", false, "Letterbox instead of cropping to fill")
	uploadCmd.Flags().StringVar(&uploadPreview, "preview", "", "Save a preview PNG instead of uploading")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	albums, err := loadAlbums(args, !uploadNoCrop)
	if err != nil {
		return err
	}

	if uploadPreview != "" {
		return savePreview(albums, uploadPreview)
	}

	return uploadAlbums(albums)
}

// loadAlbums decodes each source path into an album, logging per-file
// frame counts.
func loadAlbums(paths []string, crop bool) ([]*flashimg.Album, error) {
	albums := make([]*flashimg.Album, 0, len(paths))
	for _, path := range paths {
		fmt.Fprintf(os.Stderr, "Loading %s...\n", path)
		album, err := imaging.Load(path, crop)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "  %d frame(s), %dx%d\n",
			len(album.Frames), flashimg.DisplayWidth, flashimg.DisplayHeight)
		albums = append(albums, album)
	}
	return albums, nil
}

// uploadAlbums builds the flash image for the connected device and
// drives the upload.
func uploadAlbums(albums []*flashimg.Album) error {
	renderer := newProgressRenderer()
	s, err := OpenSession(device.WithProgress(renderer.Callback))
	if err != nil {
		return err
	}
	defer s.Close()

	totalFrames := 0
	for _, a := range albums {
		totalFrames += len(a.Frames)
	}
	fmt.Fprintf(os.Stderr, "Total: %d frame(s) (max: %d)\n",
		totalFrames, flashimg.MaxFrames(s.Info().FlashSize))

	flash, err := flashimg.Build(albums, s.Info().FlashSize)
	if err != nil {
		return err
	}
	if err := s.UploadFlash(flash); err != nil {
		return err
	}
	fmt.Println("Upload complete.")
	return nil
}

func savePreview(albums []*flashimg.Album, path string) error {
	if len(albums) == 0 || len(albums[0].Frames) == 0 {
		return fmt.Errorf("nothing to preview")
	}
	img := imaging.FromRGB565(albums[0].Frames[0], flashimg.DisplayWidth, flashimg.DisplayHeight)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return err
	}
	fmt.Printf("Preview saved to %s\n", path)
	return nil
}

// collectImages lists the supported image files of a directory in
// sorted order.
func collectImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if imaging.IsSupported(path) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}
