// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

// Package imaging turns source image files into display albums. It is
// the image-source collaborator of the protocol core: still images
// become single-frame albums, animated GIFs become multi-frame albums
// with the GIF's playback delay. Sources are resampled to the display
// resolution either by cropping to fill or by letterboxing.
package imaging

import (
	"fmt"
	"image"
	stddraw "image/draw"
	"image/gif"
	"os"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/hmlab/hubctl/pkg/flashimg"
)

// FormatError indicates a source file cannot be turned into an album:
// an unsupported format or an animation with no frames.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Load reads a source image file into an Album. GIFs decode every frame;
// PNG, JPEG, BMP and WebP decode as single stills. When crop is true the
// source is center-cropped to fill the display; otherwise it is
// letterboxed on black.
func Load(path string, crop bool) (*flashimg.Album, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "gif":
		return loadGIF(path, crop)
	case "png", "jpg", "jpeg", "bmp", "webp":
		return loadStill(path, crop)
	default:
		return nil, &FormatError{Path: path, Reason: fmt.Sprintf("unsupported image format %q", ext)}
	}
}

// IsSupported reports whether the file extension names a loadable
// source format.
func IsSupported(path string) bool {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "gif", "png", "jpg", "jpeg", "bmp", "webp":
		return true
	}
	return false
}

func loadStill(path string, crop bool) (*flashimg.Album, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &FormatError{Path: path, Reason: fmt.Sprintf("decode: %v", err)}
	}

	frame := ToRGB565(fitToDisplay(img, crop))
	return &flashimg.Album{Frames: [][]byte{frame}}, nil
}

func loadGIF(path string, crop bool) (*flashimg.Album, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, &FormatError{Path: path, Reason: fmt.Sprintf("decode: %v", err)}
	}
	if len(g.Image) == 0 {
		return nil, &FormatError{Path: path, Reason: "animation has no frames"}
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)

	album := &flashimg.Album{Frames: make([][]byte, 0, len(g.Image))}
	for i, frame := range g.Image {
		// Frames compose onto a shared canvas at their own offsets;
		// transparent pixels keep whatever the previous frame left.
		var restore *image.RGBA
		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalPrevious {
			restore = image.NewRGBA(bounds)
			copy(restore.Pix, canvas.Pix)
		}

		stddraw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, stddraw.Over)
		album.Frames = append(album.Frames, ToRGB565(fitToDisplay(canvas, crop)))

		if album.DelayMS == 0 && i < len(g.Delay) && g.Delay[i] > 0 {
			album.DelayMS = uint16(g.Delay[i] * 10)
		}

		if i < len(g.Disposal) {
			switch g.Disposal[i] {
			case gif.DisposalBackground:
				clear := frame.Bounds().Intersect(bounds)
				stddraw.Draw(canvas, clear, image.Transparent, image.Point{}, stddraw.Src)
			case gif.DisposalPrevious:
				canvas = restore
			}
		}
	}

	return album, nil
}

// fitToDisplay resamples src to the display resolution with Catmull-Rom
// interpolation. With crop, the source is first center-cropped to the
// display aspect; without, it is scaled to fit and centered on black.
func fitToDisplay(src image.Image, crop bool) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, flashimg.DisplayWidth, flashimg.DisplayHeight))
	stddraw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, stddraw.Src)

	b := src.Bounds()
	srcW, srcH := float64(b.Dx()), float64(b.Dy())
	if srcW == 0 || srcH == 0 {
		return dst
	}
	targetAspect := float64(flashimg.DisplayWidth) / float64(flashimg.DisplayHeight)
	srcAspect := srcW / srcH

	if crop {
		sr := b
		if srcAspect > targetAspect {
			cw := int(srcH * targetAspect)
			cx := (b.Dx() - cw) / 2
			sr = image.Rect(b.Min.X+cx, b.Min.Y, b.Min.X+cx+cw, b.Max.Y)
		} else if srcAspect < targetAspect {
			ch := int(srcW / targetAspect)
			cy := (b.Dy() - ch) / 2
			sr = image.Rect(b.Min.X, b.Min.Y+cy, b.Max.X, b.Min.Y+cy+ch)
		}
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sr, draw.Src, nil)
		return dst
	}

	fitW, fitH := flashimg.DisplayWidth, flashimg.DisplayHeight
	if srcAspect > targetAspect {
		fitH = int(float64(flashimg.DisplayWidth) / srcAspect)
	} else {
		fitW = int(float64(flashimg.DisplayHeight) * srcAspect)
	}
	offX := (flashimg.DisplayWidth - fitW) / 2
	offY := (flashimg.DisplayHeight - fitH) / 2
	dr := image.Rect(offX, offY, offX+fitW, offY+fitH)
	draw.CatmullRom.Scale(dst, dr, src, b, draw.Over, nil)
	return dst
}
