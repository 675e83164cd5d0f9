// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

package imaging

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/hmlab/hubctl/pkg/flashimg"
)

func writePNG(t *testing.T, w, h int, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create temp png: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return path
}

func writeGIF(t *testing.T, frames int, delay int) string {
	t.Helper()
	palette := color.Palette{color.Black, color.White}
	g := &gif.GIF{}
	for i := 0; i < frames; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, 64, 34), palette)
		for p := range frame.Pix {
			frame.Pix[p] = uint8(i % 2)
		}
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, delay)
	}

	path := filepath.Join(t.TempDir(), "test.gif")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create temp gif: %v", err)
	}
	defer f.Close()
	if err := gif.EncodeAll(f, g); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return path
}

// pixelAt returns the two RGB565 bytes of the pixel at (x, y) in a
// display-size frame.
func pixelAt(frame []byte, x, y int) (byte, byte) {
	idx := (y*flashimg.DisplayWidth + x) * 2
	return frame[idx], frame[idx+1]
}

func TestLoadStill(t *testing.T) {
	path := writePNG(t, flashimg.DisplayWidth, flashimg.DisplayHeight, color.RGBA{255, 0, 0, 255})

	album, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(album.Frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(album.Frames))
	}
	if album.DelayMS != 0 {
		t.Errorf("DelayMS = %d, want 0 for a still", album.DelayMS)
	}
	frame := album.Frames[0]
	if len(frame) != flashimg.FramePixelSize {
		t.Fatalf("frame size = %d, want %d", len(frame), flashimg.FramePixelSize)
	}

	hi, lo := pixelAt(frame, flashimg.DisplayWidth/2, flashimg.DisplayHeight/2)
	if hi != 0xF8 || lo != 0x00 {
		t.Errorf("center pixel = %02x %02x, want f8 00 (red)", hi, lo)
	}
}

// A source twice as wide as the display aspect must letterbox: black
// bands above and below, content centered vertically.
func TestLoadStillLetterbox(t *testing.T) {
	path := writePNG(t, flashimg.DisplayWidth, flashimg.DisplayHeight/2, color.RGBA{255, 255, 255, 255})

	album, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	frame := album.Frames[0]

	if hi, lo := pixelAt(frame, flashimg.DisplayWidth/2, 0); hi != 0x00 || lo != 0x00 {
		t.Errorf("top band pixel = %02x %02x, want black", hi, lo)
	}
	if hi, lo := pixelAt(frame, flashimg.DisplayWidth/2, flashimg.DisplayHeight/2); hi != 0xFF || lo != 0xFF {
		t.Errorf("center pixel = %02x %02x, want white", hi, lo)
	}
	if hi, lo := pixelAt(frame, flashimg.DisplayWidth/2, flashimg.DisplayHeight-1); hi != 0x00 || lo != 0x00 {
		t.Errorf("bottom band pixel = %02x %02x, want black", hi, lo)
	}
}

// Cropping the same wide source must fill the whole display instead.
func TestLoadStillCropFills(t *testing.T) {
	path := writePNG(t, flashimg.DisplayWidth, flashimg.DisplayHeight/2, color.RGBA{255, 255, 255, 255})

	album, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	frame := album.Frames[0]

	for _, y := range []int{0, flashimg.DisplayHeight / 2, flashimg.DisplayHeight - 1} {
		if hi, lo := pixelAt(frame, flashimg.DisplayWidth/2, y); hi != 0xFF || lo != 0xFF {
			t.Errorf("row %d pixel = %02x %02x, want white", y, hi, lo)
		}
	}
}

func TestLoadGIF(t *testing.T) {
	path := writeGIF(t, 3, 10) // 10 hundredths of a second per frame

	album, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(album.Frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(album.Frames))
	}
	if album.DelayMS != 100 {
		t.Errorf("DelayMS = %d, want 100", album.DelayMS)
	}
	for i, frame := range album.Frames {
		if len(frame) != flashimg.FramePixelSize {
			t.Fatalf("frame %d size = %d, want %d", i, len(frame), flashimg.FramePixelSize)
		}
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := Load("/tmp/whatever.txt", true)
	var ferr *FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("got %T, want *FormatError", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.png"), true); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.png", true},
		{"b.JPG", true},
		{"c.jpeg", true},
		{"d.gif", true},
		{"e.bmp", true},
		{"f.webp", true},
		{"g.txt", false},
		{"h.tiff", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsSupported(tt.path); got != tt.want {
			t.Errorf("IsSupported(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
