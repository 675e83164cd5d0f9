// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

package imaging

import (
	"image"
	"image/color"
)

// The display stores pixels as 16-bit RGB565 (5 red / 6 green / 5 blue
// bits), two bytes per pixel with the high byte first.

// ToRGB565 converts an image to the display's pixel format. The image
// is read at its own bounds; callers resize first.
func ToRGB565(img image.Image) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h*2)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			r8 := uint16(r >> 8)
			g8 := uint16(g >> 8)
			b8 := uint16(bl >> 8)
			pixel := ((r8 & 0xF8) << 8) | ((g8 & 0xFC) << 3) | ((b8 & 0xF8) >> 3)
			out[i] = byte(pixel >> 8)
			out[i+1] = byte(pixel)
			i += 2
		}
	}
	return out
}

// FromRGB565 expands display pixel data back into an RGBA image, using
// bit replication so full-scale values map back to 255.
func FromRGB565(data []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := (y*width + x) * 2
			if idx+1 >= len(data) {
				return img
			}
			pixel := uint16(data[idx])<<8 | uint16(data[idx+1])

			r := uint8(pixel >> 11 & 0x1F)
			g := uint8(pixel >> 5 & 0x3F)
			b := uint8(pixel & 0x1F)

			img.SetRGBA(x, y, color.RGBA{
				R: r<<3 | r>>2,
				G: g<<2 | g>>4,
				B: b<<3 | b>>2,
				A: 255,
			})
		}
	}
	return img
}
