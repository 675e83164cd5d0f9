// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

// Package flashimg builds and parses the Z-NEO hub's persistent image
// storage layout: a fixed 8192-byte header table followed by packed
// RGB565 pixel data. The layout is a storage contract with firmware and
// must round-trip byte for byte; every field is placed with explicit
// offset arithmetic.
package flashimg

// Display geometry. One frame is a full RGB565 screen, two bytes per
// pixel with the high byte first.
const (
	DisplayWidth   = 320
	DisplayHeight  = 170
	FramePixelSize = DisplayWidth * DisplayHeight * 2
)

// Header table geometry.
const (
	HeaderArea      = 8192
	FrameHeaderSize = 28
	MaxAlbums       = 292
)

// Album is an ordered sequence of equal-size RGB565 frames at the
// display resolution plus one shared inter-frame delay. A single frame
// is a still image; more than one is an animation.
type Album struct {
	Frames  [][]byte
	DelayMS uint16 // 10 ms granularity
}

// MaxFrames returns how many frames fit in a flash of the given size
// after the header area.
func MaxFrames(flashSize uint32) int {
	if flashSize < HeaderArea {
		return 0
	}
	return int(flashSize-HeaderArea) / FramePixelSize
}
