// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

package flashimg

import (
	"fmt"

	"github.com/hmlab/hubctl/pkg/hubproto"
)

// Build lays out the given albums as one flat flash buffer ready for
// transfer: the fixed header table followed by each album's concatenated
// frames at strictly increasing offsets. It validates the album count
// and the total frame count against the device capacity.
func Build(albums []*Album, flashSize uint32) ([]byte, error) {
	if len(albums) > MaxAlbums {
		return nil, &hubproto.ProtocolError{
			Operation: "flash layout",
			Detail:    fmt.Sprintf("too many albums: %d > %d", len(albums), MaxAlbums),
		}
	}

	totalFrames := 0
	totalPixelData := 0
	for _, a := range albums {
		totalFrames += len(a.Frames)
		for _, f := range a.Frames {
			totalPixelData += len(f)
		}
	}
	if max := MaxFrames(flashSize); totalFrames > max {
		return nil, &hubproto.ProtocolError{
			Operation: "flash layout",
			Detail:    fmt.Sprintf("total frames (%d) exceeds device capacity (%d)", totalFrames, max),
		}
	}

	buf := make([]byte, HeaderArea+totalPixelData)
	// Unused header slots must read as non-magic; fill the whole table
	// explicitly rather than relying on allocation zeroing.
	for i := 0; i < HeaderArea; i++ {
		buf[i] = slotSentinel
	}

	dataOffset := HeaderArea
	for i, album := range albums {
		data := make([]byte, 0, len(album.Frames)*FramePixelSize)
		for _, f := range album.Frames {
			data = append(data, f...)
		}

		copy(buf[dataOffset:], data)

		h := FrameHeader{
			Width:      DisplayWidth,
			Height:     DisplayHeight,
			FrameCount: uint16(len(album.Frames)),
			DelayMS:    album.DelayMS,
			DataOffset: uint32(dataOffset),
			DataLength: uint32(len(data)),
			DataCRC:    hubproto.Checksum(data),
		}
		h.WriteTo(buf[i*FrameHeaderSize : i*FrameHeaderSize+FrameHeaderSize])

		dataOffset += len(data)
	}

	return buf, nil
}

// Entry is one parsed album slot: its header plus the pixel data region
// it indexes.
type Entry struct {
	Header FrameHeader
	Data   []byte
}

// Frames splits the entry's data region into per-frame slices. A single
// frame is returned whole; animations split into FrameCount equal slices
// of width*height*2 bytes, dropping a trailing partial frame.
func (e *Entry) Frames() [][]byte {
	if e.Header.FrameCount <= 1 {
		return [][]byte{e.Data}
	}
	frameSize := int(e.Header.Width) * int(e.Header.Height) * 2
	frames := make([][]byte, 0, e.Header.FrameCount)
	for i := 0; i < int(e.Header.FrameCount); i++ {
		start := i * frameSize
		end := start + frameSize
		if end > len(e.Data) {
			break
		}
		frames = append(frames, e.Data[start:end])
	}
	return frames
}

// Parse scans the header table of a flash image in fixed 28-byte strides
// until the first non-magic slot or the end of the table, slicing the
// data region each valid header points at. Entries whose data range
// falls outside the buffer end the scan.
func Parse(flash []byte) ([]*Entry, error) {
	var entries []*Entry
	for i := 0; ; i++ {
		offset := i * FrameHeaderSize
		if offset+FrameHeaderSize > HeaderArea || offset+FrameHeaderSize > len(flash) {
			break
		}
		h, err := ReadFrameHeader(flash[offset : offset+FrameHeaderSize])
		if err != nil {
			return nil, err
		}
		if h == nil {
			break
		}

		start := int(h.DataOffset)
		end := start + int(h.DataLength)
		if start < 0 || end > len(flash) {
			break
		}
		entries = append(entries, &Entry{Header: *h, Data: flash[start:end]})
	}
	return entries, nil
}
