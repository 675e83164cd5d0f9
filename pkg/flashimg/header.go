// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

package flashimg

import (
	"encoding/binary"
	"fmt"

	"github.com/hmlab/hubctl/pkg/hubproto"
)

// FrameMagic marks an occupied header slot. A slot whose first four
// bytes do not equal this value ends the table scan.
const FrameMagic uint32 = 0xC0190001

// slotSentinel fills unused header slots. Any value that is not the
// magic would do; the fill is written explicitly so the end-of-table
// convention never depends on the buffer's initial contents.
const slotSentinel byte = 0x00

// FrameHeader is one 28-byte on-flash album record. The trailing CRC32
// covers the preceding 24 bytes.
type FrameHeader struct {
	Width      uint16
	Height     uint16
	FrameCount uint16
	DelayMS    uint16
	DataOffset uint32
	DataLength uint32
	DataCRC    uint32
}

// WriteTo encodes the header, including magic and header CRC, into a
// 28-byte slot.
func (h *FrameHeader) WriteTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], FrameMagic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Width)
	binary.LittleEndian.PutUint16(buf[6:8], h.Height)
	binary.LittleEndian.PutUint16(buf[8:10], h.FrameCount)
	binary.LittleEndian.PutUint16(buf[10:12], h.DelayMS)
	binary.LittleEndian.PutUint32(buf[12:16], h.DataOffset)
	binary.LittleEndian.PutUint32(buf[16:20], h.DataLength)
	binary.LittleEndian.PutUint32(buf[20:24], h.DataCRC)
	binary.LittleEndian.PutUint32(buf[24:28], hubproto.Checksum(buf[:24]))
}

// ReadFrameHeader decodes one header slot. A slot without the magic is
// reported as (nil, nil): no entry, not an error. A slot with the magic
// but a bad header CRC is corrupt.
func ReadFrameHeader(buf []byte) (*FrameHeader, error) {
	if len(buf) < FrameHeaderSize {
		return nil, fmt.Errorf("frame header too short: %d bytes", len(buf))
	}
	if binary.LittleEndian.Uint32(buf[0:4]) != FrameMagic {
		return nil, nil
	}
	expected := hubproto.Checksum(buf[:24])
	actual := binary.LittleEndian.Uint32(buf[24:28])
	if expected != actual {
		return nil, &hubproto.IntegrityError{Layer: "frame header", Expected: expected, Actual: actual}
	}
	return &FrameHeader{
		Width:      binary.LittleEndian.Uint16(buf[4:6]),
		Height:     binary.LittleEndian.Uint16(buf[6:8]),
		FrameCount: binary.LittleEndian.Uint16(buf[8:10]),
		DelayMS:    binary.LittleEndian.Uint16(buf[10:12]),
		DataOffset: binary.LittleEndian.Uint32(buf[12:16]),
		DataLength: binary.LittleEndian.Uint32(buf[16:20]),
		DataCRC:    binary.LittleEndian.Uint32(buf[20:24]),
	}, nil
}
