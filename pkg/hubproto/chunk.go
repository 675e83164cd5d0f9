// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

package hubproto

import (
	"encoding/binary"
	"fmt"
)

// chunkHeaderSize is the per-piece header: sub-command (1) + total chunk
// count (u16) + chunk index (u16) + chunk length (u16), all little-endian.
const chunkHeaderSize = 7

// EncodeChunked fragments data into packets for a payload that does not
// fit a single frame. A CRC32 of the data is appended before splitting,
// so the receiver can verify the reassembled buffer end to end. Each
// piece carries at most ChunkDataSize bytes.
func EncodeChunked(cmdID, subCmd byte, data []byte) ([]*Packet, error) {
	full := make([]byte, len(data)+4)
	copy(full, data)
	putChecksum(full[len(data):], data)

	total := (len(full) + ChunkDataSize - 1) / ChunkDataSize
	if total > 0xFFFF {
		return nil, fmt.Errorf("data too large for chunked transfer: %d bytes", len(data))
	}

	packets := make([]*Packet, 0, total)
	for i := 0; i < total; i++ {
		piece := full[i*ChunkDataSize:]
		if len(piece) > ChunkDataSize {
			piece = piece[:ChunkDataSize]
		}

		payload := make([]byte, chunkHeaderSize+len(piece))
		payload[0] = subCmd
		binary.LittleEndian.PutUint16(payload[1:3], uint16(total))
		binary.LittleEndian.PutUint16(payload[3:5], uint16(i))
		binary.LittleEndian.PutUint16(payload[5:7], uint16(len(piece)))
		copy(payload[chunkHeaderSize:], piece)

		pkt, err := NewPacket(cmdID, payload)
		if err != nil {
			return nil, err
		}
		packets = append(packets, pkt)
	}
	return packets, nil
}

// ChunkAssembler reassembles a chunked transfer. Pieces must arrive in
// order; the transport's ordered-delivery guarantee makes reordering and
// deduplication unnecessary. Feed returns the completed buffer once the
// expected number of pieces has arrived and the trailing CRC32 verifies.
type ChunkAssembler struct {
	buf      []byte
	total    int
	received int
	started  bool
}

// NewChunkAssembler returns an empty assembler.
func NewChunkAssembler() *ChunkAssembler {
	return &ChunkAssembler{}
}

// Feed consumes one chunk-carrying packet payload. It returns
// (nil, false, nil) while the transfer is incomplete and
// (data, true, nil) when the final piece arrives and the CRC verifies.
// Feeding a piece after a completed reassembly starts a fresh one.
func (a *ChunkAssembler) Feed(payload []byte) ([]byte, bool, error) {
	if len(payload) < chunkHeaderSize {
		return nil, false, fmt.Errorf("chunk payload too short: %d bytes", len(payload))
	}
	total := int(binary.LittleEndian.Uint16(payload[1:3]))
	length := int(binary.LittleEndian.Uint16(payload[5:7]))
	if length > len(payload)-chunkHeaderSize {
		return nil, false, fmt.Errorf("chunk length %d exceeds payload", length)
	}

	if !a.started {
		a.started = true
		a.total = total
		a.received = 0
		a.buf = a.buf[:0]
	}

	a.buf = append(a.buf, payload[chunkHeaderSize:chunkHeaderSize+length]...)
	a.received++

	if a.received < a.total {
		return nil, false, nil
	}

	// Transfer complete: strip and verify the trailing CRC32.
	a.started = false
	if len(a.buf) < 4 {
		return nil, false, fmt.Errorf("chunked data too small: %d bytes", len(a.buf))
	}
	dataLen := len(a.buf) - 4
	expected := Checksum(a.buf[:dataLen])
	actual := binary.LittleEndian.Uint32(a.buf[dataLen:])
	if expected != actual {
		return nil, false, &IntegrityError{Layer: "chunk", Expected: expected, Actual: actual}
	}

	data := make([]byte, dataLen)
	copy(data, a.buf[:dataLen])
	return data, true, nil
}
