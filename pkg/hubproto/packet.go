// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

package hubproto

import (
	"encoding/binary"
	"fmt"
)

// Packet is one 256-byte wire frame: command id, 251 payload bytes, and a
// CRC32 (little-endian) over the first 252 bytes. Packets are value
// types built and consumed per exchange.
type Packet struct {
	buf [PacketSize]byte
}

// NewPacket builds a frame for the given command id and payload. Payloads
// shorter than 251 bytes are zero-padded; longer payloads are rejected.
func NewPacket(cmdID byte, payload []byte) (*Packet, error) {
	if len(payload) > PayloadSize {
		return nil, fmt.Errorf("payload too large: %d > %d", len(payload), PayloadSize)
	}
	p := &Packet{}
	p.buf[0] = cmdID
	copy(p.buf[1:], payload)
	putChecksum(p.buf[crcOffset:], p.buf[:crcOffset])
	return p, nil
}

// ParsePacket validates a received 256-byte frame. The only check
// performed here is whole-frame integrity: the CRC32 must match.
// Command-id legality and payload semantics belong to the command layer.
func ParsePacket(buf []byte) (*Packet, error) {
	if len(buf) != PacketSize {
		return nil, fmt.Errorf("packet must be %d bytes, got %d", PacketSize, len(buf))
	}
	expected := Checksum(buf[:crcOffset])
	actual := binary.LittleEndian.Uint32(buf[crcOffset:])
	if expected != actual {
		return nil, &IntegrityError{Layer: "packet", Expected: expected, Actual: actual}
	}
	p := &Packet{}
	copy(p.buf[:], buf)
	return p, nil
}

// CmdID returns the frame's command id.
func (p *Packet) CmdID() byte {
	return p.buf[0]
}

// Payload returns the 251-byte payload region.
func (p *Packet) Payload() []byte {
	return p.buf[1:crcOffset]
}

// Bytes returns the full 256-byte wire representation.
func (p *Packet) Bytes() []byte {
	return p.buf[:]
}
