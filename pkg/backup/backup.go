// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

// Package backup frames a whole-device snapshot (config record + flash
// image) as a single file with end-to-end integrity.
package backup

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/hmlab/hubctl/pkg/hubproto"
)

// File format: "HMHUB" + version byte + u32 LE config length + config
// bytes + u32 LE flash length + flash bytes + CRC32 LE over everything
// preceding it.
const (
	Version = 1

	// magic + version + two length fields + trailing CRC
	minSize = 5 + 1 + 4 + 4 + 4
)

var magic = []byte("HMHUB")

// Snapshot holds the two sections of a device backup.
type Snapshot struct {
	Config []byte
	Flash  []byte
}

// Marshal serializes a snapshot to the backup file format.
func Marshal(s *Snapshot) []byte {
	out := make([]byte, 0, minSize+len(s.Config)+len(s.Flash))
	out = append(out, magic...)
	out = append(out, Version)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(s.Config)))
	out = append(out, s.Config...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(s.Flash)))
	out = append(out, s.Flash...)
	out = binary.LittleEndian.AppendUint32(out, hubproto.Checksum(out))
	return out
}

// Unmarshal validates and parses a backup file. Magic and version are
// checked first, then the trailing CRC32 over all preceding bytes; only
// after the whole file verifies are the length-prefixed sections
// trusted. Any mismatch is fatal, never partially recovered.
func Unmarshal(data []byte) (*Snapshot, error) {
	if len(data) < minSize {
		return nil, &hubproto.ProtocolError{
			Operation: "backup",
			Detail:    fmt.Sprintf("file too small: %d bytes", len(data)),
		}
	}
	if !bytes.Equal(data[:5], magic) {
		return nil, &hubproto.ProtocolError{Operation: "backup", Detail: "bad magic, not a hub backup file"}
	}
	if data[5] != Version {
		return nil, &hubproto.ProtocolError{
			Operation: "backup",
			Detail:    fmt.Sprintf("unsupported version: %d", data[5]),
		}
	}

	body := data[:len(data)-4]
	expected := hubproto.Checksum(body)
	actual := binary.LittleEndian.Uint32(data[len(data)-4:])
	if expected != actual {
		return nil, &hubproto.IntegrityError{Layer: "backup", Expected: expected, Actual: actual}
	}

	pos := 6
	configLen := int(binary.LittleEndian.Uint32(body[pos : pos+4]))
	pos += 4
	if pos+configLen+4 > len(body) {
		return nil, &hubproto.ProtocolError{Operation: "backup", Detail: "config section truncated"}
	}
	config := body[pos : pos+configLen]
	pos += configLen

	flashLen := int(binary.LittleEndian.Uint32(body[pos : pos+4]))
	pos += 4
	if pos+flashLen > len(body) {
		return nil, &hubproto.ProtocolError{Operation: "backup", Detail: "flash section truncated"}
	}
	flash := body[pos : pos+flashLen]

	s := &Snapshot{
		Config: append([]byte(nil), config...),
		Flash:  append([]byte(nil), flash...),
	}
	return s, nil
}
