// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

package hubproto

import (
	"encoding/binary"
	"hash/crc32"
)

// Checksum computes the CRC-32 (IEEE polynomial) the firmware uses at
// every integrity layer of the protocol.
func Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// putChecksum appends/overwrites a little-endian CRC32 of data into dst.
// dst must be at least 4 bytes.
func putChecksum(dst, data []byte) {
	binary.LittleEndian.PutUint32(dst, Checksum(data))
}
