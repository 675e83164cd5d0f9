// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

// Package hubproto implements the Z-NEO 8K USB hub serial protocol.
//
// The hub speaks fixed 256-byte CRC32-protected frames over a reliable
// ordered byte stream (USB CDC serial at 115200 8N1, or a WebSocket
// bridge carrying the same bytes). This package provides the packet
// codec, the chunked-transfer codec for payloads spanning multiple
// packets, and stateless builders/parsers for every command. It performs
// no I/O; the session layer in pkg/device drives the exchanges.
package hubproto

import "time"

// Wire frame geometry. These are firmware contracts; do not change.
const (
	PacketSize  = 256 // cmd id (1) + payload (251) + CRC32 (4)
	PayloadSize = 251
	crcOffset   = 252
)

// ChunkDataSize is the number of raw bytes carried per chunk packet.
// The 7-byte chunk header (sub-command, total, index, length) plus 240
// data bytes fits inside a 251-byte packet payload.
const ChunkDataSize = 240

// Command ids.
const (
	CmdHandshake    = 1
	CmdConfig       = 3
	CmdFactoryReset = 6
	CmdFlash        = 8
	CmdPower        = 9
	CmdLog          = 10
)

// Config sub-commands (device -> host during a config read).
const (
	ConfigSubWait = 1 // device not ready, keep waiting
	ConfigSubData = 2 // chunked config data follows
)

// Flash sub-commands / tags.
const (
	FlashSubStart    = 1 // host -> device: begin upload, carries total size
	FlashSubData     = 2 // both directions: chunk request / chunk response
	FlashSubReadback = 3 // host -> device: request readback; device -> host: data
	FlashSubDone     = 4 // device -> host: operation complete
)

// Erase sub-states carried in a FlashSubStart progress notification.
const (
	EraseStateBusy = 2
	EraseStateDone = 4
)

// Default exchange timeouts. Flash erase stalls the device for tens of
// seconds, so the upload path waits under EraseTimeout until the device
// reports the erase complete.
const (
	NormalTimeout = 2 * time.Second
	EraseTimeout  = 60 * time.Second
)

// SerialBaudRate is the fixed CDC baud rate of the hub.
const SerialBaudRate = 115200

// StrayPacketBudget is the number of unexpected packets an operation
// tolerates before failing with a ProtocolError.
const StrayPacketBudget = 10
