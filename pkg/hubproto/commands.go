// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

package hubproto

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Command builder and parser functions. Builders produce ready-to-send
// packets; parsers extract typed values and reject packets whose command
// id does not match what the caller expects. None of these touch I/O.

// DeviceInfo is the identity reported by the handshake response. It is
// cached for the lifetime of an open session.
type DeviceInfo struct {
	HardwareID uint32
	Firmware   uint32 // packed 8-bit major/minor/patch from the MSB down
	FlashSize  uint32
}

// FirmwareString renders the packed firmware version as major.minor.patch.
func (d DeviceInfo) FirmwareString() string {
	return fmt.Sprintf("%d.%d.%d", (d.Firmware>>16)&0xFF, (d.Firmware>>8)&0xFF, d.Firmware&0xFF)
}

// PowerStats is one USB power telemetry sample: bus voltage in mV and
// per-port currents in mA.
type PowerStats struct {
	BusVoltage   uint16
	CurrentPort1 uint16
	CurrentPort2 uint16
	CurrentPort3 uint16
}

// NewHandshakeRequest builds the initial handshake packet.
func NewHandshakeRequest() (*Packet, error) {
	return NewPacket(CmdHandshake, nil)
}

// ParseHandshakeResponse extracts the device identity from a handshake
// response.
func ParseHandshakeResponse(p *Packet) (DeviceInfo, error) {
	if p.CmdID() != CmdHandshake {
		return DeviceInfo{}, &ProtocolError{
			Operation: "handshake",
			Detail:    fmt.Sprintf("expected cmd %d, got %d", CmdHandshake, p.CmdID()),
		}
	}
	payload := p.Payload()
	return DeviceInfo{
		HardwareID: binary.LittleEndian.Uint32(payload[0:4]),
		Firmware:   binary.LittleEndian.Uint32(payload[4:8]),
		FlashSize:  binary.LittleEndian.Uint32(payload[8:12]),
	}, nil
}

// NewConfigReadRequest builds the config-read request (sub-command 1).
func NewConfigReadRequest() (*Packet, error) {
	return NewPacket(CmdConfig, []byte{ConfigSubWait})
}

// NewFlashStartRequest builds the flash upload start packet carrying the
// total transfer size in bytes.
func NewFlashStartRequest(totalSize uint32) (*Packet, error) {
	payload := make([]byte, 5)
	payload[0] = FlashSubStart
	binary.LittleEndian.PutUint32(payload[1:5], totalSize)
	return NewPacket(CmdFlash, payload)
}

// NewFlashDataResponse answers a device pull request, echoing the
// requested offset and length followed by the (possibly clamped) bytes.
func NewFlashDataResponse(offset uint32, length uint16, data []byte) (*Packet, error) {
	if len(data) > PayloadSize-7 {
		data = data[:PayloadSize-7]
	}
	payload := make([]byte, 7+len(data))
	payload[0] = FlashSubData
	binary.LittleEndian.PutUint32(payload[1:5], offset)
	binary.LittleEndian.PutUint16(payload[5:7], length)
	copy(payload[7:], data)
	return NewPacket(CmdFlash, payload)
}

// FlashChunkRequest is a device-issued pull request for a byte range of
// the upload buffer.
type FlashChunkRequest struct {
	Offset uint32
	Length uint16
}

// ParseFlashChunkRequest decodes the offset/length of a FlashSubData
// pull request payload (the sub-command byte must already be verified).
func ParseFlashChunkRequest(payload []byte) FlashChunkRequest {
	return FlashChunkRequest{
		Offset: binary.LittleEndian.Uint32(payload[1:5]),
		Length: binary.LittleEndian.Uint16(payload[5:7]),
	}
}

// NewFlashReadbackRequest builds the flash readback request.
func NewFlashReadbackRequest() (*Packet, error) {
	return NewPacket(CmdFlash, []byte{FlashSubReadback})
}

// NewFactoryResetRequest builds the fire-and-forget factory reset packet.
func NewFactoryResetRequest() (*Packet, error) {
	return NewPacket(CmdFactoryReset, nil)
}

// ParsePowerStats extracts a power telemetry sample.
func ParsePowerStats(p *Packet) (PowerStats, error) {
	if p.CmdID() != CmdPower {
		return PowerStats{}, &ProtocolError{
			Operation: "power stats",
			Detail:    fmt.Sprintf("expected cmd %d, got %d", CmdPower, p.CmdID()),
		}
	}
	payload := p.Payload()
	return PowerStats{
		BusVoltage:   binary.LittleEndian.Uint16(payload[0:2]),
		CurrentPort1: binary.LittleEndian.Uint16(payload[2:4]),
		CurrentPort2: binary.LittleEndian.Uint16(payload[4:6]),
		CurrentPort3: binary.LittleEndian.Uint16(payload[6:8]),
	}, nil
}

// ParseLogMessage extracts a device log line: a length byte followed by
// text. Firmware log lines are not guaranteed to be valid UTF-8, so the
// text is decoded permissively.
func ParseLogMessage(p *Packet) (string, error) {
	if p.CmdID() != CmdLog {
		return "", &ProtocolError{
			Operation: "log message",
			Detail:    fmt.Sprintf("expected cmd %d, got %d", CmdLog, p.CmdID()),
		}
	}
	payload := p.Payload()
	n := int(payload[0])
	if n > len(payload)-1 {
		n = len(payload) - 1
	}
	return strings.ToValidUTF8(string(payload[1:1+n]), "�"), nil
}
