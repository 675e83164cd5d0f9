// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

package hubproto

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestHandshakeRoundTrip(t *testing.T) {
	payload := make([]byte, 12)
	binary.LittleEndian.PutUint32(payload[0:4], 0xC0190401)
	binary.LittleEndian.PutUint32(payload[4:8], 0x00010203) // 1.2.3
	binary.LittleEndian.PutUint32(payload[8:12], 16*1024*1024)

	resp, err := NewPacket(CmdHandshake, payload)
	if err != nil {
		t.Fatalf("NewPacket failed: %v", err)
	}
	info, err := ParseHandshakeResponse(resp)
	if err != nil {
		t.Fatalf("ParseHandshakeResponse failed: %v", err)
	}
	if info.HardwareID != 0xC0190401 {
		t.Errorf("HardwareID = %#x", info.HardwareID)
	}
	if info.FlashSize != 16*1024*1024 {
		t.Errorf("FlashSize = %d", info.FlashSize)
	}
	if got := info.FirmwareString(); got != "1.2.3" {
		t.Errorf("FirmwareString() = %q, want %q", got, "1.2.3")
	}
}

func TestParseHandshakeResponse_WrongCmd(t *testing.T) {
	p, err := NewPacket(CmdPower, nil)
	if err != nil {
		t.Fatalf("NewPacket failed: %v", err)
	}
	_, err = ParseHandshakeResponse(p)
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("got %T, want *ProtocolError", err)
	}
}

func TestNewFlashStartRequest(t *testing.T) {
	p, err := NewFlashStartRequest(0x00123456)
	if err != nil {
		t.Fatalf("NewFlashStartRequest failed: %v", err)
	}
	if p.CmdID() != CmdFlash {
		t.Errorf("CmdID() = %d, want %d", p.CmdID(), CmdFlash)
	}
	payload := p.Payload()
	if payload[0] != FlashSubStart {
		t.Errorf("sub-command = %d, want %d", payload[0], FlashSubStart)
	}
	if got := binary.LittleEndian.Uint32(payload[1:5]); got != 0x00123456 {
		t.Errorf("total size = %#x", got)
	}
}

func TestFlashDataResponse(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	p, err := NewFlashDataResponse(4096, 4, data)
	if err != nil {
		t.Fatalf("NewFlashDataResponse failed: %v", err)
	}
	payload := p.Payload()
	if payload[0] != FlashSubData {
		t.Errorf("sub-command = %d, want %d", payload[0], FlashSubData)
	}
	if got := binary.LittleEndian.Uint32(payload[1:5]); got != 4096 {
		t.Errorf("offset = %d", got)
	}
	if got := binary.LittleEndian.Uint16(payload[5:7]); got != 4 {
		t.Errorf("length = %d", got)
	}
	if !bytes.Equal(payload[7:11], data) {
		t.Errorf("data = % x", payload[7:11])
	}
}

func TestParseFlashChunkRequest(t *testing.T) {
	payload := make([]byte, 7)
	payload[0] = FlashSubData
	binary.LittleEndian.PutUint32(payload[1:5], 9900)
	binary.LittleEndian.PutUint16(payload[5:7], 240)

	rng := ParseFlashChunkRequest(payload)
	if rng.Offset != 9900 || rng.Length != 240 {
		t.Errorf("got offset=%d length=%d", rng.Offset, rng.Length)
	}
}

func TestParsePowerStats(t *testing.T) {
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint16(payload[0:2], 5021)
	binary.LittleEndian.PutUint16(payload[2:4], 910)
	binary.LittleEndian.PutUint16(payload[4:6], 0)
	binary.LittleEndian.PutUint16(payload[6:8], 1450)

	p, err := NewPacket(CmdPower, payload)
	if err != nil {
		t.Fatalf("NewPacket failed: %v", err)
	}
	stats, err := ParsePowerStats(p)
	if err != nil {
		t.Fatalf("ParsePowerStats failed: %v", err)
	}
	want := PowerStats{BusVoltage: 5021, CurrentPort1: 910, CurrentPort2: 0, CurrentPort3: 1450}
	if stats != want {
		t.Errorf("got %+v, want %+v", stats, want)
	}

	wrong, _ := NewPacket(CmdLog, nil)
	if _, err := ParsePowerStats(wrong); err == nil {
		t.Error("expected error for wrong command id")
	}
}

func TestParseLogMessage(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    string
	}{
		{
			name:    "plain text",
			payload: append([]byte{5}, []byte("hello")...),
			want:    "hello",
		},
		{
			name:    "length clamped to payload",
			payload: append([]byte{255}, []byte("short")...),
			want:    "short" + string(make([]byte, PayloadSize-1-5)),
		},
		{
			name:    "invalid utf-8 replaced",
			payload: []byte{3, 'o', 0xFF, 'k'},
			want:    "o�k",
		},
		{
			name:    "empty",
			payload: []byte{0},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPacket(CmdLog, tt.payload)
			if err != nil {
				t.Fatalf("NewPacket failed: %v", err)
			}
			got, err := ParseLogMessage(p)
			if err != nil {
				t.Fatalf("ParseLogMessage failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
