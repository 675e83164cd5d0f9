// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

package device

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/hmlab/hubctl/pkg/hubproto"
)

// fakeTransport replays a scripted sequence of incoming byte slices and
// captures every outgoing frame. An empty script reads as a timed-out
// Read (0 bytes, no error), matching serial port semantics.
type fakeTransport struct {
	incoming [][]byte
	outgoing []*hubproto.Packet
	closed   bool
}

func (f *fakeTransport) Read(p []byte) (int, error) {
	if len(f.incoming) == 0 {
		return 0, nil
	}
	head := f.incoming[0]
	n := copy(p, head)
	if n == len(head) {
		f.incoming = f.incoming[1:]
	} else {
		f.incoming[0] = head[n:]
	}
	return n, nil
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	pkt, err := hubproto.ParsePacket(p)
	if err != nil {
		return 0, err
	}
	f.outgoing = append(f.outgoing, pkt)
	return len(p), nil
}

func (f *fakeTransport) Close() error { f.closed = true; return nil }

func (f *fakeTransport) SetReadTimeout(time.Duration) error { return nil }

func (f *fakeTransport) Drain() error { return nil }

func (f *fakeTransport) queue(t *testing.T, p *hubproto.Packet) {
	t.Helper()
	f.incoming = append(f.incoming, p.Bytes())
}

func mustPacket(t *testing.T, cmdID byte, payload []byte) *hubproto.Packet {
	t.Helper()
	p, err := hubproto.NewPacket(cmdID, payload)
	if err != nil {
		t.Fatalf("NewPacket failed: %v", err)
	}
	return p
}

func handshakeResponse(t *testing.T, flashSize uint32) *hubproto.Packet {
	t.Helper()
	payload := make([]byte, 12)
	binary.LittleEndian.PutUint32(payload[0:4], 0xC0190401)
	binary.LittleEndian.PutUint32(payload[4:8], 0x00010200)
	binary.LittleEndian.PutUint32(payload[8:12], flashSize)
	return mustPacket(t, hubproto.CmdHandshake, payload)
}

func eraseState(t *testing.T, state byte) *hubproto.Packet {
	t.Helper()
	return mustPacket(t, hubproto.CmdFlash, []byte{hubproto.FlashSubStart, state})
}

func chunkRequest(t *testing.T, offset uint32, length uint16) *hubproto.Packet {
	t.Helper()
	payload := make([]byte, 7)
	payload[0] = hubproto.FlashSubData
	binary.LittleEndian.PutUint32(payload[1:5], offset)
	binary.LittleEndian.PutUint16(payload[5:7], length)
	return mustPacket(t, hubproto.CmdFlash, payload)
}

func readbackData(t *testing.T, offset uint32, data []byte) *hubproto.Packet {
	t.Helper()
	payload := make([]byte, 7+len(data))
	payload[0] = hubproto.FlashSubReadback
	binary.LittleEndian.PutUint32(payload[1:5], offset)
	binary.LittleEndian.PutUint16(payload[5:7], uint16(len(data)))
	copy(payload[7:], data)
	return mustPacket(t, hubproto.CmdFlash, payload)
}

func logPacket(t *testing.T, msg string) *hubproto.Packet {
	t.Helper()
	payload := append([]byte{byte(len(msg))}, msg...)
	return mustPacket(t, hubproto.CmdLog, payload)
}

func powerPacket(t *testing.T, mv uint16) *hubproto.Packet {
	t.Helper()
	payload := make([]byte, 8)
	binary.LittleEndian.PutUint16(payload[0:2], mv)
	return mustPacket(t, hubproto.CmdPower, payload)
}

// newTestSession opens a session over a fake transport whose first
// scripted frame is the handshake response.
func newTestSession(t *testing.T, flashSize uint32, opts ...Option) (*Session, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{}
	ft.queue(t, handshakeResponse(t, flashSize))
	s, err := Open(ft, opts...)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s, ft
}

func TestOpenHandshake(t *testing.T) {
	ft := &fakeTransport{}
	// Split the response across two reads to exercise accumulation.
	resp := handshakeResponse(t, 16*1024*1024).Bytes()
	ft.incoming = append(ft.incoming, resp[:100], resp[100:])

	s, err := Open(ft)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if len(ft.outgoing) != 1 || ft.outgoing[0].CmdID() != hubproto.CmdHandshake {
		t.Fatal("expected exactly one handshake request")
	}
	info := s.Info()
	if info.HardwareID != 0xC0190401 {
		t.Errorf("HardwareID = %#x", info.HardwareID)
	}
	if info.FlashSize != 16*1024*1024 {
		t.Errorf("FlashSize = %d", info.FlashSize)
	}
}

func TestOpenTimeout(t *testing.T) {
	ft := &fakeTransport{}
	_, err := Open(ft)
	if err == nil {
		t.Fatal("expected handshake timeout")
	}
	var terr *TimeoutError
	if !errors.As(err, &terr) {
		t.Fatalf("got %T, want *TimeoutError", err)
	}
}

func TestReadConfig(t *testing.T) {
	raw := make([]byte, hubproto.ConfigSize)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	chunks, err := hubproto.EncodeChunked(hubproto.CmdConfig, hubproto.ConfigSubData, raw)
	if err != nil {
		t.Fatalf("EncodeChunked failed: %v", err)
	}

	var logs []string
	s, ft := newTestSession(t, 16*1024*1024, WithDeviceLog(func(msg string) {
		logs = append(logs, msg)
	}))

	// Device answers: wait, an interleaved log line, telemetry, then the
	// chunked record.
	ft.queue(t, mustPacket(t, hubproto.CmdConfig, []byte{hubproto.ConfigSubWait}))
	ft.queue(t, logPacket(t, "cfg ready"))
	ft.queue(t, powerPacket(t, 5000))
	for _, c := range chunks {
		ft.queue(t, c)
	}

	config, err := s.ReadConfig()
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}
	if !bytes.Equal(config.Bytes(), raw) {
		t.Errorf("config mismatch:\n got %x\nwant %x", config.Bytes(), raw)
	}
	if len(logs) != 1 || logs[0] != "cfg ready" {
		t.Errorf("device logs = %q", logs)
	}
}

func TestReadConfigStrayBudget(t *testing.T) {
	s, ft := newTestSession(t, 16*1024*1024)
	for i := 0; i <= hubproto.StrayPacketBudget; i++ {
		ft.queue(t, mustPacket(t, 99, nil))
	}

	_, err := s.ReadConfig()
	var perr *hubproto.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("got %T (%v), want *ProtocolError", err, err)
	}
}

func TestWriteConfig(t *testing.T) {
	s, ft := newTestSession(t, 16*1024*1024)
	sentBefore := len(ft.outgoing)

	config := &hubproto.DeviceConfig{Brightness: 20, ScreenDir: 2}
	if err := s.WriteConfig(config); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}

	sent := ft.outgoing[sentBefore:]
	if len(sent) != 1 {
		t.Fatalf("sent %d packets, want 1", len(sent))
	}
	if sent[0].CmdID() != hubproto.CmdConfig {
		t.Errorf("CmdID() = %d", sent[0].CmdID())
	}

	asm := hubproto.NewChunkAssembler()
	data, done, err := asm.Feed(sent[0].Payload())
	if err != nil || !done {
		t.Fatalf("reassembly: done=%v err=%v", done, err)
	}
	if !bytes.Equal(data, config.Bytes()) {
		t.Error("transmitted config does not match")
	}
}

func TestUploadFlash(t *testing.T) {
	flash := make([]byte, 10000)
	for i := range flash {
		flash[i] = byte(i * 11)
	}

	var phases []Phase
	s, ft := newTestSession(t, 16*1024*1024, WithProgress(func(p Progress) {
		phases = append(phases, p.Phase)
	}))

	ft.queue(t, eraseState(t, hubproto.EraseStateBusy))
	ft.queue(t, eraseState(t, hubproto.EraseStateDone))
	ft.queue(t, chunkRequest(t, 0, 240))
	ft.queue(t, chunkRequest(t, 9900, 240)) // runs past the end, clamps to 100
	ft.queue(t, mustPacket(t, hubproto.CmdFlash, []byte{hubproto.FlashSubDone}))

	if err := s.UploadFlash(flash); err != nil {
		t.Fatalf("UploadFlash failed: %v", err)
	}

	sent := ft.outgoing[1:] // skip the handshake request
	if len(sent) != 3 {
		t.Fatalf("sent %d packets, want 3 (start + two data)", len(sent))
	}

	start := sent[0].Payload()
	if start[0] != hubproto.FlashSubStart {
		t.Errorf("start sub-command = %d", start[0])
	}
	if got := binary.LittleEndian.Uint32(start[1:5]); got != 10000 {
		t.Errorf("start total = %d, want 10000", got)
	}

	first := sent[1].Payload()
	if !bytes.Equal(first[7:7+240], flash[:240]) {
		t.Error("first chunk data mismatch")
	}

	second := sent[2].Payload()
	if got := binary.LittleEndian.Uint32(second[1:5]); got != 9900 {
		t.Errorf("second chunk offset = %d", got)
	}
	if !bytes.Equal(second[7:7+100], flash[9900:]) {
		t.Error("clamped chunk data mismatch")
	}
	for i := 7 + 100; i < 7+240; i++ {
		if second[i] != 0 {
			t.Fatalf("clamped chunk byte %d = %d, want 0", i, second[i])
		}
	}

	want := []Phase{PhaseAwaitErase, PhaseErasing, PhaseWriting, PhaseWriting, PhaseWriting, PhaseDone}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v", phases)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Fatalf("phase %d = %s, want %s", i, phases[i], want[i])
		}
	}
}

func TestUploadFlashEraseTimeout(t *testing.T) {
	s, ft := newTestSession(t, 16*1024*1024, WithEraseTimeout(time.Millisecond))
	ft.queue(t, eraseState(t, hubproto.EraseStateBusy))
	// No erase-done follows; the upload must fail rather than hang.

	err := s.UploadFlash(make([]byte, 512))
	if err == nil {
		t.Fatal("expected erase timeout")
	}
	var terr *TimeoutError
	if !errors.As(err, &terr) {
		t.Fatalf("got %T (%v), want *TimeoutError", err, err)
	}
}

func TestReadFlash(t *testing.T) {
	s, ft := newTestSession(t, 1024)

	chunk := make([]byte, 16)
	for i := range chunk {
		chunk[i] = byte(0xF0 + i)
	}
	ft.queue(t, readbackData(t, 0, chunk))
	ft.queue(t, readbackData(t, 2000, chunk)) // outside the buffer, dropped
	ft.queue(t, mustPacket(t, hubproto.CmdFlash, []byte{hubproto.FlashSubDone}))

	buf, err := s.ReadFlash()
	if err != nil {
		t.Fatalf("ReadFlash failed: %v", err)
	}
	if len(buf) != 1024 {
		t.Fatalf("buffer size = %d, want 1024", len(buf))
	}
	if !bytes.Equal(buf[:16], chunk) {
		t.Error("readback data mismatch")
	}
	for i := 16; i < len(buf); i++ {
		if buf[i] != 0 {
			t.Fatalf("byte %d = %d, want 0", i, buf[i])
		}
	}
}

func TestReadPower(t *testing.T) {
	var logs []string
	s, ft := newTestSession(t, 1024, WithDeviceLog(func(msg string) {
		logs = append(logs, msg)
	}))

	ft.queue(t, logPacket(t, "boot ok"))
	ft.queue(t, powerPacket(t, 5021))

	stats, err := s.ReadPower()
	if err != nil {
		t.Fatalf("ReadPower failed: %v", err)
	}
	if stats.BusVoltage != 5021 {
		t.Errorf("BusVoltage = %d", stats.BusVoltage)
	}
	if len(logs) != 1 || logs[0] != "boot ok" {
		t.Errorf("device logs = %q", logs)
	}
}

func TestReadEvent(t *testing.T) {
	s, ft := newTestSession(t, 1024)
	ft.queue(t, powerPacket(t, 4800))
	ft.queue(t, logPacket(t, "usb attach"))

	ev, err := s.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	pe, ok := ev.(PowerEvent)
	if !ok {
		t.Fatalf("got %T, want PowerEvent", ev)
	}
	if pe.Stats.BusVoltage != 4800 {
		t.Errorf("BusVoltage = %d", pe.Stats.BusVoltage)
	}

	ev, err = s.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	le, ok := ev.(LogEvent)
	if !ok {
		t.Fatalf("got %T, want LogEvent", ev)
	}
	if le.Message != "usb attach" {
		t.Errorf("Message = %q", le.Message)
	}
}

func TestFactoryReset(t *testing.T) {
	s, ft := newTestSession(t, 1024)
	if err := s.FactoryReset(); err != nil {
		t.Fatalf("FactoryReset failed: %v", err)
	}
	last := ft.outgoing[len(ft.outgoing)-1]
	if last.CmdID() != hubproto.CmdFactoryReset {
		t.Errorf("CmdID() = %d, want %d", last.CmdID(), hubproto.CmdFactoryReset)
	}
}

func TestClose(t *testing.T) {
	s, ft := newTestSession(t, 1024)
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !ft.closed {
		t.Error("transport not closed")
	}
}
