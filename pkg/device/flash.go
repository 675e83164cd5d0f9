// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

package device

import (
	"fmt"

	"github.com/hmlab/hubctl/pkg/hubproto"
)

// UploadFlash programs the device's persistent storage with the given
// flash image. The flow is device-driven: after the start request the
// device erases its flash (reported through tag-1 progress packets under
// the long erase timeout), then pulls the image one byte range at a time
// with tag-2 requests. The client only ever answers the range asked for,
// clamped to the end of the buffer; it never pushes unsolicited data.
// Tag 4 signals completion.
func (s *Session) UploadFlash(flash []byte) error {
	start, err := hubproto.NewFlashStartRequest(uint32(len(flash)))
	if err != nil {
		return err
	}
	if err := sendPacket(s.t, start); err != nil {
		return fmt.Errorf("flash upload: %w", err)
	}

	s.reportProgress(Progress{Phase: PhaseAwaitErase, Total: len(flash)})
	if err := s.awaitErase(); err != nil {
		return err
	}

	s.reportProgress(Progress{Phase: PhaseWriting, Total: len(flash)})
	strays := 0
	for {
		resp, err := recvPacket(s.t, s.cfg.normalTimeout)
		if err != nil {
			return fmt.Errorf("flash upload: %w", err)
		}

		switch resp.CmdID() {
		case hubproto.CmdFlash:
			payload := resp.Payload()
			switch payload[0] {
			case hubproto.FlashSubData:
				req := hubproto.ParseFlashChunkRequest(payload)
				if err := s.serveChunk(flash, req); err != nil {
					return err
				}
				sent := int(req.Offset) + int(req.Length)
				if sent > len(flash) {
					sent = len(flash)
				}
				s.reportProgress(Progress{Phase: PhaseWriting, Bytes: sent, Total: len(flash)})
			case hubproto.FlashSubDone:
				s.reportProgress(Progress{Phase: PhaseDone, Bytes: len(flash), Total: len(flash)})
				return nil
			}
		case hubproto.CmdLog:
			s.surface(resp)
		case hubproto.CmdPower:
			// ignore
		default:
			strays++
			if strays > hubproto.StrayPacketBudget {
				return &hubproto.ProtocolError{
					Operation: "flash upload",
					Detail:    fmt.Sprintf("gave up after %d unexpected packets", strays),
				}
			}
		}
	}
}

// awaitErase waits under the erase timeout for the device to report its
// erase sequence complete.
func (s *Session) awaitErase() error {
	strays := 0
	for {
		resp, err := recvPacket(s.t, s.cfg.eraseTimeout)
		if err != nil {
			return fmt.Errorf("flash erase: %w", err)
		}

		switch resp.CmdID() {
		case hubproto.CmdFlash:
			payload := resp.Payload()
			if payload[0] == hubproto.FlashSubStart {
				switch payload[1] {
				case hubproto.EraseStateBusy:
					s.reportProgress(Progress{Phase: PhaseErasing})
				case hubproto.EraseStateDone:
					return nil
				}
			}
		case hubproto.CmdLog:
			s.surface(resp)
		case hubproto.CmdPower:
			// ignore
		default:
			strays++
			if strays > hubproto.StrayPacketBudget {
				return &hubproto.ProtocolError{
					Operation: "flash erase",
					Detail:    fmt.Sprintf("gave up after %d unexpected packets", strays),
				}
			}
		}
	}
}

// serveChunk answers one device pull request with the requested slice,
// clamped when the range overruns the source buffer.
func (s *Session) serveChunk(flash []byte, req hubproto.FlashChunkRequest) error {
	start := int(req.Offset)
	end := start + int(req.Length)
	if start > len(flash) {
		start = len(flash)
	}
	if end > len(flash) {
		end = len(flash)
	}

	resp, err := hubproto.NewFlashDataResponse(req.Offset, req.Length, flash[start:end])
	if err != nil {
		return err
	}
	if err := sendPacket(s.t, resp); err != nil {
		return fmt.Errorf("flash upload: %w", err)
	}
	return nil
}

// ReadFlash reads back the device's entire flash contents. The
// destination buffer is sized from the handshake-reported flash size up
// front; tag-3 packets carry offset-addressed data and tag 4 signals
// completion. A write that would land outside the buffer is dropped
// without error, matching firmware behavior.
func (s *Session) ReadFlash() ([]byte, error) {
	req, err := hubproto.NewFlashReadbackRequest()
	if err != nil {
		return nil, err
	}
	if err := sendPacket(s.t, req); err != nil {
		return nil, fmt.Errorf("flash read: %w", err)
	}

	buf := make([]byte, s.info.FlashSize)
	s.reportProgress(Progress{Phase: PhaseReading, Total: len(buf)})

	strays := 0
	for {
		resp, err := recvPacket(s.t, s.cfg.normalTimeout)
		if err != nil {
			return nil, fmt.Errorf("flash read: %w", err)
		}

		switch resp.CmdID() {
		case hubproto.CmdFlash:
			payload := resp.Payload()
			switch payload[0] {
			case hubproto.FlashSubReadback:
				rng := hubproto.ParseFlashChunkRequest(payload)
				offset, length := int(rng.Offset), int(rng.Length)
				if length > len(payload)-7 {
					length = len(payload) - 7
				}
				if offset >= 0 && offset+length <= len(buf) {
					copy(buf[offset:offset+length], payload[7:7+length])
				}
				s.reportProgress(Progress{Phase: PhaseReading, Bytes: offset + length, Total: len(buf)})
			case hubproto.FlashSubDone:
				s.reportProgress(Progress{Phase: PhaseDone, Bytes: len(buf), Total: len(buf)})
				return buf, nil
			}
		case hubproto.CmdLog:
			s.surface(resp)
		case hubproto.CmdPower:
			// ignore
		default:
			strays++
			if strays > hubproto.StrayPacketBudget {
				return nil, &hubproto.ProtocolError{
					Operation: "flash read",
					Detail:    fmt.Sprintf("gave up after %d unexpected packets", strays),
				}
			}
		}
	}
}
