// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

package device

import (
	"fmt"
	"io"
	"time"

	"github.com/hmlab/hubctl/pkg/hubproto"
)

// Transport is the byte stream a session talks over. It must be
// full-duplex, reliable, and ordered; the protocol has no reordering or
// retransmission logic of its own. go.bug.st/serial's Port satisfies
// this interface directly; the WebSocket bridge wrapper in cmd/ adapts
// read deadlines to SetReadTimeout.
type Transport interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds subsequent Read calls. A timed-out Read
	// returns 0 bytes and no error, matching go.bug.st/serial.
	SetReadTimeout(t time.Duration) error

	// Drain blocks until buffered output has been transmitted.
	Drain() error
}

// TimeoutError indicates no complete packet arrived within the read
// deadline. Timeouts are fatal to the operation in progress.
type TimeoutError struct {
	Op       string
	Timeout  time.Duration
	Received int // bytes of a partial frame already read, if any
}

func (e *TimeoutError) Error() string {
	if e.Received > 0 {
		return fmt.Sprintf("%s: timeout after %s (%d/%d bytes received)",
			e.Op, e.Timeout, e.Received, hubproto.PacketSize)
	}
	return fmt.Sprintf("%s: timeout after %s", e.Op, e.Timeout)
}

// sendPacket writes one frame and drains the transport so the device
// sees it promptly.
func sendPacket(t Transport, p *hubproto.Packet) error {
	if _, err := t.Write(p.Bytes()); err != nil {
		return fmt.Errorf("write packet: %w", err)
	}
	if err := t.Drain(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// recvPacket reads one full 256-byte frame under the given deadline and
// validates its CRC. Partial reads are accumulated; a read that makes no
// progress past the deadline fails.
func recvPacket(t Transport, timeout time.Duration) (*hubproto.Packet, error) {
	if err := t.SetReadTimeout(timeout); err != nil {
		return nil, fmt.Errorf("set read timeout: %w", err)
	}

	var buf [hubproto.PacketSize]byte
	pos := 0
	deadline := time.Now().Add(timeout)
	for pos < hubproto.PacketSize {
		if time.Now().After(deadline) {
			return nil, &TimeoutError{Op: "read packet", Timeout: timeout, Received: pos}
		}
		n, err := t.Read(buf[pos:])
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("transport closed (%d/%d bytes received)", pos, hubproto.PacketSize)
			}
			return nil, fmt.Errorf("read packet: %w", err)
		}
		if n == 0 && pos == 0 {
			return nil, &TimeoutError{Op: "read packet", Timeout: timeout}
		}
		pos += n
	}
	return hubproto.ParsePacket(buf[:])
}
