// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

// Package device drives protocol sessions with a Z-NEO hub. A Session
// owns one open transport and the identity retrieved by the handshake;
// every high-level operation is a bounded sequence of blocking packet
// exchanges. Operations run strictly sequentially: the protocol serves
// one caller per transport and defines no interleaving.
package device

import (
	"fmt"

	"github.com/hmlab/hubctl/pkg/hubproto"
)

// Session is one open, handshaken connection to a device.
type Session struct {
	t    Transport
	cfg  config
	info hubproto.DeviceInfo
}

// Open performs the handshake on an already-opened transport and returns
// a ready session. The transport is not closed on handshake failure; the
// caller owns it until Open succeeds.
func Open(t Transport, opts ...Option) (*Session, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Session{t: t, cfg: cfg}

	req, err := hubproto.NewHandshakeRequest()
	if err != nil {
		return nil, err
	}
	if err := sendPacket(s.t, req); err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}
	resp, err := recvPacket(s.t, cfg.normalTimeout)
	if err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}
	info, err := hubproto.ParseHandshakeResponse(resp)
	if err != nil {
		return nil, err
	}
	s.info = info
	return s, nil
}

// Info returns the identity cached at handshake time.
func (s *Session) Info() hubproto.DeviceInfo {
	return s.info
}

// Close closes the underlying transport.
func (s *Session) Close() error {
	return s.t.Close()
}

// surface hands an interleaved device log packet to the configured
// callback. Malformed log packets are dropped; they are diagnostics,
// not protocol.
func (s *Session) surface(p *hubproto.Packet) {
	if s.cfg.deviceLog == nil {
		return
	}
	if msg, err := hubproto.ParseLogMessage(p); err == nil {
		s.cfg.deviceLog(msg)
	}
}

// ReadConfig retrieves the device settings record. The device answers
// with "wait" packets until ready, then streams the record through the
// chunk codec. Interleaved log and power packets are tolerated; anything
// else counts against the stray-packet budget.
func (s *Session) ReadConfig() (*hubproto.DeviceConfig, error) {
	req, err := hubproto.NewConfigReadRequest()
	if err != nil {
		return nil, err
	}
	if err := sendPacket(s.t, req); err != nil {
		return nil, fmt.Errorf("config read: %w", err)
	}

	asm := hubproto.NewChunkAssembler()
	strays := 0

	for {
		resp, err := recvPacket(s.t, s.cfg.normalTimeout)
		if err != nil {
			return nil, fmt.Errorf("config read: %w", err)
		}

		switch resp.CmdID() {
		case hubproto.CmdConfig:
			payload := resp.Payload()
			switch payload[0] {
			case hubproto.ConfigSubWait:
				continue
			case hubproto.ConfigSubData:
				data, done, err := asm.Feed(payload)
				if err != nil {
					return nil, err
				}
				if done {
					return hubproto.ParseConfig(data)
				}
			default:
				strays++
				if strays > hubproto.StrayPacketBudget {
					return nil, &hubproto.ProtocolError{
						Operation: "config read",
						Detail:    fmt.Sprintf("unexpected config sub-command %d", payload[0]),
					}
				}
			}
		case hubproto.CmdLog:
			s.surface(resp)
		case hubproto.CmdPower:
			// Telemetry interleaves freely; not a stray.
		default:
			strays++
			if strays > hubproto.StrayPacketBudget {
				return nil, &hubproto.ProtocolError{
					Operation: "config read",
					Detail:    fmt.Sprintf("gave up after %d unexpected packets", strays),
				}
			}
		}
	}
}

// WriteConfig sends the settings record through the chunk codec. The
// device does not acknowledge a config write.
func (s *Session) WriteConfig(c *hubproto.DeviceConfig) error {
	packets, err := hubproto.EncodeChunked(hubproto.CmdConfig, hubproto.ConfigSubData, c.Bytes())
	if err != nil {
		return err
	}
	for _, p := range packets {
		if err := sendPacket(s.t, p); err != nil {
			return fmt.Errorf("config write: %w", err)
		}
	}
	return nil
}

// ReadPower returns the next power telemetry sample, surfacing any
// interleaved log packets.
func (s *Session) ReadPower() (hubproto.PowerStats, error) {
	for {
		resp, err := recvPacket(s.t, s.cfg.normalTimeout)
		if err != nil {
			return hubproto.PowerStats{}, fmt.Errorf("power read: %w", err)
		}
		switch resp.CmdID() {
		case hubproto.CmdPower:
			return hubproto.ParsePowerStats(resp)
		case hubproto.CmdLog:
			s.surface(resp)
		}
	}
}

// Event is a telemetry item produced by ReadEvent: either a PowerEvent
// or a LogEvent.
type Event interface {
	isEvent()
}

// PowerEvent carries one power telemetry sample.
type PowerEvent struct {
	Stats hubproto.PowerStats
}

// LogEvent carries one device log line.
type LogEvent struct {
	Message string
}

func (PowerEvent) isEvent() {}
func (LogEvent) isEvent()   {}

// ReadEvent blocks until the device emits a power or log packet and
// returns it as a typed event. Monitoring loops call this until the
// process is cancelled; the protocol has no in-band stop message.
func (s *Session) ReadEvent() (Event, error) {
	for {
		resp, err := recvPacket(s.t, s.cfg.normalTimeout)
		if err != nil {
			return nil, fmt.Errorf("monitor: %w", err)
		}
		switch resp.CmdID() {
		case hubproto.CmdPower:
			stats, err := hubproto.ParsePowerStats(resp)
			if err != nil {
				return nil, err
			}
			return PowerEvent{Stats: stats}, nil
		case hubproto.CmdLog:
			msg, err := hubproto.ParseLogMessage(resp)
			if err != nil {
				continue
			}
			return LogEvent{Message: msg}, nil
		}
	}
}

// FactoryReset sends the reset request. The device answers nothing and
// reboots.
func (s *Session) FactoryReset() error {
	req, err := hubproto.NewFactoryResetRequest()
	if err != nil {
		return err
	}
	return sendPacket(s.t, req)
}

func (s *Session) reportProgress(p Progress) {
	if s.cfg.progress != nil {
		s.cfg.progress(p)
	}
}
