// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

package device

import (
	"time"

	"github.com/hmlab/hubctl/pkg/hubproto"
)

// Phase identifies what a flash operation is currently doing.
type Phase string

// Flash operation phases reported through the progress callback.
const (
	PhaseAwaitErase Phase = "await-erase"
	PhaseErasing    Phase = "erasing"
	PhaseWriting    Phase = "writing"
	PhaseReading    Phase = "reading"
	PhaseDone       Phase = "done"
)

// Progress is a point-in-time report of a flash upload or readback.
type Progress struct {
	Phase Phase
	Bytes int
	Total int
}

// ProgressCallback receives flash progress reports. Implementations
// should return quickly; the session blocks while it runs.
type ProgressCallback func(Progress)

// DeviceLogFunc receives log lines the device interleaves into any
// exchange. These are diagnostics, never protocol errors.
type DeviceLogFunc func(msg string)

type config struct {
	deviceLog     DeviceLogFunc
	progress      ProgressCallback
	normalTimeout time.Duration
	eraseTimeout  time.Duration
}

func defaultConfig() config {
	return config{
		normalTimeout: hubproto.NormalTimeout,
		eraseTimeout:  hubproto.EraseTimeout,
	}
}

// Option configures a Session at Open time.
type Option func(*config)

// WithDeviceLog sets a callback for interleaved device log lines.
func WithDeviceLog(fn DeviceLogFunc) Option {
	return func(c *config) {
		c.deviceLog = fn
	}
}

// WithProgress sets a callback for flash upload/readback progress.
func WithProgress(fn ProgressCallback) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// WithTimeout overrides the per-exchange read timeout.
func WithTimeout(t time.Duration) Option {
	return func(c *config) {
		if t > 0 {
			c.normalTimeout = t
		}
	}
}

// WithEraseTimeout overrides the long timeout used while the device
// erases its flash.
func WithEraseTimeout(t time.Duration) Option {
	return func(c *config) {
		if t > 0 {
			c.eraseTimeout = t
		}
	}
}
