// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

package hubproto

import "fmt"

// IntegrityError indicates a CRC32 mismatch at the packet, chunk,
// frame-header, or backup layer. A corrupted exchange cannot be trusted,
// so integrity errors are always fatal to the current operation and are
// never retried.
type IntegrityError struct {
	Layer    string // "packet", "chunk", "frame header", "backup"
	Expected uint32
	Actual   uint32
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s CRC mismatch: expected 0x%08X, got 0x%08X",
		e.Layer, e.Expected, e.Actual)
}

// ProtocolError indicates the device sent something the protocol does not
// allow at this point: a wrong command id, a bad sub-command, or more
// stray packets than the operation's budget tolerates.
type ProtocolError struct {
	Operation string
	Detail    string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, e.Detail)
}

// IsIntegrityError reports whether err is an IntegrityError.
func IsIntegrityError(err error) bool {
	_, ok := err.(*IntegrityError)
	return ok
}
