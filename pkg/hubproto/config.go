// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

package hubproto

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// ConfigSize is the size of the device settings record.
const ConfigSize = 24

// DeviceConfig is the hub's 24-byte fixed-layout settings record. The
// byte positions are a firmware contract; encoding and decoding use
// explicit offsets, never automatic struct layout. Reserved bytes are
// carried through unchanged so a read-modify-write round-trips exactly.
type DeviceConfig struct {
	Language       uint8
	WebHelp        uint8
	MemoryPage     uint8
	ScreenDir      uint8 // rotation code, see Set("rotation", ...)
	Brightness     uint8 // 0-30
	AlbumCutBlack  uint8 // crop to fill (1) or letterbox (0)
	AlbumCutFrame  uint8
	FunSingleClick uint8
	FunDoubleClick uint8
	FunTilt        uint8
	FunShake       uint8
	FunShakeSens   uint8
	ScreenOnOffUSB uint8
	Reserved       [5]uint8
	PowerStyle     uint8
	SwitchRandom   uint8
	SwitchMode     uint16
	SwitchInterval uint8
	SRGBStyle      uint8
}

// ParseConfig decodes a settings record received from the device.
func ParseConfig(data []byte) (*DeviceConfig, error) {
	if len(data) < ConfigSize {
		return nil, fmt.Errorf("config data too short: %d < %d", len(data), ConfigSize)
	}
	c := &DeviceConfig{
		Language:       data[0],
		WebHelp:        data[1],
		MemoryPage:     data[2],
		ScreenDir:      data[3],
		Brightness:     data[4],
		AlbumCutBlack:  data[5],
		AlbumCutFrame:  data[6],
		FunSingleClick: data[7],
		FunDoubleClick: data[8],
		FunTilt:        data[9],
		FunShake:       data[10],
		FunShakeSens:   data[11],
		ScreenOnOffUSB: data[12],
		PowerStyle:     data[18],
		SwitchRandom:   data[19],
		SwitchMode:     binary.LittleEndian.Uint16(data[20:22]),
		SwitchInterval: data[22],
		SRGBStyle:      data[23],
	}
	copy(c.Reserved[:], data[13:18])
	return c, nil
}

// Bytes encodes the record for transmission or backup.
func (c *DeviceConfig) Bytes() []byte {
	b := make([]byte, ConfigSize)
	b[0] = c.Language
	b[1] = c.WebHelp
	b[2] = c.MemoryPage
	b[3] = c.ScreenDir
	b[4] = c.Brightness
	b[5] = c.AlbumCutBlack
	b[6] = c.AlbumCutFrame
	b[7] = c.FunSingleClick
	b[8] = c.FunDoubleClick
	b[9] = c.FunTilt
	b[10] = c.FunShake
	b[11] = c.FunShakeSens
	b[12] = c.ScreenOnOffUSB
	copy(b[13:18], c.Reserved[:])
	b[18] = c.PowerStyle
	b[19] = c.SwitchRandom
	binary.LittleEndian.PutUint16(b[20:22], c.SwitchMode)
	b[22] = c.SwitchInterval
	b[23] = c.SRGBStyle
	return b
}

// Rotation returns the screen rotation in degrees, or -1 for an
// unrecognized code.
func (c *DeviceConfig) Rotation() int {
	// The code order is a firmware quirk: 0->0, 1->180, 2->90, 3->270.
	switch c.ScreenDir {
	case 0:
		return 0
	case 1:
		return 180
	case 2:
		return 90
	case 3:
		return 270
	}
	return -1
}

// Set updates a named field from its string representation, validating
// per-field ranges. Unknown field names are rejected.
func (c *DeviceConfig) Set(field, value string) error {
	switch field {
	case "brightness":
		v, err := parseUint8(value)
		if err != nil {
			return err
		}
		if v > 30 {
			return fmt.Errorf("brightness must be 0-30, got %d", v)
		}
		c.Brightness = v
	case "rotation":
		// Firmware rotation codes are not in degree order; the mapping
		// below is the device contract and must be preserved verbatim.
		switch value {
		case "0":
			c.ScreenDir = 0
		case "90":
			c.ScreenDir = 2
		case "180":
			c.ScreenDir = 1
		case "270":
			c.ScreenDir = 3
		default:
			return fmt.Errorf("rotation must be 0, 90, 180, or 270")
		}
	case "page":
		return setUint8(&c.MemoryPage, value)
	case "interval":
		return setUint8(&c.SwitchInterval, value)
	case "random":
		return setUint8(&c.SwitchRandom, value)
	case "crop":
		return setUint8(&c.AlbumCutBlack, value)
	case "screen_onoff_by_usb":
		return setUint8(&c.ScreenOnOffUSB, value)
	case "shake_sens":
		return setUint8(&c.FunShakeSens, value)
	case "power_style":
		return setUint8(&c.PowerStyle, value)
	case "srgb_style":
		return setUint8(&c.SRGBStyle, value)
	case "switch_mode":
		v, err := strconv.ParseUint(value, 10, 16)
		if err != nil {
			return fmt.Errorf("invalid value %q: %v", value, err)
		}
		c.SwitchMode = uint16(v)
	default:
		return fmt.Errorf("unknown config field: %s", field)
	}
	return nil
}

func parseUint8(value string) (uint8, error) {
	v, err := strconv.ParseUint(value, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %v", value, err)
	}
	return uint8(v), nil
}

func setUint8(dst *uint8, value string) error {
	v, err := parseUint8(value)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
