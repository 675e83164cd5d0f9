// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 HM Lab

package hubproto

import (
	"fmt"
	"strings"
)

// FormatCommand returns the human-readable name for a command id.
func FormatCommand(cmdID byte) string {
	switch cmdID {
	case CmdHandshake:
		return "HANDSHAKE"
	case CmdConfig:
		return "CONFIG"
	case CmdFactoryReset:
		return "FACTORY_RESET"
	case CmdFlash:
		return "FLASH"
	case CmdPower:
		return "POWER"
	case CmdLog:
		return "LOG"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02X)", cmdID)
	}
}

// FormatDeviceInfo renders the handshake identity for display.
func FormatDeviceInfo(info DeviceInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  Hardware ID:    0x%08X\n", info.HardwareID)
	fmt.Fprintf(&b, "  Firmware:       %s\n", info.FirmwareString())
	fmt.Fprintf(&b, "  Flash size:     %d MB", info.FlashSize/1024/1024)
	return b.String()
}

// PowerRating classifies a bus voltage sample against USB health
// thresholds.
func PowerRating(busVoltageMV uint16) string {
	switch {
	case busVoltageMV >= 4750:
		return "Healthy"
	case busVoltageMV >= 4250:
		return "Warning"
	default:
		return "Critical"
	}
}

// FormatPowerStats renders one power sample as a single status line.
func FormatPowerStats(s PowerStats) string {
	return fmt.Sprintf("Bus: %.2fV (%s) | Ports: %dmA %dmA %dmA",
		float64(s.BusVoltage)/1000.0, PowerRating(s.BusVoltage),
		s.CurrentPort1, s.CurrentPort2, s.CurrentPort3)
}

// FormatConfig renders the settings record for display.
func FormatConfig(c *DeviceConfig) string {
	rotation := "unknown"
	if deg := c.Rotation(); deg >= 0 {
		rotation = fmt.Sprintf("%d°", deg)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Screen brightness:     %d/30\n", c.Brightness)
	fmt.Fprintf(&b, "Screen rotation:       %s\n", rotation)
	fmt.Fprintf(&b, "Screen on/off by USB:  %t\n", c.ScreenOnOffUSB != 0)
	fmt.Fprintf(&b, "Memory page:           %d\n", c.MemoryPage)
	fmt.Fprintf(&b, "Album crop to fill:    %t\n", c.AlbumCutBlack != 0)
	fmt.Fprintf(&b, "Album cut frame:       %t\n", c.AlbumCutFrame != 0)
	fmt.Fprintf(&b, "Image switch random:   %t\n", c.SwitchRandom != 0)
	fmt.Fprintf(&b, "Image switch mode:     %d\n", c.SwitchMode)
	fmt.Fprintf(&b, "Image switch interval: %d sec\n", c.SwitchInterval)
	fmt.Fprintf(&b, "Shake sensitivity:     %d\n", c.FunShakeSens)
	fmt.Fprintf(&b, "Power style:           %d\n", c.PowerStyle)
	fmt.Fprintf(&b, "sRGB style:            %d\n", c.SRGBStyle)
	fmt.Fprintf(&b, "Language:              %d\n", c.Language)
	fmt.Fprintf(&b, "Web help:              %t", c.WebHelp != 0)
	return b.String()
}
