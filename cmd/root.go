// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 HM Lab

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hmlab/hubctl/pkg/hubproto"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket bridge flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool
)

var rootCmd = &cobra.Command{
	Use:   "hubctl",
	Short: "HM Lab Z-NEO 8K USB hub control tool",
	Long: `hubctl - control tool for the HM Lab Z-NEO 8K USB hub display.

Reads and writes the device configuration, uploads still images and GIF
animations to the built-in LCD, reads stored images back, streams power
telemetry and device logs, and snapshots/restores the whole device.

Connection modes:
  Serial:    --port /dev/ttyACM0 (auto-detected by USB VID/PID if omitted)
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the HUBCTL_PASSWORD
environment variable, or prompted interactively if not set. A --password
flag is intentionally not provided to avoid leaking credentials in shell
history.`,
	Version: "1.2.0",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device (auto-detects if not specified)")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", hubproto.SerialBaudRate, "Baud rate (serial only)")

	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket bridge URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
