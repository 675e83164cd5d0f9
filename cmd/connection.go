// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 HM Lab

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
	"golang.org/x/term"

	"github.com/hmlab/hubctl/pkg/device"
)

// Z-NEO hub USB identifiers, matched against the port enumerator's
// uppercase hex strings.
const (
	hubVID = "C019"
	hubPID = "0401"
)

// DetectPort scans attached serial ports for the hub's USB VID/PID pair.
func DetectPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("enumerate serial ports: %w", err)
	}
	for _, p := range ports {
		if p.IsUSB && strings.EqualFold(p.VID, hubVID) && strings.EqualFold(p.PID, hubPID) {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("no Z-NEO hub found (VID:%s PID:%s); is it plugged in?", hubVID, hubPID)
}

// OpenSerialTransport opens a serial port at 8N1. go.bug.st/serial's
// Port satisfies device.Transport as-is.
func OpenSerialTransport(portName string, baudRate int) (device.Transport, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %v", portName, err)
	}

	return port, nil
}

// WebSocketTransport adapts a WebSocket bridge carrying raw packet bytes
// in binary frames to the device.Transport interface. Read timeouts map
// to WebSocket read deadlines; a timed-out read reports 0 bytes and no
// error, matching serial semantics.
type WebSocketTransport struct {
	conn        *websocket.Conn
	buf         []byte
	bufOffset   int
	readTimeout time.Duration
}

func (w *WebSocketTransport) Read(p []byte) (int, error) {
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	if w.readTimeout > 0 {
		if err := w.conn.SetReadDeadline(time.Now().Add(w.readTimeout)); err != nil {
			return 0, err
		}
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
				return 0, nil
			}
			return 0, err
		}

		// Only binary frames carry protocol bytes.
		if messageType != websocket.BinaryMessage {
			continue
		}

		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *WebSocketTransport) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketTransport) SetReadTimeout(t time.Duration) error {
	w.readTimeout = t
	return nil
}

// Drain is a no-op; WebSocket messages are flushed on write.
func (w *WebSocketTransport) Drain() error {
	return nil
}

func (w *WebSocketTransport) Close() error {
	return w.conn.Close()
}

// OpenWebSocketTransport dials a serial-over-WebSocket bridge with
// optional HTTP Basic auth.
func OpenWebSocketTransport(wsURL, username, password string, skipSSLVerify bool) (device.Transport, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}

	return &WebSocketTransport{conn: conn}, nil
}

// GetPassword retrieves the bridge password from the environment or
// prompts without echo.
func GetPassword() (string, error) {
	if pw := os.Getenv("HUBCTL_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenTransport opens the transport selected by the persistent flags:
// the WebSocket bridge when --url is set, otherwise serial, auto-
// detecting the port when --port is not given.
func OpenTransport() (device.Transport, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, err
			}
		}
		return OpenWebSocketTransport(wsURL, wsUsername, password, wsNoSSLVerify)
	}

	name := portName
	if name == "" {
		detected, err := DetectPort()
		if err != nil {
			return nil, err
		}
		name = detected
	}
	return OpenSerialTransport(name, baudRate)
}

// OpenSession opens the transport and performs the handshake. Device log
// lines interleaved into any exchange are printed to stderr.
func OpenSession(opts ...device.Option) (*device.Session, error) {
	t, err := OpenTransport()
	if err != nil {
		return nil, err
	}

	opts = append([]device.Option{
		device.WithDeviceLog(func(msg string) {
			fmt.Fprintf(os.Stderr, "[device log] %s\n", msg)
		}),
	}, opts...)

	s, err := device.Open(t, opts...)
	if err != nil {
		t.Close()
		return nil, err
	}
	return s, nil
}
