// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
)

// Port is the byte stream a worker owns. Read returns (0, nil) when no data
// arrived within the port's read timeout.
type Port interface {
	io.Reader
	io.Writer
	io.Closer
}

// PortOpener opens a port by name
type PortOpener func(name string) (Port, error)

// DefaultReadTimeout bounds a single port read
const DefaultReadTimeout = 50 * time.Millisecond

// TransportConfig holds the settings used to open ports
type TransportConfig struct {
	BaudRate    int
	ReadTimeout time.Duration

	// WebSocket bridge settings, used for ws:// and wss:// names
	Username      string
	Password      string
	SkipSSLVerify bool
}

// DefaultTransportConfig returns 115200 baud with the default read timeout
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		BaudRate:    kobuki.BaudRate,
		ReadTimeout: DefaultReadTimeout,
	}
}

// NewPortOpener returns an opener that dials ws:// and wss:// names through
// the WebSocket bridge and opens everything else as a serial device
func NewPortOpener(cfg TransportConfig) PortOpener {
	return func(name string) (Port, error) {
		if IsWebSocketURL(name) {
			return OpenWebSocket(name, cfg)
		}
		return OpenSerial(name, cfg)
	}
}

// IsWebSocketURL reports whether name selects the WebSocket transport
func IsWebSocketURL(name string) bool {
	return strings.HasPrefix(name, "ws://") || strings.HasPrefix(name, "wss://")
}

// openSerialPort is a variable so tests can replace the device layer
var openSerialPort = func(name string, mode *serial.Mode) (serial.Port, error) {
	return serial.Open(name, mode)
}

// serialPort wraps a serial port
type serialPort struct {
	port serial.Port
}

func (s *serialPort) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *serialPort) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *serialPort) Close() error {
	return s.port.Close()
}

// OpenSerial opens a serial device at 8N1
func OpenSerial(name string, cfg TransportConfig) (Port, error) {
	baud := cfg.BaudRate
	if baud == 0 {
		baud = kobuki.BaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := openSerialPort(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}

	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", name, err)
	}

	return &serialPort{port: port}, nil
}

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = errors.New("websocket connection closed")

// webSocketPort carries the serial stream over binary WebSocket messages.
// A background reader feeds messages to Read, so Read can honour the read
// timeout without putting a deadline on the connection.
type webSocketPort struct {
	conn    *websocket.Conn
	timeout time.Duration

	messages chan []byte
	buf      []byte

	mu     sync.Mutex
	err    error
	closed chan struct{}
	once   sync.Once
}

func newWebSocketPort(conn *websocket.Conn, timeout time.Duration) *webSocketPort {
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	w := &webSocketPort{
		conn:     conn,
		timeout:  timeout,
		messages: make(chan []byte, 64),
		closed:   make(chan struct{}),
	}
	go w.readLoop()
	return w
}

func (w *webSocketPort) readLoop() {
	defer close(w.messages)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.mu.Lock()
			w.err = err
			w.mu.Unlock()
			return
		}

		// Only binary messages carry the serial stream
		if messageType != websocket.BinaryMessage {
			continue
		}

		select {
		case w.messages <- data:
		case <-w.closed:
			return
		}
	}
}

func (w *webSocketPort) Read(p []byte) (int, error) {
	if len(w.buf) == 0 {
		timer := time.NewTimer(w.timeout)
		defer timer.Stop()

		select {
		case data, ok := <-w.messages:
			if !ok {
				w.mu.Lock()
				err := w.err
				w.mu.Unlock()
				if err == nil {
					return 0, ErrConnectionClosed
				}
				return 0, fmt.Errorf("%w: %v", ErrConnectionClosed, err)
			}
			w.buf = data
		case <-timer.C:
			return 0, nil
		}
	}

	n := copy(p, w.buf)
	w.buf = w.buf[n:]
	return n, nil
}

func (w *webSocketPort) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *webSocketPort) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closed)
		err = w.conn.Close()
	})
	return err
}

// OpenWebSocket dials a serial bridge with optional HTTP Basic auth
func OpenWebSocket(wsURL string, cfg TransportConfig) (Port, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: cfg.SkipSSLVerify,
		}
	}

	headers := http.Header{}
	if cfg.Username != "" && cfg.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return newWebSocketPort(conn, cfg.ReadTimeout), nil
}
