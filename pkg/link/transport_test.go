// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
)

// ============================================================
// Device Listing Tests
// ============================================================

func TestListDevices(t *testing.T) {
	orig := detailedPorts
	defer func() { detailedPorts = orig }()

	detailedPorts = func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{
			{Name: "/dev/ttyS0"},
			{Name: "/dev/ttyUSB0", IsUSB: true, SerialNumber: "kobuki_A601D8P8", VID: "0403", PID: "6001"},
			{Name: "/dev/ttyUSB1", IsUSB: true, SerialNumber: "FT232R"},
			{Name: "/dev/ttyS1", SerialNumber: "kobuki_not_usb"},
		}, nil
	}

	names, err := ListDevices()
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}
	if !reflect.DeepEqual(names, []string{"/dev/ttyUSB0"}) {
		t.Errorf("ListDevices() = %v, want [/dev/ttyUSB0]", names)
	}

	devices, _ := ListDeviceDetails()
	if len(devices) != 1 || devices[0].VID != "0403" {
		t.Errorf("ListDeviceDetails() = %+v", devices)
	}
}

func TestListDevicesErrors(t *testing.T) {
	orig := detailedPorts
	defer func() { detailedPorts = orig }()

	detailedPorts = func() ([]*enumerator.PortDetails, error) { return nil, nil }
	if _, err := ListDevices(); !errors.Is(err, ErrNoPorts) {
		t.Errorf("empty list error = %v, want ErrNoPorts", err)
	}

	boom := errors.New("permission denied")
	detailedPorts = func() ([]*enumerator.PortDetails, error) { return nil, boom }
	if _, err := ListDevices(); !errors.Is(err, boom) {
		t.Errorf("enumerator error = %v, want wrapped %v", err, boom)
	}
}

// ============================================================
// Serial Transport Tests
// ============================================================

func TestOpenSerialError(t *testing.T) {
	orig := openSerialPort
	defer func() { openSerialPort = orig }()

	var gotMode serial.Mode
	openSerialPort = func(name string, mode *serial.Mode) (serial.Port, error) {
		gotMode = *mode
		return nil, errors.New("no such file or directory")
	}

	_, err := NewPortOpener(TransportConfig{})("/dev/ttyUSB9")
	if err == nil || !strings.Contains(err.Error(), "/dev/ttyUSB9") {
		t.Fatalf("error = %v, want port name in message", err)
	}
	if gotMode.BaudRate != kobuki.BaudRate || gotMode.DataBits != 8 ||
		gotMode.Parity != serial.NoParity || gotMode.StopBits != serial.OneStopBit {
		t.Errorf("mode = %+v, want 115200 8N1", gotMode)
	}
}

func TestIsWebSocketURL(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"ws://bridge.local/kobuki", true},
		{"wss://bridge.local/kobuki", true},
		{"/dev/ttyUSB0", false},
		{"COM3", false},
	}

	for _, tt := range tests {
		if got := IsWebSocketURL(tt.name); got != tt.want {
			t.Errorf("IsWebSocketURL(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// ============================================================
// WebSocket Transport Tests
// ============================================================

// newBridge starts a WebSocket server that sends each message in out and
// records what it receives
func newBridge(t *testing.T, out [][]byte, received chan<- []byte) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); ok && (user != "turtle" || pass != "secret") {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.WriteMessage(websocket.TextMessage, []byte("hello"))
		for _, msg := range out {
			conn.WriteMessage(websocket.BinaryMessage, msg)
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- data
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketPort(t *testing.T) {
	received := make(chan []byte, 4)
	url := newBridge(t, [][]byte{{0x01, 0x02, 0x03}, {0x04}}, received)

	cfg := TransportConfig{ReadTimeout: 20 * time.Millisecond, Username: "turtle", Password: "secret"}
	port, err := NewPortOpener(cfg)(url)
	if err != nil {
		t.Fatalf("open error = %v", err)
	}
	defer port.Close()

	// Text messages are skipped and binary messages are split across reads
	var got []byte
	buf := make([]byte, 2)
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < 4 && time.Now().Before(deadline) {
		n, err := port.Read(buf)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		got = append(got, buf[:n]...)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Errorf("read % X, want 01 02 03 04", got)
	}

	// An idle read times out without error
	if n, err := port.Read(buf); n != 0 || err != nil {
		t.Errorf("idle Read() = %d, %v; want 0, nil", n, err)
	}

	frame := kobuki.NewGetControllerGain()
	if _, err := port.Write(frame); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	select {
	case data := <-received:
		if !bytes.Equal(data, frame) {
			t.Errorf("bridge received % X, want % X", data, frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not receive the frame")
	}
}

func TestWebSocketPortClosedByPeer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	port, err := OpenWebSocket("ws"+strings.TrimPrefix(srv.URL, "http"), TransportConfig{ReadTimeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("OpenWebSocket() error = %v", err)
	}
	defer port.Close()

	buf := make([]byte, 16)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := port.Read(buf); err != nil {
			if !errors.Is(err, ErrConnectionClosed) {
				t.Errorf("Read() error = %v, want ErrConnectionClosed", err)
			}
			return
		}
	}
	t.Fatal("Read() never reported the closed connection")
}

func TestOpenWebSocketBadScheme(t *testing.T) {
	if _, err := OpenWebSocket("http://example.com", TransportConfig{}); err == nil {
		t.Error("expected error for http scheme")
	}
}
