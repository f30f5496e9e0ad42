// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package kobuki

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// mustContent splits a command frame and checks its id
func mustContent(t *testing.T, frame []byte, want CommandID) []byte {
	t.Helper()
	id, content, err := SplitCommand(frame)
	if err != nil {
		t.Fatalf("SplitCommand(% X) error = %v", frame, err)
	}
	if id != want {
		t.Fatalf("command id = %s, want %s", id, want)
	}
	return content
}

func TestNewBaseControl(t *testing.T) {
	tests := []struct {
		name   string
		speed  uint16
		radius uint16
		want   []byte
	}{
		{
			name:  "forward 256 mm/s straight",
			speed: 0x0100,
			want:  []byte{0xAA, 0x55, 0x06, 0x01, 0x04, 0x00, 0x01, 0x00, 0x00, 0x02},
		},
		{
			name: "stop",
			want: []byte{0xAA, 0x55, 0x06, 0x01, 0x04, 0x00, 0x00, 0x00, 0x00, 0x03},
		},
		{
			name:   "reverse with radius",
			speed:  uint16(0xFF38), // -200
			radius: 0x0190,
			want:   []byte{0xAA, 0x55, 0x06, 0x01, 0x04, 0x38, 0xFF, 0x90, 0x01, 0x06 ^ 0x01 ^ 0x04 ^ 0x38 ^ 0xFF ^ 0x90 ^ 0x01},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewBaseControl(tt.speed, tt.radius)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("NewBaseControl() = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestNewSound(t *testing.T) {
	tests := []struct {
		name       string
		freq       uint16
		amp        uint16
		duration   uint8
		wantPeriod uint16
		wantErr    bool
	}{
		{name: "unit", freq: 1, amp: 1, duration: 10, wantPeriod: 1},
		{name: "audible collapses to zero", freq: 440, amp: 1, duration: 100, wantPeriod: 0},
		{name: "zero freq", freq: 0, amp: 1, duration: 10, wantErr: true},
		{name: "zero amp", freq: 440, amp: 0, duration: 10, wantErr: true},
		{name: "zero duration", freq: 440, amp: 1, duration: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := NewSound(tt.freq, tt.amp, tt.duration)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("error = %v, want ErrInvalidArgument", err)
				}
				if frame != nil {
					t.Errorf("frame = % X, want nil", frame)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSound() error = %v", err)
			}
			c := mustContent(t, frame, CmdSound)
			if p := binary.LittleEndian.Uint16(c[0:2]); p != tt.wantPeriod {
				t.Errorf("period = %d, want %d", p, tt.wantPeriod)
			}
			if c[2] != tt.duration {
				t.Errorf("duration = %d, want %d", c[2], tt.duration)
			}
		})
	}
}

func TestNewSoundNote(t *testing.T) {
	frame, err := NewSoundNote(440, 100)
	if err != nil {
		t.Fatalf("NewSoundNote() error = %v", err)
	}
	c := mustContent(t, frame, CmdSound)
	if p := binary.LittleEndian.Uint16(c[0:2]); p != 826 {
		t.Errorf("period = %d, want 826", p)
	}

	// Very low notes saturate instead of wrapping
	frame, err = NewSoundNote(1, 10)
	if err != nil {
		t.Fatalf("NewSoundNote(1) error = %v", err)
	}
	c = mustContent(t, frame, CmdSound)
	if p := binary.LittleEndian.Uint16(c[0:2]); p != math.MaxUint16 {
		t.Errorf("period = %d, want %d", p, math.MaxUint16)
	}

	for _, hz := range []float64{0, -440, math.NaN(), math.Inf(1)} {
		if _, err := NewSoundNote(hz, 10); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("NewSoundNote(%v) error = %v, want ErrInvalidArgument", hz, err)
		}
	}
}

func TestNewSoundSequence(t *testing.T) {
	frame, err := NewSoundSequence(SequenceButton)
	if err != nil {
		t.Fatalf("NewSoundSequence() error = %v", err)
	}
	want := []byte{0xAA, 0x55, 0x03, 0x04, 0x01, 0x03, 0x05}
	if !bytes.Equal(frame, want) {
		t.Errorf("NewSoundSequence() = % X, want % X", frame, want)
	}

	if _, err := NewSoundSequence(SequenceCleaningEnd + 1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("out of range sequence error = %v, want ErrInvalidArgument", err)
	}
}

func TestParseSoundSequence(t *testing.T) {
	seq, err := ParseSoundSequence("cleaning-start")
	if err != nil || seq != SequenceCleaningStart {
		t.Errorf("ParseSoundSequence() = %v, %v", seq, err)
	}
	if _, err := ParseSoundSequence("fanfare"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unknown name error = %v", err)
	}
}

func TestNewRequestExtra(t *testing.T) {
	tests := []struct {
		hw, fw, udid bool
		want         uint16
	}{
		{false, false, false, 0x0000},
		{true, false, false, 0x0001},
		{false, true, false, 0x0002},
		{false, false, true, 0x0080},
		{true, true, true, 0x0083},
	}

	for _, tt := range tests {
		c := mustContent(t, NewRequestExtra(tt.hw, tt.fw, tt.udid), CmdRequestExtra)
		if len(c) != CmdSizeRequestExtra {
			t.Fatalf("content size = %d, want %d", len(c), CmdSizeRequestExtra)
		}
		if got := binary.LittleEndian.Uint16(c); got != tt.want {
			t.Errorf("RequestExtra(%v,%v,%v) flags = 0x%04X, want 0x%04X", tt.hw, tt.fw, tt.udid, got, tt.want)
		}
	}
}

func TestGPOFlags(t *testing.T) {
	g := GPO{LED1Green: true, Power5V: true}
	g.DigitalOut[0] = true

	if got := g.Flags(); got != 0x0221 {
		t.Errorf("Flags() = 0x%04X, want 0x0221", got)
	}
	if back := GPOFromFlags(g.Flags()); back != g {
		t.Errorf("GPOFromFlags() = %+v, want %+v", back, g)
	}

	c := mustContent(t, NewGeneralPurposeOutput(g), CmdGeneralPurposeOutput)
	if !bytes.Equal(c, []byte{0x21, 0x02}) {
		t.Errorf("content = % X, want 21 02", c)
	}
}

func TestNewSetControllerGain(t *testing.T) {
	tests := []struct {
		name     string
		user     bool
		p        uint32
		i        float64
		d        uint32
		wantUser uint8
		wantP    uint32
		wantI    uint32
		wantD    uint32
	}{
		{name: "factory defaults", wantP: 1000, wantI: 100, wantD: 2000},
		{name: "user gains", user: true, p: 100, i: 0.1, d: 2, wantUser: 1, wantP: 100000, wantI: 100, wantD: 2000},
		{name: "integral clamped high", p: 1, i: 40000, d: 1, wantP: 1000, wantI: 32000000, wantD: 1000},
		{name: "integral clamped low", p: 1, i: 0.01, d: 1, wantP: 1000, wantI: 100, wantD: 1000},
		{name: "fractional integral", p: 1, i: 2.5, d: 1, wantP: 1000, wantI: 2500, wantD: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := NewSetControllerGain(tt.user, tt.p, tt.i, tt.d)
			if err != nil {
				t.Fatalf("NewSetControllerGain() error = %v", err)
			}
			c := mustContent(t, frame, CmdSetControllerGain)
			if len(c) != CmdSizeSetControllerGain {
				t.Fatalf("content size = %d, want %d", len(c), CmdSizeSetControllerGain)
			}
			le := binary.LittleEndian
			if c[0] != tt.wantUser {
				t.Errorf("user = %d, want %d", c[0], tt.wantUser)
			}
			if got := le.Uint32(c[1:5]); got != tt.wantP {
				t.Errorf("p = %d, want %d", got, tt.wantP)
			}
			if got := le.Uint32(c[5:9]); got != tt.wantI {
				t.Errorf("i = %d, want %d", got, tt.wantI)
			}
			if got := le.Uint32(c[9:13]); got != tt.wantD {
				t.Errorf("d = %d, want %d", got, tt.wantD)
			}
		})
	}

	if _, err := NewSetControllerGain(false, math.MaxUint32, 1, 1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("overflowing p error = %v, want ErrInvalidArgument", err)
	}
}

func TestNewGetControllerGain(t *testing.T) {
	want := []byte{0xAA, 0x55, 0x03, 0x0E, 0x01, 0xFF, 0xF3}
	if got := NewGetControllerGain(); !bytes.Equal(got, want) {
		t.Errorf("NewGetControllerGain() = % X, want % X", got, want)
	}
}

// TestCommandChecksumRoundTrip checks every builder produces a frame whose
// length byte and checksum agree
func TestCommandChecksumRoundTrip(t *testing.T) {
	sound, _ := NewSound(1, 1, 1)
	note, _ := NewSoundNote(880, 50)
	seq, _ := NewSoundSequence(SequenceOff)
	gain, _ := NewSetControllerGain(true, 10, 5, 3)

	frames := map[string][]byte{
		"base control":  NewBaseControl(0xFFFF, 0x8000),
		"sound":         sound,
		"sound note":    note,
		"sound seq":     seq,
		"request extra": NewRequestExtra(true, false, true),
		"gpo":           NewGeneralPurposeOutput(GPOFromFlags(0x0FFF)),
		"set gain":      gain,
		"get gain":      NewGetControllerGain(),
	}

	for name, frame := range frames {
		if !CheckCRC(frame) {
			t.Errorf("%s: CheckCRC(% X) = false", name, frame)
		}
		if int(frame[2])+FrameOverhead != len(frame) {
			t.Errorf("%s: length byte %d does not match frame length %d", name, frame[2], len(frame))
		}
	}
}

func TestEncodeFrameTooLarge(t *testing.T) {
	if _, err := EncodeFrame(make([]byte, MaxPayloadSize+1)); err == nil {
		t.Error("expected error for oversized payload")
	}
	if _, err := EncodeFrame(make([]byte, MaxPayloadSize)); err != nil {
		t.Errorf("max payload error = %v", err)
	}
}

func TestSplitCommandErrors(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{"bad checksum", []byte{0xAA, 0x55, 0x03, 0x0E, 0x01, 0xFF, 0x00}},
		{"empty payload", MustEncodeFrame(nil)},
		{"size mismatch", MustEncodeFrame([]byte{0x01, 0x09, 0x00})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := SplitCommand(tt.frame); !errors.Is(err, ErrInvalidFrame) {
				t.Errorf("error = %v, want ErrInvalidFrame", err)
			}
		})
	}
}

func TestFormatCommand(t *testing.T) {
	out := FormatCommand(NewBaseControl(uint16(0xFF38), 0))
	if want := "BASE_CONTROL (0x01) size=4\n  Speed: -200 mm/s, Radius: 0 mm\n"; out != want {
		t.Errorf("FormatCommand() = %q, want %q", out, want)
	}
}
