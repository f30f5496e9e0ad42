// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package kobuki

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

// ============================================================
// Test helpers
// ============================================================

// s1Content is the BasicSensor block used by the scenario tests:
// timestamp 0x1234, encoders 0x00C8 / 0x00D0
var s1Content = []byte{0x34, 0x12, 0x01, 0x00, 0x02, 0xC8, 0x00, 0xD0, 0x00, 0x10, 0x20, 0x05, 0x02, 0x64, 0x00}

// subrecord builds one (id, size, content) block
func subrecord(id SubrecordID, content []byte) []byte {
	return append([]byte{uint8(id), uint8(len(content))}, content...)
}

// frameOf builds a valid frame from sub-record blocks
func frameOf(blocks ...[]byte) []byte {
	return MustEncodeFrame(bytes.Join(blocks, nil))
}

// padded prefixes a frame with zero bytes so the read reaches MinReadSize
func padded(frame []byte) []byte {
	n := MinReadSize - len(frame)
	if n < 0 {
		n = 0
	}
	return append(make([]byte, n), frame...)
}

// contentOf returns size bytes of filler that never contain a preamble
func contentOf(size int, seed byte) []byte {
	c := make([]byte, size)
	for i := range c {
		c[i] = (seed + byte(i)) & 0x3F
	}
	return c
}

func basicSensorContent(ts uint16) []byte {
	c := make([]byte, SizeBasicSensor)
	binary.LittleEndian.PutUint16(c[0:2], ts)
	binary.LittleEndian.PutUint16(c[5:7], ts*3)
	binary.LittleEndian.PutUint16(c[7:9], ts*5)
	c[12] = ChargerDockingCharged
	c[13] = 160 // 16.0 V
	return c
}

// fullFrame builds a frame with the sub-records a streaming base sends.
// The frame is longer than MinReadSize on its own.
func fullFrame(ts uint16) []byte {
	gyro := append([]byte{uint8(ts), 9}, contentOf(18, uint8(ts))...)
	return frameOf(
		subrecord(IDBasicSensor, basicSensorContent(ts)),
		subrecord(IDDockingIR, contentOf(SizeDockingIR, 1)),
		subrecord(IDInertialSensor, contentOf(SizeInertialSensor, 2)),
		subrecord(IDCliff, contentOf(SizeCliff, 3)),
		subrecord(IDCurrent, contentOf(SizeCurrent, 4)),
		subrecord(IDGyro, gyro),
		subrecord(IDGeneralPurposeInput, contentOf(SizeGeneralPurposeInput, 5)),
	)
}

func stream(timestamps ...uint16) []byte {
	var out []byte
	for _, ts := range timestamps {
		out = append(out, fullFrame(ts)...)
	}
	return out
}

// fixedDecoder returns a decoder with a constant clock
func fixedDecoder() *Decoder {
	d := NewDecoder()
	d.SetClock(func() time.Time { return time.UnixMilli(1700000000000) })
	return d
}

// ============================================================
// Checksum Tests
// ============================================================

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{"empty", nil, 0x00},
		{"single", []byte{0x42}, 0x42},
		{"cancels", []byte{0x5A, 0x5A}, 0x00},
		{"mixed", []byte{0x06, 0x01, 0x04, 0x00, 0x01, 0x00, 0x00}, 0x02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.data); got != tt.want {
				t.Errorf("Checksum() = 0x%02X, want 0x%02X", got, tt.want)
			}
		})
	}
}

func TestCheckCRC(t *testing.T) {
	valid := frameOf(subrecord(IDCurrent, []byte{0x01, 0x02}))

	tests := []struct {
		name   string
		packet []byte
		want   bool
	}{
		{"valid", valid, true},
		{"too short", []byte{0xAA, 0x55}, false},
		{"length mismatch", append(append([]byte(nil), valid...), 0x00), false},
		{"truncated", valid[:len(valid)-1], false},
		{"bad checksum", append(append([]byte(nil), valid[:len(valid)-1]...), valid[len(valid)-1]^0x01), false},
		{"empty payload", []byte{0xAA, 0x55, 0x00, 0x00}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckCRC(tt.packet); got != tt.want {
				t.Errorf("CheckCRC(% X) = %v, want %v", tt.packet, got, tt.want)
			}
		})
	}
}

// ============================================================
// Scenario Tests
// ============================================================

func TestDecodeBasicSensorFrame(t *testing.T) {
	frame := frameOf(subrecord(IDBasicSensor, s1Content))

	feedbacks, residue, err := Decode(padded(frame), nil)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(residue) != 0 {
		t.Errorf("residue = % X, want empty", residue)
	}
	if len(feedbacks) != 1 {
		t.Fatalf("got %d feedbacks, want 1", len(feedbacks))
	}

	f := feedbacks[0]
	if !reflect.DeepEqual(f.Present(), []SubrecordID{IDBasicSensor}) {
		t.Fatalf("Present() = %v, want [BASIC_SENSOR]", f.Present())
	}
	b := f.BasicSensor
	if b.Timestamp != 0x1234 {
		t.Errorf("Timestamp = 0x%04X, want 0x1234", b.Timestamp)
	}
	if b.LeftEncoder != 0x00C8 {
		t.Errorf("LeftEncoder = 0x%04X, want 0x00C8", b.LeftEncoder)
	}
	if b.RightEncoder != 0x00D0 {
		t.Errorf("RightEncoder = 0x%04X, want 0x00D0", b.RightEncoder)
	}
	if b.Bumper != 0x01 || b.Cliff != 0x02 || b.Battery != 0x64 {
		t.Errorf("flags = bumper 0x%02X cliff 0x%02X battery 0x%02X", b.Bumper, b.Cliff, b.Battery)
	}
	if f.EpochMs == 0 {
		t.Error("EpochMs not set")
	}
}

func TestDecodeCrossReadReassembly(t *testing.T) {
	whole := stream(100, 120, 140)
	split := len(fullFrame(100)) + 3

	d := fixedDecoder()
	first, err := d.Feed(whole[:split])
	if err != nil {
		t.Fatalf("Feed(chunk_a) error = %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("chunk_a: got %d feedbacks, want 1", len(first))
	}
	if want := whole[len(fullFrame(100)):split]; !bytes.Equal(d.Residue(), want) {
		t.Errorf("residue = % X, want % X", d.Residue(), want)
	}

	second, err := d.Feed(whole[split:])
	if err != nil {
		t.Fatalf("Feed(chunk_b) error = %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("chunk_b: got %d feedbacks, want 2", len(second))
	}
	if second[0].BasicSensor.Timestamp != 120 {
		t.Errorf("repaired frame timestamp = %d, want 120", second[0].BasicSensor.Timestamp)
	}

	all, _, err := fixedDecoder().decode(whole, nil)
	if err != nil {
		t.Fatalf("decode(whole) error = %v", err)
	}
	if !reflect.DeepEqual(append(first, second...), all) {
		t.Error("split decode differs from whole decode")
	}
}

func TestDecodeCorruptedChecksum(t *testing.T) {
	frame := frameOf(subrecord(IDBasicSensor, s1Content))
	frame[len(frame)-1] ^= 0xFF

	feedbacks, residue, err := Decode(padded(frame), nil)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(feedbacks) != 0 {
		t.Errorf("got %d feedbacks, want 0", len(feedbacks))
	}
	if !bytes.Equal(residue, frame) {
		t.Errorf("residue = % X, want % X", residue, frame)
	}
}

func TestDecodeTwoSubrecords(t *testing.T) {
	frame := frameOf(
		subrecord(IDBasicSensor, s1Content),
		subrecord(IDDockingIR, []byte{0x01, 0x02, 0x04}),
	)

	feedbacks, _, err := Decode(padded(frame), nil)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(feedbacks) != 1 {
		t.Fatalf("got %d feedbacks, want 1", len(feedbacks))
	}
	want := []SubrecordID{IDBasicSensor, IDDockingIR}
	if got := feedbacks[0].Present(); !reflect.DeepEqual(got, want) {
		t.Errorf("Present() = %v, want %v", got, want)
	}
	if ir := feedbacks[0].DockingIR; ir.Right != 1 || ir.Central != 2 || ir.Left != 4 {
		t.Errorf("DockingIR = %+v", ir)
	}
}

// ============================================================
// Decoder Edge Cases
// ============================================================

func TestDecodeInsufficientData(t *testing.T) {
	residue := []byte{0xAA, 0x55, 0x10}
	input := fullFrame(1)[:MinReadSize-1]

	feedbacks, out, err := Decode(input, residue)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("error = %v, want ErrInsufficientData", err)
	}
	if feedbacks != nil {
		t.Errorf("feedbacks = %v, want nil", feedbacks)
	}
	if !bytes.Equal(out, residue) {
		t.Errorf("residue = % X, want unchanged % X", out, residue)
	}
}

func TestDecodeNoHeader(t *testing.T) {
	input := contentOf(100, 0)

	feedbacks, residue, err := Decode(input, []byte{0xAA, 0x55})
	if !errors.Is(err, ErrNoHeader) {
		t.Fatalf("error = %v, want ErrNoHeader", err)
	}
	if len(feedbacks) != 0 {
		t.Errorf("got %d feedbacks, want 0", len(feedbacks))
	}
	if !bytes.Equal(residue, input) {
		t.Error("residue should be the whole input")
	}
}

func TestDecodeDropsUnrepairableResidue(t *testing.T) {
	stats := NewStatistics()
	d := fixedDecoder()
	d.SetStatistics(stats)
	d.residue = []byte{0xAA, 0x55, 0x40, 0x01}

	input := append([]byte{0x01, 0x02, 0x03}, fullFrame(7)...)
	feedbacks, err := d.Feed(input)
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if len(feedbacks) != 1 {
		t.Fatalf("got %d feedbacks, want 1", len(feedbacks))
	}
	if len(d.Residue()) != 0 {
		t.Errorf("old residue was not consumed: % X", d.Residue())
	}
	if snap := stats.Snapshot(); snap.DroppedResidues != 1 || snap.RepairedFrames != 0 {
		t.Errorf("dropped=%d repaired=%d, want 1/0", snap.DroppedResidues, snap.RepairedFrames)
	}
}

func TestDecodeLastWriteWins(t *testing.T) {
	good := fullFrame(10)
	bad1 := append([]byte(nil), fullFrame(20)...)
	bad1[10] ^= 0x01
	bad2 := append([]byte(nil), fullFrame(30)...)
	bad2[10] ^= 0x01

	tests := []struct {
		name        string
		input       []byte
		wantCount   int
		wantResidue []byte
	}{
		{"bad then good", bytes.Join([][]byte{bad1, good}, nil), 1, nil},
		{"good then bad", bytes.Join([][]byte{good, bad1}, nil), 1, bad1},
		{"two bad", bytes.Join([][]byte{bad1, bad2}, nil), 0, bad2},
		{"bad good bad", bytes.Join([][]byte{bad1, good, bad2}, nil), 1, bad2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feedbacks, residue, err := Decode(tt.input, nil)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if len(feedbacks) != tt.wantCount {
				t.Errorf("got %d feedbacks, want %d", len(feedbacks), tt.wantCount)
			}
			if !bytes.Equal(residue, tt.wantResidue) {
				t.Errorf("residue length %d, want %d", len(residue), len(tt.wantResidue))
			}
		})
	}
}

func TestDecoderStatistics(t *testing.T) {
	stats := NewStatistics()
	d := fixedDecoder()
	d.SetStatistics(stats)

	d.Feed([]byte{0x01})
	d.Feed(contentOf(90, 0))
	d.Feed(stream(1, 2))

	snap := stats.Snapshot()
	if snap.Reads != 3 {
		t.Errorf("Reads = %d, want 3", snap.Reads)
	}
	if snap.ShortReads != 1 {
		t.Errorf("ShortReads = %d, want 1", snap.ShortReads)
	}
	if snap.NoHeaderReads != 1 {
		t.Errorf("NoHeaderReads = %d, want 1", snap.NoHeaderReads)
	}
	if snap.ValidFrames != 2 {
		t.Errorf("ValidFrames = %d, want 2", snap.ValidFrames)
	}
	// A read that starts at a preamble discards the residue without a repair attempt
	if snap.DroppedResidues != 0 {
		t.Errorf("DroppedResidues = %d, want 0", snap.DroppedResidues)
	}

	stats.Reset()
	if stats.Snapshot().Reads != 0 {
		t.Error("Reset() did not clear counters")
	}
}

// ============================================================
// Parser Tests
// ============================================================

func TestParseSubrecordCoverage(t *testing.T) {
	for _, id := range SubrecordIDs {
		sizes := []int{id.expectedSize()}
		if id == IDGyro {
			sizes = []int{SizeGyroShort, SizeGyroLong}
		}
		for _, size := range sizes {
			t.Run(id.String(), func(t *testing.T) {
				frame := frameOf(subrecord(id, contentOf(size, uint8(id))))
				f, err := ParsePayload(frame)
				if err != nil {
					t.Fatalf("ParsePayload() error = %v", err)
				}
				if got := f.Present(); !reflect.DeepEqual(got, []SubrecordID{id}) {
					t.Errorf("Present() = %v, want [%s]", got, id)
				}
			})
		}
	}
}

func TestParseGyroArity(t *testing.T) {
	tests := []struct {
		size    int
		samples int
	}{
		{SizeGyroShort, 2},
		{SizeGyroLong, 3},
	}

	for _, tt := range tests {
		c := contentOf(tt.size, 0)
		c[1] = uint8(3 * tt.samples)
		f, err := ParsePayload(frameOf(subrecord(IDGyro, c)))
		if err != nil {
			t.Fatalf("size %d: error = %v", tt.size, err)
		}
		if len(f.Gyro.Samples) != tt.samples {
			t.Errorf("size %d: %d samples, want %d", tt.size, len(f.Gyro.Samples), tt.samples)
		}
		want := GyroSample{
			X: binary.LittleEndian.Uint16(c[2:4]),
			Y: binary.LittleEndian.Uint16(c[4:6]),
			Z: binary.LittleEndian.Uint16(c[6:8]),
		}
		if f.Gyro.Samples[0] != want {
			t.Errorf("size %d: sample 0 = %+v, want %+v", tt.size, f.Gyro.Samples[0], want)
		}
	}
}

func TestParseUnknownSubrecord(t *testing.T) {
	frame := frameOf(
		subrecord(IDCurrent, []byte{0x05, 0x06}),
		subrecord(SubrecordID(0x30), []byte{0x01}),
		subrecord(IDDockingIR, []byte{0x01, 0x02, 0x03}),
	)

	f, err := ParsePayload(frame)
	if !errors.Is(err, ErrUnknownSubrecord) {
		t.Fatalf("error = %v, want ErrUnknownSubrecord", err)
	}
	if f.Current == nil {
		t.Error("records before the unknown id should be kept")
	}
	if f.DockingIR != nil {
		t.Error("records after the unknown id should not be parsed")
	}
}

func TestParseMalformedSubrecord(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"short basic sensor", subrecord(IDBasicSensor, contentOf(10, 0))},
		{"bad gyro size", subrecord(IDGyro, contentOf(16, 0))},
		{"size overruns payload", []byte{uint8(IDCliff), 40, 0x01, 0x02}},
		{"truncated header", []byte{uint8(IDCurrent)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePayload(MustEncodeFrame(tt.payload))
			if !errors.Is(err, ErrMalformedSubrecord) {
				t.Errorf("error = %v, want ErrMalformedSubrecord", err)
			}
		})
	}
}

func TestParseBoundedScan(t *testing.T) {
	var blocks [][]byte
	for i := 0; i < maxSubrecords+2; i++ {
		blocks = append(blocks, subrecord(IDCurrent, []byte{uint8(i), 0}))
	}

	f, err := ParsePayload(frameOf(blocks...))
	if err != nil {
		t.Fatalf("ParsePayload() error = %v", err)
	}
	// Only the first maxSubrecords blocks are visited
	if got := f.Current.LeftMotor; got != uint8(maxSubrecords-1) {
		t.Errorf("last parsed LeftMotor = %d, want %d", got, maxSubrecords-1)
	}
}

func TestParseEmptyPayload(t *testing.T) {
	f, err := ParsePayload(MustEncodeFrame(nil))
	if err != nil {
		t.Fatalf("ParsePayload() error = %v", err)
	}
	if len(f.Present()) != 0 {
		t.Errorf("Present() = %v, want none", f.Present())
	}
}

// ============================================================
// Property Tests
// ============================================================

func TestDecodeResidueIdempotence(t *testing.T) {
	inputs := [][]byte{
		padded(frameOf(subrecord(IDBasicSensor, s1Content))),
		stream(1, 2)[:120],
		contentOf(90, 3),
		nil,
	}

	for i, input := range inputs {
		_, r, _ := Decode(input, nil)
		feedbacks, r2, err := Decode(nil, r)
		if !errors.Is(err, ErrInsufficientData) {
			t.Errorf("input %d: error = %v, want ErrInsufficientData", i, err)
		}
		if len(feedbacks) != 0 {
			t.Errorf("input %d: got %d feedbacks from empty input", i, len(feedbacks))
		}
		if !bytes.Equal(r, r2) {
			t.Errorf("input %d: residue changed on empty input", i)
		}
	}
}

func TestDecodeConcatenationLaw(t *testing.T) {
	whole := stream(11, 22, 33, 44)
	lastStart := len(whole) - len(fullFrame(44))

	want, _, err := fixedDecoder().decode(whole, nil)
	if err != nil || len(want) != 4 {
		t.Fatalf("decode(whole) = %d feedbacks, err %v", len(want), err)
	}

	// Both chunks must be full reads and the second must contain a preamble
	for k := MinReadSize; k <= lastStart; k++ {
		if whole[k-1] == Preamble0 && whole[k] == Preamble1 {
			continue
		}

		d := fixedDecoder()
		a, errA := d.Feed(whole[:k])
		b, errB := d.Feed(whole[k:])
		if errA != nil || errB != nil {
			t.Fatalf("split %d: errors %v / %v", k, errA, errB)
		}
		if got := append(a, b...); !reflect.DeepEqual(got, want) {
			t.Fatalf("split %d: got %d feedbacks, want %d", k, len(got), len(want))
		}
	}
}

func TestChecksumSensitivity(t *testing.T) {
	frame := frameOf(subrecord(IDBasicSensor, s1Content))
	pad := MinReadSize - len(frame)
	want, _, _ := fixedDecoder().decode(padded(frame), nil)

	for bit := 0; bit < len(frame)*8; bit++ {
		input := padded(frame)
		input[pad+bit/8] ^= 1 << (bit % 8)

		got, _, _ := fixedDecoder().decode(input, nil)
		if len(got) != 0 && reflect.DeepEqual(got, want) {
			t.Errorf("bit %d flipped but frame decoded unchanged", bit)
		}
	}
}

// ============================================================
// Validator Tests
// ============================================================

func TestValidateFeedback(t *testing.T) {
	tests := []struct {
		name  string
		f     *Feedback
		wants []AnomalyType
	}{
		{
			name: "healthy",
			f:    &Feedback{BasicSensor: &BasicSensor{Battery: 160}},
		},
		{
			name:  "bumper and cliff",
			f:     &Feedback{BasicSensor: &BasicSensor{Bumper: BumperLeft, Cliff: CliffCenter, Battery: 160}},
			wants: []AnomalyType{AnomalyBumper, AnomalyCliff},
		},
		{
			name:  "wheel drop and overcurrent",
			f:     &Feedback{BasicSensor: &BasicSensor{WheelDrop: WheelDropRight, Overcurrent: OvercurrentLeft, Battery: 160}},
			wants: []AnomalyType{AnomalyWheelDrop, AnomalyOvercurrent},
		},
		{
			name:  "low battery discharging",
			f:     &Feedback{BasicSensor: &BasicSensor{Battery: 120}},
			wants: []AnomalyType{AnomalyLowBattery},
		},
		{
			name: "low reading while charging",
			f:    &Feedback{BasicSensor: &BasicSensor{Battery: 120, Charger: ChargerAdapterCharging}},
		},
		{
			name:  "gyro length mismatch",
			f:     &Feedback{Gyro: &Gyro{SampleCount: 9, Samples: make([]GyroSample, 2)}},
			wants: []AnomalyType{AnomalyGyroLength},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateFeedback(tt.f)
			var got []AnomalyType
			for _, e := range errs {
				got = append(got, e.Type)
			}
			if !reflect.DeepEqual(got, tt.wants) {
				t.Errorf("anomalies = %v, want %v", got, tt.wants)
			}
		})
	}
}

func TestValidateSequence(t *testing.T) {
	a := &Feedback{BasicSensor: &BasicSensor{Timestamp: 100}}
	b := &Feedback{BasicSensor: &BasicSensor{Timestamp: 120}}

	if errs := ValidateSequence(a, b); len(errs) != 0 {
		t.Errorf("advancing timestamps flagged: %v", errs)
	}
	if errs := ValidateSequence(a, a); len(errs) != 1 || errs[0].Type != AnomalyStaleTimestamp {
		t.Errorf("repeated timestamp not flagged: %v", errs)
	}
	if errs := ValidateSequence(nil, b); errs != nil {
		t.Errorf("nil predecessor flagged: %v", errs)
	}
}

// ============================================================
// Formatter Tests
// ============================================================

func TestFormatFeedback(t *testing.T) {
	feedbacks, _, err := Decode(fullFrame(42), nil)
	if err != nil || len(feedbacks) != 1 {
		t.Fatalf("Decode() = %d feedbacks, err %v", len(feedbacks), err)
	}

	out := FormatFeedback(feedbacks[0])
	for _, want := range []string{"BASIC_SENSOR", "RAW_GYRO", "Battery: 16.0V", "DOCKING_CHARGED", "samples=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatFeedback() missing %q:\n%s", want, out)
		}
	}
}

func TestFormatBits(t *testing.T) {
	if got := formatBits(0, bumperNames); got != "none" {
		t.Errorf("formatBits(0) = %q, want none", got)
	}
	if got := formatBits(BumperRight|BumperLeft, bumperNames); got != "right,left" {
		t.Errorf("formatBits(right|left) = %q", got)
	}
}

// ============================================================
// CBOR Record Tests
// ============================================================

func TestRecordRoundTrip(t *testing.T) {
	feedbacks, _, err := fixedDecoder().decode(stream(5, 6, 7), nil)
	if err != nil {
		t.Fatalf("decode() error = %v", err)
	}
	feedbacks = append(feedbacks, &Feedback{
		EpochMs:         1,
		HardwareVersion: &HardwareVersion{Version{Patch: 1, Minor: 2, Major: 3}},
		UniqueDeviceID:  &UniqueDeviceID{UDID0: 1, UDID1: 2, UDID2: 3},
		ControllerInfo:  &ControllerInfo{UserConfigured: 1, P: 100, I: 200, D: 300},
	})

	var buf bytes.Buffer
	w := NewRecordWriter(&buf)
	if err := w.Write(feedbacks...); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if w.Count() != len(feedbacks) {
		t.Errorf("Count() = %d, want %d", w.Count(), len(feedbacks))
	}

	got, err := NewRecordReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !reflect.DeepEqual(got, feedbacks) {
		t.Error("records differ after round trip")
	}
}

func TestUnmarshalFeedbackCBORErrors(t *testing.T) {
	if _, err := UnmarshalFeedbackCBOR(nil); err == nil {
		t.Error("expected error for empty payload")
	}
	if _, err := UnmarshalFeedbackCBOR([]byte{0xFF}); err == nil {
		t.Error("expected error for invalid CBOR")
	}
}
