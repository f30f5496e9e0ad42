// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package kobuki

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Feedback records are stored as integer-keyed CBOR maps: key 0 is the
// decode time and every other key is the id of a present sub-record.
// A recording is a CBOR sequence of such maps.

// MarshalFeedbackCBOR encodes one feedback as a CBOR map
func MarshalFeedbackCBOR(f *Feedback) ([]byte, error) {
	data, err := cbor.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feedback: %w", err)
	}
	return data, nil
}

// UnmarshalFeedbackCBOR decodes one feedback from a CBOR map
func UnmarshalFeedbackCBOR(data []byte) (*Feedback, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty CBOR payload")
	}
	f := &Feedback{}
	if err := cbor.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to decode CBOR: %w", err)
	}
	return f, nil
}

// RecordWriter appends feedbacks to a CBOR sequence
type RecordWriter struct {
	enc   *cbor.Encoder
	count int
}

// NewRecordWriter creates a writer on w
func NewRecordWriter(w io.Writer) *RecordWriter {
	return &RecordWriter{enc: cbor.NewEncoder(w)}
}

// Write encodes each feedback in order
func (w *RecordWriter) Write(feedbacks ...*Feedback) error {
	for _, f := range feedbacks {
		if err := w.enc.Encode(f); err != nil {
			return fmt.Errorf("failed to write record %d: %w", w.count, err)
		}
		w.count++
	}
	return nil
}

// Count returns the number of records written
func (w *RecordWriter) Count() int {
	return w.count
}

// RecordReader reads feedbacks back from a CBOR sequence
type RecordReader struct {
	dec   *cbor.Decoder
	count int
}

// NewRecordReader creates a reader on r
func NewRecordReader(r io.Reader) *RecordReader {
	return &RecordReader{dec: cbor.NewDecoder(r)}
}

// Next returns the next feedback, or io.EOF at the end of the sequence
func (r *RecordReader) Next() (*Feedback, error) {
	f := &Feedback{}
	if err := r.dec.Decode(f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read record %d: %w", r.count, err)
	}
	r.count++
	return f, nil
}

// ReadAll returns every remaining feedback
func (r *RecordReader) ReadAll() ([]*Feedback, error) {
	var feedbacks []*Feedback
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			return feedbacks, nil
		}
		if err != nil {
			return feedbacks, err
		}
		feedbacks = append(feedbacks, f)
	}
}
