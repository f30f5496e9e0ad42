// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

// Tokens delivered to the host sink
const (
	TokenReady  = "ready"
	TokenOpened = "opened"
	TokenClosed = "closed"
	TokenError  = "error"
)

// Sink receives coordinator notifications. Send is called from the
// coordinator goroutine and should return promptly.
type Sink interface {
	Send(token string)
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(token string)

// Send calls f(token)
func (f SinkFunc) Send(token string) {
	f(token)
}

// ChanSink delivers tokens on a buffered channel. When the buffer is full a
// "ready" token is dropped, since a pending one already tells the reader to
// drain; lifecycle tokens wait for room.
type ChanSink chan string

// NewChanSink creates a sink with the given buffer size
func NewChanSink(size int) ChanSink {
	return make(ChanSink, size)
}

// Send implements Sink
func (c ChanSink) Send(token string) {
	if token == TokenReady {
		select {
		case c <- token:
		default:
		}
		return
	}
	c <- token
}

// nopSink discards every token
type nopSink struct{}

func (nopSink) Send(string) {}
