// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import "sync"

// Mailbox is an unbounded multi-producer single-consumer FIFO of commands.
// Send never blocks and never drops while the mailbox is open. The consumer
// receives from Out.
type Mailbox struct {
	mu     sync.Mutex
	queue  []Command
	closed bool

	notify chan struct{}
	out    chan Command
	done   chan struct{}
}

// NewMailbox creates a mailbox and starts its delivery goroutine
func NewMailbox() *Mailbox {
	m := &Mailbox{
		notify: make(chan struct{}, 1),
		out:    make(chan Command),
		done:   make(chan struct{}),
	}
	go m.pump()
	return m
}

// Send appends a command. Returns false if the mailbox is closed.
func (m *Mailbox) Send(cmd Command) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.queue = append(m.queue, cmd)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return true
}

// Out returns the receive side. It is closed after Close.
func (m *Mailbox) Out() <-chan Command {
	return m.out
}

// Len returns the number of commands not yet delivered
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Close stops delivery. Undelivered commands are discarded.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.queue = nil
	close(m.done)
}

func (m *Mailbox) pump() {
	defer close(m.out)
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			select {
			case <-m.notify:
				continue
			case <-m.done:
				return
			}
		}
		cmd := m.queue[0]
		m.queue[0] = Command{}
		m.queue = m.queue[1:]
		m.mu.Unlock()

		select {
		case m.out <- cmd:
		case <-m.done:
			return
		}
	}
}
