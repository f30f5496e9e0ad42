// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
)

// workerHandle is the coordinator's end of one spawned worker
type workerHandle struct {
	name   string
	inbox  *Mailbox
	events *Mailbox
	done   chan struct{}
}

// retire closes both mailboxes of a worker that has reported its exit
func (h *workerHandle) retire() {
	h.inbox.Close()
	h.events.Close()
}

// coordinator tracks the port lifecycle and routes host commands.
// At most one worker is live at a time: from spawn until it reports
// closed or error.
type coordinator struct {
	inbox *Mailbox
	queue *FeedbackQueue
	sink  Sink
	open  PortOpener
	stats *kobuki.Statistics
	tick  time.Duration
	log   zerolog.Logger

	portOpen atomic.Bool
	portName atomic.String
	spawned  atomic.Uint64

	live *workerHandle
}

// run processes host commands and worker events until ctx ends or the host
// mailbox closes
func (c *coordinator) run(ctx context.Context) {
	c.log.Debug().Msg("coordinator started")
	defer c.log.Debug().Msg("coordinator stopped")

	for {
		var events <-chan Command
		if c.live != nil {
			events = c.live.events.Out()
		}

		select {
		case <-ctx.Done():
			c.shutdown()
			return

		case cmd, ok := <-c.inbox.Out():
			if !ok {
				c.shutdown()
				return
			}
			c.handleHost(ctx, cmd)

		case ev, ok := <-events:
			if !ok {
				continue
			}
			c.handleWorker(ev)
		}
	}
}

func (c *coordinator) handleHost(ctx context.Context, cmd Command) {
	if cmd.Kind == KindSerialControl && cmd.Serial == SerialOpen {
		if c.live != nil {
			c.log.Warn().Str("port", cmd.PortName).Str("current", c.live.name).Msg("port already open, ignoring open")
			return
		}
		c.spawn(ctx, cmd.PortName)
		return
	}

	if c.live == nil {
		c.log.Warn().Stringer("command", cmd).Msg("no port open, dropping command")
		return
	}
	c.live.inbox.Send(cmd)
}

func (c *coordinator) handleWorker(ev Command) {
	if ev.Kind != KindSerialControl {
		return
	}

	switch ev.Serial {
	case SerialOpened:
		c.portOpen.Store(true)
		c.portName.Store(ev.PortName)
		c.sink.Send(TokenOpened)

	case SerialClosed, SerialError:
		c.portOpen.Store(false)
		c.portName.Store("")
		if c.live != nil {
			c.live.retire()
			c.live = nil
		}
		if ev.Serial == SerialError {
			c.sink.Send(TokenError)
		} else {
			c.sink.Send(TokenClosed)
		}

	case SerialReady:
		c.sink.Send(TokenReady)
	}
}

// spawn starts a worker with a fresh pair of mailboxes
func (c *coordinator) spawn(ctx context.Context, name string) {
	h := &workerHandle{
		name:   name,
		inbox:  NewMailbox(),
		events: NewMailbox(),
		done:   make(chan struct{}),
	}
	w := &worker{
		name:   name,
		open:   c.open,
		inbox:  h.inbox,
		events: h.events,
		queue:  c.queue,
		stats:  c.stats,
		tick:   c.tick,
		log:    c.log,
	}

	c.live = h
	c.spawned.Inc()
	c.log.Info().Str("port", name).Msg("spawning serial worker")

	go func() {
		defer close(h.done)
		w.run(ctx)
	}()
}

// shutdown asks the live worker to close and waits for it to release the port
func (c *coordinator) shutdown() {
	if c.live == nil {
		return
	}
	c.live.inbox.Send(serialControl(SerialClose, "", nil))
	<-c.live.done
	c.live.retire()
	c.live = nil
	c.portOpen.Store(false)
	c.portName.Store("")
}
