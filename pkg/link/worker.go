// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
)

// DefaultTick is the interval between port polls. At 115200 baud one poll
// returns roughly 220 to 350 bytes.
const DefaultTick = 64 * time.Millisecond

// worker owns one open port. It receives commands on inbox and reports
// lifecycle events on events.
type worker struct {
	name   string
	open   PortOpener
	inbox  *Mailbox
	events *Mailbox
	queue  *FeedbackQueue
	stats  *kobuki.Statistics
	tick   time.Duration
	log    zerolog.Logger
}

// run opens the port and services it until close, a port error or ctx ends
func (w *worker) run(ctx context.Context) {
	port, err := w.open(w.name)
	if err != nil {
		w.log.Error().Err(err).Str("port", w.name).Msg("failed to open port")
		w.events.Send(serialControl(SerialError, w.name, err))
		return
	}
	w.log.Info().Str("port", w.name).Msg("port opened")
	w.events.Send(serialControl(SerialOpened, w.name, nil))

	sub, err := w.loop(ctx, port)

	// Release the device before reporting so a reopen can succeed
	if cerr := port.Close(); cerr != nil {
		w.log.Debug().Err(cerr).Str("port", w.name).Msg("error closing port")
	}
	if err != nil {
		w.log.Error().Err(err).Str("port", w.name).Msg("port failed")
	} else {
		w.log.Info().Str("port", w.name).Msg("port closed")
	}
	w.events.Send(serialControl(sub, w.name, err))
}

// loop returns SerialClosed on a requested close and SerialError with the
// cause on an I/O failure
func (w *worker) loop(ctx context.Context, port Port) (SerialSubcommand, error) {
	decoder := kobuki.NewDecoder()
	decoder.SetStatistics(w.stats)

	tick := w.tick
	if tick <= 0 {
		tick = DefaultTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	buf := make([]byte, kobuki.ReadBufferSize)
	var pending []byte

	for {
		select {
		case <-ctx.Done():
			return SerialClosed, nil

		case cmd, ok := <-w.inbox.Out():
			if !ok {
				return SerialClosed, nil
			}
			if cmd.Kind == KindSerialControl {
				if cmd.Serial == SerialClose {
					return SerialClosed, nil
				}
				w.log.Debug().Stringer("command", cmd).Msg("ignoring serial control")
				continue
			}
			if _, err := port.Write(cmd.Payload); err != nil {
				return SerialError, fmt.Errorf("write %s: %w", cmd.Kind, err)
			}
			w.log.Debug().Stringer("command", cmd).Msg("command written")

		case <-ticker.C:
			n, err := port.Read(buf)
			if err != nil {
				return SerialError, fmt.Errorf("read: %w", err)
			}

			// Short reads are kept and prepended to the next one
			pending = append(pending, buf[:n]...)
			feedbacks, err := decoder.Feed(pending)
			if errors.Is(err, kobuki.ErrInsufficientData) {
				continue
			}
			pending = pending[:0]
			if err != nil {
				w.log.Debug().Err(err).Msg("read carried as residue")
			}

			for _, f := range feedbacks {
				if anomalies := kobuki.ValidateFeedback(f); len(anomalies) > 0 {
					w.stats.RecordAnomalies(anomalies)
				}
			}

			if len(feedbacks) > 0 {
				w.queue.Push(feedbacks...)
				w.events.Send(serialControl(SerialReady, w.name, nil))
			}
		}
	}
}
