// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Thermoquad/turtlelink/pkg/kobuki"
)

var (
	// ErrNotStarted is returned by commands sent before Start
	ErrNotStarted = errors.New("runtime not started")

	// ErrAlreadyStarted is returned by a second Start
	ErrAlreadyStarted = errors.New("runtime already started")

	// ErrStopped is returned by commands sent after Stop
	ErrStopped = errors.New("runtime stopped")
)

// Runtime is one host-side link: a command mailbox, a feedback queue and a
// coordinator. The zero value is not usable; create one with New.
type Runtime struct {
	log    zerolog.Logger
	opener PortOpener
	stats  *kobuki.Statistics
	tick   time.Duration

	mu      sync.Mutex
	inbox   *Mailbox
	queue   *FeedbackQueue
	coord   *coordinator
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// Option configures a Runtime
type Option func(*Runtime)

// WithLogger sets the logger used by the coordinator and workers
func WithLogger(log zerolog.Logger) Option {
	return func(r *Runtime) {
		r.log = log
	}
}

// WithOpener replaces the port opener
func WithOpener(open PortOpener) Option {
	return func(r *Runtime) {
		if open != nil {
			r.opener = open
		}
	}
}

// WithTransport opens ports with the given transport settings
func WithTransport(cfg TransportConfig) Option {
	return func(r *Runtime) {
		r.opener = NewPortOpener(cfg)
	}
}

// WithStatistics attaches a statistics tracker updated by every worker
func WithStatistics(stats *kobuki.Statistics) Option {
	return func(r *Runtime) {
		r.stats = stats
	}
}

// WithTick sets the port poll interval
func WithTick(tick time.Duration) Option {
	return func(r *Runtime) {
		if tick > 0 {
			r.tick = tick
		}
	}
}

// New creates a Runtime. Nothing runs until Start.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		log:    zerolog.Nop(),
		opener: NewPortOpener(DefaultTransportConfig()),
		tick:   DefaultTick,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start creates the shared state and spawns the coordinator. Tokens are
// delivered to sink; a nil sink discards them.
func (r *Runtime) Start(sink Sink) error {
	return r.StartContext(context.Background(), sink)
}

// StartContext is like Start; cancelling ctx stops the runtime
func (r *Runtime) StartContext(ctx context.Context, sink Sink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return ErrStopped
	}
	if r.coord != nil {
		return ErrAlreadyStarted
	}
	if sink == nil {
		sink = nopSink{}
	}

	ctx, cancel := context.WithCancel(ctx)
	r.inbox = NewMailbox()
	r.queue = NewFeedbackQueue()
	r.coord = &coordinator{
		inbox: r.inbox,
		queue: r.queue,
		sink:  sink,
		open:  r.opener,
		stats: r.stats,
		tick:  r.tick,
		log:   r.log,
	}
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		r.coord.run(ctx)
	}()

	r.log.Debug().Msg("runtime started")
	return nil
}

// Stop closes any open port and waits for the coordinator to exit
func (r *Runtime) Stop() {
	r.mu.Lock()
	if r.stopped || r.coord == nil {
		r.stopped = true
		r.mu.Unlock()
		return
	}
	r.stopped = true
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done
	r.inbox.Close()
}

// Done is closed when the coordinator exits. Returns nil before Start.
func (r *Runtime) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// send enqueues a command for the coordinator
func (r *Runtime) send(cmd Command) error {
	r.mu.Lock()
	inbox, stopped := r.inbox, r.stopped
	r.mu.Unlock()

	if stopped {
		return ErrStopped
	}
	if inbox == nil {
		return ErrNotStarted
	}
	if !inbox.Send(cmd) {
		return ErrStopped
	}
	return nil
}

// sendFrame enqueues an encoded device command
func (r *Runtime) sendFrame(kind CommandKind, frame []byte) error {
	return r.send(Command{Kind: kind, Payload: frame})
}

// DrainFeedbacks returns every feedback decoded since the last drain, or
// ErrNoFeedback
func (r *Runtime) DrainFeedbacks() ([]*kobuki.Feedback, error) {
	r.mu.Lock()
	queue := r.queue
	r.mu.Unlock()

	if queue == nil {
		return nil, ErrNoFeedback
	}
	return queue.Drain()
}

// OpenPort asks the coordinator to open name. Ignored while a port is open.
func (r *Runtime) OpenPort(name string) error {
	return r.send(serialControl(SerialOpen, name, nil))
}

// ClosePort asks the live worker to close its port
func (r *Runtime) ClosePort() error {
	return r.send(serialControl(SerialClose, "", nil))
}

// PortOpen reports whether the worker has confirmed an open port
func (r *Runtime) PortOpen() bool {
	r.mu.Lock()
	coord := r.coord
	r.mu.Unlock()
	return coord != nil && coord.portOpen.Load()
}

// PortName returns the name of the open port, or ""
func (r *Runtime) PortName() string {
	r.mu.Lock()
	coord := r.coord
	r.mu.Unlock()
	if coord == nil {
		return ""
	}
	return coord.portName.Load()
}

// Statistics returns the attached statistics tracker, or nil
func (r *Runtime) Statistics() *kobuki.Statistics {
	return r.stats
}

// BaseControl sets wheel speed (mm/s) and turn radius (mm)
func (r *Runtime) BaseControl(speed, radius uint16) error {
	return r.sendFrame(KindBaseControl, kobuki.NewBaseControl(speed, radius))
}

// Sound plays a tone using the raw period formula
func (r *Runtime) Sound(freq, amp uint16, durationMs uint8) error {
	frame, err := kobuki.NewSound(freq, amp, durationMs)
	if err != nil {
		return err
	}
	return r.sendFrame(KindSound, frame)
}

// SoundNote plays freqHz for durationMs
func (r *Runtime) SoundNote(freqHz float64, durationMs uint8) error {
	frame, err := kobuki.NewSoundNote(freqHz, durationMs)
	if err != nil {
		return err
	}
	return r.sendFrame(KindSound, frame)
}

// SoundSequence plays a built-in sequence
func (r *Runtime) SoundSequence(seq kobuki.SoundSequence) error {
	frame, err := kobuki.NewSoundSequence(seq)
	if err != nil {
		return err
	}
	return r.sendFrame(KindSoundSequence, frame)
}

// RequestExtra asks for version and identifier records
func (r *Runtime) RequestExtra(hw, fw, udid bool) error {
	return r.sendFrame(KindRequestExtra, kobuki.NewRequestExtra(hw, fw, udid))
}

// GPO sets the expansion port outputs, power rails and LEDs
func (r *Runtime) GPO(g kobuki.GPO) error {
	return r.sendFrame(KindGeneralPurposeOutput, kobuki.NewGeneralPurposeOutput(g))
}

// SetControllerGain sets the wheel velocity PID gains
func (r *Runtime) SetControllerGain(userConfigured bool, p uint32, i float64, d uint32) error {
	frame, err := kobuki.NewSetControllerGain(userConfigured, p, i, d)
	if err != nil {
		return err
	}
	return r.sendFrame(KindSetControllerGain, frame)
}

// GetControllerGain asks the base to report its PID gains
func (r *Runtime) GetControllerGain() error {
	return r.sendFrame(KindGetControllerGain, kobuki.NewGetControllerGain())
}
