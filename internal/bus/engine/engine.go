// Package engine runs the supervised event-stream reader that feeds the
// state store.
package engine

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/grovetools/niribar/errors"
	"github.com/grovetools/niribar/internal/bus/hub"
	"github.com/grovetools/niribar/internal/bus/store"
	"github.com/grovetools/niribar/pkg/niri"
	"github.com/grovetools/niribar/pkg/niri/ipc"
	"github.com/sirupsen/logrus"
)

// State is the lifecycle state of the reader.
type State string

const (
	StateNotStarted   State = "not_started"
	StateConnecting   State = "connecting"
	StateRunning      State = "running"
	StateReconnecting State = "reconnecting"
	StateStopped      State = "stopped"
)

// Options controls reconnect behaviour.
type Options struct {
	// Reconnect restarts the stream after a transport failure. When false
	// the first failure stops the engine.
	Reconnect      bool
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// WaitForSocket blocks between attempts until the socket file exists.
	WaitForSocket bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Reconnect:      true,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		WaitForSocket:  true,
	}
}

// Status is a point-in-time health report of the reader.
type Status struct {
	State       State     `json:"state" yaml:"state"`
	Socket      string    `json:"socket" yaml:"socket"`
	Stale       bool      `json:"stale" yaml:"stale"`
	Connects    int       `json:"connects" yaml:"connects"`
	LastError   string    `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	LastEventAt time.Time `json:"last_event_at,omitempty" yaml:"last_event_at,omitempty"`
}

// Engine owns the event-stream connection and is the only writer of the
// store.
type Engine struct {
	client *ipc.Client
	store  *store.Store
	hub    *hub.Hub
	opts   Options
	logger *logrus.Entry

	mu     sync.Mutex
	status Status
}

// New creates an Engine. client may be nil for an engine that is only fed
// through ApplyLine.
func New(client *ipc.Client, st *store.Store, h *hub.Hub, opts Options, logger *logrus.Entry) *Engine {
	e := &Engine{
		client: client,
		store:  st,
		hub:    h,
		opts:   opts,
		logger: logger,
		status: Status{State: StateNotStarted},
	}
	if client != nil {
		e.status.Socket = client.Path()
	}
	return e
}

// Run reads the event stream until ctx is cancelled, reconnecting with
// exponential backoff when enabled. It returns nil on cancellation and the
// last transport error when it gives up.
func (e *Engine) Run(ctx context.Context) error {
	if e.client == nil {
		return errors.New(errors.ErrCodeInternal, "engine has no compositor client")
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.opts.InitialBackoff
	b.MaxInterval = e.opts.MaxBackoff
	b.MaxElapsedTime = 0
	b.Reset()

	e.setState(StateConnecting)
	for {
		connected, err := e.runOnce(ctx)
		if ctx.Err() != nil {
			e.setState(StateStopped)
			return nil
		}

		e.recordError(err)
		if e.store.SetStale(true) {
			e.hub.Signal()
		}

		if !e.opts.Reconnect {
			e.logger.WithError(err).Error("Event stream lost; reconnect disabled")
			e.setState(StateStopped)
			return err
		}

		if connected {
			b.Reset()
		}
		wait := b.NextBackOff()
		if wait == backoff.Stop {
			e.setState(StateStopped)
			return err
		}

		e.setState(StateReconnecting)
		e.logger.WithError(err).WithField("retry_in", wait.String()).Warn("Event stream lost, reconnecting")

		select {
		case <-ctx.Done():
			e.setState(StateStopped)
			return nil
		case <-time.After(wait):
		}

		if e.opts.WaitForSocket {
			if err := ipc.WaitForSocket(ctx, e.client.Path()); err != nil && ctx.Err() != nil {
				e.setState(StateStopped)
				return nil
			}
		}
	}
}

// runOnce holds one connection until it fails. connected reports whether
// the handshake got through.
func (e *Engine) runOnce(ctx context.Context) (bool, error) {
	stream, err := e.client.OpenEventStream(ctx)
	if err != nil {
		return false, err
	}
	defer stream.Close()

	e.mu.Lock()
	e.status.Connects++
	e.status.State = StateRunning
	connects := e.status.Connects
	e.mu.Unlock()

	e.logger.WithField("connects", connects).Info("Event stream connected")
	if e.store.SetStale(false) {
		e.hub.Signal()
	}

	for {
		line, err := stream.Next()
		if err != nil {
			if err == io.EOF {
				return true, errors.StreamClosed(e.client.Path())
			}
			return true, err
		}
		e.ApplyLine(line)
	}
}

// ApplyLine decodes one stream line, applies it to the store and signals
// the hub once if anything changed. Undecodable lines are logged and
// skipped.
func (e *Engine) ApplyLine(line []byte) bool {
	ev, err := niri.DecodeEvent(line)
	if err != nil {
		e.logger.WithError(err).Warn("Skipping undecodable event line")
		return false
	}
	if u, ok := ev.(niri.Unknown); ok {
		e.logger.WithField("event", u.Tag).Debug("Ignoring unknown event")
		return false
	}

	changed := e.store.Apply(ev)

	e.mu.Lock()
	e.status.LastEventAt = time.Now()
	e.mu.Unlock()

	if changed {
		e.hub.Signal()
	}
	e.logger.WithField("event", ev.EventName()).Trace("Applied event")
	return changed
}

// Status returns the current health report.
func (e *Engine) Status() Status {
	e.mu.Lock()
	st := e.status
	e.mu.Unlock()
	st.Stale = e.store.Stale()
	return st
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.status.State = s
	e.mu.Unlock()
}

func (e *Engine) recordError(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	e.status.LastError = err.Error()
	e.mu.Unlock()
}
