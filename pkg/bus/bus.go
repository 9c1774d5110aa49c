// Package bus is the compositor state bus: a continuously updated model of
// niri's windows, workspaces, focus, keyboard layout and overview state,
// fed by the event stream and shared by any number of readers.
//
// A Bus is constructed explicitly and owned by the caller:
//
//	b, err := bus.New(bus.DefaultOptions())
//	if err != nil { ... }
//	if err := b.Start(ctx); err != nil { ... }
//	defer b.Stop()
//
//	sub := b.Subscribe()
//	for range sub.C() {
//		fmt.Println(b.CurrentTitle())
//	}
package bus

import (
	"context"
	"sync"
	"time"

	"github.com/grovetools/niribar/errors"
	"github.com/grovetools/niribar/internal/bus/engine"
	"github.com/grovetools/niribar/internal/bus/hub"
	"github.com/grovetools/niribar/internal/bus/store"
	"github.com/grovetools/niribar/logging"
	"github.com/grovetools/niribar/pkg/niri"
	"github.com/grovetools/niribar/pkg/niri/ipc"
	"github.com/sirupsen/logrus"
)

type (
	// Subscription is a single-slot wake-up channel.
	Subscription = hub.Subscription
	// Snapshot is a copied-out view of the whole state.
	Snapshot = store.Snapshot
	// Status is the health of the event-stream reader.
	Status = engine.Status
	// StreamOptions controls reconnect behaviour.
	StreamOptions = engine.Options
)

// Options configures a Bus.
type Options struct {
	// SocketPath overrides NIRI_SOCKET.
	SocketPath     string
	Stream         StreamOptions
	CommandTimeout time.Duration
	Logger         *logrus.Entry
}

// DefaultOptions returns options that reconnect with backoff and bound each
// command send to two seconds.
func DefaultOptions() Options {
	return Options{
		Stream:         engine.DefaultOptions(),
		CommandTimeout: 2 * time.Second,
	}
}

// Bus ties the reader, the store, the hub and the dispatcher together.
type Bus struct {
	client     *ipc.Client
	store      *store.Store
	hub        *hub.Hub
	engine     *engine.Engine
	dispatcher *Dispatcher
	logger     *logrus.Entry

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

// New creates a Bus connected to the compositor socket. The reader does not
// run until Start.
func New(opts Options) (*Bus, error) {
	path := opts.SocketPath
	if path == "" {
		var err error
		if path, err = ipc.SocketPath(); err != nil {
			return nil, err
		}
	}
	client := ipc.NewClient(path)
	if opts.CommandTimeout > 0 {
		client.WriteTimeout = opts.CommandTimeout
	}
	return newBus(client, opts), nil
}

// NewDetached creates a Bus without a compositor connection. It can only be
// fed through Feed, e.g. when replaying a captured event log.
func NewDetached(opts Options) *Bus {
	return newBus(nil, opts)
}

func newBus(client *ipc.Client, opts Options) *Bus {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger("bus")
	}
	st := store.New()
	h := hub.New()

	b := &Bus{
		client: client,
		store:  st,
		hub:    h,
		engine: engine.New(client, st, h, opts.Stream, logger.WithField("task", "reader")),
		logger: logger,
		done:   make(chan struct{}),
	}
	var sender Sender = detachedSender{}
	if client != nil {
		sender = client
	}
	b.dispatcher = NewDispatcher(sender, opts.CommandTimeout, logger.WithField("task", "dispatch"))
	return b
}

// Start launches the reader in the background and returns immediately. A
// Bus can be started once.
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return errors.New(errors.ErrCodeAlreadyStarted, "bus already started")
	}
	if b.client == nil {
		return errors.New(errors.ErrCodeSocketNotConfigured, "bus has no compositor connection")
	}
	b.started = true

	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	go func() {
		err := b.engine.Run(runCtx)
		b.mu.Lock()
		b.err = err
		b.mu.Unlock()
		close(b.done)
	}()
	return nil
}

// Stop cancels the reader, waits for it and for in-flight commands, and
// closes every subscription. The Bus cannot be restarted.
func (b *Bus) Stop() {
	b.mu.Lock()
	cancel := b.cancel
	if !b.started {
		b.started = true
		close(b.done)
	}
	b.mu.Unlock()

	if cancel != nil {
		cancel()
		<-b.done
	}
	b.dispatcher.Wait()
	b.hub.CloseAll()
}

// Done is closed when the reader has exited.
func (b *Bus) Done() <-chan struct{} {
	return b.done
}

// Err returns the reader's terminal error once Done is closed. It is nil
// after a clean Stop.
func (b *Bus) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Status reports the reader's health.
func (b *Bus) Status() Status {
	return b.engine.Status()
}

// Subscribe returns a wake-up channel signalled after every state change.
func (b *Bus) Subscribe() *Subscription {
	return b.hub.Subscribe()
}

// SubscribeContext is Subscribe with automatic Close when ctx ends.
func (b *Bus) SubscribeContext(ctx context.Context) *Subscription {
	return b.hub.SubscribeContext(ctx)
}

// Feed applies one raw event line as if it came from the stream.
func (b *Bus) Feed(line []byte) bool {
	return b.engine.ApplyLine(line)
}

// Commands returns the action dispatcher.
func (b *Bus) Commands() *Dispatcher {
	return b.dispatcher
}

// CycleWorkspace focuses the workspace after (or before) the focused one.
// ok is false when there is no such workspace, in which case nothing is
// sent and result is nil.
func (b *Bus) CycleWorkspace(ctx context.Context, forward, wrap bool) (target niri.Workspace, result <-chan error, ok bool) {
	target, ok = b.store.NextWorkspace(forward, wrap)
	if !ok {
		return niri.Workspace{}, nil, false
	}
	return target, b.dispatcher.FocusWorkspaceIndex(ctx, target.Idx), true
}

// Workspaces returns the workspace list ordered by idx.
func (b *Bus) Workspaces() []niri.Workspace { return b.store.Workspaces() }

// Windows returns every known window ordered by id.
func (b *Bus) Windows() []niri.Window { return b.store.Windows() }

// WindowsForWorkspace returns the windows on one workspace.
func (b *Bus) WindowsForWorkspace(id int64) []niri.Window { return b.store.WindowsForWorkspace(id) }

// Window returns one window by id.
func (b *Bus) Window(id int64) (niri.Window, bool) { return b.store.Window(id) }

// CurrentTitle returns the focused window's title, or "".
func (b *Bus) CurrentTitle() string { return b.store.CurrentTitle() }

// FocusedWorkspaceID returns the focused workspace id.
func (b *Bus) FocusedWorkspaceID() (int64, bool) { return b.store.FocusedWorkspaceID() }

// FocusedWorkspacePosition returns the focused workspace's position in the
// ordered list.
func (b *Bus) FocusedWorkspacePosition() (int, bool) { return b.store.FocusedWorkspacePosition() }

// FocusedWindowID returns the focused window id.
func (b *Bus) FocusedWindowID() (int64, bool) { return b.store.FocusedWindowID() }

// KeyboardLayouts returns the keyboard layouts.
func (b *Bus) KeyboardLayouts() niri.KeyboardLayouts { return b.store.KeyboardLayouts() }

// OverviewOpen reports whether the overview is open.
func (b *Bus) OverviewOpen() bool { return b.store.OverviewOpen() }

// NextWorkspace computes the cycling target without sending anything.
func (b *Bus) NextWorkspace(forward, wrap bool) (niri.Workspace, bool) {
	return b.store.NextWorkspace(forward, wrap)
}

// Synced reports whether the initial window and workspace lists have both
// arrived.
func (b *Bus) Synced() bool { return b.store.Synced() }

// Snapshot copies out the whole state.
func (b *Bus) Snapshot() Snapshot { return b.store.Snapshot() }

// Reset drops all state.
func (b *Bus) Reset() {
	b.store.Reset()
	b.hub.Signal()
}

type detachedSender struct{}

func (detachedSender) SendAction(_ context.Context, a niri.Action) error {
	return errors.CommandFailed(a.ActionName(), errors.New(errors.ErrCodeNotRunning, "bus has no compositor connection"))
}
