package bus

import (
	"context"
	"sync"
	"time"

	"github.com/grovetools/niribar/errors"
	"github.com/grovetools/niribar/pkg/niri"
	"github.com/sirupsen/logrus"
)

// Sender writes one action to the compositor.
type Sender interface {
	SendAction(ctx context.Context, a niri.Action) error
}

// Dispatcher sends actions off the caller's goroutine. Success only means
// the request was written; the compositor's reaction shows up later as
// ordinary events.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	logger  *logrus.Entry
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher. A zero timeout means sends are only
// bounded by the context passed to Dispatch.
func NewDispatcher(sender Sender, timeout time.Duration, logger *logrus.Entry) *Dispatcher {
	return &Dispatcher{sender: sender, timeout: timeout, logger: logger}
}

// Dispatch sends a on a new goroutine. The returned channel receives
// exactly one value, nil on success, and is then closed.
func (d *Dispatcher) Dispatch(ctx context.Context, a niri.Action) <-chan error {
	result := make(chan error, 1)
	if a == nil {
		result <- errors.InvalidInput("nil action")
		close(result)
		return result
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(result)

		sendCtx := ctx
		if d.timeout > 0 {
			var cancel context.CancelFunc
			sendCtx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}

		err := d.sender.SendAction(sendCtx, a)
		if err != nil {
			d.logger.WithError(err).WithField("action", a.ActionName()).Error("Failed to send action")
		}
		result <- err
	}()
	return result
}

// Wait blocks until every in-flight send has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// FocusWorkspaceIndex focuses the workspace with the given idx.
func (d *Dispatcher) FocusWorkspaceIndex(ctx context.Context, idx int64) <-chan error {
	return d.Dispatch(ctx, niri.FocusWorkspace{Reference: niri.WorkspaceIndex(idx)})
}

// FocusWorkspaceID focuses a workspace by id.
func (d *Dispatcher) FocusWorkspaceID(ctx context.Context, id int64) <-chan error {
	return d.Dispatch(ctx, niri.FocusWorkspace{Reference: niri.WorkspaceID(id)})
}

// FocusWorkspaceName focuses a named workspace.
func (d *Dispatcher) FocusWorkspaceName(ctx context.Context, name string) <-chan error {
	return d.Dispatch(ctx, niri.FocusWorkspace{Reference: niri.WorkspaceName(name)})
}

// FocusWindow focuses a window by id.
func (d *Dispatcher) FocusWindow(ctx context.Context, id int64) <-chan error {
	return d.Dispatch(ctx, niri.FocusWindow{ID: id})
}

// SwitchKeyboardLayout switches the keyboard layout.
func (d *Dispatcher) SwitchKeyboardLayout(ctx context.Context, target niri.LayoutTarget) <-chan error {
	return d.Dispatch(ctx, niri.SwitchLayout{Target: target})
}

// ToggleOverview opens or closes the overview.
func (d *Dispatcher) ToggleOverview(ctx context.Context) <-chan error {
	return d.Dispatch(ctx, niri.ToggleOverview{})
}
