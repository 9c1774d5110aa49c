package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/grovetools/niribar/errors"
	"github.com/grovetools/niribar/pkg/niri"
	"github.com/grovetools/niribar/pkg/niri/ipc"
	"github.com/grovetools/niribar/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu      sync.Mutex
	actions []string
	release chan struct{}
}

func (r *recordingSender) SendAction(ctx context.Context, a niri.Action) error {
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a.ActionName())
	return nil
}

func TestDispatchWritesWireLine(t *testing.T) {
	fake := testutil.NewFakeCompositor(t)
	d := NewDispatcher(ipc.NewClient(fake.Path()), time.Second, quietLogger())

	testCases := []struct {
		name     string
		send     func() <-chan error
		expected string
	}{
		{
			name:     "focus workspace index",
			send:     func() <-chan error { return d.FocusWorkspaceIndex(context.Background(), 2) },
			expected: `{"Action":{"FocusWorkspace":{"reference":{"Index":2}}}}`,
		},
		{
			name:     "focus workspace name",
			send:     func() <-chan error { return d.FocusWorkspaceName(context.Background(), "web") },
			expected: `{"Action":{"FocusWorkspace":{"reference":{"Name":"web"}}}}`,
		},
		{
			name:     "focus window",
			send:     func() <-chan error { return d.FocusWindow(context.Background(), 9) },
			expected: `{"Action":{"FocusWindow":{"id":9}}}`,
		},
		{
			name:     "switch layout",
			send:     func() <-chan error { return d.SwitchKeyboardLayout(context.Background(), niri.LayoutPrev) },
			expected: `{"Action":{"SwitchLayout":{"layout":"Prev"}}}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, <-tc.send())
			assert.Equal(t, tc.expected, fake.NextCommand(2*time.Second))
		})
	}
}

func TestDispatchFailureIsDelivered(t *testing.T) {
	fake := testutil.NewFakeCompositor(t)
	path := fake.Path()
	fake.Close()

	d := NewDispatcher(ipc.NewClient(path), time.Second, quietLogger())
	err := <-d.FocusWorkspaceID(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeCommandFailed))

	err = <-d.Dispatch(context.Background(), nil)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestDispatchDoesNotBlockCaller(t *testing.T) {
	sender := &recordingSender{release: make(chan struct{})}
	d := NewDispatcher(sender, 0, quietLogger())

	start := time.Now()
	results := []<-chan error{
		d.ToggleOverview(context.Background()),
		d.FocusWorkspaceIndex(context.Background(), 1),
	}
	assert.Less(t, time.Since(start), time.Second)

	close(sender.release)
	d.Wait()
	for _, r := range results {
		assert.NoError(t, <-r)
		_, open := <-r
		assert.False(t, open)
	}
	assert.ElementsMatch(t, []string{"ToggleOverview", "FocusWorkspace"}, sender.actions)
}

func TestDispatchTimeout(t *testing.T) {
	sender := &recordingSender{release: make(chan struct{})}
	d := NewDispatcher(sender, 20*time.Millisecond, quietLogger())

	err := <-d.ToggleOverview(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
