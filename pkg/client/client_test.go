package client

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/grovetools/niribar/errors"
	"github.com/grovetools/niribar/internal/server"
	"github.com/grovetools/niribar/pkg/bus"
	"github.com/grovetools/niribar/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func startServer(t *testing.T) (*RemoteClient, *bus.Bus, *testutil.FakeCompositor) {
	t.Helper()
	fake := testutil.NewFakeCompositor(t)

	opts := bus.DefaultOptions()
	opts.SocketPath = fake.Path()
	opts.Logger = quietLogger()
	b, err := bus.New(opts)
	require.NoError(t, err)
	b.Feed([]byte(testutil.FixtureWorkspaces))
	b.Feed([]byte(testutil.FixtureWindows))

	socket := testutil.SocketPath(t, "serve.sock")
	ln, err := server.Listen(socket)
	require.NoError(t, err)

	srv := server.New(b, quietLogger())
	go srv.Serve(ln)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	c := NewRemoteClient(socket)
	t.Cleanup(func() { c.Close() })
	return c, b, fake
}

func TestIsRunning(t *testing.T) {
	c, _, _ := startServer(t)
	assert.True(t, c.IsRunning())

	missing := NewRemoteClient(testutil.SocketPath(t, "absent.sock"))
	assert.False(t, missing.IsRunning())
}

func TestQueries(t *testing.T) {
	c, _, _ := startServer(t)
	ctx := context.Background()

	snap, err := c.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, "editor", snap.Title)
	assert.Len(t, snap.Workspaces, 2)

	workspaces, err := c.Workspaces(ctx)
	require.NoError(t, err)
	require.Len(t, workspaces, 2)
	assert.Equal(t, "main", workspaces[0].DisplayName())

	all, err := c.Windows(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ws := int64(1)
	onFirst, err := c.Windows(ctx, &ws)
	require.NoError(t, err)
	require.Len(t, onFirst, 1)
	assert.Equal(t, int64(11), onFirst[0].ID)

	title, err := c.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "editor", title)

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, status.Bus.State)
}

func TestCommands(t *testing.T) {
	c, _, fake := startServer(t)
	ctx := context.Background()

	require.NoError(t, c.FocusWorkspace(ctx, 2))
	assert.Equal(t, `{"Action":{"FocusWorkspace":{"reference":{"Index":2}}}}`, fake.NextCommand(2*time.Second))

	resp, err := c.Cycle(ctx, false, true)
	require.NoError(t, err)
	require.True(t, resp.Moved)
	assert.Equal(t, int64(2), resp.Workspace.Idx, "wraps from the first to the last workspace")
	assert.Equal(t, `{"Action":{"FocusWorkspace":{"reference":{"Index":2}}}}`, fake.NextCommand(2*time.Second))
}

func TestCommandErrorIsDecoded(t *testing.T) {
	c, _, fake := startServer(t)
	fake.Close()

	err := c.FocusWorkspace(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeCommandFailed))
}

func TestUnreachableServer(t *testing.T) {
	c := NewRemoteClient(testutil.SocketPath(t, "absent.sock"))
	_, err := c.State(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCodeConnectFailed))

	_, err = c.Stream(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCodeConnectFailed))
}

func TestStream(t *testing.T) {
	c, b, _ := startServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames, err := c.Stream(ctx)
	require.NoError(t, err)

	next := func() StreamMessage {
		t.Helper()
		select {
		case msg, ok := <-frames:
			require.True(t, ok, "stream closed early")
			return msg
		case <-time.After(2 * time.Second):
			t.Fatal("no stream frame")
			return StreamMessage{}
		}
	}

	first := next()
	assert.Equal(t, "editor", first.State.Title)

	b.Feed([]byte(`{"WindowClosed":{"id":11}}`))
	second := next()
	assert.Equal(t, "", second.State.Title)
	assert.Len(t, second.State.Windows, 1)

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-frames
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStreamEndsWhenServerGoesAway(t *testing.T) {
	fake := testutil.NewFakeCompositor(t)
	opts := bus.DefaultOptions()
	opts.SocketPath = fake.Path()
	opts.Logger = quietLogger()
	b, err := bus.New(opts)
	require.NoError(t, err)

	socket := testutil.SocketPath(t, "serve.sock")
	ln, err := server.Listen(socket)
	require.NoError(t, err)
	srv := server.New(b, quietLogger())
	go srv.Serve(ln)

	c := NewRemoteClient(socket)
	defer c.Close()

	baseline := runtime.NumGoroutine()

	// The context outlives the connection.
	frames, err := c.Stream(context.Background())
	require.NoError(t, err)
	select {
	case <-frames:
	case <-time.After(2 * time.Second):
		t.Fatal("no initial frame")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(shutdownCtx))

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-frames:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= baseline
	}, 2*time.Second, 10*time.Millisecond, "stream goroutines should exit")
}
