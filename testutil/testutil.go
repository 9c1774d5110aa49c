// Package testutil provides an in-process stand-in for the niri compositor.
package testutil

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// HandshakeReply is what niri answers to the event-stream request.
const HandshakeReply = `{"Ok":"Handled"}`

// FakeCompositor listens on a real Unix socket and speaks enough of the
// niri protocol for tests: it accepts event-stream connections, emits
// scripted lines to them and records one-shot requests.
type FakeCompositor struct {
	t    *testing.T
	dir  string
	path string
	ln   net.Listener

	mu      sync.Mutex
	streams []net.Conn
	closed  bool

	streamCh chan struct{}
	commands chan string
	wg       sync.WaitGroup
}

// NewFakeCompositor starts a fake compositor. It is shut down automatically
// when the test ends.
func NewFakeCompositor(t *testing.T) *FakeCompositor {
	t.Helper()

	// Unix socket paths are limited to ~108 bytes, t.TempDir is often longer.
	dir, err := os.MkdirTemp("", "niri")
	require.NoError(t, err)

	path := filepath.Join(dir, "niri.sock")
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)

	f := &FakeCompositor{
		t:        t,
		dir:      dir,
		path:     path,
		ln:       ln,
		streamCh: make(chan struct{}, 16),
		commands: make(chan string, 64),
	}

	f.wg.Add(1)
	go f.acceptLoop()

	t.Cleanup(f.Close)
	return f
}

// Path returns the socket path.
func (f *FakeCompositor) Path() string {
	return f.path
}

func (f *FakeCompositor) acceptLoop() {
	defer f.wg.Done()
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.wg.Add(1)
		go f.handle(conn)
	}
}

func (f *FakeCompositor) handle(conn net.Conn) {
	defer f.wg.Done()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		conn.Close()
		return
	}
	line = strings.TrimRight(line, "\n")

	if line != `"EventStream"` {
		select {
		case f.commands <- line:
		default:
		}
		conn.Close()
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		conn.Close()
		return
	}
	_, _ = conn.Write([]byte(HandshakeReply + "\n"))
	f.streams = append(f.streams, conn)
	f.mu.Unlock()

	select {
	case f.streamCh <- struct{}{}:
	default:
	}
}

// WaitStream blocks until a new event-stream connection has completed its
// handshake.
func (f *FakeCompositor) WaitStream(timeout time.Duration) {
	f.t.Helper()
	select {
	case <-f.streamCh:
	case <-time.After(timeout):
		f.t.Fatalf("no event stream connected within %v", timeout)
	}
}

// Emit writes each line to every open event stream.
func (f *FakeCompositor) Emit(lines ...string) {
	f.t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conn := range f.streams {
		for _, line := range lines {
			if _, err := conn.Write([]byte(line + "\n")); err != nil {
				f.t.Logf("fake compositor: write failed: %v", err)
			}
		}
	}
}

// StreamCount returns the number of open event streams.
func (f *FakeCompositor) StreamCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.streams)
}

// DropStreams closes every open event stream, as a crashing compositor
// would.
func (f *FakeCompositor) DropStreams() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conn := range f.streams {
		conn.Close()
	}
	f.streams = nil
}

// NextCommand returns the next one-shot request line received.
func (f *FakeCompositor) NextCommand(timeout time.Duration) string {
	f.t.Helper()
	select {
	case cmd := <-f.commands:
		return cmd
	case <-time.After(timeout):
		f.t.Fatalf("no command received within %v", timeout)
		return ""
	}
}

// Close stops the listener, drops all streams and removes the socket.
func (f *FakeCompositor) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.mu.Unlock()

	f.ln.Close()
	f.DropStreams()
	f.wg.Wait()
	os.RemoveAll(f.dir)
}

// SocketPath returns a short path for a Unix socket named name inside a
// fresh temporary directory that is removed when the test ends.
func SocketPath(t *testing.T, name string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "nb")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, name)
}

// Fixture event lines describing two workspaces and two windows, with
// window 11 on workspace 1 focused.
const (
	FixtureWorkspaces = `{"WorkspacesChanged":{"workspaces":[` +
		`{"id":1,"idx":1,"name":"main","is_focused":true,"active_window_id":11},` +
		`{"id":2,"idx":2,"name":null,"is_focused":false,"active_window_id":null}]}}`
	FixtureWindows = `{"WindowsChanged":{"windows":[` +
		`{"id":11,"title":"editor","app_id":"code","workspace_id":1,"is_focused":true,"is_floating":false},` +
		`{"id":12,"title":"browser","app_id":"firefox","workspace_id":2,"is_focused":false,"is_floating":false}]}}`
)
