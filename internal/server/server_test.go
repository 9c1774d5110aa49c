package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grovetools/niribar/pkg/bus"
	"github.com/grovetools/niribar/pkg/niri"
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

// newTestServer returns a server over a bus fed with the fixture state. Its
// commands go to the returned fake compositor.
func newTestServer(t *testing.T) (*Server, *httptest.Server, *bus.Bus, *testutil.FakeCompositor) {
	t.Helper()
	fake := testutil.NewFakeCompositor(t)

	opts := bus.DefaultOptions()
	opts.SocketPath = fake.Path()
	opts.Logger = quietLogger()
	b, err := bus.New(opts)
	require.NoError(t, err)
	b.Feed([]byte(testutil.FixtureWorkspaces))
	b.Feed([]byte(testutil.FixtureWindows))

	s := New(b, quietLogger())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.cancel()
		ts.Close()
	})
	return s, ts, b, fake
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	_, ts, _, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetState(t *testing.T) {
	_, ts, _, _ := newTestServer(t)

	var snap bus.Snapshot
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/state", &snap))
	assert.Len(t, snap.Workspaces, 2)
	assert.Len(t, snap.Windows, 2)
	assert.Equal(t, "editor", snap.Title)
	require.NotNil(t, snap.FocusedWindowID)
	assert.Equal(t, int64(11), *snap.FocusedWindowID)
}

func TestGetWorkspacesAndWindows(t *testing.T) {
	_, ts, _, _ := newTestServer(t)

	var workspaces []niri.Workspace
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/workspaces", &workspaces))
	require.Len(t, workspaces, 2)
	assert.Equal(t, int64(1), workspaces[0].Idx)

	var windows []niri.Window
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/windows", &windows))
	assert.Len(t, windows, 2)

	windows = nil
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/windows?workspace=2", &windows))
	require.Len(t, windows, 1)
	assert.Equal(t, "browser", windows[0].Title)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/windows?workspace=abc", nil))
}

func TestGetTitleAndStatus(t *testing.T) {
	_, ts, _, _ := newTestServer(t)

	var title TitleResponse
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/title", &title))
	assert.Equal(t, "editor", title.Title)

	var status ServerStatus
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/status", &status))
	assert.NotZero(t, status.PID)
	assert.Equal(t, 0, status.Clients)
}

func TestFocusWorkspace(t *testing.T) {
	_, ts, _, fake := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/focus-workspace", "application/json", strings.NewReader(`{"index":2}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"Action":{"FocusWorkspace":{"reference":{"Index":2}}}}`, fake.NextCommand(2*time.Second))

	resp, err = http.Post(ts.URL+"/api/focus-workspace", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/focus-workspace")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCycle(t *testing.T) {
	_, ts, _, fake := newTestServer(t)

	post := func(body string) CycleResponse {
		resp, err := http.Post(ts.URL+"/api/cycle", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out CycleResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	out := post(`{"forward":true}`)
	require.True(t, out.Moved)
	assert.Equal(t, int64(2), out.Workspace.Idx)
	assert.Equal(t, `{"Action":{"FocusWorkspace":{"reference":{"Index":2}}}}`, fake.NextCommand(2*time.Second))

	// Backward from the first workspace without wrap goes nowhere.
	out = post(`{"forward":false,"wrap":false}`)
	assert.False(t, out.Moved)
	assert.Nil(t, out.Workspace)
}

func TestCommandFailureIsBadGateway(t *testing.T) {
	_, ts, _, fake := newTestServer(t)
	fake.Close()

	resp, err := http.Post(ts.URL+"/api/focus-workspace", "application/json", strings.NewReader(`{"index":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "COMMAND_FAILED", body["code"])
}

func TestStream(t *testing.T) {
	s, ts, b, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() StreamMessage {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	first := read()
	assert.NotEmpty(t, first.ClientID)
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, "editor", first.State.Title)
	assert.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 10*time.Millisecond)

	b.Feed([]byte(`{"WindowFocusChanged":{"id":12}}`))
	next := read()
	assert.Equal(t, first.ClientID, next.ClientID)
	assert.Equal(t, uint64(2), next.Seq)
	assert.Equal(t, "browser", next.State.Title)

	conn.Close()
	assert.Eventually(t, func() bool { return s.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestShutdownClosesStreams(t *testing.T) {
	s, _, _, _ := newTestServer(t)

	socket := testutil.SocketPath(t, "serve.sock")
	ln, err := Listen(socket)
	require.NoError(t, err)

	served := make(chan error, 1)
	go func() { served <- s.Serve(ln) }()

	dialer := websocket.Dialer{NetDial: func(_, _ string) (net.Conn, error) {
		return net.Dial("unix", socket)
	}}
	conn, _, err := dialer.Dial("ws://unix/api/stream", nil)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	require.NoError(t, <-served)

	// The initial frame, then the close frame.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestListenReplacesStaleSocket(t *testing.T) {
	socket := testutil.SocketPath(t, "serve.sock")
	first, err := Listen(socket)
	require.NoError(t, err)
	first.Close()

	require.NoError(t, os.WriteFile(socket, nil, 0600))
	ln, err := Listen(socket)
	require.NoError(t, err)
	defer ln.Close()

	info, err := os.Stat(socket)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
