// Package client talks to a running `niribar serve` instance over its Unix
// socket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grovetools/niribar/errors"
	"github.com/grovetools/niribar/internal/server"
	"github.com/grovetools/niribar/pkg/bus"
	"github.com/grovetools/niribar/pkg/niri"
)

// baseURL is the dummy host used for Unix socket HTTP requests.
// The actual connection goes through the Unix socket, not this URL.
const baseURL = "http://unix"

type (
	// ServerStatus is the reply of Status.
	ServerStatus = server.ServerStatus
	// StreamMessage is one frame received from Stream.
	StreamMessage = server.StreamMessage
	// CycleResponse is the reply of Cycle.
	CycleResponse = server.CycleResponse
)

// RemoteClient calls the serve API over a Unix socket.
type RemoteClient struct {
	httpClient *http.Client
	socketPath string
}

// NewRemoteClient creates a client for the server at socketPath. No
// connection is made until the first call.
func NewRemoteClient(socketPath string) *RemoteClient {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}

	return &RemoteClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   10 * time.Second,
		},
		socketPath: socketPath,
	}
}

// SocketPath returns the server socket.
func (c *RemoteClient) SocketPath() string {
	return c.socketPath
}

// State returns the full snapshot.
func (c *RemoteClient) State(ctx context.Context) (bus.Snapshot, error) {
	var snap bus.Snapshot
	err := c.get(ctx, "/api/state", &snap)
	return snap, err
}

// Status returns the server and reader health.
func (c *RemoteClient) Status(ctx context.Context) (ServerStatus, error) {
	var status ServerStatus
	err := c.get(ctx, "/api/status", &status)
	return status, err
}

// Workspaces returns the workspace list ordered by idx.
func (c *RemoteClient) Workspaces(ctx context.Context) ([]niri.Workspace, error) {
	var workspaces []niri.Workspace
	err := c.get(ctx, "/api/workspaces", &workspaces)
	return workspaces, err
}

// Windows returns the windows of workspace id, or every window when id is nil.
func (c *RemoteClient) Windows(ctx context.Context, workspaceID *int64) ([]niri.Window, error) {
	path := "/api/windows"
	if workspaceID != nil {
		path += "?workspace=" + url.QueryEscape(strconv.FormatInt(*workspaceID, 10))
	}
	var windows []niri.Window
	err := c.get(ctx, path, &windows)
	return windows, err
}

// Title returns the focused window's title.
func (c *RemoteClient) Title(ctx context.Context) (string, error) {
	var resp server.TitleResponse
	err := c.get(ctx, "/api/title", &resp)
	return resp.Title, err
}

// FocusWorkspace focuses the workspace with the given idx.
func (c *RemoteClient) FocusWorkspace(ctx context.Context, index int64) error {
	return c.post(ctx, "/api/focus-workspace", server.FocusWorkspaceRequest{Index: &index}, nil)
}

// Cycle moves focus to the next or previous workspace.
func (c *RemoteClient) Cycle(ctx context.Context, forward, wrap bool) (CycleResponse, error) {
	var resp CycleResponse
	err := c.post(ctx, "/api/cycle", server.CycleRequest{Forward: forward, Wrap: wrap}, &resp)
	return resp, err
}

// IsRunning returns true if the server is available and responding.
func (c *RemoteClient) IsRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Stream subscribes to state frames over a websocket. The channel is closed
// when ctx is cancelled or the connection is lost.
func (c *RemoteClient) Stream(ctx context.Context) (<-chan StreamMessage, error) {
	dialer := websocket.Dialer{
		NetDialContext: func(dialCtx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(dialCtx, "unix", c.socketPath)
		},
		HandshakeTimeout: 5 * time.Second,
	}

	conn, resp, err := dialer.DialContext(ctx, "ws://unix/api/stream", nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, errors.ConnectFailed(c.socketPath, err)
	}

	ch := make(chan StreamMessage, 10)
	readDone := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
		case <-readDone:
		}
		conn.Close()
	}()

	go func() {
		defer close(ch)
		defer close(readDone)
		for {
			var msg StreamMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case ch <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// Close cleans up any resources used by the client.
func (c *RemoteClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *RemoteClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *RemoteClient) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *RemoteClient) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.ConnectFailed(c.socketPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var be errors.BarError
		if json.Unmarshal(body, &be) == nil && be.Code != "" {
			return &be
		}
		return errors.New(errors.ErrCodeInternal, fmt.Sprintf("server returned status %d", resp.StatusCode)).
			WithDetail("path", req.URL.Path)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.ErrCodeDecodeFailed, "failed to decode server response").
			WithDetail("path", req.URL.Path)
	}
	return nil
}
