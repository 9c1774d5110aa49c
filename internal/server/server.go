// Package server exposes a running bus over HTTP on a local Unix socket.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/grovetools/niribar/errors"
	"github.com/grovetools/niribar/pkg/bus"
	"github.com/grovetools/niribar/pkg/niri"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Source is the part of a bus the server reads from and acts on.
type Source interface {
	Snapshot() bus.Snapshot
	Workspaces() []niri.Workspace
	Windows() []niri.Window
	WindowsForWorkspace(id int64) []niri.Window
	CurrentTitle() string
	Status() bus.Status
	SubscribeContext(ctx context.Context) *bus.Subscription
	Commands() *bus.Dispatcher
	CycleWorkspace(ctx context.Context, forward, wrap bool) (niri.Workspace, <-chan error, bool)
}

// ServerStatus is returned by /api/status.
type ServerStatus struct {
	Bus       bus.Status `json:"bus" yaml:"bus"`
	PID       int        `json:"pid" yaml:"pid"`
	StartedAt time.Time  `json:"started_at" yaml:"started_at"`
	Clients   int        `json:"clients" yaml:"clients"`
}

// TitleResponse is returned by /api/title.
type TitleResponse struct {
	Title string `json:"title"`
}

// StreamMessage is one frame pushed on /api/stream.
type StreamMessage struct {
	ClientID string       `json:"client_id"`
	Seq      uint64       `json:"seq"`
	State    bus.Snapshot `json:"state"`
}

// FocusWorkspaceRequest is the body of POST /api/focus-workspace.
type FocusWorkspaceRequest struct {
	Index *int64 `json:"index"`
}

// CycleRequest is the body of POST /api/cycle.
type CycleRequest struct {
	Forward bool `json:"forward"`
	Wrap    bool `json:"wrap"`
}

// CycleResponse reports which workspace a cycle focused.
type CycleResponse struct {
	Moved     bool            `json:"moved"`
	Workspace *niri.Workspace `json:"workspace,omitempty"`
}

// Server serves the bus over a Unix socket.
type Server struct {
	logger    *logrus.Entry
	source    Source
	server    *http.Server
	upgrader  websocket.Upgrader
	startedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	clients map[string]*websocket.Conn
	streams sync.WaitGroup
}

// New creates a new Server instance.
func New(source Source, logger *logrus.Entry) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		logger:    logger,
		source:    source,
		startedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		clients:   make(map[string]*websocket.Conn),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/state", s.handleGetState)
	mux.HandleFunc("/api/workspaces", s.handleGetWorkspaces)
	mux.HandleFunc("/api/windows", s.handleGetWindows)
	mux.HandleFunc("/api/title", s.handleGetTitle)
	mux.HandleFunc("/api/status", s.handleGetStatus)
	mux.HandleFunc("/api/stream", s.handleStream)
	mux.HandleFunc("/api/focus-workspace", s.handleFocusWorkspace)
	mux.HandleFunc("/api/cycle", s.handleCycle)
	return mux
}

// ListenAndServe starts serving on the given unix socket path.
// It blocks until the server stops or fails.
func (s *Server) ListenAndServe(socketPath string) error {
	listener, err := Listen(socketPath)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Listen prepares a Unix socket listener: a stale socket file is removed,
// the directory created and the socket restricted to the owner.
func Listen(socketPath string) (net.Listener, error) {
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return nil, fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on socket: %w", err)
	}

	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}
	return listener, nil
}

// Serve accepts connections on listener until Shutdown.
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	s.server = &http.Server{
		Handler:     s.Handler(),
		BaseContext: func(net.Listener) context.Context { return s.ctx },
	}
	srv := s.server
	s.mu.Unlock()

	s.logger.WithField("socket", listener.Addr().String()).Info("Server listening")
	err := srv.Serve(listener)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server and closes every stream.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	s.cancel()

	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.streams.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

// Clients returns the number of connected stream clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.source.Snapshot())
}

func (s *Server) handleGetWorkspaces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.source.Workspaces())
}

// handleGetWindows returns every window, or the windows of one workspace
// when ?workspace=<id> is given.
func (s *Server) handleGetWindows(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("workspace")
	if raw == "" {
		writeJSON(w, http.StatusOK, s.source.Windows())
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.InvalidInput("workspace must be an integer id").WithDetail("workspace", raw))
		return
	}
	writeJSON(w, http.StatusOK, s.source.WindowsForWorkspace(id))
}

func (s *Server) handleGetTitle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TitleResponse{Title: s.source.CurrentTitle()})
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ServerStatus{
		Bus:       s.source.Status(),
		PID:       os.Getpid(),
		StartedAt: s.startedAt,
		Clients:   s.Clients(),
	})
}

// handleStream upgrades to a websocket and pushes a snapshot immediately
// and after every bus signal. Signals that arrive while a frame is being
// written coalesce into the next frame.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}

	clientID := uuid.New().String()
	logger := s.logger.WithField("client", clientID)

	s.mu.Lock()
	s.clients[clientID] = conn
	s.mu.Unlock()
	s.streams.Add(1)

	ctx, cancel := context.WithCancel(s.ctx)
	defer func() {
		cancel()
		s.mu.Lock()
		delete(s.clients, clientID)
		s.mu.Unlock()
		conn.Close()
		s.streams.Done()
		logger.Debug("Stream client disconnected")
	}()

	sub := s.source.SubscribeContext(ctx)
	defer sub.Close()

	logger.Debug("Stream client connected")

	// The read loop only exists to observe pongs and the close handshake.
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	var seq uint64
	send := func() bool {
		seq++
		msg := StreamMessage{ClientID: clientID, Seq: seq, State: s.source.Snapshot()}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			logger.WithError(err).Debug("Failed to write stream frame")
			return false
		}
		return true
	}

	if !send() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case _, ok := <-sub.C():
			if !ok {
				return
			}
			if !send() {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleFocusWorkspace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req FocusWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Index == nil {
		writeError(w, http.StatusBadRequest, errors.InvalidInput("request body must be {\"index\": <n>}"))
		return
	}

	if err := <-s.source.Commands().FocusWorkspaceIndex(r.Context(), *req.Index); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	s.logger.WithField("index", *req.Index).Debug("Focused workspace")
	writeJSON(w, http.StatusOK, map[string]int64{"index": *req.Index})
}

func (s *Server) handleCycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req CycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.InvalidInput("invalid request body"))
		return
	}

	target, result, ok := s.source.CycleWorkspace(r.Context(), req.Forward, req.Wrap)
	if !ok {
		writeJSON(w, http.StatusOK, CycleResponse{})
		return
	}
	if err := <-result; err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, CycleResponse{Moved: true, Workspace: &target})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError renders err as a coded error body.
func writeError(w http.ResponseWriter, status int, err error) {
	be, ok := err.(*errors.BarError)
	if !ok {
		be = errors.Wrap(err, errors.ErrCodeInternal, err.Error())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(be.ToJSON()))
}
