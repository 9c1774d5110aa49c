// Package ipc talks to the niri compositor over its Unix socket.
package ipc

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/grovetools/niribar/errors"
	"github.com/grovetools/niribar/logging"
	"github.com/grovetools/niribar/pkg/niri"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultDialTimeout bounds connecting to the compositor socket.
	DefaultDialTimeout = 2 * time.Second
	// DefaultWriteTimeout bounds writing one request line.
	DefaultWriteTimeout = 2 * time.Second

	// maxLineSize caps a single event line. Bulk WindowsChanged payloads on
	// a busy desktop can run to several hundred kilobytes.
	maxLineSize = 10 * 1024 * 1024
)

// Client opens connections to one compositor socket. A Client holds no
// connection itself and is safe for concurrent use.
type Client struct {
	path         string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	logger       *logrus.Entry
}

// NewClient creates a client for the socket at path.
func NewClient(path string) *Client {
	return &Client{
		path:         path,
		DialTimeout:  DefaultDialTimeout,
		WriteTimeout: DefaultWriteTimeout,
		logger:       logging.NewLogger("niri-ipc"),
	}
}

// NewClientFromEnv creates a client for the socket named by NIRI_SOCKET.
func NewClientFromEnv() (*Client, error) {
	path, err := SocketPath()
	if err != nil {
		return nil, err
	}
	return NewClient(path), nil
}

// Path returns the socket path.
func (c *Client) Path() string {
	return c.path
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: c.DialTimeout}
	conn, err := d.DialContext(ctx, "unix", c.path)
	if err != nil {
		return nil, errors.ConnectFailed(c.path, err)
	}
	return conn, nil
}

func (c *Client) writeLine(ctx context.Context, conn net.Conn, line []byte) error {
	deadline := time.Now().Add(c.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if c.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(deadline)
	}

	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	if _, err := conn.Write(buf); err != nil {
		return errors.WriteFailed(c.path, err)
	}
	_ = conn.SetWriteDeadline(time.Time{})
	return nil
}

// OpenEventStream connects, switches the connection into event-stream mode
// and returns a reader over the incoming lines. Cancelling ctx closes the
// connection and unblocks any pending Next.
func (c *Client) OpenEventStream(ctx context.Context) (*EventStream, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.writeLine(ctx, conn, []byte(niri.EventStreamRequest)); err != nil {
		conn.Close()
		return nil, err
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	s := &EventStream{
		conn:    conn,
		path:    c.path,
		scanner: scanner,
		done:    make(chan struct{}),
	}
	go func() {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.ctxErr = ctx.Err()
			s.mu.Unlock()
			s.Close()
		case <-s.done:
		}
	}()

	c.logger.WithField("socket", c.path).Debug("Event stream opened")
	return s, nil
}

// Send writes one request line on a fresh connection and closes it. The
// compositor's reply is not read.
func (c *Client) Send(ctx context.Context, line []byte) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return c.writeLine(ctx, conn, line)
}

// SendAction encodes and sends one action.
func (c *Client) SendAction(ctx context.Context, a niri.Action) error {
	line, err := niri.EncodeAction(a)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to encode action")
	}
	if err := c.Send(ctx, line); err != nil {
		return errors.CommandFailed(a.ActionName(), err)
	}
	c.logger.WithField("action", a.ActionName()).Debug("Action sent")
	return nil
}

// EventStream is one open event-stream connection. Next must only be called
// from a single goroutine; Close may be called from any.
type EventStream struct {
	conn    net.Conn
	path    string
	scanner *bufio.Scanner

	closeOnce sync.Once
	done      chan struct{}

	mu     sync.Mutex
	ctxErr error
}

// Next blocks until the next line arrives. It returns io.EOF when the
// compositor closes the stream cleanly and the context error when the
// stream was closed by cancellation.
func (s *EventStream) Next() ([]byte, error) {
	if s.scanner.Scan() {
		line := s.scanner.Bytes()
		out := make([]byte, len(line))
		copy(out, line)
		return out, nil
	}

	select {
	case <-s.done:
		s.mu.Lock()
		err := s.ctxErr
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return nil, io.EOF
	default:
	}

	if err := s.scanner.Err(); err != nil {
		return nil, errors.ReadFailed(s.path, err)
	}
	return nil, io.EOF
}

// Close closes the underlying connection. It is safe to call more than once.
func (s *EventStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}
