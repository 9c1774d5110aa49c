package logging

import (
	"io"
	"os"
	"sync"
)

// stderrSink is the terminal output shared by every component logger. Each
// component owns a separate logrus.Logger with its own lock, so the engine,
// server and CLI loggers can write at the same moment; the sink serializes
// whole entries so lines never interleave.
type stderrSink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *stderrSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *stderrSink) swap(w io.Writer) io.Writer {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.w
	s.w = w
	return prev
}

var stderr = &stderrSink{w: os.Stderr}

// SetGlobalOutput redirects the terminal output of every logger, including
// the ones already created, and returns the previous writer.
func SetGlobalOutput(w io.Writer) io.Writer {
	return stderr.swap(w)
}

// GetGlobalOutput returns the shared terminal sink.
func GetGlobalOutput() io.Writer {
	return stderr
}
