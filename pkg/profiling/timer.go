package profiling

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Stopper ends a span started with Start.
type Stopper interface {
	Stop()
}

type span struct {
	name     string
	start    time.Time
	duration time.Duration
	children []*span
	timer    *Timer
}

func (s *span) Stop() {
	s.timer.end(s, time.Since(s.start))
}

// Timer records nested spans. Spans must be stopped in reverse start order.
type Timer struct {
	mu      sync.Mutex
	enabled bool
	root    *span
	stack   []*span
}

var defaultTimer = &Timer{}

// Enable turns on the process-wide timer. Calling it twice is a no-op.
func Enable() { defaultTimer.Enable() }

// Start opens a span on the process-wide timer.
func Start(name string) Stopper { return defaultTimer.Start(name) }

// Summarize writes the process-wide timing tree to w.
func Summarize(w io.Writer) { defaultTimer.Summarize(w) }

// Enable starts recording.
func (t *Timer) Enable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.enabled {
		return
	}
	t.enabled = true
	t.root = &span{name: "total", start: time.Now(), timer: t}
	t.stack = []*span{t.root}
}

// Start opens a span nested under the innermost open span.
func (t *Timer) Start(name string) Stopper {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return noopStopper{}
	}
	s := &span{name: name, start: time.Now(), timer: t}
	parent := t.stack[len(t.stack)-1]
	parent.children = append(parent.children, s)
	t.stack = append(t.stack, s)
	return s
}

func (t *Timer) end(s *span, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s.duration = d
	for i := len(t.stack) - 1; i > 0; i-- {
		if t.stack[i] == s {
			t.stack = t.stack[:i]
			return
		}
	}
}

// Summarize writes the span tree with each span's share of the total.
func (t *Timer) Summarize(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	total := time.Since(t.root.start)
	fmt.Fprintf(w, "timing: %v total\n", total.Round(100*time.Microsecond))
	for _, child := range t.root.children {
		printSpan(w, child, 1, total)
	}
}

func printSpan(w io.Writer, s *span, depth int, total time.Duration) {
	pct := 0.0
	if total > 0 {
		pct = float64(s.duration) / float64(total) * 100
	}
	fmt.Fprintf(w, "%s- %s %v (%.1f%%)\n", strings.Repeat("  ", depth), s.name, s.duration.Round(100*time.Microsecond), pct)
	for _, child := range s.children {
		printSpan(w, child, depth+1, total)
	}
}

type noopStopper struct{}

func (noopStopper) Stop() {}
