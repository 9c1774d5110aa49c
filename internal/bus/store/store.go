package store

import (
	"sort"
	"sync"

	"github.com/grovetools/niribar/pkg/niri"
)

// Store is the compositor state model. A single writer applies events while
// any number of readers copy data out; everything is guarded by one lock so
// window removal and focus clearing are never observed separately.
type Store struct {
	mu         sync.RWMutex
	windows    map[int64]niri.Window
	workspaces []niri.Workspace
	focused    *int64
	layouts    niri.KeyboardLayouts
	overview   bool
	stale      bool
	// Set by the first bulk list of each kind.
	seenWindows    bool
	seenWorkspaces bool
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		windows: make(map[int64]niri.Window),
		layouts: niri.KeyboardLayouts{CurrentIdx: -1},
	}
}

// Apply merges one event into the store and reports whether observable
// state may have changed.
func (s *Store) Apply(ev niri.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := ev.(type) {
	case niri.WindowsChanged:
		s.seenWindows = true
		return s.replaceWindowsLocked(e.Windows)

	case niri.WindowOpenedOrChanged:
		s.windows[e.Window.ID] = e.Window.Clone()
		return true

	case niri.WindowClosed:
		return s.removeWindowLocked(e.ID)

	case niri.WindowLayoutsChanged:
		changed := false
		for _, c := range e.Changes {
			w, ok := s.windows[c.ID]
			if !ok || c.Layout == nil {
				continue
			}
			l := *c.Layout
			w.Layout = &l
			s.windows[c.ID] = w
			changed = true
		}
		return changed

	case niri.WindowFocusChanged:
		s.moveFocusLocked(e.ID)
		return true

	case niri.WorkspaceActiveWindowChanged:
		for i := range s.workspaces {
			if s.workspaces[i].ID == e.WorkspaceID {
				s.workspaces[i].ActiveWindowID = copyID(e.ActiveWindowID)
			}
		}
		s.moveFocusLocked(e.ActiveWindowID)
		return true

	case niri.WorkspaceActivated:
		changed := false
		for i := range s.workspaces {
			focused := s.workspaces[i].ID == e.ID
			if s.workspaces[i].IsFocused != focused {
				s.workspaces[i].IsFocused = focused
				changed = true
			}
		}
		return changed

	case niri.WorkspacesChanged:
		list := make([]niri.Workspace, len(e.Workspaces))
		for i, ws := range e.Workspaces {
			list[i] = ws.Clone()
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i].Idx < list[j].Idx })
		s.workspaces = list
		s.seenWorkspaces = true
		// No focused workspace leaves the pointer as it was.
		for _, ws := range list {
			if ws.IsFocused {
				s.setFocusLocked(ws.ActiveWindowID)
				break
			}
		}
		return true

	case niri.KeyboardLayoutsChanged:
		s.layouts = e.Layouts.Clone()
		return true

	case niri.KeyboardLayoutSwitched:
		if s.layouts.CurrentIdx == e.Idx {
			return false
		}
		s.layouts.CurrentIdx = e.Idx
		return true

	case niri.OverviewOpenedOrClosed:
		if s.overview == e.IsOpen {
			return false
		}
		s.overview = e.IsOpen
		return true
	}

	return false
}

func (s *Store) replaceWindowsLocked(windows []niri.Window) bool {
	var prevTarget bool
	if s.focused != nil {
		_, prevTarget = s.windows[*s.focused]
	}

	next := make(map[int64]niri.Window, len(windows))
	var focused *int64
	for _, w := range windows {
		next[w.ID] = w.Clone()
		if w.IsFocused {
			id := w.ID
			focused = &id
		}
	}
	s.windows = next

	switch {
	case focused != nil:
		s.setFocusLocked(focused)
	case prevTarget:
		// The old target was replaced away; do not let the pointer dangle.
		if _, still := s.windows[*s.focused]; !still {
			s.setFocusLocked(nil)
		}
	}
	return true
}

// setFocusLocked is the only place the focus pointer is written. Ids of
// windows not yet known are accepted: WorkspacesChanged usually arrives
// before WindowsChanged.
func (s *Store) setFocusLocked(id *int64) {
	s.focused = copyID(id)
}

// moveFocusLocked sets the pointer and moves the per-window focus flag from
// the previous target to the new one.
func (s *Store) moveFocusLocked(id *int64) {
	if s.focused != nil {
		if w, ok := s.windows[*s.focused]; ok {
			w.IsFocused = false
			s.windows[w.ID] = w
		}
	}
	s.setFocusLocked(id)
	if id != nil {
		if w, ok := s.windows[*id]; ok {
			w.IsFocused = true
			s.windows[w.ID] = w
		}
	}
}

// removeWindowLocked deletes a window and clears the focus pointer in the
// same critical section if it pointed at it.
func (s *Store) removeWindowLocked(id int64) bool {
	_, ok := s.windows[id]
	delete(s.windows, id)
	if s.focused != nil && *s.focused == id {
		s.setFocusLocked(nil)
		return true
	}
	return ok
}

// SetStale marks whether the event stream is currently down. It reports
// whether the flag changed.
func (s *Store) SetStale(stale bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale == stale {
		return false
	}
	s.stale = stale
	return true
}

// Stale reports whether the event stream is currently down.
func (s *Store) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale
}

// Synced reports whether both the full window list and the full workspace
// list have been received.
func (s *Store) Synced() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seenWindows && s.seenWorkspaces
}

// Reset drops all state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows = make(map[int64]niri.Window)
	s.workspaces = nil
	s.focused = nil
	s.layouts = niri.KeyboardLayouts{CurrentIdx: -1}
	s.overview = false
	s.stale = false
	s.seenWindows = false
	s.seenWorkspaces = false
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
