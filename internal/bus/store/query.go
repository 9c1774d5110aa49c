package store

import (
	"sort"

	"github.com/grovetools/niribar/pkg/niri"
)

// Workspaces returns the workspace list ordered by idx.
func (s *Store) Workspaces() []niri.Workspace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workspacesLocked()
}

func (s *Store) workspacesLocked() []niri.Workspace {
	out := make([]niri.Workspace, len(s.workspaces))
	for i, ws := range s.workspaces {
		out[i] = ws.Clone()
	}
	return out
}

// Windows returns every known window ordered by id.
func (s *Store) Windows() []niri.Window {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.windowsLocked(func(niri.Window) bool { return true })
}

// WindowsForWorkspace returns the windows on one workspace ordered by id.
func (s *Store) WindowsForWorkspace(workspaceID int64) []niri.Window {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.windowsLocked(func(w niri.Window) bool { return w.WorkspaceID == workspaceID })
}

func (s *Store) windowsLocked(keep func(niri.Window) bool) []niri.Window {
	out := make([]niri.Window, 0, len(s.windows))
	for _, w := range s.windows {
		if keep(w) {
			out = append(out, w.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Window returns one window by id.
func (s *Store) Window(id int64) (niri.Window, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.windows[id]
	if !ok {
		return niri.Window{}, false
	}
	return w.Clone(), true
}

// CurrentTitle returns the title of the focused window, or "" when nothing
// is focused or the focused window is not known yet.
func (s *Store) CurrentTitle() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.titleLocked()
}

func (s *Store) titleLocked() string {
	if s.focused == nil {
		return ""
	}
	return s.windows[*s.focused].Title
}

// FocusedWindowID returns the focus pointer.
func (s *Store) FocusedWindowID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.focused == nil {
		return 0, false
	}
	return *s.focused, true
}

// FocusedWorkspaceID returns the id of the first focused workspace.
func (s *Store) FocusedWorkspaceID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos := s.focusedPositionLocked()
	if pos < 0 {
		return 0, false
	}
	return s.workspaces[pos].ID, true
}

// FocusedWorkspacePosition returns the position of the focused workspace in
// the ordered list.
func (s *Store) FocusedWorkspacePosition() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos := s.focusedPositionLocked()
	return pos, pos >= 0
}

func (s *Store) focusedPositionLocked() int {
	for i, ws := range s.workspaces {
		if ws.IsFocused {
			return i
		}
	}
	return -1
}

// KeyboardLayouts returns the layout names and the active index.
func (s *Store) KeyboardLayouts() niri.KeyboardLayouts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layouts.Clone()
}

// OverviewOpen reports whether the overview is open.
func (s *Store) OverviewOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overview
}

// NextWorkspace returns the workspace after (or before) the focused one.
// Without a focused workspace the first one counts as current. At either
// end it returns false unless wrap is set.
func (s *Store) NextWorkspace(forward, wrap bool) (niri.Workspace, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.workspaces)
	if n == 0 {
		return niri.Workspace{}, false
	}
	cur := s.focusedPositionLocked()
	if cur < 0 {
		cur = 0
	}

	next := cur - 1
	if forward {
		next = cur + 1
	}
	switch {
	case next >= n && wrap:
		next = 0
	case next < 0 && wrap:
		next = n - 1
	case next >= n || next < 0:
		return niri.Workspace{}, false
	}
	return s.workspaces[next].Clone(), true
}

// Snapshot copies out the whole store under a single read lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Workspaces:      s.workspacesLocked(),
		Windows:         s.windowsLocked(func(niri.Window) bool { return true }),
		FocusedWindowID: copyID(s.focused),
		Title:           s.titleLocked(),
		KeyboardLayouts: s.layouts.Clone(),
		OverviewOpen:    s.overview,
		Stale:           s.stale,
	}
	if pos := s.focusedPositionLocked(); pos >= 0 {
		id := s.workspaces[pos].ID
		snap.FocusedWorkspaceID = &id
	}
	return snap
}
