// Package store holds the authoritative in-memory model of compositor state.
package store

import "github.com/grovetools/niribar/pkg/niri"

// Snapshot is a copied-out view of the whole store, valid at the instant it
// was taken.
type Snapshot struct {
	Workspaces         []niri.Workspace     `json:"workspaces" yaml:"workspaces"`
	Windows            []niri.Window        `json:"windows" yaml:"windows"`
	FocusedWindowID    *int64               `json:"focused_window_id,omitempty" yaml:"focused_window_id,omitempty"`
	FocusedWorkspaceID *int64               `json:"focused_workspace_id,omitempty" yaml:"focused_workspace_id,omitempty"`
	Title              string               `json:"title" yaml:"title"`
	KeyboardLayouts    niri.KeyboardLayouts `json:"keyboard_layouts" yaml:"keyboard_layouts"`
	OverviewOpen       bool                 `json:"overview_open" yaml:"overview_open"`
	// Stale is set while the event stream is down. The rest of the snapshot
	// is the last state seen before the connection was lost.
	Stale bool `json:"stale" yaml:"stale"`
}

// FocusedWorkspace returns the focused workspace of the snapshot.
func (s Snapshot) FocusedWorkspace() (niri.Workspace, bool) {
	for _, ws := range s.Workspaces {
		if ws.IsFocused {
			return ws, true
		}
	}
	return niri.Workspace{}, false
}
