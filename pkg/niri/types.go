// Package niri implements the niri compositor IPC wire format: the typed
// events read from the event stream and the actions written to the socket.
package niri

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Vec2 is a pair of floating point values. On the wire it is a 2-element
// JSON array.
type Vec2 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// MarshalJSON implements [json.Marshaler] for Vec2.
func (v Vec2) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{v.X, v.Y})
}

// UnmarshalJSON implements [json.Unmarshaler] for Vec2.
func (v *Vec2) UnmarshalJSON(data []byte) error {
	var arr []float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) != 2 {
		return fmt.Errorf("expected array of length 2, got %d", len(arr))
	}
	v.X, v.Y = arr[0], arr[1]
	return nil
}

// WindowLayout holds the position and size properties of a window.
//
// A layout is only ever stored complete: if the compositor omits any of the
// four pairs the whole layout is treated as unknown.
type WindowLayout struct {
	// PosInScrollingLayout is the (column, tile) location of a tiled window.
	PosInScrollingLayout Vec2 `json:"pos_in_scrolling_layout" yaml:"pos_in_scrolling_layout"`
	// TileSize includes decorations like borders.
	TileSize Vec2 `json:"tile_size" yaml:"tile_size"`
	// WindowSize is the size of the window's visual geometry.
	WindowSize Vec2 `json:"window_size" yaml:"window_size"`
	// WindowOffsetInTile locates the window geometry within its tile.
	WindowOffsetInTile Vec2 `json:"window_offset_in_tile" yaml:"window_offset_in_tile"`
}

// Window is one toplevel surface managed by the compositor.
type Window struct {
	ID          int64         `json:"id" yaml:"id"`
	Title       string        `json:"title" yaml:"title"`
	AppID       string        `json:"app_id" yaml:"app_id"`
	WorkspaceID int64         `json:"workspace_id" yaml:"workspace_id"`
	IsFocused   bool          `json:"is_focused" yaml:"is_focused"`
	IsFloating  bool          `json:"is_floating" yaml:"is_floating"`
	Layout      *WindowLayout `json:"layout,omitempty" yaml:"layout,omitempty"`
}

// Clone returns a deep copy of the window.
func (w Window) Clone() Window {
	if w.Layout != nil {
		l := *w.Layout
		w.Layout = &l
	}
	return w
}

// Workspace is one virtual desktop.
type Workspace struct {
	ID int64 `json:"id" yaml:"id"`
	// Idx is the ordering key used for display and for FocusWorkspace{Index}.
	Idx            int64   `json:"idx" yaml:"idx"`
	Name           *string `json:"name,omitempty" yaml:"name,omitempty"`
	IsFocused      bool    `json:"is_focused" yaml:"is_focused"`
	ActiveWindowID *int64  `json:"active_window_id,omitempty" yaml:"active_window_id,omitempty"`
}

// Clone returns a deep copy of the workspace.
func (w Workspace) Clone() Workspace {
	if w.Name != nil {
		n := *w.Name
		w.Name = &n
	}
	if w.ActiveWindowID != nil {
		id := *w.ActiveWindowID
		w.ActiveWindowID = &id
	}
	return w
}

// DisplayName returns the workspace name, or its index when unnamed.
func (w Workspace) DisplayName() string {
	if w.Name != nil && *w.Name != "" {
		return *w.Name
	}
	return strconv.FormatInt(w.Idx, 10)
}

// KeyboardLayouts is the configured list of XKB layouts and the active one.
type KeyboardLayouts struct {
	Names []string `json:"names" yaml:"names"`
	// CurrentIdx is -1 when the compositor has not reported an index.
	CurrentIdx int `json:"current_idx" yaml:"current_idx"`
}

// Clone returns a deep copy of the layouts.
func (k KeyboardLayouts) Clone() KeyboardLayouts {
	names := make([]string, len(k.Names))
	copy(names, k.Names)
	return KeyboardLayouts{Names: names, CurrentIdx: k.CurrentIdx}
}

// CurrentName returns the name of the active layout, or "" if unknown.
func (k KeyboardLayouts) CurrentName() string {
	if k.CurrentIdx < 0 || k.CurrentIdx >= len(k.Names) {
		return ""
	}
	return k.Names[k.CurrentIdx]
}

// Int64 returns a pointer to v. Handy for optional ids in tests and actions.
func Int64(v int64) *int64 {
	return &v
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}
