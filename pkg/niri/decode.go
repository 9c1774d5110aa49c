package niri

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/grovetools/niribar/errors"
)

// DecodeEvent decodes one line of the event stream.
//
// Unparsable JSON is reported as a DECODE_FAILED error. Lines that parse but
// carry no known discriminator decode to Unknown with a nil error. Optional
// fields that are missing or of the wrong JSON type take their zero value.
func DecodeEvent(line []byte) (Event, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, errors.DecodeFailed("empty line", nil)
	}

	var raw json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, errors.DecodeFailed("malformed JSON", err).
			WithDetail("line", truncate(line, 120))
	}

	root, ok := parseObject(raw)
	if !ok {
		return Unknown{}, nil
	}

	for _, tag := range knownTags {
		body, present := root[tag]
		if !present {
			continue
		}
		ev, err := decodeBody(tag, body)
		if err != nil {
			return nil, err.WithDetail("event", tag)
		}
		return ev, nil
	}

	keys := make([]string, 0, len(root))
	for k := range root {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return Unknown{}, nil
	}
	return Unknown{Tag: keys[0]}, nil
}

func decodeBody(tag string, body json.RawMessage) (Event, *errors.BarError) {
	o, _ := parseObject(body)

	switch tag {
	case TagWindowsChanged:
		return WindowsChanged{Windows: decodeWindows(o.getArray("windows"))}, nil

	case TagWindowOpenedOrChanged:
		wo, ok := parseObject(o["window"])
		if !ok {
			return nil, errors.DecodeFailed("missing window object", nil)
		}
		w, ok := decodeWindow(wo)
		if !ok {
			return nil, errors.DecodeFailed("window without id", nil)
		}
		return WindowOpenedOrChanged{Window: w}, nil

	case TagWindowClosed:
		id, ok := o.getInt("id")
		if !ok {
			return nil, errors.DecodeFailed("missing window id", nil)
		}
		return WindowClosed{ID: id}, nil

	case TagWindowLayoutsChanged:
		var changes []LayoutChange
		for _, entry := range o.getArray("changes") {
			var pair []json.RawMessage
			if err := json.Unmarshal(entry, &pair); err != nil || len(pair) != 2 {
				continue
			}
			id, ok := decodeInt(pair[0])
			if !ok {
				continue
			}
			lo, _ := parseObject(pair[1])
			changes = append(changes, LayoutChange{ID: id, Layout: decodeLayout(lo)})
		}
		return WindowLayoutsChanged{Changes: changes}, nil

	case TagWindowFocusChanged:
		return WindowFocusChanged{ID: o.optInt("id")}, nil

	case TagWorkspaceActiveWindowChanged:
		wsID, _ := o.getInt("workspace_id")
		return WorkspaceActiveWindowChanged{
			WorkspaceID:    wsID,
			ActiveWindowID: o.optInt("active_window_id"),
		}, nil

	case TagWorkspaceActivated:
		id, ok := o.getInt("id")
		if !ok {
			return nil, errors.DecodeFailed("missing workspace id", nil)
		}
		return WorkspaceActivated{ID: id, Focused: o.getBool("focused")}, nil

	case TagWorkspacesChanged:
		return WorkspacesChanged{Workspaces: decodeWorkspaces(o.getArray("workspaces"))}, nil

	case TagKeyboardLayoutsChanged:
		kb, _ := parseObject(o["keyboard_layouts"])
		layouts := KeyboardLayouts{CurrentIdx: -1}
		for _, n := range kb.getArray("names") {
			var name string
			if err := json.Unmarshal(n, &name); err == nil {
				layouts.Names = append(layouts.Names, name)
			}
		}
		if idx, ok := kb.getInt("current_idx"); ok && idx >= 0 {
			layouts.CurrentIdx = int(idx)
		}
		return KeyboardLayoutsChanged{Layouts: layouts}, nil

	case TagKeyboardLayoutSwitched:
		idx, ok := o.getInt("idx")
		if !ok || idx < 0 {
			return nil, errors.DecodeFailed("missing layout index", nil)
		}
		return KeyboardLayoutSwitched{Idx: int(idx)}, nil

	case TagOverviewOpenedOrClosed:
		return OverviewOpenedOrClosed{IsOpen: o.getBool("is_open")}, nil
	}

	return Unknown{Tag: tag}, nil
}

func decodeWindows(items []json.RawMessage) []Window {
	windows := make([]Window, 0, len(items))
	for _, item := range items {
		wo, ok := parseObject(item)
		if !ok {
			continue
		}
		if w, ok := decodeWindow(wo); ok {
			windows = append(windows, w)
		}
	}
	return windows
}

func decodeWindow(o object) (Window, bool) {
	id, ok := o.getInt("id")
	if !ok {
		return Window{}, false
	}
	wsID, _ := o.getInt("workspace_id")
	lo, _ := parseObject(o["layout"])
	return Window{
		ID:          id,
		Title:       o.getString("title"),
		AppID:       o.getString("app_id"),
		WorkspaceID: wsID,
		IsFocused:   o.getBool("is_focused"),
		IsFloating:  o.getBool("is_floating"),
		Layout:      decodeLayout(lo),
	}, true
}

// decodeLayout returns nil unless all four pairs are present and numeric.
func decodeLayout(o object) *WindowLayout {
	if o == nil {
		return nil
	}
	pos, ok1 := o.getPair("pos_in_scrolling_layout")
	tile, ok2 := o.getPair("tile_size")
	win, ok3 := o.getPair("window_size")
	off, ok4 := o.getPair("window_offset_in_tile")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil
	}
	return &WindowLayout{
		PosInScrollingLayout: pos,
		TileSize:             tile,
		WindowSize:           win,
		WindowOffsetInTile:   off,
	}
}

func decodeWorkspaces(items []json.RawMessage) []Workspace {
	list := make([]Workspace, 0, len(items))
	for _, item := range items {
		o, ok := parseObject(item)
		if !ok {
			continue
		}
		id, ok1 := o.getInt("id")
		idx, ok2 := o.getInt("idx")
		if !ok1 || !ok2 {
			continue
		}
		ws := Workspace{
			ID:             id,
			Idx:            idx,
			IsFocused:      o.getBool("is_focused"),
			ActiveWindowID: o.optInt("active_window_id"),
		}
		if name, ok := o.optString("name"); ok {
			ws.Name = &name
		}
		list = append(list, ws)
	}
	return list
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
