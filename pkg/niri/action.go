package niri

import (
	"encoding/json"
	"fmt"

	"github.com/grovetools/niribar/errors"
)

// EventStreamRequest switches a fresh connection into event-stream mode.
const EventStreamRequest = `"EventStream"`

// Action is a control-plane request. Every action is sent inside the
// {"Action":{"<Name>":{...}}} envelope.
type Action interface {
	ActionName() string
	payload() interface{}
}

// EncodeAction renders an action as a single line without the trailing
// newline.
func EncodeAction(a Action) ([]byte, error) {
	if a == nil {
		return nil, errors.InvalidInput("nil action")
	}
	envelope := map[string]interface{}{
		"Action": map[string]interface{}{
			a.ActionName(): a.payload(),
		},
	}
	return json.Marshal(envelope)
}

// WorkspaceReference selects a workspace by index, id or name.
type WorkspaceReference struct {
	kind  string
	num   int64
	label string
}

// WorkspaceIndex references a workspace by its idx.
func WorkspaceIndex(idx int64) WorkspaceReference {
	return WorkspaceReference{kind: "Index", num: idx}
}

// WorkspaceID references a workspace by its id.
func WorkspaceID(id int64) WorkspaceReference {
	return WorkspaceReference{kind: "Id", num: id}
}

// WorkspaceName references a workspace by name.
func WorkspaceName(name string) WorkspaceReference {
	return WorkspaceReference{kind: "Name", label: name}
}

// MarshalJSON implements [json.Marshaler].
func (r WorkspaceReference) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case "Index", "Id":
		return json.Marshal(map[string]int64{r.kind: r.num})
	case "Name":
		return json.Marshal(map[string]string{r.kind: r.label})
	}
	return nil, errors.InvalidInput("empty workspace reference")
}

func (r WorkspaceReference) String() string {
	if r.kind == "Name" {
		return fmt.Sprintf("%s(%q)", r.kind, r.label)
	}
	return fmt.Sprintf("%s(%d)", r.kind, r.num)
}

// FocusWorkspace focuses the referenced workspace.
type FocusWorkspace struct {
	Reference WorkspaceReference
}

func (FocusWorkspace) ActionName() string { return "FocusWorkspace" }
func (a FocusWorkspace) payload() interface{} {
	return map[string]interface{}{"reference": a.Reference}
}

// FocusWorkspaceUp focuses the workspace above the current one.
type FocusWorkspaceUp struct{}

func (FocusWorkspaceUp) ActionName() string   { return "FocusWorkspaceUp" }
func (FocusWorkspaceUp) payload() interface{} { return struct{}{} }

// FocusWorkspaceDown focuses the workspace below the current one.
type FocusWorkspaceDown struct{}

func (FocusWorkspaceDown) ActionName() string   { return "FocusWorkspaceDown" }
func (FocusWorkspaceDown) payload() interface{} { return struct{}{} }

// FocusWindow focuses a window by id.
type FocusWindow struct {
	ID int64
}

func (FocusWindow) ActionName() string { return "FocusWindow" }
func (a FocusWindow) payload() interface{} {
	return map[string]int64{"id": a.ID}
}

// LayoutTarget selects a keyboard layout for SwitchLayout.
type LayoutTarget struct {
	name  string
	index int
}

var (
	LayoutNext = LayoutTarget{name: "Next"}
	LayoutPrev = LayoutTarget{name: "Prev"}
)

// LayoutIndex selects a keyboard layout by position.
func LayoutIndex(idx int) LayoutTarget {
	return LayoutTarget{name: "Index", index: idx}
}

// MarshalJSON implements [json.Marshaler].
func (t LayoutTarget) MarshalJSON() ([]byte, error) {
	switch t.name {
	case "Next", "Prev":
		return json.Marshal(t.name)
	case "Index":
		return json.Marshal(map[string]int{"Index": t.index})
	}
	return nil, errors.InvalidInput("empty layout target")
}

// SwitchLayout switches the active keyboard layout.
type SwitchLayout struct {
	Target LayoutTarget
}

func (SwitchLayout) ActionName() string { return "SwitchLayout" }
func (a SwitchLayout) payload() interface{} {
	return map[string]interface{}{"layout": a.Target}
}

// ToggleOverview opens or closes the overview.
type ToggleOverview struct{}

func (ToggleOverview) ActionName() string   { return "ToggleOverview" }
func (ToggleOverview) payload() interface{} { return struct{}{} }

// OpenOverview opens the overview.
type OpenOverview struct{}

func (OpenOverview) ActionName() string   { return "OpenOverview" }
func (OpenOverview) payload() interface{} { return struct{}{} }

// CloseOverview closes the overview.
type CloseOverview struct{}

func (CloseOverview) ActionName() string   { return "CloseOverview" }
func (CloseOverview) payload() interface{} { return struct{}{} }
