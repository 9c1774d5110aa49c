package niri

// Event is one decoded message from the event stream. The set of
// implementations is closed; anything the decoder does not recognise is
// returned as Unknown.
type Event interface {
	// EventName returns the wire discriminator of the event.
	EventName() string
	isEvent()
}

// Discriminators of the events understood by the decoder.
const (
	TagWindowsChanged               = "WindowsChanged"
	TagWindowOpenedOrChanged        = "WindowOpenedOrChanged"
	TagWindowClosed                 = "WindowClosed"
	TagWindowLayoutsChanged         = "WindowLayoutsChanged"
	TagWindowFocusChanged           = "WindowFocusChanged"
	TagWorkspaceActiveWindowChanged = "WorkspaceActiveWindowChanged"
	TagWorkspaceActivated           = "WorkspaceActivated"
	TagWorkspacesChanged            = "WorkspacesChanged"
	TagKeyboardLayoutsChanged       = "KeyboardLayoutsChanged"
	TagKeyboardLayoutSwitched       = "KeyboardLayoutSwitched"
	TagOverviewOpenedOrClosed       = "OverviewOpenedOrClosed"
)

// knownTags is checked in order when a line carries more than one key.
var knownTags = []string{
	TagWindowsChanged,
	TagWindowOpenedOrChanged,
	TagWindowClosed,
	TagWindowLayoutsChanged,
	TagWindowFocusChanged,
	TagWorkspaceActiveWindowChanged,
	TagWorkspaceActivated,
	TagWorkspacesChanged,
	TagKeyboardLayoutsChanged,
	TagKeyboardLayoutSwitched,
	TagOverviewOpenedOrClosed,
}

// WindowsChanged replaces the full window list.
type WindowsChanged struct {
	Windows []Window
}

// WindowOpenedOrChanged inserts or replaces one window.
type WindowOpenedOrChanged struct {
	Window Window
}

// WindowClosed removes one window.
type WindowClosed struct {
	ID int64
}

// LayoutChange is one entry of a WindowLayoutsChanged batch. Layout is nil
// when the compositor sent an incomplete layout.
type LayoutChange struct {
	ID     int64
	Layout *WindowLayout
}

// WindowLayoutsChanged refines the layout of already known windows.
type WindowLayoutsChanged struct {
	Changes []LayoutChange
}

// WindowFocusChanged moves keyboard focus to a window, or to none.
type WindowFocusChanged struct {
	ID *int64
}

// WorkspaceActiveWindowChanged reports the active window of a workspace.
type WorkspaceActiveWindowChanged struct {
	WorkspaceID    int64
	ActiveWindowID *int64
}

// WorkspaceActivated reports that a workspace became active.
type WorkspaceActivated struct {
	ID      int64
	Focused bool
}

// WorkspacesChanged replaces the full workspace list.
type WorkspacesChanged struct {
	Workspaces []Workspace
}

// KeyboardLayoutsChanged replaces the keyboard layout configuration.
type KeyboardLayoutsChanged struct {
	Layouts KeyboardLayouts
}

// KeyboardLayoutSwitched changes the active keyboard layout index.
type KeyboardLayoutSwitched struct {
	Idx int
}

// OverviewOpenedOrClosed toggles the overview.
type OverviewOpenedOrClosed struct {
	IsOpen bool
}

// Unknown is any message without a recognised discriminator. Tag is the
// lexically first key of the object, or "" for non-object messages.
type Unknown struct {
	Tag string
}

func (WindowsChanged) EventName() string               { return TagWindowsChanged }
func (WindowOpenedOrChanged) EventName() string        { return TagWindowOpenedOrChanged }
func (WindowClosed) EventName() string                 { return TagWindowClosed }
func (WindowLayoutsChanged) EventName() string         { return TagWindowLayoutsChanged }
func (WindowFocusChanged) EventName() string           { return TagWindowFocusChanged }
func (WorkspaceActiveWindowChanged) EventName() string { return TagWorkspaceActiveWindowChanged }
func (WorkspaceActivated) EventName() string           { return TagWorkspaceActivated }
func (WorkspacesChanged) EventName() string            { return TagWorkspacesChanged }
func (KeyboardLayoutsChanged) EventName() string       { return TagKeyboardLayoutsChanged }
func (KeyboardLayoutSwitched) EventName() string       { return TagKeyboardLayoutSwitched }
func (OverviewOpenedOrClosed) EventName() string       { return TagOverviewOpenedOrClosed }
func (u Unknown) EventName() string                    { return u.Tag }

func (WindowsChanged) isEvent()               {}
func (WindowOpenedOrChanged) isEvent()        {}
func (WindowClosed) isEvent()                 {}
func (WindowLayoutsChanged) isEvent()         {}
func (WindowFocusChanged) isEvent()           {}
func (WorkspaceActiveWindowChanged) isEvent() {}
func (WorkspaceActivated) isEvent()           {}
func (WorkspacesChanged) isEvent()            {}
func (KeyboardLayoutsChanged) isEvent()       {}
func (KeyboardLayoutSwitched) isEvent()       {}
func (OverviewOpenedOrClosed) isEvent()       {}
func (Unknown) isEvent()                      {}
