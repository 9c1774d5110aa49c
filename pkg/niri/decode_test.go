package niri

import (
	"testing"

	"github.com/grovetools/niribar/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullLayout = `{"pos_in_scrolling_layout":[1,2],"tile_size":[800.5,600],"window_size":[790,590],"window_offset_in_tile":[5,5]}`

func TestDecodeEventKinds(t *testing.T) {
	testCases := []struct {
		name     string
		line     string
		expected Event
	}{
		{
			name:     "window closed",
			line:     `{"WindowClosed":{"id":7}}`,
			expected: WindowClosed{ID: 7},
		},
		{
			name:     "focus changed to window",
			line:     `{"WindowFocusChanged":{"id":3}}`,
			expected: WindowFocusChanged{ID: Int64(3)},
		},
		{
			name:     "focus changed to none",
			line:     `{"WindowFocusChanged":{"id":null}}`,
			expected: WindowFocusChanged{},
		},
		{
			name: "workspace active window",
			line: `{"WorkspaceActiveWindowChanged":{"workspace_id":2,"active_window_id":9}}`,
			expected: WorkspaceActiveWindowChanged{
				WorkspaceID:    2,
				ActiveWindowID: Int64(9),
			},
		},
		{
			name:     "workspace activated",
			line:     `{"WorkspaceActivated":{"id":4,"focused":true}}`,
			expected: WorkspaceActivated{ID: 4, Focused: true},
		},
		{
			name: "keyboard layouts",
			line: `{"KeyboardLayoutsChanged":{"keyboard_layouts":{"names":["English (US)","German"],"current_idx":1}}}`,
			expected: KeyboardLayoutsChanged{Layouts: KeyboardLayouts{
				Names:      []string{"English (US)", "German"},
				CurrentIdx: 1,
			}},
		},
		{
			name: "keyboard layouts without index",
			line: `{"KeyboardLayoutsChanged":{"keyboard_layouts":{"names":["us"]}}}`,
			expected: KeyboardLayoutsChanged{Layouts: KeyboardLayouts{
				Names:      []string{"us"},
				CurrentIdx: -1,
			}},
		},
		{
			name:     "keyboard layout switched",
			line:     `{"KeyboardLayoutSwitched":{"idx":0}}`,
			expected: KeyboardLayoutSwitched{Idx: 0},
		},
		{
			name:     "overview",
			line:     `{"OverviewOpenedOrClosed":{"is_open":true}}`,
			expected: OverviewOpenedOrClosed{IsOpen: true},
		},
		{
			name:     "overview missing flag defaults to closed",
			line:     `{"OverviewOpenedOrClosed":{}}`,
			expected: OverviewOpenedOrClosed{},
		},
		{
			name:     "unknown discriminator",
			line:     `{"ConfigLoaded":{"failed":false}}`,
			expected: Unknown{Tag: "ConfigLoaded"},
		},
		{
			name:     "handshake reply",
			line:     `{"Ok":"Handled"}`,
			expected: Unknown{Tag: "Ok"},
		},
		{
			name:     "non-object reply",
			line:     `"Handled"`,
			expected: Unknown{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := DecodeEvent([]byte(tc.line))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ev)
		})
	}
}

func TestDecodeWindowsChanged(t *testing.T) {
	line := `{"WindowsChanged":{"windows":[` +
		`{"id":42,"title":"Hello World","app_id":"app","pid":1,"workspace_id":1,"is_focused":true,"is_floating":false,"layout":` + fullLayout + `},` +
		`{"id":43,"workspace_id":2,"is_floating":true},` +
		`{"title":"no id"}` +
		`]}}`

	ev, err := DecodeEvent([]byte(line))
	require.NoError(t, err)

	changed, ok := ev.(WindowsChanged)
	require.True(t, ok, "expected WindowsChanged, got %T", ev)
	require.Len(t, changed.Windows, 2)

	first := changed.Windows[0]
	assert.Equal(t, int64(42), first.ID)
	assert.Equal(t, "Hello World", first.Title)
	assert.Equal(t, "app", first.AppID)
	assert.True(t, first.IsFocused)
	require.NotNil(t, first.Layout)
	assert.Equal(t, Vec2{X: 800.5, Y: 600}, first.Layout.TileSize)
	assert.Equal(t, Vec2{X: 1, Y: 2}, first.Layout.PosInScrollingLayout)

	second := changed.Windows[1]
	assert.Equal(t, "", second.Title, "missing title defaults to empty")
	assert.Equal(t, "", second.AppID)
	assert.True(t, second.IsFloating)
	assert.Nil(t, second.Layout)
}

func TestDecodeLayoutRequiresAllPairs(t *testing.T) {
	testCases := []struct {
		name   string
		layout string
	}{
		{"missing tile size", `{"pos_in_scrolling_layout":[1,1],"window_size":[1,1],"window_offset_in_tile":[0,0]}`},
		{"short pair", `{"pos_in_scrolling_layout":[1],"tile_size":[1,1],"window_size":[1,1],"window_offset_in_tile":[0,0]}`},
		{"null pair", `{"pos_in_scrolling_layout":null,"tile_size":[1,1],"window_size":[1,1],"window_offset_in_tile":[0,0]}`},
		{"non-numeric pair", `{"pos_in_scrolling_layout":["a","b"],"tile_size":[1,1],"window_size":[1,1],"window_offset_in_tile":[0,0]}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := DecodeEvent([]byte(`{"WindowLayoutsChanged":{"changes":[[5,` + tc.layout + `]]}}`))
			require.NoError(t, err)
			changed := ev.(WindowLayoutsChanged)
			require.Len(t, changed.Changes, 1)
			assert.Equal(t, int64(5), changed.Changes[0].ID)
			assert.Nil(t, changed.Changes[0].Layout)
		})
	}

	ev, err := DecodeEvent([]byte(`{"WindowLayoutsChanged":{"changes":[[5,` + fullLayout + `],["bad"],[6]]}}`))
	require.NoError(t, err)
	changed := ev.(WindowLayoutsChanged)
	require.Len(t, changed.Changes, 1)
	assert.NotNil(t, changed.Changes[0].Layout)
}

func TestDecodeWorkspacesChanged(t *testing.T) {
	line := `{"WorkspacesChanged":{"workspaces":[` +
		`{"id":1,"idx":3,"name":"web","output":"eDP-1","is_focused":false,"active_window_id":null},` +
		`{"id":2,"idx":1,"name":null,"is_focused":true,"active_window_id":42},` +
		`{"id":3}` +
		`]}}`

	ev, err := DecodeEvent([]byte(line))
	require.NoError(t, err)
	changed := ev.(WorkspacesChanged)
	require.Len(t, changed.Workspaces, 2, "workspace without idx is dropped")

	assert.Equal(t, "web", *changed.Workspaces[0].Name)
	assert.Nil(t, changed.Workspaces[0].ActiveWindowID)
	assert.Nil(t, changed.Workspaces[1].Name)
	assert.Equal(t, int64(42), *changed.Workspaces[1].ActiveWindowID)
	assert.Equal(t, "1", changed.Workspaces[1].DisplayName())
}

func TestDecodeEventErrors(t *testing.T) {
	testCases := []struct {
		name string
		line string
	}{
		{"not json", `this is not json`},
		{"truncated", `{"WindowClosed":{"id":1}`},
		{"empty", `   `},
		{"closed without id", `{"WindowClosed":{}}`},
		{"activated without id", `{"WorkspaceActivated":{"focused":true}}`},
		{"opened without window", `{"WindowOpenedOrChanged":{}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := DecodeEvent([]byte(tc.line))
			require.Error(t, err)
			assert.Nil(t, ev)
			assert.True(t, errors.Is(err, errors.ErrCodeDecodeFailed))
		})
	}
}

func TestWindowCloneIsDeep(t *testing.T) {
	w := Window{ID: 1, Layout: &WindowLayout{TileSize: Vec2{X: 10, Y: 10}}}
	c := w.Clone()
	c.Layout.TileSize.X = 99
	assert.Equal(t, float64(10), w.Layout.TileSize.X)

	ws := Workspace{ID: 1, Name: String("a"), ActiveWindowID: Int64(3)}
	wc := ws.Clone()
	*wc.Name = "b"
	*wc.ActiveWindowID = 4
	assert.Equal(t, "a", *ws.Name)
	assert.Equal(t, int64(3), *ws.ActiveWindowID)
}

func TestKeyboardLayoutsCurrentName(t *testing.T) {
	k := KeyboardLayouts{Names: []string{"us", "de"}, CurrentIdx: 1}
	assert.Equal(t, "de", k.CurrentName())
	k.CurrentIdx = -1
	assert.Equal(t, "", k.CurrentName())
	k.CurrentIdx = 5
	assert.Equal(t, "", k.CurrentName())
}
