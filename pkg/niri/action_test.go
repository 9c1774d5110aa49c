package niri

import (
	"encoding/json"
	"testing"

	"github.com/grovetools/niribar/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeAction(t *testing.T) {
	testCases := []struct {
		name     string
		action   Action
		expected string
	}{
		{
			name:     "focus workspace by index",
			action:   FocusWorkspace{Reference: WorkspaceIndex(3)},
			expected: `{"Action":{"FocusWorkspace":{"reference":{"Index":3}}}}`,
		},
		{
			name:     "focus workspace by id",
			action:   FocusWorkspace{Reference: WorkspaceID(12)},
			expected: `{"Action":{"FocusWorkspace":{"reference":{"Id":12}}}}`,
		},
		{
			name:     "focus workspace by name",
			action:   FocusWorkspace{Reference: WorkspaceName("chat")},
			expected: `{"Action":{"FocusWorkspace":{"reference":{"Name":"chat"}}}}`,
		},
		{
			name:     "focus window",
			action:   FocusWindow{ID: 42},
			expected: `{"Action":{"FocusWindow":{"id":42}}}`,
		},
		{
			name:     "switch layout next",
			action:   SwitchLayout{Target: LayoutNext},
			expected: `{"Action":{"SwitchLayout":{"layout":"Next"}}}`,
		},
		{
			name:     "switch layout index",
			action:   SwitchLayout{Target: LayoutIndex(2)},
			expected: `{"Action":{"SwitchLayout":{"layout":{"Index":2}}}}`,
		},
		{
			name:     "toggle overview",
			action:   ToggleOverview{},
			expected: `{"Action":{"ToggleOverview":{}}}`,
		},
		{
			name:     "workspace down",
			action:   FocusWorkspaceDown{},
			expected: `{"Action":{"FocusWorkspaceDown":{}}}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			line, err := EncodeAction(tc.action)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, string(line))
			assert.NotContains(t, string(line), "\n")
		})
	}
}

func TestEncodeActionRejectsEmpty(t *testing.T) {
	testCases := []struct {
		name   string
		action Action
	}{
		{"nil action", nil},
		{"empty workspace reference", FocusWorkspace{}},
		{"empty layout target", SwitchLayout{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EncodeAction(tc.action)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)
		})
	}
}

func TestEventStreamRequestIsJSONString(t *testing.T) {
	var s string
	require.NoError(t, json.Unmarshal([]byte(EventStreamRequest), &s))
	assert.Equal(t, "EventStream", s)
}
