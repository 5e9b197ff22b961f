package mock

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

func TestPrepareRenameResult_JSONShapes(t *testing.T) {
	tests := []struct {
		name   string
		result PrepareRenameResult
		want   string
	}{
		{
			name:   "range",
			result: PrepareRenameRange{Range: zeroRange},
			want:   `{"start":{"line":0,"character":0},"end":{"line":0,"character":0}}`,
		},
		{
			name:   "placeholder",
			result: PrepareRenamePlaceholder{Range: zeroRange, Placeholder: "placeholder"},
			want:   `{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":0}},"placeholder":"placeholder"}`,
		},
		{
			name:   "default behavior",
			result: PrepareRenameDefault{DefaultBehavior: true},
			want:   `{"defaultBehavior":true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.result)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			decoded, err := DecodePrepareRenameResult(data)
			require.NoError(t, err)
			assert.Equal(t, tt.result, decoded)
		})
	}
}

func TestDecodePrepareRenameResult_Null(t *testing.T) {
	result, err := DecodePrepareRenameResult([]byte("null"))
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestDecodePrepareRenameResult_UnknownShape(t *testing.T) {
	_, err := DecodePrepareRenameResult([]byte(`{"foo":1}`))
	assert.Error(t, err)
}

func TestCommandOrCodeAction_JSON(t *testing.T) {
	input := `[
		{"title":"Run tests","command":"test.run","arguments":["a"]},
		{"title":"Fix it","kind":"quickfix","command":{"title":"apply","command":"fix.apply"}}
	]`

	var actions []CommandOrCodeAction
	require.NoError(t, json.Unmarshal([]byte(input), &actions))
	require.Len(t, actions, 2)

	require.NotNil(t, actions[0].Command)
	assert.Nil(t, actions[0].CodeAction)
	assert.Equal(t, "test.run", actions[0].Command.Command)

	require.NotNil(t, actions[1].CodeAction)
	assert.Nil(t, actions[1].Command)
	assert.Equal(t, protocol.QuickFix, actions[1].CodeAction.Kind)
	require.NotNil(t, actions[1].CodeAction.Command)
	assert.Equal(t, "fix.apply", actions[1].CodeAction.Command.Command)

	out, err := json.Marshal(actions)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
}

func TestTypeHierarchyItem_JSON(t *testing.T) {
	data, err := json.Marshal(hierarchyItem("a", "file:///x"))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"name":"a","kind":5,"uri":"file:///x",
		"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":0}},
		"selectionRange":{"start":{"line":0,"character":0},"end":{"line":0,"character":0}}
	}`, string(data))
}
