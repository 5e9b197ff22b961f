package mock

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.lsp.dev/protocol"
)

// Method names from LSP 3.17 that go.lsp.dev/protocol v0.12.0 does not define.
const (
	MethodTextDocumentPrepareTypeHierarchy = "textDocument/prepareTypeHierarchy"
	MethodTypeHierarchySubtypes            = "typeHierarchy/subtypes"
	MethodTypeHierarchySupertypes          = "typeHierarchy/supertypes"
	MethodCodeActionResolve                = "codeAction/resolve"
)

// PrepareRenameResult is the result of textDocument/prepareRename. It is one
// of PrepareRenameRange, PrepareRenamePlaceholder or PrepareRenameDefault.
type PrepareRenameResult interface {
	isPrepareRenameResult()
}

// PrepareRenameRange is the bare range variant.
type PrepareRenameRange struct {
	Range protocol.Range
}

// MarshalJSON encodes the variant as a plain LSP Range.
func (r PrepareRenameRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Range)
}

// PrepareRenamePlaceholder is the range plus placeholder text variant.
type PrepareRenamePlaceholder struct {
	Range       protocol.Range `json:"range"`
	Placeholder string         `json:"placeholder"`
}

// PrepareRenameDefault tells the client to use its own rename heuristics.
type PrepareRenameDefault struct {
	DefaultBehavior bool `json:"defaultBehavior"`
}

func (PrepareRenameRange) isPrepareRenameResult()       {}
func (PrepareRenamePlaceholder) isPrepareRenameResult() {}
func (PrepareRenameDefault) isPrepareRenameResult()     {}

// DecodePrepareRenameResult decodes any of the three prepareRename shapes.
// A JSON null decodes to a nil result.
func DecodePrepareRenameResult(data []byte) (PrepareRenameResult, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}

	var probe struct {
		Start           *protocol.Position `json:"start"`
		End             *protocol.Position `json:"end"`
		Range           *protocol.Range    `json:"range"`
		Placeholder     *string            `json:"placeholder"`
		DefaultBehavior *bool              `json:"defaultBehavior"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode prepareRename result: %w", err)
	}

	switch {
	case probe.DefaultBehavior != nil:
		return PrepareRenameDefault{DefaultBehavior: *probe.DefaultBehavior}, nil
	case probe.Range != nil && probe.Placeholder != nil:
		return PrepareRenamePlaceholder{Range: *probe.Range, Placeholder: *probe.Placeholder}, nil
	case probe.Range != nil:
		return PrepareRenameRange{Range: *probe.Range}, nil
	case probe.Start != nil && probe.End != nil:
		return PrepareRenameRange{Range: protocol.Range{Start: *probe.Start, End: *probe.End}}, nil
	default:
		return nil, fmt.Errorf("decode prepareRename result: unrecognized shape %s", data)
	}
}

// CommandOrCodeAction is one element of a textDocument/codeAction result.
// Exactly one of Command and CodeAction is set.
type CommandOrCodeAction struct {
	Command    *protocol.Command
	CodeAction *protocol.CodeAction
}

// MarshalJSON encodes whichever side is set.
func (c CommandOrCodeAction) MarshalJSON() ([]byte, error) {
	if c.Command != nil {
		return json.Marshal(c.Command)
	}
	return json.Marshal(c.CodeAction)
}

// UnmarshalJSON distinguishes a Command (whose "command" member is a string)
// from a CodeAction.
func (c *CommandOrCodeAction) UnmarshalJSON(data []byte) error {
	var probe struct {
		Command json.RawMessage `json:"command"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	if len(probe.Command) > 0 && probe.Command[0] == '"' {
		var cmd protocol.Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			return err
		}
		*c = CommandOrCodeAction{Command: &cmd}
		return nil
	}

	var action protocol.CodeAction
	if err := json.Unmarshal(data, &action); err != nil {
		return err
	}
	*c = CommandOrCodeAction{CodeAction: &action}
	return nil
}

// TypeHierarchyItem is an item of the LSP 3.17 type hierarchy.
type TypeHierarchyItem struct {
	Name           string               `json:"name"`
	Kind           protocol.SymbolKind  `json:"kind"`
	Tags           []protocol.SymbolTag `json:"tags,omitempty"`
	Detail         string               `json:"detail,omitempty"`
	URI            protocol.DocumentURI `json:"uri"`
	Range          protocol.Range       `json:"range"`
	SelectionRange protocol.Range       `json:"selectionRange"`
	Data           interface{}          `json:"data,omitempty"`
}

// TypeHierarchyPrepareParams are the params of textDocument/prepareTypeHierarchy.
type TypeHierarchyPrepareParams struct {
	protocol.TextDocumentPositionParams
	protocol.WorkDoneProgressParams
}

// TypeHierarchySubtypesParams are the params of typeHierarchy/subtypes.
type TypeHierarchySubtypesParams struct {
	protocol.WorkDoneProgressParams
	protocol.PartialResultParams

	Item TypeHierarchyItem `json:"item"`
}

// TypeHierarchySupertypesParams are the params of typeHierarchy/supertypes.
type TypeHierarchySupertypesParams struct {
	protocol.WorkDoneProgressParams
	protocol.PartialResultParams

	Item TypeHierarchyItem `json:"item"`
}

// HighlightKey identifies a documentHighlight request independently of its
// progress tokens.
type HighlightKey struct {
	URI      protocol.DocumentURI
	Position protocol.Position
}

// HighlightKeyOf returns the key a documentHighlight request is looked up by.
func HighlightKeyOf(params *protocol.DocumentHighlightParams) HighlightKey {
	return HighlightKey{
		URI:      params.TextDocument.URI,
		Position: params.Position,
	}
}
