// Package fixture configures a mock document service from a JSON file so the
// server can be scripted without writing Go.
package fixture

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/conduit-lang/mockls/internal/mock"
	"go.lsp.dev/protocol"
)

// Fixture mirrors the service setters. A key absent from the file leaves the
// corresponding slot untouched; an explicit empty list sets an empty list.
type Fixture struct {
	Completion          *protocol.CompletionList      `json:"completion,omitempty"`
	Hover               *protocol.Hover               `json:"hover,omitempty"`
	SignatureHelp       *protocol.SignatureHelp       `json:"signatureHelp,omitempty"`
	CodeLenses          []protocol.CodeLens           `json:"codeLenses,omitempty"`
	DocumentLinks       []protocol.DocumentLink       `json:"documentLinks,omitempty"`
	DocumentHighlights  []Highlight                   `json:"documentHighlights,omitempty"`
	LinkedEditingRanges *protocol.LinkedEditingRanges `json:"linkedEditingRanges,omitempty"`
	References          []protocol.Location           `json:"references,omitempty"`
	Definitions         []protocol.Location           `json:"definitions,omitempty"`
	TypeDefinitions     []protocol.LocationLink       `json:"typeDefinitions,omitempty"`
	Formatting          []protocol.TextEdit           `json:"formatting,omitempty"`
	CodeActions         []mock.CommandOrCodeAction    `json:"codeActions,omitempty"`
	DocumentColors      []protocol.ColorInformation   `json:"documentColors,omitempty"`
	Rename              *protocol.WorkspaceEdit       `json:"rename,omitempty"`
	PrepareRename       json.RawMessage               `json:"prepareRename,omitempty"`
	DocumentSymbols     []protocol.DocumentSymbol     `json:"documentSymbols,omitempty"`
	SemanticTokens      *protocol.SemanticTokens      `json:"semanticTokens,omitempty"`
	FoldingRanges       []protocol.FoldingRange       `json:"foldingRanges,omitempty"`
	Diagnostics         []protocol.Diagnostic         `json:"diagnostics,omitempty"`
	WillSaveWaitUntil   []protocol.TextEdit           `json:"willSaveWaitUntil,omitempty"`
}

// Highlight is the answer for one documentHighlight position.
type Highlight struct {
	URI        protocol.DocumentURI         `json:"uri"`
	Position   protocol.Position            `json:"position"`
	Highlights []protocol.DocumentHighlight `json:"highlights"`
}

// Parse decodes and validates fixture data.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	if _, err := f.prepareRename(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads and parses the fixture at path.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Apply configures svc with every slot present in f.
func Apply(svc *mock.DocumentService, f *Fixture) error {
	prepareRename, err := f.prepareRename()
	if err != nil {
		return err
	}

	if f.Completion != nil {
		svc.SetCompletionList(f.Completion)
	}
	if f.Hover != nil {
		svc.SetHover(f.Hover)
	}
	if f.SignatureHelp != nil {
		svc.SetSignatureHelp(f.SignatureHelp)
	}
	if f.CodeLenses != nil {
		svc.SetCodeLenses(f.CodeLenses)
	}
	if f.DocumentLinks != nil {
		svc.SetDocumentLinks(f.DocumentLinks)
	}
	if f.DocumentHighlights != nil {
		highlights := make(map[mock.HighlightKey][]protocol.DocumentHighlight, len(f.DocumentHighlights))
		for _, h := range f.DocumentHighlights {
			key := mock.HighlightKey{URI: h.URI, Position: h.Position}
			highlights[key] = append(highlights[key], h.Highlights...)
		}
		svc.SetDocumentHighlights(highlights)
	}
	if f.LinkedEditingRanges != nil {
		svc.SetLinkedEditingRanges(f.LinkedEditingRanges)
	}
	if f.References != nil {
		svc.SetReferences(f.References...)
	}
	if f.Definitions != nil {
		svc.SetDefinitionLocations(f.Definitions)
	}
	if f.TypeDefinitions != nil {
		svc.SetTypeDefinitions(f.TypeDefinitions)
	}
	if f.Formatting != nil {
		svc.SetFormattingEdits(f.Formatting)
	}
	if f.CodeActions != nil {
		svc.SetCodeActions(f.CodeActions)
	}
	if f.DocumentColors != nil {
		svc.SetDocumentColors(f.DocumentColors)
	}
	if f.Rename != nil {
		svc.SetRenameEdit(f.Rename)
	}
	if len(f.PrepareRename) > 0 {
		svc.SetPrepareRenameResult(prepareRename)
	}
	if f.DocumentSymbols != nil {
		svc.SetDocumentSymbols(f.DocumentSymbols)
	}
	if f.SemanticTokens != nil {
		svc.SetSemanticTokens(f.SemanticTokens)
	}
	if f.FoldingRanges != nil {
		svc.SetFoldingRanges(f.FoldingRanges)
	}
	if f.Diagnostics != nil {
		svc.SetDiagnostics(f.Diagnostics)
	}
	if f.WillSaveWaitUntil != nil {
		svc.SetWillSaveWaitUntilEdits(f.WillSaveWaitUntil)
	}
	return nil
}

func (f *Fixture) prepareRename() (mock.PrepareRenameResult, error) {
	if len(f.PrepareRename) == 0 {
		return nil, nil
	}
	result, err := mock.DecodePrepareRenameResult(f.PrepareRename)
	if err != nil {
		return nil, fmt.Errorf("invalid prepareRename: %w", err)
	}
	return result, nil
}
