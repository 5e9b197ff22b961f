package mock

import (
	"context"

	"github.com/conduit-lang/mockls/internal/future"
	"go.lsp.dev/protocol"
)

// zeroRange is the degenerate (0,0)-(0,0) range used by synthesized results.
var zeroRange = protocol.Range{
	Start: protocol.Position{Line: 0, Character: 0},
	End:   protocol.Position{Line: 0, Character: 0},
}

// Completion answers textDocument/completion.
func (s *DocumentService) Completion(_ context.Context, _ *protocol.CompletionParams) *future.Future[*protocol.CompletionList] {
	return future.Completed(s.completionList)
}

// ResolveCompletionItem answers completionItem/resolve with null.
func (s *DocumentService) ResolveCompletionItem(_ context.Context, _ *protocol.CompletionItem) *future.Future[*protocol.CompletionItem] {
	return future.Completed[*protocol.CompletionItem](nil)
}

// Hover answers textDocument/hover.
func (s *DocumentService) Hover(_ context.Context, _ *protocol.HoverParams) *future.Future[*protocol.Hover] {
	return future.Completed(s.hover)
}

// SignatureHelp answers textDocument/signatureHelp.
func (s *DocumentService) SignatureHelp(_ context.Context, _ *protocol.SignatureHelpParams) *future.Future[*protocol.SignatureHelp] {
	return future.Completed(s.signatureHelp)
}

// Definition answers textDocument/definition with plain locations.
func (s *DocumentService) Definition(_ context.Context, _ *protocol.DefinitionParams) *future.Future[[]protocol.Location] {
	return future.Completed(s.definitionLocations)
}

// TypeDefinition answers textDocument/typeDefinition with location links.
func (s *DocumentService) TypeDefinition(_ context.Context, _ *protocol.TypeDefinitionParams) *future.Future[[]protocol.LocationLink] {
	return future.Completed(s.typeDefinitions)
}

// References answers textDocument/references.
func (s *DocumentService) References(_ context.Context, _ *protocol.ReferenceParams) *future.Future[[]protocol.Location] {
	return future.Completed(s.references)
}

// DocumentHighlight answers textDocument/documentHighlight from the highlight
// map, keyed by document and position.
func (s *DocumentService) DocumentHighlight(_ context.Context, params *protocol.DocumentHighlightParams) *future.Future[[]protocol.DocumentHighlight] {
	if s.documentHighlights == nil || params == nil {
		return future.Completed[[]protocol.DocumentHighlight](nil)
	}
	return future.Completed(s.documentHighlights[HighlightKeyOf(params)])
}

// LinkedEditingRange answers textDocument/linkedEditingRange.
func (s *DocumentService) LinkedEditingRange(_ context.Context, _ *protocol.LinkedEditingRangeParams) *future.Future[*protocol.LinkedEditingRanges] {
	return future.Completed(s.linkedEditingRanges)
}

// DocumentSymbol answers textDocument/documentSymbol with hierarchical symbols.
func (s *DocumentService) DocumentSymbol(_ context.Context, _ *protocol.DocumentSymbolParams) *future.Future[[]protocol.DocumentSymbol] {
	return future.Completed(s.documentSymbols)
}

// DocumentLink answers textDocument/documentLink.
func (s *DocumentService) DocumentLink(_ context.Context, _ *protocol.DocumentLinkParams) *future.Future[[]protocol.DocumentLink] {
	return future.Completed(s.documentLinks)
}

// CodeAction answers textDocument/codeAction.
func (s *DocumentService) CodeAction(_ context.Context, _ *protocol.CodeActionParams) *future.Future[[]CommandOrCodeAction] {
	return future.Completed(s.codeActions)
}

// ResolveCodeAction answers codeAction/resolve by echoing the action back.
func (s *DocumentService) ResolveCodeAction(_ context.Context, unresolved *protocol.CodeAction) *future.Future[*protocol.CodeAction] {
	return future.Completed(unresolved)
}

// ResolveCodeLens answers codeLens/resolve with null.
func (s *DocumentService) ResolveCodeLens(_ context.Context, _ *protocol.CodeLens) *future.Future[*protocol.CodeLens] {
	return future.Completed[*protocol.CodeLens](nil)
}

// Formatting answers textDocument/formatting.
func (s *DocumentService) Formatting(_ context.Context, _ *protocol.DocumentFormattingParams) *future.Future[[]protocol.TextEdit] {
	return future.Completed(s.formattingEdits)
}

// RangeFormatting answers textDocument/rangeFormatting with null.
func (s *DocumentService) RangeFormatting(_ context.Context, _ *protocol.DocumentRangeFormattingParams) *future.Future[[]protocol.TextEdit] {
	return future.Completed[[]protocol.TextEdit](nil)
}

// OnTypeFormatting answers textDocument/onTypeFormatting with null.
func (s *DocumentService) OnTypeFormatting(_ context.Context, _ *protocol.DocumentOnTypeFormattingParams) *future.Future[[]protocol.TextEdit] {
	return future.Completed[[]protocol.TextEdit](nil)
}

// Rename answers textDocument/rename.
func (s *DocumentService) Rename(_ context.Context, _ *protocol.RenameParams) *future.Future[*protocol.WorkspaceEdit] {
	return future.Completed(s.renameEdit)
}

// PrepareRename answers textDocument/prepareRename.
func (s *DocumentService) PrepareRename(_ context.Context, _ *protocol.PrepareRenameParams) *future.Future[PrepareRenameResult] {
	return future.Completed(s.prepareRename)
}

// WillSaveWaitUntil answers textDocument/willSaveWaitUntil. When no edits are
// configured it returns a nil future: the server has no opinion, which callers
// must tell apart from an empty edit list.
func (s *DocumentService) WillSaveWaitUntil(_ context.Context, _ *protocol.WillSaveTextDocumentParams) *future.Future[[]protocol.TextEdit] {
	if s.willSaveEdits == nil {
		return nil
	}
	return future.Completed(s.willSaveEdits)
}

// DocumentColor answers textDocument/documentColor.
func (s *DocumentService) DocumentColor(_ context.Context, _ *protocol.DocumentColorParams) *future.Future[[]protocol.ColorInformation] {
	return future.Completed(s.documentColors)
}

// SemanticTokensFull answers textDocument/semanticTokens/full.
func (s *DocumentService) SemanticTokensFull(_ context.Context, _ *protocol.SemanticTokensParams) *future.Future[*protocol.SemanticTokens] {
	return future.Completed(s.semanticTokens)
}

// FoldingRange answers textDocument/foldingRange.
func (s *DocumentService) FoldingRange(_ context.Context, _ *protocol.FoldingRangeParams) *future.Future[[]protocol.FoldingRange] {
	return future.Completed(s.foldingRanges)
}
