package mock

import (
	"context"

	"github.com/conduit-lang/mockls/internal/future"
	"go.lsp.dev/protocol"
)

func hierarchyItem(name string, docURI protocol.DocumentURI) TypeHierarchyItem {
	return TypeHierarchyItem{
		Name:           name,
		Kind:           protocol.SymbolKindClass,
		URI:            docURI,
		Range:          zeroRange,
		SelectionRange: zeroRange,
	}
}

// PrepareTypeHierarchy answers textDocument/prepareTypeHierarchy with a single
// item named "a" in the requested document.
func (s *DocumentService) PrepareTypeHierarchy(_ context.Context, params *TypeHierarchyPrepareParams) *future.Future[[]TypeHierarchyItem] {
	var docURI protocol.DocumentURI
	if params != nil {
		docURI = params.TextDocument.URI
	}
	return future.Completed([]TypeHierarchyItem{hierarchyItem("a", docURI)})
}

// TypeHierarchySubtypes answers typeHierarchy/subtypes with two children,
// N+"a" at U+"/a" and N+"b" at U+"/b".
func (s *DocumentService) TypeHierarchySubtypes(_ context.Context, params *TypeHierarchySubtypesParams) *future.Future[[]TypeHierarchyItem] {
	var parent TypeHierarchyItem
	if params != nil {
		parent = params.Item
	}
	return future.Completed([]TypeHierarchyItem{
		hierarchyItem(parent.Name+"a", parent.URI+"/a"),
		hierarchyItem(parent.Name+"b", parent.URI+"/b"),
	})
}

// TypeHierarchySupertypes answers typeHierarchy/supertypes with two parents,
// "X"+N at U+"/X" and "Y"+N at U+"/Y".
func (s *DocumentService) TypeHierarchySupertypes(_ context.Context, params *TypeHierarchySupertypesParams) *future.Future[[]TypeHierarchyItem] {
	var child TypeHierarchyItem
	if params != nil {
		child = params.Item
	}
	return future.Completed([]TypeHierarchyItem{
		hierarchyItem("X"+child.Name, child.URI+"/X"),
		hierarchyItem("Y"+child.Name, child.URI+"/Y"),
	})
}
