package lsp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/conduit-lang/mockls/internal/future"
	"github.com/conduit-lang/mockls/internal/mock"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

type route func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error

// documentRoutes wires every text-document method to the service.
func (s *Server) documentRoutes() map[string]route {
	svc := s.service
	return map[string]route{
		protocol.MethodTextDocumentDidOpen:   notify(s, svc.DidOpen),
		protocol.MethodTextDocumentDidChange: notify(s, svc.DidChange),
		protocol.MethodTextDocumentDidClose:  notify(s, svc.DidClose),
		protocol.MethodTextDocumentDidSave:   notify(s, svc.DidSave),
		protocol.MethodTextDocumentWillSave:  notify(s, svc.WillSave),

		protocol.MethodTextDocumentCompletion:        call(s, svc.Completion),
		protocol.MethodCompletionItemResolve:         call(s, svc.ResolveCompletionItem),
		protocol.MethodTextDocumentHover:             call(s, svc.Hover),
		protocol.MethodTextDocumentSignatureHelp:     call(s, svc.SignatureHelp),
		protocol.MethodTextDocumentDefinition:        call(s, svc.Definition),
		protocol.MethodTextDocumentTypeDefinition:    call(s, svc.TypeDefinition),
		protocol.MethodTextDocumentReferences:        call(s, svc.References),
		protocol.MethodTextDocumentDocumentHighlight: call(s, svc.DocumentHighlight),
		protocol.MethodLinkedEditingRange:            call(s, svc.LinkedEditingRange),
		protocol.MethodTextDocumentDocumentSymbol:    call(s, svc.DocumentSymbol),
		protocol.MethodTextDocumentDocumentLink:      call(s, svc.DocumentLink),
		protocol.MethodTextDocumentCodeAction:        call(s, svc.CodeAction),
		mock.MethodCodeActionResolve:                 call(s, svc.ResolveCodeAction),
		protocol.MethodTextDocumentCodeLens:          call(s, svc.CodeLens),
		protocol.MethodCodeLensResolve:               call(s, svc.ResolveCodeLens),
		protocol.MethodTextDocumentFormatting:        call(s, svc.Formatting),
		protocol.MethodTextDocumentRangeFormatting:   call(s, svc.RangeFormatting),
		protocol.MethodTextDocumentOnTypeFormatting:  call(s, svc.OnTypeFormatting),
		protocol.MethodTextDocumentRename:            call(s, svc.Rename),
		protocol.MethodTextDocumentPrepareRename:     call(s, svc.PrepareRename),
		protocol.MethodTextDocumentWillSaveWaitUntil: call(s, svc.WillSaveWaitUntil),
		protocol.MethodTextDocumentDocumentColor:     call(s, svc.DocumentColor),
		protocol.MethodSemanticTokensFull:            call(s, svc.SemanticTokensFull),
		protocol.MethodTextDocumentFoldingRange:      call(s, svc.FoldingRange),
		mock.MethodTextDocumentPrepareTypeHierarchy:  call(s, svc.PrepareTypeHierarchy),
		mock.MethodTypeHierarchySubtypes:             call(s, svc.TypeHierarchySubtypes),
		mock.MethodTypeHierarchySupertypes:           call(s, svc.TypeHierarchySupertypes),
	}
}

// call adapts a request handler. The reply carries the future's value once it
// completes; a nil future replies null.
func call[P, R any](s *Server, fn func(context.Context, *P) *future.Future[R]) route {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		var params P
		if err := decodeParams(req, &params); err != nil {
			return s.replyWithError(ctx, reply, jsonrpc2.InvalidParams, fmt.Sprintf("Failed to parse %s params: %v", req.Method(), err))
		}

		f := fn(ctx, &params)
		if f == nil {
			return reply(ctx, nil, nil)
		}

		result, err := f.Get(ctx)
		if err != nil {
			return s.replyWithError(ctx, reply, jsonrpc2.InternalError, err.Error())
		}
		return reply(ctx, result, nil)
	}
}

// notify adapts a notification handler. Malformed params are logged and
// dropped since notifications carry no response.
func notify[P any](s *Server, fn func(context.Context, *P)) route {
	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		var params P
		if err := decodeParams(req, &params); err != nil {
			s.logger.Warn("dropping malformed notification", zap.String("method", req.Method()), zap.Error(err))
			return reply(ctx, nil, jsonrpc2.NewError(jsonrpc2.InvalidParams, err.Error()))
		}

		fn(ctx, &params)
		return reply(ctx, nil, nil)
	}
}

// decodeParams unmarshals request params; absent params leave v untouched.
func decodeParams(req jsonrpc2.Request, v interface{}) error {
	raw := req.Params()
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// serverCapabilities adds the members protocol.ServerCapabilities lacks.
type serverCapabilities struct {
	protocol.ServerCapabilities
	TypeHierarchyProvider bool `json:"typeHierarchyProvider,omitempty"`
}

type initializeResult struct {
	Capabilities serverCapabilities   `json:"capabilities"`
	ServerInfo   *protocol.ServerInfo `json:"serverInfo,omitempty"`
}

// semanticTokensProvider carries the legend and full flag that
// protocol.SemanticTokensOptions does not model.
type semanticTokensProvider struct {
	Legend protocol.SemanticTokensLegend `json:"legend"`
	Full   bool                          `json:"full"`
}

// capabilities advertises every method the service answers.
func capabilities() serverCapabilities {
	return serverCapabilities{
		ServerCapabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose:         true,
				Change:            protocol.TextDocumentSyncKindIncremental,
				WillSave:          true,
				WillSaveWaitUntil: true,
				Save:              &protocol.SaveOptions{IncludeText: false},
			},
			CompletionProvider: &protocol.CompletionOptions{
				ResolveProvider:   true,
				TriggerCharacters: []string{"."},
			},
			HoverProvider:             true,
			SignatureHelpProvider:     &protocol.SignatureHelpOptions{TriggerCharacters: []string{"(", ","}},
			DefinitionProvider:        true,
			TypeDefinitionProvider:    true,
			ReferencesProvider:        true,
			DocumentHighlightProvider: true,
			DocumentSymbolProvider:    true,
			CodeActionProvider: &protocol.CodeActionOptions{
				CodeActionKinds: []protocol.CodeActionKind{protocol.QuickFix},
				ResolveProvider: true,
			},
			CodeLensProvider:                &protocol.CodeLensOptions{ResolveProvider: true},
			DocumentLinkProvider:            &protocol.DocumentLinkOptions{},
			ColorProvider:                   true,
			DocumentFormattingProvider:      true,
			DocumentRangeFormattingProvider: true,
			DocumentOnTypeFormattingProvider: &protocol.DocumentOnTypeFormattingOptions{
				FirstTriggerCharacter: ";",
			},
			RenameProvider:             &protocol.RenameOptions{PrepareProvider: true},
			FoldingRangeProvider:       true,
			LinkedEditingRangeProvider: true,
			SemanticTokensProvider: semanticTokensProvider{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     []protocol.SemanticTokenTypes{protocol.SemanticTokenKeyword, protocol.SemanticTokenType},
					TokenModifiers: []protocol.SemanticTokenModifiers{},
				},
				Full: true,
			},
		},
		TypeHierarchyProvider: true,
	}
}
