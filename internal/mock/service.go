// Package mock implements a scriptable LSP text-document service for driving
// client integration tests. Every request kind has a response slot that a test
// configures through a setter; handlers answer with the slot's current value
// (or a trivial default) wrapped in a completed future.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/conduit-lang/mockls/internal/future"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

// EventKind names a recorded notification.
type EventKind string

const (
	EventDidOpen   EventKind = "didOpen"
	EventDidChange EventKind = "didChange"
	EventDidClose  EventKind = "didClose"
	EventDidSave   EventKind = "didSave"
)

// Event is a handled text-document notification.
type Event struct {
	Kind   EventKind            `json:"kind"`
	URI    protocol.DocumentURI `json:"uri"`
	Time   time.Time            `json:"time"`
	Params interface{}          `json:"params"`
}

// EventSink observes handled notifications. Record runs on the connection's
// read loop, so implementations must return without waiting on I/O.
type EventSink interface {
	Record(ctx context.Context, ev Event)
}

// DocumentService is the mock text-document service. Construct one per test
// fixture with NewDocumentService and call Reset between tests.
//
// Slots are plain fields: tests are expected to configure them before the
// requests that read them arrive. The client proxy set, the change-event log
// and the one-shot callbacks are safe for concurrent use.
type DocumentService struct {
	logger *zap.Logger
	sink   EventSink

	completionList      *protocol.CompletionList
	hover               *protocol.Hover
	signatureHelp       *protocol.SignatureHelp
	definitionLocations []protocol.Location
	typeDefinitions     []protocol.LocationLink
	references          []protocol.Location
	documentHighlights  map[HighlightKey][]protocol.DocumentHighlight
	linkedEditingRanges *protocol.LinkedEditingRanges
	documentSymbols     []protocol.DocumentSymbol
	documentLinks       []protocol.DocumentLink
	codeActions         []CommandOrCodeAction
	codeLenses          []protocol.CodeLens
	formattingEdits     []protocol.TextEdit
	renameEdit          *protocol.WorkspaceEdit
	prepareRename       PrepareRenameResult
	documentColors      []protocol.ColorInformation
	semanticTokens      *protocol.SemanticTokens
	foldingRanges       []protocol.FoldingRange
	willSaveEdits       []protocol.TextEdit
	diagnostics         []protocol.Diagnostic

	callbackMu sync.Mutex
	didOpenCb  *future.Future[*protocol.DidOpenTextDocumentParams]
	didSaveCb  *future.Future[*protocol.DidSaveTextDocumentParams]
	didCloseCb *future.Future[*protocol.DidCloseTextDocumentParams]

	changeMu     sync.Mutex
	changeEvents []*protocol.DidChangeTextDocumentParams

	proxies proxySet
}

// NewDocumentService returns a service holding the construction defaults: one
// mock completion item, a "Mock hover" hover and a placeholder prepareRename
// result. A nil logger disables logging.
func NewDocumentService(logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DocumentService{
		logger: logger,
		completionList: &protocol.CompletionList{
			IsIncomplete: false,
			Items:        []protocol.CompletionItem{{Label: "Mock completion item"}},
		},
		hover: &protocol.Hover{
			Contents: protocol.MarkupContent{
				Kind:  protocol.PlainText,
				Value: "Mock hover",
			},
		},
		prepareRename: PrepareRenamePlaceholder{
			Range:       zeroRange,
			Placeholder: "placeholder",
		},
		references:      []protocol.Location{},
		documentSymbols: []protocol.DocumentSymbol{},
	}
}

// SetEventSink installs an observer for handled notifications.
func (s *DocumentService) SetEventSink(sink EventSink) {
	s.sink = sink
}

// Reset restores every slot to its post-reset default, drops all client
// proxies and pending callbacks. The change-event log is kept.
func (s *DocumentService) Reset() {
	s.ResetResults()
	s.proxies.reset()
	s.logger.Debug("mock state reset")
}

// ResetResults is Reset without touching the client proxies, for reloading
// results while clients stay connected.
func (s *DocumentService) ResetResults() {
	s.completionList = &protocol.CompletionList{Items: []protocol.CompletionItem{}}
	s.hover = nil
	s.signatureHelp = nil
	s.definitionLocations = []protocol.Location{}
	s.typeDefinitions = []protocol.LocationLink{}
	s.references = nil
	s.documentHighlights = nil
	s.linkedEditingRanges = nil
	s.documentSymbols = []protocol.DocumentSymbol{}
	s.documentLinks = nil
	s.codeActions = []CommandOrCodeAction{}
	s.codeLenses = nil
	s.formattingEdits = nil
	s.renameEdit = nil
	s.prepareRename = nil
	s.documentColors = nil
	s.semanticTokens = nil
	s.foldingRanges = []protocol.FoldingRange{}
	s.willSaveEdits = nil
	s.diagnostics = nil

	s.callbackMu.Lock()
	s.didOpenCb, s.didSaveCb, s.didCloseCb = nil, nil, nil
	s.callbackMu.Unlock()
}

func (s *DocumentService) SetCompletionList(list *protocol.CompletionList) {
	s.completionList = list
}

func (s *DocumentService) SetHover(hover *protocol.Hover) {
	s.hover = hover
}

func (s *DocumentService) SetSignatureHelp(help *protocol.SignatureHelp) {
	s.signatureHelp = help
}

func (s *DocumentService) SetDefinitionLocations(locations []protocol.Location) {
	s.definitionLocations = locations
}

func (s *DocumentService) SetTypeDefinitions(links []protocol.LocationLink) {
	s.typeDefinitions = links
}

// SetReferences configures the textDocument/references answer.
func (s *DocumentService) SetReferences(locations ...protocol.Location) {
	s.references = locations
}

// SetDocumentHighlights configures highlights per (document, position).
// Requests at an unknown key get a null result.
func (s *DocumentService) SetDocumentHighlights(highlights map[HighlightKey][]protocol.DocumentHighlight) {
	s.documentHighlights = highlights
}

func (s *DocumentService) SetLinkedEditingRanges(ranges *protocol.LinkedEditingRanges) {
	s.linkedEditingRanges = ranges
}

func (s *DocumentService) SetDocumentSymbols(symbols []protocol.DocumentSymbol) {
	s.documentSymbols = symbols
}

func (s *DocumentService) SetDocumentLinks(links []protocol.DocumentLink) {
	s.documentLinks = links
}

func (s *DocumentService) SetCodeActions(actions []CommandOrCodeAction) {
	s.codeActions = actions
}

// SetCodeLenses configures code lenses. A nil list re-enables the
// file-size driven default.
func (s *DocumentService) SetCodeLenses(lenses []protocol.CodeLens) {
	s.codeLenses = lenses
}

func (s *DocumentService) SetFormattingEdits(edits []protocol.TextEdit) {
	s.formattingEdits = edits
}

func (s *DocumentService) SetRenameEdit(edit *protocol.WorkspaceEdit) {
	s.renameEdit = edit
}

func (s *DocumentService) SetPrepareRenameResult(result PrepareRenameResult) {
	s.prepareRename = result
}

func (s *DocumentService) SetDocumentColors(colors []protocol.ColorInformation) {
	s.documentColors = colors
}

func (s *DocumentService) SetSemanticTokens(tokens *protocol.SemanticTokens) {
	s.semanticTokens = tokens
}

func (s *DocumentService) SetFoldingRanges(ranges []protocol.FoldingRange) {
	s.foldingRanges = ranges
}

// SetWillSaveWaitUntilEdits configures the willSaveWaitUntil answer. With nil
// the request answers null ("no edits suggested"), which differs from an
// empty list.
func (s *DocumentService) SetWillSaveWaitUntilEdits(edits []protocol.TextEdit) {
	s.willSaveEdits = edits
}

// SetDiagnostics configures the diagnostics pushed on every didOpen.
func (s *DocumentService) SetDiagnostics(diagnostics []protocol.Diagnostic) {
	s.diagnostics = diagnostics
}

// SetDidOpenCallback registers a one-shot callback completed by the next didOpen.
func (s *DocumentService) SetDidOpenCallback(cb *future.Future[*protocol.DidOpenTextDocumentParams]) {
	s.callbackMu.Lock()
	defer s.callbackMu.Unlock()
	s.didOpenCb = cb
}

// SetDidSaveCallback registers a one-shot callback completed by the next didSave.
func (s *DocumentService) SetDidSaveCallback(cb *future.Future[*protocol.DidSaveTextDocumentParams]) {
	s.callbackMu.Lock()
	defer s.callbackMu.Unlock()
	s.didSaveCb = cb
}

// SetDidCloseCallback registers a one-shot callback completed by the next didClose.
func (s *DocumentService) SetDidCloseCallback(cb *future.Future[*protocol.DidCloseTextDocumentParams]) {
	s.callbackMu.Lock()
	defer s.callbackMu.Unlock()
	s.didCloseCb = cb
}

// AddClientProxy appends a client to the diagnostics rotation.
func (s *DocumentService) AddClientProxy(proxy DiagnosticsPublisher) {
	s.proxies.add(proxy)
}

// RemoveClientProxy drops a client from the rotation, e.g. after its
// connection closed.
func (s *DocumentService) RemoveClientProxy(proxy DiagnosticsPublisher) bool {
	return s.proxies.remove(proxy)
}

// ClientProxies returns the proxies in current rotation order.
func (s *DocumentService) ClientProxies() []DiagnosticsPublisher {
	return s.proxies.snapshot()
}

// ChangeEvents returns a snapshot of every didChange received so far, in
// arrival order.
func (s *DocumentService) ChangeEvents() []*protocol.DidChangeTextDocumentParams {
	s.changeMu.Lock()
	defer s.changeMu.Unlock()
	out := make([]*protocol.DidChangeTextDocumentParams, len(s.changeEvents))
	copy(out, s.changeEvents)
	return out
}

// take swaps the pending callback out under the callback lock so that it is
// completed by exactly one notification.
func take[T any](mu *sync.Mutex, slot **future.Future[T]) *future.Future[T] {
	mu.Lock()
	defer mu.Unlock()
	cb := *slot
	*slot = nil
	return cb
}
