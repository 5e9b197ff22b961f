package mock

import (
	"context"
	"time"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

// DidOpen handles textDocument/didOpen. It completes the pending open
// callback, then, when diagnostics are configured, pushes them to exactly one
// client proxy and advances the rotation.
func (s *DocumentService) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) {
	if cb := take(&s.callbackMu, &s.didOpenCb); cb != nil {
		cb.Complete(params)
	}

	docURI := params.TextDocument.URI
	if len(s.diagnostics) > 0 {
		err := s.proxies.publish(ctx, &protocol.PublishDiagnosticsParams{
			URI:         docURI,
			Diagnostics: s.diagnostics,
		})
		if err != nil {
			s.logger.Warn("failed to publish diagnostics", zap.String("uri", string(docURI)), zap.Error(err))
		}
	}

	s.record(ctx, EventDidOpen, docURI, params)
}

// DidChange handles textDocument/didChange by appending to the change log.
func (s *DocumentService) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) {
	s.changeMu.Lock()
	s.changeEvents = append(s.changeEvents, params)
	s.changeMu.Unlock()

	s.record(ctx, EventDidChange, params.TextDocument.URI, params)
}

// DidClose handles textDocument/didClose.
func (s *DocumentService) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) {
	if cb := take(&s.callbackMu, &s.didCloseCb); cb != nil {
		cb.Complete(params)
	}
	s.record(ctx, EventDidClose, params.TextDocument.URI, params)
}

// DidSave handles textDocument/didSave.
func (s *DocumentService) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) {
	if cb := take(&s.callbackMu, &s.didSaveCb); cb != nil {
		cb.Complete(params)
	}
	s.record(ctx, EventDidSave, params.TextDocument.URI, params)
}

// WillSave handles textDocument/willSave. It is accepted and ignored.
func (s *DocumentService) WillSave(_ context.Context, params *protocol.WillSaveTextDocumentParams) {
	s.logger.Debug("willSave", zap.String("uri", string(params.TextDocument.URI)))
}

func (s *DocumentService) record(ctx context.Context, kind EventKind, docURI protocol.DocumentURI, params interface{}) {
	if s.sink == nil {
		return
	}
	s.sink.Record(ctx, Event{
		Kind:   kind,
		URI:    docURI,
		Time:   time.Now(),
		Params: params,
	})
}
