package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/conduit-lang/mockls/internal/future"
	"github.com/conduit-lang/mockls/internal/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

const waitTimeout = 2 * time.Second

// testClient is the editor side of a connection. It records every
// publishDiagnostics notification it receives.
type testClient struct {
	conn        jsonrpc2.Conn
	diagnostics chan protocol.PublishDiagnosticsParams
}

func (c *testClient) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	if req.Method() != protocol.MethodTextDocumentPublishDiagnostics {
		return reply(ctx, nil, jsonrpc2.ErrMethodNotFound)
	}
	var params protocol.PublishDiagnosticsParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}
	c.diagnostics <- params
	return reply(ctx, nil, nil)
}

func (c *testClient) expectDiagnostics(t *testing.T) protocol.PublishDiagnosticsParams {
	t.Helper()
	select {
	case params := <-c.diagnostics:
		return params
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for diagnostics")
		return protocol.PublishDiagnosticsParams{}
	}
}

func (c *testClient) expectNoDiagnostics(t *testing.T) {
	t.Helper()
	select {
	case params := <-c.diagnostics:
		t.Fatalf("unexpected diagnostics for %s", params.URI)
	case <-time.After(50 * time.Millisecond):
	}
}

func newTestServer() *Server {
	return NewServer(mock.NewDocumentService(zap.NewNop()), zap.NewNop(), "test")
}

// connect attaches a client over an in-memory pipe and waits until the
// server has registered its session.
func connect(t *testing.T, ctx context.Context, srv *Server) *testClient {
	t.Helper()
	before := srv.Sessions()

	serverSide, clientSide := net.Pipe()
	done := make(chan error, 1)
	go func() {
		done <- srv.ServeStream(ctx, jsonrpc2.NewConn(jsonrpc2.NewStream(serverSide)))
	}()

	c := &testClient{diagnostics: make(chan protocol.PublishDiagnosticsParams, 16)}
	c.conn = jsonrpc2.NewConn(jsonrpc2.NewStream(clientSide))
	c.conn.Go(ctx, c.handle)

	require.Eventually(t, func() bool { return srv.Sessions() == before+1 }, waitTimeout, 5*time.Millisecond)

	t.Cleanup(func() {
		_ = c.conn.Close()
		select {
		case <-done:
		case <-time.After(waitTimeout):
			t.Error("server did not release the connection")
		}
	})
	return c
}

func didOpen(docURI string) *protocol.DidOpenTextDocumentParams {
	return &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        protocol.DocumentURI(docURI),
			LanguageID: "plaintext",
			Version:    1,
			Text:       "hello",
		},
	}
}

func position(docURI string) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentURI(docURI)},
	}
}

func TestInitialize(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := connect(t, ctx, newTestServer())

	var result map[string]json.RawMessage
	_, err := c.conn.Call(ctx, protocol.MethodInitialize, &protocol.InitializeParams{
		ClientInfo: &protocol.ClientInfo{Name: "test-editor"},
	}, &result)
	require.NoError(t, err)

	var info protocol.ServerInfo
	require.NoError(t, json.Unmarshal(result["serverInfo"], &info))
	assert.Equal(t, ServerName, info.Name)
	assert.Equal(t, "test", info.Version)

	var caps map[string]interface{}
	require.NoError(t, json.Unmarshal(result["capabilities"], &caps))
	for _, key := range []string{
		"textDocumentSync", "completionProvider", "hoverProvider", "signatureHelpProvider",
		"definitionProvider", "typeDefinitionProvider", "referencesProvider",
		"documentHighlightProvider", "documentSymbolProvider", "codeActionProvider",
		"codeLensProvider", "documentLinkProvider", "colorProvider",
		"documentFormattingProvider", "documentRangeFormattingProvider",
		"documentOnTypeFormattingProvider", "renameProvider", "foldingRangeProvider",
		"linkedEditingRangeProvider", "semanticTokensProvider", "typeHierarchyProvider",
	} {
		assert.Contains(t, caps, key)
	}
	assert.Equal(t, true, caps["typeHierarchyProvider"])

	require.NoError(t, c.conn.Notify(ctx, protocol.MethodInitialized, &protocol.InitializedParams{}))
}

func TestRequests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := newTestServer()
	c := connect(t, ctx, srv)
	svc := srv.Service()

	t.Run("completion default", func(t *testing.T) {
		var list protocol.CompletionList
		_, err := c.conn.Call(ctx, protocol.MethodTextDocumentCompletion, &protocol.CompletionParams{
			TextDocumentPositionParams: position("file:///a.txt"),
		}, &list)
		require.NoError(t, err)
		require.Len(t, list.Items, 1)
		assert.Equal(t, "Mock completion item", list.Items[0].Label)
	})

	t.Run("hover configured", func(t *testing.T) {
		svc.SetHover(&protocol.Hover{Contents: protocol.MarkupContent{Kind: protocol.Markdown, Value: "**bold**"}})

		var hover protocol.Hover
		_, err := c.conn.Call(ctx, protocol.MethodTextDocumentHover, &protocol.HoverParams{
			TextDocumentPositionParams: position("file:///a.txt"),
		}, &hover)
		require.NoError(t, err)
		assert.Equal(t, "**bold**", hover.Contents.Value)
	})

	t.Run("references", func(t *testing.T) {
		loc := protocol.Location{URI: "file:///b.txt", Range: protocol.Range{End: protocol.Position{Line: 2}}}
		svc.SetReferences(loc)

		var locations []protocol.Location
		_, err := c.conn.Call(ctx, protocol.MethodTextDocumentReferences, &protocol.ReferenceParams{
			TextDocumentPositionParams: position("file:///a.txt"),
		}, &locations)
		require.NoError(t, err)
		assert.Equal(t, []protocol.Location{loc}, locations)
	})

	t.Run("prepare rename default", func(t *testing.T) {
		var raw json.RawMessage
		_, err := c.conn.Call(ctx, protocol.MethodTextDocumentPrepareRename, &protocol.PrepareRenameParams{
			TextDocumentPositionParams: position("file:///a.txt"),
		}, &raw)
		require.NoError(t, err)

		result, err := mock.DecodePrepareRenameResult(raw)
		require.NoError(t, err)
		assert.Equal(t, mock.PrepareRenamePlaceholder{Placeholder: "placeholder"}, result)
	})

	t.Run("will save wait until unset is null", func(t *testing.T) {
		var raw json.RawMessage
		_, err := c.conn.Call(ctx, protocol.MethodTextDocumentWillSaveWaitUntil, &protocol.WillSaveTextDocumentParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///a.txt"},
			Reason:       protocol.TextDocumentSaveReasonManual,
		}, &raw)
		require.NoError(t, err)
		if len(raw) > 0 {
			assert.JSONEq(t, "null", string(raw))
		}
	})

	t.Run("will save wait until configured", func(t *testing.T) {
		edit := protocol.TextEdit{NewText: "x"}
		svc.SetWillSaveWaitUntilEdits([]protocol.TextEdit{edit})

		var edits []protocol.TextEdit
		_, err := c.conn.Call(ctx, protocol.MethodTextDocumentWillSaveWaitUntil, &protocol.WillSaveTextDocumentParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///a.txt"},
		}, &edits)
		require.NoError(t, err)
		assert.Equal(t, []protocol.TextEdit{edit}, edits)
	})

	t.Run("code action resolve echoes", func(t *testing.T) {
		action := protocol.CodeAction{Title: "Fix", Kind: protocol.QuickFix}

		var resolved protocol.CodeAction
		_, err := c.conn.Call(ctx, mock.MethodCodeActionResolve, &action, &resolved)
		require.NoError(t, err)
		assert.Equal(t, action, resolved)
	})

	t.Run("type hierarchy subtypes", func(t *testing.T) {
		var items []mock.TypeHierarchyItem
		_, err := c.conn.Call(ctx, mock.MethodTypeHierarchySubtypes, &mock.TypeHierarchySubtypesParams{
			Item: mock.TypeHierarchyItem{Name: "N", URI: "file:///u"},
		}, &items)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Na", items[0].Name)
		assert.Equal(t, protocol.DocumentURI("file:///u/a"), items[0].URI)
		assert.Equal(t, "Nb", items[1].Name)
		assert.Equal(t, protocol.DocumentURI("file:///u/b"), items[1].URI)
	})

	t.Run("resolve completion item is null", func(t *testing.T) {
		var item *protocol.CompletionItem
		_, err := c.conn.Call(ctx, protocol.MethodCompletionItemResolve, &protocol.CompletionItem{Label: "x"}, &item)
		require.NoError(t, err)
		assert.Nil(t, item)
	})
}

func TestUnknownMethod(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := connect(t, ctx, newTestServer())

	_, err := c.conn.Call(ctx, "textDocument/inlayHint", map[string]string{}, nil)
	var rpcErr *jsonrpc2.Error
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, jsonrpc2.MethodNotFound, rpcErr.Code)
}

func TestInvalidParams(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := connect(t, ctx, newTestServer())

	_, err := c.conn.Call(ctx, protocol.MethodTextDocumentHover, "not an object", nil)
	var rpcErr *jsonrpc2.Error
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, jsonrpc2.InvalidParams, rpcErr.Code)

	// The connection survives a bad request.
	var hover protocol.Hover
	_, err = c.conn.Call(ctx, protocol.MethodTextDocumentHover, &protocol.HoverParams{}, &hover)
	require.NoError(t, err)
	assert.Equal(t, "Mock hover", hover.Contents.Value)
}

func TestDiagnosticsRoundRobinAcrossConnections(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := newTestServer()
	first := connect(t, ctx, srv)
	second := connect(t, ctx, srv)

	diag := protocol.Diagnostic{Message: "boom", Severity: protocol.DiagnosticSeverityError}
	srv.Service().SetDiagnostics([]protocol.Diagnostic{diag})

	steps := []struct {
		uri  string
		want *testClient
	}{
		{"file:///one.txt", first},
		{"file:///two.txt", second},
		{"file:///three.txt", first},
	}
	for _, step := range steps {
		require.NoError(t, first.conn.Notify(ctx, protocol.MethodTextDocumentDidOpen, didOpen(step.uri)))
		got := step.want.expectDiagnostics(t)
		assert.Equal(t, protocol.DocumentURI(step.uri), got.URI)
		assert.Equal(t, []protocol.Diagnostic{diag}, got.Diagnostics)
	}
	first.expectNoDiagnostics(t)
	second.expectNoDiagnostics(t)
}

func TestNoDiagnosticsConfigured(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := connect(t, ctx, newTestServer())

	require.NoError(t, c.conn.Notify(ctx, protocol.MethodTextDocumentDidOpen, didOpen("file:///a.txt")))
	c.expectNoDiagnostics(t)
}

func TestNotifications(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := newTestServer()
	c := connect(t, ctx, srv)
	svc := srv.Service()

	opened := future.New[*protocol.DidOpenTextDocumentParams]()
	svc.SetDidOpenCallback(opened)

	require.NoError(t, c.conn.Notify(ctx, protocol.MethodTextDocumentDidOpen, didOpen("file:///a.txt")))

	waitCtx, waitCancel := context.WithTimeout(ctx, waitTimeout)
	defer waitCancel()
	params, err := opened.Get(waitCtx)
	require.NoError(t, err)
	assert.Equal(t, protocol.DocumentURI("file:///a.txt"), params.TextDocument.URI)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.conn.Notify(ctx, protocol.MethodTextDocumentDidChange, &protocol.DidChangeTextDocumentParams{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///a.txt"},
				Version:                int32(i + 2),
			},
		}))
	}
	require.Eventually(t, func() bool { return len(svc.ChangeEvents()) == 3 }, waitTimeout, 5*time.Millisecond)

	// A malformed notification is dropped without closing the connection.
	require.NoError(t, c.conn.Notify(ctx, protocol.MethodTextDocumentDidSave, "garbage"))
	var hover protocol.Hover
	_, err = c.conn.Call(ctx, protocol.MethodTextDocumentHover, &protocol.HoverParams{}, &hover)
	require.NoError(t, err)
}

func TestDisconnectRemovesProxy(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := newTestServer()
	c := connect(t, ctx, srv)
	require.Len(t, srv.Service().ClientProxies(), 1)

	require.NoError(t, c.conn.Close())

	require.Eventually(t, func() bool { return srv.Sessions() == 0 }, waitTimeout, 5*time.Millisecond)
	assert.Empty(t, srv.Service().ClientProxies())
}

func TestShutdownAndExit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := newTestServer()
	c := connect(t, ctx, srv)

	_, err := c.conn.Call(ctx, protocol.MethodShutdown, nil, nil)
	require.NoError(t, err)
	require.NoError(t, c.conn.Notify(ctx, protocol.MethodExit, nil))

	require.Eventually(t, func() bool { return srv.Sessions() == 0 }, waitTimeout, 5*time.Millisecond)
	assert.Empty(t, srv.Service().ClientProxies())
}

func TestServeStreamStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	srv := newTestServer()
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()

	done := make(chan error, 1)
	go func() {
		done <- srv.ServeStream(ctx, jsonrpc2.NewConn(jsonrpc2.NewStream(serverSide)))
	}()
	require.Eventually(t, func() bool { return srv.Sessions() == 1 }, waitTimeout, 5*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("ServeStream did not return after cancel")
	}
	assert.Equal(t, 0, srv.Sessions())
}
