package mock

import (
	"context"
	"os"
	"strings"

	"github.com/conduit-lang/mockls/internal/future"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"
)

const (
	// codeLensSizeThreshold is the file size above which a default lens is shown.
	codeLensSizeThreshold = 100

	defaultCodeLensTitle = "Hi, I'm a CodeLens"
)

// CodeLens answers textDocument/codeLens. Without configured lenses, a backing
// file larger than 100 bytes gets a single lens on line 1; anything else gets
// an empty list.
func (s *DocumentService) CodeLens(_ context.Context, params *protocol.CodeLensParams) *future.Future[[]protocol.CodeLens] {
	if s.codeLenses != nil {
		return future.Completed(s.codeLenses)
	}
	if params == nil {
		return future.Completed([]protocol.CodeLens{})
	}

	path, ok := documentPath(params.TextDocument.URI)
	if !ok {
		return future.Completed([]protocol.CodeLens{})
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() <= codeLensSizeThreshold {
		return future.Completed([]protocol.CodeLens{})
	}

	s.logger.Debug("synthesizing default code lens", zap.String("path", path), zap.Int64("size", info.Size()))

	return future.Completed([]protocol.CodeLens{{
		Range: protocol.Range{
			Start: protocol.Position{Line: 1, Character: 0},
			End:   protocol.Position{Line: 1, Character: 1},
		},
		Command: &protocol.Command{Title: defaultCodeLensTitle},
	}})
}

// documentPath resolves a file:// document URI to a local path.
func documentPath(docURI protocol.DocumentURI) (string, bool) {
	if !strings.HasPrefix(string(docURI), uri.FileScheme+"://") {
		return "", false
	}
	parsed, err := uri.Parse(string(docURI))
	if err != nil {
		return "", false
	}
	return parsed.Filename(), true
}
