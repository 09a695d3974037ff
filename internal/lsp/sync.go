package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) textDocumentDidOpen(glspCtx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	path := uriToPath(params.TextDocument.URI)
	s.logger.Debugf("didOpen %s", path)
	s.ws.OpenDocument(path, params.TextDocument.Text, params.TextDocument.Version, s.publisher(glspCtx))
	return nil
}

func (s *Server) textDocumentDidChange(glspCtx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path := uriToPath(params.TextDocument.URI)

	// Sync is advertised as full: every change carries the whole new text,
	// and with several events the last one wins.
	text, ok := "", false
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text, ok = c.Text, true
		case protocol.TextDocumentContentChangeEvent:
			text, ok = c.Text, true
		}
	}
	if !ok {
		return nil
	}
	s.ws.ChangeDocument(path, text, params.TextDocument.Version, s.publisher(glspCtx))
	return nil
}

func (s *Server) textDocumentDidClose(glspCtx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path := uriToPath(params.TextDocument.URI)
	s.logger.Debugf("didClose %s", path)
	s.ws.CloseDocument(path, s.publisher(glspCtx))
	return nil
}
