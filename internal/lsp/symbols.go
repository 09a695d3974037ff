package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) textDocumentDocumentSymbol(glspCtx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	path := uriToPath(params.TextDocument.URI)
	syms := s.ws.DocumentSymbols(path)
	out := make([]protocol.DocumentSymbol, 0, len(syms))
	for _, ds := range syms {
		out = append(out, toProtocolDocSymbol(ds))
	}
	return out, nil
}

func (s *Server) workspaceSymbol(glspCtx *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	matches := s.ws.WorkspaceSymbols(params.Query)
	out := make([]protocol.SymbolInformation, 0, len(matches))
	for _, m := range matches {
		out = append(out, protocol.SymbolInformation{
			Name: m.Name,
			Kind: toProtocolSymbolKind(m.Kind),
			Location: protocol.Location{
				URI:   pathToURI(m.File),
				Range: toProtocolRange(m.Range),
			},
		})
	}
	return out, nil
}
