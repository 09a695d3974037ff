package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) textDocumentHover(glspCtx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	path := uriToPath(params.TextDocument.URI)
	h, ok := s.ws.HoverAt(path, fromProtocolPos(params.Position))
	if !ok {
		return nil, nil
	}
	rng := toProtocolRange(h.Range)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: h.Markdown,
		},
		Range: &rng,
	}, nil
}

func (s *Server) textDocumentDefinition(glspCtx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	path := uriToPath(params.TextDocument.URI)
	loc, ok := s.ws.DefinitionAt(path, fromProtocolPos(params.Position))
	if !ok {
		return nil, nil
	}
	return toProtocolLocation(loc), nil
}

func (s *Server) textDocumentReferences(glspCtx *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	path := uriToPath(params.TextDocument.URI)
	refs := s.ws.ReferencesAt(path, fromProtocolPos(params.Position))
	out := make([]protocol.Location, 0, len(refs))
	for _, ref := range refs {
		out = append(out, toProtocolLocation(ref))
	}
	return out, nil
}

func (s *Server) textDocumentRename(glspCtx *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	path := uriToPath(params.TextDocument.URI)
	edits := s.ws.RenameAt(path, fromProtocolPos(params.Position), params.NewName)

	changes := make(map[protocol.DocumentUri][]protocol.TextEdit, len(edits))
	for file, list := range edits {
		converted := make([]protocol.TextEdit, 0, len(list))
		for _, e := range list {
			converted = append(converted, protocol.TextEdit{
				Range:   toProtocolRange(e.Range),
				NewText: e.NewText,
			})
		}
		changes[pathToURI(file)] = converted
	}
	return &protocol.WorkspaceEdit{Changes: changes}, nil
}
