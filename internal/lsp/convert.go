package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"jasminls/internal/parser"
	"jasminls/internal/symbols"
	"jasminls/internal/workspace"
)

func toProtocolPos(p parser.Pos) protocol.Position {
	return protocol.Position{Line: p.Line, Character: p.Col}
}

func fromProtocolPos(p protocol.Position) parser.Pos {
	return parser.Pos{Line: p.Line, Col: p.Character}
}

func toProtocolRange(r parser.Range) protocol.Range {
	return protocol.Range{Start: toProtocolPos(r.Start), End: toProtocolPos(r.End)}
}

func toProtocolLocation(loc workspace.Location) protocol.Location {
	return protocol.Location{URI: pathToURI(loc.File), Range: toProtocolRange(loc.Range)}
}

func toProtocolDiagnostics(diags []workspace.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		sev := protocol.DiagnosticSeverityError
		if d.Severity == workspace.SeverityWarning {
			sev = protocol.DiagnosticSeverityWarning
		}
		src := d.Source
		out = append(out, protocol.Diagnostic{
			Range:    toProtocolRange(d.Range),
			Severity: &sev,
			Source:   &src,
			Message:  d.Message,
		})
	}
	return out
}

func toProtocolSymbolKind(k symbols.Kind) protocol.SymbolKind {
	switch k {
	case symbols.KindFunction:
		return protocol.SymbolKindFunction
	case symbols.KindConstant:
		return protocol.SymbolKindConstant
	default:
		return protocol.SymbolKindVariable
	}
}

func toProtocolDocSymbol(ds workspace.DocSymbol) protocol.DocumentSymbol {
	out := protocol.DocumentSymbol{
		Name:           ds.Name,
		Kind:           toProtocolSymbolKind(ds.Kind),
		Range:          toProtocolRange(ds.Range),
		SelectionRange: toProtocolRange(ds.SelectionRange),
	}
	if ds.Detail != "" {
		detail := ds.Detail
		out.Detail = &detail
	}
	for _, child := range ds.Children {
		out.Children = append(out.Children, toProtocolDocSymbol(child))
	}
	return out
}
