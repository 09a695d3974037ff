package workspace

import (
	"fmt"
	"strconv"
	"strings"

	"jasminls/internal/parser"
	"jasminls/internal/symbols"
)

// Hover is rendered markdown plus the range it applies to.
type Hover struct {
	Markdown string
	Range    parser.Range
}

// HoverAt renders hover content for the token at pos: type signatures for
// variables and functions, declared expression plus folded value for
// constants, and the resolved target for require paths. Keywords and unknown
// names yield no hover.
func (w *Workspace) HoverAt(path string, pos parser.Pos) (Hover, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc := w.loadDocument(path)
	if doc == nil {
		return Hover{}, false
	}

	for _, rr := range doc.Resolved {
		if rr.Stmt.Range.ContainsInclusive(pos) {
			text := fmt.Sprintf("Resolves to `%s`", rr.Target)
			if !rr.OK {
				text = fmt.Sprintf("Unresolved require `%s`", rr.Stmt.Path)
			}
			return Hover{Markdown: text, Range: rr.Stmt.Range}, true
		}
	}

	tok, ok := tokenAt(doc.Res, pos)
	if !ok || tok.Kind != parser.TokenIdent {
		return Hover{}, false
	}
	sym := w.resolveName(doc, tok.Text, pos)
	if sym == nil {
		return Hover{}, false
	}
	return Hover{Markdown: w.symbolHover(sym), Range: tok.Range}, true
}

// symbolHover renders the fenced signature block and documentation for one
// symbol. Callers hold w.mu.
func (w *Workspace) symbolHover(sym *symbols.Symbol) string {
	var sig string
	switch sym.Kind {
	case symbols.KindFunction:
		sig = "fn " + sym.Name + sym.Signature
	case symbols.KindConstant:
		sig = w.constantHoverText(sym)
	case symbols.KindGlobal:
		typ := sym.Type
		typ.Storage = "" // the storage word adds nothing for globals
		sig = sym.Name + ": " + typ.String()
	default:
		sig = sym.Name + ": " + sym.Type.String()
	}

	var b strings.Builder
	b.WriteString("```jasmin\n")
	b.WriteString(sig)
	b.WriteString("\n```")
	if sym.Doc != "" {
		b.WriteString("\n\n")
		b.WriteString(sym.Doc)
	}
	return b.String()
}

// constantHoverText shows the declared expression and, when it differs in
// literal form, the folded value on a second line.
func (w *Workspace) constantHoverText(sym *symbols.Symbol) string {
	decl := sym.Type.String() + " " + sym.Name
	if sym.Value == nil {
		return decl
	}
	exprText := sym.Value.Text()
	decl += " = " + exprText

	v, err := symbols.Fold(sym, &closureResolver{ws: w}, w.tableFor(sym))
	if err != nil {
		return decl
	}
	folded := strconv.FormatInt(v, 10)
	if folded == exprText {
		return decl
	}
	return decl + "\n" + sym.Name + " = " + folded
}

func (w *Workspace) tableFor(sym *symbols.Symbol) *symbols.Table {
	if doc := w.docs[sym.File]; doc != nil {
		return doc.Table
	}
	return nil
}

// DocSymbol is one entry of a hierarchical document outline.
type DocSymbol struct {
	Name           string
	Detail         string
	Kind           symbols.Kind
	Range          parser.Range
	SelectionRange parser.Range
	Children       []DocSymbol
}

// DocumentSymbols returns the hierarchical outline of one file: file-scope
// symbols with parameters and locals nested under their function.
func (w *Workspace) DocumentSymbols(path string) []DocSymbol {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc := w.loadDocument(path)
	if doc == nil || doc.Table == nil {
		return nil
	}

	scopeByFunc := make(map[*symbols.Symbol]*symbols.FuncScope, len(doc.Table.Funcs))
	for _, fs := range doc.Table.Funcs {
		scopeByFunc[fs.Func] = fs
	}

	out := make([]DocSymbol, 0, len(doc.Table.FileScope))
	for _, sym := range doc.Table.FileScope {
		ds := DocSymbol{
			Name:           sym.Name,
			Kind:           sym.Kind,
			Range:          sym.FullRange,
			SelectionRange: sym.DeclRange,
		}
		switch sym.Kind {
		case symbols.KindFunction:
			ds.Detail = sym.Signature
			if fs := scopeByFunc[sym]; fs != nil {
				for _, child := range fs.Symbols {
					ds.Children = append(ds.Children, DocSymbol{
						Name:           child.Name,
						Detail:         child.Type.String(),
						Kind:           child.Kind,
						Range:          child.FullRange,
						SelectionRange: child.DeclRange,
					})
				}
			}
		default:
			ds.Detail = sym.Type.String()
		}
		out = append(out, ds)
	}
	return out
}

// SymbolMatch is one workspace symbol search hit.
type SymbolMatch struct {
	Name  string
	Kind  symbols.Kind
	File  string
	Range parser.Range
}

// WorkspaceSymbols searches every indexed file for file-scope symbols whose
// name contains the query, case-insensitively. An empty query matches all.
func (w *Workspace) WorkspaceSymbols(query string) []SymbolMatch {
	w.mu.Lock()
	defer w.mu.Unlock()

	needle := strings.ToLower(query)
	var out []SymbolMatch
	for _, doc := range w.sortedDocs() {
		if doc.Table == nil {
			continue
		}
		for _, sym := range doc.Table.FileScope {
			if needle != "" && !strings.Contains(strings.ToLower(sym.Name), needle) {
				continue
			}
			out = append(out, SymbolMatch{
				Name:  sym.Name,
				Kind:  sym.Kind,
				File:  doc.Path,
				Range: sym.DeclRange,
			})
		}
	}
	return out
}
