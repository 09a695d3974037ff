package workspace

import (
	"sort"

	"jasminls/internal/parser"
	"jasminls/internal/symbols"
)

// Location is a file position pair, protocol-independent.
type Location struct {
	File  string
	Range parser.Range
}

// TextEdit is one replacement within a file.
type TextEdit struct {
	Range   parser.Range
	NewText string
}

// closureResolver implements symbols.ConstResolver over the dependency
// closure of the table's file: own file scope first, then the file scope of
// every file the closure reaches. Callers hold w.mu.
type closureResolver struct {
	ws *Workspace
}

func (r *closureResolver) ResolveConstant(name string, from *symbols.Table) *symbols.Symbol {
	if from == nil {
		return nil
	}
	if s := from.LookupFile(name); s != nil && s.Kind == symbols.KindConstant {
		return s
	}
	for _, path := range r.ws.graph.Closure(from.File) {
		if path == from.File {
			continue
		}
		doc := r.ws.docs[path]
		if doc == nil || doc.Table == nil {
			continue
		}
		if s := doc.Table.LookupFile(name); s != nil && s.Kind == symbols.KindConstant {
			return s
		}
	}
	return nil
}

// tokenAt finds the token at pos. A token whose half-open range contains pos
// always wins over one matched only through its inclusive end, so a position
// on the first character of an identifier packed against punctuation (the a
// in "b=a") picks the identifier, while a caret sitting just past the last
// character of a token still matches that token.
func tokenAt(res *parser.Result, pos parser.Pos) (parser.Token, bool) {
	if res == nil {
		return parser.Token{}, false
	}
	var atEnd parser.Token
	found := false
	for _, t := range res.Tokens {
		if t.Kind == parser.TokenEOF {
			break
		}
		if t.Range.Contains(pos) {
			return t, true
		}
		if !found && t.Range.ContainsInclusive(pos) {
			atEnd = t
			found = true
		}
	}
	return atEnd, found
}

// resolveName applies the scope search order for a name referenced at pos in
// doc: the innermost function scope when pos lies within a function span,
// then the file's own file scope, then the file scope (only) of every file
// in the dependency closure. Callers hold w.mu.
func (w *Workspace) resolveName(doc *Document, name string, pos parser.Pos) *symbols.Symbol {
	if doc.Table == nil {
		return nil
	}
	if fs := doc.Table.ScopeAt(pos); fs != nil {
		if s := fs.Lookup(name); s != nil {
			return s
		}
	}
	if s := doc.Table.LookupFile(name); s != nil {
		return s
	}
	for _, path := range w.graph.Closure(doc.Path) {
		if path == doc.Path {
			continue
		}
		other := w.docs[path]
		if other == nil || other.Table == nil {
			continue
		}
		// File scope only: another file's function-local scopes are never
		// visible, whatever the names.
		if s := other.Table.LookupFile(name); s != nil {
			return s
		}
	}
	return nil
}

// ResolveAt resolves the identifier at pos to its defining symbol. Returns
// nil for keywords, literals, unknown names and out-of-range positions.
func (w *Workspace) ResolveAt(path string, pos parser.Pos) *symbols.Symbol {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc := w.loadDocument(path)
	if doc == nil {
		return nil
	}
	return w.resolveAt(doc, pos)
}

func (w *Workspace) resolveAt(doc *Document, pos parser.Pos) *symbols.Symbol {
	tok, ok := tokenAt(doc.Res, pos)
	if !ok || tok.Kind != parser.TokenIdent {
		return nil
	}
	return w.resolveName(doc, tok.Text, pos)
}

// DefinitionAt resolves go-to-definition: a require path jumps to the
// required file, an identifier jumps to its declaration token.
func (w *Workspace) DefinitionAt(path string, pos parser.Pos) (Location, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc := w.loadDocument(path)
	if doc == nil {
		return Location{}, false
	}
	for _, rr := range doc.Resolved {
		if rr.OK && rr.Stmt.Range.ContainsInclusive(pos) {
			return Location{File: rr.Target}, true
		}
	}
	sym := w.resolveAt(doc, pos)
	if sym == nil {
		return Location{}, false
	}
	return Location{File: sym.File, Range: sym.DeclRange}, true
}

// ReferencesAt finds every occurrence of the symbol at pos. Each candidate
// token is re-validated by resolving at its own position and comparing
// symbol identity, so same-named locals in unrelated functions are excluded.
func (w *Workspace) ReferencesAt(path string, pos parser.Pos) []Location {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc := w.loadDocument(path)
	if doc == nil {
		return nil
	}
	target := w.resolveAt(doc, pos)
	if target == nil {
		return nil
	}
	return w.references(target)
}

func (w *Workspace) references(target *symbols.Symbol) []Location {
	var out []Location
	for _, doc := range w.sortedDocs() {
		if doc.Res == nil {
			continue
		}
		// Only the defining file and files whose closure reaches it can see
		// the symbol at all.
		if doc.Path != target.File && !w.graph.DependsOn(doc.Path, target.File) {
			continue
		}
		for _, tok := range doc.Res.Tokens {
			if tok.Kind != parser.TokenIdent || tok.Text != target.Name {
				continue
			}
			resolved := w.resolveName(doc, tok.Text, tok.Range.Start)
			if resolved == nil || !resolved.SameAs(target) {
				continue
			}
			out = append(out, Location{File: doc.Path, Range: tok.Range})
		}
	}
	return out
}

// RenameAt computes the workspace edit renaming the symbol at pos. A
// non-symbol token yields an empty edit set, never an error.
func (w *Workspace) RenameAt(path string, pos parser.Pos, newName string) map[string][]TextEdit {
	w.mu.Lock()
	defer w.mu.Unlock()
	edits := map[string][]TextEdit{}
	doc := w.loadDocument(path)
	if doc == nil {
		return edits
	}
	target := w.resolveAt(doc, pos)
	if target == nil {
		return edits
	}
	for _, loc := range w.references(target) {
		edits[loc.File] = append(edits[loc.File], TextEdit{Range: loc.Range, NewText: newName})
	}
	// Collapse duplicates so every file's edits are non-overlapping.
	for file, list := range edits {
		sort.Slice(list, func(i, j int) bool {
			return list[i].Range.Start.Before(list[j].Range.Start)
		})
		deduped := list[:0]
		for i, e := range list {
			if i > 0 && e.Range == list[i-1].Range {
				continue
			}
			deduped = append(deduped, e)
		}
		edits[file] = deduped
	}
	return edits
}
