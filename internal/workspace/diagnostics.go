package workspace

import (
	"errors"
	"fmt"

	"jasminls/internal/parser"
	"jasminls/internal/symbols"
)

// Severity mirrors the LSP diagnostic severity scale.
type Severity int

const (
	SeverityError   Severity = 1
	SeverityWarning Severity = 2
)

// Diagnostic is one problem in one file, protocol-independent.
type Diagnostic struct {
	Range    parser.Range
	Severity Severity
	Source   string
	Message  string
}

// computeDiagnostics merges parse errors, require resolution errors and
// constant folding problems for one document. It never fails: pathological
// input produces diagnostics, not errors.
func (w *Workspace) computeDiagnostics(doc *Document) []Diagnostic {
	diags := []Diagnostic{}
	if doc.Res == nil {
		return diags
	}

	for _, e := range doc.Res.Errors {
		diags = append(diags, Diagnostic{
			Range:    e.Range,
			Severity: SeverityError,
			Source:   "syntax",
			Message:  e.Msg,
		})
	}

	for _, e := range doc.IndexErrs {
		diags = append(diags, Diagnostic{
			Range:    e.Range,
			Severity: SeverityWarning,
			Source:   "symbols",
			Message:  e.Msg,
		})
	}

	for _, rr := range doc.Resolved {
		if rr.OK {
			continue
		}
		msg := fmt.Sprintf("cannot resolve require %q", rr.Stmt.Path)
		if rr.Stmt.Namespace != "" {
			msg = fmt.Sprintf("cannot resolve require %q in namespace %s", rr.Stmt.Path, rr.Stmt.Namespace)
		}
		diags = append(diags, Diagnostic{
			Range:    rr.Stmt.Range,
			Severity: SeverityError,
			Source:   "require",
			Message:  msg,
		})
	}

	if doc.Table != nil {
		res := &closureResolver{ws: w}
		for _, sym := range doc.Table.FileScope {
			if sym.Kind != symbols.KindConstant || sym.Value == nil {
				continue
			}
			if _, err := symbols.Fold(sym, res, doc.Table); err != nil {
				sev := SeverityWarning
				if errors.Is(err, symbols.ErrCyclicConstant) {
					sev = SeverityError
				}
				diags = append(diags, Diagnostic{
					Range:    sym.DeclRange,
					Severity: sev,
					Source:   "const",
					Message:  fmt.Sprintf("cannot evaluate constant %s: %v", sym.Name, err),
				})
			}
		}
	}

	return diags
}

// publishDoc computes and pushes diagnostics for a document, recording that
// the file now has published state. Callers hold w.mu.
func (w *Workspace) publishDoc(doc *Document, publish PublishFunc) {
	gen := doc.generation
	diags := w.computeDiagnostics(doc)
	if doc.generation != gen {
		return // a newer reparse superseded this computation
	}
	if publish != nil {
		publish(doc.Path, diags)
	}
	w.published[doc.Path] = true
}

// Diagnostics computes the current diagnostics of a file on demand, loading
// it from disk when unknown. Used by queries and the one-shot CLI check.
func (w *Workspace) Diagnostics(path string) []Diagnostic {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc := w.loadDocument(path)
	if doc == nil {
		return nil
	}
	return w.computeDiagnostics(doc)
}
