// Package symbols turns one file's syntax tree into a scoped symbol table.
// Indexing is best-effort: a tree produced from broken input still yields the
// symbols of its intact declarations.
package symbols

import (
	"fmt"

	"jasminls/internal/parser"
)

// Kind classifies an indexed symbol.
type Kind int

const (
	KindFunction Kind = iota
	KindParameter
	KindLocal
	KindGlobal
	KindConstant
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindParameter:
		return "parameter"
	case KindLocal:
		return "local"
	case KindGlobal:
		return "global"
	case KindConstant:
		return "constant"
	}
	return "unknown"
}

// Symbol is one declared name. DeclRange covers exactly the symbol's own
// identifier token, even when several identifiers share a declaration
// statement; FullRange covers the whole declaration.
type Symbol struct {
	Name      string
	Kind      Kind
	Type      parser.Type
	File      string
	DeclRange parser.Range
	FullRange parser.Range
	Scope     *FuncScope // nil for file-scope symbols
	Doc       string
	Signature string      // functions only
	Value     parser.Expr // constants only

	// fold memo, managed by Fold
	folded   int64
	foldErr  error
	foldDone bool
}

// SameAs reports symbol identity: the declaring file plus the exact
// declaration token span. Name equality alone is never sufficient.
func (s *Symbol) SameAs(o *Symbol) bool {
	return s == o || (s != nil && o != nil && s.File == o.File && s.DeclRange == o.DeclRange)
}

// FuncScope is the nested scope of one function: its parameters and locals.
// It is visible only for positions lexically inside Span and never merges
// with another function's scope.
type FuncScope struct {
	Func    *Symbol
	Span    parser.Range
	Symbols []*Symbol
}

// Lookup finds a parameter or local by name within this scope only.
func (fs *FuncScope) Lookup(name string) *Symbol {
	for _, s := range fs.Symbols {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Table is the complete symbol index of one file.
type Table struct {
	File      string
	FileScope []*Symbol // functions, constants, globals
	Funcs     []*FuncScope
}

// IndexError is a non-fatal problem discovered while indexing.
type IndexError struct {
	Msg   string
	Range parser.Range
}

// Index walks a parse result into a symbol table. It never fails: trees with
// recovered errors simply contribute fewer symbols. Redeclarations within one
// scope are reported as IndexErrors; the first declaration stays in the table
// so resolution keeps working.
func Index(file string, res *parser.Result) (*Table, []IndexError) {
	t := &Table{File: file}
	var errs []IndexError
	if res == nil || res.File == nil {
		return t, errs
	}
	dup := func(scope map[string]bool, name string, rng parser.Range) bool {
		if scope[name] {
			errs = append(errs, IndexError{
				Msg:   fmt.Sprintf("%s redeclared in this scope", name),
				Range: rng,
			})
			return true
		}
		scope[name] = true
		return false
	}
	fileSeen := map[string]bool{}

	for _, p := range res.File.Params {
		if dup(fileSeen, p.Name.Name, p.Name.Range) {
			continue
		}
		t.FileScope = append(t.FileScope, &Symbol{
			Name:      p.Name.Name,
			Kind:      KindConstant,
			Type:      p.Type,
			File:      file,
			DeclRange: p.Name.Range,
			FullRange: p.Range,
			Doc:       p.Doc,
			Value:     p.Value,
		})
	}

	for _, g := range res.File.Globals {
		if dup(fileSeen, g.Name.Name, g.Name.Range) {
			continue
		}
		t.FileScope = append(t.FileScope, &Symbol{
			Name:      g.Name.Name,
			Kind:      KindGlobal,
			Type:      g.Type,
			File:      file,
			DeclRange: g.Name.Range,
			FullRange: g.Range,
			Doc:       g.Doc,
		})
	}

	for _, fn := range res.File.Funcs {
		if dup(fileSeen, fn.Name.Name, fn.Name.Range) {
			continue
		}
		fnSym := &Symbol{
			Name:      fn.Name.Name,
			Kind:      KindFunction,
			File:      file,
			DeclRange: fn.Name.Range,
			FullRange: fn.Range,
			Doc:       fn.Doc,
			Signature: fn.Signature(),
		}
		t.FileScope = append(t.FileScope, fnSym)

		scope := &FuncScope{Func: fnSym, Span: fn.Range}
		funcSeen := map[string]bool{}
		for _, group := range fn.Params {
			for _, name := range group.Names {
				if dup(funcSeen, name.Name, name.Range) {
					continue
				}
				scope.Symbols = append(scope.Symbols, &Symbol{
					Name:      name.Name,
					Kind:      KindParameter,
					Type:      group.Type,
					File:      file,
					DeclRange: name.Range,
					FullRange: name.Range,
					Scope:     scope,
				})
			}
		}
		for _, local := range fn.Locals {
			for _, name := range local.Names {
				if dup(funcSeen, name.Name, name.Range) {
					continue
				}
				scope.Symbols = append(scope.Symbols, &Symbol{
					Name:      name.Name,
					Kind:      KindLocal,
					Type:      local.Type,
					File:      file,
					DeclRange: name.Range,
					FullRange: local.Range,
					Scope:     scope,
				})
			}
		}
		t.Funcs = append(t.Funcs, scope)
	}

	return t, errs
}

// LookupFile finds a file-scope symbol by name.
func (t *Table) LookupFile(name string) *Symbol {
	for _, s := range t.FileScope {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// ScopeAt returns the function scope containing pos, if any. Function spans
// never overlap, so at most one scope matches.
func (t *Table) ScopeAt(pos parser.Pos) *FuncScope {
	for _, fs := range t.Funcs {
		if fs.Span.ContainsInclusive(pos) {
			return fs
		}
	}
	return nil
}

// SymbolAtDecl returns the symbol whose declaration token contains pos,
// searching function scopes before file scope.
func (t *Table) SymbolAtDecl(pos parser.Pos) *Symbol {
	if fs := t.ScopeAt(pos); fs != nil {
		for _, s := range fs.Symbols {
			if s.DeclRange.ContainsInclusive(pos) {
				return s
			}
		}
	}
	for _, s := range t.FileScope {
		if s.DeclRange.ContainsInclusive(pos) {
			return s
		}
	}
	return nil
}

// All iterates every symbol in the table, file scope first.
func (t *Table) All(visit func(*Symbol)) {
	for _, s := range t.FileScope {
		visit(s)
	}
	for _, fs := range t.Funcs {
		for _, s := range fs.Symbols {
			visit(s)
		}
	}
}
