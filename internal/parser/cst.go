package parser

import "strings"

// File is the concrete syntax tree of one Jasmin source file. Declarations
// that could not be parsed completely are still present when enough of their
// shape was recovered; the rest is recorded in Result.Errors.
type File struct {
	Requires []*RequireDecl
	Params   []*ParamDecl
	Globals  []*GlobalDecl
	Funcs    []*FuncDecl
}

// Ident is an identifier occurrence with its exact token span.
type Ident struct {
	Name  string
	Range Range
}

// StringLit is a quoted path literal. Range covers the quotes, Value does not.
type StringLit struct {
	Value string
	Range Range
}

// RequireDecl is `require "a.jinc" "b.jinc"` or `from NS require "x.jinc"`.
type RequireDecl struct {
	Namespace      string // empty for plain requires
	NamespaceRange Range
	Paths          []StringLit
	Range          Range
}

// Type is the structured type of a declaration: storage class, base type,
// optional pointer marker and optional array dimensions (kept as raw text,
// e.g. "12" or "N_COLUMN*4").
type Type struct {
	Storage string
	Ptr     bool
	Base    string
	Dims    string
	IsArray bool
}

// String renders the type the way it is written in source, e.g. "reg ptr u32[12]".
func (t Type) String() string {
	var b strings.Builder
	if t.Storage != "" {
		b.WriteString(t.Storage)
		b.WriteByte(' ')
	}
	if t.Ptr {
		b.WriteString("ptr ")
	}
	b.WriteString(t.Base)
	if t.IsArray {
		b.WriteByte('[')
		b.WriteString(t.Dims)
		b.WriteByte(']')
	}
	return b.String()
}

// ParamDecl is a top-level constant: `param int NAME = expr;`.
type ParamDecl struct {
	Type  Type
	Name  Ident
	Value Expr
	Doc   string
	Range Range
}

// GlobalDecl is a top-level global: `u64[4] tab = {...};` or `u64 g = 1;`.
type GlobalDecl struct {
	Type  Type
	Name  Ident
	Doc   string
	Range Range
}

// ParamGroup is one typed group in a function signature. Several names may
// share the type: `reg u32 a b`.
type ParamGroup struct {
	Type  Type
	Names []Ident
}

// VarDecl is a body-local declaration. Several names may share the type,
// comma-separated: `reg u16 i, j, k;`.
type VarDecl struct {
	Type  Type
	Names []Ident
	Range Range
}

// FuncDecl is a function with its signature and the local declarations found
// in its body. Body statements other than declarations are not materialized;
// identifier references inside them are recovered from the token stream.
type FuncDecl struct {
	Export  bool
	Inline  bool
	Name    Ident
	Params  []ParamGroup
	Returns []Type
	Locals  []*VarDecl
	Doc     string
	Range   Range // whole declaration including body
}

// Signature renders the parameter list and return types, e.g.
// "(reg u64 x) -> reg u64".
func (f *FuncDecl) Signature() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, g := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(g.Type.String())
		for _, n := range g.Names {
			b.WriteByte(' ')
			b.WriteString(n.Name)
		}
	}
	b.WriteByte(')')
	if len(f.Returns) > 0 {
		b.WriteString(" -> ")
		for i, r := range f.Returns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(r.String())
		}
	}
	return b.String()
}

// Expr is a constant expression usable in `param` initializers and array dims.
type Expr interface {
	Span() Range
	// Text renders the expression as written, without surrounding whitespace.
	Text() string
}

// IntLit is an integer literal, decimal or 0x hex.
type IntLit struct {
	Value int64
	Raw   string
	Range Range
}

// RefExpr is a reference to another constant by name.
type RefExpr struct {
	Name  string
	Range Range
}

// UnaryExpr is currently only negation.
type UnaryExpr struct {
	Op    string
	X     Expr
	Range Range
}

// BinExpr is a binary operation over two constant subexpressions.
type BinExpr struct {
	Op    string
	X, Y  Expr
	Range Range
}

func (e *IntLit) Span() Range    { return e.Range }
func (e *RefExpr) Span() Range   { return e.Range }
func (e *UnaryExpr) Span() Range { return e.Range }
func (e *BinExpr) Span() Range   { return e.Range }

func (e *IntLit) Text() string  { return e.Raw }
func (e *RefExpr) Text() string { return e.Name }
func (e *UnaryExpr) Text() string {
	return e.Op + e.X.Text()
}
func (e *BinExpr) Text() string {
	return e.X.Text() + " " + e.Op + " " + e.Y.Text()
}
