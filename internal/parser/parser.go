package parser

import (
	"strconv"
	"strings"
)

// SyntaxError is a recoverable parse failure tied to a source span.
type SyntaxError struct {
	Msg   string
	Range Range
}

// Result is one full parse of a document. The token stream is retained so
// reference queries can scan identifier occurrences without re-lexing.
type Result struct {
	File     *File
	Tokens   []Token
	Comments []Token
	Errors   []SyntaxError
}

// Parse performs a full parse of text. There is deliberately no incremental
// mode: reusing a previous tree was found to suppress error recovery for
// freshly introduced syntax errors, so every call starts from scratch.
// Parse never fails; malformed input yields a partial File plus Errors.
func Parse(text string) *Result {
	tokens, comments := newLexer(text).scan()
	p := &parser{toks: tokens, comments: comments}
	file := p.parseFile()
	return &Result{
		File:     file,
		Tokens:   tokens,
		Comments: comments,
		Errors:   p.errors,
	}
}

type parser struct {
	toks     []Token
	comments []Token
	i        int
	errors   []SyntaxError
}

func (p *parser) peek() Token { return p.toks[p.i] }

func (p *parser) atEnd() bool { return p.peek().Kind == TokenEOF }

func (p *parser) next() Token {
	t := p.toks[p.i]
	if t.Kind != TokenEOF {
		p.i++
	}
	return t
}

func (p *parser) errorAt(rng Range, msg string) {
	p.errors = append(p.errors, SyntaxError{Msg: msg, Range: rng})
}

// expectPunct consumes the given punctuation or records an error in place.
func (p *parser) expectPunct(text string) (Token, bool) {
	if p.peek().isPunct(text) {
		return p.next(), true
	}
	p.errorAt(p.peek().Range, "expected '"+text+"'")
	return p.peek(), false
}

func (p *parser) parseFile() *File {
	file := &File{}
	for !p.atEnd() {
		before := p.i
		t := p.peek()
		switch {
		case t.isKeyword("require"):
			file.Requires = append(file.Requires, p.parseRequire(Token{}, t))
		case t.isKeyword("from"):
			file.Requires = append(file.Requires, p.parseFrom())
		case t.isKeyword("param"):
			if d := p.parseParamDecl(); d != nil {
				file.Params = append(file.Params, d)
			}
		case t.isKeyword("fn") || t.isKeyword("export") || t.isKeyword("inline") || t.isKeyword("exec"):
			if f := p.parseFunc(); f != nil {
				file.Funcs = append(file.Funcs, f)
			}
		case t.Kind == TokenKeyword && baseTypes[t.Text]:
			if g := p.parseGlobal(); g != nil {
				file.Globals = append(file.Globals, g)
			}
		default:
			p.errorAt(t.Range, "unexpected token '"+t.Text+"' at top level")
			p.next()
			p.syncTop()
		}
		if p.i == before { // recovery must always make progress
			p.next()
		}
	}
	return file
}

// syncTop skips tokens until something that can start a top-level declaration.
func (p *parser) syncTop() {
	for !p.atEnd() {
		t := p.peek()
		if t.isPunct(";") || t.isPunct("}") {
			p.next()
			return
		}
		if t.isKeyword("fn") || t.isKeyword("param") || t.isKeyword("require") ||
			t.isKeyword("from") || t.isKeyword("export") || t.isKeyword("inline") {
			return
		}
		p.next()
	}
}

func (p *parser) parseRequire(nsTok Token, reqTok Token) *RequireDecl {
	start := reqTok.Range.Start
	ns := ""
	nsRange := Range{}
	if nsTok.Kind == TokenIdent {
		ns = nsTok.Text
		nsRange = nsTok.Range
		start = nsTok.Range.Start
	}
	p.next() // 'require'
	decl := &RequireDecl{Namespace: ns, NamespaceRange: nsRange}
	end := reqTok.Range.End
	for p.peek().Kind == TokenString {
		t := p.next()
		decl.Paths = append(decl.Paths, StringLit{
			Value: strings.Trim(t.Text, `"`),
			Range: t.Range,
		})
		end = t.Range.End
	}
	if len(decl.Paths) == 0 {
		p.errorAt(reqTok.Range, "require directive without a path")
	}
	if p.peek().isPunct(";") {
		end = p.next().Range.End
	}
	decl.Range = Range{Start: start, End: end}
	return decl
}

func (p *parser) parseFrom() *RequireDecl {
	fromTok := p.next() // 'from'
	nsTok := p.peek()
	if nsTok.Kind != TokenIdent {
		p.errorAt(nsTok.Range, "expected namespace name after 'from'")
		return &RequireDecl{Range: fromTok.Range}
	}
	p.next()
	reqTok := p.peek()
	if !reqTok.isKeyword("require") {
		p.errorAt(reqTok.Range, "expected 'require' after namespace name")
		return &RequireDecl{
			Namespace:      nsTok.Text,
			NamespaceRange: nsTok.Range,
			Range:          Range{Start: fromTok.Range.Start, End: nsTok.Range.End},
		}
	}
	decl := p.parseRequire(nsTok, reqTok)
	decl.Range.Start = fromTok.Range.Start
	return decl
}

// parseType parses [storage] [ptr] base [ '[' dims ']' ]. ok is false when the
// cursor does not sit on a type at all.
func (p *parser) parseType() (Type, bool) {
	var t Type
	tok := p.peek()
	if tok.Kind == TokenKeyword && storageClasses[tok.Text] {
		t.Storage = tok.Text
		p.next()
		tok = p.peek()
	}
	if tok.isKeyword("ptr") {
		t.Ptr = true
		p.next()
		tok = p.peek()
	}
	if tok.Kind == TokenKeyword && baseTypes[tok.Text] {
		t.Base = tok.Text
		p.next()
	} else {
		if t.Storage == "" && !t.Ptr {
			return t, false
		}
		p.errorAt(tok.Range, "expected base type")
		return t, true
	}
	if p.peek().isPunct("[") {
		p.next()
		t.IsArray = true
		var dims []string
		depth := 1
		for !p.atEnd() && depth > 0 {
			in := p.peek()
			if in.isPunct("[") {
				depth++
			} else if in.isPunct("]") {
				depth--
				if depth == 0 {
					p.next()
					break
				}
			}
			dims = append(dims, in.Text)
			p.next()
		}
		if depth > 0 {
			p.errorAt(p.peek().Range, "unterminated array dimension")
		}
		t.Dims = strings.Join(dims, "")
	}
	return t, true
}

func (p *parser) parseParamDecl() *ParamDecl {
	paramTok := p.next() // 'param'
	typ, ok := p.parseType()
	if !ok {
		p.errorAt(p.peek().Range, "expected type after 'param'")
		p.syncTop()
		return nil
	}
	typ.Storage = "param"
	nameTok := p.peek()
	if nameTok.Kind != TokenIdent {
		p.errorAt(nameTok.Range, "expected constant name")
		p.syncTop()
		return nil
	}
	p.next()
	decl := &ParamDecl{
		Type: typ,
		Name: Ident{Name: nameTok.Text, Range: nameTok.Range},
		Doc:  p.docFor(paramTok.Range.Start),
	}
	if _, ok := p.expectPunct("="); ok {
		decl.Value = p.parseExpr(0)
	}
	end := nameTok.Range.End
	if decl.Value != nil {
		end = decl.Value.Span().End
	}
	if p.peek().isPunct(";") {
		end = p.next().Range.End
	} else {
		p.errorAt(p.peek().Range, "expected ';' after constant declaration")
	}
	decl.Range = Range{Start: paramTok.Range.Start, End: end}
	return decl
}

func (p *parser) parseGlobal() *GlobalDecl {
	startTok := p.peek()
	typ, ok := p.parseType()
	if !ok {
		p.next()
		return nil
	}
	typ.Storage = "global"
	nameTok := p.peek()
	if nameTok.Kind != TokenIdent {
		p.errorAt(nameTok.Range, "expected global name")
		p.syncTop()
		return nil
	}
	p.next()
	decl := &GlobalDecl{
		Type: typ,
		Name: Ident{Name: nameTok.Text, Range: nameTok.Range},
		Doc:  p.docFor(startTok.Range.Start),
	}
	// Skip the initializer, tracking braces for array literals.
	end := nameTok.Range.End
	depth := 0
	for !p.atEnd() {
		t := p.peek()
		if t.isPunct("{") {
			depth++
		} else if t.isPunct("}") {
			if depth == 0 {
				break
			}
			depth--
		} else if t.isPunct(";") && depth == 0 {
			end = p.next().Range.End
			break
		}
		end = p.next().Range.End
	}
	decl.Range = Range{Start: startTok.Range.Start, End: end}
	return decl
}

func (p *parser) parseFunc() *FuncDecl {
	start := p.peek().Range.Start
	fn := &FuncDecl{Doc: p.docFor(start)}
	for {
		t := p.peek()
		if t.isKeyword("export") || t.isKeyword("exec") {
			fn.Export = true
			p.next()
			continue
		}
		if t.isKeyword("inline") {
			fn.Inline = true
			p.next()
			continue
		}
		break
	}
	if !p.peek().isKeyword("fn") {
		p.errorAt(p.peek().Range, "expected 'fn'")
		p.syncTop()
		return nil
	}
	p.next()
	nameTok := p.peek()
	if nameTok.Kind != TokenIdent {
		p.errorAt(nameTok.Range, "expected function name")
		p.syncTop()
		return nil
	}
	p.next()
	fn.Name = Ident{Name: nameTok.Text, Range: nameTok.Range}

	if _, ok := p.expectPunct("("); ok {
		fn.Params = p.parseParamGroups()
	}

	if p.peek().isPunct("->") {
		p.next()
		fn.Returns = p.parseReturnTypes()
	}

	end := nameTok.Range.End
	if p.peek().isPunct("{") {
		end = p.parseBody(fn)
	} else {
		p.errorAt(p.peek().Range, "expected function body")
	}
	fn.Range = Range{Start: start, End: end}
	return fn
}

// parseParamGroups parses comma-separated typed groups up to ')'. Names inside
// a group are whitespace-separated and share the group type, but each keeps
// its own declaration range.
func (p *parser) parseParamGroups() []ParamGroup {
	var groups []ParamGroup
	for !p.atEnd() && !p.peek().isPunct(")") {
		typ, ok := p.parseType()
		if !ok {
			p.errorAt(p.peek().Range, "expected parameter type")
			p.skipWithin(",", ")")
			if p.peek().isPunct(",") {
				p.next()
			}
			continue
		}
		g := ParamGroup{Type: typ}
		for p.peek().Kind == TokenIdent {
			t := p.next()
			g.Names = append(g.Names, Ident{Name: t.Text, Range: t.Range})
		}
		if len(g.Names) == 0 {
			p.errorAt(p.peek().Range, "expected parameter name")
		}
		groups = append(groups, g)
		if p.peek().isPunct(",") {
			p.next()
		}
	}
	if p.peek().isPunct(")") {
		p.next()
	} else {
		p.errorAt(p.peek().Range, "unclosed parameter list")
	}
	return groups
}

func (p *parser) parseReturnTypes() []Type {
	var types []Type
	for {
		typ, ok := p.parseType()
		if !ok {
			p.errorAt(p.peek().Range, "expected return type")
			break
		}
		types = append(types, typ)
		if !p.peek().isPunct(",") {
			break
		}
		p.next()
	}
	return types
}

// skipWithin advances until one of the stop punctuations (not consumed) or EOF.
func (p *parser) skipWithin(stops ...string) {
	for !p.atEnd() {
		t := p.peek()
		for _, s := range stops {
			if t.isPunct(s) {
				return
			}
		}
		p.next()
	}
}

// parseBody consumes the brace-delimited body, collecting local declarations.
// Non-declaration statements are skipped token-wise; identifier references in
// them are recovered later from the token stream. Returns the end position.
func (p *parser) parseBody(fn *FuncDecl) Pos {
	open := p.next() // '{'
	depth := 1
	for !p.atEnd() {
		t := p.peek()
		if t.isPunct("{") {
			depth++
			p.next()
			continue
		}
		if t.isPunct("}") {
			depth--
			end := p.next().Range.End
			if depth == 0 {
				return end
			}
			continue
		}
		if t.Kind == TokenKeyword && (storageClasses[t.Text] || baseTypes[t.Text]) {
			if d := p.parseVarDecl(); d != nil {
				fn.Locals = append(fn.Locals, d)
			}
			continue
		}
		if t.isKeyword("fn") {
			// A nested function means the closing brace is missing; stop here
			// so the outer loop can recover the next declaration.
			p.errorAt(open.Range, "unclosed function body")
			return t.Range.Start
		}
		p.next()
	}
	p.errorAt(open.Range, "unclosed function body")
	return p.peek().Range.End
}

func (p *parser) parseVarDecl() *VarDecl {
	startTok := p.peek()
	typ, ok := p.parseType()
	if !ok || typ.Base == "" {
		// Something that merely started like a type; skip the statement.
		p.skipWithin(";", "}")
		if p.peek().isPunct(";") {
			p.next()
		}
		return nil
	}
	decl := &VarDecl{Type: typ}
	for p.peek().Kind == TokenIdent {
		t := p.next()
		decl.Names = append(decl.Names, Ident{Name: t.Text, Range: t.Range})
		if p.peek().isPunct(",") {
			p.next()
			continue
		}
		break
	}
	if len(decl.Names) == 0 {
		p.errorAt(p.peek().Range, "expected variable name")
		p.skipWithin(";", "}")
	}
	end := p.peek().Range.End
	if p.peek().isPunct(";") {
		end = p.next().Range.End
	} else {
		// Tolerate `reg u64 x = expr;` style initializers.
		p.skipWithin(";", "}")
		if p.peek().isPunct(";") {
			end = p.next().Range.End
		}
	}
	decl.Range = Range{Start: startTok.Range.Start, End: end}
	return decl
}

// constant expression parsing (precedence climbing)

func binaryPower(op string) int {
	switch op {
	case "<<", ">>":
		return 1
	case "+", "-":
		return 2
	case "*", "/", "%":
		return 3
	}
	return 0
}

func (p *parser) parseExpr(minPower int) Expr {
	left := p.parsePrimary()
	if left == nil {
		return nil
	}
	for {
		t := p.peek()
		if t.Kind != TokenPunct {
			return left
		}
		power := binaryPower(t.Text)
		if power == 0 || power <= minPower {
			return left
		}
		p.next()
		right := p.parseExpr(power)
		if right == nil {
			p.errorAt(t.Range, "expected expression after '"+t.Text+"'")
			return left
		}
		left = &BinExpr{
			Op:    t.Text,
			X:     left,
			Y:     right,
			Range: Range{Start: left.Span().Start, End: right.Span().End},
		}
	}
}

func (p *parser) parsePrimary() Expr {
	t := p.peek()
	switch {
	case t.Kind == TokenInt:
		p.next()
		v, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimPrefix(t.Text, "0x"), "0X"), intBase(t.Text), 64)
		if err != nil {
			p.errorAt(t.Range, "invalid integer literal")
			return nil
		}
		return &IntLit{Value: v, Raw: t.Text, Range: t.Range}
	case t.Kind == TokenIdent:
		p.next()
		return &RefExpr{Name: t.Text, Range: t.Range}
	case t.isPunct("-"):
		p.next()
		x := p.parsePrimary()
		if x == nil {
			p.errorAt(t.Range, "expected expression after '-'")
			return nil
		}
		return &UnaryExpr{Op: "-", X: x, Range: Range{Start: t.Range.Start, End: x.Span().End}}
	case t.isPunct("("):
		p.next()
		inner := p.parseExpr(0)
		p.expectPunct(")")
		return inner
	}
	p.errorAt(t.Range, "expected constant expression")
	return nil
}

func intBase(raw string) int {
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		return 16
	}
	return 10
}

// docFor returns documentation text for a declaration starting at pos: the
// contiguous comment block whose last line sits directly above the
// declaration. A blank line breaks the association, and a trailing comment
// sharing its line with code belongs to that code, so a comment that merely
// happens to be nearby never attaches.
func (p *parser) docFor(pos Pos) string {
	if pos.Line == 0 {
		return ""
	}
	var parts []string
	wantLine := pos.Line - 1
	for i := len(p.comments) - 1; i >= 0; i-- {
		c := p.comments[i]
		if c.Range.Start.Line > wantLine {
			continue // comment at or after the declaration
		}
		if c.Range.End.Line != wantLine {
			break // blank line or code between comment and declaration
		}
		if !p.ownsLine(c) {
			break // trailing comment after a statement
		}
		parts = append([]string{cleanComment(c.Text)}, parts...)
		if c.Range.Start.Line == 0 {
			break
		}
		wantLine = c.Range.Start.Line - 1
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// ownsLine reports whether the comment shares no line with code tokens:
// nothing before it on its first line, nothing after it on its last.
func (p *parser) ownsLine(c Token) bool {
	for _, t := range p.toks {
		if t.Kind == TokenEOF || t.Range.Start.Line > c.Range.End.Line {
			break
		}
		if t.Range.Start.Line == c.Range.Start.Line && t.Range.Start.Col < c.Range.Start.Col {
			return false
		}
		if t.Range.Start.Line == c.Range.End.Line && !t.Range.Start.Before(c.Range.End) {
			return false
		}
	}
	return true
}

func cleanComment(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "//") {
		return strings.TrimSpace(strings.TrimPrefix(text, "//"))
	}
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
