package parser

// lexer scans a Jasmin source string into tokens. It never fails: bytes it
// cannot classify become TokenInvalid tokens and scanning continues, so a
// half-edited or binary-polluted document still produces a usable stream.
type lexer struct {
	src  string
	cur  int
	line uint32
	col  uint32

	tokens   []Token
	comments []Token
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

func (l *lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.src[l.cur]
}

func (l *lexer) peekNext() byte {
	if l.cur+1 >= len(l.src) {
		return 0
	}
	return l.src[l.cur+1]
}

func (l *lexer) advance() byte {
	ch := l.src[l.cur]
	l.cur++
	switch {
	case ch == '\n':
		l.line++
		l.col = 0
	case ch >= 0x80 && ch < 0xC0:
		// UTF-8 continuation byte: the column advanced at the leading byte.
	case ch >= 0xF0:
		l.col += 2 // rune outside the BMP, two UTF-16 units
	default:
		l.col++
	}
	return ch
}

func (l *lexer) pos() Pos { return Pos{Line: l.line, Col: l.col} }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}
func isAlphaNum(b byte) bool { return isAlpha(b) || isDigit(b) }

// scan tokenizes the whole source. Comments are collected separately so the
// parser can associate documentation blocks with declarations.
func (l *lexer) scan() ([]Token, []Token) {
	for !l.isAtEnd() {
		l.skipSpace()
		if l.isAtEnd() {
			break
		}

		start := l.pos()
		ch := l.peek()

		switch {
		case ch == '/' && l.peekNext() == '/':
			l.scanLineComment(start)
		case ch == '/' && l.peekNext() == '*':
			l.scanBlockComment(start)
		case isAlpha(ch):
			l.scanIdentifier(start)
		case isDigit(ch):
			l.scanNumber(start)
		case ch == '"':
			l.scanString(start)
		default:
			l.scanPunct(start)
		}
	}

	l.tokens = append(l.tokens, Token{
		Kind:  TokenEOF,
		Range: Range{Start: l.pos(), End: l.pos()},
	})
	return l.tokens, l.comments
}

func (l *lexer) skipSpace() {
	for !l.isAtEnd() {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return
		}
	}
}

func (l *lexer) emit(kind TokenKind, text string, start Pos) {
	l.tokens = append(l.tokens, Token{
		Kind:  kind,
		Text:  text,
		Range: Range{Start: start, End: l.pos()},
	})
}

func (l *lexer) scanLineComment(start Pos) {
	from := l.cur
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
	l.comments = append(l.comments, Token{
		Kind:  TokenComment,
		Text:  l.src[from:l.cur],
		Range: Range{Start: start, End: l.pos()},
	})
}

func (l *lexer) scanBlockComment(start Pos) {
	from := l.cur
	l.advance() // '/'
	l.advance() // '*'
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			break
		}
		// Arbitrary bytes, including invalid UTF-8, are tolerated here.
		l.advance()
	}
	l.comments = append(l.comments, Token{
		Kind:  TokenComment,
		Text:  l.src[from:l.cur],
		Range: Range{Start: start, End: l.pos()},
	})
}

func (l *lexer) scanIdentifier(start Pos) {
	from := l.cur
	for !l.isAtEnd() && isAlphaNum(l.peek()) {
		l.advance()
	}
	text := l.src[from:l.cur]
	kind := TokenIdent
	if keywords[text] {
		kind = TokenKeyword
	}
	l.emit(kind, text, start)
}

func (l *lexer) scanNumber(start Pos) {
	from := l.cur
	if l.peek() == '0' && (l.peekNext() == 'x' || l.peekNext() == 'X') {
		l.advance()
		l.advance()
		for !l.isAtEnd() && isHexDigit(l.peek()) {
			l.advance()
		}
	} else {
		for !l.isAtEnd() && isDigit(l.peek()) {
			l.advance()
		}
	}
	l.emit(TokenInt, l.src[from:l.cur], start)
}

func (l *lexer) scanString(start Pos) {
	from := l.cur
	l.advance() // opening quote
	for !l.isAtEnd() && l.peek() != '"' && l.peek() != '\n' {
		l.advance()
	}
	if !l.isAtEnd() && l.peek() == '"' {
		l.advance()
	}
	// Text keeps the surrounding quotes; the parser strips them.
	l.emit(TokenString, l.src[from:l.cur], start)
}

// punctuation, longest match first
var puncts = []string{
	"<<", ">>", "<=", ">=", "==", "!=", "&&", "||", "+=", "-=", "*=", "^=", "&=", "|=",
	"->", "{", "}", "(", ")", "[", "]", ";", ",", "=", "+", "-", "*", "/", "%",
	"<", ">", "!", "&", "|", "^", "#", "?", ":", ".",
}

func (l *lexer) scanPunct(start Pos) {
	rest := l.src[l.cur:]
	for _, p := range puncts {
		if len(rest) >= len(p) && rest[:len(p)] == p {
			for range p {
				l.advance()
			}
			l.emit(TokenPunct, p, start)
			return
		}
	}
	// Unknown byte (possibly invalid UTF-8 outside a comment): consume it and
	// keep going rather than aborting the scan.
	l.advance()
	l.emit(TokenInvalid, l.src[l.cur-1:l.cur], start)
}
