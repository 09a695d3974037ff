package parser

// TokenKind classifies lexical tokens of the Jasmin surface syntax.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenKeyword
	TokenInt
	TokenString
	TokenPunct
	TokenComment
	TokenInvalid
)

// Token is a single lexeme with its source span.
type Token struct {
	Kind  TokenKind
	Text  string
	Range Range
}

// keywords covers declaration-relevant reserved words. Control-flow keywords
// are included so identifier references are never conflated with them.
var keywords = map[string]bool{
	"fn": true, "param": true, "inline": true, "export": true, "exec": true,
	"require": true, "from": true, "return": true, "if": true, "else": true,
	"for": true, "while": true, "to": true, "downto": true,
	"reg": true, "stack": true, "global": true, "ptr": true,
	"int": true, "bool": true, "true": true, "false": true,
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true, "u256": true,
}

// storageClasses are the words that may open a variable or parameter declaration.
var storageClasses = map[string]bool{
	"reg": true, "stack": true, "inline": true, "global": true,
}

// baseTypes are the primitive type names.
var baseTypes = map[string]bool{
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true, "u256": true,
	"int": true, "bool": true,
}

// IsKeyword reports whether text is a reserved word.
func IsKeyword(text string) bool { return keywords[text] }

func (t Token) isKeyword(text string) bool {
	return t.Kind == TokenKeyword && t.Text == text
}

func (t Token) isPunct(text string) bool {
	return t.Kind == TokenPunct && t.Text == text
}
