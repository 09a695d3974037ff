package parser

import "fmt"

// Pos is a zero-based line/column position within a document. Columns count
// UTF-16 code units, the unit LSP positions are exchanged in, so ranges stay
// accurate on lines containing non-ASCII text.
type Pos struct {
	Line uint32
	Col  uint32
}

// Range is a half-open span [Start, End) within a document.
type Range struct {
	Start Pos
	End   Pos
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Before reports whether p comes strictly before q.
func (p Pos) Before(q Pos) bool {
	return p.Line < q.Line || (p.Line == q.Line && p.Col < q.Col)
}

// Contains reports whether pos lies inside the range (start inclusive, end exclusive).
func (r Range) Contains(pos Pos) bool {
	if pos.Before(r.Start) {
		return false
	}
	return pos.Before(r.End)
}

// ContainsInclusive also accepts a position sitting exactly on the range end.
// Editors frequently send the caret just past the last character of a token.
func (r Range) ContainsInclusive(pos Pos) bool {
	if pos.Before(r.Start) {
		return false
	}
	return pos.Before(r.End) || pos == r.End
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}
