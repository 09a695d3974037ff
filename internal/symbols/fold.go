package symbols

import (
	"errors"
	"fmt"

	"jasminls/internal/parser"
)

// ErrCyclicConstant marks a constant whose definition depends on itself,
// directly or through other constants.
var ErrCyclicConstant = errors.New("cyclic constant definition")

// ConstResolver resolves a constant name visible from a given table. The
// workspace implements this over the file's dependency closure so folding can
// follow references into required files.
type ConstResolver interface {
	ResolveConstant(name string, from *Table) *Symbol
}

// Fold evaluates a constant's declared expression to an integer. The result
// is memoized on the symbol; cyclic definitions fail with ErrCyclicConstant
// instead of looping. Non-constant symbols never fold.
func Fold(sym *Symbol, res ConstResolver, from *Table) (int64, error) {
	return fold(sym, res, from, map[*Symbol]bool{})
}

func fold(sym *Symbol, res ConstResolver, from *Table, inProgress map[*Symbol]bool) (int64, error) {
	if sym.Kind != KindConstant {
		return 0, fmt.Errorf("%s is not a constant", sym.Name)
	}
	if sym.foldDone {
		return sym.folded, sym.foldErr
	}
	if inProgress[sym] {
		return 0, ErrCyclicConstant
	}
	if sym.Value == nil {
		sym.foldDone = true
		sym.foldErr = fmt.Errorf("constant %s has no value", sym.Name)
		return 0, sym.foldErr
	}

	inProgress[sym] = true
	v, err := foldExpr(sym.Value, res, from, inProgress)
	delete(inProgress, sym)

	sym.foldDone = true
	sym.folded = v
	sym.foldErr = err
	return v, err
}

func foldExpr(e parser.Expr, res ConstResolver, from *Table, inProgress map[*Symbol]bool) (int64, error) {
	switch e := e.(type) {
	case *parser.IntLit:
		return e.Value, nil
	case *parser.RefExpr:
		if res == nil {
			return 0, fmt.Errorf("unresolved constant %s", e.Name)
		}
		target := res.ResolveConstant(e.Name, from)
		if target == nil {
			return 0, fmt.Errorf("unresolved constant %s", e.Name)
		}
		if inProgress[target] {
			return 0, ErrCyclicConstant
		}
		v, err := fold(target, res, from, inProgress)
		if err != nil {
			// Propagate cycles as cycles; wrap everything else with the name.
			if errors.Is(err, ErrCyclicConstant) {
				return 0, err
			}
			return 0, fmt.Errorf("via %s: %w", e.Name, err)
		}
		return v, nil
	case *parser.UnaryExpr:
		v, err := foldExpr(e.X, res, from, inProgress)
		if err != nil {
			return 0, err
		}
		if e.Op == "-" {
			return -v, nil
		}
		return 0, fmt.Errorf("unsupported unary operator %q", e.Op)
	case *parser.BinExpr:
		x, err := foldExpr(e.X, res, from, inProgress)
		if err != nil {
			return 0, err
		}
		y, err := foldExpr(e.Y, res, from, inProgress)
		if err != nil {
			return 0, err
		}
		switch e.Op {
		case "+":
			return x + y, nil
		case "-":
			return x - y, nil
		case "*":
			return x * y, nil
		case "/":
			if y == 0 {
				return 0, errors.New("division by zero in constant expression")
			}
			return x / y, nil
		case "%":
			if y == 0 {
				return 0, errors.New("division by zero in constant expression")
			}
			return x % y, nil
		case "<<":
			if y < 0 || y > 63 {
				return 0, fmt.Errorf("shift amount %d out of range", y)
			}
			return x << uint(y), nil
		case ">>":
			if y < 0 || y > 63 {
				return 0, fmt.Errorf("shift amount %d out of range", y)
			}
			return x >> uint(y), nil
		}
		return 0, fmt.Errorf("unsupported operator %q", e.Op)
	}
	return 0, errors.New("unsupported constant expression")
}
