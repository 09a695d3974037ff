// Package deps extracts require directives, resolves them to files and keeps
// the cross-file dependency graph. Unresolvable requires are recorded, never
// fatal, and cyclic graphs always produce finite closures.
package deps

import (
	"os"
	"path/filepath"

	"jasminls/internal/parser"
)

// RequireStatement is one path of a require directive. A directive with
// several paths yields several statements.
type RequireStatement struct {
	Namespace      string
	Path           string
	Range          parser.Range // span of the path literal
	NamespaceRange parser.Range
}

// ExtractRequires flattens a file's require directives into statements.
func ExtractRequires(file *parser.File) []RequireStatement {
	if file == nil {
		return nil
	}
	var stmts []RequireStatement
	for _, decl := range file.Requires {
		for _, path := range decl.Paths {
			stmts = append(stmts, RequireStatement{
				Namespace:      decl.Namespace,
				Path:           path.Value,
				Range:          path.Range,
				NamespaceRange: decl.NamespaceRange,
			})
		}
	}
	return stmts
}

// Resolve maps a require statement to an existing file path.
//
// With a namespace the search order is: the explicit namespace map, a sibling
// directory named after the namespace next to the source file, then that name
// as a subdirectory of each ancestor up to the workspace root. Without a
// namespace the path is relative to the source file's directory; nested
// subpaths are allowed.
func Resolve(stmt RequireStatement, sourceDir string, nsPaths map[string]string, workspaceRoot string) (string, bool) {
	if stmt.Namespace == "" {
		candidate := filepath.Join(sourceDir, filepath.FromSlash(stmt.Path))
		if fileExists(candidate) {
			return candidate, true
		}
		return "", false
	}

	if dir, ok := nsPaths[stmt.Namespace]; ok {
		candidate := filepath.Join(dir, filepath.FromSlash(stmt.Path))
		if fileExists(candidate) {
			return candidate, true
		}
	}

	// Sibling directory named after the namespace, case-tolerant on the
	// directory name: crypto workspaces commonly pair `from Common` with a
	// lowercase `common/` directory.
	for _, nsDir := range []string{stmt.Namespace, lowerASCII(stmt.Namespace)} {
		candidate := filepath.Join(sourceDir, nsDir, filepath.FromSlash(stmt.Path))
		if fileExists(candidate) {
			return candidate, true
		}
	}

	// Walk ancestors up to (and including) the workspace root.
	dir := sourceDir
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
		for _, nsDir := range []string{stmt.Namespace, lowerASCII(stmt.Namespace)} {
			candidate := filepath.Join(dir, nsDir, filepath.FromSlash(stmt.Path))
			if fileExists(candidate) {
				return candidate, true
			}
		}
		if workspaceRoot != "" && sameFile(dir, workspaceRoot) {
			break
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func sameFile(a, b string) bool {
	ca, err1 := filepath.Abs(a)
	cb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return a == b
	}
	return ca == cb
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
