package deps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jasminls/internal/parser"
)

func TestExtractRequires(t *testing.T) {
	res := parser.Parse("require \"a.jinc\" \"b.jinc\"\nfrom Common require \"poly.jinc\"\n")
	stmts := ExtractRequires(res.File)
	require.Len(t, stmts, 3)

	assert.Equal(t, "a.jinc", stmts[0].Path)
	assert.Empty(t, stmts[0].Namespace)
	assert.Equal(t, "poly.jinc", stmts[2].Path)
	assert.Equal(t, "Common", stmts[2].Namespace)
}

func TestExtractRequires_NilFile(t *testing.T) {
	assert.Nil(t, ExtractRequires(nil))
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolve_Relative(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lib", "util.jinc"), "fn util() { }")
	writeFile(t, filepath.Join(root, "main.jazz"), "")

	t.Run("sibling file", func(t *testing.T) {
		writeFile(t, filepath.Join(root, "params.jinc"), "")
		path, ok := Resolve(RequireStatement{Path: "params.jinc"}, root, nil, root)
		require.True(t, ok)
		assert.Equal(t, filepath.Join(root, "params.jinc"), path)
	})

	t.Run("nested subpath", func(t *testing.T) {
		path, ok := Resolve(RequireStatement{Path: "lib/util.jinc"}, root, nil, root)
		require.True(t, ok)
		assert.Equal(t, filepath.Join(root, "lib", "util.jinc"), path)
	})

	t.Run("missing file", func(t *testing.T) {
		_, ok := Resolve(RequireStatement{Path: "nope.jinc"}, root, nil, root)
		assert.False(t, ok)
	})
}

func TestResolve_Namespace(t *testing.T) {
	stmt := RequireStatement{Namespace: "Common", Path: "poly.jinc"}

	t.Run("explicit mapping wins", func(t *testing.T) {
		root := t.TempDir()
		mapped := filepath.Join(root, "elsewhere")
		writeFile(t, filepath.Join(mapped, "poly.jinc"), "")
		writeFile(t, filepath.Join(root, "Common", "poly.jinc"), "")

		path, ok := Resolve(stmt, root, map[string]string{"Common": mapped}, root)
		require.True(t, ok)
		assert.Equal(t, filepath.Join(mapped, "poly.jinc"), path)
	})

	t.Run("sibling directory", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "Common", "poly.jinc"), "")

		path, ok := Resolve(stmt, root, nil, root)
		require.True(t, ok)
		assert.Equal(t, filepath.Join(root, "Common", "poly.jinc"), path)
	})

	t.Run("lowercase sibling directory", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "common", "poly.jinc"), "")

		path, ok := Resolve(stmt, root, nil, root)
		require.True(t, ok)
		assert.Equal(t, filepath.Join(root, "common", "poly.jinc"), path)
	})

	t.Run("ancestor directory", func(t *testing.T) {
		root := t.TempDir()
		sourceDir := filepath.Join(root, "x86-64", "avx2", "ml_dsa_65")
		require.NoError(t, os.MkdirAll(sourceDir, 0o755))
		writeFile(t, filepath.Join(root, "common", "poly.jinc"), "")

		path, ok := Resolve(stmt, sourceDir, nil, root)
		require.True(t, ok)
		assert.Equal(t, filepath.Join(root, "common", "poly.jinc"), path)
	})

	t.Run("unknown namespace", func(t *testing.T) {
		root := t.TempDir()
		_, ok := Resolve(stmt, root, nil, root)
		assert.False(t, ok)
	})
}

func TestGraph_Closure(t *testing.T) {
	g := NewGraph()
	g.AddEdge("main.jazz", "module.jinc", RequireStatement{Path: "module.jinc"})
	g.AddEdge("module.jinc", "utils.jinc", RequireStatement{Path: "utils.jinc"})
	g.Intern("unrelated.jinc")

	closure := g.Closure("main.jazz")
	assert.ElementsMatch(t, []string{"main.jazz", "module.jinc", "utils.jinc"}, closure)

	assert.True(t, g.DependsOn("main.jazz", "utils.jinc"))
	assert.False(t, g.DependsOn("utils.jinc", "main.jazz"))
	assert.False(t, g.DependsOn("main.jazz", "unrelated.jinc"))
}

func TestGraph_ClosureTerminatesOnCycles(t *testing.T) {
	g := NewGraph()
	g.AddEdge("a.jazz", "b.jazz", RequireStatement{Path: "b.jazz"})
	g.AddEdge("b.jazz", "a.jazz", RequireStatement{Path: "a.jazz"})

	closure := g.Closure("a.jazz")
	assert.ElementsMatch(t, []string{"a.jazz", "b.jazz"}, closure)
	assert.ElementsMatch(t, []string{"a.jazz", "b.jazz"}, g.Closure("b.jazz"))
}

func TestGraph_SelfCycleThroughIntermediate(t *testing.T) {
	g := NewGraph()
	g.AddEdge("a.jazz", "b.jinc", RequireStatement{})
	g.AddEdge("b.jinc", "c.jinc", RequireStatement{})
	g.AddEdge("c.jinc", "a.jazz", RequireStatement{})

	for _, f := range []string{"a.jazz", "b.jinc", "c.jinc"} {
		assert.Len(t, g.Closure(f), 3, f)
	}
}

func TestGraph_UnresolvedEdges(t *testing.T) {
	g := NewGraph()
	g.AddUnresolved("main.jazz", RequireStatement{Path: "missing.jinc"})

	edges := g.Edges("main.jazz")
	require.Len(t, edges, 1)
	assert.False(t, edges[0].Resolved)
	assert.Equal(t, []string{"main.jazz"}, g.Closure("main.jazz"))
}

func TestGraph_ClosureOfUnknownFile(t *testing.T) {
	g := NewGraph()
	assert.Equal(t, []string{"ghost.jazz"}, g.Closure("ghost.jazz"))
}
