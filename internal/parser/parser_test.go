package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SimpleFunction(t *testing.T) {
	res := Parse("fn test() -> reg u64 {\n  reg u64 x;\n  x = 42;\n  return x;\n}\n")
	require.Empty(t, res.Errors)
	require.Len(t, res.File.Funcs, 1)

	fn := res.File.Funcs[0]
	assert.Equal(t, "test", fn.Name.Name)
	require.Len(t, fn.Returns, 1)
	assert.Equal(t, "reg u64", fn.Returns[0].String())
	require.Len(t, fn.Locals, 1)
	assert.Equal(t, "x", fn.Locals[0].Names[0].Name)
	assert.Equal(t, "reg u64", fn.Locals[0].Type.String())
}

func TestParse_MultiIdentifierDeclarations(t *testing.T) {
	src := "fn test(reg u32 a b, stack u64 x y z) -> reg u32 {\n" +
		"  reg u16 i, j, k;\n" +
		"  stack u8 p, q;\n" +
		"  return a;\n" +
		"}"
	res := Parse(src)
	require.Empty(t, res.Errors)
	require.Len(t, res.File.Funcs, 1)
	fn := res.File.Funcs[0]

	t.Run("whitespace separated parameters", func(t *testing.T) {
		require.Len(t, fn.Params, 2)
		assert.Equal(t, "reg u32", fn.Params[0].Type.String())
		require.Len(t, fn.Params[0].Names, 2)
		assert.Equal(t, "stack u64", fn.Params[1].Type.String())
		require.Len(t, fn.Params[1].Names, 3)

		// Every name owns exactly its own token span.
		a, b := fn.Params[0].Names[0], fn.Params[0].Names[1]
		assert.Equal(t, uint32(16), a.Range.Start.Col)
		assert.Equal(t, uint32(17), a.Range.End.Col)
		assert.Equal(t, uint32(18), b.Range.Start.Col)
		assert.Equal(t, uint32(19), b.Range.End.Col)
	})

	t.Run("comma separated locals", func(t *testing.T) {
		require.Len(t, fn.Locals, 2)
		require.Len(t, fn.Locals[0].Names, 3)
		assert.Equal(t, "reg u16", fn.Locals[0].Type.String())
		i, j := fn.Locals[0].Names[0], fn.Locals[0].Names[1]
		assert.NotEqual(t, i.Range, j.Range)
		assert.Equal(t, uint32(1), j.Range.Start.Line)
	})
}

func TestParse_RequireDirectives(t *testing.T) {
	res := Parse("require \"a.jinc\" \"b.jinc\"\nfrom Common require \"poly.jinc\"\nfn f() { }")
	require.Empty(t, res.Errors)
	require.Len(t, res.File.Requires, 2)

	plain := res.File.Requires[0]
	assert.Empty(t, plain.Namespace)
	require.Len(t, plain.Paths, 2)
	assert.Equal(t, "a.jinc", plain.Paths[0].Value)
	assert.Equal(t, "b.jinc", plain.Paths[1].Value)

	ns := res.File.Requires[1]
	assert.Equal(t, "Common", ns.Namespace)
	require.Len(t, ns.Paths, 1)
	assert.Equal(t, "poly.jinc", ns.Paths[0].Value)
}

func TestParse_ParamConstants(t *testing.T) {
	res := Parse("param int BUFFER_SIZE = 256;\nparam int TOTAL = BASE + OFFSET;\nparam int SHIFTED = 1 << 10;")
	require.Empty(t, res.Errors)
	require.Len(t, res.File.Params, 3)

	assert.Equal(t, "BUFFER_SIZE", res.File.Params[0].Name.Name)
	lit, ok := res.File.Params[0].Value.(*IntLit)
	require.True(t, ok)
	assert.Equal(t, int64(256), lit.Value)

	sum, ok := res.File.Params[1].Value.(*BinExpr)
	require.True(t, ok)
	assert.Equal(t, "+", sum.Op)
	assert.Equal(t, "BASE + OFFSET", sum.Text())

	shift, ok := res.File.Params[2].Value.(*BinExpr)
	require.True(t, ok)
	assert.Equal(t, "<<", shift.Op)
}

func TestParse_HexConstant(t *testing.T) {
	res := Parse("param int ROUND_CONSTANT = 0x9e377900;")
	require.Empty(t, res.Errors)
	lit, ok := res.File.Params[0].Value.(*IntLit)
	require.True(t, ok)
	assert.Equal(t, int64(0x9e377900), lit.Value)
	assert.Equal(t, "0x9e377900", lit.Raw)
}

func TestParse_GlobalArray(t *testing.T) {
	res := Parse("u64[4] shared_data = {1, 2, 3, 4};\n")
	require.Empty(t, res.Errors)
	require.Len(t, res.File.Globals, 1)
	g := res.File.Globals[0]
	assert.Equal(t, "shared_data", g.Name.Name)
	assert.Equal(t, "global u64[4]", g.Type.String())
}

func TestParse_PointerType(t *testing.T) {
	res := Parse("fn swap(reg ptr u32[12] state, inline int i) -> reg ptr u32[12] {\n  reg u32 x y;\n  return state;\n}")
	require.Empty(t, res.Errors)
	fn := res.File.Funcs[0]
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "reg ptr u32[12]", fn.Params[0].Type.String())
	assert.Equal(t, "inline int", fn.Params[1].Type.String())
}

func TestParse_DocComments(t *testing.T) {
	src := strings.Join([]string{
		"// Size of the message buffer.",
		"param int BUFFER_SIZE = 256;",
		"",
		"// A stray comment.",
		"",
		"fn undocumented() { }",
		"/* Adds two field elements. */",
		"fn poly_add() { }",
	}, "\n")
	res := Parse(src)
	require.Empty(t, res.Errors)

	assert.Equal(t, "Size of the message buffer.", res.File.Params[0].Doc)
	assert.Empty(t, res.File.Funcs[0].Doc, "blank line must break doc association")
	assert.Equal(t, "Adds two field elements.", res.File.Funcs[1].Doc)
}

func TestParse_TrailingCommentIsNotDoc(t *testing.T) {
	src := strings.Join([]string{
		"param int A = 1; // size of A",
		"param int B = 2;",
		"/* shared */ param int C = 3;",
		"param int D = 4;",
	}, "\n")
	res := Parse(src)
	require.Empty(t, res.Errors)

	assert.Empty(t, res.File.Params[1].Doc, "comment after A's declaration must not document B")
	assert.Empty(t, res.File.Params[3].Doc, "comment sharing C's line must not document D")
}

func TestParse_ColumnsCountUTF16Units(t *testing.T) {
	// "π" is 2 bytes but 1 UTF-16 unit; "𝛑" is 4 bytes but 2 units.
	res := Parse("/* π */ param int N = 4;\n/* 𝛑 */ param int M = 8;")
	require.Empty(t, res.Errors)
	require.Len(t, res.File.Params, 2)

	// "/* π */ " is 8 UTF-16 units, so "param" starts at column 8.
	assert.Equal(t, uint32(8), res.File.Params[0].Range.Start.Col)
	// "/* 𝛑 */ " is 9 units, the surrogate pair counting as two.
	assert.Equal(t, uint32(9), res.File.Params[1].Range.Start.Col)
}

func TestParse_ErrorRecovery(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"missing name", "fn { }"},
		{"missing param paren", "fn test( { }"},
		{"missing return type", "fn test() -> { }"},
		{"garbage between functions", "fn a() { }\n@@@@\nfn b() { }"},
		{"unclosed brace", "fn test() -> reg u64 {\n  invalid_syntax here\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Parse(tc.src)
			assert.NotEmpty(t, res.Errors, "malformed input must surface a syntax error")
			assert.NotNil(t, res.File)
		})
	}
}

func TestParse_RecoversDeclarationsAroundErrors(t *testing.T) {
	res := Parse("fn a() { }\n@@@@\nfn b() { }")
	require.NotNil(t, res.File)
	names := []string{}
	for _, fn := range res.File.Funcs {
		names = append(names, fn.Name.Name)
	}
	assert.Contains(t, names, "a")
	assert.Contains(t, names, "b")
}

func TestParse_InvalidBytesInComment(t *testing.T) {
	res := Parse("fn test() { /* \xff\xfe invalid */ }")
	require.Len(t, res.File.Funcs, 1)
	assert.Empty(t, res.Errors)
}

func TestParse_EmptyAndDegenerateInputs(t *testing.T) {
	for _, src := range []string{"", "\n\n\n", ";;;;", "{{{{", "}}}}"} {
		res := Parse(src)
		require.NotNil(t, res.File, "source %q", src)
	}
}

func TestParse_FullReparseSeesNewErrors(t *testing.T) {
	valid := "fn test() -> reg u64 {\n  reg u64 x;\n  x = 42;\n  return x;\n}\n"
	res := Parse(valid)
	require.Empty(t, res.Errors)

	broken := "fn test() -> reg u64 {\n  fn oops\n  return x;\n}\n"
	res = Parse(broken)
	assert.NotEmpty(t, res.Errors, "a fresh parse must report newly introduced errors")
}

func TestParse_LargeDocument(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20000; i++ {
		b.WriteString("fn func_")
		b.WriteString(strings.Repeat("x", i%5+1))
		b.WriteString("(reg u64 x) -> reg u64 { return x; }\n")
	}
	res := Parse(b.String())
	assert.Len(t, res.File.Funcs, 20000)
}

func TestExprText(t *testing.T) {
	res := Parse("param int X = (BASE + 2) * 4;")
	require.Len(t, res.File.Params, 1)
	require.NotNil(t, res.File.Params[0].Value)
	assert.Equal(t, "BASE + 2 * 4", res.File.Params[0].Value.Text())
}
