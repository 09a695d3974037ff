package lsp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"jasminls/internal/workspace"
)

type notification struct {
	Method string
	Params any
}

func notifyCtx(sink *[]notification) *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {
			*sink = append(*sink, notification{Method: method, Params: params})
		},
	}
}

func diagnosticsFor(t *testing.T, sink []notification, uri string) ([]protocol.Diagnostic, bool) {
	t.Helper()
	for i := len(sink) - 1; i >= 0; i-- {
		if sink[i].Method != protocol.ServerTextDocumentPublishDiagnostics {
			continue
		}
		params, ok := sink[i].Params.(protocol.PublishDiagnosticsParams)
		require.True(t, ok)
		if params.URI == uri {
			return params.Diagnostics, true
		}
	}
	return nil, false
}

func TestInitialize(t *testing.T) {
	s := NewServer(workspace.New(""), "dev")
	root := t.TempDir()

	result, err := s.initialize(nil, &protocol.InitializeParams{RootPath: &root})
	require.NoError(t, err)

	initResult, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	assert.Equal(t, protocol.TextDocumentSyncKindFull, initResult.Capabilities.TextDocumentSync)
	assert.Equal(t, ServerName, initResult.ServerInfo.Name)
	assert.Equal(t, root, s.ws.Root())
}

func TestInitialize_RootURIFallback(t *testing.T) {
	s := NewServer(workspace.New(""), "dev")
	uri := "file:///work/jasmin%20project"

	_, err := s.initialize(nil, &protocol.InitializeParams{RootURI: &uri})
	require.NoError(t, err)
	assert.Equal(t, "/work/jasmin project", s.ws.Root())
}

func TestDidOpen_PublishesDiagnostics(t *testing.T) {
	s := NewServer(workspace.New(t.TempDir()), "dev")
	var sink []notification

	err := s.textDocumentDidOpen(notifyCtx(&sink), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:     "file:///virtual/broken.jazz",
			Version: 1,
			Text:    "fn broken( { }",
		},
	})
	require.NoError(t, err)

	diags, ok := diagnosticsFor(t, sink, "file:///virtual/broken.jazz")
	require.True(t, ok)
	require.NotEmpty(t, diags)
	assert.Equal(t, protocol.DiagnosticSeverityError, *diags[0].Severity)
}

func TestDidChange_LastWholeEventWins(t *testing.T) {
	s := NewServer(workspace.New(t.TempDir()), "dev")
	var sink []notification
	uri := "file:///virtual/doc.jazz"

	require.NoError(t, s.textDocumentDidOpen(notifyCtx(&sink), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: "fn a() { }"},
	}))

	err := s.textDocumentDidChange(notifyCtx(&sink), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEventWhole{Text: "fn discarded( {"},
			protocol.TextDocumentContentChangeEventWhole{Text: "fn b() { }"},
		},
	})
	require.NoError(t, err)

	doc := s.ws.Document("/virtual/doc.jazz")
	require.NotNil(t, doc)
	assert.NotNil(t, doc.Table.LookupFile("b"))
	assert.Nil(t, doc.Table.LookupFile("a"))

	diags, ok := diagnosticsFor(t, sink, uri)
	require.True(t, ok)
	assert.Empty(t, diags)
}

func TestDidClose_ClearsDiagnosticsOutsideMasterTree(t *testing.T) {
	s := NewServer(workspace.New(t.TempDir()), "dev")
	var sink []notification
	uri := "file:///virtual/x.jazz"

	require.NoError(t, s.textDocumentDidOpen(notifyCtx(&sink), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: "fn broken( {"},
	}))
	require.NoError(t, s.textDocumentDidClose(notifyCtx(&sink), &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))

	diags, ok := diagnosticsFor(t, sink, uri)
	require.True(t, ok)
	assert.Empty(t, diags)
}

func TestHoverDefinitionReferences(t *testing.T) {
	s := NewServer(workspace.New(t.TempDir()), "dev")
	var sink []notification
	uri := "file:///virtual/nav.jazz"
	src := "fn square(reg u64 x) -> reg u64 {\n  reg u64 r;\n  r = x * x;\n  return r;\n}"

	require.NoError(t, s.textDocumentDidOpen(notifyCtx(&sink), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: src},
	}))

	pos := protocol.Position{Line: 2, Character: 6} // the x in "r = x * x"

	hover, err := s.textDocumentHover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     pos,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, hover)
	content, ok := hover.Contents.(protocol.MarkupContent)
	require.True(t, ok)
	assert.Equal(t, protocol.MarkupKindMarkdown, content.Kind)
	assert.Contains(t, content.Value, "x: reg u64")

	def, err := s.textDocumentDefinition(nil, &protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     pos,
		},
	})
	require.NoError(t, err)
	loc, ok := def.(protocol.Location)
	require.True(t, ok)
	assert.Equal(t, uri, string(loc.URI))
	assert.Equal(t, protocol.UInteger(0), loc.Range.Start.Line)

	refs, err := s.textDocumentReferences(nil, &protocol.ReferenceParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     pos,
		},
	})
	require.NoError(t, err)
	assert.Len(t, refs, 3) // declaration plus two uses
}

func TestHover_NullForKeyword(t *testing.T) {
	s := NewServer(workspace.New(t.TempDir()), "dev")
	var sink []notification
	uri := "file:///virtual/k.jazz"

	require.NoError(t, s.textDocumentDidOpen(notifyCtx(&sink), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: "fn f() { }"},
	}))

	hover, err := s.textDocumentHover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: 0, Character: 0},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, hover)
}

func TestRename_WorkspaceEdit(t *testing.T) {
	s := NewServer(workspace.New(t.TempDir()), "dev")
	var sink []notification
	uri := "file:///virtual/rn.jazz"

	require.NoError(t, s.textDocumentDidOpen(notifyCtx(&sink), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: "fn f() {\n  reg u64 v;\n  v = 1;\n}"},
	}))

	edit, err := s.textDocumentRename(nil, &protocol.RenameParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: 1, Character: 10},
		},
		NewName: "w",
	})
	require.NoError(t, err)
	require.NotNil(t, edit)
	require.Len(t, edit.Changes[uri], 2)
	for _, e := range edit.Changes[uri] {
		assert.Equal(t, "w", e.NewText)
	}
}

func TestDocumentAndWorkspaceSymbols(t *testing.T) {
	s := NewServer(workspace.New(t.TempDir()), "dev")
	var sink []notification
	uri := "file:///virtual/sym.jazz"

	require.NoError(t, s.textDocumentDidOpen(notifyCtx(&sink), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: "param int N = 4;\nfn poly_add(reg u64 a) { }"},
	}))

	result, err := s.textDocumentDocumentSymbol(nil, &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)
	syms, ok := result.([]protocol.DocumentSymbol)
	require.True(t, ok)
	require.Len(t, syms, 2)
	assert.Equal(t, protocol.SymbolKindConstant, syms[0].Kind)
	assert.Equal(t, protocol.SymbolKindFunction, syms[1].Kind)
	require.Len(t, syms[1].Children, 1)
	assert.Equal(t, "a", syms[1].Children[0].Name)

	matches, err := s.workspaceSymbol(nil, &protocol.WorkspaceSymbolParams{Query: "poly"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "poly_add", matches[0].Name)
	assert.Equal(t, uri, string(matches[0].Location.URI))
}

func TestDispatcher_CustomNotifications(t *testing.T) {
	root := t.TempDir()
	main := filepath.Join(root, "main.jazz")
	lib := filepath.Join(root, "lib.jinc")
	writeTestFile(t, main, "require \"lib.jinc\"\nfn f() { }")
	writeTestFile(t, lib, "fn g() { }")

	s := NewServer(workspace.New(root), "dev")
	d := &dispatcher{srv: s}

	params, err := json.Marshal(setMasterFileParams{URI: pathToURI(main)})
	require.NoError(t, err)
	_, validMethod, validParams, err := d.Handle(&glsp.Context{
		Method: methodSetMasterFile,
		Params: params,
	})
	require.NoError(t, err)
	assert.True(t, validMethod)
	assert.True(t, validParams)
	assert.Equal(t, main, s.ws.MasterFile())
	assert.ElementsMatch(t, []string{main, lib}, s.ws.MasterTree())

	params, err = json.Marshal(setNamespacePathsParams{
		Paths: []namespacePathEntry{{Namespace: "Common", Path: filepath.Join(root, "common")}},
	})
	require.NoError(t, err)
	_, validMethod, validParams, err = d.Handle(&glsp.Context{
		Method: methodSetNamespacePaths,
		Params: params,
	})
	require.NoError(t, err)
	assert.True(t, validMethod)
	assert.True(t, validParams)
	assert.Equal(t, filepath.Join(root, "common"), s.ws.NamespacePaths()["Common"])
}

func TestDispatcher_MalformedCustomParams(t *testing.T) {
	s := NewServer(workspace.New(t.TempDir()), "dev")
	d := &dispatcher{srv: s}

	_, validMethod, validParams, err := d.Handle(&glsp.Context{
		Method: methodSetMasterFile,
		Params: json.RawMessage(`{"uri": 42}`),
	})
	assert.Error(t, err)
	assert.True(t, validMethod)
	assert.False(t, validParams)
}

func TestURIRoundTrip(t *testing.T) {
	assert.Equal(t, "/a/b c.jazz", uriToPath(pathToURI("/a/b c.jazz")))
	assert.Equal(t, "/x/y.jinc", uriToPath("file:///x/y.jinc"))
	assert.Equal(t, "relative.jazz", uriToPath("relative.jazz"))
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
