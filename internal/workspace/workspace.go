// Package workspace owns the live multi-file state of a session: open
// documents, symbol tables, the require graph, the master file binding and
// the diagnostics lifecycle. One Workspace per session, threaded through
// every handler; there is no package-level mutable state.
package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tliron/commonlog"

	"jasminls/internal/deps"
	"jasminls/internal/parser"
	"jasminls/internal/symbols"
)

// Document is one known file: open in the editor or pulled in from disk
// because something requires it.
type Document struct {
	Path    string
	Version int32
	Open    bool
	Text    string

	Res       *parser.Result
	Table     *symbols.Table
	IndexErrs []symbols.IndexError
	Requires  []deps.RequireStatement
	Resolved  []ResolvedRequire

	// generation tags each reparse so a result computed against superseded
	// text is dropped instead of published.
	generation uint64
}

// ResolvedRequire pairs a require statement with its resolution outcome.
type ResolvedRequire struct {
	Stmt   deps.RequireStatement
	Target string
	OK     bool
}

// Workspace is the per-session state container. A single mutex serializes
// all mutation; handlers are invoked in message arrival order, so queries
// observe the state after the most recently completed reparse.
type Workspace struct {
	mu sync.Mutex

	root    string
	docs    map[string]*Document
	nsPaths map[string]string

	master     string
	masterTree map[string]bool

	graph *deps.Graph

	// published tracks which files currently have diagnostics pushed to the
	// client, so close can clear exactly what was published.
	published map[string]bool

	log commonlog.Logger
}

// PublishFunc receives diagnostics for one file. The LSP layer adapts it to
// textDocument/publishDiagnostics; tests collect the calls.
type PublishFunc func(path string, diags []Diagnostic)

// New creates an empty workspace rooted at the given directory.
func New(root string) *Workspace {
	return &Workspace{
		root:       root,
		docs:       make(map[string]*Document),
		nsPaths:    make(map[string]string),
		masterTree: make(map[string]bool),
		graph:      deps.NewGraph(),
		published:  make(map[string]bool),
		log:        commonlog.GetLogger("workspace"),
	}
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.root
}

// SetRoot records the workspace root, normally once at initialize time.
func (w *Workspace) SetRoot(root string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.root = root
}

// OpenDocument registers an open editor buffer and publishes its diagnostics
// unconditionally, even when the list is empty.
func (w *Workspace) OpenDocument(path, text string, version int32, publish PublishFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc := w.docs[path]
	if doc == nil {
		doc = &Document{Path: path}
		w.docs[path] = doc
	}
	doc.Open = true
	doc.Version = version
	doc.Text = text
	w.reindex(doc)
	w.rebuildGraph()

	w.publishDoc(doc, publish)
}

// ChangeDocument replaces a document's text wholesale (the protocol sends
// full replacement text), reparses it and republishes diagnostics for the
// file itself plus every open or master-tree file whose dependency closure
// includes it.
func (w *Workspace) ChangeDocument(path, text string, version int32, publish PublishFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc := w.docs[path]
	if doc == nil {
		doc = &Document{Path: path, Open: true}
		w.docs[path] = doc
	}
	if version != 0 && version < doc.Version {
		// Stale change delivered out of order; the reparse it would trigger
		// is already superseded.
		w.log.Debugf("dropping stale change for %s (version %d < %d)", path, version, doc.Version)
		return
	}
	doc.Version = version
	doc.Text = text
	gen := w.reindex(doc)
	w.rebuildGraph()

	if doc.generation != gen {
		return // superseded while recomputing
	}
	w.publishDoc(doc, publish)

	// Dependent propagation: reindex and republish every other interested
	// file whose closure reaches the changed one. Reindexing clears fold
	// memos that may reference constants in the changed file.
	for _, other := range w.sortedDocs() {
		if other.Path == path {
			continue
		}
		if !other.Open && !w.masterTree[other.Path] {
			continue
		}
		if !w.graph.DependsOn(other.Path, path) {
			continue
		}
		w.reindex(other)
		w.publishDoc(other, publish)
	}
}

// CloseDocument removes a file from the open set. Its diagnostics are
// retained when the file belongs to the master tree and cleared otherwise.
func (w *Workspace) CloseDocument(path string, publish PublishFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc := w.docs[path]
	if doc == nil {
		return
	}
	doc.Open = false

	if w.masterTree[path] {
		return // retain: the file is part of the active program
	}
	if publish != nil {
		publish(path, []Diagnostic{})
	}
	w.published[path] = false
}

// Document returns the known document for a path, loading it from disk on
// first use. Returns nil when the file neither is open nor exists.
func (w *Workspace) Document(path string) *Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loadDocument(path)
}

// loadDocument is Document without locking; callers hold w.mu.
func (w *Workspace) loadDocument(path string) *Document {
	if doc, ok := w.docs[path]; ok {
		return doc
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	doc := &Document{Path: path, Text: string(data)}
	w.docs[path] = doc
	w.reindex(doc)
	w.rebuildGraph()
	return doc
}

// reindex reparses a document and recomputes its symbol table. The whole
// table is rebuilt on every reparse, never patched incrementally. Returns
// the new generation tag.
func (w *Workspace) reindex(doc *Document) uint64 {
	doc.generation++
	doc.Res = parser.Parse(doc.Text)
	doc.Table, doc.IndexErrs = symbols.Index(doc.Path, doc.Res)
	doc.Requires = deps.ExtractRequires(doc.Res.File)
	return doc.generation
}

// rebuildGraph recomputes the dependency graph and the master tree wholesale.
// Incremental patching would be cheaper but invites invalidation bugs; the
// graph is small and reparse already dominates.
func (w *Workspace) rebuildGraph() {
	g := deps.NewGraph()

	// Seed with every known document plus the master, then chase requires
	// breadth-first, reading required-but-unknown files from disk.
	queue := make([]string, 0, len(w.docs)+1)
	seen := make(map[string]bool)
	for path := range w.docs {
		queue = append(queue, path)
	}
	if w.master != "" {
		queue = append(queue, w.master)
	}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		if seen[path] {
			continue
		}
		seen[path] = true

		doc := w.docs[path]
		if doc == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			doc = &Document{Path: path, Text: string(data)}
			w.docs[path] = doc
			w.reindex(doc)
		}

		g.Intern(path)
		doc.Resolved = doc.Resolved[:0]
		sourceDir := filepath.Dir(path)
		for _, stmt := range doc.Requires {
			target, ok := deps.Resolve(stmt, sourceDir, w.nsPaths, w.root)
			if !ok {
				g.AddUnresolved(path, stmt)
				doc.Resolved = append(doc.Resolved, ResolvedRequire{Stmt: stmt})
				continue
			}
			g.AddEdge(path, target, stmt)
			doc.Resolved = append(doc.Resolved, ResolvedRequire{Stmt: stmt, Target: target, OK: true})
			if !seen[target] {
				queue = append(queue, target)
			}
		}
	}

	w.graph = g
	w.recomputeMasterTree()
}

func (w *Workspace) recomputeMasterTree() {
	tree := make(map[string]bool)
	if w.master != "" {
		for _, path := range w.graph.Closure(w.master) {
			tree[path] = true
		}
	}
	w.masterTree = tree
}

// sortedDocs returns documents in deterministic path order.
func (w *Workspace) sortedDocs() []*Document {
	paths := make([]string, 0, len(w.docs))
	for path := range w.docs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	out := make([]*Document, 0, len(paths))
	for _, path := range paths {
		out = append(out, w.docs[path])
	}
	return out
}
