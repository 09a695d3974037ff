package workspace

// SetMasterFile designates the file whose dependency closure defines the
// active program. The master tree is recomputed immediately, but no
// diagnostics are published: designation alone must not produce output.
func (w *Workspace) SetMasterFile(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.master = path
	// Ensure the master itself is known so the closure can grow from it.
	w.loadDocument(path)
	w.rebuildGraph()
	w.log.Infof("master file set to %s (tree of %d files)", path, len(w.masterTree))
}

// MasterFile returns the current master file path, or "".
func (w *Workspace) MasterFile() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.master
}

// MasterTree returns the master's dependency closure including the master
// itself, or nil when no master is set.
func (w *Workspace) MasterTree() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.master == "" {
		return nil
	}
	return w.graph.Closure(w.master)
}

// InMasterTree reports whether a file belongs to the active program.
func (w *Workspace) InMasterTree(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.masterTree[path]
}

// SetNamespacePaths replaces the namespace search map. Without a master this
// is a pure configuration update. With a master, requires that previously
// failed may now resolve: when that happens the (possibly grown) master tree
// is republished in full, including files never opened as editor buffers.
func (w *Workspace) SetNamespacePaths(paths map[string]string, publish PublishFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.nsPaths = make(map[string]string, len(paths))
	for ns, dir := range paths {
		w.nsPaths[ns] = dir
	}

	if w.master == "" {
		return
	}

	unresolvedBefore := w.countUnresolved()
	treeBefore := len(w.masterTree)
	w.rebuildGraph()

	if w.countUnresolved() >= unresolvedBefore && len(w.masterTree) <= treeBefore {
		return // nothing newly resolved
	}

	for _, path := range w.graph.Closure(w.master) {
		doc := w.loadDocument(path)
		if doc == nil {
			continue
		}
		w.publishDoc(doc, publish)
	}
}

// NamespacePaths returns a copy of the namespace map.
func (w *Workspace) NamespacePaths() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]string, len(w.nsPaths))
	for ns, dir := range w.nsPaths {
		out[ns] = dir
	}
	return out
}

func (w *Workspace) countUnresolved() int {
	n := 0
	for _, doc := range w.docs {
		for _, rr := range doc.Resolved {
			if !rr.OK {
				n++
			}
		}
	}
	return n
}
