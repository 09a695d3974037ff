package deps

import "sort"

// Graph is the workspace's file dependency graph. Files live in an arena and
// are addressed by integer id; edges are id pairs. Traversals use an explicit
// visited set, so require cycles and deep chains can neither loop nor
// overflow a call stack.
type Graph struct {
	files []string
	ids   map[string]int
	edges map[int][]Edge
}

// Edge is one resolved or unresolved require from a file.
type Edge struct {
	From     int
	To       int // -1 when unresolved
	Stmt     RequireStatement
	Resolved bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		ids:   make(map[string]int),
		edges: make(map[int][]Edge),
	}
}

// Intern returns the id for a file path, adding it to the arena if new.
func (g *Graph) Intern(path string) int {
	if id, ok := g.ids[path]; ok {
		return id
	}
	id := len(g.files)
	g.files = append(g.files, path)
	g.ids[path] = id
	return id
}

// Path returns the file path for an id.
func (g *Graph) Path(id int) string { return g.files[id] }

// Lookup returns the id for a known path.
func (g *Graph) Lookup(path string) (int, bool) {
	id, ok := g.ids[path]
	return id, ok
}

// AddEdge records a resolved require edge.
func (g *Graph) AddEdge(from string, to string, stmt RequireStatement) {
	f := g.Intern(from)
	t := g.Intern(to)
	g.edges[f] = append(g.edges[f], Edge{From: f, To: t, Stmt: stmt, Resolved: true})
}

// AddUnresolved records a require that did not map to any file.
func (g *Graph) AddUnresolved(from string, stmt RequireStatement) {
	f := g.Intern(from)
	g.edges[f] = append(g.edges[f], Edge{From: f, To: -1, Stmt: stmt})
}

// Edges returns the direct require edges of a file.
func (g *Graph) Edges(path string) []Edge {
	id, ok := g.ids[path]
	if !ok {
		return nil
	}
	return g.edges[id]
}

// Closure returns the transitive dependency closure of a file, including the
// file itself. Cycles terminate: every id is visited at most once.
func (g *Graph) Closure(path string) []string {
	id, ok := g.ids[path]
	if !ok {
		return []string{path}
	}
	visited := map[int]bool{id: true}
	stack := []int{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.edges[cur] {
			if !e.Resolved || visited[e.To] {
				continue
			}
			visited[e.To] = true
			stack = append(stack, e.To)
		}
	}
	out := make([]string, 0, len(visited))
	for v := range visited {
		out = append(out, g.files[v])
	}
	sort.Strings(out)
	return out
}

// DependsOn reports whether target is in the closure of path.
func (g *Graph) DependsOn(path, target string) bool {
	if path == target {
		return true
	}
	for _, member := range g.Closure(path) {
		if member == target {
			return true
		}
	}
	return false
}

// Files lists every file known to the graph.
func (g *Graph) Files() []string {
	out := make([]string, len(g.files))
	copy(out, g.files)
	return out
}
