package pkg

import (
	"context"
	"errors"
)

// NodeKind distinguishes real packages from synthetic request nodes.
type NodeKind int

const (
	NodePackage NodeKind = iota // a concrete package version
	NodeSet                     // a package set such as @world
	NodeAtom                    // a requested atom
)

// String returns the kind name.
func (k NodeKind) String() string {
	switch k {
	case NodePackage:
		return "package"
	case NodeSet:
		return "set"
	case NodeAtom:
		return "atom"
	}
	return "unknown"
}

// Operation is what the graph builder would do with a package node.
type Operation string

const (
	OpMerge     Operation = "merge"
	OpNoMerge   Operation = "nomerge"
	OpUninstall Operation = "uninstall"
)

// Node is a vertex of a dependency graph. Edges are set by the builder
// through Graph.AddEdge and only read afterwards.
type Node struct {
	ID        Identity // zero for synthetic nodes
	Kind      NodeKind
	Operation Operation
	Label     string // atom or set name for synthetic nodes

	parents  []*Node // nodes depending on this one
	children []*Node // nodes this one depends on
}

// Synthetic reports whether the node stands for a request rather than a
// package.
func (n *Node) Synthetic() bool {
	return n.Kind != NodePackage
}

// Parents returns the nodes that depend on n.
func (n *Node) Parents() []*Node {
	return n.parents
}

// Children returns the nodes n depends on.
func (n *Node) Children() []*Node {
	return n.children
}

func (n *Node) key() string {
	switch n.Kind {
	case NodeSet:
		return "@" + n.Label
	case NodeAtom:
		return "atom:" + n.Label
	}
	return n.ID.Origin.String() + ":" + n.ID.CPV() + ":" + n.ID.Slot
}

// Graph is a dependency graph produced by a GraphBuilder.
type Graph struct {
	// Complete is false when the builder could not satisfy every atom.
	Complete bool
	// Unsatisfied lists the atoms that could not be resolved.
	Unsatisfied []string

	nodes []*Node
	byKey map[string]*Node
}

// NewGraph returns an empty, complete graph.
func NewGraph() *Graph {
	return &Graph{Complete: true, byKey: make(map[string]*Node)}
}

// AddNode inserts n, or returns the node already present under the same key.
func (g *Graph) AddNode(n *Node) *Node {
	k := n.key()
	if existing, ok := g.byKey[k]; ok {
		return existing
	}
	g.byKey[k] = n
	g.nodes = append(g.nodes, n)
	return n
}

// AddEdge records that parent depends on child. Duplicate edges are ignored.
func (g *Graph) AddEdge(parent, child *Node) {
	for _, c := range parent.children {
		if c == child {
			return
		}
	}
	parent.children = append(parent.children, child)
	child.parents = append(child.parents, parent)
}

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Find returns the package node of id, or nil.
func (g *Graph) Find(id Identity) *Node {
	return g.byKey[(&Node{ID: id}).key()]
}

// FindAtom returns the request node of atom, or nil.
func (g *Graph) FindAtom(atom string) *Node {
	return g.byKey[(&Node{Kind: NodeAtom, Label: atom}).key()]
}

// FindPackage returns the first package node with the given name, version
// and revision, whatever its origin.
func (g *Graph) FindPackage(vk VersionKey) *Node {
	for _, n := range g.nodes {
		if !n.Synthetic() && n.ID.VersionKey() == vk {
			return n
		}
	}
	return nil
}

// GraphMode selects how a graph is built.
type GraphMode string

const (
	// ModeMerge resolves atoms as if they were going to be installed.
	ModeMerge GraphMode = "merge"
	// ModeRemove builds the installed graph as seen by an uninstall.
	ModeRemove GraphMode = "remove"
)

// GraphRequest describes the graph to build.
type GraphRequest struct {
	Atoms     []string  // requested atoms, e.g. "=dev-libs/foo-1.0"
	Mode      GraphMode // merge or remove
	Selective bool      // prefer installed packages over new versions
	Deep      bool      // follow dependencies of dependencies
	RootSet   string    // when set, atoms hang below a synthetic set node
}

// GraphBuilder constructs dependency graphs.
type GraphBuilder interface {
	Build(ctx context.Context, req GraphRequest) (*Graph, error)
}

// BuildGraph runs the builder and refuses anything but a complete graph.
func BuildGraph(ctx context.Context, b GraphBuilder, req GraphRequest) (*Graph, error) {
	g, err := b.Build(ctx, req)
	if err != nil {
		var re *ResolutionError
		if errors.As(err, &re) || errors.Is(err, ErrStoreUnavailable) {
			return nil, err
		}
		return nil, &ResolutionError{Reason: "graph builder failed", Err: err}
	}
	if g == nil || !g.Complete {
		re := &ResolutionError{Reason: "graph is incomplete"}
		if g != nil {
			re.Unsatisfied = g.Unsatisfied
		}
		return nil, re
	}
	return g, nil
}

// Walker traverses a graph. Each call uses its own visited set, so a
// Walker can serve concurrent callers.
type Walker struct {
	g *Graph
}

// NewWalker creates a walker over g.
func NewWalker(g *Graph) *Walker {
	return &Walker{g: g}
}

// Ascend returns the nodes that depend on start: direct parents, or every
// ancestor when recursive. Synthetic nodes are passed through but never
// returned. start itself is never returned.
func (w *Walker) Ascend(start *Node, recursive bool) []*Node {
	return walk(start, recursive, (*Node).Parents)
}

// Descend returns the nodes start depends on, symmetric to Ascend.
func (w *Walker) Descend(start *Node, recursive bool) []*Node {
	return walk(start, recursive, (*Node).Children)
}

func walk(start *Node, recursive bool, next func(*Node) []*Node) []*Node {
	if start == nil {
		return nil
	}

	visited := map[*Node]bool{start: true}
	var out []*Node

	var visit func(n *Node, follow bool)
	visit = func(n *Node, follow bool) {
		for _, m := range next(n) {
			if visited[m] {
				continue
			}
			visited[m] = true
			if m.Synthetic() {
				// Request nodes are transparent in both modes.
				visit(m, follow)
				continue
			}
			out = append(out, m)
			if follow {
				visit(m, follow)
			}
		}
	}
	visit(start, recursive)
	return out
}
