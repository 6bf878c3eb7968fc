package pkgdb

import (
	"context"
	"fmt"
	"strings"

	"go-pkresolve/log"
	"go-pkresolve/pkg"
	"go-pkresolve/version"
)

// GraphBuilder builds dependency graphs from the DEPEND and RDEPEND atoms
// stored with each entry.
//
// In merge mode every requested atom is resolved like an install would:
// an installed match becomes a nomerge node, otherwise the best visible
// repository version becomes a merge node. Dependencies of merge nodes are
// always followed; dependencies of nomerge nodes only with Deep. An atom
// without any match marks the graph incomplete.
//
// In remove mode only installed packages take part. Dependencies that are
// not installed are skipped, as an uninstall never pulls anything in.
type GraphBuilder struct {
	db     *DB
	store  pkg.MetadataStore
	logger log.LibraryLogger
}

var _ pkg.GraphBuilder = (*GraphBuilder)(nil)

// NewGraphBuilder returns a builder reading entries from db and candidate
// lists from store. store is normally db wrapped by pkg.WithTimeout.
func NewGraphBuilder(db *DB, store pkg.MetadataStore, logger log.LibraryLogger) *GraphBuilder {
	if store == nil {
		store = db
	}
	if logger == nil {
		logger = log.NoOpLogger{}
	}
	return &GraphBuilder{db: db, store: store, logger: logger}
}

type buildState struct {
	req   pkg.GraphRequest
	g     *pkg.Graph
	queue []*pkg.Node
}

// Build constructs the graph for req.
func (b *GraphBuilder) Build(ctx context.Context, req pkg.GraphRequest) (*pkg.Graph, error) {
	st := &buildState{req: req, g: pkg.NewGraph()}

	var root *pkg.Node
	if req.RootSet != "" {
		root = st.g.AddNode(&pkg.Node{Kind: pkg.NodeSet, Label: req.RootSet})
	}

	for _, raw := range req.Atoms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		atom, err := version.ParseAtom(raw)
		if err != nil {
			return nil, &pkg.ResolutionError{Reason: "bad request atom", Unsatisfied: []string{raw}, Err: err}
		}

		an := st.g.AddNode(&pkg.Node{Kind: pkg.NodeAtom, Label: raw})
		if root != nil {
			st.g.AddEdge(root, an)
		}

		n, err := b.resolve(ctx, st, atom, true)
		if err != nil {
			return nil, err
		}
		if n == nil {
			b.unsatisfied(st, raw)
			continue
		}
		st.g.AddEdge(an, n)
	}

	for len(st.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := st.queue[0]
		st.queue = st.queue[1:]
		if err := b.expand(ctx, st, n); err != nil {
			return nil, err
		}
	}

	b.logger.Debug("graph: %s mode, %d nodes, complete=%v", req.Mode, st.g.Len(), st.g.Complete)
	return st.g, nil
}

// expand adds the dependencies of n.
func (b *GraphBuilder) expand(ctx context.Context, st *buildState, n *pkg.Node) error {
	deps, err := b.db.Depends(ctx, n.ID)
	if err != nil {
		return err
	}
	for _, raw := range deps {
		if strings.HasPrefix(raw, "!") {
			continue // blockers do not add edges
		}
		atom, err := version.ParseAtom(raw)
		if err != nil {
			b.logger.Warn("graph: %s: skipping dependency %v", n.ID.CPV(), err)
			continue
		}
		child, err := b.resolve(ctx, st, atom, false)
		if err != nil {
			return err
		}
		if child == nil {
			if st.req.Mode == pkg.ModeRemove {
				continue
			}
			b.unsatisfied(st, raw)
			continue
		}
		if child != n {
			st.g.AddEdge(n, child)
		}
	}
	return nil
}

// resolve finds or creates the node satisfying atom. It returns nil when
// nothing matches.
func (b *GraphBuilder) resolve(ctx context.Context, st *buildState, atom version.Atom, requested bool) (*pkg.Node, error) {
	installed, err := b.store.Installed(ctx, atom.Name)
	if err != nil {
		return nil, err
	}
	inst, err := bestMatch(b.store, atom, installed)
	if err != nil {
		return nil, err
	}

	if st.req.Mode == pkg.ModeRemove {
		if inst == nil {
			return nil, nil
		}
		return b.add(st, *inst, pkg.OpNoMerge, true), nil
	}

	// A requested exact version is merged unless it is the installed one,
	// whatever Selective says. Dependencies prefer the installed match.
	preferInstalled := st.req.Selective || !requested || !atom.HasVersion()
	if inst != nil && preferInstalled {
		return b.add(st, *inst, pkg.OpNoMerge, st.req.Deep), nil
	}

	available, err := b.store.Available(ctx, atom.Name)
	if err != nil {
		return nil, err
	}
	avail, err := bestMatch(b.store, atom, available)
	if err != nil {
		return nil, err
	}
	if avail == nil {
		if inst != nil {
			return b.add(st, *inst, pkg.OpNoMerge, st.req.Deep), nil
		}
		return nil, nil
	}
	if inst != nil && inst.VersionKey() == avail.VersionKey() {
		return b.add(st, *inst, pkg.OpNoMerge, st.req.Deep), nil
	}
	return b.add(st, *avail, pkg.OpMerge, true), nil
}

// add inserts a package node and queues it for expansion the first time
// it is seen.
func (b *GraphBuilder) add(st *buildState, id pkg.Identity, op pkg.Operation, follow bool) *pkg.Node {
	before := st.g.Len()
	n := st.g.AddNode(&pkg.Node{ID: id, Kind: pkg.NodePackage, Operation: op})
	if st.g.Len() > before && follow {
		st.queue = append(st.queue, n)
	}
	return n
}

func (b *GraphBuilder) unsatisfied(st *buildState, atom string) {
	st.g.Complete = false
	for _, a := range st.g.Unsatisfied {
		if a == atom {
			return
		}
	}
	st.g.Unsatisfied = append(st.g.Unsatisfied, atom)
	b.logger.Debug("graph: unsatisfied %s", atom)
}

// bestMatch returns the greatest candidate matching atom, or nil.
func bestMatch(cmp pkg.VersionComparator, atom version.Atom, candidates []pkg.Identity) (*pkg.Identity, error) {
	var matches []pkg.Identity
	for _, id := range candidates {
		ok, err := atom.Match(id.Name, id.Version, id.Revision, id.Slot)
		if err != nil {
			return nil, fmt.Errorf("match %s against %s: %w", id.CPV(), atom, err)
		}
		if ok {
			matches = append(matches, id)
		}
	}
	best, ok, err := pkg.MaxBy(cmp, matches)
	if err != nil || !ok {
		return nil, err
	}
	return &best, nil
}
