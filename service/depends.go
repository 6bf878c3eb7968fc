package service

import (
	"context"
	"strings"

	"go-pkresolve/pkg"
)

// requiresRootSet names the synthetic root of the installed graph.
const requiresRootSet = "installed"

// GetDepends lists the dependencies of the given packages: direct ones, or
// the whole closure when recursive. The graph is resolved the way a
// selective deep merge of the inputs would be, so installed versions are
// preferred. Packages that would be uninstalled and the inputs themselves
// are not listed.
func (s *Service) GetDepends(ctx context.Context, filters string, ids []string, recursive bool, sink Sink) error {
	args := filters + " " + strings.Join(ids, " ")
	return s.run(ctx, OpGetDepends, args, sink, func(ctx context.Context, q *query) error {
		spec, err := pkg.ParseFilters(filters)
		if err != nil {
			return err
		}
		p, err := q.pipeline(ctx, spec)
		if err != nil {
			return err
		}

		inputs, err := q.lookupAll(ctx, ids)
		if err != nil || len(inputs) == 0 {
			return err
		}

		atoms := make([]string, len(inputs))
		for i, id := range inputs {
			atoms[i] = "=" + id.CPV()
		}
		g, err := pkg.BuildGraph(ctx, q.svc.graph, pkg.GraphRequest{
			Atoms:     atoms,
			Mode:      pkg.ModeMerge,
			Selective: true,
			Deep:      true,
		})
		if err != nil {
			return err
		}

		w := pkg.NewWalker(g)
		var nodes []*pkg.Node
		for _, atom := range atoms {
			an := g.FindAtom(atom)
			if an == nil {
				continue
			}
			for _, pn := range an.Children() {
				nodes = append(nodes, w.Descend(pn, recursive)...)
			}
		}

		var deps []pkg.Identity
		for _, n := range uniqueNodes(nodes) {
			switch {
			case n.Operation == pkg.OpUninstall:
			case spec.Installed && !n.ID.IsInstalled():
			case spec.NotInstalled && n.ID.IsInstalled():
			default:
				deps = append(deps, n.ID)
			}
		}
		return q.emitFiltered(ctx, p, deps, inputs)
	})
}

// GetRequires lists the installed packages that depend on the given ones:
// direct dependents, or every ancestor when recursive. Only installed
// packages can be asked about, so the not-installed filter is rejected.
func (s *Service) GetRequires(ctx context.Context, filters string, ids []string, recursive bool, sink Sink) error {
	args := filters + " " + strings.Join(ids, " ")
	return s.run(ctx, OpGetRequires, args, sink, func(ctx context.Context, q *query) error {
		spec, err := pkg.ParseFilters(filters)
		if err != nil {
			return err
		}
		if spec.NotInstalled {
			return &pkg.OpError{Op: OpGetRequires, Err: pkg.ErrFilterNotSupported}
		}
		p, err := q.pipeline(ctx, spec)
		if err != nil {
			return err
		}

		found, err := q.lookupAll(ctx, ids)
		if err != nil {
			return err
		}
		var inputs []pkg.Identity
		for _, id := range found {
			if !id.IsInstalled() {
				q.itemError(&pkg.OpError{Op: OpGetRequires, ID: pkg.EncodeID(id), Err: pkg.ErrNotInstalled})
				continue
			}
			inputs = append(inputs, id)
		}
		if len(inputs) == 0 {
			return nil
		}

		atoms, err := q.installedAtoms(ctx)
		if err != nil {
			return err
		}
		g, err := pkg.BuildGraph(ctx, q.svc.graph, pkg.GraphRequest{
			Atoms:     atoms,
			Mode:      pkg.ModeRemove,
			Selective: true,
			Deep:      true,
			RootSet:   requiresRootSet,
		})
		if err != nil {
			return err
		}

		w := pkg.NewWalker(g)
		var nodes []*pkg.Node
		for _, id := range inputs {
			nodes = append(nodes, w.Ascend(g.FindPackage(id.VersionKey()), recursive)...)
		}

		reqs := make([]pkg.Identity, 0, len(nodes))
		for _, n := range uniqueNodes(nodes) {
			reqs = append(reqs, n.ID)
		}
		return q.emitFiltered(ctx, p, reqs, inputs)
	})
}

// lookupAll resolves identifiers, reporting failures per item.
func (q *query) lookupAll(ctx context.Context, ids []string) ([]pkg.Identity, error) {
	out := make([]pkg.Identity, 0, len(ids))
	for _, raw := range ids {
		id, ok, err := q.lookup(ctx, raw)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// installedAtoms returns an exact atom for every installed package.
func (q *query) installedAtoms(ctx context.Context) ([]string, error) {
	spec := pkg.FilterSpec{Installed: true}
	enum := q.enumerator()
	names, err := enum.AllNames(ctx, spec)
	if err != nil {
		return nil, err
	}
	var atoms []string
	err = enum.Each(ctx, names, spec, func(name string, ids []pkg.Identity, err error) error {
		if err != nil {
			return err
		}
		for _, id := range ids {
			atoms = append(atoms, "="+id.CPV())
		}
		return nil
	})
	return atoms, err
}

// emitFiltered applies the license stage and emits ids, hiding inputs.
func (q *query) emitFiltered(ctx context.Context, p *pkg.Pipeline, ids, inputs []pkg.Identity) error {
	ids, err := p.ApplyLicense(ctx, ids)
	if err != nil {
		return err
	}
	hidden := make(map[pkg.VersionKey]bool, len(inputs))
	for _, id := range inputs {
		hidden[id.VersionKey()] = true
	}
	for _, id := range ids {
		if hidden[id.VersionKey()] {
			continue
		}
		if err := q.emit(ctx, id, pkg.InfoFor(id)); err != nil {
			return err
		}
	}
	return nil
}

// uniqueNodes drops repeated nodes, keeping the first occurrence.
func uniqueNodes(nodes []*pkg.Node) []*pkg.Node {
	seen := make(map[*pkg.Node]bool, len(nodes))
	out := nodes[:0:0]
	for _, n := range nodes {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
