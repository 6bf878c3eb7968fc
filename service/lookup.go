package service

import (
	"context"
	"errors"

	"github.com/sahilm/fuzzy"

	"go-pkresolve/pkg"
)

// maxSuggestions bounds the names offered with a not-found error.
const maxSuggestions = 3

// nameSource adapts a name list to fuzzy.Source.
type nameSource []string

func (n nameSource) String(i int) string { return n[i] }
func (n nameSource) Len() int            { return len(n) }

// suggest returns up to three known names closest to name, best first.
func (q *query) suggest(ctx context.Context, name string) ([]string, error) {
	names, err := q.enumerator().AllNames(ctx, pkg.FilterSpec{})
	if err != nil {
		return nil, err
	}
	matches := fuzzy.FindFrom(name, nameSource(names))
	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Str
	}
	return out, nil
}

// notFound reports id as a per-item PackageNotFound error with suggestions
// for name.
func (q *query) notFound(ctx context.Context, id string) error {
	name := id
	if decoded, err := pkg.DecodeID(id); err == nil {
		name = decoded.Name
	}
	suggestions, err := q.suggest(ctx, name)
	if err != nil {
		return err
	}
	q.itemError(&pkg.PackageNotFoundError{ID: id, Suggestions: suggestions})
	return nil
}

// lookup decodes a package identifier and resolves it against the store.
// An installed version resolves to its installed identity whatever origin
// the identifier names; otherwise the repository entry must exist, masked
// or not. Per-item failures are reported to the sink and ok is false.
func (q *query) lookup(ctx context.Context, raw string) (id pkg.Identity, ok bool, err error) {
	decoded, err := pkg.DecodeID(raw)
	if err != nil {
		q.itemError(err)
		return pkg.Identity{}, false, nil
	}
	store := q.svc.store

	installed, err := store.IsInstalled(ctx, decoded)
	if err != nil {
		return pkg.Identity{}, false, err
	}
	if installed {
		ids, err := store.Installed(ctx, decoded.Name)
		if err != nil {
			return pkg.Identity{}, false, err
		}
		for _, cand := range ids {
			if cand.VersionKey() == decoded.VersionKey() {
				return cand, true, nil
			}
		}
	}

	if !decoded.IsInstalled() {
		ids, err := store.Available(ctx, decoded.Name)
		if err != nil {
			return pkg.Identity{}, false, err
		}
		for _, cand := range ids {
			if cand.VersionKey() == decoded.VersionKey() && cand.Origin == decoded.Origin {
				return cand, true, nil
			}
		}
		// Masked or unkeyworded entries are not listed but still exist.
		if _, err := store.Metadata(ctx, decoded); err == nil {
			return decoded, true, nil
		} else if !errors.Is(err, pkg.ErrPackageNotFound) {
			return pkg.Identity{}, false, err
		}
	}

	return pkg.Identity{}, false, q.notFound(ctx, raw)
}
