package pkg

import (
	"context"

	"go-pkresolve/log"
)

// Enumerator lists logical packages and their identities, merging the
// installed database with the repositories.
type Enumerator struct {
	store   MetadataStore
	workers int
	logger  log.LibraryLogger
}

// NewEnumerator creates an enumerator. workers bounds the parallel prefetch
// done by Each; values below one mean sequential.
func NewEnumerator(store MetadataStore, workers int, logger log.LibraryLogger) *Enumerator {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = log.NoOpLogger{}
	}
	return &Enumerator{store: store, workers: workers, logger: logger}
}

// AllNames returns logical package names. Without an installed-state
// filter, installed names come first followed by available names not
// already listed.
func (e *Enumerator) AllNames(ctx context.Context, f FilterSpec) ([]string, error) {
	switch {
	case f.Installed:
		return e.store.InstalledNames(ctx)
	case f.NotInstalled:
		return e.store.AvailableNames(ctx)
	}

	installed, err := e.store.InstalledNames(ctx)
	if err != nil {
		return nil, err
	}
	available, err := e.store.AvailableNames(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(installed)+len(available))
	names := make([]string, 0, len(installed)+len(available))
	for _, list := range [][]string{installed, available} {
		for _, n := range list {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names, nil
}

// AllIdentities returns the identities of one logical package. Available
// identities whose version is installed are left out, so a version appears
// once, as installed.
func (e *Enumerator) AllIdentities(ctx context.Context, name string, f FilterSpec) ([]Identity, error) {
	var installed, available []Identity
	var err error

	if !f.NotInstalled {
		if installed, err = e.store.Installed(ctx, name); err != nil {
			return nil, err
		}
		installed = dedup(installed)
		if f.Installed {
			return installed, nil
		}
	}

	if available, err = e.store.Available(ctx, name); err != nil {
		return nil, err
	}
	available = dedup(available)

	// ~installed needs the installed versions even though it lists none.
	if f.NotInstalled {
		if installed, err = e.store.Installed(ctx, name); err != nil {
			return nil, err
		}
	}

	present := make(map[VersionKey]bool, len(installed))
	for _, id := range installed {
		present[id.VersionKey()] = true
	}

	var out []Identity
	if !f.NotInstalled {
		out = append(out, installed...)
	}
	for _, id := range available {
		if !present[id.VersionKey()] {
			out = append(out, id)
		}
	}
	return out, nil
}

func dedup(ids []Identity) []Identity {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[Key]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		k := id.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, id)
	}
	return out
}
