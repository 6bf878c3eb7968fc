package pkg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-pkresolve/version"
)

// Metadata holds the descriptive fields of one package version.
type Metadata struct {
	Description string
	Homepage    string
	License     string   // license expression, e.g. "|| ( MIT GPL-2 )"
	Keywords    []string // raw KEYWORDS of the package
	Use         []string // enabled USE flags, used for conditional licenses
	Size        int64    // download size in bytes, 0 when installed
	Repository  string
}

// VersionComparator orders two versions of the same logical package.
// It returns 1, 0 or -1 when a is greater than, equal to or less than b.
type VersionComparator interface {
	CompareVersions(a, b Identity) (int, error)
}

// MetadataStore is the package database the engine queries. Lists of
// identities are returned in ascending version order. Available lists only
// contain entries visible under the current keyword and mask policy.
type MetadataStore interface {
	VersionComparator

	InstalledNames(ctx context.Context) ([]string, error)
	AvailableNames(ctx context.Context) ([]string, error)
	Installed(ctx context.Context, name string) ([]Identity, error)
	Available(ctx context.Context, name string) ([]Identity, error)

	// IsInstalled reports whether name-version-revision is installed,
	// regardless of the origin of id.
	IsInstalled(ctx context.Context, id Identity) (bool, error)

	// IsVisible reports whether the version of id is still offered by a
	// repository and not masked.
	IsVisible(ctx context.Context, id Identity) (bool, error)

	Metadata(ctx context.Context, id Identity) (Metadata, error)
	Files(ctx context.Context, id Identity) ([]string, error)

	// LicenseGroups returns the license group definitions, keyed by group
	// name without the leading '@'.
	LicenseGroups(ctx context.Context) (map[string][]string, error)
}

// Set names understood by SetSource.
const (
	SetSystem   = "system"
	SetWorld    = "world"
	SetSecurity = "security"
)

// SetSource supplies the atoms of named package sets.
type SetSource interface {
	SetAtoms(ctx context.Context, set string) ([]version.Atom, error)
}

// Repo describes a package repository (overlay).
type Repo struct {
	Name        string
	Description string
	Enabled     bool
	Official    bool
	Supported   bool
}

// RepoManager lists repositories and toggles them.
type RepoManager interface {
	Repos(ctx context.Context) ([]Repo, error)
	SetRepoEnabled(ctx context.Context, name string, enabled bool) error
}

// timeoutStore bounds every store call with a deadline.
type timeoutStore struct {
	MetadataStore
	timeout time.Duration
}

// WithTimeout wraps store so that every context-taking call returns a
// *StoreError once it exceeds d or fails. A zero or negative d disables
// the deadline but still wraps errors. Calls are not retried.
func WithTimeout(store MetadataStore, d time.Duration) MetadataStore {
	return &timeoutStore{MetadataStore: store, timeout: d}
}

// call runs fn under the store deadline. fn keeps running in the background
// if the deadline passes; its result is discarded.
func call[T any](ctx context.Context, s *timeoutStore, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if s.timeout <= 0 {
		v, err := fn(ctx)
		if err != nil {
			return zero, wrapStoreError(op, err)
		}
		return v, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return zero, wrapStoreError(op, r.err)
		}
		return r.v, nil
	case <-ctx.Done():
		return zero, &StoreError{Op: op, Err: fmt.Errorf("no answer after %s: %w", s.timeout, ctx.Err())}
	}
}

// wrapStoreError keeps lookup misses as they are; everything else means the
// store could not answer.
func wrapStoreError(op string, err error) error {
	if errors.Is(err, ErrPackageNotFound) || errors.Is(err, ErrNotInstalled) || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

func (s *timeoutStore) InstalledNames(ctx context.Context) ([]string, error) {
	return call(ctx, s, "installed-names", s.MetadataStore.InstalledNames)
}

func (s *timeoutStore) AvailableNames(ctx context.Context) ([]string, error) {
	return call(ctx, s, "available-names", s.MetadataStore.AvailableNames)
}

func (s *timeoutStore) Installed(ctx context.Context, name string) ([]Identity, error) {
	return call(ctx, s, "installed", func(ctx context.Context) ([]Identity, error) {
		return s.MetadataStore.Installed(ctx, name)
	})
}

func (s *timeoutStore) Available(ctx context.Context, name string) ([]Identity, error) {
	return call(ctx, s, "available", func(ctx context.Context) ([]Identity, error) {
		return s.MetadataStore.Available(ctx, name)
	})
}

func (s *timeoutStore) IsInstalled(ctx context.Context, id Identity) (bool, error) {
	return call(ctx, s, "is-installed", func(ctx context.Context) (bool, error) {
		return s.MetadataStore.IsInstalled(ctx, id)
	})
}

func (s *timeoutStore) IsVisible(ctx context.Context, id Identity) (bool, error) {
	return call(ctx, s, "is-visible", func(ctx context.Context) (bool, error) {
		return s.MetadataStore.IsVisible(ctx, id)
	})
}

func (s *timeoutStore) Metadata(ctx context.Context, id Identity) (Metadata, error) {
	return call(ctx, s, "metadata", func(ctx context.Context) (Metadata, error) {
		return s.MetadataStore.Metadata(ctx, id)
	})
}

func (s *timeoutStore) Files(ctx context.Context, id Identity) ([]string, error) {
	return call(ctx, s, "files", func(ctx context.Context) ([]string, error) {
		return s.MetadataStore.Files(ctx, id)
	})
}

func (s *timeoutStore) LicenseGroups(ctx context.Context) (map[string][]string, error) {
	return call(ctx, s, "license-groups", s.MetadataStore.LicenseGroups)
}
