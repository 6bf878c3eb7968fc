package pkgdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"

	"go-pkresolve/pkg"
	"go-pkresolve/version"
)

// Compile-time interface checks
var (
	_ pkg.MetadataStore = (*DB)(nil)
	_ pkg.SetSource     = (*DB)(nil)
	_ pkg.RepoManager   = (*DB)(nil)
)

// CompareVersions orders two versions with the package version grammar.
func (db *DB) CompareVersions(a, b pkg.Identity) (int, error) {
	return version.CompareStrings(identityPVR(a), identityPVR(b))
}

// InstalledNames returns the names of installed packages in key order.
func (db *DB) InstalledNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var names []string
	err := db.view(BucketInstalled, func(b *bolt.Bucket) error {
		return b.ForEach(func(k, _ []byte) error {
			names = appendName(names, nameOfKey(k))
			return nil
		})
	})
	return names, err
}

// AvailableNames returns the names with at least one visible repository
// entry.
func (db *DB) AvailableNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var names []string
	err := db.viewTx(func(tx *bolt.Tx) error {
		repo, err := bucketOf(tx, BucketRepository)
		if err != nil {
			return err
		}
		disabled, err := disabledRepos(tx)
		if err != nil {
			return err
		}
		return repo.ForEach(func(k, v []byte) error {
			name := nameOfKey(k)
			if len(names) > 0 && names[len(names)-1] == name {
				return nil
			}
			var e Entry
			if err := unmarshalEntry(k, v, &e); err != nil {
				return err
			}
			if db.visible(&e, disabled) {
				names = append(names, name)
			}
			return nil
		})
	})
	return names, err
}

func appendName(names []string, name string) []string {
	if len(names) > 0 && names[len(names)-1] == name {
		return names
	}
	return append(names, name)
}

// Installed returns the installed versions of name, ascending.
func (db *DB) Installed(ctx context.Context, name string) ([]pkg.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var ids []pkg.Identity
	err := db.view(BucketInstalled, func(b *bolt.Bucket) error {
		return scanPrefix(b, namePrefix(name), func(e *Entry) error {
			ids = append(ids, db.installedIdentity(e))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return db.sortAscending(ids)
}

// Available returns the visible repository versions of name, ascending.
// The same version offered by several repositories appears once per
// repository.
func (db *DB) Available(ctx context.Context, name string) ([]pkg.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var ids []pkg.Identity
	err := db.viewTx(func(tx *bolt.Tx) error {
		repo, err := bucketOf(tx, BucketRepository)
		if err != nil {
			return err
		}
		disabled, err := disabledRepos(tx)
		if err != nil {
			return err
		}
		return scanPrefix(repo, namePrefix(name), func(e *Entry) error {
			if db.visible(e, disabled) {
				ids = append(ids, db.repositoryIdentity(e))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return db.sortAscending(ids)
}

// IsInstalled reports whether the version of id is installed.
func (db *DB) IsInstalled(ctx context.Context, id pkg.Identity) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var found bool
	err := db.view(BucketInstalled, func(b *bolt.Bucket) error {
		found = b.Get([]byte(installedKey(id.Name, identityPVR(id)))) != nil
		return nil
	})
	return found, err
}

// IsVisible reports whether any enabled repository still offers the
// version of id unmasked and with an accepted keyword.
func (db *DB) IsVisible(ctx context.Context, id pkg.Identity) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var visible bool
	err := db.viewTx(func(tx *bolt.Tx) error {
		repo, err := bucketOf(tx, BucketRepository)
		if err != nil {
			return err
		}
		disabled, err := disabledRepos(tx)
		if err != nil {
			return err
		}
		prefix := []byte(installedKey(id.Name, identityPVR(id)) + sep)
		return scanPrefix(repo, prefix, func(e *Entry) error {
			if db.visible(e, disabled) {
				visible = true
			}
			return nil
		})
	})
	return visible, err
}

// Metadata returns the record behind id. Installed identities read the
// installed bucket, others the entry of their repository.
func (db *DB) Metadata(ctx context.Context, id pkg.Identity) (pkg.Metadata, error) {
	e, err := db.entry(ctx, id)
	if err != nil {
		return pkg.Metadata{}, err
	}
	return e.metadata(id.IsInstalled()), nil
}

// Files returns the sorted file list of an installed package.
func (db *DB) Files(ctx context.Context, id pkg.Identity) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var e Entry
	var found bool
	err := db.view(BucketInstalled, func(b *bolt.Bucket) error {
		var err error
		found, err = getJSON(b, installedKey(id.Name, identityPVR(id)), &e)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", id.CPV(), pkg.ErrNotInstalled)
	}
	files := append([]string(nil), e.Files...)
	sort.Strings(files)
	return files, nil
}

// Depends returns the DEPEND and RDEPEND atoms of id.
func (db *DB) Depends(ctx context.Context, id pkg.Identity) ([]string, error) {
	e, err := db.entry(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.deps(), nil
}

// LicenseGroups returns the license group definitions.
func (db *DB) LicenseGroups(ctx context.Context) (map[string][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	groups := make(map[string][]string)
	err := db.view(BucketLicenseGroups, func(b *bolt.Bucket) error {
		return b.ForEach(func(k, v []byte) error {
			var members []string
			if _, err := getJSON(b, string(k), &members); err != nil {
				return err
			}
			groups[string(k)] = members
			return nil
		})
	})
	return groups, err
}

// SetAtoms returns the atoms of a package set. Atoms that no longer parse
// are skipped with a warning.
func (db *DB) SetAtoms(ctx context.Context, set string) ([]version.Atom, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var raw []string
	err := db.view(BucketSets, func(b *bolt.Bucket) error {
		_, err := getJSON(b, set, &raw)
		return err
	})
	if err != nil {
		return nil, err
	}

	atoms := make([]version.Atom, 0, len(raw))
	for _, s := range raw {
		a, err := version.ParseAtom(s)
		if err != nil {
			db.logger.Warn("set %s: skipping %v", set, err)
			continue
		}
		atoms = append(atoms, a)
	}
	return atoms, nil
}

// Repos lists the known repositories by name.
func (db *DB) Repos(ctx context.Context) ([]pkg.Repo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var repos []pkg.Repo
	err := db.view(BucketRepos, func(b *bolt.Bucket) error {
		return b.ForEach(func(k, _ []byte) error {
			var r pkg.Repo
			if _, err := getJSON(b, string(k), &r); err != nil {
				return err
			}
			repos = append(repos, r)
			return nil
		})
	})
	return repos, err
}

// SetRepoEnabled toggles a repository. Unknown names return
// pkg.ErrRepoNotFound.
func (db *DB) SetRepoEnabled(ctx context.Context, name string, enabled bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return db.update("repo enable", func(tx *bolt.Tx) error {
		b, err := bucketOf(tx, BucketRepos)
		if err != nil {
			return err
		}
		var r pkg.Repo
		found, err := getJSON(b, name, &r)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%s: %w", name, pkg.ErrRepoNotFound)
		}
		if r.Enabled == enabled {
			return nil
		}
		r.Enabled = enabled
		return putJSON(b, name, &r)
	})
}

// entry loads the record behind id.
func (db *DB) entry(ctx context.Context, id pkg.Identity) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bucket, key := BucketRepository, repositoryKey(id.Name, identityPVR(id), id.Origin.Repository)
	if id.IsInstalled() {
		bucket, key = BucketInstalled, installedKey(id.Name, identityPVR(id))
	}

	var e Entry
	var found bool
	err := db.view(bucket, func(b *bolt.Bucket) error {
		var err error
		found, err = getJSON(b, key, &e)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &pkg.PackageNotFoundError{ID: id.CPV()}
	}
	return &e, nil
}

func (db *DB) installedIdentity(e *Entry) pkg.Identity {
	kw := db.accept.intersect(e.Keywords)
	if len(kw) == 0 && len(e.Keywords) > 0 {
		db.logger.Warn("%s: no accepted keyword among %v", e.label(), e.Keywords)
	}
	return pkg.NewIdentity(e.Name, e.Version, e.Revision, version.MainSlot(e.Slot), kw, pkg.Installed())
}

func (db *DB) repositoryIdentity(e *Entry) pkg.Identity {
	return pkg.NewIdentity(e.Name, e.Version, e.Revision, version.MainSlot(e.Slot),
		db.accept.intersect(e.Keywords), pkg.Repository(e.Repository))
}

// visible applies the mask, repository and keyword policy.
func (db *DB) visible(e *Entry, disabled map[string]bool) bool {
	if e.Masked || disabled[e.Repository] {
		return false
	}
	return len(db.accept.intersect(e.Keywords)) > 0
}

func (db *DB) sortAscending(ids []pkg.Identity) ([]pkg.Identity, error) {
	var cmpErr error
	sort.SliceStable(ids, func(i, j int) bool {
		c, err := db.CompareVersions(ids[i], ids[j])
		if err != nil && cmpErr == nil {
			cmpErr = err
		}
		return c < 0
	})
	if cmpErr != nil {
		return nil, &RecordError{Op: "sort", Key: ids[0].Name, Err: fmt.Errorf("%w: %v", ErrCorruptedData, cmpErr)}
	}
	return ids, nil
}

func disabledRepos(tx *bolt.Tx) (map[string]bool, error) {
	b, err := bucketOf(tx, BucketRepos)
	if err != nil {
		return nil, err
	}
	disabled := make(map[string]bool)
	err = b.ForEach(func(k, _ []byte) error {
		var r pkg.Repo
		if _, err := getJSON(b, string(k), &r); err != nil {
			return err
		}
		if !r.Enabled {
			disabled[r.Name] = true
		}
		return nil
	})
	return disabled, err
}

func scanPrefix(b *bolt.Bucket, prefix []byte, fn func(e *Entry) error) error {
	c := b.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		var e Entry
		if err := unmarshalEntry(k, v, &e); err != nil {
			return err
		}
		if err := fn(&e); err != nil {
			return err
		}
	}
	return nil
}

func unmarshalEntry(k, v []byte, e *Entry) error {
	if err := json.Unmarshal(v, e); err != nil {
		return &RecordError{Op: "unmarshal", Key: string(bytes.ReplaceAll(k, []byte(sep), []byte(" "))),
			Err: fmt.Errorf("%w: %v", ErrCorruptedData, err)}
	}
	return nil
}
