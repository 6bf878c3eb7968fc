package pkgdb

import (
	"context"
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"

	"go-pkresolve/pkg"
	"go-pkresolve/version"
)

// PutInstalled records an installed package version, replacing any record
// of the same version.
func (db *DB) PutInstalled(e Entry) error {
	if err := e.Normalize(); err != nil {
		return err
	}
	return db.update("put installed", func(tx *bolt.Tx) error {
		return putEntry(tx, BucketInstalled, installedKey(e.Name, e.PVR()), &e)
	})
}

// PutAvailable records a repository package version. Entries without a
// repository land in the default one.
func (db *DB) PutAvailable(e Entry) error {
	if err := e.Normalize(); err != nil {
		return err
	}
	if e.Repository == "" {
		e.Repository = DefaultRepository
	}
	return db.update("put available", func(tx *bolt.Tx) error {
		return putEntry(tx, BucketRepository, repositoryKey(e.Name, e.PVR(), e.Repository), &e)
	})
}

// RemoveInstalled deletes an installed record. Missing records return
// ErrRecordNotFound.
func (db *DB) RemoveInstalled(id pkg.Identity) error {
	key := installedKey(id.Name, identityPVR(id))
	return db.update("remove installed", func(tx *bolt.Tx) error {
		b, err := bucketOf(tx, BucketInstalled)
		if err != nil {
			return err
		}
		if b.Get([]byte(key)) == nil {
			return &RecordError{Op: "remove", Key: id.CPV(), Err: ErrRecordNotFound}
		}
		return b.Delete([]byte(key))
	})
}

// PutSet replaces the atoms of a package set. Every atom must parse.
func (db *DB) PutSet(name string, atoms []string) error {
	if name == "" {
		return &ValidationError{Field: "set", Err: ErrEmptyName}
	}
	for _, a := range atoms {
		if _, err := version.ParseAtom(a); err != nil {
			return &ValidationError{Field: "set " + name, Value: a, Err: err}
		}
	}
	return db.update("put set", func(tx *bolt.Tx) error {
		b, err := bucketOf(tx, BucketSets)
		if err != nil {
			return err
		}
		return putJSON(b, name, atoms)
	})
}

// AddToSet appends atoms to a set, skipping atoms already present. It
// returns the number of atoms added.
func (db *DB) AddToSet(ctx context.Context, name string, atoms []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var current []string
	if err := db.view(BucketSets, func(b *bolt.Bucket) error {
		_, err := getJSON(b, name, &current)
		return err
	}); err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(current))
	for _, a := range current {
		seen[a] = true
	}
	added := 0
	for _, a := range atoms {
		if !seen[a] {
			seen[a] = true
			current = append(current, a)
			added++
		}
	}
	if added == 0 {
		return 0, nil
	}
	return added, db.PutSet(name, current)
}

// SetNames lists the stored package sets.
func (db *DB) SetNames() ([]string, error) {
	var names []string
	err := db.view(BucketSets, func(b *bolt.Bucket) error {
		return b.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// PutLicenseGroup defines a license group. Members may reference other
// groups with a leading '@'.
func (db *DB) PutLicenseGroup(name string, members []string) error {
	if name == "" {
		return &ValidationError{Field: "license group", Err: ErrEmptyName}
	}
	return db.update("put license group", func(tx *bolt.Tx) error {
		b, err := bucketOf(tx, BucketLicenseGroups)
		if err != nil {
			return err
		}
		return putJSON(b, name, members)
	})
}

// PutRepo records a repository.
func (db *DB) PutRepo(r pkg.Repo) error {
	if r.Name == "" {
		return &ValidationError{Field: "repository", Err: ErrEmptyName}
	}
	return db.update("put repo", func(tx *bolt.Tx) error {
		b, err := bucketOf(tx, BucketRepos)
		if err != nil {
			return err
		}
		return putJSON(b, r.Name, &r)
	})
}

func putEntry(tx *bolt.Tx, bucket, key string, e *Entry) error {
	b, err := bucketOf(tx, bucket)
	if err != nil {
		return err
	}
	if len(e.Files) > 1 && !sort.StringsAreSorted(e.Files) {
		e.Files = append([]string(nil), e.Files...)
		sort.Strings(e.Files)
	}
	if err := putJSON(b, key, e); err != nil {
		return &RecordError{Op: "put", Key: e.label(), Err: err}
	}
	return nil
}

// clearBuckets empties the package trees before a replacing import.
func clearBuckets(tx *bolt.Tx, names ...string) error {
	for _, name := range names {
		if err := tx.DeleteBucket([]byte(name)); err != nil && err != bolt.ErrBucketNotFound {
			return &DatabaseError{Op: "clear", Bucket: name, Err: err}
		}
		if _, err := tx.CreateBucket([]byte(name)); err != nil {
			return &DatabaseError{Op: "clear", Bucket: name, Err: fmt.Errorf("recreate: %w", err)}
		}
	}
	return nil
}
