// Package pkgdb stores the installed and repository package trees in a
// bbolt database and serves them to the resolver.
package pkgdb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
	bolt "go.etcd.io/bbolt"

	"go-pkresolve/log"
)

// Bucket names for bbolt database
const (
	BucketInstalled     = "installed"
	BucketRepository    = "repository"
	BucketSets          = "sets"
	BucketLicenseGroups = "license_groups"
	BucketRepos         = "repos"
	BucketMeta          = "meta"
)

var allBuckets = []string{
	BucketInstalled,
	BucketRepository,
	BucketSets,
	BucketLicenseGroups,
	BucketRepos,
	BucketMeta,
}

// SchemaVersion is written into new databases.
const SchemaVersion = "1.0.0"

// schemaConstraint lists the schema versions this release can read.
const schemaConstraint = ">= 1.0.0, < 2.0.0"

const keySchemaVersion = "schema_version"

// Options configures Open.
type Options struct {
	// ReadOnly opens the file with a shared lock. Queries only need this.
	ReadOnly bool

	// AcceptKeywords are the keywords a repository entry must carry to be
	// visible, e.g. ["amd64"]. "~arch" accepts "arch" too and "**" accepts
	// everything.
	AcceptKeywords []string

	// Timeout bounds the wait for the bbolt file lock.
	Timeout time.Duration

	Logger log.LibraryLogger
}

// DB wraps a bbolt database holding the package trees.
type DB struct {
	db     *bolt.DB
	path   string
	opts   Options
	accept keywordSet
	logger log.LibraryLogger
}

// Open opens or creates a package database at path. A writable open
// creates missing buckets and stamps the schema version; every open checks
// that the stored schema version is supported.
//
// Example:
//
//	db, err := pkgdb.Open("/var/lib/pkresolve/packages.db", pkgdb.Options{ReadOnly: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
func Open(path string, opts Options) (*DB, error) {
	if opts.Logger == nil {
		opts.Logger = log.NoOpLogger{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	if opts.ReadOnly {
		if _, err := os.Stat(path); err != nil {
			return nil, &DatabaseError{Op: "open", Err: err}
		}
	} else if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &DatabaseError{Op: "open", Err: err}
	}

	bdb, err := bolt.Open(path, 0644, &bolt.Options{ReadOnly: opts.ReadOnly, Timeout: opts.Timeout})
	if err != nil {
		return nil, &DatabaseError{Op: "open", Err: err}
	}

	db := &DB{
		db:     bdb,
		path:   path,
		opts:   opts,
		accept: newKeywordSet(opts.AcceptKeywords),
		logger: opts.Logger,
	}

	if !opts.ReadOnly {
		if err := db.initBuckets(); err != nil {
			bdb.Close()
			return nil, err
		}
	}
	if err := db.checkSchema(); err != nil {
		bdb.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) initBuckets() error {
	return db.db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return &DatabaseError{Op: "create bucket", Bucket: name, Err: err}
			}
		}
		meta := tx.Bucket([]byte(BucketMeta))
		if meta.Get([]byte(keySchemaVersion)) == nil {
			return meta.Put([]byte(keySchemaVersion), []byte(SchemaVersion))
		}
		return nil
	})
}

func (db *DB) checkSchema() error {
	constraint, err := semver.NewConstraint(schemaConstraint)
	if err != nil {
		return err
	}

	return db.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket([]byte(BucketMeta))
		if meta == nil {
			return &DatabaseError{Op: "check schema", Bucket: BucketMeta, Err: ErrBucketNotFound}
		}
		raw := string(meta.Get([]byte(keySchemaVersion)))
		v, err := semver.NewVersion(raw)
		if err != nil {
			return &ValidationError{Field: keySchemaVersion, Value: raw, Err: ErrCorruptedData}
		}
		if !constraint.Check(v) {
			return &ValidationError{Field: keySchemaVersion, Value: raw, Err: ErrSchemaVersion}
		}
		return nil
	})
}

// Close closes the database. It is safe to call Close multiple times.
func (db *DB) Close() error {
	if db.db == nil {
		return nil
	}
	err := db.db.Close()
	db.db = nil
	return err
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// SchemaVersion returns the schema version stored in the database.
func (db *DB) SchemaVersion() (string, error) {
	var v string
	err := db.view(BucketMeta, func(b *bolt.Bucket) error {
		v = string(b.Get([]byte(keySchemaVersion)))
		return nil
	})
	return v, err
}

// Stats holds record counts per bucket.
type Stats struct {
	Installed     int
	Repository    int
	Sets          int
	LicenseGroups int
	Repos         int
}

// Stats counts the records of each bucket.
func (db *DB) Stats() (Stats, error) {
	var s Stats
	if db.db == nil {
		return s, &DatabaseError{Op: "stats", Err: ErrDatabaseClosed}
	}
	err := db.db.View(func(tx *bolt.Tx) error {
		for name, dst := range map[string]*int{
			BucketInstalled:     &s.Installed,
			BucketRepository:    &s.Repository,
			BucketSets:          &s.Sets,
			BucketLicenseGroups: &s.LicenseGroups,
			BucketRepos:         &s.Repos,
		} {
			b := tx.Bucket([]byte(name))
			if b == nil {
				return &DatabaseError{Op: "stats", Bucket: name, Err: ErrBucketNotFound}
			}
			*dst = b.Stats().KeyN
		}
		return nil
	})
	return s, err
}

// view runs fn on a bucket inside a read transaction.
func (db *DB) view(bucket string, fn func(b *bolt.Bucket) error) error {
	if db.db == nil {
		return &DatabaseError{Op: "view", Bucket: bucket, Err: ErrDatabaseClosed}
	}
	return db.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return &DatabaseError{Op: "get bucket", Bucket: bucket, Err: ErrBucketNotFound}
		}
		return fn(b)
	})
}

// viewTx runs fn inside a read transaction.
func (db *DB) viewTx(fn func(tx *bolt.Tx) error) error {
	if db.db == nil {
		return &DatabaseError{Op: "view", Err: ErrDatabaseClosed}
	}
	return db.db.View(fn)
}

// update runs fn inside a write transaction.
func (db *DB) update(op string, fn func(tx *bolt.Tx) error) error {
	if db.db == nil {
		return &DatabaseError{Op: op, Err: ErrDatabaseClosed}
	}
	if db.opts.ReadOnly {
		return &DatabaseError{Op: op, Err: ErrReadOnly}
	}
	return db.db.Update(fn)
}

func bucketOf(tx *bolt.Tx, name string) (*bolt.Bucket, error) {
	b := tx.Bucket([]byte(name))
	if b == nil {
		return nil, &DatabaseError{Op: "get bucket", Bucket: name, Err: ErrBucketNotFound}
	}
	return b, nil
}

func putJSON(b *bolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &RecordError{Op: "marshal", Key: key, Err: err}
	}
	return b.Put([]byte(key), data)
}

func getJSON(b *bolt.Bucket, key string, v any) (bool, error) {
	data := b.Get([]byte(key))
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, &RecordError{Op: "unmarshal", Key: key, Err: fmt.Errorf("%w: %v", ErrCorruptedData, err)}
	}
	return true, nil
}
