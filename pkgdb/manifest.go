package pkgdb

import (
	"context"
	"fmt"
	"io"
	"os"

	bolt "go.etcd.io/bbolt"
	"gopkg.in/yaml.v3"

	"go-pkresolve/pkg"
	"go-pkresolve/version"
)

// DefaultRepository is the main tree. It is always listed and cannot be
// disabled.
const DefaultRepository = "gentoo"

// Manifest is the YAML description of a package universe loaded by
// "pkresolve import".
//
//	repositories:
//	  - {name: gentoo, enabled: true, official: true, supported: true}
//	license_groups:
//	  FSF-APPROVED: [GPL-2, "@BSD-LIKE"]
//	sets:
//	  world: [app-editors/vim]
//	installed:
//	  - {name: app-editors/vim, version: 9.0-r1, keywords: [amd64]}
//	available:
//	  - {name: app-editors/vim, version: "9.1", keywords: ["~amd64"]}
type Manifest struct {
	Repositories  []ManifestRepo      `yaml:"repositories"`
	LicenseGroups map[string][]string `yaml:"license_groups"`
	Sets          map[string][]string `yaml:"sets"`
	Installed     []Entry             `yaml:"installed"`
	Available     []Entry             `yaml:"available"`
}

// ManifestRepo is a repository record in a manifest.
type ManifestRepo struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Enabled     *bool  `yaml:"enabled,omitempty"` // default true
	Official    bool   `yaml:"official,omitempty"`
	Supported   bool   `yaml:"supported,omitempty"`
}

// ImportStats reports what an import wrote.
type ImportStats struct {
	Installed     int
	Available     int
	Sets          int
	LicenseGroups int
	Repos         int
}

// LoadManifest decodes a manifest. Unknown fields are rejected.
func LoadManifest(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil && err != io.EOF {
		return nil, &ValidationError{Field: "manifest", Err: err}
	}
	return &m, nil
}

// LoadManifestFile decodes the manifest at path.
func LoadManifestFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadManifest(f)
}

// Import writes a manifest in a single transaction. With replace the
// package trees are cleared first; sets, license groups and repositories
// are always merged. The default repository is added when missing.
func (db *DB) Import(ctx context.Context, m *Manifest, replace bool) (ImportStats, error) {
	var st ImportStats

	// Validate everything before opening the write transaction.
	for i := range m.Installed {
		if err := m.Installed[i].Normalize(); err != nil {
			return st, fmt.Errorf("installed[%d]: %w", i, err)
		}
	}
	for i := range m.Available {
		if err := m.Available[i].Normalize(); err != nil {
			return st, fmt.Errorf("available[%d]: %w", i, err)
		}
		if m.Available[i].Repository == "" {
			m.Available[i].Repository = DefaultRepository
		}
	}
	for name, atoms := range m.Sets {
		for _, a := range atoms {
			if _, err := version.ParseAtom(a); err != nil {
				return st, &ValidationError{Field: "sets." + name, Value: a, Err: err}
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return st, err
	}

	err := db.update("import", func(tx *bolt.Tx) error {
		if replace {
			if err := clearBuckets(tx, BucketInstalled, BucketRepository); err != nil {
				return err
			}
		}

		for i := range m.Installed {
			e := &m.Installed[i]
			if err := putEntry(tx, BucketInstalled, installedKey(e.Name, e.PVR()), e); err != nil {
				return err
			}
			st.Installed++
		}
		for i := range m.Available {
			e := &m.Available[i]
			if err := putEntry(tx, BucketRepository, repositoryKey(e.Name, e.PVR(), e.Repository), e); err != nil {
				return err
			}
			st.Available++
		}

		groups, err := bucketOf(tx, BucketLicenseGroups)
		if err != nil {
			return err
		}
		for name, members := range m.LicenseGroups {
			if err := putJSON(groups, name, members); err != nil {
				return err
			}
			st.LicenseGroups++
		}

		sets, err := bucketOf(tx, BucketSets)
		if err != nil {
			return err
		}
		for name, atoms := range m.Sets {
			if err := putJSON(sets, name, atoms); err != nil {
				return err
			}
			st.Sets++
		}

		repos, err := bucketOf(tx, BucketRepos)
		if err != nil {
			return err
		}
		for _, r := range m.Repositories {
			if r.Name == "" {
				return &ValidationError{Field: "repository", Err: ErrEmptyName}
			}
			enabled := r.Enabled == nil || *r.Enabled
			rec := pkg.Repo{
				Name:        r.Name,
				Description: r.Description,
				Enabled:     enabled,
				Official:    r.Official,
				Supported:   r.Supported,
			}
			if err := putJSON(repos, r.Name, &rec); err != nil {
				return err
			}
			st.Repos++
		}
		if repos.Get([]byte(DefaultRepository)) == nil {
			def := pkg.Repo{Name: DefaultRepository, Description: "Gentoo main tree", Enabled: true, Official: true, Supported: true}
			if err := putJSON(repos, DefaultRepository, &def); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, err
	}

	db.logger.Info("import: %d installed, %d available, %d sets, %d license groups, %d repositories",
		st.Installed, st.Available, st.Sets, st.LicenseGroups, st.Repos)
	return st, nil
}
