package pkg

import (
	"context"
	"sort"
	"sync"

	"go-pkresolve/version"
)

// memStore is an in-memory MetadataStore and SetSource used as a test
// fixture. Versions are written as "1.0" or "1.0-r1".
type memStore struct {
	mu sync.Mutex

	installed  map[string][]Identity
	available  map[string][]Identity
	instNames  []string
	availNames []string
	meta       map[VersionKey]Metadata
	masked     map[VersionKey]bool
	files      map[VersionKey][]string
	groups     map[string][]string
	sets       map[string][]version.Atom

	calls int
}

func newMemStore() *memStore {
	return &memStore{
		installed: make(map[string][]Identity),
		available: make(map[string][]Identity),
		meta:      make(map[VersionKey]Metadata),
		masked:    make(map[VersionKey]bool),
		files:     make(map[VersionKey][]string),
		groups: map[string][]string{
			"FSF-APPROVED": {"GPL-2", "GPL-3", "@BSD-LIKE"},
			"BSD-LIKE":     {"BSD", "MIT"},
		},
		sets: make(map[string][]version.Atom),
	}
}

func fixtureIdentity(name, pvr, slot string, origin Origin) Identity {
	ver, rev := version.SplitRevision(pvr)
	return NewIdentity(name, ver, rev, slot, []string{"amd64"}, origin)
}

// install records an installed version.
func (s *memStore) install(name, pvr, slot, license string) Identity {
	id := fixtureIdentity(name, pvr, slot, Installed())
	if _, ok := s.installed[name]; !ok {
		s.instNames = append(s.instNames, name)
	}
	s.installed[name] = append(s.installed[name], id)
	if _, ok := s.meta[id.VersionKey()]; !ok {
		s.meta[id.VersionKey()] = Metadata{License: license, Description: name + " package"}
	}
	return id
}

// offer records a repository version.
func (s *memStore) offer(name, pvr, slot, license string) Identity {
	id := fixtureIdentity(name, pvr, slot, Repository("gentoo"))
	if _, ok := s.available[name]; !ok {
		s.availNames = append(s.availNames, name)
	}
	s.available[name] = append(s.available[name], id)
	s.meta[id.VersionKey()] = Metadata{License: license, Description: name + " package", Repository: "gentoo"}
	return id
}

func (s *memStore) mask(id Identity) {
	s.masked[id.VersionKey()] = true
}

func (s *memStore) addAtoms(set string, atoms ...string) {
	for _, a := range atoms {
		s.sets[set] = append(s.sets[set], version.MustParseAtom(a))
	}
}

func (s *memStore) sorted(ids []Identity) []Identity {
	out := append([]Identity(nil), ids...)
	sort.SliceStable(out, func(i, j int) bool {
		c, _ := s.CompareVersions(out[i], out[j])
		return c < 0
	})
	return out
}

func (s *memStore) CompareVersions(a, b Identity) (int, error) {
	return version.CompareStrings(a.Version+"-"+a.Revision, b.Version+"-"+b.Revision)
}

func (s *memStore) InstalledNames(ctx context.Context) ([]string, error) {
	s.count()
	return append([]string(nil), s.instNames...), nil
}

func (s *memStore) AvailableNames(ctx context.Context) ([]string, error) {
	s.count()
	return append([]string(nil), s.availNames...), nil
}

func (s *memStore) Installed(ctx context.Context, name string) ([]Identity, error) {
	s.count()
	return s.sorted(s.installed[name]), nil
}

func (s *memStore) Available(ctx context.Context, name string) ([]Identity, error) {
	s.count()
	var out []Identity
	for _, id := range s.available[name] {
		if !s.masked[id.VersionKey()] {
			out = append(out, id)
		}
	}
	return s.sorted(out), nil
}

func (s *memStore) IsInstalled(ctx context.Context, id Identity) (bool, error) {
	for _, i := range s.installed[id.Name] {
		if i.VersionKey() == id.VersionKey() {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) IsVisible(ctx context.Context, id Identity) (bool, error) {
	for _, a := range s.available[id.Name] {
		if a.VersionKey() == id.VersionKey() {
			return !s.masked[id.VersionKey()], nil
		}
	}
	return false, nil
}

func (s *memStore) Metadata(ctx context.Context, id Identity) (Metadata, error) {
	md, ok := s.meta[id.VersionKey()]
	if !ok {
		return Metadata{}, &PackageNotFoundError{ID: id.CPV()}
	}
	return md, nil
}

func (s *memStore) Files(ctx context.Context, id Identity) ([]string, error) {
	return s.files[id.VersionKey()], nil
}

func (s *memStore) LicenseGroups(ctx context.Context) (map[string][]string, error) {
	return s.groups, nil
}

func (s *memStore) SetAtoms(ctx context.Context, set string) ([]version.Atom, error) {
	return s.sets[set], nil
}

func (s *memStore) count() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func cpvs(ids []Identity) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.CPV() + ":" + id.Slot + "@" + id.Origin.String()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
