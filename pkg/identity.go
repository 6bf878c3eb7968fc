package pkg

import (
	"strings"
)

// OriginInstalled is the origin token for installed identities.
const OriginInstalled = "installed"

// Defaults applied by NewIdentity.
const (
	DefaultRevision = "r0"
	DefaultSlot     = "0"
)

// Origin tells where an identity comes from: the installed database or a
// named repository.
type Origin struct {
	Installed  bool
	Repository string // empty when Installed
}

// Installed returns the installed origin.
func Installed() Origin {
	return Origin{Installed: true}
}

// Repository returns a repository origin.
func Repository(name string) Origin {
	return Origin{Repository: name}
}

// String returns the boundary token for the origin.
func (o Origin) String() string {
	if o.Installed {
		return OriginInstalled
	}
	return o.Repository
}

// Identity is one concrete version of a logical package as seen by a query.
// Identities are values: copy freely, never mutate after construction.
type Identity struct {
	Name     string   // category/name
	Version  string   // version without revision
	Revision string   // "r0" when unspecified
	Slot     string   // "0" when unspecified
	Keywords []string // accepted keywords, not part of equality
	Origin   Origin
}

// NewIdentity builds an identity, applying the revision and slot defaults.
func NewIdentity(name, ver, rev, slot string, keywords []string, origin Origin) Identity {
	if rev == "" {
		rev = DefaultRevision
	}
	if slot == "" {
		slot = DefaultSlot
	}
	return Identity{
		Name:     name,
		Version:  ver,
		Revision: rev,
		Slot:     slot,
		Keywords: keywords,
		Origin:   origin,
	}
}

// Equal reports identity equality: name, version, revision, slot and origin.
func (id Identity) Equal(o Identity) bool {
	return id.Name == o.Name &&
		id.Version == o.Version &&
		id.Revision == o.Revision &&
		id.Slot == o.Slot &&
		id.Origin == o.Origin
}

// Key is a comparable form of the identity usable as a map key.
type Key struct {
	Name, Version, Revision, Slot string
	Origin                        Origin
}

// Key returns the map key of the identity.
func (id Identity) Key() Key {
	return Key{Name: id.Name, Version: id.Version, Revision: id.Revision, Slot: id.Slot, Origin: id.Origin}
}

// VersionKey identifies the concrete version independent of slot and origin.
type VersionKey struct {
	Name, Version, Revision string
}

// VersionKey returns name, version and revision.
func (id Identity) VersionKey() VersionKey {
	return VersionKey{Name: id.Name, Version: id.Version, Revision: id.Revision}
}

// IsInstalled reports whether the identity comes from the installed database.
func (id Identity) IsInstalled() bool {
	return id.Origin.Installed
}

// PVR returns the version with a non-default revision appended.
func (id Identity) PVR() string {
	if id.Revision == "" || id.Revision == DefaultRevision {
		return id.Version
	}
	return id.Version + "-" + id.Revision
}

// CPV returns "category/name-version[-rN]".
func (id Identity) CPV() string {
	return id.Name + "-" + id.PVR()
}

// Category returns the category part of the name, or "" when absent.
func (id Identity) Category() string {
	return Category(id.Name)
}

// String returns the boundary-encoded identifier.
func (id Identity) String() string {
	return EncodeID(id)
}

// Category returns the category of a logical package name.
func Category(name string) string {
	if i := strings.Index(name, "/"); i >= 0 {
		return name[:i]
	}
	return ""
}

// BaseName returns the package part of a logical package name.
func BaseName(name string) string {
	if i := strings.Index(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
