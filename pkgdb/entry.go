package pkgdb

import (
	"strings"

	"go-pkresolve/pkg"
	"go-pkresolve/version"
)

// Entry is one package version as stored in the installed or repository
// bucket. It doubles as the manifest record.
type Entry struct {
	Name        string   `json:"name" yaml:"name"`
	Version     string   `json:"version" yaml:"version"`
	Revision    string   `json:"revision,omitempty" yaml:"revision,omitempty"`
	Slot        string   `json:"slot,omitempty" yaml:"slot,omitempty"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	License     string   `json:"license,omitempty" yaml:"license,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Homepage    string   `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	Use         []string `json:"use,omitempty" yaml:"use,omitempty"`
	Repository  string   `json:"repository,omitempty" yaml:"repository,omitempty"`
	Depend      []string `json:"depend,omitempty" yaml:"depend,omitempty"`
	RDepend     []string `json:"rdepend,omitempty" yaml:"rdepend,omitempty"`
	Files       []string `json:"files,omitempty" yaml:"files,omitempty"`
	Size        int64    `json:"size,omitempty" yaml:"size,omitempty"`
	Masked      bool     `json:"masked,omitempty" yaml:"masked,omitempty"`
}

// Normalize splits a revision written into Version, applies the revision
// and slot defaults and validates the entry.
func (e *Entry) Normalize() error {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	if strings.Count(e.Name, "/") != 1 {
		return &ValidationError{Field: "name", Value: e.Name, Err: ErrInvalidEntry}
	}
	if e.Revision == "" {
		e.Version, e.Revision = version.SplitRevision(e.Version)
	}
	if _, err := version.Parse(e.Version + "-" + e.Revision); err != nil {
		return &ValidationError{Field: "version", Value: e.Version, Err: ErrInvalidEntry}
	}
	if e.Slot == "" {
		e.Slot = pkg.DefaultSlot
	}
	return nil
}

// PVR returns version and revision, e.g. "1.0-r1".
func (e *Entry) PVR() string {
	return e.Version + "-" + e.Revision
}

func (e *Entry) label() string {
	s := e.Name + "-" + e.PVR()
	if e.Repository != "" {
		s += "::" + e.Repository
	}
	return s
}

func (e *Entry) metadata(installed bool) pkg.Metadata {
	md := pkg.Metadata{
		Description: e.Description,
		Homepage:    e.Homepage,
		License:     e.License,
		Keywords:    e.Keywords,
		Use:         e.Use,
		Size:        e.Size,
		Repository:  e.Repository,
	}
	if installed {
		md.Size = 0
	}
	return md
}

// deps returns the DEPEND and RDEPEND atoms without duplicates.
func (e *Entry) deps() []string {
	seen := make(map[string]bool, len(e.Depend)+len(e.RDepend))
	var out []string
	for _, list := range [][]string{e.Depend, e.RDepend} {
		for _, a := range list {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out
}

// Keys: installed "name\x00version-revision", repository
// "name\x00version-revision\x00repo". Names sort together so a prefix scan
// lists every version of a package.
const sep = "\x00"

func namePrefix(name string) []byte {
	return []byte(name + sep)
}

func installedKey(name, pvr string) string {
	return name + sep + pvr
}

func repositoryKey(name, pvr, repo string) string {
	return name + sep + pvr + sep + repo
}

func nameOfKey(k []byte) string {
	s := string(k)
	if i := strings.Index(s, sep); i >= 0 {
		return s[:i]
	}
	return s
}

func identityPVR(id pkg.Identity) string {
	rev := id.Revision
	if rev == "" {
		rev = pkg.DefaultRevision
	}
	return id.Version + "-" + rev
}

// keywordSet implements the ACCEPT_KEYWORDS check.
type keywordSet struct {
	any      bool
	accepted map[string]bool
}

func newKeywordSet(words []string) keywordSet {
	ks := keywordSet{accepted: make(map[string]bool)}
	for _, w := range words {
		switch {
		case w == "**":
			ks.any = true
		case strings.HasPrefix(w, "~"):
			ks.accepted[w] = true
			ks.accepted[w[1:]] = true
		default:
			ks.accepted[w] = true
		}
	}
	return ks
}

// intersect returns the package keywords accepted by the set, in package
// order.
func (ks keywordSet) intersect(keywords []string) []string {
	var out []string
	for _, k := range keywords {
		if strings.HasPrefix(k, "-") {
			continue
		}
		if ks.any || ks.accepted[k] {
			out = append(out, k)
		}
	}
	return out
}
