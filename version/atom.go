package version

import (
	"fmt"
	"strings"
)

// Sentinel errors
var (
	// ErrInvalidVersion is returned when a version string does not follow the grammar.
	ErrInvalidVersion = fmt.Errorf("invalid version")

	// ErrInvalidAtom is returned when a dependency atom cannot be parsed.
	ErrInvalidAtom = fmt.Errorf("invalid atom")
)

// Op is an atom version operator.
type Op string

const (
	OpNone         Op = ""
	OpEqual        Op = "="
	OpGlob         Op = "=*"
	OpTilde        Op = "~"
	OpGreater      Op = ">"
	OpGreaterEqual Op = ">="
	OpLess         Op = "<"
	OpLessEqual    Op = "<="
)

// Atom is a package selector such as ">=dev-libs/foo-1.2:3".
type Atom struct {
	Op       Op
	Name     string // category/name
	Version  string // without revision, empty when Op is OpNone
	Revision string // "r0" when unspecified
	Slot     string // empty when unspecified
}

// ParseAtom parses an atom. A bare "category/name" is accepted.
func ParseAtom(s string) (Atom, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return Atom{}, fmt.Errorf("%w: empty", ErrInvalidAtom)
	}

	var a Atom
	for _, op := range []Op{OpGreaterEqual, OpLessEqual, OpEqual, OpTilde, OpGreater, OpLess} {
		if strings.HasPrefix(s, string(op)) {
			a.Op = op
			s = s[len(op):]
			break
		}
	}

	if i := strings.LastIndex(s, ":"); i >= 0 {
		a.Slot = MainSlot(s[i+1:])
		s = s[:i]
		if a.Slot == "" {
			return Atom{}, fmt.Errorf("%w: %q: empty slot", ErrInvalidAtom, raw)
		}
	}

	if a.Op == OpNone {
		if !validName(s) {
			return Atom{}, fmt.Errorf("%w: %q", ErrInvalidAtom, raw)
		}
		a.Name = s
		return a, nil
	}

	glob := false
	if a.Op == OpEqual && strings.HasSuffix(s, "*") {
		glob = true
		s = strings.TrimSuffix(s, "*")
	}

	cp, ver, rev, ok := SplitPackage(s)
	if !ok || !validName(cp) {
		return Atom{}, fmt.Errorf("%w: %q: operator without version", ErrInvalidAtom, raw)
	}
	a.Name = cp
	a.Version = ver
	a.Revision = rev
	if glob {
		a.Op = OpGlob
	}
	return a, nil
}

// MustParseAtom is like ParseAtom but panics on error.
func MustParseAtom(s string) Atom {
	a, err := ParseAtom(s)
	if err != nil {
		panic(err)
	}
	return a
}

func validName(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t;") {
		return false
	}
	return !strings.HasPrefix(s, "/") && !strings.HasSuffix(s, "/")
}

// MainSlot strips a sub-slot ("2/2.4" -> "2").
func MainSlot(slot string) string {
	return strings.SplitN(slot, "/", 2)[0]
}

// String renders the atom back to its textual form.
func (a Atom) String() string {
	var b strings.Builder
	switch a.Op {
	case OpGlob:
		b.WriteString("=")
	default:
		b.WriteString(string(a.Op))
	}
	b.WriteString(a.Name)
	if a.Op != OpNone {
		b.WriteString("-")
		b.WriteString(a.Version)
		if a.Revision != "" && a.Revision != "r0" {
			b.WriteString("-" + a.Revision)
		}
		if a.Op == OpGlob {
			b.WriteString("*")
		}
	}
	if a.Slot != "" {
		b.WriteString(":" + a.Slot)
	}
	return b.String()
}

// HasVersion reports whether the atom constrains the version.
func (a Atom) HasVersion() bool {
	return a.Op != OpNone
}

// Match reports whether the given package version satisfies the atom.
func (a Atom) Match(name, ver, rev, slot string) (bool, error) {
	if name != a.Name {
		return false, nil
	}
	if a.Slot != "" && MainSlot(slot) != a.Slot {
		return false, nil
	}
	if a.Op == OpNone {
		return true, nil
	}
	if a.Op == OpGlob {
		return strings.HasPrefix(ver, a.Version), nil
	}

	if rev == "" {
		rev = "r0"
	}
	if a.Op == OpTilde {
		c, err := CompareStrings(ver, a.Version)
		return c == 0, err
	}

	arev := a.Revision
	if arev == "" {
		arev = "r0"
	}
	c, err := CompareStrings(ver+"-"+rev, a.Version+"-"+arev)
	if err != nil {
		return false, err
	}

	switch a.Op {
	case OpEqual:
		return c == 0, nil
	case OpGreater:
		return c > 0, nil
	case OpGreaterEqual:
		return c >= 0, nil
	case OpLess:
		return c < 0, nil
	case OpLessEqual:
		return c <= 0, nil
	}
	return false, fmt.Errorf("%w: unknown operator %q", ErrInvalidAtom, a.Op)
}
