// Package version implements the package version grammar used by the
// package database: dotted numeric components, an optional trailing letter,
// _alpha/_beta/_pre/_rc/_p suffixes and an -rN revision.
//
// The query engine never parses version strings itself; it relies on the
// database, which delegates to Compare.
package version

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

var versionRe = regexp.MustCompile(`^(\d+)((?:\.\d+)*)([a-z]?)((?:_(?:alpha|beta|pre|rc|p)\d*)*)(?:-r(\d+))?$`)

var suffixRe = regexp.MustCompile(`_(alpha|beta|pre|rc|p)(\d*)`)

// Suffix ranks. A version without suffix sits between rc and p.
var suffixRank = map[string]int{
	"alpha": 0,
	"beta":  1,
	"pre":   2,
	"rc":    3,
	"p":     5,
}

const noSuffixRank = 4

type suffix struct {
	kind string
	num  *big.Int
}

// Version is a parsed version string.
type Version struct {
	raw        string
	components []string
	letter     string
	suffixes   []suffix
	revision   *big.Int
}

// Parse parses a version with an optional -rN revision.
func Parse(s string) (Version, error) {
	m := versionRe.FindStringSubmatch(s)
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	v := Version{raw: s, letter: m[3]}
	v.components = append(v.components, m[1])
	if m[2] != "" {
		v.components = append(v.components, strings.Split(m[2][1:], ".")...)
	}

	for _, sm := range suffixRe.FindAllStringSubmatch(m[4], -1) {
		v.suffixes = append(v.suffixes, suffix{kind: sm[1], num: parseInt(sm[2])})
	}

	v.revision = parseInt(m[5])
	return v, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the original version text.
func (v Version) String() string {
	return v.raw
}

// Revision returns the numeric revision (0 when absent).
func (v Version) Revision() string {
	return "r" + v.revision.String()
}

func parseInt(s string) *big.Int {
	n := new(big.Int)
	if s == "" {
		return n
	}
	n.SetString(s, 10)
	return n
}

// Compare returns -1, 0 or 1 when a is less than, equal to or greater than b.
func Compare(a, b Version) int {
	if c := parseInt(a.components[0]).Cmp(parseInt(b.components[0])); c != 0 {
		return c
	}

	n := len(a.components)
	if len(b.components) < n {
		n = len(b.components)
	}
	for i := 1; i < n; i++ {
		if c := compareComponent(a.components[i], b.components[i]); c != 0 {
			return c
		}
	}
	if len(a.components) != len(b.components) {
		if len(a.components) > len(b.components) {
			return 1
		}
		return -1
	}

	if a.letter != b.letter {
		if a.letter < b.letter {
			return -1
		}
		return 1
	}

	if c := compareSuffixes(a.suffixes, b.suffixes); c != 0 {
		return c
	}

	return a.revision.Cmp(b.revision)
}

// compareComponent compares non-leading dotted components. Components with
// a leading zero compare as decimal fractions.
func compareComponent(a, b string) int {
	if strings.HasPrefix(a, "0") || strings.HasPrefix(b, "0") {
		a = strings.TrimRight(a, "0")
		b = strings.TrimRight(b, "0")
		return strings.Compare(a, b)
	}
	return parseInt(a).Cmp(parseInt(b))
}

func compareSuffixes(a, b []suffix) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i].kind != b[i].kind {
			return cmpInt(suffixRank[a[i].kind], suffixRank[b[i].kind])
		}
		if c := a[i].num.Cmp(b[i].num); c != 0 {
			return c
		}
	}

	switch {
	case len(a) > len(b):
		return cmpInt(suffixRank[a[n].kind], noSuffixRank)
	case len(b) > len(a):
		return cmpInt(noSuffixRank, suffixRank[b[n].kind])
	}
	return 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// CompareStrings parses and compares two version strings.
func CompareStrings(a, b string) (int, error) {
	va, err := Parse(a)
	if err != nil {
		return 0, err
	}
	vb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return Compare(va, vb), nil
}

// SplitRevision splits "1.2-r3" into "1.2" and "r3". A missing revision
// yields "r0".
func SplitRevision(pvr string) (ver, rev string) {
	if i := strings.LastIndex(pvr, "-r"); i > 0 {
		tail := pvr[i+2:]
		if tail != "" && strings.Trim(tail, "0123456789") == "" {
			return pvr[:i], "r" + tail
		}
	}
	return pvr, "r0"
}

// SplitPackage splits "cat/pn-1.2-r1" into "cat/pn", "1.2" and "r1".
// ok is false when no valid version suffix is found.
func SplitPackage(cpv string) (cp, ver, rev string, ok bool) {
	for i := len(cpv) - 1; i > 0; i-- {
		if cpv[i] != '-' || i+1 >= len(cpv) {
			continue
		}
		c := cpv[i+1]
		if c < '0' || c > '9' {
			continue
		}
		pvr := cpv[i+1:]
		if _, err := Parse(pvr); err != nil {
			continue
		}
		ver, rev = SplitRevision(pvr)
		return cpv[:i], ver, rev, true
	}
	return "", "", "", false
}
