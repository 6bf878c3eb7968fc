package pkg

import (
	"strings"
)

// Filter is one token of the filter vocabulary.
type Filter string

const (
	TokNone         Filter = "none"
	TokInstalled    Filter = "installed"
	TokNotInstalled Filter = "~installed"
	TokFree         Filter = "free"
	TokNotFree      Filter = "~free"
	TokNewest       Filter = "newest"
	TokDevelopment  Filter = "devel"
)

// FilterSpec is a validated set of filters.
type FilterSpec struct {
	Installed    bool
	NotInstalled bool
	Free         bool
	NotFree      bool
	Newest       bool
	Development  bool
}

// ParseFilters parses a ';'-separated filter list. Empty tokens and "none"
// are ignored. Unknown tokens and contradictory pairs are rejected.
func ParseFilters(s string) (FilterSpec, error) {
	var f FilterSpec
	for _, tok := range strings.Split(s, ";") {
		tok = strings.TrimSpace(tok)
		switch Filter(tok) {
		case "", TokNone:
		case TokInstalled:
			f.Installed = true
		case TokNotInstalled:
			f.NotInstalled = true
		case TokFree:
			f.Free = true
		case TokNotFree:
			f.NotFree = true
		case TokNewest:
			f.Newest = true
		case TokDevelopment:
			f.Development = true
		default:
			return FilterSpec{}, &FilterError{Token: tok}
		}
	}
	if err := f.Validate(); err != nil {
		return FilterSpec{}, err
	}
	return f, nil
}

// Validate rejects mutually exclusive flags.
func (f FilterSpec) Validate() error {
	if f.Installed && f.NotInstalled {
		return &ConflictingFiltersError{A: TokInstalled, B: TokNotInstalled}
	}
	if f.Free && f.NotFree {
		return &ConflictingFiltersError{A: TokFree, B: TokNotFree}
	}
	return nil
}

// HasLicense reports whether a license stage is requested.
func (f FilterSpec) HasLicense() bool {
	return f.Free || f.NotFree
}

// String renders the filter list in canonical order.
func (f FilterSpec) String() string {
	var toks []string
	add := func(on bool, flt Filter) {
		if on {
			toks = append(toks, string(flt))
		}
	}
	add(f.Installed, TokInstalled)
	add(f.NotInstalled, TokNotInstalled)
	add(f.Free, TokFree)
	add(f.NotFree, TokNotFree)
	add(f.Newest, TokNewest)
	add(f.Development, TokDevelopment)
	if len(toks) == 0 {
		return string(TokNone)
	}
	return strings.Join(toks, ";")
}
