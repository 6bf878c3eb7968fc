package pkg

import (
	"fmt"
	"strings"
)

// Accept lists used by the license stage. The group name is substituted
// with the configured free-software group.
const (
	acceptFreeFmt    = "-* @%s"
	acceptNotFreeFmt = "* -@%s"

	// DefaultFreeGroup is the license group considered free.
	DefaultFreeGroup = "FSF-APPROVED"
)

type licenseKind int

const (
	licenseLeaf licenseKind = iota
	licenseAll
	licenseAny
	licenseCond
)

// LicenseExpr is a parsed LICENSE value.
type LicenseExpr struct {
	kind     licenseKind
	name     string // license name or USE flag
	negate   bool   // "!flag?"
	children []*LicenseExpr
}

// ParseLicense parses a license expression such as
// "GPL-2 || ( MIT BSD ) ssl? ( openssl )". An empty string is a valid
// expression that requires nothing.
func ParseLicense(s string) (*LicenseExpr, error) {
	toks := strings.Fields(s)
	root := &LicenseExpr{kind: licenseAll}
	rest, err := parseLicenseList(root, toks, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidLicense, s, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: %q: unbalanced ')'", ErrInvalidLicense, s)
	}
	return root, nil
}

// parseLicenseList fills parent until the closing paren (when nested) or
// the end of input, returning the unconsumed tokens.
func parseLicenseList(parent *LicenseExpr, toks []string, nested bool) ([]string, error) {
	for len(toks) > 0 {
		tok := toks[0]
		toks = toks[1:]

		switch {
		case tok == ")":
			if !nested {
				return nil, fmt.Errorf("unexpected ')'")
			}
			return toks, nil

		case tok == "(":
			child := &LicenseExpr{kind: licenseAll}
			var err error
			if toks, err = parseLicenseList(child, toks, true); err != nil {
				return nil, err
			}
			parent.children = append(parent.children, child)

		case tok == "||":
			if len(toks) == 0 || toks[0] != "(" {
				return nil, fmt.Errorf("'||' not followed by '('")
			}
			child := &LicenseExpr{kind: licenseAny}
			var err error
			if toks, err = parseLicenseList(child, toks[1:], true); err != nil {
				return nil, err
			}
			parent.children = append(parent.children, child)

		case strings.HasSuffix(tok, "?"):
			flag := strings.TrimSuffix(tok, "?")
			child := &LicenseExpr{kind: licenseCond}
			if strings.HasPrefix(flag, "!") {
				child.negate = true
				flag = flag[1:]
			}
			if flag == "" {
				return nil, fmt.Errorf("empty USE conditional")
			}
			if len(toks) == 0 || toks[0] != "(" {
				return nil, fmt.Errorf("conditional %q not followed by '('", tok)
			}
			child.name = flag
			var err error
			if toks, err = parseLicenseList(child, toks[1:], true); err != nil {
				return nil, err
			}
			parent.children = append(parent.children, child)

		default:
			if strings.ContainsAny(tok, "()|") {
				return nil, fmt.Errorf("bad license token %q", tok)
			}
			parent.children = append(parent.children, &LicenseExpr{kind: licenseLeaf, name: tok})
		}
	}
	if nested {
		return nil, fmt.Errorf("missing ')'")
	}
	return nil, nil
}

// Satisfied reports whether the expression is acceptable under accept with
// the given USE flags enabled.
func (e *LicenseExpr) Satisfied(accept func(string) bool, use map[string]bool) bool {
	switch e.kind {
	case licenseLeaf:
		return accept(e.name)
	case licenseAny:
		if len(e.children) == 0 {
			return true
		}
		for _, c := range e.children {
			if c.Satisfied(accept, use) {
				return true
			}
		}
		return false
	case licenseCond:
		if use[e.name] == e.negate {
			return true
		}
	}
	for _, c := range e.children {
		if !c.Satisfied(accept, use) {
			return false
		}
	}
	return true
}

type licenseRule struct {
	negate bool
	all    bool
	names  map[string]bool
}

// LicensePolicy is an accept list resolved against license groups. A policy
// is built per request and never shared, so no locking is involved.
type LicensePolicy struct {
	rules []licenseRule
}

// NewLicensePolicy builds a policy from an ACCEPT_LICENSE style list. Later
// tokens override earlier ones.
func NewLicensePolicy(accept string, groups map[string][]string) (*LicensePolicy, error) {
	p := &LicensePolicy{}
	for _, tok := range strings.Fields(accept) {
		var r licenseRule
		if strings.HasPrefix(tok, "-") {
			r.negate = true
			tok = tok[1:]
		}
		switch {
		case tok == "*":
			r.all = true
		case strings.HasPrefix(tok, "@"):
			names, err := expandLicenseGroup(tok[1:], groups, map[string]bool{})
			if err != nil {
				return nil, err
			}
			r.names = names
		case tok == "":
			return nil, fmt.Errorf("%w: empty token in accept list %q", ErrInvalidLicense, accept)
		default:
			r.names = map[string]bool{tok: true}
		}
		p.rules = append(p.rules, r)
	}
	return p, nil
}

// FreePolicy accepts only licenses of the free group.
func FreePolicy(freeGroup string, groups map[string][]string) (*LicensePolicy, error) {
	return NewLicensePolicy(fmt.Sprintf(acceptFreeFmt, freeGroup), groups)
}

// NotFreePolicy accepts every license outside the free group.
func NotFreePolicy(freeGroup string, groups map[string][]string) (*LicensePolicy, error) {
	return NewLicensePolicy(fmt.Sprintf(acceptNotFreeFmt, freeGroup), groups)
}

func expandLicenseGroup(name string, groups map[string][]string, seen map[string]bool) (map[string]bool, error) {
	members, ok := groups[name]
	if !ok {
		return nil, fmt.Errorf("%w: undefined license group @%s", ErrInvalidLicense, name)
	}
	out := make(map[string]bool)
	if seen[name] {
		return out, nil
	}
	seen[name] = true
	for _, m := range members {
		if strings.HasPrefix(m, "@") {
			sub, err := expandLicenseGroup(m[1:], groups, seen)
			if err != nil {
				return nil, err
			}
			for k := range sub {
				out[k] = true
			}
			continue
		}
		out[m] = true
	}
	return out, nil
}

// Accepts reports whether a single license name is accepted.
func (p *LicensePolicy) Accepts(license string) bool {
	ok := false
	for _, r := range p.rules {
		if r.all || r.names[license] {
			ok = !r.negate
		}
	}
	return ok
}

// Allowed parses expr and evaluates it under the policy.
func (p *LicensePolicy) Allowed(expr string, use []string) (bool, error) {
	e, err := ParseLicense(expr)
	if err != nil {
		return false, err
	}
	flags := make(map[string]bool, len(use))
	for _, u := range use {
		flags[u] = true
	}
	return e.Satisfied(p.Accepts, flags), nil
}
