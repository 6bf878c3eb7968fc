package pkg

// Compare orders two identities of the same logical package by version and
// revision. Identities of different packages are not comparable.
func Compare(cmp VersionComparator, a, b Identity) (int, error) {
	if a.Name != b.Name {
		return 0, &IncomparableError{A: a, B: b}
	}
	c, err := cmp.CompareVersions(a, b)
	if err != nil {
		return 0, err
	}
	switch {
	case c > 0:
		return 1, nil
	case c < 0:
		return -1, nil
	}
	return 0, nil
}

// MaxBy returns the first maximum of candidates. ok is false when
// candidates is empty.
func MaxBy(cmp VersionComparator, candidates []Identity) (best Identity, ok bool, err error) {
	for i, c := range candidates {
		if i == 0 {
			best, ok = c, true
			continue
		}
		r, err := Compare(cmp, c, best)
		if err != nil {
			return Identity{}, false, err
		}
		if r > 0 {
			best = c
		}
	}
	return best, ok, nil
}
