package pkg

import (
	"errors"
	"testing"
)

func TestCompareRejectsDifferentPackages(t *testing.T) {
	s := newMemStore()
	a := s.offer("app-misc/foo", "1.0", "0", "MIT")
	b := s.offer("app-misc/bar", "1.0", "0", "MIT")

	_, err := Compare(s, a, b)
	if !errors.Is(err, ErrIncomparableVersions) {
		t.Fatalf("error = %v, want ErrIncomparableVersions", err)
	}
	var ie *IncomparableError
	if !errors.As(err, &ie) || ie.A.Name != "app-misc/foo" || ie.B.Name != "app-misc/bar" {
		t.Errorf("unexpected error %+v", ie)
	}
}

func TestCompareOrdering(t *testing.T) {
	s := newMemStore()
	chain := []Identity{
		s.offer("app-misc/foo", "1.0_rc1", "0", "MIT"),
		s.offer("app-misc/foo", "1.0", "0", "MIT"),
		s.offer("app-misc/foo", "1.0-r1", "0", "MIT"),
		s.offer("app-misc/foo", "1.0.1", "0", "MIT"),
		s.offer("app-misc/foo", "2", "0", "MIT"),
	}

	for i := range chain {
		for j := range chain {
			got, err := Compare(s, chain[i], chain[j])
			if err != nil {
				t.Fatal(err)
			}
			want := 0
			if i < j {
				want = -1
			} else if i > j {
				want = 1
			}
			if got != want {
				t.Errorf("Compare(%s, %s) = %d, want %d", chain[i].CPV(), chain[j].CPV(), got, want)
			}
		}
	}
}

func TestMaxByFirstMaximum(t *testing.T) {
	s := newMemStore()
	first := s.offer("app-misc/foo", "2.0", "0", "MIT")
	ids := []Identity{
		s.offer("app-misc/foo", "1.0", "0", "MIT"),
		first,
		fixtureIdentity("app-misc/foo", "2.0", "0", Installed()),
		s.offer("app-misc/foo", "1.5", "0", "MIT"),
	}

	best, ok, err := MaxBy(s, ids)
	if err != nil || !ok {
		t.Fatalf("MaxBy: %v %v", ok, err)
	}
	if !best.Equal(first) {
		t.Errorf("MaxBy = %s@%s, want the first 2.0", best.CPV(), best.Origin)
	}

	if _, ok, _ := MaxBy(s, nil); ok {
		t.Error("MaxBy of empty list reported a result")
	}
}
