package pkg

import (
	"errors"
	"testing"
)

var testGroups = map[string][]string{
	"FSF-APPROVED": {"GPL-2", "GPL-3", "@BSD-LIKE"},
	"BSD-LIKE":     {"BSD", "MIT"},
}

func TestLicensePolicyAccepts(t *testing.T) {
	free, err := FreePolicy(DefaultFreeGroup, testGroups)
	if err != nil {
		t.Fatal(err)
	}
	notFree, err := NotFreePolicy(DefaultFreeGroup, testGroups)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		license       string
		free, nonFree bool
	}{
		{"GPL-2", true, false},
		{"MIT", true, false},
		{"NVIDIA-r2", false, true},
		{"all-rights-reserved", false, true},
	}
	for _, tt := range tests {
		if got := free.Accepts(tt.license); got != tt.free {
			t.Errorf("free policy Accepts(%s) = %v", tt.license, got)
		}
		if got := notFree.Accepts(tt.license); got != tt.nonFree {
			t.Errorf("non-free policy Accepts(%s) = %v", tt.license, got)
		}
	}
}

func TestLicensePolicyOrder(t *testing.T) {
	p, err := NewLicensePolicy("* -@FSF-APPROVED GPL-2", testGroups)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Accepts("GPL-2") {
		t.Error("later token should re-accept GPL-2")
	}
	if p.Accepts("MIT") {
		t.Error("MIT should be rejected")
	}
}

func TestLicenseAllowed(t *testing.T) {
	free, _ := FreePolicy(DefaultFreeGroup, testGroups)

	tests := []struct {
		expr string
		use  []string
		want bool
	}{
		{"", nil, true},
		{"GPL-2", nil, true},
		{"GPL-2 NVIDIA", nil, false},
		{"|| ( NVIDIA MIT )", nil, true},
		{"|| ( NVIDIA Oracle )", nil, false},
		{"GPL-2 bindist? ( NVIDIA )", nil, true},
		{"GPL-2 bindist? ( NVIDIA )", []string{"bindist"}, false},
		{"!oss? ( NVIDIA ) GPL-3", []string{"oss"}, true},
		{"!oss? ( NVIDIA ) GPL-3", nil, false},
		{"( GPL-2 || ( MIT BSD ) )", nil, true},
	}
	for _, tt := range tests {
		got, err := free.Allowed(tt.expr, tt.use)
		if err != nil {
			t.Fatalf("Allowed(%q): %v", tt.expr, err)
		}
		if got != tt.want {
			t.Errorf("Allowed(%q, %v) = %v, want %v", tt.expr, tt.use, got, tt.want)
		}
	}
}

func TestParseLicenseInvalid(t *testing.T) {
	for _, expr := range []string{"( GPL-2", "GPL-2 )", "|| GPL-2", "flag? GPL-2", "? ( MIT )"} {
		if _, err := ParseLicense(expr); !errors.Is(err, ErrInvalidLicense) {
			t.Errorf("ParseLicense(%q) error = %v, want ErrInvalidLicense", expr, err)
		}
	}
}

func TestLicensePolicyUndefinedGroup(t *testing.T) {
	if _, err := NewLicensePolicy("@NOPE", testGroups); !errors.Is(err, ErrInvalidLicense) {
		t.Errorf("error = %v, want ErrInvalidLicense", err)
	}
}
