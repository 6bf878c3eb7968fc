package version

import (
	"errors"
	"testing"
)

func TestCompareStrings(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "2.0", -1},
		{"2.0", "1.0", 1},
		{"1.10", "1.9", 1},
		{"1.0.1", "1.0", 1},
		{"1.01", "1.1", -1},
		{"1.010", "1.01", 0},
		{"1.0a", "1.0", 1},
		{"1.0a", "1.0b", -1},
		{"1.0_alpha", "1.0_beta", -1},
		{"1.0_rc1", "1.0", -1},
		{"1.0_rc2", "1.0_rc10", -1},
		{"1.0_p1", "1.0", 1},
		{"1.0_pre1", "1.0_rc1", -1},
		{"1.0_alpha_p1", "1.0_alpha", 1},
		{"1.0_beta_alpha", "1.0_beta", -1},
		{"1.0-r1", "1.0", 1},
		{"1.0-r1", "1.0-r2", -1},
		{"1.0-r0", "1.0", 0},
		{"12345678901234567890", "12345678901234567891", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			got, err := CompareStrings(tt.a, tt.b)
			if err != nil {
				t.Fatalf("CompareStrings(%q, %q) error: %v", tt.a, tt.b, err)
			}
			if got != tt.want {
				t.Errorf("CompareStrings(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompareAntisymmetricAndTransitive(t *testing.T) {
	chain := []string{
		"0.9", "1.0_alpha", "1.0_alpha2", "1.0_beta", "1.0_pre",
		"1.0_rc1", "1.0", "1.0-r1", "1.0_p1", "1.0a", "1.0.1", "1.1", "2",
	}

	for i := range chain {
		for j := range chain {
			a := MustParse(chain[i])
			b := MustParse(chain[j])
			got := Compare(a, b)
			want := cmpInt(i, j)
			if got != want {
				t.Errorf("Compare(%s, %s) = %d, want %d", chain[i], chain[j], got, want)
			}
			if Compare(b, a) != -got {
				t.Errorf("Compare not antisymmetric for %s, %s", chain[i], chain[j])
			}
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "abc", "1.", ".1", "1.0_gamma", "1.0-r", "1.0-rX"} {
		if _, err := Parse(s); !errors.Is(err, ErrInvalidVersion) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidVersion", s, err)
		}
	}
}

func TestSplitPackage(t *testing.T) {
	tests := []struct {
		in            string
		cp, ver, rev  string
		ok            bool
	}{
		{"app-misc/foo-1.0", "app-misc/foo", "1.0", "r0", true},
		{"app-misc/foo-1.0-r3", "app-misc/foo", "1.0", "r3", true},
		{"x11-libs/gtk+-2.24.33", "x11-libs/gtk+", "2.24.33", "r0", true},
		{"dev-libs/foo-bar-2_rc1", "dev-libs/foo-bar", "2_rc1", "r0", true},
		{"app-misc/foo", "", "", "", false},
	}

	for _, tt := range tests {
		cp, ver, rev, ok := SplitPackage(tt.in)
		if ok != tt.ok || cp != tt.cp || ver != tt.ver || rev != tt.rev {
			t.Errorf("SplitPackage(%q) = (%q, %q, %q, %v), want (%q, %q, %q, %v)",
				tt.in, cp, ver, rev, ok, tt.cp, tt.ver, tt.rev, tt.ok)
		}
	}
}
