package pkg

import (
	"errors"
	"testing"
)

func TestParseFilters(t *testing.T) {
	tests := []struct {
		in   string
		want FilterSpec
	}{
		{"none", FilterSpec{}},
		{"", FilterSpec{}},
		{"installed", FilterSpec{Installed: true}},
		{"~installed;free;newest", FilterSpec{NotInstalled: true, Free: true, Newest: true}},
		{"~free;devel", FilterSpec{NotFree: true, Development: true}},
		{"installed;;newest", FilterSpec{Installed: true, Newest: true}},
	}

	for _, tt := range tests {
		got, err := ParseFilters(tt.in)
		if err != nil {
			t.Fatalf("ParseFilters(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFilters(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseFiltersConflicts(t *testing.T) {
	for _, in := range []string{"installed;~installed", "free;~free", "newest;~free;free"} {
		_, err := ParseFilters(in)
		if !errors.Is(err, ErrConflictingFilters) {
			t.Errorf("ParseFilters(%q) error = %v, want ErrConflictingFilters", in, err)
		}
	}
}

func TestParseFiltersUnknown(t *testing.T) {
	_, err := ParseFilters("installed;gui")
	if !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("error = %v, want ErrInvalidFilter", err)
	}
	var fe *FilterError
	if !errors.As(err, &fe) || fe.Token != "gui" {
		t.Errorf("expected FilterError for token gui, got %v", err)
	}
}

func TestFilterSpecString(t *testing.T) {
	f := FilterSpec{NotInstalled: true, Free: true, Newest: true}
	if got := f.String(); got != "~installed;free;newest" {
		t.Errorf("String() = %q", got)
	}
	if got := (FilterSpec{}).String(); got != "none" {
		t.Errorf("empty String() = %q", got)
	}
}
