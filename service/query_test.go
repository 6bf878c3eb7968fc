package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go-pkresolve/pkg"
)

func TestGetPackages(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name    string
		filters string
		want    []string
	}{
		{"installed", "installed", []string{idVimInstalled, idGlibcInstalled, idNcursesInstalled}},
		{"not installed newest", "~installed;newest", []string{idVim91, idHello, idNcurses65}},
		{"installed free", "installed;free", []string{idGlibcInstalled, idNcursesInstalled}},
		{"not installed non-free", "~installed;~free", []string{idVim91}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewResult()
			if err := svc.GetPackages(context.Background(), tt.filters, res); err != nil {
				t.Fatalf("GetPackages(%q) failed: %v", tt.filters, err)
			}
			if got := sortedIDs(res); !equalStrings(got, tt.want) {
				t.Errorf("GetPackages(%q) = %v, want %v", tt.filters, got, tt.want)
			}
			if len(res.Errors) != 0 {
				t.Errorf("unexpected item errors: %v", res.Errors)
			}
		})
	}
}

func TestGetPackages_Info(t *testing.T) {
	svc := newTestService(t)

	res := NewResult()
	if err := svc.GetPackages(context.Background(), "newest", res); err != nil {
		t.Fatalf("GetPackages failed: %v", err)
	}
	for _, p := range res.Packages {
		want := pkg.InfoAvailable
		if p.Ident.IsInstalled() {
			want = pkg.InfoInstalled
		}
		if p.Info != want {
			t.Errorf("%s: info = %s, want %s", p.ID, p.Info, want)
		}
		if p.ID == idHello && p.Summary != "GNU hello world" {
			t.Errorf("%s: summary = %q", p.ID, p.Summary)
		}
	}
}

func TestGetPackages_InvalidFilters(t *testing.T) {
	svc := newTestService(t)

	for _, filters := range []string{"installed;~installed", "free;~free", "bogus"} {
		err := svc.GetPackages(context.Background(), filters, NewResult())
		if err == nil {
			t.Errorf("GetPackages(%q) succeeded, want error", filters)
			continue
		}
		if code := pkg.ErrorCode(err); code != pkg.CodeFilterInvalid {
			t.Errorf("GetPackages(%q) code = %s, want %s", filters, code, pkg.CodeFilterInvalid)
		}
	}

	snap := svc.Metrics().GetSnapshot()
	if snap.Failed != 3 {
		t.Errorf("Failed = %d, want 3", snap.Failed)
	}
}

func TestGetPackages_Cancelled(t *testing.T) {
	svc := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.GetPackages(ctx, "none", NewResult())
	if err == nil {
		t.Fatal("GetPackages on a cancelled context succeeded")
	}
}

func TestGetPackages_IntegrityReportedPerItem(t *testing.T) {
	svc := newTestService(t)

	manifest := filepath.Join(t.TempDir(), "dup.yaml")
	dup := `
installed:
  - name: app-misc/dup
    version: "1.0"
    keywords: [amd64]
    license: MIT
  - name: app-misc/dup
    version: "1.1"
    keywords: [amd64]
    license: MIT
`
	if err := os.WriteFile(manifest, []byte(dup), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Import(context.Background(), ImportOptions{Path: manifest}); err != nil {
		t.Fatalf("Import() failed: %v", err)
	}

	for _, filters := range []string{"newest", "installed;newest"} {
		res := NewResult()
		if err := svc.GetPackages(context.Background(), filters, res); err != nil {
			t.Fatalf("GetPackages(%q) failed: %v", filters, err)
		}
		if codes := errorCodes(res); !equalStrings(codes, []string{pkg.CodeDataIntegrity}) {
			t.Errorf("GetPackages(%q) error codes = %v", filters, codes)
		}
		ids := sortedIDs(res)
		for _, id := range ids {
			if strings.HasPrefix(id, "app-misc/dup;") {
				t.Errorf("GetPackages(%q) emitted %s", filters, id)
			}
		}
		if !containsString(ids, idNcursesInstalled) {
			t.Errorf("GetPackages(%q) = %v, other packages must still be listed", filters, ids)
		}
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestResolve(t *testing.T) {
	svc := newTestService(t)

	res := NewResult()
	err := svc.Resolve(context.Background(), "none", []string{"app-editors/vim", "app-editors/vi"}, res)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := []string{idVimInstalled, idVim91}
	if got := sortedIDs(res); !equalStrings(got, want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}

	if len(res.Errors) != 1 {
		t.Fatalf("Errors = %v, want one", res.Errors)
	}
	if res.Errors[0].Code != pkg.CodePackageNotFound {
		t.Errorf("code = %s, want %s", res.Errors[0].Code, pkg.CodePackageNotFound)
	}
	var nf *pkg.PackageNotFoundError
	if !errors.As(res.Errors[0].Err, &nf) {
		t.Fatalf("error %v is not a PackageNotFoundError", res.Errors[0].Err)
	}
	if nf.ID != "app-editors/vi" {
		t.Errorf("ID = %q, want app-editors/vi", nf.ID)
	}
	found := false
	for _, s := range nf.Suggestions {
		if s == "app-editors/vim" {
			found = true
		}
	}
	if !found {
		t.Errorf("Suggestions = %v, want app-editors/vim among them", nf.Suggestions)
	}
}

func TestResolve_CaseSensitive(t *testing.T) {
	svc := newTestService(t)

	res := NewResult()
	if err := svc.Resolve(context.Background(), "installed", []string{"App-Editors/Vim"}, res); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Packages) != 0 {
		t.Errorf("Resolve matched %v", res.IDs())
	}
	if len(res.Errors) != 1 {
		t.Errorf("Errors = %v, want one", res.Errors)
	}
}

func TestSearchName(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		filters, keys string
		want          []string
	}{
		{"none", "VIM", []string{idVimInstalled, idVim91}},
		{"installed", "curs", []string{idNcursesInstalled}},
		{"none", "curs", []string{idNcursesInstalled, idNcurses65}},
		{"none", "curs lib", nil},
		{"none", "sys-libs", nil}, // category is not searched
	}

	for _, tt := range tests {
		res := NewResult()
		if err := svc.SearchName(context.Background(), tt.filters, tt.keys, res); err != nil {
			t.Fatalf("SearchName(%q, %q) failed: %v", tt.filters, tt.keys, err)
		}
		if got := sortedIDs(res); !equalStrings(got, tt.want) {
			t.Errorf("SearchName(%q, %q) = %v, want %v", tt.filters, tt.keys, got, tt.want)
		}
	}
}

func TestSearchGroup(t *testing.T) {
	svc := newTestService(t)

	res := NewResult()
	if err := svc.SearchGroup(context.Background(), "installed", "system", res); err != nil {
		t.Fatalf("SearchGroup failed: %v", err)
	}
	want := []string{idGlibcInstalled, idNcursesInstalled}
	if got := sortedIDs(res); !equalStrings(got, want) {
		t.Errorf("SearchGroup = %v, want %v", got, want)
	}
}

func TestSearchDetails(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name, filters, keys string
		want                []string
	}{
		{"description", "none", "gnu hello", []string{idHello}},
		{"homepage", "none", "gnu.org", []string{idHello}},
		{"license", "none", "gpl-2", []string{idGlibcInstalled}},
		// 9.1 has no description, so newest must not hide the installed match.
		{"newest after match", "newest", "improved", []string{idVimInstalled}},
		{"every key", "none", "gnu improved", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewResult()
			if err := svc.SearchDetails(context.Background(), tt.filters, tt.keys, res); err != nil {
				t.Fatalf("SearchDetails failed: %v", err)
			}
			if got := sortedIDs(res); !equalStrings(got, tt.want) {
				t.Errorf("SearchDetails(%q) = %v, want %v", tt.keys, got, tt.want)
			}
		})
	}
}

func TestSearchFile(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		key  string
		want []string
	}{
		{"vim", []string{idVimInstalled}},
		{"/usr/bin/ex", []string{idVimInstalled}},
		{"/usr/bin", nil},
		{"ncurses.so", nil},
		{"LIBNCURSES.SO", []string{idNcursesInstalled}},
		{"", nil},
	}

	for _, tt := range tests {
		res := NewResult()
		if err := svc.SearchFile(context.Background(), "none", tt.key, res); err != nil {
			t.Fatalf("SearchFile(%q) failed: %v", tt.key, err)
		}
		if got := sortedIDs(res); !equalStrings(got, tt.want) {
			t.Errorf("SearchFile(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestSearchFile_NotInstalledFilter(t *testing.T) {
	svc := newTestService(t)

	err := svc.SearchFile(context.Background(), "~installed", "vim", NewResult())
	if !errors.Is(err, pkg.ErrFilterNotSupported) {
		t.Fatalf("SearchFile = %v, want ErrFilterNotSupported", err)
	}
	if code := pkg.ErrorCode(err); code != pkg.CodeCannotGetFilelist {
		t.Errorf("code = %s, want %s", code, pkg.CodeCannotGetFilelist)
	}
}

func TestSearchKeys(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"  Vim  ", []string{"vim"}},
		{"GNU hello", []string{"gnu", "hello"}},
	}
	for _, tt := range tests {
		if got := searchKeys(tt.in); !equalStrings(got, tt.want) {
			t.Errorf("searchKeys(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFileMatcher(t *testing.T) {
	tests := []struct {
		key, path string
		want      bool
	}{
		{"/usr/bin/vim", "/usr/bin/vim", true},
		{"/usr/bin/vim", "/usr/bin/VIM", false},
		{"vim", "/usr/bin/vim", true},
		{"bin/vim", "/usr/bin/vim", true},
		{"VIM", "/usr/bin/vim", true},
		{"im", "/usr/bin/vim", false},
	}
	for _, tt := range tests {
		if got := fileMatcher(tt.key)(tt.path); got != tt.want {
			t.Errorf("fileMatcher(%q)(%q) = %v, want %v", tt.key, tt.path, got, tt.want)
		}
	}
}
