package service

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"go-pkresolve/config"
)

const testManifest = `
repositories:
  - name: gentoo
    official: true
    supported: true
  - name: guru
    description: user contributed ebuilds
    enabled: false
    official: true
    supported: true
  - name: local
license_groups:
  FSF-APPROVED: [GPL-2, GPL-3, "@BSD-LIKE"]
  BSD-LIKE: [BSD, MIT]
sets:
  world: [app-editors/vim]
  system: [sys-libs/glibc]
installed:
  - name: app-editors/vim
    version: "9.0-r1"
    keywords: [amd64, x86]
    license: vim
    description: Vim, an improved vi-style text editor
    homepage: https://www.vim.org
    files: [/usr/share/vim/vimrc, /usr/bin/vim, /usr/bin/ex]
    rdepend: [sys-libs/ncurses]
  - name: sys-libs/ncurses
    version: "6.4"
    slot: "0/6"
    keywords: [amd64]
    license: MIT
    files: [/usr/lib/libncurses.so]
    rdepend: [sys-libs/glibc]
  - name: sys-libs/glibc
    version: "2.38"
    slot: "2.2"
    keywords: [amd64]
    license: GPL-2
available:
  - name: app-editors/vim
    version: "9.0-r1"
    keywords: [amd64, x86]
    license: vim
    size: 4096
    rdepend: [sys-libs/ncurses]
  - name: app-editors/vim
    version: "9.1"
    keywords: [amd64]
    license: vim
    size: 5000
    rdepend: [">=sys-libs/ncurses-6.5"]
  - name: app-editors/vim
    version: "9.2_rc1"
    keywords: [amd64]
    license: vim
    masked: true
  - name: app-editors/vim
    version: "9.0-r1"
    repository: local
    keywords: [amd64]
    license: vim
  - name: app-misc/hello
    version: "2.12"
    keywords: [amd64]
    license: GPL-3
    description: GNU hello world
    homepage: https://www.gnu.org/software/hello/
  - name: sys-libs/ncurses
    version: "6.4"
    slot: "0/6"
    keywords: [amd64]
    license: MIT
  - name: sys-libs/ncurses
    version: "6.5"
    slot: "0/6"
    keywords: [amd64]
    license: MIT
    rdepend: [sys-libs/glibc]
  - name: sys-libs/glibc
    version: "2.38"
    slot: "2.2"
    keywords: [amd64]
    license: GPL-2
  - name: dev-util/extra
    version: "1.0"
    repository: guru
    keywords: [amd64]
    license: MIT
`

// Identifiers of the fixture, as the service encodes them.
const (
	idVimInstalled     = "app-editors/vim;9.0-r1;amd64 x86;installed"
	idVim91            = "app-editors/vim;9.1;amd64;gentoo"
	idVimMasked        = "app-editors/vim;9.2_rc1;amd64;gentoo"
	idHello            = "app-misc/hello;2.12;amd64;gentoo"
	idNcursesInstalled = "sys-libs/ncurses;6.4;amd64;installed"
	idNcurses65        = "sys-libs/ncurses;6.5;amd64;gentoo"
	idGlibcInstalled   = "sys-libs/glibc;2.38:2.2;amd64;installed"
	idExtra            = "dev-util/extra;1.0;amd64;guru"
)

// testConfig returns a configuration rooted in a temporary directory.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	tmpDir := t.TempDir()

	cfg := config.Default()
	cfg.DatabasePath = filepath.Join(tmpDir, "db", "packages.db")
	cfg.LogsPath = filepath.Join(tmpDir, "logs")
	cfg.LockFile = filepath.Join(tmpDir, "run", "pkresolve.lock")
	cfg.WorldFile = filepath.Join(tmpDir, "portage", "world")
	cfg.SystemFile = filepath.Join(tmpDir, "portage", "system")
	cfg.AcceptKeywords = []string{"amd64", "x86"}
	cfg.Workers = 2
	return cfg
}

// newTestService opens a writable service loaded with testManifest.
func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := testConfig(t)

	svc, err := NewService(cfg, Options{})
	if err != nil {
		t.Fatalf("NewService() failed: %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	manifest := filepath.Join(t.TempDir(), "tree.yaml")
	if err := os.WriteFile(manifest, []byte(testManifest), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}
	if _, err := svc.Import(context.Background(), ImportOptions{Path: manifest}); err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	return svc
}

// sortedIDs returns the collected identifiers in sorted order.
func sortedIDs(r *Result) []string {
	ids := r.IDs()
	sort.Strings(ids)
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// errorCodes returns the codes of the collected item errors.
func errorCodes(r *Result) []string {
	codes := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		codes[i] = e.Code
	}
	return codes
}
