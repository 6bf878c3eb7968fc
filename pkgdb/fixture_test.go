package pkgdb

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"go-pkresolve/log"
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
  - name: local
    enabled: true
license_groups:
  FSF-APPROVED: [GPL-2, GPL-3, "@BSD-LIKE"]
  BSD-LIKE: [BSD, MIT]
sets:
  world: [app-editors/vim, "dev-lang/go:0"]
  system: [sys-libs/glibc]
installed:
  - name: app-editors/vim
    version: "9.0-r1"
    keywords: [amd64, x86]
    license: vim
    description: Vim, an improved vi-style text editor
    homepage: https://www.vim.org
    size: 4096
    files: [/usr/bin/vim, /usr/bin/ex]
    rdepend: [sys-libs/ncurses]
  - name: sys-libs/ncurses
    version: "6.4"
    slot: "0/6"
    keywords: [amd64]
    license: MIT
    rdepend: [sys-libs/glibc]
  - name: sys-libs/glibc
    version: "2.38"
    slot: "2.2"
    keywords: [amd64]
    license: GPL-2
  - name: dev-lang/go
    version: "1.21.5"
    keywords: [arm64]
    license: BSD
available:
  - name: app-editors/vim
    version: "9.0-r1"
    keywords: [amd64, x86]
    license: vim
    size: 4096
    rdepend: [sys-libs/ncurses]
  - name: app-editors/vim
    version: "9.1"
    keywords: ["~amd64"]
    license: vim
    rdepend: [">=sys-libs/ncurses-6.5", "!app-editors/vim-core"]
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
  - name: app-misc/broken
    version: "1.0"
    keywords: [amd64]
    license: MIT
    depend: [dev-libs/missing]
`

// newTestDB opens a writable database under t.TempDir() loaded with
// testManifest, accepting the given keywords.
func newTestDB(t *testing.T, accept ...string) (*DB, *log.MemoryLogger) {
	t.Helper()
	if len(accept) == 0 {
		accept = []string{"amd64"}
	}
	logger := log.NewMemoryLogger()
	db, err := Open(filepath.Join(t.TempDir(), "packages.db"), Options{AcceptKeywords: accept, Logger: logger})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m, err := LoadManifest(strings.NewReader(testManifest))
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if _, err := db.Import(context.Background(), m, false); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	return db, logger
}
