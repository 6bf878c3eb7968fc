package service

import (
	"context"
	"testing"

	"go-pkresolve/pkg"
)

func TestGetDetails(t *testing.T) {
	svc := newTestService(t)

	res := NewResult()
	ids := []string{idVim91, idVimInstalled, idVimMasked, "app-editors/vim;8.0;;gentoo", "garbage"}
	if err := svc.GetDetails(context.Background(), ids, res); err != nil {
		t.Fatalf("GetDetails failed: %v", err)
	}

	if len(res.PackageDetails) != 3 {
		t.Fatalf("got %d details, want 3: %+v", len(res.PackageDetails), res.PackageDetails)
	}

	d := res.PackageDetails[0]
	if d.ID != idVim91 || d.License != "vim" || d.Group != pkg.GroupOther || d.Size != 5000 {
		t.Errorf("9.1 details = %+v", d)
	}

	d = res.PackageDetails[1]
	if d.ID != idVimInstalled {
		t.Errorf("ID = %s, want %s", d.ID, idVimInstalled)
	}
	if d.Homepage != "https://www.vim.org" || d.Description != "Vim, an improved vi-style text editor" {
		t.Errorf("installed details = %+v", d)
	}
	if d.Size != 0 {
		t.Errorf("installed size = %d, want 0", d.Size)
	}

	if res.PackageDetails[2].ID != idVimMasked {
		t.Errorf("masked ID = %s, want %s", res.PackageDetails[2].ID, idVimMasked)
	}

	want := []string{pkg.CodePackageNotFound, pkg.CodePackageIDInvalid}
	if got := errorCodes(res); !equalStrings(got, want) {
		t.Errorf("codes = %v, want %v", got, want)
	}
}

func TestGetDetails_InstalledVersionWins(t *testing.T) {
	svc := newTestService(t)

	res := NewResult()
	if err := svc.GetDetails(context.Background(), []string{"app-editors/vim;9.0-r1;amd64;gentoo"}, res); err != nil {
		t.Fatalf("GetDetails failed: %v", err)
	}
	if len(res.PackageDetails) != 1 || res.PackageDetails[0].ID != idVimInstalled {
		t.Errorf("details = %+v, want the installed version", res.PackageDetails)
	}
}

func TestGetFiles(t *testing.T) {
	svc := newTestService(t)

	res := NewResult()
	ids := []string{idVimInstalled, idVim91, "app-editors/vim;9.0-r1;amd64;gentoo"}
	if err := svc.GetFiles(context.Background(), ids, res); err != nil {
		t.Fatalf("GetFiles failed: %v", err)
	}

	if len(res.FileLists) != 2 {
		t.Fatalf("got %d file lists, want 2", len(res.FileLists))
	}
	want := []string{"/usr/bin/ex", "/usr/bin/vim", "/usr/share/vim/vimrc"}
	for _, fl := range res.FileLists {
		if !equalStrings(fl.Files, want) {
			t.Errorf("%s: files = %v, want %v", fl.ID, fl.Files, want)
		}
	}
	if res.FileLists[1].ID != ids[2] {
		t.Errorf("file list ID = %s, want the identifier as given", res.FileLists[1].ID)
	}

	if got := errorCodes(res); !equalStrings(got, []string{pkg.CodeCannotGetFilelist}) {
		t.Errorf("codes = %v, want [%s]", got, pkg.CodeCannotGetFilelist)
	}
}

func TestGetUpdateDetail(t *testing.T) {
	svc := newTestService(t)

	res := NewResult()
	ids := []string{idVim91, "app-editors/vim;8.0;;gentoo", "bad"}
	if err := svc.GetUpdateDetail(context.Background(), ids, res); err != nil {
		t.Fatalf("GetUpdateDetail failed: %v", err)
	}

	if len(res.UpdateDetails) != 2 {
		t.Fatalf("got %d update details, want 2", len(res.UpdateDetails))
	}
	u := res.UpdateDetails[0]
	if u.ID != idVim91 {
		t.Errorf("ID = %s", u.ID)
	}
	if u.Updates != "app-editors/vim-9.0-r1" {
		t.Errorf("Updates = %q, want app-editors/vim-9.0-r1", u.Updates)
	}
	if u.VendorURL != "https://www.vim.org" {
		t.Errorf("VendorURL = %q, want the installed homepage", u.VendorURL)
	}
	if u.Restart != "none" || u.State != "stable" || u.UpdateText != "No update text" || u.Changelog != "No ChangeLog" {
		t.Errorf("fixed fields = %+v", u)
	}

	if len(res.Messages) != 1 || res.Messages[0].Kind != MessageCouldNotFindPackage {
		t.Errorf("Messages = %+v, want one %s", res.Messages, MessageCouldNotFindPackage)
	}
	if got := errorCodes(res); !equalStrings(got, []string{pkg.CodePackageIDInvalid}) {
		t.Errorf("codes = %v, want [%s]", got, pkg.CodePackageIDInvalid)
	}
}
