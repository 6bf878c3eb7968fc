package service

import (
	"context"
	"testing"

	"go-pkresolve/pkg"
)

func TestGetUpdates(t *testing.T) {
	svc := newTestService(t)

	res := NewResult()
	if err := svc.GetUpdates(context.Background(), "none", res); err != nil {
		t.Fatalf("GetUpdates failed: %v", err)
	}
	if len(res.Packages) != 1 {
		t.Fatalf("updates = %v, want one", res.IDs())
	}
	if p := res.Packages[0]; p.ID != idVim91 || p.Info != pkg.InfoNormal {
		t.Errorf("update = %s/%s, want %s/%s", p.ID, p.Info, idVim91, pkg.InfoNormal)
	}
}

func TestGetUpdates_Security(t *testing.T) {
	svc := newTestService(t)

	if err := svc.Database().PutSet(pkg.SetSecurity, []string{">=app-editors/vim-9.1", "app-misc/ghost"}); err != nil {
		t.Fatalf("PutSet failed: %v", err)
	}

	res := NewResult()
	if err := svc.GetUpdates(context.Background(), "none", res); err != nil {
		t.Fatalf("GetUpdates failed: %v", err)
	}
	if len(res.Packages) != 1 {
		t.Fatalf("updates = %v, want one", res.IDs())
	}
	if p := res.Packages[0]; p.ID != idVim91 || p.Info != pkg.InfoSecurity {
		t.Errorf("update = %s/%s, want %s/%s", p.ID, p.Info, idVim91, pkg.InfoSecurity)
	}
	if got := errorCodes(res); !equalStrings(got, []string{pkg.CodePackageNotFound}) {
		t.Errorf("codes = %v, want [%s]", got, pkg.CodePackageNotFound)
	}
}

func TestGetUpdates_Free(t *testing.T) {
	svc := newTestService(t)

	// vim is not under a free license.
	res := NewResult()
	if err := svc.GetUpdates(context.Background(), "free", res); err != nil {
		t.Fatalf("GetUpdates failed: %v", err)
	}
	if len(res.Packages) != 0 {
		t.Errorf("updates = %v, want none", res.IDs())
	}
}
