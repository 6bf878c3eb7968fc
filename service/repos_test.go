package service

import (
	"context"
	"errors"
	"testing"

	"go-pkresolve/pkg"
)

func TestGetRepoList(t *testing.T) {
	svc := newTestService(t)

	res := NewResult()
	if err := svc.GetRepoList(context.Background(), "none", res); err != nil {
		t.Fatalf("GetRepoList failed: %v", err)
	}
	if len(res.Repos) != 1 || res.Repos[0].ID != "gentoo" || !res.Repos[0].Enabled {
		t.Errorf("Repos = %+v, want only gentoo", res.Repos)
	}

	res = NewResult()
	if err := svc.GetRepoList(context.Background(), "devel", res); err != nil {
		t.Fatalf("GetRepoList(devel) failed: %v", err)
	}
	if len(res.Repos) != 2 {
		t.Fatalf("Repos = %+v, want gentoo and guru", res.Repos)
	}
	guru := res.Repos[1]
	if guru.ID != "guru" || guru.Enabled || guru.Description != "user contributed ebuilds" {
		t.Errorf("guru = %+v", guru)
	}
}

func TestRepoEnable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.RepoEnable(ctx, "guru", true, NewResult()); err != nil {
		t.Fatalf("RepoEnable(guru) failed: %v", err)
	}

	res := NewResult()
	if err := svc.Resolve(ctx, "none", []string{"dev-util/extra"}, res); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got := res.IDs(); !equalStrings(got, []string{idExtra}) {
		t.Errorf("Resolve after enable = %v, want [%s]", got, idExtra)
	}

	if err := svc.RepoEnable(ctx, "guru", false, NewResult()); err != nil {
		t.Fatalf("RepoEnable(guru, false) failed: %v", err)
	}
	res = NewResult()
	if err := svc.Resolve(ctx, "none", []string{"dev-util/extra"}, res); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Packages) != 0 {
		t.Errorf("Resolve after disable = %v, want nothing", res.IDs())
	}
}

func TestRepoEnable_MainTree(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	err := svc.RepoEnable(ctx, "gentoo", false, NewResult())
	if !errors.Is(err, pkg.ErrCannotDisableRepo) {
		t.Errorf("disable gentoo = %v, want ErrCannotDisableRepo", err)
	}
	if code := pkg.ErrorCode(err); code != pkg.CodeCannotDisableRepo {
		t.Errorf("code = %s, want %s", code, pkg.CodeCannotDisableRepo)
	}

	if err := svc.RepoEnable(ctx, "gentoo", true, NewResult()); err != nil {
		t.Errorf("enable gentoo = %v, want nil", err)
	}
}

func TestRepoEnable_Unknown(t *testing.T) {
	svc := newTestService(t)

	err := svc.RepoEnable(context.Background(), "nope", true, NewResult())
	if !errors.Is(err, pkg.ErrRepoNotFound) {
		t.Errorf("RepoEnable(nope) = %v, want ErrRepoNotFound", err)
	}
}
