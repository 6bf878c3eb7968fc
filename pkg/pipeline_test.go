package pkg

import (
	"context"
	"errors"
	"testing"

	"go-pkresolve/log"
)

func TestPipelineLicenseBeforeNewest(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	candidates := []Identity{
		s.offer("app-misc/foo", "1.0", "0", "GPL-2"),
		s.offer("app-misc/foo", "2.0", "0", "NVIDIA"),
	}

	filters := FilterSpec{Free: true, Newest: true}
	p, err := NewPipeline(ctx, s, filters, "", nil)
	if err != nil {
		t.Fatal(err)
	}

	got, err := p.Apply(ctx, candidates)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Version != "1.0" {
		t.Fatalf("pipeline = %v, want only foo-1.0", cpvs(got))
	}

	// The opposite order loses the free version entirely.
	newest, _ := p.ApplyNewest(candidates)
	swapped, _ := p.ApplyLicense(ctx, newest)
	if len(swapped) != 0 {
		t.Fatalf("newest then license = %v, want empty", cpvs(swapped))
	}
}

func TestPipelineNoFilters(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	candidates := []Identity{
		s.offer("app-misc/foo", "1.0", "0", "NVIDIA"),
		s.offer("app-misc/foo", "2.0", "0", "GPL-2"),
	}
	p, err := NewPipeline(ctx, s, FilterSpec{}, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := p.Apply(ctx, candidates)
	if len(got) != 2 {
		t.Errorf("no-op pipeline changed the list: %v", cpvs(got))
	}
}

func TestPipelineNotFree(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	candidates := []Identity{
		s.offer("app-misc/foo", "1.0", "0", "GPL-2"),
		s.offer("app-misc/foo", "2.0", "0", "NVIDIA"),
	}
	p, err := NewPipeline(ctx, s, FilterSpec{NotFree: true}, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := p.Apply(ctx, candidates)
	if len(got) != 1 || got[0].Version != "2.0" {
		t.Errorf("~free = %v", cpvs(got))
	}
}

func TestPipelineSkipsBadLicense(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	candidates := []Identity{
		s.offer("app-misc/foo", "1.0", "0", "|| ( GPL-2"),
		s.offer("app-misc/foo", "2.0", "0", "MIT"),
		fixtureIdentity("app-misc/foo", "3.0", "0", Repository("gentoo")), // no metadata
	}
	logger := log.NewMemoryLogger()
	p, err := NewPipeline(ctx, s, FilterSpec{Free: true}, "", logger)
	if err != nil {
		t.Fatal(err)
	}

	got, err := p.Apply(ctx, candidates)
	if err != nil {
		t.Fatalf("bad entries must not abort the batch: %v", err)
	}
	if len(got) != 1 || got[0].Version != "2.0" {
		t.Errorf("got %v, want only foo-2.0", cpvs(got))
	}
	if logger.CountByLevel("WARN") != 2 {
		t.Errorf("expected 2 warnings, got %v", logger.GetMessages())
	}
}

func TestListInstalledFreeScenario(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.install("app-misc/foo", "1.0", "0", "NVIDIA")
	s.offer("app-misc/foo", "1.0", "0", "NVIDIA")
	s.offer("app-misc/foo", "2.0", "0", "GPL-2")

	filters, err := ParseFilters("installed;free")
	if err != nil {
		t.Fatal(err)
	}
	enum := NewEnumerator(s, 1, nil)
	p, err := NewPipeline(ctx, s, filters, "", nil)
	if err != nil {
		t.Fatal(err)
	}

	ids, err := enum.AllIdentities(ctx, "app-misc/foo", filters)
	if err != nil {
		t.Fatal(err)
	}
	got, err := p.Apply(ctx, ids)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("installed;free = %v, want empty", cpvs(got))
	}
}

func TestPipelineNewestReportsIntegrity(t *testing.T) {
	s := newMemStore()
	candidates := []Identity{
		s.install("app-misc/foo", "1.0", "0", "MIT"),
		s.install("app-misc/foo", "2.0", "0", "MIT"),
	}

	for _, filters := range []FilterSpec{{Newest: true}, {Newest: true, Installed: true}} {
		p, err := NewPipeline(context.Background(), s, filters, "", nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := p.Apply(context.Background(), candidates); !errors.Is(err, ErrDataIntegrity) {
			t.Errorf("%s: error = %v, want ErrDataIntegrity", filters, err)
		}
	}

	p, _ := NewPipeline(context.Background(), s, FilterSpec{Installed: true}, "", nil)
	got, err := p.Apply(context.Background(), candidates)
	if err != nil || len(got) != 2 {
		t.Errorf("without newest: %v, %v", cpvs(got), err)
	}
}
