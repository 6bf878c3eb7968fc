package service

import (
	"context"
	"errors"
	"strings"

	"go-pkresolve/pkg"
)

// Operation names used in logs and metrics.
const (
	OpGetPackages     = "get-packages"
	OpResolve         = "resolve"
	OpSearchDetails   = "search-details"
	OpSearchName      = "search-name"
	OpSearchGroup     = "search-group"
	OpSearchFile      = "search-file"
	OpGetDepends      = "get-depends"
	OpGetRequires     = "get-requires"
	OpGetUpdates      = "get-updates"
	OpGetDetails      = "get-details"
	OpGetFiles        = "get-files"
	OpGetUpdateDetail = "get-update-detail"
	OpGetRepoList     = "get-repo-list"
	OpRepoEnable      = "repo-enable"
)

// isFatal reports errors that stop a query instead of being reported per
// item.
func isFatal(err error) bool {
	return errors.Is(err, pkg.ErrStoreUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// skipPackage reports a per-package failure and lets the query go on with
// the next package. Fatal errors are returned unchanged.
func (q *query) skipPackage(name string, err error) error {
	if isFatal(err) {
		return err
	}
	q.log.Error("%s: skipping %s: %v", q.op, name, err)
	q.itemError(err)
	return nil
}

// GetPackages lists every package version passing filters.
func (s *Service) GetPackages(ctx context.Context, filters string, sink Sink) error {
	return s.run(ctx, OpGetPackages, filters, sink, func(ctx context.Context, q *query) error {
		return q.list(ctx, filters, nil)
	})
}

// Resolve lists the versions of the named logical packages. Names match
// exactly and case-sensitively. A name that matches nothing is reported
// per item with close matches as suggestions.
func (s *Service) Resolve(ctx context.Context, filters string, names []string, sink Sink) error {
	args := filters + " " + strings.Join(names, " ")
	return s.run(ctx, OpResolve, args, sink, func(ctx context.Context, q *query) error {
		want := make(map[string]bool, len(names))
		for _, n := range names {
			want[n] = true
		}
		found := make(map[string]bool, len(names))

		err := q.list(ctx, filters, func(name string) bool {
			if want[name] {
				found[name] = true
				return true
			}
			return false
		})
		if err != nil {
			return err
		}

		for _, n := range names {
			if !found[n] {
				if err := q.notFound(ctx, n); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// SearchName lists packages whose name, without category, contains every
// space-separated key. Matching is case-insensitive and literal.
func (s *Service) SearchName(ctx context.Context, filters, keys string, sink Sink) error {
	return s.run(ctx, OpSearchName, filters+" "+keys, sink, func(ctx context.Context, q *query) error {
		search := searchKeys(keys)
		return q.list(ctx, filters, func(name string) bool {
			return matchAll(search, pkg.BaseName(name))
		})
	})
}

// SearchGroup lists packages whose category maps to group.
func (s *Service) SearchGroup(ctx context.Context, filters, group string, sink Sink) error {
	return s.run(ctx, OpSearchGroup, filters+" "+group, sink, func(ctx context.Context, q *query) error {
		want := pkg.Group(group)
		return q.list(ctx, filters, func(name string) bool {
			return pkg.GroupOf(name) == want
		})
	})
}

// SearchDetails lists package versions where every key is found in the
// description, homepage, license or repository. The newest stage runs
// after matching so that a non-matching newer version does not hide an
// older match.
func (s *Service) SearchDetails(ctx context.Context, filters, keys string, sink Sink) error {
	return s.run(ctx, OpSearchDetails, filters+" "+keys, sink, func(ctx context.Context, q *query) error {
		spec, err := pkg.ParseFilters(filters)
		if err != nil {
			return err
		}
		p, err := q.pipeline(ctx, spec)
		if err != nil {
			return err
		}
		search := searchKeys(keys)

		enum := q.enumerator()
		names, err := enum.AllNames(ctx, spec)
		if err != nil {
			return err
		}
		return enum.Each(ctx, names, spec, func(name string, ids []pkg.Identity, err error) error {
			if err != nil {
				return err
			}
			ids, err = p.ApplyLicense(ctx, ids)
			if err != nil {
				return err
			}

			var matched []pkg.Identity
			for _, id := range ids {
				md, err := q.svc.store.Metadata(ctx, id)
				if err != nil {
					if isFatal(err) {
						return err
					}
					q.log.Warn("search: skipping %s: %v", id.CPV(), err)
					continue
				}
				if matchAny(search, md.Description, md.Homepage, md.License, md.Repository) {
					matched = append(matched, id)
				}
			}

			matched, err = p.ApplyNewest(matched)
			if err != nil {
				return q.skipPackage(name, err)
			}
			return q.emitAll(ctx, matched)
		})
	})
}

// SearchFile lists installed packages owning a file. An absolute key must
// equal the path; any other key matches the last path components,
// case-insensitively. Each package is emitted once.
func (s *Service) SearchFile(ctx context.Context, filters, key string, sink Sink) error {
	return s.run(ctx, OpSearchFile, filters+" "+key, sink, func(ctx context.Context, q *query) error {
		spec, err := pkg.ParseFilters(filters)
		if err != nil {
			return err
		}
		if spec.NotInstalled {
			return &pkg.OpError{Op: OpSearchFile, Err: pkg.ErrFilterNotSupported}
		}
		if key == "" {
			return nil
		}
		p, err := q.pipeline(ctx, spec)
		if err != nil {
			return err
		}

		match := fileMatcher(key)
		spec.Installed = true
		enum := q.enumerator()
		names, err := enum.AllNames(ctx, spec)
		if err != nil {
			return err
		}
		return enum.Each(ctx, names, spec, func(name string, ids []pkg.Identity, err error) error {
			if err != nil {
				return err
			}
			ids, err = p.ApplyLicense(ctx, ids)
			if err != nil {
				return err
			}
			for _, id := range ids {
				files, err := q.svc.store.Files(ctx, id)
				if err != nil {
					if isFatal(err) {
						return err
					}
					q.log.Warn("search-file: skipping %s: %v", id.CPV(), err)
					continue
				}
				for _, f := range files {
					if match(f) {
						if err := q.emit(ctx, id, pkg.InfoFor(id)); err != nil {
							return err
						}
						break
					}
				}
			}
			return nil
		})
	})
}

// list emits the filtered versions of every logical package accepted by
// keep. A nil keep accepts everything.
func (q *query) list(ctx context.Context, filters string, keep func(name string) bool) error {
	spec, err := pkg.ParseFilters(filters)
	if err != nil {
		return err
	}
	p, err := q.pipeline(ctx, spec)
	if err != nil {
		return err
	}

	enum := q.enumerator()
	names, err := enum.AllNames(ctx, spec)
	if err != nil {
		return err
	}
	if keep != nil {
		kept := names[:0:0]
		for _, n := range names {
			if keep(n) {
				kept = append(kept, n)
			}
		}
		names = kept
	}

	return enum.Each(ctx, names, spec, func(name string, ids []pkg.Identity, err error) error {
		if err != nil {
			return q.skipPackage(name, err)
		}
		ids, err = p.Apply(ctx, ids)
		if err != nil {
			return q.skipPackage(name, err)
		}
		return q.emitAll(ctx, ids)
	})
}

// searchKeys splits a search string into lower-case keys.
func searchKeys(keys string) []string {
	fields := strings.Fields(keys)
	for i, k := range fields {
		fields[i] = strings.ToLower(k)
	}
	return fields
}

// matchAll reports whether every key occurs in s.
func matchAll(keys []string, s string) bool {
	s = strings.ToLower(s)
	for _, k := range keys {
		if !strings.Contains(s, k) {
			return false
		}
	}
	return true
}

// matchAny reports whether every key occurs in at least one field.
func matchAny(keys []string, fields ...string) bool {
	lower := make([]string, len(fields))
	for i, f := range fields {
		lower[i] = strings.ToLower(f)
	}
	for _, k := range keys {
		found := false
		for _, f := range lower {
			if strings.Contains(f, k) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func fileMatcher(key string) func(path string) bool {
	if strings.HasPrefix(key, "/") {
		return func(path string) bool { return path == key }
	}
	suffix := "/" + strings.ToLower(key)
	return func(path string) bool {
		return strings.HasSuffix(strings.ToLower(path), suffix)
	}
}
