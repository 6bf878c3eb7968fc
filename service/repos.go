package service

import (
	"context"
	"fmt"
	"strconv"

	"go-pkresolve/pkg"
	"go-pkresolve/pkgdb"
)

const mainTreeDescription = "Gentoo Portage tree"

// GetRepoList lists repositories. The main tree is always listed and
// enabled. With the development filter every official and supported
// overlay follows with its enabled state.
func (s *Service) GetRepoList(ctx context.Context, filters string, sink Sink) error {
	return s.run(ctx, OpGetRepoList, filters, sink, func(ctx context.Context, q *query) error {
		spec, err := pkg.ParseFilters(filters)
		if err != nil {
			return err
		}

		q.sink.Repo(RepoDetail{ID: pkgdb.DefaultRepository, Description: mainTreeDescription, Enabled: true})
		if !spec.Development {
			return nil
		}

		repos, err := q.svc.db.Repos(ctx)
		if err != nil {
			return err
		}
		for _, r := range repos {
			if r.Name == pkgdb.DefaultRepository || !r.Official || !r.Supported {
				continue
			}
			q.sink.Repo(RepoDetail{ID: r.Name, Description: r.Description, Enabled: r.Enabled})
		}
		return nil
	})
}

// RepoEnable enables or disables a repository. The main tree cannot be
// disabled; enabling it is a no-op. Enabling an enabled repository or
// disabling a disabled one does nothing.
func (s *Service) RepoEnable(ctx context.Context, repo string, enable bool, sink Sink) error {
	args := repo + " " + strconv.FormatBool(enable)
	return s.run(ctx, OpRepoEnable, args, sink, func(ctx context.Context, q *query) error {
		if repo == pkgdb.DefaultRepository {
			if !enable {
				return fmt.Errorf("%s: %w", repo, pkg.ErrCannotDisableRepo)
			}
			return nil
		}
		if err := q.svc.db.SetRepoEnabled(ctx, repo, enable); err != nil {
			return err
		}
		q.log.Info("repository %s enabled=%v", repo, enable)
		return nil
	})
}
