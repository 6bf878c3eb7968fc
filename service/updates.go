package service

import (
	"context"

	"go-pkresolve/pkg"
)

// GetUpdates lists pending updates of the system and world sets plus the
// security set. Security updates come first, then downgrades of packages
// that left the tree (important), then normal updates. Packages whose data
// is inconsistent and security atoms that match nothing are reported per
// item.
func (s *Service) GetUpdates(ctx context.Context, filters string, sink Sink) error {
	return s.run(ctx, OpGetUpdates, filters, sink, func(ctx context.Context, q *query) error {
		spec, err := pkg.ParseFilters(filters)
		if err != nil {
			return err
		}
		p, err := q.pipeline(ctx, spec)
		if err != nil {
			return err
		}

		c := pkg.NewClassifier(q.svc.store, q.svc.db, p, q.log)
		res, err := c.Classify(ctx)
		if err != nil {
			return err
		}

		for _, e := range res.Errors {
			q.itemError(e)
		}
		for _, u := range res.All() {
			if err := q.emit(ctx, u.ID, u.Info); err != nil {
				return err
			}
		}
		return nil
	})
}
