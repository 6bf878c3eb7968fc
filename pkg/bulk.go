package pkg

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// bulkChunkFactor sets how many packages are fetched ahead per worker.
const bulkChunkFactor = 4

// bulkResult is the fetched identity list of one logical package.
type bulkResult struct {
	ids []Identity
	err error
}

// Each fetches the identities of names with up to e.workers concurrent
// store lookups and hands them to fn in the order of names.
//
// Names are processed in chunks: a chunk is fetched in parallel, then
// delivered in order before the next chunk starts, which keeps memory bounded
// on whole-tree listings. The context is checked before every delivery, so a
// cancelled listing stops between packages and keeps what was already
// delivered.
//
// A fetch error for one name is passed to fn together with a nil list; fn
// decides whether it is fatal by returning it. An error returned by fn stops
// the iteration and is returned by Each.
//
// Example:
//
//	err := enum.Each(ctx, names, filters, func(name string, ids []Identity, err error) error {
//	    if err != nil {
//	        return err
//	    }
//	    for _, id := range ids {
//	        sink.Package(InfoFor(id), id)
//	    }
//	    return nil
//	})
func (e *Enumerator) Each(ctx context.Context, names []string, f FilterSpec, fn func(name string, ids []Identity, err error) error) error {
	chunk := e.workers * bulkChunkFactor

	for start := 0; start < len(names); start += chunk {
		end := start + chunk
		if end > len(names) {
			end = len(names)
		}
		batch := names[start:end]

		if e.workers == 1 {
			for _, name := range batch {
				if err := ctx.Err(); err != nil {
					return err
				}
				ids, err := e.AllIdentities(ctx, name, f)
				if err := fn(name, ids, err); err != nil {
					return err
				}
			}
			continue
		}

		results := make([]bulkResult, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.workers)
		for i, name := range batch {
			i, name := i, name
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				ids, err := e.AllIdentities(gctx, name, f)
				results[i] = bulkResult{ids: ids, err: err}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i, name := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(name, results[i].ids, results[i].err); err != nil {
				return err
			}
		}
		e.logger.Debug("bulk: delivered %d/%d packages", end, len(names))
	}
	return nil
}
