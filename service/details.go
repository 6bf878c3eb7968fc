package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-pkresolve/pkg"
)

// Update detail constants for the fields the database does not track.
const (
	updateRestart   = "none"
	updateText      = "No update text"
	updateChangelog = "No ChangeLog"
	updateState     = "stable"
)

// GetDetails describes the given packages. The size is the download size
// of a repository version and 0 for an installed one.
func (s *Service) GetDetails(ctx context.Context, ids []string, sink Sink) error {
	return s.run(ctx, OpGetDetails, strings.Join(ids, " "), sink, func(ctx context.Context, q *query) error {
		for _, raw := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, ok, err := q.lookup(ctx, raw)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			md, err := q.svc.store.Metadata(ctx, id)
			if err != nil {
				if isFatal(err) {
					return err
				}
				q.itemError(err)
				continue
			}
			q.sink.Details(Details{
				ID:          pkg.EncodeID(id),
				License:     md.License,
				Group:       pkg.GroupOf(id.Name),
				Description: md.Description,
				Homepage:    md.Homepage,
				Size:        md.Size,
			})
		}
		return nil
	})
}

// GetFiles lists the files of installed packages, sorted.
func (s *Service) GetFiles(ctx context.Context, ids []string, sink Sink) error {
	return s.run(ctx, OpGetFiles, strings.Join(ids, " "), sink, func(ctx context.Context, q *query) error {
		for _, raw := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, ok, err := q.lookup(ctx, raw)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if !id.IsInstalled() {
				q.itemError(&pkg.OpError{Op: OpGetFiles, ID: raw, Err: pkg.ErrNotInstalled})
				continue
			}
			files, err := q.svc.store.Files(ctx, id)
			if err != nil {
				if isFatal(err) {
					return err
				}
				q.itemError(&pkg.OpError{Op: OpGetFiles, ID: raw, Err: err})
				continue
			}
			q.sink.Files(FileList{ID: raw, Files: files})
		}
		return nil
	})
}

// GetUpdateDetail describes pending updates. Updates lists the installed
// versions of the package joined with '&'; the vendor URL is the homepage.
// An identifier that no repository offers is reported with a message, not
// an error, and still described.
func (s *Service) GetUpdateDetail(ctx context.Context, ids []string, sink Sink) error {
	return s.run(ctx, OpGetUpdateDetail, strings.Join(ids, " "), sink, func(ctx context.Context, q *query) error {
		store := q.svc.store
		for _, raw := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, err := pkg.DecodeID(raw)
			if err != nil {
				q.itemError(err)
				continue
			}

			homepage := ""
			md, err := store.Metadata(ctx, id)
			switch {
			case err == nil:
				homepage = md.Homepage
			case isFatal(err):
				return err
			case errors.Is(err, pkg.ErrPackageNotFound):
				q.sink.Message(Message{Kind: MessageCouldNotFindPackage, Text: fmt.Sprintf("could not find %s", raw)})
			default:
				q.itemError(err)
				continue
			}

			installed, err := store.Installed(ctx, id.Name)
			if err != nil {
				return err
			}
			replaced := make([]string, len(installed))
			for i, inst := range installed {
				replaced[i] = inst.CPV()
			}
			if homepage == "" && len(installed) > 0 {
				if imd, err := store.Metadata(ctx, installed[len(installed)-1]); err == nil {
					homepage = imd.Homepage
				}
			}

			q.sink.UpdateDetail(UpdateDetail{
				ID:         raw,
				Updates:    strings.Join(replaced, "&"),
				VendorURL:  homepage,
				Restart:    updateRestart,
				UpdateText: updateText,
				Changelog:  updateChangelog,
				State:      updateState,
			})
		}
		return nil
	})
}
