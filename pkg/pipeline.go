package pkg

import (
	"context"
	"errors"

	"go-pkresolve/log"
)

// Pipeline applies the license stage and then the newest stage to a
// candidate list. A Pipeline belongs to one request.
type Pipeline struct {
	store   MetadataStore
	filters FilterSpec
	policy  *LicensePolicy // nil when no license filter is requested
	logger  log.LibraryLogger
}

// NewPipeline prepares a pipeline for filters. The license policy is
// resolved once against the store's license groups.
func NewPipeline(ctx context.Context, store MetadataStore, filters FilterSpec, freeGroup string, logger log.LibraryLogger) (*Pipeline, error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NoOpLogger{}
	}
	if freeGroup == "" {
		freeGroup = DefaultFreeGroup
	}

	p := &Pipeline{store: store, filters: filters, logger: logger}
	if !filters.HasLicense() {
		return p, nil
	}

	groups, err := store.LicenseGroups(ctx)
	if err != nil {
		return nil, err
	}
	if filters.Free {
		p.policy, err = FreePolicy(freeGroup, groups)
	} else {
		p.policy, err = NotFreePolicy(freeGroup, groups)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Filters returns the filters the pipeline was built for.
func (p *Pipeline) Filters() FilterSpec {
	return p.filters
}

// Apply runs the license stage followed by the newest stage.
func (p *Pipeline) Apply(ctx context.Context, candidates []Identity) ([]Identity, error) {
	out, err := p.ApplyLicense(ctx, candidates)
	if err != nil {
		return nil, err
	}
	return p.ApplyNewest(out)
}

// ApplyLicense drops candidates whose license is not accepted. Candidates
// whose metadata or license cannot be evaluated are dropped and logged.
func (p *Pipeline) ApplyLicense(ctx context.Context, candidates []Identity) ([]Identity, error) {
	if p.policy == nil || len(candidates) == 0 {
		return candidates, nil
	}

	out := make([]Identity, 0, len(candidates))
	for _, id := range candidates {
		md, err := p.store.Metadata(ctx, id)
		if err != nil {
			if errors.Is(err, ErrStoreUnavailable) {
				return nil, err
			}
			p.logger.Warn("license: skipping %s: %v", id.CPV(), err)
			continue
		}
		ok, err := p.policy.Allowed(md.License, md.Use)
		if err != nil {
			p.logger.Warn("license: skipping %s: %v", id.CPV(), err)
			continue
		}
		if ok {
			out = append(out, id)
		}
	}
	return out, nil
}

// ApplyNewest keeps the newest identities per slot. With the installed
// filter each slot holds a single identity, so only that is verified.
// Integrity violations are returned as *IntegrityError.
func (p *Pipeline) ApplyNewest(candidates []Identity) ([]Identity, error) {
	if !p.filters.Newest {
		return candidates, nil
	}
	if p.filters.Installed {
		if err := CheckInstalledPerSlot(Partition(candidates)); err != nil {
			return nil, err
		}
		return candidates, nil
	}
	return FilterNewest(p.store, candidates, !p.filters.NotInstalled)
}
