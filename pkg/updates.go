package pkg

import (
	"context"
	"errors"

	"go-pkresolve/log"
	"go-pkresolve/version"
)

// UpdateSet holds the update and downgrade candidates of one logical
// package, keyed by slot.
type UpdateSet struct {
	Name       string
	Updates    map[string][]Identity // ordered newest first
	Downgrades map[string]Identity

	slots     []string // slots with updates, in classification order
	downSlots []string
}

func newUpdateSet(name string) *UpdateSet {
	return &UpdateSet{
		Name:       name,
		Updates:    make(map[string][]Identity),
		Downgrades: make(map[string]Identity),
	}
}

// Empty reports whether nothing was recorded.
func (u *UpdateSet) Empty() bool {
	return len(u.Updates) == 0 && len(u.Downgrades) == 0
}

// Update is a classified update candidate.
type Update struct {
	ID   Identity
	Info Info
}

// UpdateResult is the outcome of one classification run.
type UpdateResult struct {
	Security  []Identity
	Important []Identity
	Normal    []Identity

	// Errors collects per-package failures, such as integrity violations
	// or security atoms that match nothing.
	Errors []error
}

// All returns every update in emission order: security first, then
// downgrades, then normal updates.
func (r *UpdateResult) All() []Update {
	out := make([]Update, 0, len(r.Security)+len(r.Important)+len(r.Normal))
	for _, id := range r.Security {
		out = append(out, Update{ID: id, Info: InfoSecurity})
	}
	for _, id := range r.Important {
		out = append(out, Update{ID: id, Info: InfoImportant})
	}
	for _, id := range r.Normal {
		out = append(out, Update{ID: id, Info: InfoNormal})
	}
	return out
}

// Classifier computes pending updates of the system and world sets.
type Classifier struct {
	store    MetadataStore
	sets     SetSource
	pipeline *Pipeline
	logger   log.LibraryLogger
}

// NewClassifier creates a classifier. The pipeline supplies the license
// stage and the newest flag.
func NewClassifier(store MetadataStore, sets SetSource, pipeline *Pipeline, logger log.LibraryLogger) *Classifier {
	if logger == nil {
		logger = log.NoOpLogger{}
	}
	return &Classifier{store: store, sets: sets, pipeline: pipeline, logger: logger}
}

// Tracked returns the logical names of the system and world sets, system
// first, without duplicates.
func (c *Classifier) Tracked(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var names []string
	for _, set := range []string{SetSystem, SetWorld} {
		atoms, err := c.sets.SetAtoms(ctx, set)
		if err != nil {
			return nil, err
		}
		for _, a := range atoms {
			if !seen[a.Name] {
				seen[a.Name] = true
				names = append(names, a.Name)
			}
		}
	}
	return names, nil
}

// Classify runs the classification. It stops between packages when ctx is
// cancelled.
func (c *Classifier) Classify(ctx context.Context) (*UpdateResult, error) {
	tracked, err := c.Tracked(ctx)
	if err != nil {
		return nil, err
	}

	res := &UpdateResult{}
	sets := make(map[string]*UpdateSet, len(tracked))
	var order []string

	for _, name := range tracked {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		set, err := c.classifyPackage(ctx, name)
		if err != nil {
			var ie *IntegrityError
			if errors.As(err, &ie) {
				c.logger.Error("updates: %v", err)
				res.Errors = append(res.Errors, err)
				continue
			}
			return nil, err
		}
		if !set.Empty() {
			sets[name] = set
			order = append(order, name)
		}
	}

	if err := c.reclassifySecurity(ctx, sets, res); err != nil {
		return nil, err
	}

	for _, name := range order {
		set := sets[name]
		for _, slot := range set.downSlots {
			res.Important = append(res.Important, set.Downgrades[slot])
		}
	}
	for _, name := range order {
		set := sets[name]
		for _, slot := range set.slots {
			res.Normal = append(res.Normal, set.Updates[slot]...)
		}
	}
	return res, nil
}

// classifyPackage walks the installed slots in descending slot order. The walk
// ends at the first slot that yields no update.
func (c *Classifier) classifyPackage(ctx context.Context, name string) (*UpdateSet, error) {
	installed, err := c.store.Installed(ctx, name)
	if err != nil {
		return nil, err
	}
	available, err := c.store.Available(ctx, name)
	if err != nil {
		return nil, err
	}

	inst := Partition(installed)
	if err := CheckInstalledPerSlot(inst); err != nil {
		return nil, err
	}
	avail := Partition(available)
	set := newUpdateSet(name)

	for _, slot := range inst.Reversed() {
		ids, _ := inst.Get(slot)
		current := ids[0]

		seq, ok := avail.Get(slot)
		if !ok {
			// Slot vanished from the tree.
			break
		}
		desc := reversed(seq)

		var greater []Identity
		for _, cand := range desc {
			r, err := Compare(c.store, current, cand)
			if err != nil {
				return nil, err
			}
			if r >= 0 {
				break
			}
			greater = append(greater, cand)
		}

		if len(greater) == 0 {
			visible, err := c.store.IsVisible(ctx, current)
			if err != nil {
				return nil, err
			}
			if !visible && len(desc) > 0 {
				set.Downgrades[slot] = desc[0]
				set.downSlots = append(set.downSlots, slot)
				c.logger.Debug("updates: %s is no longer visible, downgrade to %s", current.CPV(), desc[0].CPV())
			}
			break
		}

		greater, err = c.pipeline.ApplyLicense(ctx, greater)
		if err != nil {
			return nil, err
		}
		if len(greater) == 0 {
			break
		}

		if c.pipeline.Filters().Newest {
			best, _, err := MaxBy(c.store, greater)
			if err != nil {
				return nil, err
			}
			greater = []Identity{best}
		}

		set.Updates[slot] = greater
		set.slots = append(set.slots, slot)
	}
	return set, nil
}

// reclassifySecurity moves updates covered by security atoms to the
// security list. Atoms of packages without recorded updates are resolved
// against the repositories and reported as security updates as well.
func (c *Classifier) reclassifySecurity(ctx context.Context, sets map[string]*UpdateSet, res *UpdateResult) error {
	atoms, err := c.sets.SetAtoms(ctx, SetSecurity)
	if err != nil {
		return err
	}

	emitted := make(map[Key]bool)
	emit := func(id Identity) {
		if !emitted[id.Key()] {
			emitted[id.Key()] = true
			res.Security = append(res.Security, id)
		}
	}

	for _, atom := range atoms {
		if err := ctx.Err(); err != nil {
			return err
		}

		set, ok := sets[atom.Name]
		if !ok || len(set.Updates) == 0 {
			id, err := c.resolveAtom(ctx, atom)
			if err != nil {
				if errors.Is(err, ErrPackageNotFound) {
					res.Errors = append(res.Errors, err)
					continue
				}
				return err
			}
			emit(id)
			continue
		}

		slots := set.slots
		s, err := c.atomSlot(ctx, atom)
		if err != nil {
			return err
		}
		if s != "" {
			slots = []string{s}
		}
		floor := NewIdentity(atom.Name, atom.Version, atom.Revision, "", nil, Origin{})

		for _, slot := range slots {
			list, ok := set.Updates[slot]
			if !ok {
				continue
			}
			kept := list[:0:0]
			for _, cand := range list {
				covered := !atom.HasVersion()
				if !covered {
					r, err := Compare(c.store, cand, floor)
					if err != nil {
						return err
					}
					covered = r >= 0
				}
				if covered {
					emit(cand)
				} else {
					kept = append(kept, cand)
				}
			}
			set.Updates[slot] = kept
		}
	}
	return nil
}

// atomSlot returns the slot the atom applies to: its own slot, else the
// slot of the package version it names. "" means every slot.
func (c *Classifier) atomSlot(ctx context.Context, atom version.Atom) (string, error) {
	if atom.Slot != "" {
		return atom.Slot, nil
	}
	if !atom.HasVersion() {
		return "", nil
	}
	vk := VersionKey{Name: atom.Name, Version: atom.Version, Revision: atom.Revision}
	for _, fetch := range []func(context.Context, string) ([]Identity, error){c.store.Available, c.store.Installed} {
		ids, err := fetch(ctx, atom.Name)
		if err != nil {
			return "", err
		}
		for _, id := range ids {
			if id.VersionKey() == vk {
				return version.MainSlot(id.Slot), nil
			}
		}
	}
	return "", nil
}

// resolveAtom returns the repository identity an atom names: the exact
// version when present, else the best visible match.
func (c *Classifier) resolveAtom(ctx context.Context, atom version.Atom) (Identity, error) {
	available, err := c.store.Available(ctx, atom.Name)
	if err != nil {
		return Identity{}, err
	}

	var matches []Identity
	for _, id := range available {
		if atom.HasVersion() && id.Version == atom.Version && id.Revision == atom.Revision {
			return id, nil
		}
		ok, err := atom.Match(id.Name, id.Version, id.Revision, id.Slot)
		if err != nil {
			return Identity{}, err
		}
		if ok {
			matches = append(matches, id)
		}
	}

	best, ok, err := MaxBy(c.store, matches)
	if err != nil {
		return Identity{}, err
	}
	if !ok {
		return Identity{}, &PackageNotFoundError{ID: atom.String()}
	}
	return best, nil
}

func reversed(ids []Identity) []Identity {
	out := make([]Identity, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}
