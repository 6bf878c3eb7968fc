package pkg

import (
	"sort"

	"go-pkresolve/version"
)

// SlotGroups maps slot labels to identities. Slots are enumerated in
// ascending label order, independent of the input order.
type SlotGroups struct {
	order []string
	slots map[string][]Identity
}

// Partition groups candidates by slot. Within a slot the input order is kept.
func Partition(candidates []Identity) *SlotGroups {
	g := &SlotGroups{slots: make(map[string][]Identity)}
	for _, c := range candidates {
		if _, ok := g.slots[c.Slot]; !ok {
			g.order = append(g.order, c.Slot)
		}
		g.slots[c.Slot] = append(g.slots[c.Slot], c)
	}
	sort.SliceStable(g.order, func(i, j int) bool {
		return compareSlots(g.order[i], g.order[j]) < 0
	})
	return g
}

// compareSlots orders slot labels as versions ("3.9" < "3.10"). Labels
// that are not versions compare lexically.
func compareSlots(a, b string) int {
	if c, err := version.CompareStrings(a, b); err == nil && c != 0 {
		return c
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Slots returns the slot labels in enumeration order.
func (g *SlotGroups) Slots() []string {
	return g.order
}

// Reversed returns the slot labels in descending order.
func (g *SlotGroups) Reversed() []string {
	out := make([]string, len(g.order))
	for i, s := range g.order {
		out[len(g.order)-1-i] = s
	}
	return out
}

// Get returns the identities of a slot.
func (g *SlotGroups) Get(slot string) ([]Identity, bool) {
	ids, ok := g.slots[slot]
	return ids, ok
}

// Len returns the number of slots.
func (g *SlotGroups) Len() int {
	return len(g.order)
}

// NewestInSlot returns the greatest identity of seq whose installed state
// equals wantInstalled. Among equal versions the first one wins.
func NewestInSlot(cmp VersionComparator, seq []Identity, wantInstalled bool) (Identity, bool, error) {
	var newest Identity
	found := false
	for _, id := range seq {
		if id.IsInstalled() != wantInstalled {
			continue
		}
		if !found {
			newest, found = id, true
			continue
		}
		c, err := Compare(cmp, id, newest)
		if err != nil {
			return Identity{}, false, err
		}
		if c > 0 {
			newest = id
		}
	}
	return newest, found, nil
}

// FilterNewest keeps, per slot, the newest installed identity (when
// includeInstalled) followed by the newest available one. Slots are visited
// in reverse enumeration order. A slot with more than one installed
// identity yields an *IntegrityError.
func FilterNewest(cmp VersionComparator, candidates []Identity, includeInstalled bool) ([]Identity, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	groups := Partition(candidates)
	if err := CheckInstalledPerSlot(groups); err != nil {
		return nil, err
	}
	out := make([]Identity, 0, groups.Len()*2)
	for _, slot := range groups.Reversed() {
		seq, _ := groups.Get(slot)
		if includeInstalled {
			inst, ok, err := NewestInSlot(cmp, seq, true)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, inst)
			}
		}
		avail, ok, err := NewestInSlot(cmp, seq, false)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, avail)
		}
	}
	return out, nil
}

// CheckInstalledPerSlot verifies that no slot holds more than one installed
// identity.
func CheckInstalledPerSlot(groups *SlotGroups) error {
	for _, slot := range groups.order {
		var installed []Identity
		for _, id := range groups.slots[slot] {
			if id.IsInstalled() {
				installed = append(installed, id)
			}
		}
		if len(installed) > 1 {
			return &IntegrityError{Name: installed[0].Name, Slot: slot, Installed: installed}
		}
	}
	return nil
}
