package pkg

import (
	"strings"

	"go-pkresolve/version"
)

// idFields is the number of ';'-separated fields in a package identifier.
const idFields = 4

// EncodeID renders an identity as "name;version[-rN][:slot];keywords;origin".
//
// A revision of r0 is omitted and the slot is appended only when it is not
// "0". Keywords are space separated.
func EncodeID(id Identity) string {
	ver := id.PVR()
	if id.Slot != "" && id.Slot != DefaultSlot {
		ver += ":" + id.Slot
	}
	return strings.Join([]string{
		id.Name,
		ver,
		strings.Join(id.Keywords, " "),
		id.Origin.String(),
	}, ";")
}

// DecodeID parses an identifier produced by EncodeID.
func DecodeID(s string) (Identity, error) {
	fields := strings.Split(s, ";")
	if len(fields) != idFields {
		return Identity{}, &MalformedIdentifierError{ID: s, Reason: "expected 4 fields"}
	}

	name := fields[0]
	if name == "" {
		return Identity{}, &MalformedIdentifierError{ID: s, Reason: "empty name"}
	}

	pvr := fields[1]
	slot := DefaultSlot
	if i := strings.LastIndex(pvr, ":"); i >= 0 {
		slot = pvr[i+1:]
		pvr = pvr[:i]
		if slot == "" {
			return Identity{}, &MalformedIdentifierError{ID: s, Reason: "empty slot"}
		}
	}
	if pvr == "" {
		return Identity{}, &MalformedIdentifierError{ID: s, Reason: "empty version"}
	}
	ver, rev := version.SplitRevision(pvr)

	var origin Origin
	switch fields[3] {
	case "":
		return Identity{}, &MalformedIdentifierError{ID: s, Reason: "empty origin"}
	case OriginInstalled:
		origin = Installed()
	default:
		origin = Repository(fields[3])
	}

	return NewIdentity(name, ver, rev, slot, strings.Fields(fields[2]), origin), nil
}
