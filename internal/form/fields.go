package form

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	FakCount      = 5
	InitialCount  = 8
	EquationCount = 18
)

// StatusKey is the session storage key of the status line.
const StatusKey = "status"

type Group int

const (
	GroupStatus Group = iota
	GroupFak
	GroupInitial
	GroupRestriction
	GroupEquation
)

func (g Group) String() string {
	switch g {
	case GroupStatus:
		return "status"
	case GroupFak:
		return "disturbance"
	case GroupInitial:
		return "initial"
	case GroupRestriction:
		return "restriction"
	case GroupEquation:
		return "equation"
	}
	return "unknown"
}

// Part selects one half of a two-field record. Scalar groups use PartNone.
type Part byte

const (
	PartNone Part = 0
	PartA    Part = 'a'
	PartB    Part = 'b'
	PartK    Part = 'k'
)

// FieldID addresses one field by group, 1-based index and part.
type FieldID struct {
	Group Group
	Index int
	Part  Part
}

func Status() FieldID                { return FieldID{Group: GroupStatus} }
func Fak(i int, p Part) FieldID      { return FieldID{Group: GroupFak, Index: i, Part: p} }
func Initial(i int) FieldID          { return FieldID{Group: GroupInitial, Index: i} }
func Restriction(i int) FieldID      { return FieldID{Group: GroupRestriction, Index: i} }
func Equation(i int, p Part) FieldID { return FieldID{Group: GroupEquation, Index: i, Part: p} }

// Valid reports whether the identifier names a field of the form.
func (id FieldID) Valid() bool {
	switch id.Group {
	case GroupStatus:
		return id.Index == 0 && id.Part == PartNone
	case GroupFak:
		return id.Index >= 1 && id.Index <= FakCount && (id.Part == PartA || id.Part == PartB)
	case GroupInitial, GroupRestriction:
		return id.Index >= 1 && id.Index <= InitialCount && id.Part == PartNone
	case GroupEquation:
		return id.Index >= 1 && id.Index <= EquationCount && (id.Part == PartK || id.Part == PartB)
	}
	return false
}

// Persisted reports whether the field is mirrored into session storage.
// Restrictions live in the form only.
func (id FieldID) Persisted() bool {
	return id.Group != GroupRestriction
}

// Key returns the session storage key.
func (id FieldID) Key() string {
	switch id.Group {
	case GroupStatus:
		return StatusKey
	case GroupFak:
		return fmt.Sprintf("fak%d_%c", id.Index, id.Part)
	case GroupInitial:
		return fmt.Sprintf("init-eq-%d", id.Index)
	case GroupRestriction:
		return fmt.Sprintf("restrictions-%d", id.Index)
	case GroupEquation:
		return fmt.Sprintf("f%d_%c", id.Index, id.Part)
	}
	return ""
}

// ElementID returns the identifier of the page element holding the field.
func (id FieldID) ElementID() string {
	if id.Group == GroupStatus {
		return "status-input"
	}
	return id.Key()
}

func (id FieldID) String() string {
	return id.ElementID()
}

// ParseElementID resolves an element identifier (or storage key) back to a FieldID.
func ParseElementID(s string) (FieldID, error) {
	switch {
	case s == "status-input" || s == StatusKey:
		return Status(), nil
	case strings.HasPrefix(s, "init-eq-"):
		return parseScalar(s, "init-eq-", GroupInitial)
	case strings.HasPrefix(s, "restrictions-"):
		return parseScalar(s, "restrictions-", GroupRestriction)
	case strings.HasPrefix(s, "fak"):
		return parsePair(s, "fak", GroupFak)
	case strings.HasPrefix(s, "f"):
		return parsePair(s, "f", GroupEquation)
	}
	return FieldID{}, fmt.Errorf("%w: %q", ErrUnknownField, s)
}

func parseScalar(s, prefix string, g Group) (FieldID, error) {
	i, err := strconv.Atoi(strings.TrimPrefix(s, prefix))
	if err != nil {
		return FieldID{}, fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
	id := FieldID{Group: g, Index: i}
	if !id.Valid() {
		return FieldID{}, fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
	return id, nil
}

func parsePair(s, prefix string, g Group) (FieldID, error) {
	rest := strings.TrimPrefix(s, prefix)
	num, part, ok := strings.Cut(rest, "_")
	if !ok || len(part) != 1 {
		return FieldID{}, fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
	i, err := strconv.Atoi(num)
	if err != nil {
		return FieldID{}, fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
	id := FieldID{Group: g, Index: i, Part: Part(part[0])}
	if !id.Valid() {
		return FieldID{}, fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
	return id, nil
}

// Fields lists every field present in the layout in page order:
// disturbances, initial conditions with their restrictions, equations.
func Fields(layout Layout) []FieldID {
	ids := make([]FieldID, 0, 2*FakCount+2*InitialCount+2*EquationCount)
	for i := 1; i <= FakCount; i++ {
		ids = append(ids, Fak(i, PartA), Fak(i, PartB))
	}
	for i := 1; i <= InitialCount; i++ {
		if layout.Initial[i-1] {
			ids = append(ids, Initial(i))
		}
		if layout.Restrictions[i-1] {
			ids = append(ids, Restriction(i))
		}
	}
	for i := 1; i <= EquationCount; i++ {
		ids = append(ids, Equation(i, PartK), Equation(i, PartB))
	}
	return ids
}

// PersistedFields is the exact key set written on randomize/submit and read on restore.
func PersistedFields(layout Layout) []FieldID {
	all := Fields(layout)
	ids := make([]FieldID, 0, len(all))
	for _, id := range all {
		if id.Persisted() {
			ids = append(ids, id)
		}
	}
	return ids
}
