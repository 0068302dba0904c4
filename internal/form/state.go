package form

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Status line values. Only StatusDone selects the restore path on load.
const (
	StatusDone       = "Выполнено"
	StatusRandomized = "Заполнено случайно"
	StatusPending    = "Выполняется..."
	StatusFailed     = "Ошибка"
)

// IsDone compares a status against StatusDone after Unicode normalization,
// so composed and decomposed Cyrillic forms of the same word match.
func IsDone(status string) bool {
	return norm.NFC.String(strings.TrimSpace(status)) == StatusDone
}

// Store is the session-scoped key-value store the form is mirrored into.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Pair is the raw text of a two-field record: (a, b) for a disturbance
// a + b·t, (k, b) for an equation k·x + b.
type Pair struct {
	A string
	B string
}

// Slot is an optional field that may be missing from the page.
type Slot struct {
	Present bool
	Value   string
}

// Layout says which initial-condition and restriction positions exist.
type Layout struct {
	Initial      [InitialCount]bool
	Restrictions [InitialCount]bool
}

// FullLayout has every initial condition and restriction present.
func FullLayout() Layout {
	var l Layout
	for i := range l.Initial {
		l.Initial[i] = true
		l.Restrictions[i] = true
	}
	return l
}

// LayoutOf builds a layout from 1-based positions; out-of-range positions are ignored.
func LayoutOf(initial, restrictions []int) Layout {
	var l Layout
	for _, i := range initial {
		if i >= 1 && i <= InitialCount {
			l.Initial[i-1] = true
		}
	}
	for _, i := range restrictions {
		if i >= 1 && i <= InitialCount {
			l.Restrictions[i-1] = true
		}
	}
	return l
}

// State is the whole parameter form as the user sees it.
type State struct {
	Status       string
	Faks         [FakCount]Pair
	Initial      [InitialCount]Slot
	Restrictions [InitialCount]Slot
	Equations    [EquationCount]Pair
}

// NewState returns an empty form shaped by the layout.
func NewState(layout Layout) State {
	var s State
	for i := 0; i < InitialCount; i++ {
		s.Initial[i].Present = layout.Initial[i]
		s.Restrictions[i].Present = layout.Restrictions[i]
	}
	return s
}

// Layout reports which optional positions the state carries.
func (s *State) Layout() Layout {
	var l Layout
	for i := 0; i < InitialCount; i++ {
		l.Initial[i] = s.Initial[i].Present
		l.Restrictions[i] = s.Restrictions[i].Present
	}
	return l
}

// Value returns the text of a field. ok is false for unknown or absent fields.
func (s *State) Value(id FieldID) (string, bool) {
	p, err := s.ref(id)
	if err != nil {
		return "", false
	}
	return *p, true
}

// Set writes the text of a field.
func (s *State) Set(id FieldID, value string) error {
	p, err := s.ref(id)
	if err != nil {
		return err
	}
	*p = value
	return nil
}

func (s *State) ref(id FieldID) (*string, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: %+v", ErrUnknownField, id)
	}
	switch id.Group {
	case GroupStatus:
		return &s.Status, nil
	case GroupFak:
		return pairRef(&s.Faks[id.Index-1], id.Part), nil
	case GroupEquation:
		return pairRef(&s.Equations[id.Index-1], id.Part), nil
	case GroupInitial:
		return slotRef(&s.Initial[id.Index-1], id)
	case GroupRestriction:
		return slotRef(&s.Restrictions[id.Index-1], id)
	}
	return nil, fmt.Errorf("%w: %+v", ErrUnknownField, id)
}

func pairRef(p *Pair, part Part) *string {
	if part == PartB {
		return &p.B
	}
	return &p.A
}

func slotRef(sl *Slot, id FieldID) (*string, error) {
	if !sl.Present {
		return nil, fmt.Errorf("%w: %s", ErrAbsentField, id)
	}
	return &sl.Value, nil
}
