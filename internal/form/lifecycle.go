package form

import (
	"math"
	"strconv"
)

// Rand is the random source used by Randomize. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Random draw ranges, each [lo, hi).
var (
	fakARange       = [2]float64{0.3, 0.8}
	fakBRange       = [2]float64{-0.2, 0.2}
	initialRange    = [2]float64{0.1, 0.8}
	restrictionGap  = [2]float64{0, 0.25}
	equationKRange  = [2]float64{-0.8, 0.8}
	equationBRange  = [2]float64{0.1, 0.9}
	restrictionBase = 0.05
)

// Load runs on every page load. A stored StatusDone restores the last
// submitted values; anything else (including no status) randomizes.
func Load(store Store, layout Layout, rng Rand) (State, error) {
	status, _, err := store.Get(StatusKey)
	if err != nil {
		return NewState(layout), &StoreError{Op: "get", Key: StatusKey, Wrapped: err}
	}
	if IsDone(status) {
		return Restore(store, layout)
	}
	return Randomize(rng, store, NewState(layout))
}

// Restore reads every persisted field from the store. Missing keys leave the
// field empty; no numeric default is applied here.
func Restore(store Store, layout Layout) (State, error) {
	st := NewState(layout)
	status, _, err := store.Get(StatusKey)
	if err != nil {
		return st, &StoreError{Op: "get", Key: StatusKey, Wrapped: err}
	}
	st.Status = status

	for _, id := range PersistedFields(layout) {
		v, _, err := store.Get(id.Key())
		if err != nil {
			return st, &StoreError{Op: "get", Key: id.Key(), Wrapped: err}
		}
		if err := st.Set(id, v); err != nil {
			return st, err
		}
	}
	return st, nil
}

// Randomize draws fresh values for every present field, mirrors the persisted
// ones into the store, drops the stored status and marks the form randomized.
func Randomize(rng Rand, store Store, st State) (State, error) {
	set := func(id FieldID, v string) error {
		if err := st.Set(id, v); err != nil {
			return err
		}
		if !id.Persisted() {
			return nil
		}
		if err := store.Set(id.Key(), v); err != nil {
			return &StoreError{Op: "set", Key: id.Key(), Wrapped: err}
		}
		return nil
	}

	for i := 1; i <= FakCount; i++ {
		if err := set(Fak(i, PartA), fixed2(draw(rng, fakARange))); err != nil {
			return st, err
		}
		if err := set(Fak(i, PartB), fixed2(draw(rng, fakBRange))); err != nil {
			return st, err
		}
	}

	for i := 1; i <= InitialCount; i++ {
		if !st.Initial[i-1].Present && !st.Restrictions[i-1].Present {
			continue
		}
		// a restriction without its initial condition still sits above a drawn one
		value := round2(draw(rng, initialRange))
		if st.Initial[i-1].Present {
			if err := set(Initial(i), fixed2(value)); err != nil {
				return st, err
			}
		}
		if st.Restrictions[i-1].Present {
			limit := value + draw(rng, restrictionGap) + restrictionBase
			if err := set(Restriction(i), fixed2(limit)); err != nil {
				return st, err
			}
		}
	}

	for i := 1; i <= EquationCount; i++ {
		if err := set(Equation(i, PartK), fixed2(draw(rng, equationKRange))); err != nil {
			return st, err
		}
		if err := set(Equation(i, PartB), fixed2(draw(rng, equationBRange))); err != nil {
			return st, err
		}
	}

	if err := store.Remove(StatusKey); err != nil {
		return st, &StoreError{Op: "remove", Key: StatusKey, Wrapped: err}
	}
	st.Status = StatusRandomized
	return st, nil
}

// Persist writes every persisted field of the state into the store.
// The status is not touched.
func Persist(store Store, st State) error {
	for _, id := range PersistedFields(st.Layout()) {
		v, _ := st.Value(id)
		if err := store.Set(id.Key(), v); err != nil {
			return &StoreError{Op: "set", Key: id.Key(), Wrapped: err}
		}
	}
	return nil
}

// SaveStatus sets the status line and mirrors it into the store.
func SaveStatus(store Store, st State, status string) (State, error) {
	st.Status = status
	if err := store.Set(StatusKey, status); err != nil {
		return st, &StoreError{Op: "set", Key: StatusKey, Wrapped: err}
	}
	return st, nil
}

func draw(rng Rand, r [2]float64) float64 {
	return r[0] + rng.Float64()*(r[1]-r[0])
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func fixed2(v float64) string {
	return strconv.FormatFloat(round2(v), 'f', 2, 64)
}
