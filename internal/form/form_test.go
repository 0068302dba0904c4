package form

import (
	"encoding/json"
	"errors"
	"math/rand"
	"strconv"
	"testing"
)

type mapStore map[string]string

func (m mapStore) Get(key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m mapStore) Set(key, value string) error {
	m[key] = value
	return nil
}

func (m mapStore) Remove(key string) error {
	delete(m, key)
	return nil
}

type failingStore struct{ mapStore }

var errDisk = errors.New("disk full")

func (failingStore) Set(key, value string) error { return errDisk }

func parse(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func TestFieldKeys(t *testing.T) {
	tests := []struct {
		id      FieldID
		key     string
		element string
	}{
		{Status(), "status", "status-input"},
		{Fak(1, PartA), "fak1_a", "fak1_a"},
		{Fak(5, PartB), "fak5_b", "fak5_b"},
		{Initial(8), "init-eq-8", "init-eq-8"},
		{Restriction(3), "restrictions-3", "restrictions-3"},
		{Equation(18, PartK), "f18_k", "f18_k"},
		{Equation(1, PartB), "f1_b", "f1_b"},
	}

	for _, tt := range tests {
		if got := tt.id.Key(); got != tt.key {
			t.Errorf("Key(%+v) = %s, want %s", tt.id, got, tt.key)
		}
		if got := tt.id.ElementID(); got != tt.element {
			t.Errorf("ElementID(%+v) = %s, want %s", tt.id, got, tt.element)
		}
		back, err := ParseElementID(tt.element)
		if err != nil {
			t.Fatalf("ParseElementID(%s): %v", tt.element, err)
		}
		if back != tt.id {
			t.Errorf("ParseElementID(%s) = %+v, want %+v", tt.element, back, tt.id)
		}
	}
}

func TestParseElementID_Invalid(t *testing.T) {
	for _, s := range []string{"", "fak6_a", "fak1_k", "f19_k", "f1_a", "init-eq-0", "init-eq-9", "restrictions-x", "f1k"} {
		if _, err := ParseElementID(s); !errors.Is(err, ErrUnknownField) {
			t.Errorf("ParseElementID(%q) err = %v, want ErrUnknownField", s, err)
		}
	}
}

func TestPersistedFields(t *testing.T) {
	ids := PersistedFields(FullLayout())
	if len(ids) != 2*FakCount+InitialCount+2*EquationCount {
		t.Fatalf("expected %d persisted fields, got %d", 2*FakCount+InitialCount+2*EquationCount, len(ids))
	}
	for _, id := range ids {
		if id.Group == GroupRestriction || id.Group == GroupStatus {
			t.Errorf("unexpected persisted field %s", id)
		}
	}

	sparse := LayoutOf([]int{1, 3}, []int{1})
	if got := len(PersistedFields(sparse)); got != 2*FakCount+2+2*EquationCount {
		t.Errorf("sparse layout: got %d persisted fields", got)
	}
}

func TestStateAbsentField(t *testing.T) {
	st := NewState(LayoutOf([]int{2}, nil))
	if err := st.Set(Initial(1), "0.4"); !errors.Is(err, ErrAbsentField) {
		t.Errorf("expected ErrAbsentField, got %v", err)
	}
	if err := st.Set(Initial(2), "0.4"); err != nil {
		t.Fatalf("set present field: %v", err)
	}
	if v, ok := st.Value(Initial(2)); !ok || v != "0.4" {
		t.Errorf("Value = %q, %v", v, ok)
	}
	if _, ok := st.Value(Restriction(2)); ok {
		t.Error("absent restriction reported as present")
	}
}

func TestRandomize_RangesAndStore(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 200; run++ {
		store := mapStore{StatusKey: StatusDone}
		st, err := Randomize(rng, store, NewState(FullLayout()))
		if err != nil {
			t.Fatalf("randomize: %v", err)
		}

		if st.Status != StatusRandomized {
			t.Errorf("status = %q", st.Status)
		}
		if _, ok := store[StatusKey]; ok {
			t.Error("status key should be removed")
		}

		for i, f := range st.Faks {
			a, b := parse(t, f.A), parse(t, f.B)
			if a < 0.30 || a > 0.80 {
				t.Errorf("fak%d_a = %v out of range", i+1, a)
			}
			if b < -0.20 || b > 0.20 {
				t.Errorf("fak%d_b = %v out of range", i+1, b)
			}
		}
		for i := range st.Initial {
			v := parse(t, st.Initial[i].Value)
			r := parse(t, st.Restrictions[i].Value)
			if v < 0.10 || v > 0.80 {
				t.Errorf("init-eq-%d = %v out of range", i+1, v)
			}
			if r <= v {
				t.Errorf("restriction %d = %v not above initial %v", i+1, r, v)
			}
		}
		for i, e := range st.Equations {
			k, b := parse(t, e.A), parse(t, e.B)
			if k < -0.80 || k > 0.80 || b < 0.10 || b > 0.90 {
				t.Errorf("f%d = (%v, %v) out of range", i+1, k, b)
			}
		}

		for _, id := range PersistedFields(FullLayout()) {
			v, _ := st.Value(id)
			if store[id.Key()] != v {
				t.Fatalf("%s: store %q != form %q", id, store[id.Key()], v)
			}
		}
		for i := 1; i <= InitialCount; i++ {
			if _, ok := store[Restriction(i).Key()]; ok {
				t.Fatalf("restriction %d should not be persisted", i)
			}
		}
	}
}

func TestRandomize_TwoDecimals(t *testing.T) {
	st, err := Randomize(rand.New(rand.NewSource(1)), mapStore{}, NewState(FullLayout()))
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range Fields(FullLayout()) {
		v, _ := st.Value(id)
		dot := len(v) - 3
		if dot < 0 || v[dot] != '.' {
			t.Errorf("%s = %q, want two decimals", id, v)
		}
	}
}

func TestRandomize_SparseLayout(t *testing.T) {
	store := mapStore{}
	layout := LayoutOf([]int{1, 4}, []int{4})
	st, err := Randomize(rand.New(rand.NewSource(3)), store, NewState(layout))
	if err != nil {
		t.Fatal(err)
	}
	if st.Initial[1].Value != "" || st.Initial[1].Present {
		t.Error("absent initial condition was filled")
	}
	if st.Restrictions[0].Value != "" {
		t.Error("absent restriction was filled")
	}
	if st.Restrictions[3].Value == "" {
		t.Error("present restriction left empty")
	}
	if _, ok := store["init-eq-2"]; ok {
		t.Error("absent initial condition was persisted")
	}
	if _, ok := store["init-eq-4"]; !ok {
		t.Error("present initial condition not persisted")
	}
}

func TestRandomize_RestrictionWithoutInitial(t *testing.T) {
	store := mapStore{}
	layout := LayoutOf([]int{1}, []int{1, 2})
	st, err := Randomize(rand.New(rand.NewSource(5)), store, NewState(layout))
	if err != nil {
		t.Fatal(err)
	}
	if st.Initial[1].Value != "" {
		t.Error("absent initial condition was filled")
	}
	if _, ok := store["init-eq-2"]; ok {
		t.Error("absent initial condition was persisted")
	}
	limit := st.Restrictions[1].Value
	if limit == "" {
		t.Fatal("restriction without an initial condition left empty")
	}
	v := parse(t, limit)
	if v < initialRange[0]+restrictionBase || v > initialRange[1]+restrictionGap[1]+restrictionBase+1e-9 {
		t.Errorf("restriction %v out of range", v)
	}
}

func TestRandomize_StoreFailure(t *testing.T) {
	_, err := Randomize(rand.New(rand.NewSource(1)), failingStore{mapStore{}}, NewState(FullLayout()))
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if !errors.Is(err, errDisk) {
		t.Error("StoreError should unwrap to the store failure")
	}
}

func TestCollect_Defaults(t *testing.T) {
	req, st := Collect(NewState(FullLayout()))

	if len(req.Faks) != FakCount || len(req.Equations) != EquationCount {
		t.Fatalf("unexpected lengths %d/%d", len(req.Faks), len(req.Equations))
	}
	for i, f := range req.Faks {
		if f != [2]float64{0.5, 0.0} {
			t.Errorf("faks[%d] = %v", i, f)
		}
	}
	for i, e := range req.Equations {
		if e != [2]float64{0.3, 0.5} {
			t.Errorf("equations[%d] = %v", i, e)
		}
	}
	if len(req.InitialEquations) != InitialCount {
		t.Fatalf("initial_equations len = %d", len(req.InitialEquations))
	}
	for i, v := range req.InitialEquations {
		if v != 0.5 {
			t.Errorf("initial_equations[%d] = %v", i, v)
		}
	}
	for i, v := range req.Restrictions {
		if v != 1.0 {
			t.Errorf("restrictions[%d] = %v", i, v)
		}
	}

	if st.Faks[0].A != "0.5" || st.Faks[0].B != "0" || st.Initial[0].Value != "0.5" {
		t.Errorf("defaults not written back: %+v %+v", st.Faks[0], st.Initial[0])
	}
}

func TestCollect_PayloadShape(t *testing.T) {
	req, _ := Collect(NewState(LayoutOf([]int{1, 2, 3}, []int{1, 2, 3})))
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"faks", "initial_equations", "restrictions", "equations"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("payload missing %s", key)
		}
	}
	if string(raw["initial_equations"]) != "[0.5,0.5,0.5]" {
		t.Errorf("initial_equations = %s", raw["initial_equations"])
	}
	if string(raw["faks"])[:9] != "[[0.5,0]," {
		t.Errorf("faks = %s", raw["faks"])
	}
}

func TestCollect_InvalidInputUsesDefault(t *testing.T) {
	st := NewState(FullLayout())
	st.Faks[2] = Pair{A: "abc", B: " 0.25 "}
	st.Equations[4] = Pair{A: "NaN", B: "-0.1"}
	st.Initial[5].Value = "Inf"

	req, out := Collect(st)
	if req.Faks[2] != [2]float64{0.5, 0.25} {
		t.Errorf("faks[2] = %v", req.Faks[2])
	}
	if req.Equations[4] != [2]float64{0.3, -0.1} {
		t.Errorf("equations[4] = %v", req.Equations[4])
	}
	if req.InitialEquations[5] != 0.5 {
		t.Errorf("initial[5] = %v", req.InitialEquations[5])
	}
	if out.Faks[2].B != "0.25" {
		t.Errorf("canonical text = %q", out.Faks[2].B)
	}
}

func TestLoad_Branches(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	store := mapStore{}
	st, err := Load(store, FullLayout(), rng)
	if err != nil {
		t.Fatal(err)
	}
	if st.Status != StatusRandomized {
		t.Errorf("fresh session status = %q", st.Status)
	}

	store[StatusKey] = "Ошибка"
	st, err = Load(store, FullLayout(), rng)
	if err != nil {
		t.Fatal(err)
	}
	if st.Status != StatusRandomized {
		t.Errorf("non-done status should randomize, got %q", st.Status)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	store := mapStore{}
	st := NewState(FullLayout())
	st.Faks[0] = Pair{A: "0.7", B: "-0.1"}
	st.Initial[7].Value = "0.33"
	st.Equations[17] = Pair{A: "0.12", B: "0.8"}

	_, st = Collect(st)
	if err := Persist(store, st); err != nil {
		t.Fatal(err)
	}
	st, err := SaveStatus(store, st, StatusDone)
	if err != nil {
		t.Fatal(err)
	}

	restored, err := Load(store, FullLayout(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range PersistedFields(FullLayout()) {
		want, _ := st.Value(id)
		got, _ := restored.Value(id)
		if got != want {
			t.Errorf("%s: restored %q, want %q", id, got, want)
		}
	}
	if restored.Status != StatusDone {
		t.Errorf("status = %q", restored.Status)
	}
	if restored.Restrictions[0].Value != "" {
		t.Error("restrictions are not restored from storage")
	}
}

func TestRestore_MissingKeysStayEmpty(t *testing.T) {
	store := mapStore{StatusKey: StatusDone, "fak1_a": "0.4"}
	st, err := Restore(store, FullLayout())
	if err != nil {
		t.Fatal(err)
	}
	if st.Faks[0].A != "0.4" || st.Faks[0].B != "" || st.Equations[0].A != "" {
		t.Errorf("unexpected restore: %+v %+v", st.Faks[0], st.Equations[0])
	}
}

func TestIsDone_Normalization(t *testing.T) {
	if !IsDone(" Выполнено ") {
		t.Error("whitespace should be ignored")
	}
	if IsDone("Ошибка") || IsDone("") {
		t.Error("only the done sentinel matches")
	}
}

func TestApplyPreset(t *testing.T) {
	st, err := ApplyPreset(NewState(FullLayout()), "document")
	if err != nil {
		t.Fatal(err)
	}
	if st.Faks[0] != (Pair{A: "0.63", B: "0.37"}) {
		t.Errorf("faks[0] = %+v", st.Faks[0])
	}
	if st.Equations[14] != (Pair{A: "-0.77", B: "1.37"}) {
		t.Errorf("equations[14] = %+v", st.Equations[14])
	}
	if _, err := ApplyPreset(st, "missing"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe(Equation(1, PartK)); got != "f₁(X₂) k" {
		t.Errorf("Describe(f1_k) = %q", got)
	}
	if got := Describe(Initial(8)); got != "X₈(0)" {
		t.Errorf("Describe(init-eq-8) = %q", got)
	}
	if got := Subscript(18); got != "₁₈" {
		t.Errorf("Subscript(18) = %q", got)
	}
}
