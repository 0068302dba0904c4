package form

import (
	"fmt"
	"sort"
)

// Preset is a named set of disturbance and equation coefficients.
type Preset struct {
	Description string
	Faks        [FakCount][2]float64
	Equations   [EquationCount][2]float64
}

var Presets = map[string]Preset{
	// Reference system (3): F_i = a + b·t and f_i(x) = k·x + b.
	"document": {
		Description: "coefficients of the reference ATS system",
		Faks: [FakCount][2]float64{
			{0.63, 0.37},
			{1.00, -0.23},
			{1.00, -0.33},
			{0.51, 0.46},
			{0.60, 0.40},
		},
		Equations: [EquationCount][2]float64{
			{-0.49, 0.97},
			{0.10, 0.53},
			{0.06, 0.53},
			{0.08, 0.75},
			{0.20, 0.72},
			{-0.20, 0.97},
			{0.38, 0.52},
			{-0.37, 0.78},
			{0.09, 0.45},
			{0.17, 0.55},
			{-0.44, 1.02},
			{0.05, 0.66},
			{0.48, 0.45},
			{-0.47, 1.18},
			{-0.77, 1.37},
			{0.22, 0.59},
			{-0.71, 1.24},
			{-0.02, 0.87},
		},
	},
	"neutral": {
		Description: "defaults used for empty fields",
		Faks:        uniformPairs5(0.5, 0.0),
		Equations:   uniformPairs18(0.3, 0.5),
	},
}

func uniformPairs5(a, b float64) (out [FakCount][2]float64) {
	for i := range out {
		out[i] = [2]float64{a, b}
	}
	return
}

func uniformPairs18(k, b float64) (out [EquationCount][2]float64) {
	for i := range out {
		out[i] = [2]float64{k, b}
	}
	return
}

// ApplyPreset overwrites disturbances and equations with the named preset.
// Initial conditions, restrictions and the status are left alone.
func ApplyPreset(st State, name string) (State, error) {
	p, ok := Presets[name]
	if !ok {
		return st, fmt.Errorf("%w: %s (available: %v)", ErrUnknownPreset, name, ListPresets())
	}
	for i, f := range p.Faks {
		st.Faks[i] = Pair{A: fixed2(f[0]), B: fixed2(f[1])}
	}
	for i, e := range p.Equations {
		st.Equations[i] = Pair{A: fixed2(e[0]), B: fixed2(e[1])}
	}
	return st, nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
