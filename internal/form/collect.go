package form

import (
	"math"
	"strconv"
	"strings"
)

// Defaults substituted for empty or unparseable input.
const (
	DefaultFakA        = "0.5"
	DefaultFakB        = "0.0"
	DefaultInitial     = "0.5"
	DefaultRestriction = "1.0"
	DefaultEquationK   = "0.3"
	DefaultEquationB   = "0.5"
)

// Request is the body of POST /draw_graphics. Arrays are positional,
// index 1..N ascending; sparse groups carry only present positions.
type Request struct {
	Faks             [][2]float64 `json:"faks"`
	InitialEquations []float64    `json:"initial_equations"`
	Restrictions     []float64    `json:"restrictions"`
	Equations        [][2]float64 `json:"equations"`
}

// Collect reads the form into a request, substituting defaults, and returns
// the state with the substituted values written back so the form and the
// store stay in step after Persist.
func Collect(st State) (Request, State) {
	req := Request{
		Faks:             make([][2]float64, 0, FakCount),
		InitialEquations: make([]float64, 0, InitialCount),
		Restrictions:     make([]float64, 0, InitialCount),
		Equations:        make([][2]float64, 0, EquationCount),
	}

	for i := range st.Faks {
		a, atext := number(st.Faks[i].A, DefaultFakA)
		b, btext := number(st.Faks[i].B, DefaultFakB)
		st.Faks[i] = Pair{A: atext, B: btext}
		req.Faks = append(req.Faks, [2]float64{a, b})
	}

	for i := range st.Initial {
		if !st.Initial[i].Present {
			continue
		}
		v, text := number(st.Initial[i].Value, DefaultInitial)
		st.Initial[i].Value = text
		req.InitialEquations = append(req.InitialEquations, v)
	}

	for i := range st.Restrictions {
		if !st.Restrictions[i].Present {
			continue
		}
		v, text := number(st.Restrictions[i].Value, DefaultRestriction)
		st.Restrictions[i].Value = text
		req.Restrictions = append(req.Restrictions, v)
	}

	for i := range st.Equations {
		k, ktext := number(st.Equations[i].A, DefaultEquationK)
		b, btext := number(st.Equations[i].B, DefaultEquationB)
		st.Equations[i] = Pair{A: ktext, B: btext}
		req.Equations = append(req.Equations, [2]float64{k, b})
	}

	return req, st
}

// number parses field text, falling back to def when the text is empty or
// not a finite number. The returned text is the canonical form of the value.
func number(text, def string) (float64, string) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		v, _ = strconv.ParseFloat(def, 64)
	}
	return v, strconv.FormatFloat(v, 'f', -1, 64)
}
