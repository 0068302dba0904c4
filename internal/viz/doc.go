// Package viz holds the terminal styles shared by the TUI and the CLI, and
// the disturbance preview plot.
//
// The status line colors follow the result of the last run:
//
//   - [StatusDone]: the computation finished
//   - [StatusPending]: a request is in flight
//   - [StatusFailed]: the service reported or caused an error
//
// [DisturbancePreview] draws the five input lines F(t) = a + b·t clamped to
// [DisturbanceMin, DisturbanceMax] with asciigraph.
package viz
