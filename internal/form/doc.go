// Package form holds the parameter form of the ATS model front end.
//
// The form is an explicit state object:
//
//   - [State]: disturbance factors, initial conditions, restrictions,
//     equation coefficients and the status line
//   - [FieldID]: structured address of one field; the only place where
//     session storage keys and element identifiers are spelled out
//   - [Store]: session-scoped key-value persistence, injected by callers
//
// Page load runs [Load], which either restores the last submitted values
// (status "Выполнено") or draws fresh random ones. [Collect] turns the state
// into the JSON [Request] sent to the simulation service, substituting
// defaults for empty input.
package form
