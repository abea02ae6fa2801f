// Package launcher implements the bridge trigger action: find the running
// target application, focus its window, or launch a new instance.
//
// State per trigger:
//
//	Received → Focused | Launched | NotFound | Error
//
// Trigger returns an explicit Result plus an error that handlers match with
// errors.Is(err, ErrExecutableNotFound) or errors.As(err, *ActionError).
// With Options.Dedupe set, concurrent triggers share one in-flight
// query-then-launch so simultaneous clicks start a single process.
package launcher
