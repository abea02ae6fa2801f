package launcher

import (
	"errors"
	"fmt"
)

// Outcome is the terminal state of a trigger action.
type Outcome int

const (
	OutcomeFocused Outcome = iota
	OutcomeLaunched
	OutcomeNotFound
	OutcomeError
)

// String returns the metric label for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeFocused:
		return "focused"
	case OutcomeLaunched:
		return "launched"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Probe is what the process query found before any action was taken.
type Probe string

const (
	ProbeFocused    Probe = "FOCUSED"
	ProbeNoWindow   Probe = "NO_WINDOW"
	ProbeNotRunning Probe = "NOT_RUNNING"
)

// Result describes a trigger action.
type Result struct {
	Outcome Outcome
	Probe   Probe
	// PID of the focused or launched process, zero otherwise.
	PID int
}

// Success reports whether the target ended up focused or launched.
func (r Result) Success() bool {
	return r.Outcome == OutcomeFocused || r.Outcome == OutcomeLaunched
}

// Message is the client-facing text for a successful result.
func (r Result) Message() string {
	switch r.Outcome {
	case OutcomeFocused:
		return "Focused"
	case OutcomeLaunched:
		return "Launched"
	default:
		return ""
	}
}

// ErrExecutableNotFound means the configured executable path does not exist.
var ErrExecutableNotFound = errors.New("executable not found")

// ActionError wraps an OS failure during one step of the trigger action.
type ActionError struct {
	Op  string // "query", "focus", "launch", "trigger"
	Err error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}
