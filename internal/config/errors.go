package config

import "fmt"

// Error wraps a failure reading or validating a configuration document with
// the stage it happened at, in the same vein as this codebase's other
// component-prefixed errors (qp.Problem.Validate, core.Scenario.Validate).
type Error struct {
	Stage string // "read", "unmarshal", "validate"
	Path  string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrGeometryInfeasible is returned by the random test-instance generator
// when maxPlacementAttempts is exhausted without finding a collision-free
// placement for every agent and goal (spec §7 supplemental: random instance
// generation).
var ErrGeometryInfeasible = fmt.Errorf("config: could not place agents/goals without overlap within the attempt budget")
