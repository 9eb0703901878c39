package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrInvalidGrid indicates an empty or non-increasing time grid.
	ErrInvalidGrid = errors.New("dynamo: time grid must be non-empty and strictly increasing")

	// ErrInvalidSpan indicates an integration interval whose end is not after its start.
	ErrInvalidSpan = errors.New("dynamo: integration span must be increasing")

	// ErrStepTooSmall indicates adaptive timestep became too small.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrMaxSteps indicates a solver used its step budget before reaching the end of the span.
	ErrMaxSteps = errors.New("dynamo: solver step budget exhausted")

	// ErrDimensionMismatch indicates mismatched state/input/grid dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrNoSolver indicates a run was configured without a solver.
	ErrNoSolver = errors.New("dynamo: no solver configured")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
