package dynamo

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	if len(s) == 0 {
		return 0
	}
	return floats.Norm(s, 2)
}

// Sub allocates a new State and panics on length mismatch.
func (s State) Sub(other State) State {
	return floats.SubTo(make(State, len(s)), s, other)
}

// Control holds the externally imposed inputs of a step. They are held
// constant across one integration interval.
type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// StateValidator is implemented by systems whose state has a physical
// domain narrower than "finite".
type StateValidator interface {
	ValidateState(x State) error
}

// Integrator advances a state by a single step of size dt.
type Integrator interface {
	Step(sys System, x State, u Control, t, dt float64) State
}

// Solver integrates an initial value problem across span[0]..span[1] with u
// held constant. The returned sub-trajectory starts with a copy of x0 and ends
// with the state at span[1]; intermediate points are solver dependent.
type Solver interface {
	Integrate(sys System, x0 State, span [2]float64, u Control) ([]State, error)
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}
