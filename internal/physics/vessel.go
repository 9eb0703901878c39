package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/vesselsim/internal/dynamo"
)

// State layout.
const (
	Volume = iota
	Concentration
	Temperature
	StateDim
)

// Input layout, in the order the derivative consumes them.
const (
	OutletFlow = iota
	InletFlow
	FeedConcentration
	FeedTemperature
	InputDim
)

// ReactionRate is the species consumption term. The vessel only mixes.
const ReactionRate = 0.0

// Vessel is a continuously-stirred mixing tank with time-varying inlet and
// outlet flows. Units: L, mol/L, K and minutes.
type Vessel struct{}

func NewVessel() *Vessel {
	return &Vessel{}
}

func NewState(volume, concentration, temperature float64) dynamo.State {
	return dynamo.State{volume, concentration, temperature}
}

func NewInputs(outletFlow, inletFlow, feedConc, feedTemp float64) dynamo.Control {
	return dynamo.Control{outletFlow, inletFlow, feedConc, feedTemp}
}

func (v *Vessel) StateDim() int   { return StateDim }
func (v *Vessel) ControlDim() int { return InputDim }

// Derive returns (dV/dt, dCa/dt, dT/dt). The concentration and temperature
// balances come from the product rule on V*Ca and V*T, so both reuse dV/dt.
// A non-positive volume is outside the model's domain and yields NaN.
func (v *Vessel) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	vol, ca, temp := x[Volume], x[Concentration], x[Temperature]
	q, qf, caf, tf := u[OutletFlow], u[InletFlow], u[FeedConcentration], u[FeedTemperature]

	if vol <= 0 {
		nan := math.NaN()
		return dynamo.State{nan, nan, nan}
	}

	dVdt := qf - q
	dCadt := (qf*caf-q*ca)/vol - ReactionRate - ca*dVdt/vol
	dTdt := (qf*tf-q*temp)/vol - temp*dVdt/vol

	return dynamo.State{dVdt, dCadt, dTdt}
}

// ValidateState rejects states outside the model's domain: the volume must be
// positive, the concentration non-negative and the temperature positive.
func (v *Vessel) ValidateState(x dynamo.State) error {
	if len(x) != StateDim {
		return fmt.Errorf("%w: vessel state has %d components, want %d", dynamo.ErrDimensionMismatch, len(x), StateDim)
	}
	switch {
	case !(x[Volume] > 0):
		return fmt.Errorf("%w: volume %v must be positive", dynamo.ErrInvalidState, x[Volume])
	case !(x[Concentration] >= 0):
		return fmt.Errorf("%w: concentration %v must be non-negative", dynamo.ErrInvalidState, x[Concentration])
	case !(x[Temperature] > 0):
		return fmt.Errorf("%w: temperature %v must be positive", dynamo.ErrInvalidState, x[Temperature])
	}
	return nil
}

// Holdup returns the moles of species in the vessel.
func (v *Vessel) Holdup(x dynamo.State) float64 {
	return x[Volume] * x[Concentration]
}
