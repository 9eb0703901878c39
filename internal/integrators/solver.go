package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/vesselsim/internal/dynamo"
)

// Fixed integrates a span with a fixed number of equal substeps of a
// single-step integrator.
type Fixed struct {
	stepper  dynamo.Integrator
	substeps int
}

func NewFixed(stepper dynamo.Integrator, substeps int) *Fixed {
	if substeps < 1 {
		substeps = 1
	}
	return &Fixed{stepper: stepper, substeps: substeps}
}

func (f *Fixed) Integrate(sys dynamo.System, x0 dynamo.State, span [2]float64, u dynamo.Control) ([]dynamo.State, error) {
	t0, t1 := span[0], span[1]
	if !(t1 > t0) {
		return nil, fmt.Errorf("%w: [%g, %g]", dynamo.ErrInvalidSpan, t0, t1)
	}

	h := (t1 - t0) / float64(f.substeps)
	x := x0.Clone()
	out := make([]dynamo.State, 0, f.substeps+1)
	out = append(out, x)

	for k := 0; k < f.substeps; k++ {
		t := t0 + float64(k)*h
		x = f.stepper.Step(sys, x, u, t, h)
		if !x.IsValid() {
			return nil, fmt.Errorf("%w at t=%g", dynamo.ErrInvalidState, t)
		}
		out = append(out, x)
	}

	return out, nil
}

// Dopri integrates a span with adaptive Dormand-Prince steps under a mixed
// relative/absolute error tolerance. Every accepted step is returned.
type Dopri struct {
	RelTol   float64
	AbsTol   float64
	MinStep  float64
	MaxSteps int

	rk *RK45
}

func NewDopri(rtol, atol float64) *Dopri {
	return &Dopri{
		RelTol:   rtol,
		AbsTol:   atol,
		MinStep:  1e-12,
		MaxSteps: 100000,
		rk:       NewRK45(),
	}
}

func (d *Dopri) Integrate(sys dynamo.System, x0 dynamo.State, span [2]float64, u dynamo.Control) ([]dynamo.State, error) {
	t, tEnd := span[0], span[1]
	if !(tEnd > t) {
		return nil, fmt.Errorf("%w: [%g, %g]", dynamo.ErrInvalidSpan, t, tEnd)
	}

	x := x0.Clone()
	out := []dynamo.State{x}

	h, err := d.initialStep(sys, x, u, t, tEnd-t)
	if err != nil {
		return nil, err
	}

	for n := 0; ; n++ {
		if n >= d.MaxSteps {
			return nil, fmt.Errorf("%w: %d attempts, reached t=%g of %g", dynamo.ErrMaxSteps, n, t, tEnd)
		}

		remaining := tEnd - t
		last := false
		if h >= remaining || remaining-h <= d.MinStep {
			h = remaining
			last = true
		}

		xNew, errNorm := d.rk.Attempt(sys, x, u, t, h, d.RelTol, d.AbsTol)
		if !xNew.IsValid() || math.IsNaN(errNorm) || math.IsInf(errNorm, 0) {
			return nil, fmt.Errorf("%w at t=%g", dynamo.ErrInvalidState, t)
		}

		if errNorm <= 1 {
			x = xNew
			out = append(out, x)
			if last {
				return out, nil
			}
			t += h
		}

		h = d.rk.NextStep(h, errNorm)
		if h < d.MinStep {
			return nil, fmt.Errorf("%w: h=%g at t=%g", dynamo.ErrStepTooSmall, h, t)
		}
	}
}

// initialStep guesses a first step from the ratio of state to derivative
// magnitudes, capped at the span.
func (d *Dopri) initialStep(sys dynamo.System, x dynamo.State, u dynamo.Control, t, span float64) (float64, error) {
	f := sys.Derive(x, u, t)
	if !x.IsValid() || !f.IsValid() {
		return 0, fmt.Errorf("%w at t=%g", dynamo.ErrInvalidState, t)
	}

	var d0, d1 float64
	for i := range x {
		scale := d.AbsTol + d.RelTol*math.Abs(x[i])
		d0 += (x[i] / scale) * (x[i] / scale)
		d1 += (f[i] / scale) * (f[i] / scale)
	}
	d0, d1 = math.Sqrt(d0), math.Sqrt(d1)

	if d0 < 1e-5 || d1 < 1e-5 {
		return span, nil
	}
	return math.Min(0.01*d0/d1, span), nil
}
